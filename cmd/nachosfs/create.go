/*
 * This file is part of then Oberon Disk Image Tool ("odit")
 * Copyright (C) 2025 Andreas Signer <asigner@gmail.com>
 *
 * odit is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * odit is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with Oberon Disk Image Tool.  If not, see <https://www.gnu.org/licenses/>.
 */

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var createSize int

var createCmd = &cobra.Command{
	Use:   "create PATH",
	Short: "Create an empty file of a fixed size",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		device, fs, err := openExistingVolume()
		if err != nil {
			return err
		}
		defer device.Close()

		ok, err := fs.Create(args[0], uint32(createSize), false)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("create: failed")
		}
		return nil
	},
}

func init() {
	createCmd.Flags().IntVarP(&createSize, "size", "s", 0, "file size in bytes")
	rootCmd.AddCommand(createCmd)
}
