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
	"os"

	"github.com/spf13/cobra"

	"github.com/asig/nachosfs/internal/blockdevice"
	"github.com/asig/nachosfs/internal/openfile"
	"github.com/asig/nachosfs/internal/util"
)

var catHex bool

var catCmd = &cobra.Command{
	Use:   "cat PATH",
	Short: "Print a file's contents from the image to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		device, fs, err := openExistingVolume()
		if err != nil {
			return err
		}
		defer device.Close()

		reg := openfile.New(fs)
		id, ok := reg.OpenForID(args[0])
		if !ok {
			return fmt.Errorf("cat: %s not found", args[0])
		}
		defer reg.CloseByID(id)

		data := make([]byte, 0, reg.LengthByID(id))
		buf := make([]byte, blockdevice.SectorSize)
		for {
			n := reg.ReadByID(id, buf)
			if n == 0 {
				break
			}
			data = append(data, buf[:n]...)
		}

		if catHex {
			fmt.Print(util.HexDump(data, 0, len(data)))
			return nil
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

func init() {
	catCmd.Flags().BoolVarP(&catHex, "hex", "x", false, "hex-dump instead of raw bytes")
	rootCmd.AddCommand(catCmd)
}
