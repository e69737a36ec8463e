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

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/asig/nachosfs/internal/openfile"
)

// writeCmd copies a host file into a newly created in-image file.
var writeCmd = &cobra.Command{
	Use:   "write SRC DEST",
	Short: "Copy a file from the host into the image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, dest := args[0], args[1]

		data, err := os.ReadFile(src)
		if err != nil {
			return err
		}

		device, fs, err := openExistingVolume()
		if err != nil {
			return err
		}
		defer device.Close()

		ok, err := fs.Create(dest, uint32(len(data)), false)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("write: could not create %s in image", dest)
		}

		reg := openfile.New(fs)
		id, ok := reg.OpenForID(dest)
		if !ok {
			return fmt.Errorf("write: could not open %s in image", dest)
		}
		defer reg.CloseByID(id)

		if n := reg.WriteByID(id, data); n != len(data) {
			return fmt.Errorf("write: short write to %s: wrote %d of %d bytes", dest, n, len(data))
		}

		log.Info().Str("src", src).Str("dest", dest).Int("bytes", len(data)).Msg("wrote file into image")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(writeCmd)
}
