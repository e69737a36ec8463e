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

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/asig/nachosfs/internal/blockdevice"
	"github.com/asig/nachosfs/internal/config"
	"github.com/asig/nachosfs/internal/directory"
	"github.com/asig/nachosfs/internal/filesys"
)

var formatTotalSectors int

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Create a new, empty volume image",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireImage(); err != nil {
			return err
		}

		sectors := formatTotalSectors
		if sectors == 0 {
			sectors = config.DefaultTotalSectors
		}
		minSectors := minSectorsForFormat()
		if sectors < minSectors {
			return fmt.Errorf("format: --sectors %d too small, need at least %d to hold the free map and root directory", sectors, minSectors)
		}

		device, err := blockdevice.CreateFile(flagImage, sectors)
		if err != nil {
			return err
		}
		defer device.Close()

		if _, err := filesys.Format(device); err != nil {
			return err
		}

		log.Info().Str("image", flagImage).Int("sectors", sectors).Msg("volume formatted")
		return nil
	},
}

// minSectorsForFormat is the smallest volume geometry that can hold the
// free-map file, the root directory file, and their own headers — a
// concrete edge case spec.md's bitmap-consistency invariant (§8)
// implies without naming as a format-time failure mode. The root
// directory's data alone needs multiple sectors (directory.FileSize
// exceeds one sector), so the true minimum is more than one data
// sector per file.
func minSectorsForFormat() int {
	rootDirDataSectors := (directory.FileSize + blockdevice.SectorSize - 1) / blockdevice.SectorSize
	// Free-map header + root header + one free-map data sector + the
	// root directory's data sectors.
	return 2 + 1 + rootDirDataSectors
}

func init() {
	formatCmd.Flags().IntVarP(&formatTotalSectors, "sectors", "s", config.DefaultTotalSectors, "total sectors on the new volume")
	rootCmd.AddCommand(formatCmd)
}
