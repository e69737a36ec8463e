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

// Command nachosfs drives the file-system core over a host-file-backed
// volume image: format, create, list, read, write, remove, and an
// optional FUSE mount.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/asig/nachosfs/internal/blockdevice"
	"github.com/asig/nachosfs/internal/filesys"
)

const version = "v0.1"

var (
	flagImage    string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:     "nachosfs",
	Short:   "Nachos-style file-system volume tool",
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging(flagLogLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagImage, "image", "i", "", "volume image path")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
}

func initLogging(level string) {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = zerolog.
		New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			NoColor:    false,
		}).
		With().Timestamp().Logger()
}

// requireImage validates that --image was given.
func requireImage() error {
	if flagImage == "" {
		return fmt.Errorf("--image is required")
	}
	return nil
}

// openExistingVolume opens flagImage's device and mounts the facade
// over it without formatting.
func openExistingVolume() (*blockdevice.FileBlockDevice, *filesys.FileSystem, error) {
	if err := requireImage(); err != nil {
		return nil, nil, err
	}
	device, err := blockdevice.OpenFile(flagImage)
	if err != nil {
		return nil, nil, err
	}
	fs, err := filesys.OpenVolume(device)
	if err != nil {
		device.Close()
		return nil, nil, err
	}
	return device, fs, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
