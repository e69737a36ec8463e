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
	"os"
	"os/signal"
	"syscall"

	bazilfuse "bazil.org/fuse"
	bazilfs "bazil.org/fuse/fs"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/asig/nachosfs/internal/fsfuse"
)

var mountCmd = &cobra.Command{
	Use:   "mount MOUNTPOINT",
	Short: "Mount the volume as a FUSE file system",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mountpoint := args[0]

		device, fs, err := openExistingVolume()
		if err != nil {
			return err
		}
		defer device.Close()

		conn, err := bazilfuse.Mount(
			mountpoint,
			bazilfuse.FSName("nachosfs"),
			bazilfuse.Subtype("nachosfs"),
		)
		if err != nil {
			return err
		}
		defer conn.Close()

		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigc
			log.Info().Msg("unmounting")
			_ = bazilfuse.Unmount(mountpoint)
		}()

		log.Info().Str("mountpoint", mountpoint).Msg("mounted volume")
		if err := bazilfs.Serve(conn, fsfuse.NewFS(fs)); err != nil {
			return err
		}

		<-conn.Ready
		return conn.MountError
	},
}

func init() {
	rootCmd.AddCommand(mountCmd)
}
