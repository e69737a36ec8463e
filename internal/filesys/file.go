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

package filesys

import (
	"github.com/asig/nachosfs/internal/blockdevice"
	"github.com/asig/nachosfs/internal/inode"
)

// File is a transient, per-operation handle binding a header to the
// device it lives on. It offers byte-offset reads and writes translated
// through the header's direct/indirect sector table — the operation
// required to build the in-memory open-file handles that live outside
// this module's scope (spec.md §1).
type File struct {
	device       blockdevice.BlockDevice
	headerSector int
	header       *inode.Header
}

// openFileAt fetches the header at sector and wraps it as a File.
func openFileAt(device blockdevice.BlockDevice, sector int) (*File, error) {
	h := inode.New()
	if err := h.FetchFrom(device, sector); err != nil {
		return nil, err
	}
	return &File{device: device, headerSector: sector, header: h}, nil
}

// newFileWithHeader wraps an already-built, not-yet-written header —
// used right after Create allocates one, avoiding a redundant fetch.
func newFileWithHeader(device blockdevice.BlockDevice, sector int, header *inode.Header) *File {
	return &File{device: device, headerSector: sector, header: header}
}

// HeaderSector returns the sector this file's header lives at.
func (f *File) HeaderSector() int {
	return f.headerSector
}

// FileLength returns the file's logical length in bytes.
func (f *File) FileLength() uint32 {
	return f.header.FileLength()
}

// ReadAt reads up to l bytes starting at pos, clamped to the file's
// length.
func (f *File) ReadAt(pos uint32, l uint32) ([]byte, error) {
	length := f.FileLength()
	if pos >= length {
		return nil, nil
	}
	if pos+l > length {
		l = length - pos
	}

	data := make([]byte, 0, l)
	buf := make([]byte, blockdevice.SectorSize)
	for l > 0 {
		sectorAddr := f.header.ByteToSector(pos)
		offsetInSector := pos % blockdevice.SectorSize
		if err := f.device.ReadSector(sectorAddr, buf); err != nil {
			return nil, err
		}
		n := blockdevice.SectorSize - offsetInSector
		if n > l {
			n = l
		}
		data = append(data, buf[offsetInSector:offsetInSector+n]...)
		pos += n
		l -= n
	}
	return data, nil
}

// WriteAt writes data starting at pos. The caller must stay within the
// file's fixed length — this module has no extensible-file semantics
// (spec.md §1 Non-goals), so writing past it is undefined behavior, not
// a growth request.
func (f *File) WriteAt(pos uint32, data []byte) error {
	buf := make([]byte, blockdevice.SectorSize)
	for len(data) > 0 {
		sectorAddr := f.header.ByteToSector(pos)
		offsetInSector := pos % blockdevice.SectorSize
		if err := f.device.ReadSector(sectorAddr, buf); err != nil {
			return err
		}
		n := uint32(copy(buf[offsetInSector:], data))
		if err := f.device.WriteSector(sectorAddr, buf); err != nil {
			return err
		}
		data = data[n:]
		pos += n
	}
	return nil
}
