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

// Package inode implements the on-disk file header: a one-sector index
// record addressing a file's data sectors through a small set of direct
// pointers plus one level of indirection.
package inode

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/asig/nachosfs/internal/blockdevice"
	"github.com/asig/nachosfs/internal/freemap"
	"github.com/asig/nachosfs/internal/util"
)

const (
	NumDirect   = 28
	NumIndirect = 2
	// NumMaxSect is the number of direct pointers an indirect header can
	// hold: one sector's worth of int32 slots.
	NumMaxSect = blockdevice.SectorSize / 4

	// MaxFileLength is the largest file length representable by one
	// header: NumDirect direct sectors plus NumIndirect indirect blocks
	// of NumMaxSect sectors each.
	MaxFileLength = NumDirect*blockdevice.SectorSize + NumIndirect*NumMaxSect*blockdevice.SectorSize

	ofsNumBytes    = 0
	ofsNumSectors  = 4
	ofsDataSectors = 8

	unused = int32(-1)
)

// ErrNoSpaceOnDisk is returned by Allocate when the free map cannot
// satisfy the requested size.
var ErrNoSpaceOnDisk = errors.New("no space on disk")

// Header is the in-memory form of one on-disk file header, or of an
// indirect (extension) header — the two share the same on-disk layout,
// and an indirect header's direct portion is the only part that is
// meaningful (spec.md §3).
type Header struct {
	numBytes    int32
	numSectors  int32
	dataSectors [NumDirect + NumIndirect]int32
	indirect    [NumIndirect]*Header // loaded children, valid after FetchFrom
}

// New returns a fresh, empty header with every slot unused.
func New() *Header {
	h := &Header{}
	for i := range h.dataSectors {
		h.dataSectors[i] = unused
	}
	return h
}

func ceilDiv(a, b int32) int32 {
	return (a + b - 1) / b
}

// FileLength returns the logical length in bytes.
func (h *Header) FileLength() uint32 {
	return uint32(h.numBytes)
}

// Allocate reserves blocks for a new file of fileSize bytes, filling
// direct slots first and spilling into indirect blocks in order. It
// does not roll back a partial allocation on failure: to leave the disk
// unchanged, the caller either discards freeMap without writing it back
// or calls Deallocate on h to clear every bit the failed attempt set
// (spec.md §4.2).
func (h *Header) Allocate(fm *freemap.FreeMap, fileSize uint32) error {
	h.numBytes = int32(fileSize)
	h.numSectors = ceilDiv(int32(fileSize), blockdevice.SectorSize)

	if fm.NumClear() < int(h.numSectors) {
		return ErrNoSpaceOnDisk
	}

	remaining := h.numSectors
	for i := 0; i < NumDirect && remaining > 0; i++ {
		s := fm.FindAndSet()
		if s == -1 {
			return ErrNoSpaceOnDisk
		}
		h.dataSectors[i] = int32(s)
		remaining--
	}

	for i := 0; i < NumIndirect && remaining > 0; i++ {
		share := remaining
		if share > NumMaxSect {
			share = NumMaxSect
		}

		// The indirect sector and child are wired into h before the
		// fallible fill below, so a failed allocateDirectOnly still
		// leaves every bit it managed to set reachable from h —
		// Deallocate(h) must be able to find and clear them.
		indirectSector := fm.FindAndSet()
		if indirectSector == -1 {
			return ErrNoSpaceOnDisk
		}
		h.dataSectors[NumDirect+i] = int32(indirectSector)
		child := New()
		h.indirect[i] = child

		if err := child.allocateDirectOnly(fm, share); err != nil {
			return err
		}
		remaining -= share
	}

	if remaining > 0 {
		return ErrNoSpaceOnDisk
	}
	return nil
}

// allocateDirectOnly fills an indirect header's direct-only slots with
// count data sectors. count must be <= NumMaxSect.
func (h *Header) allocateDirectOnly(fm *freemap.FreeMap, count int32) error {
	for i := int32(0); i < count; i++ {
		s := fm.FindAndSet()
		if s == -1 {
			return ErrNoSpaceOnDisk
		}
		h.dataSectors[i] = int32(s)
	}
	return nil
}

// Deallocate clears every bit for every sector this header references:
// direct sectors, indirect-header sectors, and the data sectors inside
// each indirect block (spec.md §4.2 — the intended behavior; the
// original source's deallocation loop is the §9 open question this
// implements correctly rather than reproduces).
func (h *Header) Deallocate(fm *freemap.FreeMap) {
	for i := 0; i < NumDirect; i++ {
		s := h.dataSectors[i]
		if s == unused {
			continue
		}
		clearChecked(fm, int(s))
	}
	for i := 0; i < NumIndirect; i++ {
		indirectSector := h.dataSectors[NumDirect+i]
		if indirectSector == unused {
			continue
		}
		child := h.indirect[i]
		if child != nil {
			for j := 0; j < NumMaxSect; j++ {
				s := child.dataSectors[j]
				if s == unused {
					continue
				}
				clearChecked(fm, int(s))
			}
		}
		clearChecked(fm, int(indirectSector))
	}
}

func clearChecked(fm *freemap.FreeMap, sector int) {
	if !fm.Test(sector) {
		panic(fmt.Sprintf("inode: deallocating sector %d whose bit is already clear", sector))
	}
	fm.Clear(sector)
}

// FetchFrom reads sector into the header, then reads each non-unused
// indirect slot's referenced sector as a child header (one level only).
func (h *Header) FetchFrom(device blockdevice.BlockDevice, sector int) error {
	buf := make([]byte, blockdevice.SectorSize)
	if err := device.ReadSector(sector, buf); err != nil {
		return err
	}
	h.decode(buf)

	for i := 0; i < NumIndirect; i++ {
		s := h.dataSectors[NumDirect+i]
		if s == unused {
			h.indirect[i] = nil
			continue
		}
		child := New()
		cbuf := make([]byte, blockdevice.SectorSize)
		if err := device.ReadSector(int(s), cbuf); err != nil {
			return err
		}
		child.decode(cbuf)
		h.indirect[i] = child
	}
	return nil
}

// WriteBack writes this header to sector, then writes each live
// indirect header back to its own referenced sector.
func (h *Header) WriteBack(device blockdevice.BlockDevice, sector int) error {
	buf := make([]byte, blockdevice.SectorSize)
	h.encode(buf)
	if err := device.WriteSector(sector, buf); err != nil {
		return err
	}

	for i := 0; i < NumIndirect; i++ {
		s := h.dataSectors[NumDirect+i]
		if s == unused || h.indirect[i] == nil {
			continue
		}
		cbuf := make([]byte, blockdevice.SectorSize)
		h.indirect[i].encode(cbuf)
		if err := device.WriteSector(int(s), cbuf); err != nil {
			return err
		}
	}
	return nil
}

// ByteToSector translates a logical file offset into a device sector
// index. Offsets beyond FileLength() are undefined behavior at this
// layer; callers must not invoke it out of range (spec.md §4.2).
func (h *Header) ByteToSector(offset uint32) int {
	p := int32(offset / blockdevice.SectorSize)
	if p < NumDirect {
		return int(h.dataSectors[p])
	}
	p -= NumDirect
	i := p / NumMaxSect
	j := p % NumMaxSect
	return int(h.indirect[i].dataSectors[j])
}

func (h *Header) encode(buf []byte) {
	util.WriteLEInt32(buf, ofsNumBytes, h.numBytes)
	util.WriteLEInt32(buf, ofsNumSectors, h.numSectors)
	for i, s := range h.dataSectors {
		util.WriteLEInt32(buf, ofsDataSectors+i*4, s)
	}
}

func (h *Header) decode(buf []byte) {
	h.numBytes = util.ReadLEInt32(buf, ofsNumBytes)
	h.numSectors = util.ReadLEInt32(buf, ofsNumSectors)
	for i := range h.dataSectors {
		h.dataSectors[i] = util.ReadLEInt32(buf, ofsDataSectors+i*4)
	}
}
