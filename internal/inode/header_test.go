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

package inode

import (
	"testing"

	"github.com/asig/nachosfs/internal/blockdevice"
	"github.com/asig/nachosfs/internal/freemap"
)

func TestAllocateDirectOnly(t *testing.T) {
	fm := freemap.New(64)
	h := New()
	if err := h.Allocate(fm, 3*blockdevice.SectorSize); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if h.FileLength() != 3*blockdevice.SectorSize {
		t.Fatalf("got length %d", h.FileLength())
	}
	if fm.NumClear() != 64-3 {
		t.Fatalf("expected 3 sectors allocated, got %d clear", fm.NumClear())
	}
}

func TestAllocateSpillsToIndirect(t *testing.T) {
	total := uint32(NumDirect+5) * blockdevice.SectorSize
	fm := freemap.New(uint32(NumDirect + NumMaxSect + 10))
	h := New()
	if err := h.Allocate(fm, total); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	// NumDirect direct sectors + 5 indirect data sectors + 1 indirect header.
	wantAllocated := NumDirect + 5 + 1
	if clear := fm.NumClear(); clear != (NumDirect+NumMaxSect+10)-wantAllocated {
		t.Fatalf("got %d clear, want %d", clear, (NumDirect+NumMaxSect+10)-wantAllocated)
	}
}

func TestAllocateNoSpace(t *testing.T) {
	fm := freemap.New(2)
	h := New()
	if err := h.Allocate(fm, 5*blockdevice.SectorSize); err != ErrNoSpaceOnDisk {
		t.Fatalf("got %v, want ErrNoSpaceOnDisk", err)
	}
}

func TestWriteBackFetchFromRoundTrip(t *testing.T) {
	device := blockdevice.NewInMemory(NumDirect + NumMaxSect + 10)
	fm := freemap.New(uint32(device.NumSectors()))

	h := New()
	size := uint32(NumDirect+3) * blockdevice.SectorSize
	if err := h.Allocate(fm, size); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := h.WriteBack(device, 0); err != nil {
		t.Fatalf("WriteBack: %v", err)
	}

	loaded := New()
	if err := loaded.FetchFrom(device, 0); err != nil {
		t.Fatalf("FetchFrom: %v", err)
	}
	if loaded.FileLength() != size {
		t.Fatalf("got length %d, want %d", loaded.FileLength(), size)
	}
	for off := uint32(0); off < size; off += blockdevice.SectorSize {
		if loaded.ByteToSector(off) != h.ByteToSector(off) {
			t.Fatalf("offset %d: sector mismatch after round-trip", off)
		}
	}
}

func TestDeallocateClearsEveryReferencedSector(t *testing.T) {
	device := blockdevice.NewInMemory(NumDirect + NumMaxSect + 10)
	fm := freemap.New(uint32(device.NumSectors()))

	h := New()
	size := uint32(NumDirect+3) * blockdevice.SectorSize
	if err := h.Allocate(fm, size); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	before := fm.NumClear()
	h.Deallocate(fm)
	if fm.NumClear() != device.NumSectors() {
		t.Fatalf("got %d clear after deallocate, want all %d free", fm.NumClear(), device.NumSectors())
	}
	if before == device.NumSectors() {
		t.Fatalf("test is meaningless: nothing was allocated")
	}
}
