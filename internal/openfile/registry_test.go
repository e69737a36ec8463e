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

package openfile

import (
	"testing"

	"github.com/asig/nachosfs/internal/blockdevice"
	"github.com/asig/nachosfs/internal/filesys"
)

func newVolumeWithFile(t *testing.T, path string, size uint32) *filesys.FileSystem {
	t.Helper()
	device := blockdevice.NewInMemory(64)
	fs, err := filesys.Format(device)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if ok, err := fs.Create(path, size, false); err != nil || !ok {
		t.Fatalf("Create: ok=%v err=%v", ok, err)
	}
	return fs
}

func TestOpenForIDReadWriteClose(t *testing.T) {
	fs := newVolumeWithFile(t, "/a", 10)
	r := New(fs)

	id, ok := r.OpenForID("/a")
	if !ok || id == 0 {
		t.Fatalf("OpenForID: ok=%v id=%d", ok, id)
	}

	if n := r.WriteByID(id, []byte("hello")); n != 5 {
		t.Fatalf("WriteByID returned %d, want 5", n)
	}

	buf := make([]byte, 5)
	// position advanced past the write, so rewind by reopening a fresh id.
	id2, ok := r.OpenForID("/a")
	if !ok {
		t.Fatalf("second OpenForID failed")
	}
	if n := r.ReadByID(id2, buf); n != 5 || string(buf) != "hello" {
		t.Fatalf("got n=%d buf=%q", n, buf)
	}

	if r.CloseByID(id) != 1 {
		t.Fatalf("CloseByID should succeed on an open id")
	}
	if r.CloseByID(id) != 0 {
		t.Fatalf("CloseByID should fail on an already-closed id")
	}
}

func TestOpenForIDMissingPath(t *testing.T) {
	fs := newVolumeWithFile(t, "/a", 10)
	r := New(fs)

	id, ok := r.OpenForID("/missing")
	if ok || id != 0 {
		t.Fatalf("got id=%d ok=%v, want (0, false)", id, ok)
	}
}

func TestRegistryCapacity(t *testing.T) {
	fs := newVolumeWithFile(t, "/a", 10)
	r := New(fs)

	var ids []int
	for i := 0; i < MaxOpenFiles; i++ {
		id, ok := r.OpenForID("/a")
		if !ok {
			t.Fatalf("OpenForID should succeed while slots remain (i=%d)", i)
		}
		ids = append(ids, id)
	}
	if _, ok := r.OpenForID("/a"); ok {
		t.Fatalf("OpenForID should fail once the table is full")
	}

	r.CloseByID(ids[0])
	if _, ok := r.OpenForID("/a"); !ok {
		t.Fatalf("OpenForID should succeed again after a slot frees up")
	}
}
