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
	"testing"

	"github.com/asig/nachosfs/internal/blockdevice"
)

func newFormattedVolume(t *testing.T, numSectors int) *FileSystem {
	t.Helper()
	device := blockdevice.NewInMemory(numSectors)
	fs, err := Format(device)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	return fs
}

func TestCreateThenOpenRoundTrip(t *testing.T) {
	fs := newFormattedVolume(t, 64)

	ok, err := fs.Create("/hello.txt", 10, false)
	if err != nil || !ok {
		t.Fatalf("Create: ok=%v err=%v", ok, err)
	}

	f, err := fs.Open("/hello.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if f.FileLength() != 10 {
		t.Fatalf("got length %d, want 10", f.FileLength())
	}

	if err := f.WriteAt(0, []byte("abcde")); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	data, err := f.ReadAt(0, 5)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(data) != "abcde" {
		t.Fatalf("got %q, want \"abcde\"", data)
	}
}

func TestCreateDuplicateNameFails(t *testing.T) {
	fs := newFormattedVolume(t, 64)

	if ok, err := fs.Create("/a", 0, false); err != nil || !ok {
		t.Fatalf("first Create: ok=%v err=%v", ok, err)
	}
	ok, err := fs.Create("/a", 0, false)
	if ok || err != ErrNameExists {
		t.Fatalf("got ok=%v err=%v, want ErrNameExists", ok, err)
	}
}

func TestCreateInMissingParentFails(t *testing.T) {
	fs := newFormattedVolume(t, 64)
	ok, err := fs.Create("/missing/a", 0, false)
	if ok || err != ErrNotFound {
		t.Fatalf("got ok=%v err=%v, want ErrNotFound", ok, err)
	}
}

func TestNestedCreateAndList(t *testing.T) {
	fs := newFormattedVolume(t, 64)

	if ok, err := fs.Create("/d", 0, true); err != nil || !ok {
		t.Fatalf("Create /d: ok=%v err=%v", ok, err)
	}
	if ok, err := fs.Create("/d/x", 10, false); err != nil || !ok {
		t.Fatalf("Create /d/x: ok=%v err=%v", ok, err)
	}

	lines, err := fs.List("/d", false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lines) != 1 || lines[0] != "/dx F" {
		t.Fatalf("got %v, want [\"/dx F\"]", lines)
	}
}

func TestRemoveThenOpenFails(t *testing.T) {
	fs := newFormattedVolume(t, 64)

	if ok, _ := fs.Create("/a", 0, false); !ok {
		t.Fatalf("Create failed")
	}
	ok, err := fs.Remove("/a", false)
	if err != nil || !ok {
		t.Fatalf("Remove: ok=%v err=%v", ok, err)
	}
	if _, err := fs.Open("/a"); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestRemoveRecursiveFreesChildSectors(t *testing.T) {
	fs := newFormattedVolume(t, 64)

	if ok, _ := fs.Create("/d", 0, true); !ok {
		t.Fatalf("Create /d failed")
	}
	if ok, _ := fs.Create("/d/x", 5, false); !ok {
		t.Fatalf("Create /d/x failed")
	}

	before := fs.freeMap.NumClear()
	ok, err := fs.Remove("/d", true)
	if err != nil || !ok {
		t.Fatalf("Remove: ok=%v err=%v", ok, err)
	}
	after := fs.freeMap.NumClear()
	if after <= before {
		t.Fatalf("expected more free sectors after recursive remove: before=%d after=%d", before, after)
	}

	if _, err := fs.Open("/d"); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestRemoveWithoutRecursiveLeavesChildrenOrphaned(t *testing.T) {
	fs := newFormattedVolume(t, 64)

	if ok, _ := fs.Create("/d", 0, true); !ok {
		t.Fatalf("Create /d failed")
	}
	if ok, _ := fs.Create("/d/x", 5, false); !ok {
		t.Fatalf("Create /d/x failed")
	}
	xSector, err := fs.resolvePath("/d/x")
	if err != nil || xSector == -1 {
		t.Fatalf("resolvePath /d/x: sector=%d err=%v", xSector, err)
	}

	ok, err := fs.Remove("/d", false)
	if err != nil || !ok {
		t.Fatalf("Remove: ok=%v err=%v", ok, err)
	}
	if _, err := fs.Open("/d"); err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if !fs.freeMap.Test(xSector) {
		t.Fatalf("child header sector %d should stay allocated after a non-recursive remove", xSector)
	}
}

func TestRemoveNonexistentLeafFails(t *testing.T) {
	fs := newFormattedVolume(t, 64)
	ok, err := fs.Remove("/x", false)
	if ok || err != ErrNotFound {
		t.Fatalf("got ok=%v err=%v, want ErrNotFound for a nonexistent leaf", ok, err)
	}
}

func TestOpenVolumePersistsAcrossReopen(t *testing.T) {
	device := blockdevice.NewInMemory(64)
	fs, err := Format(device)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if ok, err := fs.Create("/a", 7, false); err != nil || !ok {
		t.Fatalf("Create: ok=%v err=%v", ok, err)
	}

	reopened, err := OpenVolume(device)
	if err != nil {
		t.Fatalf("OpenVolume: %v", err)
	}
	f, err := reopened.Open("/a")
	if err != nil {
		t.Fatalf("Open after reopen: %v", err)
	}
	if f.FileLength() != 7 {
		t.Fatalf("got length %d, want 7", f.FileLength())
	}
}
