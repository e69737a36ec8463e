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

// Package directory implements the fixed-size directory block: a flat
// table of name -> header-sector entries, each flagged as file or
// subdirectory. A directory is itself stored as the data of a file
// whose header sector is known to its parent.
package directory

import (
	"fmt"
	"strings"

	"github.com/asig/nachosfs/internal/freemap"
	"github.com/asig/nachosfs/internal/inode"
	"github.com/asig/nachosfs/internal/util"
)

const (
	// NameMaxLen bounds a directory entry's name, not counting the NUL
	// terminator.
	NameMaxLen = 15

	// NumDirEntries is the fixed capacity of a directory block.
	NumDirEntries = 16

	entrySize = 1 + (NameMaxLen + 1) + 4 + 1 // in_use, name, sector, is_dir

	// FileSize is the byte size of a freshly created, empty directory's
	// data — NumDirEntries entries, all marked not-in-use.
	FileSize = NumDirEntries * entrySize

	ofsInUse  = 0
	ofsName   = 1
	ofsSector = 1 + NameMaxLen + 1
	ofsIsDir  = 1 + NameMaxLen + 1 + 4
)

// Entry is one slot of a directory block.
type Entry struct {
	InUse  bool
	Name   string
	Sector int
	IsDir  bool
}

// File is the narrow slice of internal/filesys.File a Directory needs
// to read and write its own body.
type File interface {
	ReadAt(pos uint32, l uint32) ([]byte, error)
	WriteAt(pos uint32, data []byte) error
	FileLength() uint32
}

// Directory is the in-memory image of one directory block.
type Directory struct {
	entries [NumDirEntries]Entry
}

// New returns an empty directory, every entry unused.
func New() *Directory {
	return &Directory{}
}

// FetchFrom loads the directory's byte image from file.
func (d *Directory) FetchFrom(file File) error {
	data, err := file.ReadAt(0, uint32(FileSize))
	if err != nil {
		return err
	}
	for i := 0; i < NumDirEntries; i++ {
		off := i * entrySize
		d.entries[i] = Entry{
			InUse:  util.ReadBool(data, off+ofsInUse),
			Name:   util.StringFromBytes(data[off+ofsName : off+ofsName+NameMaxLen+1]),
			Sector: int(util.ReadLEInt32(data, off+ofsSector)),
			IsDir:  util.ReadBool(data, off+ofsIsDir),
		}
	}
	return nil
}

// WriteBack serializes the directory's byte image to file.
func (d *Directory) WriteBack(file File) error {
	data := make([]byte, FileSize)
	for i, e := range d.entries {
		off := i * entrySize
		util.WriteBool(data, off+ofsInUse, e.InUse)
		util.WriteFixedLengthString(data, off+ofsName, NameMaxLen+1, e.Name)
		util.WriteLEInt32(data, off+ofsSector, int32(e.Sector))
		util.WriteBool(data, off+ofsIsDir, e.IsDir)
	}
	return file.WriteAt(0, data)
}

// FindIndex returns the slot index of the first in-use entry whose name
// matches, or -1.
func (d *Directory) FindIndex(name string) int {
	for i, e := range d.entries {
		if e.InUse && e.Name == name {
			return i
		}
	}
	return -1
}

// Find returns the header sector of the entry named name, or -1.
func (d *Directory) Find(name string) int {
	idx := d.FindIndex(name)
	if idx == -1 {
		return -1
	}
	return d.entries[idx].Sector
}

// Add inserts a new entry. It fails if name is already present (see
// FindIndex) or there is no free slot.
func (d *Directory) Add(name string, sector int, isDir bool) bool {
	if d.FindIndex(name) != -1 {
		return false
	}
	for i, e := range d.entries {
		if !e.InUse {
			d.entries[i] = Entry{InUse: true, Name: name, Sector: sector, IsDir: isDir}
			return true
		}
	}
	return false
}

// Remove clears the in-use flag of the entry named name, without
// compaction. Reports whether an entry was found.
func (d *Directory) Remove(name string) bool {
	idx := d.FindIndex(name)
	if idx == -1 {
		return false
	}
	d.entries[idx].InUse = false
	return true
}

// Entries returns the directory's entries in physical slot order,
// including unused ones.
func (d *Directory) Entries() [NumDirEntries]Entry {
	return d.entries
}

// OpenChildFunc opens the directory block at the given header sector,
// for search/list/destroy to descend into subdirectories. Supplied by
// internal/filesys, which owns sector-to-File construction.
type OpenChildFunc func(headerSector int) (File, error)

// SearchPath resolves path, starting at position offset, to a header
// sector, or -1 if any component does not exist. It does not verify
// that intermediate path components are directories before descending
// into them — spec.md §9 notes this as the source's behavior and
// instructs against guessing a fix.
func (d *Directory) SearchPath(path string, offset int, openChild OpenChildFunc, rootDirSector int) (int, error) {
	if path == "/" {
		return rootDirSector, nil
	}

	rest := path[offset+1:]
	slash := strings.IndexByte(rest, '/')
	if slash == -1 {
		return d.Find(rest), nil
	}

	component := rest[:slash]
	childSector := d.Find(component)
	if childSector == -1 {
		return -1, nil
	}

	childFile, err := openChild(childSector)
	if err != nil {
		return -1, err
	}
	child := New()
	if err := child.FetchFrom(childFile); err != nil {
		return -1, err
	}
	return child.SearchPath(path, offset+1+slash, openChild, rootDirSector)
}

// List iterates in-use entries in physical slot order, writing
// "{prefix}{name} {F|D}" lines to w. If recursive and an entry is a
// directory, it recurses with prefix = prefix + name.
func (d *Directory) List(w func(line string), prefix string, recursive bool, openChild OpenChildFunc) error {
	for _, e := range d.entries {
		if !e.InUse {
			continue
		}
		kind := "F"
		if e.IsDir {
			kind = "D"
		}
		w(fmt.Sprintf("%s%s %s", prefix, e.Name, kind))

		if recursive && e.IsDir {
			childFile, err := openChild(e.Sector)
			if err != nil {
				return err
			}
			child := New()
			if err := child.FetchFrom(childFile); err != nil {
				return err
			}
			if err := child.List(w, prefix+e.Name, recursive, openChild); err != nil {
				return err
			}
		}
	}
	return nil
}

// FetchHeaderFunc loads the on-disk header at the given sector. Supplied
// by internal/filesys, which owns the volume's block device.
type FetchHeaderFunc func(sector int) (*inode.Header, error)

// Destroy recursively frees every in-use entry's subtree: for a
// directory entry, it first destroys the child directory's own
// contents, then (for every entry) fetches the header, deallocates its
// data blocks, clears its header sector bit, and removes the entry.
// After the loop it writes the now-empty directory back to file. The
// caller is responsible for clearing the directory's own header sector
// (spec.md §4.3).
func (d *Directory) Destroy(fm *freemap.FreeMap, file File, openChild OpenChildFunc, fetchHeader FetchHeaderFunc) error {
	for i, e := range d.entries {
		if !e.InUse {
			continue
		}

		if e.IsDir {
			childFile, err := openChild(e.Sector)
			if err != nil {
				return err
			}
			child := New()
			if err := child.FetchFrom(childFile); err != nil {
				return err
			}
			if err := child.Destroy(fm, childFile, openChild, fetchHeader); err != nil {
				return err
			}
		}

		h, err := fetchHeader(e.Sector)
		if err != nil {
			return err
		}
		h.Deallocate(fm)
		fm.Clear(e.Sector)

		d.entries[i].InUse = false
	}
	return d.WriteBack(file)
}
