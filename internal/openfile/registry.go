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

// Package openfile models the kernel-facing open-file table
// (spec.md §6, §9 — "model as an explicit OpenFileRegistry passed into
// the kernel surface rather than an ambient global; this also makes
// test harnesses trivial"). It is a thin adapter over
// internal/filesys.FileSystem: a small fixed-capacity table of open
// handles indexed 1..MaxOpenFiles.
package openfile

import (
	"github.com/asig/nachosfs/internal/filesys"
)

// MaxOpenFiles is the size of the open-file table, mirroring the
// classic kernel-facing MAX_SYS_OPENF constant (spec.md §6).
const MaxOpenFiles = 16

// Registry is an explicit, instantiable open-file table. Unlike an
// ambient global table, a caller can hold several independent
// registries (e.g. one per test), and ids from one are meaningless in
// another.
type Registry struct {
	fs    *filesys.FileSystem
	slots [MaxOpenFiles + 1]*slot // 1-based; slots[0] unused
}

type slot struct {
	file *filesys.File
	pos  uint32
}

// New returns an empty registry bound to fs.
func New(fs *filesys.FileSystem) *Registry {
	return &Registry{fs: fs}
}

// OpenForID resolves path and installs it in the first free slot,
// returning the id and true on success. It returns (0, false) if path
// does not resolve or the table is full.
func (r *Registry) OpenForID(path string) (int, bool) {
	file, err := r.fs.Open(path)
	if err != nil || file == nil {
		return 0, false
	}
	for id := 1; id <= MaxOpenFiles; id++ {
		if r.slots[id] == nil {
			r.slots[id] = &slot{file: file}
			return id, true
		}
	}
	return 0, false
}

// ReadByID reads up to len(buf) bytes from id's current position,
// advancing it, and returns the number of bytes read. Calling it with
// an out-of-range or closed id is undefined behavior — the caller must
// not do so (spec.md §6).
func (r *Registry) ReadByID(id int, buf []byte) int {
	s := r.slots[id]
	data, err := s.file.ReadAt(s.pos, uint32(len(buf)))
	if err != nil {
		return 0
	}
	n := copy(buf, data)
	s.pos += uint32(n)
	return n
}

// WriteByID writes buf at id's current position, advancing it, and
// returns the number of bytes written.
func (r *Registry) WriteByID(id int, buf []byte) int {
	s := r.slots[id]
	if err := s.file.WriteAt(s.pos, buf); err != nil {
		return 0
	}
	s.pos += uint32(len(buf))
	return len(buf)
}

// LengthByID returns the file length of id's underlying file. Calling
// it with an out-of-range or closed id is undefined behavior, as with
// ReadByID/WriteByID.
func (r *Registry) LengthByID(id int) uint32 {
	return r.slots[id].file.FileLength()
}

// CloseByID releases id's slot. Out-of-range or already-closed ids
// yield 0 (failure); a successful close yields 1, matching the
// kernel-facing 0/1 ABI (spec.md §6, §7).
func (r *Registry) CloseByID(id int) int {
	if id < 1 || id > MaxOpenFiles || r.slots[id] == nil {
		return 0
	}
	r.slots[id] = nil
	return 1
}
