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

// Package fsfuse mounts a volume as a real FUSE tree. This is an
// optional, additional way to exercise internal/filesys — spec.md §1
// scopes the user-mode system-call shim layer out of the core, but
// says nothing against a second collaborator driving the same facade.
// Unlike odit's flat, single-directory FUSE layer, this one walks the
// facade's real directory hierarchy.
package fsfuse

import (
	"context"
	"os"
	"strings"
	"syscall"

	fuse "bazil.org/fuse"
	fuse_fs "bazil.org/fuse/fs"
	"github.com/rs/zerolog/log"

	"github.com/asig/nachosfs/internal/filesys"
)

type FS struct {
	fs  *filesys.FileSystem
	uid uint32
	gid uint32
}

type dirNode struct {
	fs   *filesys.FileSystem
	path string
	uid  uint32
	gid  uint32
}

type fileNode struct {
	fs   *filesys.FileSystem
	path string
	file *filesys.File
	uid  uint32
	gid  uint32
}

type fileHandle struct {
	node *fileNode
}

func NewFS(fs *filesys.FileSystem) fuse_fs.FS {
	return FS{
		fs:  fs,
		uid: uint32(os.Getuid()),
		gid: uint32(os.Getgid()),
	}
}

func (f FS) Root() (fuse_fs.Node, error) {
	return &dirNode{fs: f.fs, path: "/", uid: f.uid, gid: f.gid}, nil
}

func joinPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

// splitListLine recovers (name, isDir) from a line produced by
// internal/filesys.List called with prefix=dirPath — "{prefix}{name}
// {F|D}", with no separator inserted between prefix and name
// (spec.md §4.3's path-concatenation rule).
func splitListLine(dirPath, line string) (name string, isDir bool, ok bool) {
	if !strings.HasPrefix(line, dirPath) {
		return "", false, false
	}
	rest := line[len(dirPath):]
	idx := strings.LastIndex(rest, " ")
	if idx == -1 {
		return "", false, false
	}
	return rest[:idx], rest[idx+1:] == "D", true
}

func (d *dirNode) lookupKind(name string) (isDir bool, found bool, err error) {
	lines, err := d.fs.List(d.path, false)
	if err != nil {
		return false, false, err
	}
	for _, line := range lines {
		entryName, entryIsDir, ok := splitListLine(d.path, line)
		if ok && entryName == name {
			return entryIsDir, true, nil
		}
	}
	return false, false, nil
}

func (d *dirNode) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = os.ModeDir | 0755
	a.Uid = d.uid
	a.Gid = d.gid
	return nil
}

func (d *dirNode) Lookup(ctx context.Context, name string) (fuse_fs.Node, error) {
	log.Debug().Str("dir", d.path).Str("name", name).Msg("FUSE Lookup")

	isDir, found, err := d.lookupKind(name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, syscall.ENOENT
	}

	childPath := joinPath(d.path, name)
	if isDir {
		return &dirNode{fs: d.fs, path: childPath, uid: d.uid, gid: d.gid}, nil
	}

	f, err := d.fs.Open(childPath)
	if err != nil {
		return nil, err
	}
	return &fileNode{fs: d.fs, path: childPath, file: f, uid: d.uid, gid: d.gid}, nil
}

func (d *dirNode) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	log.Debug().Str("dir", d.path).Msg("FUSE ReadDirAll")

	lines, err := d.fs.List(d.path, false)
	if err != nil {
		return nil, err
	}

	var res []fuse.Dirent
	for _, line := range lines {
		name, isDir, ok := splitListLine(d.path, line)
		if !ok {
			continue
		}
		dt := fuse.DT_File
		if isDir {
			dt = fuse.DT_Dir
		}
		res = append(res, fuse.Dirent{Name: name, Type: dt})
	}
	return res, nil
}

func (d *dirNode) Create(ctx context.Context, req *fuse.CreateRequest, resp *fuse.CreateResponse) (fuse_fs.Node, fuse_fs.Handle, error) {
	log.Debug().Str("dir", d.path).Str("name", req.Name).Msg("FUSE Create")

	childPath := joinPath(d.path, req.Name)
	// Files have a fixed length at creation (spec.md §1 Non-goals: no
	// extensible-file semantics); a freshly created file starts empty.
	ok, err := d.fs.Create(childPath, 0, false)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, syscall.EEXIST
	}

	f, err := d.fs.Open(childPath)
	if err != nil {
		return nil, nil, err
	}
	node := &fileNode{fs: d.fs, path: childPath, file: f, uid: d.uid, gid: d.gid}
	return node, &fileHandle{node: node}, nil
}

func (d *dirNode) Mkdir(ctx context.Context, req *fuse.MkdirRequest) (fuse_fs.Node, error) {
	log.Debug().Str("dir", d.path).Str("name", req.Name).Msg("FUSE Mkdir")

	childPath := joinPath(d.path, req.Name)
	ok, err := d.fs.Create(childPath, 0, true)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, syscall.EEXIST
	}
	return &dirNode{fs: d.fs, path: childPath, uid: d.uid, gid: d.gid}, nil
}

func (d *dirNode) Remove(ctx context.Context, req *fuse.RemoveRequest) error {
	log.Debug().Str("dir", d.path).Str("name", req.Name).Bool("is_dir", req.Dir).Msg("FUSE Remove")

	childPath := joinPath(d.path, req.Name)
	// req.Dir distinguishes rmdir from unlink; this core has no notion
	// of "directory must be empty", so rmdir recurses like a directory
	// remove(path, recursive=true) elsewhere in the facade.
	ok, err := d.fs.Remove(childPath, req.Dir)
	if err != nil {
		return err
	}
	if !ok {
		return syscall.ENOENT
	}
	return nil
}

func (f *fileNode) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = 0666
	a.Size = uint64(f.file.FileLength())
	a.Uid = f.uid
	a.Gid = f.gid
	return nil
}

func (f *fileNode) Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fuse_fs.Handle, error) {
	log.Debug().Str("path", f.path).Msg("FUSE Open")
	return &fileHandle{node: f}, nil
}

func (h *fileHandle) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	length := h.node.file.FileLength()
	if uint32(req.Offset) >= length {
		resp.Data = []byte{}
		return nil
	}
	size := req.Size
	if uint32(req.Offset)+uint32(size) > length {
		size = int(length - uint32(req.Offset))
	}
	buf, err := h.node.file.ReadAt(uint32(req.Offset), uint32(size))
	if err != nil {
		return err
	}
	resp.Data = buf
	return nil
}

func (h *fileHandle) Write(ctx context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	if err := h.node.file.WriteAt(uint32(req.Offset), req.Data); err != nil {
		return err
	}
	resp.Size = len(req.Data)
	return nil
}

func (h *fileHandle) Flush(ctx context.Context, req *fuse.FlushRequest) error {
	return nil
}

func (h *fileHandle) Release(ctx context.Context, req *fuse.ReleaseRequest) error {
	return nil
}
