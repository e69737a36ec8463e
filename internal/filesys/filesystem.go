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

// Package filesys is the file-system facade: it walks paths, coordinates
// allocation, creation, removal, listing, and offset-to-sector
// translation, owning the free-map and root-directory files for the
// volume's lifetime (spec.md §4.4).
package filesys

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/asig/nachosfs/internal/blockdevice"
	"github.com/asig/nachosfs/internal/directory"
	"github.com/asig/nachosfs/internal/freemap"
	"github.com/asig/nachosfs/internal/inode"
)

const (
	FreemapSector = 0
	RootDirSector = 1
)

// FileSystem owns the free-map file and root-directory file handles for
// as long as the volume is open. Every other on-disk structure is
// fetched into a transient, per-operation owner and released before the
// operation returns (spec.md §5).
type FileSystem struct {
	device      blockdevice.BlockDevice
	freeMap     *freemap.FreeMap
	freeMapFile *File
	rootFile    *File
}

// Format zero-initializes a free map and a root directory on device,
// marks sectors 0 and 1 allocated, allocates data blocks for the
// free-map and root-directory files, and writes headers then bodies to
// disk (spec.md §4.4).
func Format(device blockdevice.BlockDevice) (*FileSystem, error) {
	numSectors := device.NumSectors()
	fm := freemap.New(uint32(numSectors))
	fm.Mark(FreemapSector)
	fm.Mark(RootDirSector)

	freeMapHeader := inode.New()
	freeMapSize := (uint32(numSectors) + 7) / 8
	if err := freeMapHeader.Allocate(fm, freeMapSize); err != nil {
		return nil, errors.Wrap(err, "format: allocating free-map file")
	}

	rootHeader := inode.New()
	if err := rootHeader.Allocate(fm, uint32(directory.FileSize)); err != nil {
		return nil, errors.Wrap(err, "format: allocating root directory file")
	}

	if err := freeMapHeader.WriteBack(device, FreemapSector); err != nil {
		return nil, err
	}
	if err := rootHeader.WriteBack(device, RootDirSector); err != nil {
		return nil, err
	}

	freeMapFile := newFileWithHeader(device, FreemapSector, freeMapHeader)
	rootFile := newFileWithHeader(device, RootDirSector, rootHeader)

	if err := fm.WriteBack(freeMapFile); err != nil {
		return nil, err
	}

	emptyRoot := directory.New()
	if err := emptyRoot.WriteBack(rootFile); err != nil {
		return nil, err
	}

	log.Info().Int("sectors", numSectors).Msg("formatted volume")

	return &FileSystem{
		device:      device,
		freeMap:     fm,
		freeMapFile: freeMapFile,
		rootFile:    rootFile,
	}, nil
}

// OpenVolume opens the two well-known files of an existing volume.
func OpenVolume(device blockdevice.BlockDevice) (*FileSystem, error) {
	freeMapFile, err := openFileAt(device, FreemapSector)
	if err != nil {
		return nil, errors.Wrap(err, "open_volume: fetching free-map header")
	}
	rootFile, err := openFileAt(device, RootDirSector)
	if err != nil {
		return nil, errors.Wrap(err, "open_volume: fetching root directory header")
	}

	fm := freemap.New(uint32(device.NumSectors()))
	if err := fm.FetchFrom(freeMapFile); err != nil {
		return nil, errors.Wrap(err, "open_volume: fetching free map")
	}

	return &FileSystem{
		device:      device,
		freeMap:     fm,
		freeMapFile: freeMapFile,
		rootFile:    rootFile,
	}, nil
}

// openChild opens the directory block at headerSector as a
// directory.File, for Directory.SearchPath/List/Destroy to descend
// into subdirectories.
func (fs *FileSystem) openChild(headerSector int) (directory.File, error) {
	return openFileAt(fs.device, headerSector)
}

// fetchHeader loads the on-disk header at sector, for Directory.Destroy
// and Remove.
func (fs *FileSystem) fetchHeader(sector int) (*inode.Header, error) {
	h := inode.New()
	if err := h.FetchFrom(fs.device, sector); err != nil {
		return nil, err
	}
	return h, nil
}

func (fs *FileSystem) rootDirectory() (*directory.Directory, error) {
	d := directory.New()
	if err := d.FetchFrom(fs.rootFile); err != nil {
		return nil, err
	}
	return d, nil
}

// resolvePath walks path from the root directory and returns its header
// sector, or -1 if any component does not resolve.
func (fs *FileSystem) resolvePath(path string) (int, error) {
	root, err := fs.rootDirectory()
	if err != nil {
		return -1, err
	}
	return root.SearchPath(path, 0, fs.openChild, RootDirSector)
}

// splitPath splits path into (basePath, leaf) at the last "/", per
// spec.md §6: characters [0, last) form basePath, characters
// [last, end) (including the leading "/") form leaf. A path with no "/"
// at all is invalid input (spec.md §9 open question: the source's
// ExtractBasePath does not initialize its split point for this case).
func splitPath(path string) (basePath, leaf string, err error) {
	idx := strings.LastIndex(path, "/")
	if idx == -1 {
		return "", "", errors.Errorf("invalid path %q: no separator", path)
	}
	return path[:idx], path[idx:], nil
}

// Create resolves basePath, checks for a duplicate leaf name, allocates
// a header sector and its data blocks, and — on success only — writes
// header, parent directory, and free map back to disk in that order
// (spec.md §4.4, §9 crash-ordering rationale).
func (fs *FileSystem) Create(path string, initialSize uint32, isDir bool) (bool, error) {
	basePath, leaf, err := splitPath(path)
	if err != nil {
		return false, err
	}
	name := leaf[1:]
	if name == "" {
		return false, errors.Errorf("invalid path %q: empty name", path)
	}

	searchBase := basePath
	if searchBase == "" {
		searchBase = "/"
	}
	baseSector, err := fs.resolvePath(searchBase)
	if err != nil {
		return false, err
	}
	if baseSector == -1 {
		return false, ErrNotFound
	}

	baseDirFile, err := fs.openChild(baseSector)
	if err != nil {
		return false, err
	}
	baseDir := directory.New()
	if err := baseDir.FetchFrom(baseDirFile); err != nil {
		return false, err
	}
	if baseDir.FindIndex(name) != -1 {
		return false, ErrNameExists
	}

	headerSector := fs.freeMap.FindAndSet()
	if headerSector == -1 {
		return false, ErrNoSpaceOnDisk
	}

	if !baseDir.Add(name, headerSector, isDir) {
		fs.freeMap.Clear(headerSector)
		return false, ErrDirectoryFull
	}

	size := initialSize
	if isDir {
		size = uint32(directory.FileSize)
	}

	newHeader := inode.New()
	if err := newHeader.Allocate(fs.freeMap, size); err != nil {
		// Allocate does not roll back its own partial work; clear every
		// bit it touched (and the header sector itself) so the in-memory
		// map matches on-disk state, since we will not write it back.
		newHeader.Deallocate(fs.freeMap)
		fs.freeMap.Clear(headerSector)
		return false, ErrNoSpaceOnDisk
	}

	if err := newHeader.WriteBack(fs.device, headerSector); err != nil {
		return false, err
	}
	if err := baseDir.WriteBack(baseDirFile); err != nil {
		return false, err
	}
	if err := fs.freeMap.WriteBack(fs.freeMapFile); err != nil {
		return false, err
	}

	if isDir {
		newFile := newFileWithHeader(fs.device, headerSector, newHeader)
		emptyDir := directory.New()
		if err := emptyDir.WriteBack(newFile); err != nil {
			return false, err
		}
	}

	log.Debug().Str("path", path).Bool("is_dir", isDir).Int("header_sector", headerSector).Msg("created")
	return true, nil
}

// Open resolves path and returns a handle bound to its header sector, or
// ErrNotFound.
func (fs *FileSystem) Open(path string) (*File, error) {
	sector, err := fs.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if sector == -1 {
		return nil, ErrNotFound
	}
	return openFileAt(fs.device, sector)
}

// Remove resolves basePath, locates leaf in it, optionally destroys its
// subtree recursively, deallocates its header's data and the header
// sector itself, removes the directory entry, and flushes the parent
// directory and the free map. Removing the root is rejected.
func (fs *FileSystem) Remove(path string, recursive bool) (bool, error) {
	basePath, leaf, err := splitPath(path)
	if err != nil {
		return false, err
	}
	name := leaf[1:]

	searchBase := basePath
	if searchBase == "" {
		searchBase = "/"
	}
	baseSector, err := fs.resolvePath(searchBase)
	if err != nil {
		return false, err
	}
	if baseSector == -1 {
		return false, ErrNotFound
	}

	baseDirFile, err := fs.openChild(baseSector)
	if err != nil {
		return false, err
	}
	baseDir := directory.New()
	if err := baseDir.FetchFrom(baseDirFile); err != nil {
		return false, err
	}

	targetSector := baseDir.Find(name)
	if targetSector == -1 {
		return false, ErrNotFound
	}
	if targetSector == RootDirSector {
		return false, ErrInvalidTarget
	}

	if recursive {
		targetFile, err := fs.openChild(targetSector)
		if err != nil {
			return false, err
		}
		targetDir := directory.New()
		if err := targetDir.FetchFrom(targetFile); err != nil {
			return false, err
		}
		if err := targetDir.Destroy(fs.freeMap, targetFile, fs.openChild, fs.fetchHeader); err != nil {
			return false, err
		}
	}

	header, err := fs.fetchHeader(targetSector)
	if err != nil {
		return false, err
	}
	header.Deallocate(fs.freeMap)
	fs.freeMap.Clear(targetSector)

	baseDir.Remove(name)

	if err := baseDir.WriteBack(baseDirFile); err != nil {
		return false, err
	}
	if err := fs.freeMap.WriteBack(fs.freeMapFile); err != nil {
		return false, err
	}

	log.Debug().Str("path", path).Bool("recursive", recursive).Msg("removed")
	return true, nil
}

// List resolves path and returns each in-use entry's listing line,
// "{prefix}{name} {F|D}", in physical slot order. If path resolves to
// the root, listing starts from the root directory; otherwise the
// resolved directory is fetched and listed (spec.md §4.4). The prefix
// handed to Directory.List is path itself, unmodified — including the
// apparent "missing separator" this produces for nested listings
// (spec.md §4.3, scenario 4 in §8).
func (fs *FileSystem) List(path string, recursive bool) ([]string, error) {
	sector, err := fs.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if sector == -1 {
		return nil, ErrNotFound
	}

	var d *directory.Directory
	if sector == RootDirSector {
		d, err = fs.rootDirectory()
	} else {
		var file directory.File
		file, err = fs.openChild(sector)
		if err == nil {
			d = directory.New()
			err = d.FetchFrom(file)
		}
	}
	if err != nil {
		return nil, err
	}

	var lines []string
	err = d.List(func(line string) { lines = append(lines, line) }, path, recursive, fs.openChild)
	return lines, err
}
