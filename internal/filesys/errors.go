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

import "github.com/pkg/errors"

// Error kinds recognized by the facade (spec.md §7). Create, Open,
// Remove and List return these sentinels unwrapped, so a caller can
// compare against them with == or errors.Is.
var (
	ErrNoSpaceOnDisk = errors.New("no space on disk")
	ErrDirectoryFull = errors.New("directory full")
	ErrNameExists    = errors.New("name already exists")
	ErrNotFound      = errors.New("not found")
	ErrInvalidTarget = errors.New("invalid target")
)
