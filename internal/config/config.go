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

// Package config loads volume-level settings from a JSON file: image
// geometry and log level. The CLI uses DefaultTotalSectors from this
// package; it does not call Load. It follows the same
// plain-struct-with-json-tags shape used elsewhere in the retrieved
// corpus for small tool configs, with explicit defaulting instead of
// reflection-based binding.
package config

import (
	"encoding/json"
	"os"
)

// Config holds the volume geometry used to format an image and the log
// level. It does not hold the image path.
type Config struct {
	// TotalSectors is the volume's geometry, used by "format". It has no
	// effect when opening an existing image, whose geometry is derived
	// from the file's size.
	TotalSectors int `json:"total_sectors,omitempty"`
	// LogLevel is one of trace, debug, info, warn, error, fatal, panic.
	LogLevel string `json:"log_level,omitempty"`
}

// DefaultTotalSectors is used when a config omits total_sectors.
const DefaultTotalSectors = 512

// Default returns a Config with every field at its default value.
func Default() Config {
	return Config{
		TotalSectors: DefaultTotalSectors,
		LogLevel:     "info",
	}
}

// Load reads a JSON config file at path, applying defaults to any field
// the file omits. A missing file is not an error: Load returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, err
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.TotalSectors == 0 {
		cfg.TotalSectors = DefaultTotalSectors
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}
