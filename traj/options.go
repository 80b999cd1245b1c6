/*
Copyright © 2021 the MolTraj authors.
This file is part of MolTraj.

MolTraj is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

MolTraj is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with MolTraj.  If not, see <http://www.gnu.org/licenses/>.
*/

package traj

import (
	"fmt"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Options configures a trajectory run. The TOML keys match the option
// names consumed on the command line.
type Options struct {
	// Trajectory lists the input files, processed in order. The first
	// file seeds the system and must provide an atom table.
	Trajectory []string `toml:"trajectory"`

	// FirstFrame/LastFrame bound the admitted frames (inclusive);
	// LastFrame = -1 means to the end.
	FirstFrame int `toml:"first_frame"`
	LastFrame  int `toml:"last_frame"`

	// FirstTime/LastTime bound the admitted frames by timestamp [ps]
	// and override the frame bounds when set (>= 0).
	FirstTime float64 `toml:"first_time"`
	LastTime  float64 `toml:"last_time"`

	// Stride admits every k-th frame of the window.
	Stride int `toml:"stride"`

	// Parallel runs one worker goroutine per task, fed through bounded
	// channels; otherwise tasks run serially on the reader goroutine.
	Parallel bool `toml:"parallel"`

	// BufferSize is the per-task channel capacity.
	BufferSize int `toml:"buffer_size"`

	// LogInterval prints a status line every n admitted frames;
	// 0 disables logging.
	LogInterval int `toml:"log_interval"`

	// Extra carries task-specific named options.
	Extra map[string]string `toml:"extra"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() *Options {
	return &Options{
		FirstFrame:  0,
		LastFrame:   -1,
		FirstTime:   -1,
		LastTime:    -1,
		Stride:      1,
		BufferSize:  10,
		LogInterval: 0,
		Extra:       map[string]string{},
	}
}

// FromFile merges options from a TOML file.
func (o *Options) FromFile(path string) error {
	if _, err := toml.DecodeFile(path, o); err != nil {
		return fmt.Errorf("traj: options file %s: %v", path, err)
	}
	return nil
}

// GetString returns a task-specific named option, or def when unset.
func (o *Options) GetString(key, def string) string {
	if v, ok := o.Extra[key]; ok {
		return v
	}
	return def
}

// GetFloat returns a task-specific named option as a float, or def.
func (o *Options) GetFloat(key string, def float64) float64 {
	if v, ok := o.Extra[key]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// GetBool returns a task-specific named option as a bool, or def.
func (o *Options) GetBool(key string, def bool) bool {
	if v, ok := o.Extra[key]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
