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

package moltraj

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Content is the capability set of a file format adapter, and doubles as
// the "what" argument of Read and Write.
type Content struct {
	Atoms        bool // atom table and attributes
	Coord        bool // a single coordinate set
	Traj         bool // multiple frames
	Topology     bool // force-field molecule table
	RandomAccess bool // seekable trajectory
}

// FileFormat is the adapter interface consumed by the core: format
// codecs live outside the core and register themselves by extension.
type FileFormat interface {
	// Open prepares the adapter for reading ('r') or writing ('w').
	Open(mode rune) error
	Close() error

	// Content reports what this format can hold.
	Content() Content

	// Read fills the requested parts. sys may be nil when only a frame
	// is wanted and vice versa. The bool result is false at end of
	// trajectory.
	Read(sys *System, fr *Frame, what Content) (bool, error)

	// Write stores the requested parts of the selection at its current
	// frame.
	Write(sel *Selection, what Content) error
}

// RandomAccessFormat extends FileFormat for seekable trajectories.
type RandomAccessFormat interface {
	FileFormat
	SeekFrame(fr int) error
	SeekTime(t float64) error
	TellCurrent() (step int, t float64, err error)
	TellLast() (step int, t float64, err error)
}

// FormatFactory creates an (unopened) adapter for a path.
type FormatFactory func(path string) FileFormat

var formatRegistry = map[string]FormatFactory{}

// RegisterFormat makes a file format available under the given extension
// (without the dot). Adapters call this from init.
func RegisterFormat(ext string, f FormatFactory) {
	formatRegistry[strings.ToLower(ext)] = f
}

// RecognizeFormat returns an unopened adapter for the path, chosen by
// file extension.
func RecognizeFormat(path string) (FileFormat, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	f, ok := formatRegistry[ext]
	if !ok {
		return nil, &IOError{Path: path, Err: fmt.Errorf("unrecognized file extension %q", ext)}
	}
	return f(path), nil
}

// OpenFile recognizes the format of path and opens it with the given mode
// ('r' or 'w').
func OpenFile(path string, mode rune) (FileFormat, error) {
	f, err := RecognizeFormat(path)
	if err != nil {
		return nil, err
	}
	if err := f.Open(mode); err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return f, nil
}
