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
	"errors"
	"fmt"
)

// ErrTopologyMissing is returned by operations that need a force-field
// molecule table when the system doesn't carry one.
var ErrTopologyMissing = errors.New("moltraj: no molecule topology present")

// ParseError is a selection-language syntax error. Column is the 1-based
// position in the (macro-expanded) selection text where parsing failed.
type ParseError struct {
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("moltraj: selection parse error at column %d: %s", e.Column, e.Message)
}

// EvalError is a semantic error raised while interpreting a selection
// expression, for example a division by zero inside a comparison.
type EvalError struct {
	Node    string
	Message string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("moltraj: selection evaluation error in %s: %s", e.Node, e.Message)
}

// IndexError reports a frame or atom index outside its legal range
// [Min, Max).
type IndexError struct {
	Got      int
	Min, Max int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("moltraj: index %d out of range [%d, %d)", e.Got, e.Min, e.Max)
}

// SizeMismatchError reports attribute setter data whose length doesn't
// match the selection length.
type SizeMismatchError struct {
	Expected, Got int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("moltraj: invalid data size %d for selection of size %d", e.Got, e.Expected)
}

// IOError wraps a file open/read/write failure together with the path of
// the offending file.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("moltraj: %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
