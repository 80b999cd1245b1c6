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

// Frame is one trajectory snapshot: coordinates for every atom of the
// system, the periodic box and a timestamp.
// Coordinates are stored in nm, not in Ångströms.
type Frame struct {
	Coord []Vec3
	Box   PeriodicBox
	Time  float64 // ps
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	c := &Frame{
		Coord: make([]Vec3, len(f.Coord)),
		Box:   f.Box,
		Time:  f.Time,
	}
	copy(c.Coord, f.Coord)
	return c
}
