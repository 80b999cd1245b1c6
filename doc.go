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

// Package moltraj is the core of a molecular modeling library: a system
// of atoms with trajectory frames, a selection language compiling to
// lazily evaluated atom index sets, neighbor search in periodic
// triclinic boxes, and the structural operations built on top of them.
//
// File format codecs live in the molio package and register themselves
// by extension; trajectory processing over banks of concurrent tasks
// lives in the traj package.
//
// All coordinates are in nm and all times in ps.
package moltraj
