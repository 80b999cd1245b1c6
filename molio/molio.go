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

// Package molio implements file format adapters for the moltraj core:
// GRO, PDB and XYZ. Importing the package registers the formats by
// extension:
//
//	import _ "github.com/molmodel/moltraj/molio"
package molio

import (
	"strconv"
	"strings"

	"github.com/molmodel/moltraj"
)

func init() {
	moltraj.RegisterFormat("gro", newGroFile)
	moltraj.RegisterFormat("pdb", newPdbFile)
	moltraj.RegisterFormat("xyz", newXyzFile)
}

// field extracts a fixed-column substring, tolerating short lines.
func field(line string, from, to int) string {
	if from >= len(line) {
		return ""
	}
	if to > len(line) {
		to = len(line)
	}
	return strings.TrimSpace(line[from:to])
}

func parseFloatField(line string, from, to int) float64 {
	v, _ := strconv.ParseFloat(field(line, from, to), 64)
	return v
}

func parseIntField(line string, from, to int) int {
	v, _ := strconv.Atoi(field(line, from, to))
	return v
}
