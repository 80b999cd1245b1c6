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

import "strings"

// Atom holds all per-atom attributes except the coordinates, which live in
// the trajectory frames.
type Atom struct {
	Name     string
	TypeName string
	TypeNum  int
	Resname  string
	Resid    int
	// Resindex is the dense contiguous residue index assigned by
	// System.AssignResindex, independent of the author-supplied Resid.
	Resindex  int
	Chain     byte
	Tag       string
	Mass      float64
	Charge    float64
	Beta      float64
	Occupancy float64
	AtomicNum int
}

// Standard atomic masses for the elements commonly found in
// biomolecular systems [g/mol].
var elementMasses = map[string]struct {
	num  int
	mass float64
}{
	"H":  {1, 1.008},
	"C":  {6, 12.011},
	"N":  {7, 14.007},
	"O":  {8, 15.999},
	"F":  {9, 18.998},
	"NA": {11, 22.990},
	"MG": {12, 24.305},
	"P":  {15, 30.974},
	"S":  {16, 32.065},
	"CL": {17, 35.453},
	"K":  {19, 39.098},
	"CA": {20, 40.078},
	"FE": {26, 55.845},
	"ZN": {30, 65.380},
}

// GuessElement infers the atomic number and mass from an atom name the way
// structure formats without explicit element records require. The first
// alphabetic character wins except for the common two-letter ions.
func GuessElement(name string) (anum int, mass float64) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "" {
		return 0, 1.0
	}
	if el, ok := elementMasses[n]; ok && len(n) == 2 {
		// Ions and metals are usually named by their element.
		switch n {
		case "NA", "MG", "CL", "FE", "ZN":
			return el.num, el.mass
		}
	}
	// Strip leading digits (e.g. "1HB2").
	i := 0
	for i < len(n) && (n[i] < 'A' || n[i] > 'Z') {
		i++
	}
	if i == len(n) {
		return 0, 1.0
	}
	if el, ok := elementMasses[n[i : i+1]]; ok {
		return el.num, el.mass
	}
	return 0, 1.0
}
