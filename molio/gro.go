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

package molio

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/molmodel/moltraj"
)

// groFile reads and writes GROMACS GRO files. Coordinates in GRO are
// already in nm, so no unit conversion happens. A file may hold several
// concatenated frames; each Read call consumes one.
type groFile struct {
	path string
	mode rune
	f    *os.File
	r    *bufio.Reader
	w    *bufio.Writer
}

func newGroFile(path string) moltraj.FileFormat { return &groFile{path: path} }

func (g *groFile) Content() moltraj.Content {
	return moltraj.Content{Atoms: true, Coord: true, Traj: true}
}

func (g *groFile) Open(mode rune) error {
	g.mode = mode
	var err error
	switch mode {
	case 'r':
		g.f, err = os.Open(g.path)
		if err != nil {
			return errors.Wrap(err, "gro: open")
		}
		g.r = bufio.NewReader(g.f)
	case 'w':
		g.f, err = os.Create(g.path)
		if err != nil {
			return errors.Wrap(err, "gro: create")
		}
		g.w = bufio.NewWriter(g.f)
	default:
		return errors.Errorf("gro: bad open mode %q", string(mode))
	}
	return nil
}

func (g *groFile) Close() error {
	if g.w != nil {
		g.w.Flush()
	}
	if g.f != nil {
		return g.f.Close()
	}
	return nil
}

// Read consumes one frame. The atom table is filled when sys is non-nil
// and what.Atoms is set; the coordinates, box and time go into fr.
func (g *groFile) Read(sys *moltraj.System, fr *moltraj.Frame, what moltraj.Content) (bool, error) {
	title, err := g.r.ReadString('\n')
	if err != nil {
		return false, nil // end of trajectory
	}
	countLine, err := g.r.ReadString('\n')
	if err != nil {
		return false, errors.Wrap(err, "gro: truncated header")
	}
	natoms, err := strconv.Atoi(strings.TrimSpace(countLine))
	if err != nil {
		return false, errors.Errorf("gro: bad atom count %q", strings.TrimSpace(countLine))
	}

	// The title line may carry a timestamp: "... t= 123.4".
	t := 0.0
	if k := strings.Index(title, "t="); k >= 0 {
		fmt.Sscanf(title[k+2:], "%g", &t)
	}

	var atoms []moltraj.Atom
	var coords []moltraj.Vec3
	for i := 0; i < natoms; i++ {
		line, err := g.r.ReadString('\n')
		if err != nil {
			return false, errors.Wrapf(err, "gro: truncated at atom %d", i)
		}
		coords = append(coords, moltraj.Vec3{
			parseFloatField(line, 20, 28),
			parseFloatField(line, 28, 36),
			parseFloatField(line, 36, 44),
		})
		if sys != nil && what.Atoms {
			a := moltraj.Atom{
				Resid:   parseIntField(line, 0, 5),
				Resname: field(line, 5, 10),
				Name:    field(line, 10, 15),
			}
			a.AtomicNum, a.Mass = moltraj.GuessElement(a.Name)
			atoms = append(atoms, a)
		}
	}

	boxLine, err := g.r.ReadString('\n')
	if err != nil && boxLine == "" {
		return false, errors.Wrap(err, "gro: missing box line")
	}
	var b [9]float64
	fields := strings.Fields(boxLine)
	for i := 0; i < len(fields) && i < 9; i++ {
		b[i], _ = strconv.ParseFloat(fields[i], 64)
	}
	// Free-format box: v1x v2y v3z [v1y v1z v2x v2z v3x v3y].
	var m moltraj.Mat3
	m[0][0], m[1][1], m[2][2] = b[0], b[1], b[2]
	m[1][0], m[2][0] = b[3], b[4]
	m[0][1], m[2][1] = b[5], b[6]
	m[0][2], m[1][2] = b[7], b[8]

	if sys != nil && what.Atoms {
		if err := sys.AtomsAdd(atoms, coords); err != nil {
			return false, err
		}
		if f0, err := sys.Frame(0); err == nil {
			f0.Box.Set(m)
			f0.Time = t
		}
	}
	if fr != nil {
		fr.Coord = coords
		fr.Box.Set(m)
		fr.Time = t
	}
	return true, nil
}

// Write stores the current frame of the selection.
func (g *groFile) Write(sel *moltraj.Selection, what moltraj.Content) error {
	fr, err := sel.System().Frame(sel.Frame())
	if err != nil {
		return err
	}
	fmt.Fprintf(g.w, "Written by moltraj, t= %.3f\n", fr.Time)
	fmt.Fprintf(g.w, "%5d\n", sel.Size())
	for i := 0; i < sel.Size(); i++ {
		a := sel.Atom(i)
		p := sel.XYZ(i)
		name := a.Name
		if len(name) > 5 {
			name = name[:5]
		}
		fmt.Fprintf(g.w, "%5d%-5s%5s%5d%8.3f%8.3f%8.3f\n",
			a.Resid%100000, a.Resname, name, (sel.Index(i)+1)%100000,
			p[0], p[1], p[2])
	}
	m := fr.Box.Matrix()
	if fr.Box.IsTriclinic() {
		fmt.Fprintf(g.w, "%10.5f%10.5f%10.5f%10.5f%10.5f%10.5f%10.5f%10.5f%10.5f\n",
			m[0][0], m[1][1], m[2][2],
			m[1][0], m[2][0], m[0][1], m[2][1], m[0][2], m[1][2])
	} else {
		fmt.Fprintf(g.w, "%10.5f%10.5f%10.5f\n", m[0][0], m[1][1], m[2][2])
	}
	return nil
}
