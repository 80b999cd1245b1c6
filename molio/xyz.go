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

// xyzFile reads and writes multi-frame XYZ trajectories. Coordinates are
// taken as nm. The comment line may carry "t= <ps>".
type xyzFile struct {
	path string
	f    *os.File
	r    *bufio.Reader
	w    *bufio.Writer
}

func newXyzFile(path string) moltraj.FileFormat { return &xyzFile{path: path} }

func (x *xyzFile) Content() moltraj.Content {
	return moltraj.Content{Atoms: true, Coord: true, Traj: true}
}

func (x *xyzFile) Open(mode rune) error {
	var err error
	switch mode {
	case 'r':
		x.f, err = os.Open(x.path)
		if err != nil {
			return errors.Wrap(err, "xyz: open")
		}
		x.r = bufio.NewReader(x.f)
	case 'w':
		x.f, err = os.Create(x.path)
		if err != nil {
			return errors.Wrap(err, "xyz: create")
		}
		x.w = bufio.NewWriter(x.f)
	default:
		return errors.Errorf("xyz: bad open mode %q", string(mode))
	}
	return nil
}

func (x *xyzFile) Close() error {
	if x.w != nil {
		x.w.Flush()
	}
	if x.f != nil {
		return x.f.Close()
	}
	return nil
}

func (x *xyzFile) Read(sys *moltraj.System, fr *moltraj.Frame, what moltraj.Content) (bool, error) {
	countLine, err := x.r.ReadString('\n')
	if err != nil {
		return false, nil
	}
	natoms, err := strconv.Atoi(strings.TrimSpace(countLine))
	if err != nil {
		return false, errors.Errorf("xyz: bad atom count %q", strings.TrimSpace(countLine))
	}
	comment, err := x.r.ReadString('\n')
	if err != nil {
		return false, errors.Wrap(err, "xyz: truncated header")
	}
	t := 0.0
	if k := strings.Index(comment, "t="); k >= 0 {
		fmt.Sscanf(comment[k+2:], "%g", &t)
	}

	var atoms []moltraj.Atom
	coords := make([]moltraj.Vec3, 0, natoms)
	for i := 0; i < natoms; i++ {
		line, err := x.r.ReadString('\n')
		if err != nil && line == "" {
			return false, errors.Wrapf(err, "xyz: truncated at atom %d", i)
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return false, errors.Errorf("xyz: malformed atom line %d", i)
		}
		var v moltraj.Vec3
		for j := 0; j < 3; j++ {
			v[j], _ = strconv.ParseFloat(fields[j+1], 64)
		}
		coords = append(coords, v)
		if sys != nil && what.Atoms {
			a := moltraj.Atom{Name: fields[0], Resname: "UNK"}
			a.AtomicNum, a.Mass = moltraj.GuessElement(a.Name)
			atoms = append(atoms, a)
		}
	}
	if sys != nil && what.Atoms {
		if err := sys.AtomsAdd(atoms, coords); err != nil {
			return false, err
		}
		if f0, err := sys.Frame(0); err == nil {
			f0.Time = t
		}
	}
	if fr != nil {
		fr.Coord = coords
		fr.Time = t
	}
	return true, nil
}

func (x *xyzFile) Write(sel *moltraj.Selection, what moltraj.Content) error {
	fr, err := sel.System().Frame(sel.Frame())
	if err != nil {
		return err
	}
	fmt.Fprintf(x.w, "%d\n", sel.Size())
	fmt.Fprintf(x.w, "t= %.3f\n", fr.Time)
	for i := 0; i < sel.Size(); i++ {
		p := sel.XYZ(i)
		fmt.Fprintf(x.w, "%-4s %12.6f %12.6f %12.6f\n", sel.Atom(i).Name, p[0], p[1], p[2])
	}
	return nil
}
