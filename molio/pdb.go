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

	"github.com/pkg/errors"

	"github.com/molmodel/moltraj"
)

// pdbFile reads and writes PDB files. PDB coordinates are in Ångströms;
// they are converted to nm on read and back on write. MODEL/ENDMDL
// blocks are treated as trajectory frames.
type pdbFile struct {
	path string
	mode rune
	f    *os.File
	r    *bufio.Reader
	w    *bufio.Writer

	model int
}

func newPdbFile(path string) moltraj.FileFormat { return &pdbFile{path: path} }

func (p *pdbFile) Content() moltraj.Content {
	return moltraj.Content{Atoms: true, Coord: true, Traj: true}
}

func (p *pdbFile) Open(mode rune) error {
	p.mode = mode
	var err error
	switch mode {
	case 'r':
		p.f, err = os.Open(p.path)
		if err != nil {
			return errors.Wrap(err, "pdb: open")
		}
		p.r = bufio.NewReader(p.f)
	case 'w':
		p.f, err = os.Create(p.path)
		if err != nil {
			return errors.Wrap(err, "pdb: create")
		}
		p.w = bufio.NewWriter(p.f)
	default:
		return errors.Errorf("pdb: bad open mode %q", string(mode))
	}
	return nil
}

func (p *pdbFile) Close() error {
	if p.w != nil {
		fmt.Fprintln(p.w, "END")
		p.w.Flush()
	}
	if p.f != nil {
		return p.f.Close()
	}
	return nil
}

const angstrom = 0.1 // nm

// Read consumes one model.
func (p *pdbFile) Read(sys *moltraj.System, fr *moltraj.Frame, what moltraj.Content) (bool, error) {
	var atoms []moltraj.Atom
	var coords []moltraj.Vec3
	var box moltraj.Mat3
	sawBox := false
	sawAtoms := false

	for {
		line, err := p.r.ReadString('\n')
		if line == "" && err != nil {
			break
		}
		rec := field(line, 0, 6)
		switch {
		case rec == "CRYST1":
			a := parseFloatField(line, 6, 15) * angstrom
			b := parseFloatField(line, 15, 24) * angstrom
			c := parseFloatField(line, 24, 33) * angstrom
			alpha := parseFloatField(line, 33, 40)
			beta := parseFloatField(line, 40, 47)
			gamma := parseFloatField(line, 47, 54)
			box = moltraj.BoxFromVectorsAngles(a, b, c, alpha, beta, gamma)
			sawBox = true
		case rec == "ATOM" || rec == "HETATM":
			sawAtoms = true
			coords = append(coords, moltraj.Vec3{
				parseFloatField(line, 30, 38) * angstrom,
				parseFloatField(line, 38, 46) * angstrom,
				parseFloatField(line, 46, 54) * angstrom,
			})
			if sys != nil && what.Atoms {
				a := moltraj.Atom{
					Name:      field(line, 12, 16),
					Resname:   field(line, 17, 21),
					Resid:     parseIntField(line, 22, 26),
					Occupancy: parseFloatField(line, 54, 60),
					Beta:      parseFloatField(line, 60, 66),
					Tag:       field(line, 76, 78),
				}
				if ch := field(line, 21, 22); ch != "" {
					a.Chain = ch[0]
				}
				a.AtomicNum, a.Mass = moltraj.GuessElement(a.Name)
				atoms = append(atoms, a)
			}
		case rec == "ENDMDL" || rec == "END":
			if sawAtoms {
				goto done
			}
		}
		if err != nil {
			break
		}
	}
done:
	if !sawAtoms {
		return false, nil
	}
	p.model++

	if sys != nil && what.Atoms {
		if err := sys.AtomsAdd(atoms, coords); err != nil {
			return false, err
		}
		if sawBox {
			if f0, err := sys.Frame(0); err == nil {
				f0.Box.Set(box)
			}
		}
	}
	if fr != nil {
		fr.Coord = coords
		if sawBox {
			fr.Box.Set(box)
		}
	}
	return true, nil
}

// Write stores the current frame of the selection as one MODEL block.
func (p *pdbFile) Write(sel *moltraj.Selection, what moltraj.Content) error {
	fr, err := sel.System().Frame(sel.Frame())
	if err != nil {
		return err
	}
	if p.model == 0 {
		v, a := fr.Box.VectorsAngles()
		fmt.Fprintf(p.w, "CRYST1%9.3f%9.3f%9.3f%7.2f%7.2f%7.2f P 1           1\n",
			v[0]/angstrom, v[1]/angstrom, v[2]/angstrom, a[0], a[1], a[2])
	}
	p.model++
	fmt.Fprintf(p.w, "MODEL     %4d\n", p.model)
	for i := 0; i < sel.Size(); i++ {
		a := sel.Atom(i)
		xyz := sel.XYZ(i)
		name := a.Name
		if len(name) > 4 {
			name = name[:4]
		}
		chain := a.Chain
		if chain == 0 {
			chain = ' '
		}
		resname := a.Resname
		if len(resname) > 4 {
			resname = resname[:4]
		}
		fmt.Fprintf(p.w, "ATOM  %5d %-4s %-4s%c%4d    %8.3f%8.3f%8.3f%6.2f%6.2f\n",
			(sel.Index(i)+1)%100000, name, resname, chain, a.Resid%10000,
			xyz[0]/angstrom, xyz[1]/angstrom, xyz[2]/angstrom,
			a.Occupancy, a.Beta)
	}
	fmt.Fprintln(p.w, "ENDMDL")
	return nil
}
