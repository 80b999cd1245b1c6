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
	"math"
	"testing"
)

// bilayerSystem builds two flat leaflets of four one-lipid residues
// each: head markers P at z=0 and z=2, with a tail atom under each.
func bilayerSystem(t *testing.T) *System {
	t.Helper()
	s := NewSystem()
	var atoms []Atom
	var coords []Vec3
	resid := 1
	addLipid := func(x, y, z, tailZ float64) {
		atoms = append(atoms,
			Atom{Name: "P", Resname: "POP", Resid: resid, Mass: 31},
			Atom{Name: "C1", Resname: "POP", Resid: resid, Mass: 12},
		)
		coords = append(coords, Vec3{x, y, z}, Vec3{x, y, tailZ})
		resid++
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			addLipid(float64(i)*0.5, float64(j)*0.5, 0, 0.4)
		}
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			addLipid(float64(i)*0.5, float64(j)*0.5, 2, 1.6)
		}
	}
	if err := s.AtomsAdd(atoms, coords); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestBilayerSplit(t *testing.T) {
	s := bilayerSystem(t)
	all, err := NewSelection(s, "all")
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewBilayer(all, "name P", 0.9)
	if err != nil {
		t.Fatalf("NewBilayer: %v", err)
	}
	if b.Mono1.Size() != 8 || b.Mono2.Size() != 8 {
		t.Errorf("monolayer sizes: want 8/8 but have %d/%d", b.Mono1.Size(), b.Mono2.Size())
	}
}

func TestBilayerPointInfo(t *testing.T) {
	s := bilayerSystem(t)
	all, err := NewSelection(s, "all")
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewBilayer(all, "name P", 0.9)
	if err != nil {
		t.Fatal(err)
	}
	info, err := b.PointInfo(Vec3{0.25, 0.25, 0.5})
	if err != nil {
		t.Fatalf("PointInfo: %v", err)
	}
	if math.Abs(info.Thickness-2) > 1e-9 {
		t.Errorf("thickness: want 2 but have %g", info.Thickness)
	}
	if math.Abs(info.Center[2]-1) > 1e-9 {
		t.Errorf("center z: want 1 but have %g", info.Center[2])
	}
	if info.Monolayer != 1 {
		t.Errorf("monolayer: want 1 but have %d", info.Monolayer)
	}
	if math.Abs(math.Abs(info.Normal[2])-1) > 1e-9 {
		t.Errorf("normal: want ±z but have %v", info.Normal)
	}
}

func TestBilayerRejectsNonBilayer(t *testing.T) {
	s := testSystem(t)
	all, err := NewSelection(s, "all")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewBilayer(all, "name CA", 0.2); err == nil {
		t.Error("non-bilayer selection not rejected")
	}
}
