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
	"reflect"
	"sort"
	"testing"
)

// waterChainSystem builds two isolated water molecules plus a 4-atom
// chain more than 1 nm away from everything else.
func waterChainSystem(t *testing.T) *System {
	t.Helper()
	s := NewSystem()
	var atoms []Atom
	var coords []Vec3
	addWater := func(resid int, origin Vec3) {
		names := []string{"OW", "HW1", "HW2"}
		offsets := []Vec3{{0, 0, 0}, {0.1, 0, 0}, {0, 0.1, 0}}
		for i := range names {
			atoms = append(atoms, Atom{Name: names[i], Resname: "SOL", Resid: resid, Mass: 1})
			coords = append(coords, origin.Add(offsets[i]))
		}
	}
	addWater(1, Vec3{0, 0, 0})
	addWater(2, Vec3{3, 0, 0})
	for i := 0; i < 4; i++ {
		atoms = append(atoms, Atom{Name: "C", Resname: "CHN", Resid: 3, Mass: 12})
		coords = append(coords, Vec3{6, float64(i) * 0.15, 0})
	}
	if err := s.AtomsAdd(atoms, coords); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSplitByConnectivity(t *testing.T) {
	s := waterChainSystem(t)
	all, err := NewSelection(s, "all")
	if err != nil {
		t.Fatal(err)
	}
	groups, err := all.SplitByConnectivity(0.2)
	if err != nil {
		t.Fatalf("SplitByConnectivity: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("want 3 groups but have %d", len(groups))
	}
	sizes := make([]int, len(groups))
	for i, g := range groups {
		sizes[i] = g.Size()
	}
	sort.Ints(sizes)
	if want := []int{3, 3, 4}; !reflect.DeepEqual(want, sizes) {
		t.Errorf("group sizes: want %v but have %v", want, sizes)
	}
}

func TestEachResidue(t *testing.T) {
	s := testSystem(t)
	all, err := NewSelection(s, "all")
	if err != nil {
		t.Fatal(err)
	}
	res, err := all.EachResidue()
	if err != nil {
		t.Fatalf("EachResidue: %v", err)
	}
	if len(res) != 3 {
		t.Fatalf("want 3 residues but have %d", len(res))
	}
	if want := []int{0, 1, 2}; !reflect.DeepEqual(want, res[0].Indices()) {
		t.Errorf("residue 0: want %v but have %v", want, res[0].Indices())
	}
}

func TestSettersSizeCheck(t *testing.T) {
	s := testSystem(t)
	ca, err := NewSelection(s, "name CA")
	if err != nil {
		t.Fatal(err)
	}
	err = ca.SetBetas([]float64{1})
	if _, ok := err.(*SizeMismatchError); !ok {
		t.Errorf("SetBetas: want SizeMismatchError but have %v", err)
	}
	if err := ca.SetBetas([]float64{7, 8, 9}); err != nil {
		t.Fatalf("SetBetas: %v", err)
	}
	if want := []float64{7, 8, 9}; !reflect.DeepEqual(want, ca.Betas()) {
		t.Errorf("Betas: want %v but have %v", want, ca.Betas())
	}
}

func TestCenterAndTranslate(t *testing.T) {
	s := testSystem(t)
	all, err := NewSelection(s, "all")
	if err != nil {
		t.Fatal(err)
	}
	c, err := all.Center(false, false)
	if err != nil {
		t.Fatal(err)
	}
	want := Vec3{0.6, 0, 0} // mean of 0.15*i for i in 0..8
	if c.Sub(want).Norm() > 1e-9 {
		t.Errorf("center: want %v but have %v", want, c)
	}
	all.Translate(Vec3{0, 1, 0})
	c2, _ := all.Center(false, false)
	if c2.Sub(want.Add(Vec3{0, 1, 0})).Norm() > 1e-9 {
		t.Errorf("center after translate: have %v", c2)
	}
}

func TestCenterPeriodic(t *testing.T) {
	s := NewSystem()
	atoms := []Atom{{Name: "A", Resid: 1, Mass: 1}, {Name: "B", Resid: 1, Mass: 1}}
	coords := []Vec3{{0.1, 1, 1}, {1.9, 1, 1}}
	if err := s.AtomsAdd(atoms, coords); err != nil {
		t.Fatal(err)
	}
	f, _ := s.Frame(0)
	f.Box.Set(Mat3{{2, 0, 0}, {0, 2, 0}, {0, 0, 2}})
	se, err := NewSelection(s, "all")
	if err != nil {
		t.Fatal(err)
	}
	c, err := se.Center(false, true)
	if err != nil {
		t.Fatal(err)
	}
	// The periodic center sits at x=0 (wrapped into the cell), not at
	// the naive x=1.
	if math.Abs(c[0]-0) > 1e-9 && math.Abs(c[0]-2) > 1e-9 {
		t.Errorf("periodic center x: want 0 (mod 2) but have %g", c[0])
	}
}

func TestMinMax(t *testing.T) {
	s := testSystem(t)
	all, _ := NewSelection(s, "all")
	min, max := all.MinMax()
	if min[0] != 0 || math.Abs(max[0]-1.2) > 1e-9 {
		t.Errorf("minmax x: want [0, 1.2] but have [%g, %g]", min[0], max[0])
	}
}

func TestRotateAxis(t *testing.T) {
	s := NewSystem()
	atoms := []Atom{{Name: "A", Resid: 1, Mass: 1}, {Name: "B", Resid: 1, Mass: 1}}
	coords := []Vec3{{0, 0, 0}, {1, 0, 0}}
	if err := s.AtomsAdd(atoms, coords); err != nil {
		t.Fatal(err)
	}
	se, _ := NewSelection(s, "all")
	if err := se.RotateAxisPivot(2, math.Pi/2, Vec3{0, 0, 0}); err != nil {
		t.Fatal(err)
	}
	got := se.XYZ(1)
	want := Vec3{0, 1, 0}
	if got.Sub(want).Norm() > 1e-9 {
		t.Errorf("rotate z 90°: want %v but have %v", want, got)
	}
	if err := se.RotateAxisPivot(5, 1, Vec3{}); err == nil {
		t.Error("invalid axis not rejected")
	}
}

func TestAtomsDupDelete(t *testing.T) {
	s := testSystem(t)
	ca, err := NewSelection(s, "name CA")
	if err != nil {
		t.Fatal(err)
	}
	dup, err := ca.AtomsDup()
	if err != nil {
		t.Fatal(err)
	}
	if dup.Size() != 3 {
		t.Fatalf("want 3 duplicates but have %d", dup.Size())
	}
	if s.NumAtoms() != 12 {
		t.Fatalf("want 12 atoms but have %d", s.NumAtoms())
	}
	if err := dup.AtomsDelete(); err != nil {
		t.Fatal(err)
	}
	if s.NumAtoms() != 9 {
		t.Errorf("want 9 atoms after delete but have %d", s.NumAtoms())
	}
}

func TestAppendSelection(t *testing.T) {
	s := testSystem(t)
	a, _ := NewSelection(s, "name CA")
	b, _ := NewSelection(s, "name N")
	if err := a.Append(b); err != nil {
		t.Fatal(err)
	}
	want := unionInts(sel(t, s, "name CA"), sel(t, s, "name N"))
	if !reflect.DeepEqual(want, a.Indices()) {
		t.Errorf("append: want %v but have %v", want, a.Indices())
	}
	// The appended selection re-evaluates from its new text.
	if err := a.Update(); err != nil {
		t.Fatalf("Update after append: %v", err)
	}
	if !reflect.DeepEqual(want, a.Indices()) {
		t.Errorf("append text: want %v but have %v", want, a.Indices())
	}
}

func TestDistribute(t *testing.T) {
	s := waterChainSystem(t)
	one, err := NewSelection(s, "resid 1")
	if err != nil {
		t.Fatal(err)
	}
	before := s.NumAtoms()
	if err := one.Distribute([3]int{3, 1, 1}, Vec3{1.5, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if want := before + 6; s.NumAtoms() != want {
		t.Errorf("distribute: want %d atoms but have %d", want, s.NumAtoms())
	}
}
