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
	"reflect"
	"testing"
)

// testSystem builds a small protein-like system:
//
//	residue 1 (ALA, chain A): N CA C          indices 0-2
//	residue 2 (GLY, chain A): N CA            indices 3-4
//	residue 3 (ASP, chain B): N CA C O        indices 5-8
func testSystem(t *testing.T) *System {
	t.Helper()
	s := NewSystem()
	type row struct {
		name, resname string
		resid         int
		chain         byte
	}
	rows := []row{
		{"N", "ALA", 1, 'A'},
		{"CA", "ALA", 1, 'A'},
		{"C", "ALA", 1, 'A'},
		{"N", "GLY", 2, 'A'},
		{"CA", "GLY", 2, 'A'},
		{"N", "ASP", 3, 'B'},
		{"CA", "ASP", 3, 'B'},
		{"C", "ASP", 3, 'B'},
		{"O", "ASP", 3, 'B'},
	}
	atoms := make([]Atom, len(rows))
	coords := make([]Vec3, len(rows))
	for i, r := range rows {
		atoms[i] = Atom{Name: r.name, Resname: r.resname, Resid: r.resid, Chain: r.chain, Mass: 12, Beta: float64(i)}
		coords[i] = Vec3{float64(i) * 0.15, 0, 0}
	}
	if err := s.AtomsAdd(atoms, coords); err != nil {
		t.Fatalf("AtomsAdd: %v", err)
	}
	f, _ := s.Frame(0)
	f.Box.Set(Mat3{{10, 0, 0}, {0, 10, 0}, {0, 0, 10}})
	return s
}

func TestAssignResindex(t *testing.T) {
	s := testSystem(t)
	want := []int{0, 0, 0, 1, 1, 2, 2, 2, 2}
	have := make([]int, s.NumAtoms())
	for i := range have {
		have[i] = s.Atom(i).Resindex
	}
	if !reflect.DeepEqual(want, have) {
		t.Errorf("resindex: want %v but have %v", want, have)
	}
}

func TestFrameOps(t *testing.T) {
	s := testSystem(t)
	if err := s.FrameDup(0); err != nil {
		t.Fatalf("FrameDup: %v", err)
	}
	if s.NumFrames() != 2 {
		t.Fatalf("want 2 frames but have %d", s.NumFrames())
	}
	f1, _ := s.Frame(1)
	f1.Coord[0] = Vec3{9, 9, 9}
	f0, _ := s.Frame(0)
	if f0.Coord[0] == f1.Coord[0] {
		t.Error("FrameDup did not deep-copy coordinates")
	}
	if err := s.FrameCopy(1, 0); err != nil {
		t.Fatalf("FrameCopy: %v", err)
	}
	if f0.Coord[0] != (Vec3{9, 9, 9}) {
		t.Errorf("FrameCopy: want %v but have %v", Vec3{9, 9, 9}, f0.Coord[0])
	}
	if err := s.FrameDelete(1, -1); err != nil {
		t.Fatalf("FrameDelete: %v", err)
	}
	if s.NumFrames() != 1 {
		t.Errorf("want 1 frame but have %d", s.NumFrames())
	}
}

func TestFrameAppendSizeCheck(t *testing.T) {
	s := testSystem(t)
	err := s.FrameAppend(Frame{Coord: make([]Vec3, 3)})
	if _, ok := err.(*SizeMismatchError); !ok {
		t.Errorf("want SizeMismatchError but have %v", err)
	}
}

func TestSelectionSurvivesFrameDeletion(t *testing.T) {
	s := testSystem(t)
	s.FrameDup(0)
	s.FrameDup(0)
	sel, err := NewSelection(s, "name CA")
	if err != nil {
		t.Fatalf("NewSelection: %v", err)
	}
	if err := sel.SetFrame(2); err != nil {
		t.Fatalf("SetFrame: %v", err)
	}
	if err := s.FrameDelete(2, 2); err != nil {
		t.Fatalf("FrameDelete: %v", err)
	}
	if sel.Frame() != 0 {
		t.Errorf("selection frame after deletion: want 0 but have %d", sel.Frame())
	}
}

func TestSelectionTracksTopology(t *testing.T) {
	s := testSystem(t)
	sel, err := NewSelection(s, "name CA")
	if err != nil {
		t.Fatalf("NewSelection: %v", err)
	}
	if sel.Size() != 3 {
		t.Fatalf("want 3 CA atoms but have %d", sel.Size())
	}
	dup, err := NewSelectionIndices(s, []int{1}) // one CA
	if err != nil {
		t.Fatalf("NewSelectionIndices: %v", err)
	}
	if _, err := dup.AtomsDup(); err != nil {
		t.Fatalf("AtomsDup: %v", err)
	}
	if sel.Size() != 4 {
		t.Errorf("after dup: want 4 CA atoms but have %d", sel.Size())
	}
}

func TestAtomsDelete(t *testing.T) {
	s := testSystem(t)
	if err := s.AtomsDelete([]int{0, 1, 2}); err != nil {
		t.Fatalf("AtomsDelete: %v", err)
	}
	if s.NumAtoms() != 6 {
		t.Fatalf("want 6 atoms but have %d", s.NumAtoms())
	}
	if s.Atom(0).Resname != "GLY" {
		t.Errorf("want GLY first but have %s", s.Atom(0).Resname)
	}
	if s.Atom(0).Resindex != 0 {
		t.Errorf("resindex not renumbered: have %d", s.Atom(0).Resindex)
	}
}

func TestSystemAppend(t *testing.T) {
	a := testSystem(t)
	b := testSystem(t)
	if err := a.Append(b); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if a.NumAtoms() != 18 {
		t.Errorf("want 18 atoms but have %d", a.NumAtoms())
	}
	f, _ := a.Frame(0)
	if len(f.Coord) != 18 {
		t.Errorf("want 18 coords but have %d", len(f.Coord))
	}
}

func TestSystemDistance(t *testing.T) {
	s := testSystem(t)
	d, err := s.Distance(0, 1, 0, false)
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	if d < 0.149 || d > 0.151 {
		t.Errorf("want 0.15 but have %g", d)
	}
	if _, err := s.Distance(0, 99, 0, false); err == nil {
		t.Error("out-of-range index not rejected")
	}
}
