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

// fitSystem builds a small non-degenerate structure with two frames.
func fitSystem(t *testing.T) *System {
	t.Helper()
	s := NewSystem()
	coords := []Vec3{
		{0, 0, 0},
		{0.2, 0, 0},
		{0, 0.3, 0},
		{0, 0, 0.4},
		{0.1, 0.1, 0.2},
	}
	atoms := make([]Atom, len(coords))
	for i := range atoms {
		atoms[i] = Atom{Name: "C", Resid: 1, Mass: 12}
	}
	if err := s.AtomsAdd(atoms, coords); err != nil {
		t.Fatal(err)
	}
	if err := s.FrameDup(0); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestFitTransformIdentity(t *testing.T) {
	s := fitSystem(t)
	a, err := NewSelection(s, "all")
	if err != nil {
		t.Fatal(err)
	}
	tr, err := FitTransform(a, a)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	id := IdentityAffine()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(tr.R[i][j]-id.R[i][j]) > 1e-5 {
				t.Errorf("R[%d][%d]: want %g but have %g", i, j, id.R[i][j], tr.R[i][j])
			}
		}
		if math.Abs(tr.T[i]) > 1e-5 {
			t.Errorf("T[%d]: want 0 but have %g", i, tr.T[i])
		}
	}
}

func TestFitRecoversRotation(t *testing.T) {
	s := fitSystem(t)
	moving, err := NewSelection(s, "all")
	if err != nil {
		t.Fatal(err)
	}
	// Displace frame 1 by a rotation plus a translation.
	if err := moving.SetFrame(1); err != nil {
		t.Fatal(err)
	}
	moving.RotateVector(Vec3{1, 1, 0}, 0.7, Vec3{0.3, 0, 0})
	moving.Translate(Vec3{0.5, -0.2, 0.1})

	before, err := moving.RMSDBetween(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if before < 0.1 {
		t.Fatalf("displacement too small to be a meaningful test: %g", before)
	}

	ref := &Selection{sys: s, frame: 0, index: moving.Indices()}
	if err := Fit(moving, ref); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	after, err := moving.RMSDBetween(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if after > 1e-5 {
		t.Errorf("fit residual: want ~0 but have %g", after)
	}
	if after > before {
		t.Errorf("fit increased RMSD: %g > %g", after, before)
	}
}

func TestFitTrajectory(t *testing.T) {
	s := fitSystem(t)
	all, err := NewSelection(s, "all")
	if err != nil {
		t.Fatal(err)
	}
	if err := all.SetFrame(1); err != nil {
		t.Fatal(err)
	}
	all.RotateVector(Vec3{0, 0, 1}, 1.1, Vec3{})
	if err := all.FitTrajectory(0, 0, -1); err != nil {
		t.Fatalf("FitTrajectory: %v", err)
	}
	all.SetFrame(0)
	after, err := all.RMSDBetween(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if after > 1e-5 {
		t.Errorf("fit_trajectory residual: want ~0 but have %g", after)
	}
}

func TestRMSDErrors(t *testing.T) {
	s := fitSystem(t)
	a, _ := NewSelection(s, "all")
	if _, err := a.RMSDBetween(0, 5); err == nil {
		t.Error("bad frame not rejected")
	}
	b, _ := NewSelection(s, "index 0-1")
	if _, err := RMSD(a, b); err == nil {
		t.Error("size mismatch not rejected")
	}
}
