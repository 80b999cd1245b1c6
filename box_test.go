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

func cubicBox(l float64) *PeriodicBox {
	return NewPeriodicBox(Mat3{{l, 0, 0}, {0, l, 0}, {0, 0, l}})
}

func TestBoxRoundTrip(t *testing.T) {
	boxes := []*PeriodicBox{
		cubicBox(2),
		NewPeriodicBox(Mat3{{3, 0.5, 0}, {0, 3, 0.2}, {0, 0, 4}}),
	}
	points := []Vec3{
		{0.1, 0.2, 0.3},
		{1.5, 1.5, 1.5},
		{0, 0, 0},
	}
	for _, b := range boxes {
		for _, p := range points {
			q := b.ToLab(b.ToBox(p))
			if q.Sub(p).Norm() > 1e-5 {
				t.Errorf("roundtrip: want %v but have %v", p, q)
			}
		}
	}
}

func TestBoxWrapRectangular(t *testing.T) {
	b := cubicBox(2)
	points := []Vec3{
		{2.5, -0.5, 1.0},
		{-3.1, 4.2, 2.0},
	}
	for _, p := range points {
		w := b.Wrap(p, AllDims)
		for i := 0; i < 3; i++ {
			if w[i] < 0 || w[i] >= b.Extent(i) {
				t.Errorf("wrap(%v)[%d] = %g outside [0, %g)", p, i, w[i], b.Extent(i))
			}
		}
	}
	// Deselected axes are untouched.
	w := b.Wrap(Vec3{2.5, 2.5, 2.5}, Dims{true, false, true})
	if w[1] != 2.5 {
		t.Errorf("wrap with dims: want y=2.5 but have %g", w[1])
	}
}

func TestBoxDistance(t *testing.T) {
	b := cubicBox(2)
	p1 := Vec3{0.1, 1, 1}
	p2 := Vec3{1.9, 1, 1}

	if d := b.Distance(p1, p2, false, AllDims); math.Abs(d-1.8) > 1e-12 {
		t.Errorf("euclidean: want 1.8 but have %g", d)
	}
	if d := b.Distance(p1, p2, true, AllDims); math.Abs(d-0.2) > 1e-12 {
		t.Errorf("minimum image: want 0.2 but have %g", d)
	}
	// Symmetry.
	d12 := b.Distance(p1, p2, true, AllDims)
	d21 := b.Distance(p2, p1, true, AllDims)
	if d12 != d21 {
		t.Errorf("distance not symmetric: %g != %g", d12, d21)
	}
}

func TestBoxClosestImage(t *testing.T) {
	b := cubicBox(2)
	point := Vec3{1.9, 1, 1}
	target := Vec3{0.1, 1, 1}
	img := b.ClosestImage(point, target, AllDims)
	want := Vec3{-0.1, 1, 1}
	if img.Sub(want).Norm() > 1e-12 {
		t.Errorf("closest image: want %v but have %v", want, img)
	}
}

func TestBoxFlags(t *testing.T) {
	rect := cubicBox(2)
	if rect.IsTriclinic() {
		t.Error("cubic box reported triclinic")
	}
	if !rect.IsPeriodic() {
		t.Error("cubic box reported non-periodic")
	}
	tri := NewPeriodicBox(Mat3{{3, 0.5, 0}, {0, 3, 0}, {0, 0, 4}})
	if !tri.IsTriclinic() {
		t.Error("triclinic box not detected")
	}
	// A zero-width axis degrades to non-periodic without error.
	slab := NewPeriodicBox(Mat3{{2, 0, 0}, {0, 2, 0}, {0, 0, 0}})
	dims := slab.PeriodicDims()
	if dims[2] {
		t.Error("zero-width axis reported periodic")
	}
	if !dims[0] || !dims[1] {
		t.Error("non-zero axes reported non-periodic")
	}
	p := Vec3{0.5, 0.5, 7.5}
	w := slab.Wrap(Vec3{2.5, 2.5, 7.5}, AllDims)
	if w.Sub(p).Norm() > 1e-9 {
		t.Errorf("slab wrap: want %v but have %v", p, w)
	}
}

func TestBoxVolume(t *testing.T) {
	if v := cubicBox(2).Volume(); math.Abs(v-8) > 1e-12 {
		t.Errorf("volume: want 8 but have %g", v)
	}
}

func TestBoxVectorsAngles(t *testing.T) {
	m := BoxFromVectorsAngles(2, 3, 4, 90, 90, 60)
	b := NewPeriodicBox(m)
	v, a := b.VectorsAngles()
	wantV := Vec3{2, 3, 4}
	wantA := Vec3{90, 90, 60}
	for i := 0; i < 3; i++ {
		if math.Abs(v[i]-wantV[i]) > 1e-9 {
			t.Errorf("vectors[%d]: want %g but have %g", i, wantV[i], v[i])
		}
		if math.Abs(a[i]-wantA[i]) > 1e-6 {
			t.Errorf("angles[%d]: want %g but have %g", i, wantA[i], a[i])
		}
	}
}
