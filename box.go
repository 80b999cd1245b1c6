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

	"gonum.org/v1/gonum/mat"
)

// Dims selects which of the three box axes an operation treats as
// periodic.
type Dims [3]bool

// AllDims wraps along every axis.
var AllDims = Dims{true, true, true}

// NoDims disables wrapping along every axis.
var NoDims = Dims{false, false, false}

// PeriodicBox is a triclinic periodic cell. The box matrix stores the
// three cell edges as column vectors; the lab→box transform is cached on
// Set. An axis with a zero-length edge is treated as non-periodic.
type PeriodicBox struct {
	m         Mat3 // box→lab: columns are cell edges
	lab       Mat3 // m with zero-length edges replaced by unit vectors
	inv       Mat3 // lab→box
	extents   Vec3
	periodic  Dims
	triclinic bool
	valid     bool
}

// NewPeriodicBox constructs a box from the edge matrix.
func NewPeriodicBox(m Mat3) *PeriodicBox {
	b := new(PeriodicBox)
	b.Set(m)
	return b
}

// Set replaces the cell edges, recomputing extents, periodicity flags and
// the cached inverse. Zero-length axes are replaced by unit vectors for
// the inversion and for the box→lab conversion, so the remaining axes
// still transform correctly and a coordinate along a zero-length axis
// passes through unchanged.
func (b *PeriodicBox) Set(m Mat3) {
	b.m = m
	b.triclinic = false
	for i := 0; i < 3; i++ {
		b.extents[i] = m.Col(i).Norm()
		b.periodic[i] = b.extents[i] > 0
		for j := 0; j < 3; j++ {
			if i != j && m[i][j] != 0 {
				b.triclinic = true
			}
		}
	}
	b.valid = b.periodic[0] || b.periodic[1] || b.periodic[2]

	inv := m
	for i := 0; i < 3; i++ {
		if !b.periodic[i] {
			inv[0][i], inv[1][i], inv[2][i] = 0, 0, 0
			inv[i][i] = 1
		}
	}
	b.lab = inv
	d := mat.NewDense(3, 3, []float64{
		inv[0][0], inv[0][1], inv[0][2],
		inv[1][0], inv[1][1], inv[1][2],
		inv[2][0], inv[2][1], inv[2][2],
	})
	var di mat.Dense
	if err := di.Inverse(d); err != nil {
		// Degenerate edges; fall back to identity so that callers see a
		// non-periodic box instead of NaNs.
		b.inv = Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
		b.lab = b.inv
		b.periodic = NoDims
		b.valid = false
		return
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			b.inv[i][j] = di.At(i, j)
		}
	}
}

// Matrix returns the box→lab edge matrix.
func (b *PeriodicBox) Matrix() Mat3 { return b.m }

// ToBoxMatrix returns the cached lab→box transform.
func (b *PeriodicBox) ToBoxMatrix() Mat3 { return b.inv }

// ToLabMatrix returns the box→lab transform.
func (b *PeriodicBox) ToLabMatrix() Mat3 { return b.m }

// ToBox converts a lab-frame point to fractional box coordinates.
func (b *PeriodicBox) ToBox(p Vec3) Vec3 { return b.inv.MulVec(p) }

// ToLab converts fractional box coordinates to the lab frame.
func (b *PeriodicBox) ToLab(p Vec3) Vec3 { return b.lab.MulVec(p) }

// Extent returns the length of box edge i.
func (b *PeriodicBox) Extent(i int) float64 { return b.extents[i] }

// Extents returns the lengths of the three box edges.
func (b *PeriodicBox) Extents() Vec3 { return b.extents }

// IsTriclinic reports whether any off-diagonal element of the edge matrix
// is non-zero.
func (b *PeriodicBox) IsTriclinic() bool { return b.triclinic }

// IsPeriodic reports whether at least one axis is periodic.
func (b *PeriodicBox) IsPeriodic() bool { return b.valid }

// PeriodicDims reports per-axis periodicity.
func (b *PeriodicBox) PeriodicDims() Dims { return b.periodic }

// Volume returns |det(box)|, which is zero for boxes with any zero-width
// axis.
func (b *PeriodicBox) Volume() float64 {
	m := b.m
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	return math.Abs(det)
}

// Wrap returns the periodic image of point inside the unit cell. Axes
// deselected in dims, and non-periodic axes, are untouched.
func (b *PeriodicBox) Wrap(point Vec3, dims Dims) Vec3 {
	f := b.ToBox(point)
	for i := 0; i < 3; i++ {
		if dims[i] && b.periodic[i] {
			f[i] -= math.Floor(f[i])
		}
	}
	return b.ToLab(f)
}

// ClosestImage returns the periodic image of point closest in space to
// target.
func (b *PeriodicBox) ClosestImage(point, target Vec3, dims Dims) Vec3 {
	d := b.shortestVector(point.Sub(target), dims)
	return target.Add(d)
}

// Distance returns the distance between two points. When wrap is true the
// minimum-image convention is applied along the selected periodic axes.
func (b *PeriodicBox) Distance(p1, p2 Vec3, wrap bool, dims Dims) float64 {
	if !wrap || !b.valid {
		return p2.Sub(p1).Norm()
	}
	return b.shortestVector(p2.Sub(p1), dims).Norm()
}

// shortestVector maps a displacement onto its minimum image.
func (b *PeriodicBox) shortestVector(d Vec3, dims Dims) Vec3 {
	f := b.ToBox(d)
	for i := 0; i < 3; i++ {
		if dims[i] && b.periodic[i] {
			f[i] -= math.Round(f[i])
		}
	}
	return b.ToLab(f)
}

// VectorsAngles returns the box in the a,b,c [nm], α,β,γ [degrees]
// crystallographic representation.
func (b *PeriodicBox) VectorsAngles() (vectors, angles Vec3) {
	a := b.m.Col(0)
	bb := b.m.Col(1)
	c := b.m.Col(2)
	vectors = Vec3{a.Norm(), bb.Norm(), c.Norm()}
	angles = Vec3{angleDeg(bb, c), angleDeg(a, c), angleDeg(a, bb)}
	return vectors, angles
}

func angleDeg(u, v Vec3) float64 {
	nu, nv := u.Norm(), v.Norm()
	if nu == 0 || nv == 0 {
		return 90
	}
	x := u.Dot(v) / (nu * nv)
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	return math.Acos(x) * 180 / math.Pi
}

// BoxFromVectorsAngles builds the triclinic edge matrix from cell lengths
// [nm] and angles [degrees], with edge a along x and edge b in the x-y
// plane.
func BoxFromVectorsAngles(a, b, c, alpha, beta, gamma float64) Mat3 {
	ar := alpha * math.Pi / 180
	br := beta * math.Pi / 180
	gr := gamma * math.Pi / 180
	var m Mat3
	m[0][0] = a
	m[0][1] = b * math.Cos(gr)
	m[1][1] = b * math.Sin(gr)
	m[0][2] = c * math.Cos(br)
	if m[1][1] != 0 {
		m[1][2] = c * (math.Cos(ar) - math.Cos(br)*math.Cos(gr)) / math.Sin(gr)
	}
	s := c*c - m[0][2]*m[0][2] - m[1][2]*m[1][2]
	if s > 0 {
		m[2][2] = math.Sqrt(s)
	}
	return m
}
