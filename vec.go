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

import "math"

// Vec3 is a point or displacement in 3D lab space [nm].
type Vec3 [3]float64

func (v Vec3) Add(w Vec3) Vec3 { return Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]} }

func (v Vec3) Sub(w Vec3) Vec3 { return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]} }

func (v Vec3) Scale(a float64) Vec3 { return Vec3{v[0] * a, v[1] * a, v[2] * a} }

func (v Vec3) Dot(w Vec3) float64 { return v[0]*w[0] + v[1]*w[1] + v[2]*w[2] }

func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v[1]*w[2] - v[2]*w[1],
		v[2]*w[0] - v[0]*w[2],
		v[0]*w[1] - v[1]*w[0],
	}
}

func (v Vec3) Norm() float64 { return math.Sqrt(v.Dot(v)) }

func (v Vec3) Norm2() float64 { return v.Dot(v) }

// Normalized returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vec3) Normalized() Vec3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

// Mat3 is a 3×3 matrix indexed [row][column].
type Mat3 [3][3]float64

// MulVec computes m·v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// Mul computes m·n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				r[i][j] += m[i][k] * n[k][j]
			}
		}
	}
	return r
}

// Col returns column j as a vector.
func (m Mat3) Col(j int) Vec3 { return Vec3{m[0][j], m[1][j], m[2][j]} }

// rotationAbout builds the rotation matrix for a rotation of angle radians
// about the (not necessarily normalized) axis using Rodrigues' formula.
func rotationAbout(axis Vec3, angle float64) Mat3 {
	u := axis.Normalized()
	c := math.Cos(angle)
	s := math.Sin(angle)
	t := 1 - c
	return Mat3{
		{c + u[0]*u[0]*t, u[0]*u[1]*t - u[2]*s, u[0]*u[2]*t + u[1]*s},
		{u[1]*u[0]*t + u[2]*s, c + u[1]*u[1]*t, u[1]*u[2]*t - u[0]*s},
		{u[2]*u[0]*t - u[1]*s, u[2]*u[1]*t + u[0]*s, c + u[2]*u[2]*t},
	}
}

// Affine is a rigid-body transform p → R·p + T.
type Affine struct {
	R Mat3
	T Vec3
}

// IdentityAffine returns the identity transform.
func IdentityAffine() Affine {
	return Affine{R: Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
}

// Apply transforms the point p.
func (a Affine) Apply(p Vec3) Vec3 { return a.R.MulVec(p).Add(a.T) }
