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

// RMSDBetween computes the RMSD of the selection between two frames.
func (s *Selection) RMSDBetween(fr1, fr2 int) (float64, error) {
	nf := s.sys.NumFrames()
	if fr1 < 0 || fr1 >= nf {
		return 0, &IndexError{Got: fr1, Min: 0, Max: nf}
	}
	if fr2 < 0 || fr2 >= nf {
		return 0, &IndexError{Got: fr2, Min: 0, Max: nf}
	}
	if len(s.index) == 0 {
		return 0, &EvalError{Node: "rmsd", Message: "empty selection"}
	}
	f1, _ := s.sys.Frame(fr1)
	f2, _ := s.sys.Frame(fr2)
	var sum float64
	for _, i := range s.index {
		sum += f1.Coord[i].Sub(f2.Coord[i]).Norm2()
	}
	return math.Sqrt(sum / float64(len(s.index))), nil
}

// RMSD computes the RMSD of the selection between the current frame and
// frame fr.
func (s *Selection) RMSD(fr int) (float64, error) {
	return s.RMSDBetween(s.frame, fr)
}

// RMSD computes the RMSD between two equally sized selections at their
// current frames.
func RMSD(sel1, sel2 *Selection) (float64, error) {
	if sel1.Size() != sel2.Size() {
		return 0, &SizeMismatchError{Expected: sel1.Size(), Got: sel2.Size()}
	}
	if sel1.Size() == 0 {
		return 0, &EvalError{Node: "rmsd", Message: "empty selection"}
	}
	f1, err := sel1.sys.Frame(sel1.frame)
	if err != nil {
		return 0, err
	}
	f2, err := sel2.sys.Frame(sel2.frame)
	if err != nil {
		return 0, err
	}
	var sum float64
	for k := range sel1.index {
		sum += f1.Coord[sel1.index[k]].Sub(f2.Coord[sel2.index[k]]).Norm2()
	}
	return math.Sqrt(sum / float64(sel1.Size())), nil
}

// FitTransform computes the rigid-body transform that superimposes sel1
// onto sel2. The rotation comes from the eigendecomposition of the 6×6
// quaternion matrix of the mass-weighted cross-covariance of the two
// centered selections; the third eigenvector pair is synthesized as a
// cross product so a coplanar reference can't produce a mirror flip.
func FitTransform(sel1, sel2 *Selection) (Affine, error) {
	n := sel1.Size()
	if n != sel2.Size() {
		return Affine{}, &SizeMismatchError{Expected: n, Got: sel2.Size()}
	}
	if n == 0 {
		return Affine{}, &EvalError{Node: "fit", Message: "empty selection"}
	}
	cm1, err := sel1.Center(true, false)
	if err != nil {
		return Affine{}, err
	}
	cm2, err := sel2.Center(true, false)
	if err != nil {
		return Affine{}, err
	}
	f1, err := sel1.sys.Frame(sel1.frame)
	if err != nil {
		return Affine{}, err
	}
	f2, err := sel2.sys.Frame(sel2.frame)
	if err != nil {
		return Affine{}, err
	}

	// U = Σ mᵢ·xᵢ·yᵢᵀ over the centered coordinates.
	var u Mat3
	for k := 0; k < n; k++ {
		x := f1.Coord[sel1.index[k]].Sub(cm1)
		y := f2.Coord[sel2.index[k]].Sub(cm2)
		m := sel1.sys.Atom(sel1.index[k]).Mass
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				u[r][c] += x[r] * y[c] * m
			}
		}
	}

	omega := make([]float64, 36)
	for r := 3; r < 6; r++ {
		for c := 0; c < 3; c++ {
			omega[r*6+c] = u[r-3][c]
			omega[c*6+r] = u[r-3][c]
		}
	}
	var es mat.EigenSym
	if ok := es.Factorize(mat.NewSymDense(6, omega), true); !ok {
		return Affine{}, &EvalError{Node: "fit", Message: "eigendecomposition failed"}
	}
	var om mat.Dense
	es.VectorsTo(&om)

	// Eigenvalues come back ascending; take the two largest
	// eigenvectors.
	var vh, vk Mat3
	sqrt2 := math.Sqrt(2)
	for j := 0; j < 2; j++ {
		for i := 0; i < 3; i++ {
			vh[j][i] = sqrt2 * om.At(i, 5-j)
			vk[j][i] = sqrt2 * om.At(i+3, 5-j)
		}
	}
	h0 := Vec3{vh[0][0], vh[0][1], vh[0][2]}
	h1 := Vec3{vh[1][0], vh[1][1], vh[1][2]}
	k0 := Vec3{vk[0][0], vk[0][1], vk[0][2]}
	k1 := Vec3{vk[1][0], vk[1][1], vk[1][2]}
	h2 := h0.Cross(h1)
	k2 := k0.Cross(k1)
	vh[2] = [3]float64(h2)
	vk[2] = [3]float64(k2)

	var rot Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			rot[c][r] = vk[0][r]*vh[0][c] + vk[1][r]*vh[1][c] + vk[2][r]*vh[2][c]
		}
	}

	// T(cm2) · R · T(−cm1)
	return Affine{R: rot, T: cm2.Sub(rot.MulVec(cm1))}, nil
}

// Fit superimposes sel1 onto sel2 in place.
func Fit(sel1, sel2 *Selection) error {
	t, err := FitTransform(sel1, sel2)
	if err != nil {
		return err
	}
	sel1.ApplyTransform(t)
	return nil
}

// FitFrames computes the transform superimposing the selection at fr1
// onto itself at fr2.
func (s *Selection) FitFrames(fr1, fr2 int) (Affine, error) {
	saved := s.frame
	defer func() {
		s.frame = saved
		s.Apply()
	}()
	if err := s.SetFrame(fr1); err != nil {
		return Affine{}, err
	}
	ref := &Selection{sys: s.sys, frame: fr2, index: s.index, text: s.text}
	return FitTransform(s, ref)
}

// FitTrajectory fits every frame in [b, e] onto the reference frame.
// e = -1 means the last frame.
func (s *Selection) FitTrajectory(refFrame, b, e int) error {
	nf := s.sys.NumFrames()
	if e == -1 {
		e = nf - 1
	}
	if b < 0 || b >= nf || b > e || e >= nf {
		return &IndexError{Got: b, Min: 0, Max: nf}
	}
	if refFrame < 0 || refFrame >= nf {
		return &IndexError{Got: refFrame, Min: 0, Max: nf}
	}
	ref := &Selection{sys: s.sys, frame: refFrame, index: s.index, text: s.text}
	saved := s.frame
	defer func() {
		s.frame = saved
		s.Apply()
	}()
	for fr := b; fr <= e; fr++ {
		if err := s.SetFrame(fr); err != nil {
			return err
		}
		t, err := FitTransform(s, ref)
		if err != nil {
			return err
		}
		s.ApplyTransform(t)
	}
	return nil
}
