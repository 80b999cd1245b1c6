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
	"fmt"
	"math"
	"sort"
	"strings"
)

// Selection is a sorted unique list of atom indices bound to a system
// and a frame. A coordinate-dependent selection keeps its compiled
// expression so it can re-apply cheaply when the frame changes;
// otherwise the index list is the only cache.
//
// Selections subscribe to system change notifications on construction;
// call Release when a selection is no longer needed.
type Selection struct {
	sys   *System
	frame int
	index []int
	text  string
	expr  *selExpr
	start []int // starting subset for sub-selections
}

// NewSelection creates a selection from selection-language text.
func NewSelection(sys *System, text string) (*Selection, error) {
	s := &Selection{sys: sys}
	if err := s.modifyText(text); err != nil {
		return nil, err
	}
	sys.subscribe(s)
	return s, nil
}

// NewSelectionRange creates a selection covering the inclusive index
// range [ind1, ind2] without going through the parser.
func NewSelectionRange(sys *System, ind1, ind2 int) (*Selection, error) {
	if ind1 < 0 || ind2 >= sys.NumAtoms() || ind1 > ind2 {
		return nil, &IndexError{Got: ind2, Min: 0, Max: sys.NumAtoms()}
	}
	s := &Selection{sys: sys, text: fmt.Sprintf("index %d-%d", ind1, ind2)}
	for i := ind1; i <= ind2; i++ {
		s.index = append(s.index, i)
	}
	sys.subscribe(s)
	return s, nil
}

// NewSelectionIndices creates a selection from an explicit index list.
func NewSelectionIndices(sys *System, ind []int) (*Selection, error) {
	sorted := append([]int(nil), ind...)
	sort.Ints(sorted)
	sorted = uniqueInts(sorted)
	var b strings.Builder
	b.WriteString("index")
	for _, i := range sorted {
		if i < 0 || i >= sys.NumAtoms() {
			return nil, &IndexError{Got: i, Min: 0, Max: sys.NumAtoms()}
		}
		fmt.Fprintf(&b, " %d", i)
	}
	s := &Selection{sys: sys, index: sorted, text: b.String()}
	sys.subscribe(s)
	return s, nil
}

func (s *Selection) modifyText(text string) error {
	expr, err := compileSelection(text)
	if err != nil {
		return err
	}
	idx, err := expr.apply(s.sys, s.frame, s.start)
	if err != nil {
		return err
	}
	s.text = strings.TrimSpace(text)
	s.index = idx
	// The parser is a heavy object; retain it only when the selection
	// must track coordinates.
	if expr.coordDep {
		s.expr = expr
	} else {
		s.expr = nil
	}
	return nil
}

// SubSelect evaluates text within this selection: the receiver's indices
// become the starting subset of the child selection.
func (s *Selection) SubSelect(text string) (*Selection, error) {
	c := &Selection{
		sys:   s.sys,
		frame: s.frame,
		start: append([]int(nil), s.index...),
	}
	if err := c.modifyText(text); err != nil {
		return nil, err
	}
	s.sys.subscribe(c)
	return c, nil
}

// Release unsubscribes the selection from system notifications.
func (s *Selection) Release() { s.sys.unsubscribe(s) }

// systemChanged reacts to a system change event.
func (s *Selection) systemChanged(ev ChangeEvent) {
	switch ev.Kind {
	case TopologyChanged:
		if s.expr != nil {
			s.expr.invalidate()
		}
		s.update()
	case SystemCleared:
		s.index = nil
		s.frame = 0
	case FramesDeleted:
		if s.frame >= ev.First && s.frame <= ev.Last {
			s.frame = 0
		}
	case CoordsChanged:
		if s.frame >= ev.First && s.frame <= ev.Last {
			s.Apply()
		}
	case FrameChangeRequested:
		s.frame = ev.First
		s.Apply()
	}
}

// update re-parses the selection text.
func (s *Selection) update() {
	if s.text == "" {
		return
	}
	// Errors during notification handling leave the old index list in
	// place; the next explicit Update reports them.
	_ = s.modifyText(s.text)
}

// Update re-parses the selection text against the current system state.
func (s *Selection) Update() error { return s.modifyText(s.text) }

// Apply re-evaluates a coordinate-dependent selection at the current
// frame. Coordinate-independent selections are left untouched.
func (s *Selection) Apply() error {
	if s.expr == nil {
		return nil
	}
	idx, err := s.expr.apply(s.sys, s.frame, s.start)
	if err != nil {
		return err
	}
	s.index = idx
	return nil
}

// Size returns the number of selected atoms.
func (s *Selection) Size() int { return len(s.index) }

// Text returns the selection text.
func (s *Selection) Text() string { return s.text }

// System returns the bound system.
func (s *Selection) System() *System { return s.sys }

// Frame returns the selection's current frame.
func (s *Selection) Frame() int { return s.frame }

// SetFrame switches the selection to frame fr, re-applying a
// coordinate-dependent expression.
func (s *Selection) SetFrame(fr int) error {
	if fr < 0 || fr >= s.sys.NumFrames() {
		return &IndexError{Got: fr, Min: 0, Max: s.sys.NumFrames()}
	}
	s.frame = fr
	return s.Apply()
}

// Indices returns a copy of the selected index list.
func (s *Selection) Indices() []int { return append([]int(nil), s.index...) }

// Index returns the system index of selected atom i.
func (s *Selection) Index(i int) int { return s.index[i] }

// Atom gives access to the attributes of selected atom i.
func (s *Selection) Atom(i int) *Atom { return s.sys.Atom(s.index[i]) }

// Append merges another selection of the same system into this one. The
// compiled expression is dropped; the text becomes the disjunction.
func (s *Selection) Append(other *Selection) error {
	if other.sys != s.sys {
		return &EvalError{Node: "append", Message: "can't append atoms from another system"}
	}
	s.index = unionInts(s.index, other.index)
	s.text = "(" + s.text + ") or (" + other.text + ")"
	s.expr = nil
	return nil
}

// AppendIndex adds a single atom to the selection.
func (s *Selection) AppendIndex(i int) error {
	if i < 0 || i >= s.sys.NumAtoms() {
		return &IndexError{Got: i, Min: 0, Max: s.sys.NumAtoms()}
	}
	s.index = unionInts(s.index, []int{i})
	if s.text != "" {
		s.text = fmt.Sprintf("(%s) or index %d", s.text, i)
	} else {
		s.text = fmt.Sprintf("index %d", i)
	}
	s.expr = nil
	return nil
}

//
// Attribute get/set vectors.
//

// Names returns the atom names of the selection, in order.
func (s *Selection) Names() []string {
	out := make([]string, len(s.index))
	for k, i := range s.index {
		out[k] = s.sys.Atom(i).Name
	}
	return out
}

// SetNames assigns per-atom names; data must match the selection length.
func (s *Selection) SetNames(data []string) error {
	if len(data) != len(s.index) {
		return &SizeMismatchError{Expected: len(s.index), Got: len(data)}
	}
	for k, i := range s.index {
		s.sys.Atom(i).Name = data[k]
	}
	return nil
}

// SetName assigns the same name to every selected atom.
func (s *Selection) SetName(name string) {
	for _, i := range s.index {
		s.sys.Atom(i).Name = name
	}
}

// Resnames returns the residue names of the selection.
func (s *Selection) Resnames() []string {
	out := make([]string, len(s.index))
	for k, i := range s.index {
		out[k] = s.sys.Atom(i).Resname
	}
	return out
}

// SetResnames assigns per-atom residue names.
func (s *Selection) SetResnames(data []string) error {
	if len(data) != len(s.index) {
		return &SizeMismatchError{Expected: len(s.index), Got: len(data)}
	}
	for k, i := range s.index {
		s.sys.Atom(i).Resname = data[k]
	}
	return nil
}

// Resids returns the residue ids of the selection.
func (s *Selection) Resids() []int {
	out := make([]int, len(s.index))
	for k, i := range s.index {
		out[k] = s.sys.Atom(i).Resid
	}
	return out
}

// SetResids assigns per-atom residue ids.
func (s *Selection) SetResids(data []int) error {
	if len(data) != len(s.index) {
		return &SizeMismatchError{Expected: len(s.index), Got: len(data)}
	}
	for k, i := range s.index {
		s.sys.Atom(i).Resid = data[k]
	}
	return nil
}

// Resindexes returns the dense residue indices of the selection.
func (s *Selection) Resindexes() []int {
	out := make([]int, len(s.index))
	for k, i := range s.index {
		out[k] = s.sys.Atom(i).Resindex
	}
	return out
}

// Chains returns the chain tags of the selection.
func (s *Selection) Chains() []byte {
	out := make([]byte, len(s.index))
	for k, i := range s.index {
		out[k] = s.sys.Atom(i).Chain
	}
	return out
}

// SetChains assigns per-atom chain tags.
func (s *Selection) SetChains(data []byte) error {
	if len(data) != len(s.index) {
		return &SizeMismatchError{Expected: len(s.index), Got: len(data)}
	}
	for k, i := range s.index {
		s.sys.Atom(i).Chain = data[k]
	}
	return nil
}

// SetChain assigns the same chain tag to every selected atom.
func (s *Selection) SetChain(c byte) {
	for _, i := range s.index {
		s.sys.Atom(i).Chain = c
	}
}

// Masses returns the atom masses of the selection.
func (s *Selection) Masses() []float64 {
	out := make([]float64, len(s.index))
	for k, i := range s.index {
		out[k] = s.sys.Atom(i).Mass
	}
	return out
}

// SetMasses assigns per-atom masses.
func (s *Selection) SetMasses(data []float64) error {
	if len(data) != len(s.index) {
		return &SizeMismatchError{Expected: len(s.index), Got: len(data)}
	}
	for k, i := range s.index {
		s.sys.Atom(i).Mass = data[k]
	}
	return nil
}

// Betas returns the B-factors of the selection.
func (s *Selection) Betas() []float64 {
	out := make([]float64, len(s.index))
	for k, i := range s.index {
		out[k] = s.sys.Atom(i).Beta
	}
	return out
}

// SetBetas assigns per-atom B-factors.
func (s *Selection) SetBetas(data []float64) error {
	if len(data) != len(s.index) {
		return &SizeMismatchError{Expected: len(s.index), Got: len(data)}
	}
	for k, i := range s.index {
		s.sys.Atom(i).Beta = data[k]
	}
	return nil
}

// SetBeta assigns the same B-factor to every selected atom.
func (s *Selection) SetBeta(b float64) {
	for _, i := range s.index {
		s.sys.Atom(i).Beta = b
	}
}

// Occupancies returns the occupancies of the selection.
func (s *Selection) Occupancies() []float64 {
	out := make([]float64, len(s.index))
	for k, i := range s.index {
		out[k] = s.sys.Atom(i).Occupancy
	}
	return out
}

// UniqueResids returns the distinct residue ids, keeping first-seen
// order of consecutive runs.
func (s *Selection) UniqueResids() []int {
	var out []int
	for k, i := range s.index {
		v := s.sys.Atom(i).Resid
		if k == 0 || out[len(out)-1] != v {
			out = append(out, v)
		}
	}
	return out
}

// UniqueResindexes returns the distinct dense residue indices.
func (s *Selection) UniqueResindexes() []int {
	var out []int
	for k, i := range s.index {
		v := s.sys.Atom(i).Resindex
		if k == 0 || out[len(out)-1] != v {
			out = append(out, v)
		}
	}
	return out
}

// UniqueChains returns the chain tags in selection order with consecutive
// repeats collapsed; a tag that recurs after a different tag is listed
// again.
func (s *Selection) UniqueChains() []byte {
	var out []byte
	for k, i := range s.index {
		v := s.sys.Atom(i).Chain
		if k == 0 || out[len(out)-1] != v {
			out = append(out, v)
		}
	}
	return out
}

//
// Coordinate access.
//

// XYZ returns the coordinate of selected atom i at the current frame.
func (s *Selection) XYZ(i int) Vec3 {
	f, _ := s.sys.Frame(s.frame)
	return f.Coord[s.index[i]]
}

// XYZAt returns the coordinate of selected atom i at frame fr.
func (s *Selection) XYZAt(i, fr int) (Vec3, error) {
	return s.sys.XYZ(s.index[i], fr)
}

// SetXYZ overwrites the coordinate of selected atom i at the current
// frame.
func (s *Selection) SetXYZ(i int, v Vec3) {
	f, _ := s.sys.Frame(s.frame)
	f.Coord[s.index[i]] = v
}

// Coords returns the coordinates of the selection at the current frame.
func (s *Selection) Coords() []Vec3 {
	f, _ := s.sys.Frame(s.frame)
	out := make([]Vec3, len(s.index))
	for k, i := range s.index {
		out[k] = f.Coord[i]
	}
	return out
}

// SetCoords overwrites the selection coordinates at the current frame.
func (s *Selection) SetCoords(data []Vec3) error {
	if len(data) != len(s.index) {
		return &SizeMismatchError{Expected: len(s.index), Got: len(data)}
	}
	f, err := s.sys.Frame(s.frame)
	if err != nil {
		return err
	}
	for k, i := range s.index {
		f.Coord[i] = data[k]
	}
	return nil
}

// Average returns the per-atom average structure over the frame range
// [b, e]; e = -1 means the last frame.
func (s *Selection) Average(b, e int) ([]Vec3, error) {
	if e == -1 {
		e = s.sys.NumFrames() - 1
	}
	if b < 0 || e < b || e >= s.sys.NumFrames() {
		return nil, &IndexError{Got: b, Min: 0, Max: s.sys.NumFrames()}
	}
	out := make([]Vec3, len(s.index))
	for fr := b; fr <= e; fr++ {
		f, _ := s.sys.Frame(fr)
		for k, i := range s.index {
			out[k] = out[k].Add(f.Coord[i])
		}
	}
	inv := 1 / float64(e-b+1)
	for k := range out {
		out[k] = out[k].Scale(inv)
	}
	return out, nil
}

// Traj extracts the trajectory of selected atom ind over frames [b, e].
func (s *Selection) Traj(ind, b, e int) ([]Vec3, error) {
	if ind < 0 || ind >= len(s.index) {
		return nil, &IndexError{Got: ind, Min: 0, Max: len(s.index)}
	}
	if e == -1 {
		e = s.sys.NumFrames() - 1
	}
	if b < 0 || e < b || e >= s.sys.NumFrames() {
		return nil, &IndexError{Got: b, Min: 0, Max: s.sys.NumFrames()}
	}
	out := make([]Vec3, 0, e-b+1)
	for fr := b; fr <= e; fr++ {
		f, _ := s.sys.Frame(fr)
		out = append(out, f.Coord[s.index[ind]])
	}
	return out, nil
}

//
// Structural transforms.
//

// Center returns the (optionally mass-weighted) center of the selection,
// honoring PBC when periodic is true.
func (s *Selection) Center(massWeighted, periodic bool) (Vec3, error) {
	return centerOf(s.sys, s.frame, s.index, massWeighted, periodic, AllDims)
}

// MinMax returns the per-axis bounding box of the selection.
func (s *Selection) MinMax() (min, max Vec3) {
	min = Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	max = Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	f, _ := s.sys.Frame(s.frame)
	for _, i := range s.index {
		for j := 0; j < 3; j++ {
			if f.Coord[i][j] < min[j] {
				min[j] = f.Coord[i][j]
			}
			if f.Coord[i][j] > max[j] {
				max[j] = f.Coord[i][j]
			}
		}
	}
	return min, max
}

// Translate shifts the selection by v at the current frame.
func (s *Selection) Translate(v Vec3) {
	f, _ := s.sys.Frame(s.frame)
	for _, i := range s.index {
		f.Coord[i] = f.Coord[i].Add(v)
	}
}

// RotateMatrix rotates the selection by m about the origin.
func (s *Selection) RotateMatrix(m Mat3) {
	f, _ := s.sys.Frame(s.frame)
	for _, i := range s.index {
		f.Coord[i] = m.MulVec(f.Coord[i])
	}
}

// RotateAxis rotates about a principal axis (0=x, 1=y, 2=z) through the
// selection's geometric center.
func (s *Selection) RotateAxis(axis int, angle float64) error {
	c, err := s.Center(false, false)
	if err != nil {
		return err
	}
	return s.RotateAxisPivot(axis, angle, c)
}

// RotateAxisPivot rotates about a principal axis through pivot.
func (s *Selection) RotateAxisPivot(axis int, angle float64, pivot Vec3) error {
	if axis < 0 || axis > 2 {
		return &EvalError{Node: "rotate", Message: "invalid rotation axis"}
	}
	var dir Vec3
	dir[axis] = 1
	s.RotateVector(dir, angle, pivot)
	return nil
}

// RotateVector rotates about an arbitrary direction through pivot.
func (s *Selection) RotateVector(dir Vec3, angle float64, pivot Vec3) {
	m := rotationAbout(dir, angle)
	s.Translate(pivot.Scale(-1))
	s.RotateMatrix(m)
	s.Translate(pivot)
}

// ApplyTransform applies a rigid-body transform to the selection at the
// current frame.
func (s *Selection) ApplyTransform(t Affine) {
	f, _ := s.sys.Frame(s.frame)
	for _, i := range s.index {
		f.Coord[i] = t.Apply(f.Coord[i])
	}
}

//
// Splitters.
//

// SplitByConnectivity decomposes the selection into groups of atoms
// connected by the "within d" relation at the current frame. Periodicity
// follows the frame's box.
func (s *Selection) SplitByConnectivity(d float64) ([]*Selection, error) {
	f, err := s.sys.Frame(s.frame)
	if err != nil {
		return nil, err
	}
	var box *PeriodicBox
	dims := NoDims
	if f.Box.IsPeriodic() {
		box = &f.Box
		dims = f.Box.PeriodicDims()
	}
	g := NewNeighborGrid(d, box, dims)
	pos := make([]Vec3, len(s.index))
	for k, i := range s.index {
		pos[k] = f.Coord[i]
	}
	g.Build(pos, s.index)
	var out []*Selection
	for _, grp := range g.ConnectivityGroups(s.index) {
		sel, err := NewSelectionIndices(s.sys, grp)
		if err != nil {
			return nil, err
		}
		sel.frame = s.frame
		out = append(out, sel)
	}
	return out, nil
}

// EachResidue returns one selection per residue represented in the
// receiver, classified by the dense residue index.
func (s *Selection) EachResidue() ([]*Selection, error) {
	seen := make(map[int][]int)
	var order []int
	for _, i := range s.index {
		r := s.sys.Atom(i).Resindex
		if _, ok := seen[r]; !ok {
			order = append(order, r)
		}
		seen[r] = append(seen[r], i)
	}
	sort.Ints(order)
	out := make([]*Selection, 0, len(order))
	for _, r := range order {
		// Select the full residue, not just the atoms present here.
		sel, err := NewSelection(s.sys, fmt.Sprintf("resindex %d", r))
		if err != nil {
			return nil, err
		}
		sel.frame = s.frame
		out = append(out, sel)
	}
	return out, nil
}

//
// Bulk modification.
//

// AtomsDup duplicates the selected atoms at the end of the system.
// The returned selection covers the duplicates.
func (s *Selection) AtomsDup() (*Selection, error) {
	added, err := s.sys.AtomsDup(s.index)
	if err != nil {
		return nil, err
	}
	return NewSelectionIndices(s.sys, added)
}

// AtomsDelete removes the selected atoms from the system.
func (s *Selection) AtomsDelete() error {
	return s.sys.AtomsDelete(s.index)
}

// Distribute replicates the selection ncopies times along each axis,
// shifting copy k of axis j by k·shift[j] along that axis.
func (s *Selection) Distribute(ncopies [3]int, shift Vec3) error {
	current := append([]int(nil), s.index...)
	for axis := 0; axis < 3; axis++ {
		base := current
		for k := 1; k < ncopies[axis]; k++ {
			added, err := s.sys.AtomsDup(base)
			if err != nil {
				return err
			}
			dup, err := NewSelectionIndices(s.sys, added)
			if err != nil {
				return err
			}
			dup.frame = s.frame
			var v Vec3
			v[axis] = shift[axis] * float64(k)
			dup.Translate(v)
			current = append(current, added...)
			dup.Release()
		}
	}
	return nil
}

// Write stores the frame range [b, e] of the selection to a file chosen
// by extension. b = e = -1 writes the current frame only.
func (s *Selection) Write(path string, b, e int) error {
	nf := s.sys.NumFrames()
	if b < -1 || b >= nf || e < -1 || e >= nf {
		return &IndexError{Got: b, Min: 0, Max: nf}
	}
	if b == -1 {
		b = s.frame
	}
	if e == -1 {
		e = s.frame
	}
	if e < b {
		return &IndexError{Got: e, Min: b, Max: nf}
	}
	f, err := OpenFile(path, 'w')
	if err != nil {
		return err
	}
	defer f.Close()
	ct := f.Content()
	if !ct.Traj && e != b {
		b, e = s.frame, s.frame
	}
	saved := s.frame
	defer func() { s.frame = saved }()
	for fr := b; fr <= e; fr++ {
		s.frame = fr
		if err := f.Write(s, ct); err != nil {
			return &IOError{Path: path, Err: err}
		}
	}
	return nil
}
