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
)

// evalCtx carries the evaluation bindings: the system, the frame, the
// transient current subset (set while narrowing) and the starting subset
// the selection was built over.
type evalCtx struct {
	sys   *System
	frame int
	// subset is the transient candidate set; nil means unrestricted.
	subset []int
	// start is the starting subset; nil when the selection spans the
	// whole system.
	start []int
}

// universe is the candidate set for the current evaluation step.
func (ctx *evalCtx) universe() []int {
	if ctx.subset != nil {
		return ctx.subset
	}
	if ctx.start != nil {
		return ctx.start
	}
	all := make([]int, ctx.sys.NumAtoms())
	for i := range all {
		all[i] = i
	}
	return all
}

// apply evaluates the compiled selection for the given bindings,
// returning a sorted unique ascending index list.
func (e *selExpr) apply(sys *System, frame int, start []int) ([]int, error) {
	ctx := &evalCtx{sys: sys, frame: frame, start: start}
	if e.coordDep && !e.precomputed {
		if err := precompute(e.root, ctx); err != nil {
			e.state = stateFailed
			return nil, err
		}
		e.precomputed = true
		e.state = statePrecomputed
	}
	r, err := evalSet(e.root, ctx)
	if err != nil {
		e.state = stateFailed
		return nil, err
	}
	e.state = stateApplied
	return r, nil
}

// invalidate drops cached precomputation after a topology change.
func (e *selExpr) invalidate() {
	// precompute folds nodes in place, so the tree is rebuilt from text.
	if fresh, err := compileSelection(e.text); err == nil {
		e.root = fresh.root
	}
	e.precomputed = false
}

func nodeName(n *astNode) string {
	switch n.kind {
	case nLogical:
		return "logical expression"
	case nNot:
		return "not"
	case nBy:
		return "by " + n.sval
	case nWithin:
		return "within"
	case nCmpChain:
		return "comparison"
	case nNumBin:
		return "operator " + n.sval
	case nCom:
		return n.sval
	}
	return fmt.Sprintf("node %d", int(n.kind))
}

// evalSet interprets a set-valued node.
func evalSet(n *astNode, ctx *evalCtx) ([]int, error) {
	switch n.kind {
	case nPre:
		return append([]int(nil), n.pre...), nil

	case nAll:
		return append([]int(nil), ctx.universe()...), nil

	case nStrKeyword:
		var out []int
		for _, i := range ctx.universe() {
			a := ctx.sys.Atom(i)
			var val string
			switch n.sval {
			case "name":
				val = a.Name
			case "resname":
				val = a.Resname
			case "tag":
				val = a.Tag
			case "chain":
				val = string(a.Chain)
			case "type":
				val = a.TypeName
			}
			for _, p := range n.patterns {
				if p.match(val) {
					out = append(out, i)
					break
				}
			}
		}
		return out, nil

	case nIntKeyword:
		if n.sval == "index" {
			shift := 0
			if ctx.start != nil && len(ctx.start) > 0 {
				shift = ctx.start[0]
			}
			natoms := ctx.sys.NumAtoms()
			var out []int
			for _, r := range n.ranges {
				for v := r[0]; v <= r[1]; v++ {
					i := v + shift
					if i >= 0 && i < natoms {
						out = append(out, i)
					}
				}
			}
			sort.Ints(out)
			return uniqueInts(out), nil
		}
		var out []int
		for _, i := range ctx.universe() {
			a := ctx.sys.Atom(i)
			v := a.Resid
			if n.sval == "resindex" {
				v = a.Resindex
			}
			for _, r := range n.ranges {
				if v >= r[0] && v <= r[1] {
					out = append(out, i)
					break
				}
			}
		}
		return out, nil

	case nLogical:
		a, b := n.children[0], n.children[1]
		if n.ops[0] == "or" {
			r1, err := evalSet(a, ctx)
			if err != nil {
				return nil, err
			}
			r2, err := evalSet(b, ctx)
			if err != nil {
				return nil, err
			}
			return unionInts(r1, r2), nil
		}
		// "and": evaluate the coordinate-independent operand first so it
		// narrows the subset for the expensive one.
		if a.coordDep && !b.coordDep {
			a, b = b, a
		}
		r1, err := evalSet(a, ctx)
		if err != nil {
			return nil, err
		}
		sub := &evalCtx{sys: ctx.sys, frame: ctx.frame, subset: r1, start: ctx.start}
		r2, err := evalSet(b, sub)
		if err != nil {
			return nil, err
		}
		return intersectInts(r1, r2), nil

	case nNot:
		r, err := evalSet(n.children[0], ctx)
		if err != nil {
			return nil, err
		}
		return diffInts(ctx.universe(), r), nil

	case nBy:
		return evalBy(n, ctx)

	case nWithin:
		return evalWithin(n, ctx)

	case nCmpChain:
		fns := make([]numFn, len(n.children))
		for i, c := range n.children {
			fn, err := numEval(c, ctx)
			if err != nil {
				return nil, err
			}
			fns[i] = fn
		}
		var out []int
		for _, i := range ctx.universe() {
			ok := true
			prev, err := fns[0](i)
			if err != nil {
				return nil, err
			}
			for k, op := range n.ops {
				cur, err := fns[k+1](i)
				if err != nil {
					return nil, err
				}
				if !compareFloat(op, prev, cur) {
					ok = false
					break
				}
				prev = cur
			}
			if ok {
				out = append(out, i)
			}
		}
		return out, nil
	}
	return nil, &EvalError{Node: nodeName(n), Message: "not a set-valued expression"}
}

func evalBy(n *astNode, ctx *evalCtx) ([]int, error) {
	r, err := evalSet(n.children[0], ctx)
	if err != nil {
		return nil, err
	}
	// "by" always selects from the starting subset, not from the
	// transient narrowing subset. Other operators rely on this order.
	scan := ctx.start
	if scan == nil {
		scan = make([]int, ctx.sys.NumAtoms())
		for i := range scan {
			scan[i] = i
		}
	}
	switch n.sval {
	case "residue":
		set := make(map[int]bool)
		for _, i := range r {
			set[ctx.sys.Atom(i).Resindex] = true
		}
		var out []int
		for _, i := range scan {
			if set[ctx.sys.Atom(i).Resindex] {
				out = append(out, i)
			}
		}
		return out, nil
	case "chain":
		set := make(map[byte]bool)
		for _, i := range r {
			set[ctx.sys.Atom(i).Chain] = true
		}
		var out []int
		for _, i := range scan {
			if set[ctx.sys.Atom(i).Chain] {
				out = append(out, i)
			}
		}
		return out, nil
	case "mol":
		top := ctx.sys.Topology()
		if top == nil {
			return nil, ErrTopologyMissing
		}
		molOf := func(i int) int {
			for m, rng := range top.Molecules {
				if i >= rng[0] && i <= rng[1] {
					return m
				}
			}
			return -1
		}
		set := make(map[int]bool)
		for _, i := range r {
			if m := molOf(i); m >= 0 {
				set[m] = true
			}
		}
		var out []int
		for _, i := range scan {
			if m := molOf(i); m >= 0 && set[m] {
				out = append(out, i)
			}
		}
		return out, nil
	}
	return nil, &EvalError{Node: nodeName(n), Message: "unknown grouping " + n.sval}
}

func evalWithin(n *astNode, ctx *evalCtx) ([]int, error) {
	src, err := evalSet(n.children[0], ctx)
	if err != nil {
		return nil, err
	}
	cand := ctx.universe()
	fr, err := ctx.sys.Frame(ctx.frame)
	if err != nil {
		return nil, err
	}
	var box *PeriodicBox
	dims := NoDims
	if n.usePBC {
		box = &fr.Box
		dims = n.pbc
	}
	g := NewNeighborGrid(n.fval, box, dims)
	srcPos := make([]Vec3, len(src))
	for k, i := range src {
		srcPos[k] = fr.Coord[i]
	}
	g.Build(srcPos, src)
	candPos := make([]Vec3, len(cand))
	for k, i := range cand {
		candPos[k] = fr.Coord[i]
	}
	r := g.SearchWithin(candPos, cand, true)
	if !n.self {
		r = diffInts(r, src)
	}
	return r, nil
}

// numFn evaluates a numeric expression for one atom index.
type numFn func(i int) (float64, error)

func numEval(n *astNode, ctx *evalCtx) (numFn, error) {
	switch n.kind {
	case nFloat:
		v := n.fval
		return func(int) (float64, error) { return v, nil }, nil

	case nNumNeg:
		f, err := numEval(n.children[0], ctx)
		if err != nil {
			return nil, err
		}
		return func(i int) (float64, error) {
			v, err := f(i)
			return -v, err
		}, nil

	case nNumBin:
		a, err := numEval(n.children[0], ctx)
		if err != nil {
			return nil, err
		}
		b, err := numEval(n.children[1], ctx)
		if err != nil {
			return nil, err
		}
		op := n.sval
		name := nodeName(n)
		return func(i int) (float64, error) {
			va, err := a(i)
			if err != nil {
				return 0, err
			}
			vb, err := b(i)
			if err != nil {
				return 0, err
			}
			switch op {
			case "+":
				return va + vb, nil
			case "-":
				return va - vb, nil
			case "*":
				return va * vb, nil
			case "/":
				if vb == 0 {
					return 0, &EvalError{Node: name, Message: "division by zero"}
				}
				return va / vb, nil
			case "^":
				return powFloat(va, vb), nil
			}
			return 0, &EvalError{Node: name, Message: "unknown operator"}
		}, nil

	case nProp:
		sys := ctx.sys
		switch n.sval {
		case "beta":
			return func(i int) (float64, error) { return sys.Atom(i).Beta, nil }, nil
		case "occupancy", "occ":
			return func(i int) (float64, error) { return sys.Atom(i).Occupancy, nil }, nil
		case "mass":
			return func(i int) (float64, error) { return sys.Atom(i).Mass, nil }, nil
		case "charge":
			return func(i int) (float64, error) { return sys.Atom(i).Charge, nil }, nil
		case "resid":
			return func(i int) (float64, error) { return float64(sys.Atom(i).Resid), nil }, nil
		case "resindex":
			return func(i int) (float64, error) { return float64(sys.Atom(i).Resindex), nil }, nil
		case "index":
			return func(i int) (float64, error) { return float64(i), nil }, nil
		}

	case nXYZ:
		axis := map[string]int{"x": 0, "y": 1, "z": 2}[n.sval]
		if len(n.children) == 0 {
			fr, err := ctx.sys.Frame(ctx.frame)
			if err != nil {
				return nil, err
			}
			return func(i int) (float64, error) { return fr.Coord[i][axis], nil }, nil
		}
		v, err := resolveVec3(n.children[0], ctx)
		if err != nil {
			return nil, err
		}
		c := v[axis]
		return func(int) (float64, error) { return c, nil }, nil

	case nDistPoint:
		p, err := resolveVec3(n.children[0], ctx)
		if err != nil {
			return nil, err
		}
		fr, err := ctx.sys.Frame(ctx.frame)
		if err != nil {
			return nil, err
		}
		usePBC, dims := n.usePBC, n.pbc
		return func(i int) (float64, error) {
			return fr.Box.Distance(p, fr.Coord[i], usePBC, dims), nil
		}, nil

	case nDistVector:
		a, err := resolveVec3(n.children[0], ctx)
		if err != nil {
			return nil, err
		}
		b, err := resolveVec3(n.children[1], ctx)
		if err != nil {
			return nil, err
		}
		dir := b
		if n.sval == "fromto" {
			dir = b.Sub(a)
		}
		if dir.Norm() == 0 {
			return nil, &EvalError{Node: "dist from vector", Message: "zero direction vector"}
		}
		dir = dir.Normalized()
		fr, err := ctx.sys.Frame(ctx.frame)
		if err != nil {
			return nil, err
		}
		usePBC, dims := n.usePBC, n.pbc
		return func(i int) (float64, error) {
			// Project onto the line, reconstruct the foot point, take
			// the distance to it.
			v := fr.Coord[i].Sub(a)
			foot := a.Add(dir.Scale(v.Dot(dir)))
			return fr.Box.Distance(foot, fr.Coord[i], usePBC, dims), nil
		}, nil

	case nDistPlane:
		p0, err := resolveVec3(n.children[0], ctx)
		if err != nil {
			return nil, err
		}
		var normal Vec3
		if n.sval == "pointnormal" {
			normal, err = resolveVec3(n.children[1], ctx)
			if err != nil {
				return nil, err
			}
		} else {
			p1, err := resolveVec3(n.children[1], ctx)
			if err != nil {
				return nil, err
			}
			p2, err := resolveVec3(n.children[2], ctx)
			if err != nil {
				return nil, err
			}
			normal = p1.Sub(p0).Cross(p2.Sub(p0))
		}
		if normal.Norm() == 0 {
			return nil, &EvalError{Node: "dist from plane", Message: "zero plane normal"}
		}
		normal = normal.Normalized()
		fr, err := ctx.sys.Frame(ctx.frame)
		if err != nil {
			return nil, err
		}
		usePBC, dims := n.usePBC, n.pbc
		return func(i int) (float64, error) {
			d := fr.Coord[i].Sub(p0)
			if usePBC {
				d = fr.Box.shortestVector(d, dims)
			}
			return math.Abs(d.Dot(normal)), nil
		}, nil
	}
	return nil, &EvalError{Node: nodeName(n), Message: "not a numeric expression"}
}

// resolveVec3 resolves a vector source node to a concrete point at the
// current frame.
func resolveVec3(n *astNode, ctx *evalCtx) (Vec3, error) {
	switch n.kind {
	case nVecLit:
		return n.v, nil
	case nVecIndex:
		return ctx.sys.XYZ(n.ival, ctx.frame)
	case nCom:
		idx, err := evalSet(n.children[0], ctx)
		if err != nil {
			return Vec3{}, err
		}
		return centerOf(ctx.sys, ctx.frame, idx, n.sval == "com", n.usePBC, n.pbc)
	}
	return Vec3{}, &EvalError{Node: nodeName(n), Message: "not a vector expression"}
}

// centerOf computes the (optionally mass-weighted, optionally
// PBC-aware) center of the given atoms at a frame. The periodic variant
// anchors on the first atom and averages over closest images.
func centerOf(sys *System, frame int, idx []int, massWeighted, periodic bool, dims Dims) (Vec3, error) {
	if len(idx) == 0 {
		return Vec3{}, &EvalError{Node: "center", Message: "empty selection"}
	}
	fr, err := sys.Frame(frame)
	if err != nil {
		return Vec3{}, err
	}
	anchor := fr.Coord[idx[0]]
	var sum Vec3
	var wsum float64
	for _, i := range idx {
		p := fr.Coord[i]
		if periodic {
			p = fr.Box.ClosestImage(p, anchor, dims)
		}
		w := 1.0
		if massWeighted {
			w = sys.Atom(i).Mass
		}
		sum = sum.Add(p.Scale(w))
		wsum += w
	}
	if wsum == 0 {
		return Vec3{}, &EvalError{Node: "center", Message: "zero total mass"}
	}
	c := sum.Scale(1 / wsum)
	if periodic {
		c = fr.Box.Wrap(c, dims)
	}
	return c, nil
}

func compareFloat(op string, a, b float64) bool {
	switch op {
	case "=", "==":
		return a == b
	case "!=", "<>":
		return a != b
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	case ">=":
		return a >= b
	}
	return false
}

func powFloat(a, b float64) float64 { return math.Pow(a, b) }

// Sorted-set helpers. All operands are sorted unique ascending.

func unionInts(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

func intersectInts(a, b []int) []int {
	var out []int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

func diffInts(a, b []int) []int {
	var out []int
	i, j := 0, 0
	for i < len(a) {
		for j < len(b) && b[j] < a[i] {
			j++
		}
		if j < len(b) && b[j] == a[i] {
			i++
			continue
		}
		out = append(out, a[i])
		i++
	}
	return out
}
