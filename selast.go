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

import "regexp"

// nodeKind tags an AST node. The tree is a tagged variant with a
// homogeneous child list, not a class hierarchy.
type nodeKind int

const (
	nLogical    nodeKind = iota // ops joins children; flat until optimized
	nNot                        // set complement of the child
	nBy                         // sval residue|chain|mol
	nAll                        //
	nStrKeyword                 // sval keyword; patterns to match
	nIntKeyword                 // sval keyword; inclusive ranges
	nWithin                     // fval cutoff; child is the source operand
	nCmpChain                   // 2 or 3 numeric children, 1 or 2 ops
	nNumBin                     // sval + - * / ^
	nNumNeg                     //
	nFloat                      // fval literal
	nXYZ                        // sval x|y|z; optional vector child
	nProp                       // sval beta|occupancy|mass|charge|resid|resindex|index
	nDistPoint                  // child: vector
	nDistVector                 // sval pointdir|fromto; children: 2 vectors
	nDistPlane                  // sval pointnormal|threepoints; 2 or 3 vector children
	nVecLit                     // v literal
	nVecIndex                   // ival: atom index
	nCom                        // sval com|cog; child operand
	nPre                        // precomputed index list
)

// selPattern is one string-keyword match pattern: a literal, or an
// anchored regular expression when the source was quoted.
type selPattern struct {
	text string
	re   *regexp.Regexp
}

func (p selPattern) match(s string) bool {
	if p.re != nil {
		return p.re.MatchString(s)
	}
	return p.text == s
}

type astNode struct {
	kind     nodeKind
	sval     string
	fval     float64
	ival     int
	v        Vec3
	ops      []string
	patterns []selPattern
	ranges   [][2]int
	children []*astNode

	// pbc applies to within/dist/com nodes.
	usePBC bool
	pbc    Dims
	self   bool

	coordDep bool
	pre      []int
	col      int
}

// Parser state machine: any failure transitions to stateFailed, Applied
// is repeatable.
const (
	stateCreated = iota
	stateParsed
	stateAnnotated
	stateOptimized
	statePrecomputed
	stateApplied
	stateFailed
)

// selExpr is a compiled selection: the optimized AST plus derived flags.
// It is retained by a Selection only when coordinate-dependent;
// otherwise the evaluated index list is the only cache needed.
type selExpr struct {
	text     string
	root     *astNode
	coordDep bool
	state    int

	// precomputation happens on first apply, when a system is known.
	precomputed bool
}

// annotate computes coord_dependent as the monotone OR over the leaves.
func annotate(n *astNode) bool {
	dep := false
	switch n.kind {
	case nXYZ, nWithin, nDistPoint, nDistVector, nDistPlane, nCom, nVecIndex:
		dep = true
	}
	for _, c := range n.children {
		if annotate(c) {
			dep = true
		}
	}
	n.coordDep = dep
	return dep
}

// optimize folds pure-arithmetic literal subtrees into float literals and
// rewrites chained logical expressions of more than one operator into
// nested binary form: A op1 B op2 C … becomes A op1 (B op2 (C …)).
// Binary expressions are deliberately left in raw form.
func optimize(n *astNode) *astNode {
	for i, c := range n.children {
		n.children[i] = optimize(c)
	}
	switch n.kind {
	case nNumNeg:
		if n.children[0].kind == nFloat {
			return &astNode{kind: nFloat, fval: -n.children[0].fval, col: n.col}
		}
	case nNumBin:
		a, b := n.children[0], n.children[1]
		if a.kind == nFloat && b.kind == nFloat {
			if v, ok := foldArith(n.sval, a.fval, b.fval); ok {
				return &astNode{kind: nFloat, fval: v, col: n.col}
			}
		}
	case nLogical:
		if len(n.ops) > 1 {
			rest := &astNode{
				kind:     nLogical,
				ops:      n.ops[1:],
				children: n.children[1:],
				col:      n.children[1].col,
			}
			return &astNode{
				kind:     nLogical,
				ops:      n.ops[:1],
				children: []*astNode{n.children[0], optimize(rest)},
				col:      n.col,
			}
		}
	}
	return n
}

func foldArith(op string, a, b float64) (float64, bool) {
	switch op {
	case "+":
		return a + b, true
	case "-":
		return a - b, true
	case "*":
		return a * b, true
	case "/":
		if b == 0 {
			return 0, false // leave for the interpreter to report
		}
		return a / b, true
	case "^":
		return powFloat(a, b), true
	}
	return 0, false
}

// precomputable lists the node tags whose coord-independent instances are
// evaluated once and replaced by their result when the overall tree is
// coordinate-dependent.
func precomputable(k nodeKind) bool {
	switch k {
	case nCmpChain, nStrKeyword, nIntKeyword, nLogical, nNot, nAll, nWithin, nBy:
		return true
	}
	return false
}

// precompute replaces every qualifying coord-independent subtree with a
// terminal node holding its sorted unique result. The AST is mutable
// only here and during optimize; interpretation treats it as read-only.
func precompute(n *astNode, ctx *evalCtx) error {
	if !n.coordDep && precomputable(n.kind) {
		r, err := evalSet(n, ctx)
		if err != nil {
			return err
		}
		n.kind = nPre
		n.pre = r
		n.children = nil
		n.patterns = nil
		n.ranges = nil
		return nil
	}
	for _, c := range n.children {
		if err := precompute(c, ctx); err != nil {
			return err
		}
	}
	return nil
}
