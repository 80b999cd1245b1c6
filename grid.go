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
	"sort"
)

// gridEntry is one bucketed atom: its index and the (possibly wrapped)
// coordinate. Wrapped coordinates are materialized here so the system's
// real coordinates stay untouched.
type gridEntry struct {
	idx int
	pos Vec3
}

// NeighborGrid sorts atoms into the cells of a uniform 3D grid for
// neighbor searching within a cutoff. The grid works in fractional box
// coordinates when a periodic box is attached, so triclinic cells are
// handled the same way as rectangular ones.
type NeighborGrid struct {
	cutoff float64
	box    *PeriodicBox
	wrap   Dims // axes that wrap periodically

	n     [3]int  // cells per axis
	umin  Vec3    // lower bound per axis (fractional or lab)
	uspan Vec3    // extent per axis in u-space
	cells [][]gridEntry
}

// NewNeighborGrid prepares a grid for the given cutoff. box may be nil
// for a fully non-periodic search; periodic selects the axes to wrap
// (ignored for axes the box itself isn't periodic along).
func NewNeighborGrid(cutoff float64, box *PeriodicBox, periodic Dims) *NeighborGrid {
	g := &NeighborGrid{cutoff: cutoff, box: box}
	if box != nil && box.IsPeriodic() {
		bp := box.PeriodicDims()
		for i := 0; i < 3; i++ {
			g.wrap[i] = periodic[i] && bp[i]
		}
	}
	return g
}

// toU maps a lab point into grid coordinate space.
func (g *NeighborGrid) toU(p Vec3) Vec3 {
	if g.box != nil && g.box.IsPeriodic() {
		u := g.box.ToBox(p)
		for i := 0; i < 3; i++ {
			if g.wrap[i] {
				u[i] -= math.Floor(u[i])
			}
		}
		return u
	}
	return p
}

// axisLen returns the physical length corresponding to one unit of
// u-space along axis i.
func (g *NeighborGrid) axisLen(i int) float64 {
	if g.box != nil && g.box.IsPeriodic() && g.box.Extent(i) > 0 {
		return g.box.Extent(i)
	}
	return 1
}

// Build sorts the given atoms into grid cells. For non-wrapping axes the
// grid bounds are taken from the atoms themselves, grown by the cutoff so
// that any point within the cutoff of a bucketed atom still maps to a
// valid cell.
func (g *NeighborGrid) Build(pos []Vec3, idx []int) {
	for i := 0; i < 3; i++ {
		if g.wrap[i] {
			g.umin[i] = 0
			g.uspan[i] = 1
			nc := int(math.Floor(g.axisLen(i) / g.cutoff))
			if nc < 1 {
				// Cutoff longer than half the edge: a single cell is
				// still correct, just slow.
				nc = 1
			}
			g.n[i] = nc
			continue
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, p := range pos {
			u := g.toU(p)[i]
			if u < lo {
				lo = u
			}
			if u > hi {
				hi = u
			}
		}
		if len(pos) == 0 {
			lo, hi = 0, 0
		}
		margin := g.cutoff / g.axisLen(i)
		lo -= margin
		hi += margin
		span := hi - lo
		if span <= 0 {
			span = 1
		}
		g.umin[i] = lo
		g.uspan[i] = span
		nc := int(math.Floor(span * g.axisLen(i) / g.cutoff))
		if nc < 1 {
			nc = 1
		}
		if nc > 128 {
			nc = 128
		}
		g.n[i] = nc
	}

	g.cells = make([][]gridEntry, g.n[0]*g.n[1]*g.n[2])
	for k, p := range pos {
		c, ok := g.cellOf(p)
		if !ok {
			continue
		}
		g.cells[c] = append(g.cells[c], gridEntry{idx: idx[k], pos: p})
	}
}

func (g *NeighborGrid) cellIndex(cx, cy, cz int) int {
	return (cx*g.n[1]+cy)*g.n[2] + cz
}

// cellOf maps a lab point to its cell, reporting false for points outside
// the grid along a non-wrapping axis.
func (g *NeighborGrid) cellOf(p Vec3) (int, bool) {
	u := g.toU(p)
	var c [3]int
	for i := 0; i < 3; i++ {
		f := (u[i] - g.umin[i]) / g.uspan[i]
		ci := int(math.Floor(f * float64(g.n[i])))
		if ci == g.n[i] && f <= 1 {
			ci = g.n[i] - 1
		}
		if ci < 0 || ci >= g.n[i] {
			if g.wrap[i] {
				ci = ((ci % g.n[i]) + g.n[i]) % g.n[i]
			} else {
				return 0, false
			}
		}
		c[i] = ci
	}
	return g.cellIndex(c[0], c[1], c[2]), true
}

// neighborAxis lists the distinct cell coordinates within ±1 of c along
// axis i, wrapping when the axis is periodic.
func (g *NeighborGrid) neighborAxis(i, c int) []int {
	out := make([]int, 0, 3)
	for d := -1; d <= 1; d++ {
		x := c + d
		if g.wrap[i] {
			x = ((x % g.n[i]) + g.n[i]) % g.n[i]
		} else if x < 0 || x >= g.n[i] {
			continue
		}
		dup := false
		for _, y := range out {
			if y == x {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, x)
		}
	}
	return out
}

func (g *NeighborGrid) dist(p1, p2 Vec3) float64 {
	if g.box != nil && (g.wrap[0] || g.wrap[1] || g.wrap[2]) {
		return g.box.Distance(p1, p2, true, g.wrap)
	}
	return p2.Sub(p1).Norm()
}

// SearchWithin returns the sorted unique indices of the candidate atoms
// lying within the cutoff of at least one bucketed atom. With
// includeSelf false a candidate is not matched against a bucketed atom
// carrying the same index.
func (g *NeighborGrid) SearchWithin(pos []Vec3, idx []int, includeSelf bool) []int {
	var found []int
	for k, p := range pos {
		u := g.toU(p)
		var c [3]int
		outside := false
		for i := 0; i < 3; i++ {
			f := (u[i] - g.umin[i]) / g.uspan[i]
			ci := int(math.Floor(f * float64(g.n[i])))
			if ci == g.n[i] && f <= 1 {
				ci = g.n[i] - 1
			}
			if g.wrap[i] {
				ci = ((ci % g.n[i]) + g.n[i]) % g.n[i]
			} else if ci < 0 || ci >= g.n[i] {
				outside = true
				break
			}
			c[i] = ci
		}
		if outside {
			continue
		}
	search:
		for _, cx := range g.neighborAxis(0, c[0]) {
			for _, cy := range g.neighborAxis(1, c[1]) {
				for _, cz := range g.neighborAxis(2, c[2]) {
					for _, e := range g.cells[g.cellIndex(cx, cy, cz)] {
						if !includeSelf && e.idx == idx[k] {
							continue
						}
						if g.dist(p, e.pos) <= g.cutoff {
							found = append(found, idx[k])
							break search
						}
					}
				}
			}
		}
	}
	sort.Ints(found)
	return uniqueInts(found)
}

// SearchPairs returns all distinct unordered index pairs of bucketed
// atoms within the cutoff.
func (g *NeighborGrid) SearchPairs() [][2]int {
	seen := make(map[[2]int]bool)
	var pairs [][2]int
	for cx := 0; cx < g.n[0]; cx++ {
		for cy := 0; cy < g.n[1]; cy++ {
			for cz := 0; cz < g.n[2]; cz++ {
				home := g.cells[g.cellIndex(cx, cy, cz)]
				for _, nx := range g.neighborAxis(0, cx) {
					for _, ny := range g.neighborAxis(1, cy) {
						for _, nz := range g.neighborAxis(2, cz) {
							other := g.cells[g.cellIndex(nx, ny, nz)]
							for _, a := range home {
								for _, b := range other {
									if a.idx >= b.idx {
										continue
									}
									key := [2]int{a.idx, b.idx}
									if seen[key] {
										continue
									}
									if g.dist(a.pos, b.pos) <= g.cutoff {
										seen[key] = true
										pairs = append(pairs, key)
									}
								}
							}
						}
					}
				}
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	return pairs
}

// ConnectivityGroups partitions the bucketed atoms into connected
// components under the "within cutoff" relation using a disjoint-set
// with path compression and union by rank. Groups come back as disjoint
// sorted index lists, ordered by their smallest member.
func (g *NeighborGrid) ConnectivityGroups(idx []int) [][]int {
	parent := make(map[int]int, len(idx))
	rank := make(map[int]int, len(idx))
	for _, i := range idx {
		parent[i] = i
	}
	find := func(u int) int {
		for parent[u] != u {
			parent[u] = parent[parent[u]]
			u = parent[u]
		}
		return u
	}
	union := func(u, v int) {
		ru, rv := find(u), find(v)
		if ru == rv {
			return
		}
		if rank[ru] < rank[rv] {
			ru, rv = rv, ru
		}
		parent[rv] = ru
		if rank[ru] == rank[rv] {
			rank[ru]++
		}
	}
	for _, p := range g.SearchPairs() {
		union(p[0], p[1])
	}
	groups := make(map[int][]int)
	for _, i := range idx {
		r := find(i)
		groups[r] = append(groups[r], i)
	}
	out := make([][]int, 0, len(groups))
	for _, grp := range groups {
		sort.Ints(grp)
		out = append(out, grp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func uniqueInts(a []int) []int {
	if len(a) == 0 {
		return a
	}
	out := a[:1]
	for _, x := range a[1:] {
		if x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}
