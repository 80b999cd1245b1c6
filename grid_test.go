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

func TestGridWithinNonPeriodic(t *testing.T) {
	pos := []Vec3{
		{0, 0, 0},
		{0.1, 0, 0},
		{0.5, 0, 0},
		{2, 2, 2},
	}
	idx := []int{0, 1, 2, 3}
	g := NewNeighborGrid(0.15, nil, NoDims)
	g.Build(pos[:1], idx[:1]) // source: atom 0 only
	have := g.SearchWithin(pos, idx, true)
	want := []int{0, 1}
	if !reflect.DeepEqual(want, have) {
		t.Errorf("within: want %v but have %v", want, have)
	}
	have = g.SearchWithin(pos, idx, false)
	want = []int{1}
	if !reflect.DeepEqual(want, have) {
		t.Errorf("within noself: want %v but have %v", want, have)
	}
}

func TestGridWithinPeriodic(t *testing.T) {
	box := cubicBox(2)
	pos := []Vec3{{0.1, 1, 1}, {1.9, 1, 1}}
	idx := []int{0, 1}
	g := NewNeighborGrid(0.3, box, AllDims)
	g.Build(pos[:1], idx[:1])
	have := g.SearchWithin(pos, idx, true)
	want := []int{0, 1}
	if !reflect.DeepEqual(want, have) {
		t.Errorf("periodic within: want %v but have %v", want, have)
	}
	// Without periodic wrapping the images are 1.8 apart.
	g2 := NewNeighborGrid(0.3, nil, NoDims)
	g2.Build(pos[:1], idx[:1])
	have = g2.SearchWithin(pos[1:], idx[1:], true)
	if len(have) != 0 {
		t.Errorf("non-periodic within: want empty but have %v", have)
	}
}

func TestGridPairs(t *testing.T) {
	pos := []Vec3{
		{0, 0, 0},
		{0.1, 0, 0},
		{0.2, 0, 0},
		{5, 5, 5},
	}
	idx := []int{0, 1, 2, 3}
	g := NewNeighborGrid(0.12, nil, NoDims)
	g.Build(pos, idx)
	have := g.SearchPairs()
	want := [][2]int{{0, 1}, {1, 2}}
	if !reflect.DeepEqual(want, have) {
		t.Errorf("pairs: want %v but have %v", want, have)
	}
}

func TestGridPairsPeriodic(t *testing.T) {
	box := cubicBox(2)
	pos := []Vec3{{0.05, 1, 1}, {1.95, 1, 1}}
	idx := []int{0, 1}
	g := NewNeighborGrid(0.2, box, AllDims)
	g.Build(pos, idx)
	have := g.SearchPairs()
	want := [][2]int{{0, 1}}
	if !reflect.DeepEqual(want, have) {
		t.Errorf("periodic pairs: want %v but have %v", want, have)
	}
}

func TestGridLargeCutoffFallback(t *testing.T) {
	// Cutoff longer than half the box edge collapses to one cell per
	// axis but stays correct.
	box := cubicBox(1)
	pos := []Vec3{{0.1, 0.5, 0.5}, {0.9, 0.5, 0.5}, {0.5, 0.5, 0.5}}
	idx := []int{0, 1, 2}
	g := NewNeighborGrid(0.6, box, AllDims)
	g.Build(pos, idx)
	have := g.SearchPairs()
	want := [][2]int{{0, 1}, {0, 2}, {1, 2}}
	if !reflect.DeepEqual(want, have) {
		t.Errorf("fallback pairs: want %v but have %v", want, have)
	}
}

func TestConnectivityGroups(t *testing.T) {
	pos := []Vec3{
		{0, 0, 0}, {0.1, 0, 0}, // group a
		{1, 0, 0}, {1.1, 0, 0}, {1.2, 0, 0}, // group b
		{3, 3, 3}, // singleton
	}
	idx := []int{0, 1, 2, 3, 4, 5}
	g := NewNeighborGrid(0.15, nil, NoDims)
	g.Build(pos, idx)
	have := g.ConnectivityGroups(idx)
	want := [][]int{{0, 1}, {2, 3, 4}, {5}}
	if !reflect.DeepEqual(want, have) {
		t.Errorf("groups: want %v but have %v", want, have)
	}
}
