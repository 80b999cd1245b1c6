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
	"sort"
	"strings"
)

// Bilayer decomposes a lipid bilayer selection into its two monolayers
// by splitting the head-marker atoms into connectivity groups.
type Bilayer struct {
	sel      *Selection
	surf     [2]*Selection // head markers of each monolayer
	Mono1    *Selection    // all lipid atoms of monolayer 1
	Mono2    *Selection    // all lipid atoms of monolayer 2
	spotSize int
}

// BilayerPointInfo describes the local bilayer geometry around a point.
type BilayerPointInfo struct {
	Center    Vec3
	Normal    Vec3
	Thickness float64
	// Distances from the query point.
	CenterDist float64
	SurfDist1  float64
	SurfDist2  float64
	// Projections onto the two monolayer surfaces.
	Proj1, Proj2 Vec3
	// Monolayer is 1 or 2, whichever surface lies closer.
	Monolayer int
}

// NewBilayer splits sel into monolayers. headMarker is a selection
// expression picking one marker atom per lipid (e.g. "name P"); d is the
// connectivity cutoff separating the two leaflets.
func NewBilayer(sel *Selection, headMarker string, d float64) (*Bilayer, error) {
	b := &Bilayer{sel: sel, spotSize: 10}
	markers, err := NewSelection(sel.System(), "("+sel.Text()+") and "+headMarker)
	if err != nil {
		return nil, err
	}
	defer markers.Release()
	markers.frame = sel.frame
	groups, err := markers.SplitByConnectivity(d)
	if err != nil {
		return nil, err
	}
	if len(groups) != 2 {
		return nil, &EvalError{Node: "bilayer", Message: fmt.Sprintf("selection splits into %d leaflets, not 2", len(groups))}
	}
	b.surf[0], b.surf[1] = groups[0], groups[1]

	for m := 0; m < 2; m++ {
		ind := b.surf[m].UniqueResindexes()
		var sb strings.Builder
		sb.WriteString("resindex")
		for _, r := range ind {
			fmt.Fprintf(&sb, " %d", r)
		}
		mono, err := NewSelection(sel.System(), sb.String())
		if err != nil {
			return nil, err
		}
		mono.frame = sel.frame
		if m == 0 {
			b.Mono1 = mono
		} else {
			b.Mono2 = mono
		}
	}
	return b, nil
}

// PointInfo computes the local bilayer properties around point using the
// spotSize closest head markers of each monolayer.
func (b *Bilayer) PointInfo(point Vec3) (*BilayerPointInfo, error) {
	sys := b.sel.System()
	fr := b.sel.Frame()

	spot := func(surf *Selection) (Vec3, error) {
		n := surf.Size()
		dist := make([]float64, n)
		order := make([]int, n)
		for i := 0; i < n; i++ {
			order[i] = i
			d, err := sys.DistancePoints(point, surf.XYZ(i), fr, true)
			if err != nil {
				return Vec3{}, err
			}
			dist[i] = d
		}
		sort.Slice(order, func(a, c int) bool { return dist[order[a]] < dist[order[c]] })
		k := b.spotSize
		if k > n {
			k = n
		}
		var sum Vec3
		for i := 0; i < k; i++ {
			sum = sum.Add(surf.XYZ(order[i]))
		}
		proj := sum.Scale(1 / float64(k))
		// Bring the projection close to the query point across the
		// periodic boundary.
		return sys.ClosestImage(proj, point, fr)
	}

	proj1, err := spot(b.surf[0])
	if err != nil {
		return nil, err
	}
	proj2, err := spot(b.surf[1])
	if err != nil {
		return nil, err
	}

	info := &BilayerPointInfo{
		Proj1:      proj1,
		Proj2:      proj2,
		Center:     proj1.Add(proj2).Scale(0.5),
		Normal:     proj2.Sub(proj1).Normalized(),
		Thickness:  proj2.Sub(proj1).Norm(),
		SurfDist1:  proj1.Sub(point).Norm(),
		SurfDist2:  proj2.Sub(point).Norm(),
	}
	info.CenterDist = info.Center.Sub(point).Norm()
	info.Monolayer = 1
	if info.SurfDist2 < info.SurfDist1 {
		info.Monolayer = 2
	}
	return info, nil
}
