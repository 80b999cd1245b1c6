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
	"sort"
)

// ChangeKind tags a system change notification.
type ChangeKind int

const (
	// TopologyChanged: atoms were added, removed or renumbered.
	// Selections must re-parse.
	TopologyChanged ChangeKind = iota
	// SystemCleared: everything is gone.
	SystemCleared
	// FramesDeleted: the frame range [First, Last] no longer exists.
	FramesDeleted
	// CoordsChanged: coordinates of frames [First, Last] were modified.
	CoordsChanged
	// FrameChangeRequested: all selections should switch to frame First.
	FrameChangeRequested
)

// ChangeEvent is broadcast to subscribed selections when the system
// changes. First and Last delimit the affected frame range where that is
// meaningful.
type ChangeEvent struct {
	Kind        ChangeKind
	First, Last int
}

// listener receives system change events. Selections implement it.
type listener interface {
	systemChanged(ev ChangeEvent)
}

// Topology is the force-field molecule table: inclusive first/last atom
// index per molecule, in ascending atom order.
type Topology struct {
	Molecules [][2]int
}

// System owns the atom table and an ordered sequence of trajectory
// frames. It broadcasts tagged change events to subscribed selections.
// The system is read-mostly once a trajectory run starts; concurrent
// mutation is not made safe here.
type System struct {
	atoms     []Atom
	traj      []Frame
	top       *Topology
	listeners []listener
}

// NewSystem returns an empty system.
func NewSystem() *System { return &System{} }

// NewSystemFromFile creates a system and loads the whole file into it.
func NewSystemFromFile(path string) (*System, error) {
	s := NewSystem()
	if err := s.Load(path, 0, -1, 0); err != nil {
		return nil, err
	}
	return s, nil
}

// NumAtoms returns the number of atoms in the system.
func (s *System) NumAtoms() int { return len(s.atoms) }

// NumFrames returns the number of trajectory frames.
func (s *System) NumFrames() int { return len(s.traj) }

// Atom gives read/write access to atom ind.
func (s *System) Atom(ind int) *Atom { return &s.atoms[ind] }

// Frame gives read/write access to frame fr.
func (s *System) Frame(fr int) (*Frame, error) {
	if fr < 0 || fr >= len(s.traj) {
		return nil, &IndexError{Got: fr, Min: 0, Max: len(s.traj)}
	}
	return &s.traj[fr], nil
}

// Box gives access to the periodic box of frame fr.
func (s *System) Box(fr int) (*PeriodicBox, error) {
	f, err := s.Frame(fr)
	if err != nil {
		return nil, err
	}
	return &f.Box, nil
}

// Time returns the timestamp of frame fr.
func (s *System) Time(fr int) (float64, error) {
	f, err := s.Frame(fr)
	if err != nil {
		return 0, err
	}
	return f.Time, nil
}

// XYZ returns the coordinate of atom ind at frame fr.
func (s *System) XYZ(ind, fr int) (Vec3, error) {
	f, err := s.Frame(fr)
	if err != nil {
		return Vec3{}, err
	}
	if ind < 0 || ind >= len(s.atoms) {
		return Vec3{}, &IndexError{Got: ind, Min: 0, Max: len(s.atoms)}
	}
	return f.Coord[ind], nil
}

// SetTopology attaches a force-field molecule table.
func (s *System) SetTopology(t *Topology) { s.top = t }

// Topology returns the molecule table, or nil when none is present.
func (s *System) Topology() *Topology { return s.top }

// subscribe registers a selection for change notifications.
func (s *System) subscribe(l listener) {
	s.listeners = append(s.listeners, l)
}

// unsubscribe removes a previously registered selection.
func (s *System) unsubscribe(l listener) {
	for i, x := range s.listeners {
		if x == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// notify broadcasts ev to all subscribed selections. The broadcast runs on
// the mutator's goroutine; callers guarantee external quiescence.
func (s *System) notify(ev ChangeEvent) {
	// Copy: a listener may unsubscribe itself while handling the event.
	ls := make([]listener, len(s.listeners))
	copy(ls, s.listeners)
	for _, l := range ls {
		l.systemChanged(ev)
	}
}

// Clear drops all atoms, frames and topology and tells the selections.
func (s *System) Clear() {
	s.atoms = nil
	s.traj = nil
	s.top = nil
	s.notify(ChangeEvent{Kind: SystemCleared})
}

// Load reads a structure or trajectory file into the system. The atom
// table is filled if the system is empty and the format provides atoms.
// Frames are appended; the range [first, last] and the skip stride
// restrict which frames of the file are admitted (last = -1 means to the
// end, skip = 0 or 1 means every frame).
func (s *System) Load(path string, first, last, skip int) error {
	f, err := OpenFile(path, 'r')
	if err != nil {
		return err
	}
	defer f.Close()

	ct := f.Content()
	n := 0
	if ct.Atoms && s.NumAtoms() == 0 {
		if _, err := f.Read(s, nil, Content{Atoms: true, Topology: ct.Topology}); err != nil {
			return &IOError{Path: path, Err: err}
		}
		s.AssignResindex()
		if ct.Coord {
			// The structure read consumed the first frame; it is dropped
			// when it lies before the requested range.
			n = 1
			if first > 0 && len(s.traj) > 0 {
				s.traj = s.traj[:len(s.traj)-1]
			}
		}
	}
	if !ct.Coord && !ct.Traj {
		s.notify(ChangeEvent{Kind: TopologyChanged})
		return nil
	}

	if skip < 1 {
		skip = 1
	}
	for {
		fr := Frame{}
		ok, err := f.Read(nil, &fr, Content{Coord: true, Traj: ct.Traj})
		if err != nil {
			return &IOError{Path: path, Err: err}
		}
		if !ok {
			break
		}
		if n >= first && (last < 0 || n <= last) && (n-first)%skip == 0 {
			if err := s.FrameAppend(fr); err != nil {
				return err
			}
		}
		n++
		if last >= 0 && n > last {
			break
		}
		if !ct.Traj {
			break
		}
	}
	s.notify(ChangeEvent{Kind: TopologyChanged})
	return nil
}

// FrameAppend adds a new frame to the trajectory. The coordinate count
// must match the atom table.
func (s *System) FrameAppend(fr Frame) error {
	if len(fr.Coord) != len(s.atoms) {
		return &SizeMismatchError{Expected: len(s.atoms), Got: len(fr.Coord)}
	}
	s.traj = append(s.traj, fr)
	return nil
}

// FrameDup duplicates frame fr and appends the copy to the end.
func (s *System) FrameDup(fr int) error {
	f, err := s.Frame(fr)
	if err != nil {
		return err
	}
	s.traj = append(s.traj, *f.Clone())
	return nil
}

// FrameCopy copies the coordinates, box and time of fr1 into fr2.
func (s *System) FrameCopy(fr1, fr2 int) error {
	f1, err := s.Frame(fr1)
	if err != nil {
		return err
	}
	f2, err := s.Frame(fr2)
	if err != nil {
		return err
	}
	copy(f2.Coord, f1.Coord)
	f2.Box = f1.Box
	f2.Time = f1.Time
	s.notify(ChangeEvent{Kind: CoordsChanged, First: fr2, Last: fr2})
	return nil
}

// FrameDelete removes the frame range [b, e]. e = -1 deletes to the end.
// Selections pointing into the deleted range are reset to frame 0.
func (s *System) FrameDelete(b, e int) error {
	if e == -1 {
		e = len(s.traj) - 1
	}
	if b < 0 || b >= len(s.traj) || e < b || e >= len(s.traj) {
		return &IndexError{Got: b, Min: 0, Max: len(s.traj)}
	}
	s.traj = append(s.traj[:b], s.traj[e+1:]...)
	s.notify(ChangeEvent{Kind: FramesDeleted, First: b, Last: e})
	return nil
}

// SetFrame asks every subscribed selection to switch to frame fr.
func (s *System) SetFrame(fr int) error {
	if fr < 0 || fr >= len(s.traj) {
		return &IndexError{Got: fr, Min: 0, Max: len(s.traj)}
	}
	s.notify(ChangeEvent{Kind: FrameChangeRequested, First: fr, Last: fr})
	return nil
}

// AssignResindex assigns dense contiguous residue indices: a new residue
// starts whenever resid or chain changes between consecutive atoms.
func (s *System) AssignResindex() {
	cur := -1
	lastResid := 0
	var lastChain byte
	for i := range s.atoms {
		if cur < 0 || s.atoms[i].Resid != lastResid || s.atoms[i].Chain != lastChain {
			cur++
			lastResid = s.atoms[i].Resid
			lastChain = s.atoms[i].Chain
		}
		s.atoms[i].Resindex = cur
	}
}

// AtomsAdd appends new atoms with the given coordinates. The coordinates
// are replicated into every existing frame; a first frame is created for
// a frameless system.
func (s *System) AtomsAdd(atoms []Atom, coords []Vec3) error {
	if len(atoms) != len(coords) {
		return &SizeMismatchError{Expected: len(atoms), Got: len(coords)}
	}
	s.atoms = append(s.atoms, atoms...)
	if len(s.traj) == 0 {
		s.traj = append(s.traj, Frame{})
	}
	for i := range s.traj {
		s.traj[i].Coord = append(s.traj[i].Coord, coords...)
	}
	s.AssignResindex()
	s.notify(ChangeEvent{Kind: TopologyChanged})
	return nil
}

// AtomsDup appends duplicates of the atoms in ind (in ascending order) to
// the end of the atom table, copying their coordinates in every frame.
// The indices of the added atoms are returned.
func (s *System) AtomsDup(ind []int) ([]int, error) {
	sorted := append([]int(nil), ind...)
	sort.Ints(sorted)
	for _, i := range sorted {
		if i < 0 || i >= len(s.atoms) {
			return nil, &IndexError{Got: i, Min: 0, Max: len(s.atoms)}
		}
	}
	base := len(s.atoms)
	added := make([]int, 0, len(sorted))
	for k, i := range sorted {
		s.atoms = append(s.atoms, s.atoms[i])
		added = append(added, base+k)
	}
	for f := range s.traj {
		for _, i := range sorted {
			s.traj[f].Coord = append(s.traj[f].Coord, s.traj[f].Coord[i])
		}
	}
	s.AssignResindex()
	s.notify(ChangeEvent{Kind: TopologyChanged})
	return added, nil
}

// AtomsDelete removes the atoms in ind from the atom table and from all
// frames.
func (s *System) AtomsDelete(ind []int) error {
	if len(ind) == 0 {
		return nil
	}
	kill := make(map[int]bool, len(ind))
	for _, i := range ind {
		if i < 0 || i >= len(s.atoms) {
			return &IndexError{Got: i, Min: 0, Max: len(s.atoms)}
		}
		kill[i] = true
	}
	keepAtoms := s.atoms[:0]
	for i := range s.atoms {
		if !kill[i] {
			keepAtoms = append(keepAtoms, s.atoms[i])
		}
	}
	s.atoms = keepAtoms
	for f := range s.traj {
		kept := s.traj[f].Coord[:0]
		for i := range s.traj[f].Coord {
			if !kill[i] {
				kept = append(kept, s.traj[f].Coord[i])
			}
		}
		s.traj[f].Coord = kept
	}
	s.AssignResindex()
	s.notify(ChangeEvent{Kind: TopologyChanged})
	return nil
}

// Append adds all atoms and coordinates of another system to this one.
// Frame counts must match, or this system must be frameless.
func (s *System) Append(other *System) error {
	if len(s.traj) != 0 && len(other.traj) != len(s.traj) {
		return &SizeMismatchError{Expected: len(s.traj), Got: len(other.traj)}
	}
	s.atoms = append(s.atoms, other.atoms...)
	if len(s.traj) == 0 {
		s.traj = make([]Frame, len(other.traj))
		for i := range other.traj {
			s.traj[i].Box = other.traj[i].Box
			s.traj[i].Time = other.traj[i].Time
		}
	}
	for i := range s.traj {
		s.traj[i].Coord = append(s.traj[i].Coord, other.traj[i].Coord...)
	}
	s.AssignResindex()
	s.notify(ChangeEvent{Kind: TopologyChanged})
	return nil
}

// Clone returns a copy of the system with the same atom table and
// topology but no frames and no subscribed selections. Tasks use clones
// as private working systems during parallel trajectory runs.
func (s *System) Clone() *System {
	c := &System{
		atoms: make([]Atom, len(s.atoms)),
		top:   s.top,
	}
	copy(c.atoms, s.atoms)
	return c
}

// Distance returns the distance between atoms i and j at frame fr,
// applying the minimum-image convention when periodic is true.
func (s *System) Distance(i, j, fr int, periodic bool) (float64, error) {
	f, err := s.Frame(fr)
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= len(s.atoms) {
		return 0, &IndexError{Got: i, Min: 0, Max: len(s.atoms)}
	}
	if j < 0 || j >= len(s.atoms) {
		return 0, &IndexError{Got: j, Min: 0, Max: len(s.atoms)}
	}
	return f.Box.Distance(f.Coord[i], f.Coord[j], periodic, AllDims), nil
}

// DistancePoints returns the distance between two arbitrary points at
// frame fr, respecting PBC when periodic is true.
func (s *System) DistancePoints(p1, p2 Vec3, fr int, periodic bool) (float64, error) {
	f, err := s.Frame(fr)
	if err != nil {
		return 0, err
	}
	return f.Box.Distance(p1, p2, periodic, AllDims), nil
}

// WrapToBox wraps point into the periodic box of frame fr.
func (s *System) WrapToBox(fr int, point Vec3) (Vec3, error) {
	f, err := s.Frame(fr)
	if err != nil {
		return Vec3{}, err
	}
	return f.Box.Wrap(point, AllDims), nil
}

// ClosestImage returns the periodic image of point closest to target at
// frame fr.
func (s *System) ClosestImage(point, target Vec3, fr int) (Vec3, error) {
	f, err := s.Frame(fr)
	if err != nil {
		return Vec3{}, err
	}
	return f.Box.ClosestImage(point, target, AllDims), nil
}
