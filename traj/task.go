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

package traj

import "github.com/molmodel/moltraj"

// FrameInfo stamps a delivered frame with its position in the run.
type FrameInfo struct {
	// AbsFrame is the frame's index in the input files, counting frames
	// that were skipped by the window and stride.
	AbsFrame int
	// ValidFrame counts admitted frames: the 0-based index of this
	// frame within the run during ProcessFrame, and the total admitted
	// count in PostProcess.
	ValidFrame int
	// AbsTime is the frame timestamp [ps].
	AbsTime float64
	// ElapsedTime is AbsTime minus the first admitted timestamp.
	ElapsedTime float64
}

// DataContainer is the unit of exchange between the reader and the
// workers: a frame plus its stamps. Frames are shared read-only.
type DataContainer struct {
	Frame *moltraj.Frame
	Info  FrameInfo
}

// Task is the user-facing processing callback surface. PreProcess runs
// once before the first frame, ProcessFrame once per admitted frame in
// file order, PostProcess exactly once at the end with ValidFrame set to
// the number of admitted frames — even when the run was cut short by an
// error.
type Task interface {
	Name() string
	PreProcess(sys *moltraj.System, opt *Options) error
	ProcessFrame(info FrameInfo, fr *moltraj.Frame) error
	PostProcess(info FrameInfo) error
}

// TaskBase gives a task a private working system so its selections can
// follow the trajectory without touching the shared read-mostly system:
// the task's ProcessFrame calls Consume to install the delivered frame
// as frame 0 of the private system.
type TaskBase struct {
	// Sys is the task-private system: the shared atom table and
	// topology, with frame 0 tracking the current frame.
	Sys *moltraj.System
}

// Setup clones the shared system. Called by the pipeline before
// PreProcess.
func (t *TaskBase) Setup(shared *moltraj.System) {
	t.Sys = shared.Clone()
}

// Consume installs the delivered frame as frame 0 of the private system.
func (t *TaskBase) Consume(fr *moltraj.Frame) error {
	if t.Sys.NumFrames() == 0 {
		return t.Sys.FrameAppend(*fr.Clone())
	}
	f0, err := t.Sys.Frame(0)
	if err != nil {
		return err
	}
	copy(f0.Coord, fr.Coord)
	f0.Box = fr.Box
	f0.Time = fr.Time
	return t.Sys.SetFrame(0)
}

// systemSetup is implemented by tasks embedding TaskBase; the pipeline
// calls it before PreProcess.
type systemSetup interface {
	Setup(shared *moltraj.System)
}
