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

// Package traj pipelines trajectory frames from one or more files
// through a bank of analysis tasks, serially or with one worker
// goroutine per task behind bounded backpressured channels.
package traj

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"

	"github.com/molmodel/moltraj"
)

// OptionsError reports unusable run options.
type OptionsError struct {
	Message string
}

func (e *OptionsError) Error() string { return "traj: " + e.Message }

// TaskError reports a failure escaping a task callback.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string { return fmt.Sprintf("traj: task %s: %v", e.Task, e.Err) }

func (e *TaskError) Unwrap() error { return e.Err }

// Pipeline reads trajectory frames from the input files and feeds them
// to a bank of tasks, either serially or with one worker goroutine per
// task behind bounded channels.
type Pipeline struct {
	opt   *Options
	tasks []Task
	log   *logrus.Logger
	sys   *moltraj.System
	stop  int32
}

// NewPipeline creates a pipeline over the given options.
func NewPipeline(opt *Options) *Pipeline {
	if opt == nil {
		opt = DefaultOptions()
	}
	return &Pipeline{opt: opt, log: logrus.New()}
}

// SetLogger replaces the pipeline logger.
func (p *Pipeline) SetLogger(l *logrus.Logger) { p.log = l }

// AddTask registers a task. Tasks run in registration order in serial
// mode; in parallel mode there is no inter-task ordering.
func (p *Pipeline) AddTask(t Task) { p.tasks = append(p.tasks, t) }

// System returns the system built from the input files. Valid after Run
// started processing.
func (p *Pipeline) System() *moltraj.System { return p.sys }

// Stop signals the reader to stop after the current frame. Workers drain
// their buffered frames and finish normally.
func (p *Pipeline) Stop() { atomic.StoreInt32(&p.stop, 1) }

func (p *Pipeline) stopped() bool { return atomic.LoadInt32(&p.stop) != 0 }

// openWithRetry opens a trajectory file, retrying transient failures
// with exponential backoff.
func openWithRetry(path string) (moltraj.FileFormat, error) {
	var f moltraj.FileFormat
	op := func() error {
		var err error
		f, err = moltraj.OpenFile(path, 'r')
		return err
	}
	if err := backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)); err != nil {
		return nil, err
	}
	return f, nil
}

// admit decides whether the frame with this absolute index and timestamp
// is delivered, and whether reading should stop altogether.
func (p *Pipeline) admit(abs int, t float64) (deliver, done bool) {
	o := p.opt
	if o.FirstTime >= 0 || o.LastTime >= 0 {
		if o.LastTime >= 0 && t > o.LastTime {
			return false, true
		}
		if o.FirstTime >= 0 && t < o.FirstTime {
			return false, false
		}
		return true, false
	}
	if o.LastFrame >= 0 && abs > o.LastFrame {
		return false, true
	}
	if abs < o.FirstFrame {
		return false, false
	}
	stride := o.Stride
	if stride < 1 {
		stride = 1
	}
	return (abs-o.FirstFrame)%stride == 0, false
}

// Run executes the trajectory run: discovery, reading, dispatch and
// shutdown. The returned error is nil on success, an *OptionsError when
// no input file is given, an *moltraj.IOError when reading failed, or a
// *TaskError when a task failed.
func (p *Pipeline) Run() error {
	if len(p.opt.Trajectory) == 0 {
		return &OptionsError{Message: "no trajectory files given"}
	}
	if p.opt.Stride < 1 {
		p.opt.Stride = 1
	}

	p.sys = moltraj.NewSystem()

	// PreProcess runs sequentially on the calling goroutine; task 0 is
	// the only place the documented harness mutates the shared system.
	if err := p.seedSystem(); err != nil {
		return err
	}
	for _, t := range p.tasks {
		if ts, ok := t.(systemSetup); ok {
			ts.Setup(p.sys)
		}
		if err := t.PreProcess(p.sys, p.opt); err != nil {
			return &TaskError{Task: t.Name(), Err: err}
		}
	}

	if p.opt.Parallel {
		return p.runParallel()
	}
	return p.runSerial()
}

// seedSystem fills the atom table from the first input file. A first
// file without an atom table is an error; later files are not searched.
func (p *Pipeline) seedSystem() error {
	path := p.opt.Trajectory[0]
	f, err := openWithRetry(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if !f.Content().Atoms {
		return &moltraj.IOError{Path: path, Err: fmt.Errorf("first input file carries no atom table")}
	}
	if _, err := f.Read(p.sys, nil, moltraj.Content{Atoms: true, Topology: f.Content().Topology}); err != nil {
		return &moltraj.IOError{Path: path, Err: err}
	}
	p.sys.AssignResindex()
	return nil
}

// readFrames drives the reader loop, calling emit for every admitted
// frame. emit returns false to abort the run (a downstream stop).
func (p *Pipeline) readFrames(emit func(*DataContainer) bool) error {
	abs := 0
	valid := 0
	firstTime := 0.0
	for filei, path := range p.opt.Trajectory {
		f, err := openWithRetry(path)
		if err != nil {
			return err
		}

		// The first file seeded the system; its structure frame is the
		// first frame of the run.
		if filei == 0 {
			if _, err := f.Read(nil, &moltraj.Frame{}, moltraj.Content{Atoms: true, Coord: true}); err != nil {
				f.Close()
				return &moltraj.IOError{Path: path, Err: err}
			}
			if fr0, err := p.sys.Frame(0); err == nil {
				ok, done, err := p.dispatchFrame(fr0.Clone(), &abs, &valid, &firstTime, emit)
				if err != nil || done || !ok {
					f.Close()
					return err
				}
			}
		}

		for !p.stopped() {
			fr := &moltraj.Frame{}
			ok, err := f.Read(nil, fr, moltraj.Content{Coord: true, Traj: true})
			if err != nil {
				f.Close()
				return &moltraj.IOError{Path: path, Err: err}
			}
			if !ok {
				break
			}
			ok, done, err := p.dispatchFrame(fr, &abs, &valid, &firstTime, emit)
			if err != nil || done || !ok {
				f.Close()
				return err
			}
		}
		f.Close()
		if p.stopped() {
			break
		}
	}
	return nil
}

// dispatchFrame stamps and emits one frame. The first bool is false when
// the consumer refused the frame; done is true when the window is
// exhausted.
func (p *Pipeline) dispatchFrame(fr *moltraj.Frame, abs, valid *int, firstTime *float64, emit func(*DataContainer) bool) (ok, done bool, err error) {
	deliver, done := p.admit(*abs, fr.Time)
	if done {
		return true, true, nil
	}
	if !deliver {
		*abs++
		return true, false, nil
	}
	if *valid == 0 {
		*firstTime = fr.Time
	}
	d := &DataContainer{
		Frame: fr,
		Info: FrameInfo{
			AbsFrame:    *abs,
			ValidFrame:  *valid,
			AbsTime:     fr.Time,
			ElapsedTime: fr.Time - *firstTime,
		},
	}
	*abs++
	*valid++
	if p.opt.LogInterval > 0 && *valid%p.opt.LogInterval == 0 {
		p.log.WithFields(logrus.Fields{
			"frame": d.Info.AbsFrame,
			"valid": d.Info.ValidFrame,
			"time":  d.Info.AbsTime,
		}).Info("processing frame")
	}
	return emit(d), false, nil
}

// runParallel: the reader runs on the calling goroutine and sends each
// admitted frame (the same shared container, not a copy) into every
// task's own bounded channel; one worker goroutine per task drains its
// channel.
func (p *Pipeline) runParallel() error {
	cap := p.opt.BufferSize
	if cap < 1 {
		cap = 10
	}
	channels := make([]*Channel, len(p.tasks))
	for i := range channels {
		channels[i] = NewChannel(cap)
	}

	taskErrs := make([]error, len(p.tasks))
	var wg sync.WaitGroup
	for i, t := range p.tasks {
		wg.Add(1)
		go func(i int, t Task) {
			defer wg.Done()
			observed := 0
			var last FrameInfo
			failed := false
			for {
				d, ok := channels[i].Recv()
				if !ok {
					break
				}
				observed++
				last = d.Info
				if failed {
					continue // drain so the splitter never stalls
				}
				if err := t.ProcessFrame(d.Info, d.Frame); err != nil {
					taskErrs[i] = &TaskError{Task: t.Name(), Err: err}
					failed = true
				}
			}
			last.ValidFrame = observed
			if err := t.PostProcess(last); err != nil && taskErrs[i] == nil {
				taskErrs[i] = &TaskError{Task: t.Name(), Err: err}
			}
		}(i, t)
	}

	readerErr := p.readFrames(func(d *DataContainer) bool {
		for _, ch := range channels {
			if !ch.Send(d) {
				return false
			}
		}
		return true
	})

	for _, ch := range channels {
		ch.SendStop()
	}
	wg.Wait()

	if readerErr != nil {
		return readerErr
	}
	for _, err := range taskErrs {
		if err != nil {
			return err
		}
	}
	return nil
}

// runSerial: the reader runs on the calling goroutine and invokes every
// task per frame in registration order.
func (p *Pipeline) runSerial() error {
	taskErrs := make([]error, len(p.tasks))
	observed := 0
	var last FrameInfo
	readerErr := p.readFrames(func(d *DataContainer) bool {
		observed++
		last = d.Info
		for i, t := range p.tasks {
			if taskErrs[i] != nil {
				continue
			}
			if err := t.ProcessFrame(d.Info, d.Frame); err != nil {
				taskErrs[i] = &TaskError{Task: t.Name(), Err: err}
			}
		}
		return true
	})

	last.ValidFrame = observed
	for i, t := range p.tasks {
		if err := t.PostProcess(last); err != nil && taskErrs[i] == nil {
			taskErrs[i] = &TaskError{Task: t.Name(), Err: err}
		}
	}

	if readerErr != nil {
		return readerErr
	}
	for _, err := range taskErrs {
		if err != nil {
			return err
		}
	}
	return nil
}
