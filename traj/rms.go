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

import (
	"bufio"
	"fmt"
	"os"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/sirupsen/logrus"

	"github.com/molmodel/moltraj"
)

// RMSTask computes the RMSD of a selection against the first admitted
// frame, optionally superimposing a fit selection first. Named options:
//
//	rms_selection  selection text to measure (default "all")
//	fit_selection  selection text to fit on (default: rms_selection)
//	rms_fit        whether to fit before measuring (default true)
//	rms_out        output file for the per-frame series (optional)
type RMSTask struct {
	TaskBase

	Log *logrus.Logger

	sel    *moltraj.Selection
	fitSel *moltraj.Selection
	doFit  bool
	out    string

	series []float64
	times  []float64
	stats  stats.Stats
}

// Name implements Task.
func (t *RMSTask) Name() string { return "rms" }

// PreProcess compiles the selections against the task-private system.
func (t *RMSTask) PreProcess(sys *moltraj.System, opt *Options) error {
	text := opt.GetString("rms_selection", "all")
	fitText := opt.GetString("fit_selection", text)
	t.doFit = opt.GetBool("rms_fit", true)
	t.out = opt.GetString("rms_out", "")

	var err error
	if t.sel, err = moltraj.NewSelection(t.Sys, text); err != nil {
		return err
	}
	if t.fitSel, err = moltraj.NewSelection(t.Sys, fitText); err != nil {
		return err
	}
	return nil
}

// ProcessFrame installs the frame into the private system, keeps frame 1
// as the reference on first use, then fits and measures.
func (t *RMSTask) ProcessFrame(info FrameInfo, fr *moltraj.Frame) error {
	if err := t.Consume(fr); err != nil {
		return err
	}
	if t.Sys.NumFrames() == 1 {
		// The first admitted frame becomes the reference in slot 1.
		if err := t.Sys.FrameDup(0); err != nil {
			return err
		}
	}
	if t.doFit {
		refSel, err := moltraj.NewSelectionIndices(t.Sys, t.fitSel.Indices())
		if err != nil {
			return err
		}
		defer refSel.Release()
		if err := refSel.SetFrame(1); err != nil {
			return err
		}
		tr, err := moltraj.FitTransform(t.fitSel, refSel)
		if err != nil {
			return err
		}
		all, err := moltraj.NewSelection(t.Sys, "all")
		if err != nil {
			return err
		}
		defer all.Release()
		all.ApplyTransform(tr)
	}
	v, err := t.sel.RMSDBetween(0, 1)
	if err != nil {
		return err
	}
	t.series = append(t.series, v)
	t.times = append(t.times, info.AbsTime)
	t.stats.Update(v)
	return nil
}

// PostProcess reports the running statistics and dumps the series.
func (t *RMSTask) PostProcess(info FrameInfo) error {
	log := t.Log
	if log == nil {
		log = logrus.New()
	}
	if t.stats.Count() > 0 {
		log.WithFields(logrus.Fields{
			"frames": info.ValidFrame,
			"mean":   t.stats.Mean(),
			"stddev": t.stats.SampleStandardDeviation(),
			"max":    t.stats.Max(),
		}).Info("rmsd statistics")
	}
	if t.out == "" {
		return nil
	}
	f, err := os.Create(t.out)
	if err != nil {
		return &moltraj.IOError{Path: t.out, Err: err}
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()
	fmt.Fprintln(w, "# time[ps] rmsd[nm]")
	for i, v := range t.series {
		fmt.Fprintf(w, "%.3f %.6f\n", t.times[i], v)
	}
	return nil
}
