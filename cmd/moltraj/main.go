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

// Command moltraj runs trajectory analysis tasks over molecular
// dynamics trajectories.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/molmodel/moltraj"
	_ "github.com/molmodel/moltraj/molio"
	"github.com/molmodel/moltraj/traj"
)

// Exit codes.
const (
	exitOK    = 0
	exitParse = 2
	exitIO    = 3
	exitTask  = 4
)

var log = logrus.New()

// options is the flag table: every entry is registered with cobra and
// bound to viper so a config file or MOLTRAJ_* environment variables can
// override it.
var options = []struct {
	name, shorthand, usage string
	defaultVal             interface{}
}{
	{"trajectory", "f", "input files, processed in order", []string{}},
	{"first_frame", "", "first frame to process", 0},
	{"last_frame", "", "last frame to process (-1 = end)", -1},
	{"first_time", "", "first time to process [ps] (-1 = unset)", -1.0},
	{"last_time", "", "last time to process [ps] (-1 = unset)", -1.0},
	{"stride", "", "process every k-th frame", 1},
	{"skip", "", "alias of stride", 1},
	{"parallel", "p", "run one worker per task", false},
	{"buffer_size", "", "channel capacity per task", 10},
	{"log_interval", "", "status print frequency in frames", 0},
	{"selection", "s", "selection text for the rms task", "all"},
	{"rms_out", "o", "output file for the rms series", ""},
	{"config", "c", "path to a TOML options file", ""},
}

func initializeConfig() (*viper.Viper, *cobra.Command) {
	cfg := viper.New()
	cfg.SetEnvPrefix("MOLTRAJ")
	cfg.AutomaticEnv()

	root := &cobra.Command{
		Use:   "moltraj",
		Short: "Molecular trajectory analysis.",
		Long: `moltraj pipelines molecular dynamics trajectory frames through
analysis tasks. Use the subcommands below to access the functionality.
Options can be set by command-line flags, a TOML configuration file
(--config), or environment variables named MOLTRAJ_<option>.`,
		SilenceUsage: true,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the analysis tasks over the trajectory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg, cmd.Flags())
		},
	}

	infoCmd := &cobra.Command{
		Use:   "info [file...]",
		Short: "Print a summary of molecular files.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return info(args)
		},
	}

	root.AddCommand(runCmd, infoCmd)

	var fs *pflag.FlagSet = runCmd.PersistentFlags()
	for _, o := range options {
		switch d := o.defaultVal.(type) {
		case string:
			fs.StringP(o.name, o.shorthand, d, o.usage)
		case int:
			fs.IntP(o.name, o.shorthand, d, o.usage)
		case float64:
			fs.Float64P(o.name, o.shorthand, d, o.usage)
		case bool:
			fs.BoolP(o.name, o.shorthand, d, o.usage)
		case []string:
			fs.StringSliceP(o.name, o.shorthand, d, o.usage)
		}
		cfg.BindPFlag(o.name, fs.Lookup(o.name))
	}
	return cfg, root
}

// runOptions assembles the pipeline options: defaults, then the TOML
// options file, then any flag or environment override the user actually
// set.
func runOptions(cfg *viper.Viper, fs *pflag.FlagSet) (*traj.Options, error) {
	opt := traj.DefaultOptions()
	fromFile := false
	if path := cfg.GetString("config"); path != "" {
		if err := opt.FromFile(path); err != nil {
			return nil, err
		}
		fromFile = true
	}
	// A flag default must not clobber a value from the options file.
	set := func(name string) bool {
		if !fromFile || fs.Changed(name) {
			return true
		}
		_, inEnv := os.LookupEnv("MOLTRAJ_" + strings.ToUpper(name))
		return inEnv
	}
	if ts := cfg.GetStringSlice("trajectory"); len(ts) > 0 {
		opt.Trajectory = ts
	}
	if set("first_frame") {
		opt.FirstFrame = cfg.GetInt("first_frame")
	}
	if set("last_frame") {
		opt.LastFrame = cfg.GetInt("last_frame")
	}
	if set("first_time") {
		opt.FirstTime = cfg.GetFloat64("first_time")
	}
	if set("last_time") {
		opt.LastTime = cfg.GetFloat64("last_time")
	}
	if set("stride") {
		opt.Stride = cfg.GetInt("stride")
	}
	if s := cfg.GetInt("skip"); s > 1 && opt.Stride <= 1 {
		opt.Stride = s
	}
	if set("parallel") {
		opt.Parallel = cfg.GetBool("parallel")
	}
	if set("buffer_size") {
		opt.BufferSize = cfg.GetInt("buffer_size")
	}
	if set("log_interval") {
		opt.LogInterval = cfg.GetInt("log_interval")
	}
	if opt.Extra == nil {
		opt.Extra = map[string]string{}
	}
	if s := cfg.GetString("selection"); s != "" && set("selection") {
		opt.Extra["rms_selection"] = s
	}
	if s := cfg.GetString("rms_out"); s != "" {
		opt.Extra["rms_out"] = s
	}
	return opt, nil
}

func run(cfg *viper.Viper, fs *pflag.FlagSet) error {
	opt, err := runOptions(cfg, fs)
	if err != nil {
		return err
	}
	p := traj.NewPipeline(opt)
	p.SetLogger(log)
	p.AddTask(&traj.RMSTask{Log: log})
	return p.Run()
}

func info(paths []string) error {
	for _, path := range paths {
		sys, err := moltraj.NewSystemFromFile(path)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d atoms, %d frames\n", path, sys.NumAtoms(), sys.NumFrames())
		if sys.NumFrames() > 0 {
			box, _ := sys.Box(0)
			v, a := box.VectorsAngles()
			fmt.Printf("  box %.3f %.3f %.3f nm, angles %.1f %.1f %.1f\n",
				v[0], v[1], v[2], a[0], a[1], a[2])
		}
	}
	return nil
}

// exitCode maps the error taxonomy onto the documented exit codes.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var parseErr *moltraj.ParseError
	var optErr *traj.OptionsError
	var ioErr *moltraj.IOError
	var taskErr *traj.TaskError
	switch {
	case errors.As(err, &parseErr), errors.As(err, &optErr):
		return exitParse
	case errors.As(err, &ioErr):
		return exitIO
	case errors.As(err, &taskErr):
		if errors.As(taskErr.Err, &parseErr) {
			return exitParse
		}
		return exitTask
	}
	return exitTask
}

func main() {
	_, root := initializeConfig()
	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(exitCode(err))
	}
}
