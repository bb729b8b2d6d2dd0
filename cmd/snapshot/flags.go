package main

import (
	"flag"
	"strconv"
)

// verbosityFlag counts repeated -v switches. A bare switch adds step,
// an explicit value (-v=2) sets the level.
type verbosityFlag struct {
	level *int
	step  int
}

func (f verbosityFlag) IsBoolFlag() bool { return true }

func (f verbosityFlag) String() string {
	if f.level == nil {
		return "0"
	}
	return strconv.Itoa(*f.level)
}

func (f verbosityFlag) Set(s string) error {
	switch s {
	case "true":
		*f.level += f.step
		return nil
	case "false":
		*f.level = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f.level = n
	return nil
}

// registerVerbosity adds -v and -vv to fs and returns the shared level.
func registerVerbosity(fs *flag.FlagSet) *int {
	level := new(int)
	fs.Var(verbosityFlag{level: level, step: 1}, "v", "verbosity: -v info, -vv debug")
	fs.Var(verbosityFlag{level: level, step: 2}, "vv", "debug verbosity")
	return level
}
