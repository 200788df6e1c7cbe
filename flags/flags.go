// Package flags implements command-line flags for yuvpipe.
//
// The design idea is taken from [upspin.io/flags], but most of the code is
// modified. This package uses a slightly modified version of [RegisterInto] and
// the internal [flags]-map. See [Upspin LICENSE] for upspins copyright and
// license information.
//
// [upspin.io/flags]: https://github.com/upspin/upspin/tree/334f107fe3d98225d7adfbb35b74e066fbca9875/flags
// [Upspin LICENSE]: https://github.com/upspin/upspin/blob/334f107fe3d98225d7adfbb35b74e066fbca9875/LICENSE
package flags

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

type FlagName string

// flag keys
const (
	PipePathFlag FlagName = "pipe-path"
	PipeModeFlag FlagName = "pipe-mode"

	SourceLocationFlag FlagName = "source-location"
	SinkLocationFlag   FlagName = "sink-location"

	LiveFlag FlagName = "live"

	FPSNumFlag FlagName = "fps-num"
	FPSDenFlag FlagName = "fps-den"
)

// Flag vars
var (
	// PipePath is the location of the named pipe
	PipePath = "/tmp/yuvpipe.fifo"

	// PipeMode holds the permission bits of the created pipe
	PipeMode = uint32(0o660)

	SourceLocation = ""
	SinkLocation   = ""

	Live = false

	// frame rate written to y4m files
	FPSNum = uint(30)
	FPSDen = uint(1)
)

type flagVar func(*flag.FlagSet)

func stringVar(p *string, name FlagName, defaultValue *string, usage string) func(*flag.FlagSet) {
	return func(fs *flag.FlagSet) {
		fs.StringVar(p, string(name), *defaultValue, usage)
	}
}

func uintVar(p *uint, name FlagName, defaultValue *uint, usage string) func(*flag.FlagSet) {
	return func(fs *flag.FlagSet) {
		fs.UintVar(p, string(name), *defaultValue, usage)
	}
}

// modeValue parses octal permission bits.
type modeValue struct {
	p *uint32
}

func (m modeValue) String() string {
	if m.p == nil {
		return ""
	}
	return fmt.Sprintf("%#o", *m.p)
}

func (m modeValue) Set(s string) error {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0o"), 8, 32)
	if err != nil {
		return err
	}
	if v&^0o777 != 0 {
		return fmt.Errorf("permission bits out of range: %#o", v)
	}
	*m.p = uint32(v)
	return nil
}

func modeVar(p *uint32, name FlagName, defaultValue *uint32, usage string) func(*flag.FlagSet) {
	return func(fs *flag.FlagSet) {
		*p = *defaultValue
		fs.Var(modeValue{p: p}, string(name), usage)
	}
}

func boolVar(p *bool, name FlagName, defaultValue *bool, usage string) func(*flag.FlagSet) {
	return func(fs *flag.FlagSet) {
		fs.BoolVar(p, string(name), *defaultValue, usage)
	}
}

var flags = map[FlagName]flagVar{
	// pipe flags
	PipePathFlag: stringVar(&PipePath, PipePathFlag, &PipePath, "Location of the named pipe"),
	PipeModeFlag: modeVar(&PipeMode, PipeModeFlag, &PipeMode, "Octal permission bits of the created named pipe"),

	// IO Flags
	SourceLocationFlag: stringVar(&SourceLocation, SourceLocationFlag, &SourceLocation, "Input file (.y4m or .ivf with VP8/VP9)"),
	SinkLocationFlag:   stringVar(&SinkLocation, SinkLocationFlag, &SinkLocation, "Output y4m file, empty string only logs packets"),

	LiveFlag: boolVar(&Live, LiveFlag, &Live, "Release y4m frames at the file's frame rate"),

	FPSNumFlag: uintVar(&FPSNum, FPSNumFlag, &FPSNum, "Frame rate numerator of the written y4m file"),
	FPSDenFlag: uintVar(&FPSDen, FPSDenFlag, &FPSDen, "Frame rate denominator of the written y4m file"),
}

func RegisterInto(fs *flag.FlagSet, names ...FlagName) {
	if len(names) == 0 {
		for _, f := range flags {
			f(fs)
		}
	} else {
		for _, n := range names {
			f, ok := flags[n]
			if !ok {
				panic(fmt.Sprintf("unknown flag: %q", n))
			}
			f(fs)
		}
	}
}
