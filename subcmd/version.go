package subcmd

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/mengelbart/yuvpipe/cmdmain"
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	cmdmain.RegisterSubCmd("version", func() cmdmain.SubCmd { return newVersion(info) })
}

type Version struct {
	path      string
	version   string
	gitCommit string
	gitDate   string
	goVersion string
	deps      []*debug.Module
}

func newVersion(info *debug.BuildInfo) *Version {
	v := &Version{
		path:      info.Main.Path,
		version:   info.Main.Version,
		goVersion: runtime.Version(),
		deps:      info.Deps,
	}
	modified := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			v.gitCommit = setting.Value
		case "vcs.time":
			v.gitDate = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if modified {
		v.gitCommit += "+dirty"
	}
	return v
}

// Exec implements cmdmain.SubCmd.
func (v *Version) Exec(cmd string, args []string) error {
	fs := flag.NewFlagSet("version", flag.ExitOnError)
	deps := fs.Bool("deps", false, "Also print module dependencies")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Print version information

Usage:
	%s version [flags]

Flags:
`, cmd)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr)
	}
	fs.Parse(args)

	v.print(os.Stdout, *deps)
	return nil
}

func (v *Version) print(w io.Writer, deps bool) {
	fmt.Fprintf(w, `%s
	Version:	%s
	Git commit:	%s
	Built:		%s
	Go Version:	%s
`, v.path, v.version, v.gitCommit, v.gitDate, v.goVersion)
	if !deps {
		return
	}
	fmt.Fprintln(w, "\tDependencies:")
	for _, d := range v.deps {
		line := d.Path + " " + d.Version
		if d.Replace != nil {
			line += " => " + strings.TrimSpace(d.Replace.Path+" "+d.Replace.Version)
		}
		fmt.Fprintf(w, "\t\t%s\n", line)
	}
}

// Help implements cmdmain.SubCmd.
func (v *Version) Help() string {
	return "Print version information"
}
