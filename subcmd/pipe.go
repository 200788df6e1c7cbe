package subcmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mengelbart/yuvpipe/cmdmain"
	"github.com/mengelbart/yuvpipe/codec"
	"github.com/mengelbart/yuvpipe/flags"
	"github.com/mengelbart/yuvpipe/framepipe"
	"github.com/mengelbart/yuvpipe/ivf"
	"github.com/mengelbart/yuvpipe/vpx"
)

func init() {
	cmdmain.RegisterSubCmd("pipe", func() cmdmain.SubCmd { return new(Pipe) })
}

type Pipe struct{}

func (p *Pipe) Help() string {
	return "Stream a video file into a named pipe"
}

func (p *Pipe) Exec(cmd string, args []string) error {
	fs := flag.NewFlagSet("pipe", flag.ExitOnError)
	flags.RegisterInto(fs, []flags.FlagName{
		flags.PipePathFlag,
		flags.PipeModeFlag,
		flags.SourceLocationFlag,
		flags.LiveFlag,
	}...)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Decode a video file and write its frames to a named pipe.

The pipe is created at -pipe-path and the command waits until a reader
opens it.

Usage:
	%v pipe [flags]

Flags:
`, cmd)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr)
	}
	fs.Parse(args)

	if len(flags.SourceLocation) == 0 {
		return errors.New("pipe requires a source file set via the -source-location flag")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// writes can block on a stalled reader, let a second signal terminate
	context.AfterFunc(ctx, stop)

	file, err := os.Open(flags.SourceLocation)
	if err != nil {
		return err
	}
	defer file.Close()

	sink, err := framepipe.NewSink(flags.PipePath, framepipe.WithMode(flags.PipeMode))
	if err != nil {
		return err
	}
	defer sink.Close()

	var info codec.Info
	var run func(context.Context) error

	switch ext := strings.ToLower(filepath.Ext(flags.SourceLocation)); ext {
	case ".y4m":
		src, err := codec.NewY4MSource(file)
		if err != nil {
			return err
		}
		info = src.GetInfo()
		run = func(ctx context.Context) error {
			return src.StartLive(ctx, codec.NewSinkWriter(sink), flags.Live)
		}
	case ".ivf":
		src, err := ivf.NewSource(file)
		if err != nil {
			return err
		}
		c, err := src.Codec()
		if err != nil {
			return err
		}
		decoder, err := vpx.NewDecoder(c)
		if err != nil {
			return err
		}
		defer decoder.Close()
		info = src.GetInfo()
		run = func(ctx context.Context) error {
			return src.StartLive(ctx, decoder.Into(sink))
		}
	default:
		return fmt.Errorf("unsupported source file extension: %q", ext)
	}

	slog.Info("opening pipe", "path", flags.PipePath, "source", flags.SourceLocation, "width", info.Width, "height", info.Height)
	if err := sink.Open(ctx, info); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	err = run(ctx)
	switch {
	case errors.Is(err, framepipe.ErrDisconnect):
		slog.Info("reader disconnected")
		return nil
	case errors.Is(err, context.Canceled):
		return nil
	}
	return err
}
