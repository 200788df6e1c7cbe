package subcmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mengelbart/yuvpipe/cmdmain"
	"github.com/mengelbart/yuvpipe/codec"
	"github.com/mengelbart/yuvpipe/flags"
	"github.com/mengelbart/yuvpipe/framepipe"
	"golang.org/x/sync/errgroup"
)

func init() {
	cmdmain.RegisterSubCmd("read", func() cmdmain.SubCmd { return new(Read) })
}

type Read struct{}

func (r *Read) Help() string {
	return "Read frames from a named pipe"
}

func (r *Read) Exec(cmd string, args []string) error {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	flags.RegisterInto(fs, []flags.FlagName{
		flags.PipePathFlag,
		flags.SinkLocationFlag,
		flags.FPSNumFlag,
		flags.FPSDenFlag,
	}...)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Read the frame stream of a running pipe command.

Every packet is logged. With -sink-location set, frames are written to a y4m
file.

Usage:
	%v read [flags]

Flags:
`, cmd)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr)
	}
	fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	context.AfterFunc(ctx, stop)

	var sink codec.Sink
	if len(flags.SinkLocation) > 0 {
		y4mSink := codec.NewY4MSink(flags.SinkLocation, int(flags.FPSNum), int(flags.FPSDen))
		if err := y4mSink.Open(ctx, codec.Info{}); err != nil {
			return err
		}
		defer y4mSink.Close()
		sink = y4mSink
	}

	// blocks until the writer opened the pipe
	file, err := os.Open(flags.PipePath)
	if err != nil {
		return err
	}
	defer file.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return readStream(file, sink)
	})
	g.Go(func() error {
		<-ctx.Done()
		// unblocks a pending read
		file.Close()
		return nil
	})
	return g.Wait()
}

func readStream(r io.Reader, sink codec.Sink) error {
	reader := framepipe.NewReader(r)
	var frames int
	var received uint64
	for {
		pkt, err := reader.ReadPacket()
		if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
			break
		}
		if err != nil {
			return err
		}
		switch pkt.Kind {
		case framepipe.HeaderPacket:
			received += framepipe.HeaderSize
			slog.Info("dimensions", "width", pkt.Width, "height", pkt.Height)
		case framepipe.FramePacket:
			frames++
			received += uint64(framepipe.TimestampSize + len(pkt.Payload))
			slog.Debug("frame", "pts", time.Duration(pkt.PTS)*time.Microsecond, "size", humanize.Bytes(uint64(len(pkt.Payload))))
			if sink == nil {
				continue
			}
			f, err := codec.NewPackedFrame(pkt.Payload, pkt.Width, pkt.Height)
			if err != nil {
				return err
			}
			f.PTS = pkt.PTS
			f.TimeBase = codec.Microseconds
			if err := sink.Push(f); err != nil {
				return err
			}
		}
	}
	slog.Info("stream ended", "frames", frames, "received", humanize.Bytes(received))
	return nil
}
