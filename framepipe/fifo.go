package framepipe

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// pipeWriter is the write end of the transport.
type pipeWriter interface {
	io.WriteCloser

	// Writev writes all buffers with as few system calls as possible. It
	// may modify bufs.
	Writev(bufs [][]byte) (int, error)
}

type fifo struct {
	file *os.File
	conn syscall.RawConn
}

// createFIFO replaces whatever is at path with a new named pipe.
func createFIFO(path string, mode uint32) error {
	if err := removeFIFO(path); err != nil {
		return err
	}
	return unix.Mkfifo(path, mode)
}

func removeFIFO(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// openFIFO opens path for writing. It blocks until a reader opens the other
// end or ctx is done.
func openFIFO(ctx context.Context, path string, logger *slog.Logger) (pipeWriter, error) {
	type result struct {
		file *os.File
		err  error
	}
	done := make(chan result, 1)
	go func() {
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		done <- result{file: f, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		return newFIFO(res.file)
	case <-ctx.Done():
	}

	// A non-blocking reader completes the pending open.
	rf, err := os.OpenFile(path, os.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		logger.Warn("failed to release pending pipe open", "error", err)
		return nil, ctx.Err()
	}
	res := <-done
	if res.file != nil {
		res.file.Close()
	}
	rf.Close()
	return nil, ctx.Err()
}

func newFIFO(f *os.File) (*fifo, error) {
	conn, err := f.SyscallConn()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fifo{file: f, conn: conn}, nil
}

func (p *fifo) Write(b []byte) (int, error) {
	return p.file.Write(b)
}

func (p *fifo) Writev(bufs [][]byte) (int, error) {
	written := 0
	var werr error
	err := p.conn.Write(func(fd uintptr) bool {
		for len(bufs) > 0 {
			n, err := unix.Writev(int(fd), bufs)
			if n > 0 {
				written += n
				bufs = consume(bufs, n)
			}
			switch {
			case err == unix.EINTR:
				continue
			case err == unix.EAGAIN:
				// wait until the reader drained the pipe
				return false
			case err != nil:
				werr = &os.PathError{Op: "writev", Path: p.file.Name(), Err: err}
				return true
			case n == 0:
				werr = io.ErrShortWrite
				return true
			}
		}
		return true
	})
	if err != nil {
		return written, err
	}
	return written, werr
}

func (p *fifo) Close() error {
	return p.file.Close()
}

// consume drops the first n bytes from bufs.
func consume(bufs [][]byte, n int) [][]byte {
	for len(bufs) > 0 {
		if n < len(bufs[0]) {
			bufs[0] = bufs[0][n:]
			return bufs
		}
		n -= len(bufs[0])
		bufs = bufs[1:]
	}
	return bufs
}
