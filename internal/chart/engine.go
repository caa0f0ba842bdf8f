package chart

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"klineChart/internal/ports"
)

// Engine is a rendering engine. Init binds a new instance to a surface.
type Engine interface {
	Name() string
	Init(surface Surface) (Instance, error)
}

// Instance is one engine instance bound to a surface. Dispose releases the
// surface; SetOption after Dispose fails with ports.ErrDisposed.
type Instance interface {
	SetOption(opt *Option) error
	Dispose() error
}

// Surface is the display area an instance draws into.
type Surface interface {
	ID() string
	Size() (width, height int)
	// Acquire opens the underlying target. The instance closes it on Dispose.
	Acquire() (io.WriteCloser, error)
}

// NewEngine returns the engine registered under name ("html" or "png").
func NewEngine(name string) (Engine, error) {
	switch strings.ToLower(name) {
	case "html", "":
		return NewHTMLEngine(), nil
	case "png":
		return NewPNGEngine(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ports.ErrUnsupportedEngine, name)
	}
}

// WriterSurface draws into a caller-owned writer, such as an HTTP response.
// Closing the acquired target does not close the writer.
type WriterSurface struct {
	id            string
	width, height int
	w             io.Writer
}

// NewWriterSurface creates a surface over w.
func NewWriterSurface(id string, width, height int, w io.Writer) *WriterSurface {
	return &WriterSurface{id: id, width: width, height: height, w: w}
}

func (s *WriterSurface) ID() string                { return s.id }
func (s *WriterSurface) Size() (width, height int) { return s.width, s.height }

func (s *WriterSurface) Acquire() (io.WriteCloser, error) {
	if s.w == nil {
		return nil, fmt.Errorf("surface %s: no writer", s.id)
	}
	return nopWriteCloser{s.w}, nil
}

// FileSurface draws into a file that is truncated on every acquisition.
type FileSurface struct {
	id            string
	width, height int
	path          string
}

// NewFileSurface creates a surface writing to path.
func NewFileSurface(id string, width, height int, path string) *FileSurface {
	return &FileSurface{id: id, width: width, height: height, path: path}
}

func (s *FileSurface) ID() string                { return s.id }
func (s *FileSurface) Size() (width, height int) { return s.width, s.height }
func (s *FileSurface) Path() string              { return s.path }

func (s *FileSurface) Acquire() (io.WriteCloser, error) {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("surface %s: create directory '%s': %w", s.id, dir, err)
		}
	}
	f, err := os.Create(s.path)
	if err != nil {
		return nil, fmt.Errorf("surface %s: %w", s.id, err)
	}
	return f, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// instanceBase holds the acquired target and the disposed flag shared by the engines.
type instanceBase struct {
	surface  Surface
	target   io.WriteCloser
	disposed bool
}

func (b *instanceBase) acquire(surface Surface) error {
	target, err := surface.Acquire()
	if err != nil {
		return err
	}
	b.surface = surface
	b.target = target
	return nil
}

func (b *instanceBase) checkAlive() error {
	if b.disposed {
		return fmt.Errorf("surface %s: %w", b.surface.ID(), ports.ErrDisposed)
	}
	return nil
}

// Dispose releases the surface target. Calling it twice is a no-op.
func (b *instanceBase) Dispose() error {
	if b.disposed {
		return nil
	}
	b.disposed = true
	target := b.target
	b.target = nil
	if target == nil {
		return nil
	}
	return target.Close()
}
