package stream

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/jingkaihe/streamstat/internal/errx"
)

func (r *Registry) resolve(path string) (Wrapper, error) {
	return r.Lookup(SchemeOf(path))
}

// Open opens path with an fopen-style mode through the current wrapper.
func (r *Registry) Open(ctx context.Context, path, mode string) (Handle, error) {
	w, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	return w.Open(ctx, path, mode)
}

func (r *Registry) Stat(ctx context.Context, path string, flags StatFlags) (FileInfo, error) {
	w, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	return w.Stat(ctx, path, flags)
}

// Exists reports whether a quiet stat of path succeeds.
func (r *Registry) Exists(ctx context.Context, path string) bool {
	_, err := r.Stat(ctx, path, StatQuiet)
	return err == nil
}

func (r *Registry) OpenDir(ctx context.Context, path string) (DirHandle, error) {
	w, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	return w.OpenDir(ctx, path)
}

func (r *Registry) Mkdir(ctx context.Context, path string, perm os.FileMode, recursive bool) error {
	w, err := r.resolve(path)
	if err != nil {
		return err
	}
	return w.Mkdir(ctx, path, perm, recursive)
}

func (r *Registry) Rmdir(ctx context.Context, path string) error {
	w, err := r.resolve(path)
	if err != nil {
		return err
	}
	return w.Rmdir(ctx, path)
}

func (r *Registry) Unlink(ctx context.Context, path string) error {
	w, err := r.resolve(path)
	if err != nil {
		return err
	}
	return w.Unlink(ctx, path)
}

// Rename moves from to to. Both must share a scheme.
func (r *Registry) Rename(ctx context.Context, from, to string) error {
	if SchemeOf(from) != SchemeOf(to) {
		return errx.With(ErrUnsupported, ": rename across schemes %q -> %q", SchemeOf(from), SchemeOf(to))
	}
	w, err := r.resolve(from)
	if err != nil {
		return err
	}
	return w.Rename(ctx, from, to)
}

func (r *Registry) SetMetadata(ctx context.Context, path string, meta Metadata) error {
	w, err := r.resolve(path)
	if err != nil {
		return err
	}
	return w.SetMetadata(ctx, path, meta)
}

// Touch creates path if needed and sets its modification time.
func (r *Registry) Touch(ctx context.Context, path string, mtime time.Time) error {
	return r.SetMetadata(ctx, path, Metadata{Option: MetaTouch, ModTime: mtime, AccessTime: mtime})
}

func (r *Registry) Chmod(ctx context.Context, path string, mode os.FileMode) error {
	return r.SetMetadata(ctx, path, Metadata{Option: MetaAccess, Mode: mode})
}

// ReadFile reads the whole stream at path.
func (r *Registry) ReadFile(ctx context.Context, path string) ([]byte, error) {
	h, err := r.Open(ctx, path, "rb")
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(h)
	if cerr := h.Close(); err == nil {
		err = cerr
	}
	return data, err
}

// WriteFile truncates path and writes data to it.
func (r *Registry) WriteFile(ctx context.Context, path string, data []byte) error {
	h, err := r.Open(ctx, path, "wb")
	if err != nil {
		return err
	}
	_, err = h.Write(data)
	if cerr := h.Close(); err == nil {
		err = cerr
	}
	return err
}

// Package-level shortcuts dispatch through Default().

func Open(ctx context.Context, path, mode string) (Handle, error) {
	return Default().Open(ctx, path, mode)
}

func Stat(ctx context.Context, path string, flags StatFlags) (FileInfo, error) {
	return Default().Stat(ctx, path, flags)
}

func Exists(ctx context.Context, path string) bool {
	return Default().Exists(ctx, path)
}

func OpenDir(ctx context.Context, path string) (DirHandle, error) {
	return Default().OpenDir(ctx, path)
}

func Mkdir(ctx context.Context, path string, perm os.FileMode, recursive bool) error {
	return Default().Mkdir(ctx, path, perm, recursive)
}

func Rmdir(ctx context.Context, path string) error {
	return Default().Rmdir(ctx, path)
}

func Unlink(ctx context.Context, path string) error {
	return Default().Unlink(ctx, path)
}

func Rename(ctx context.Context, from, to string) error {
	return Default().Rename(ctx, from, to)
}

func ReadFile(ctx context.Context, path string) ([]byte, error) {
	return Default().ReadFile(ctx, path)
}

func WriteFile(ctx context.Context, path string, data []byte) error {
	return Default().WriteFile(ctx, path, data)
}
