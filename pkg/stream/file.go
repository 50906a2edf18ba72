package stream

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"os/user"
	"strconv"
	"time"

	"golang.org/x/sys/unix"

	"github.com/jingkaihe/streamstat/internal/errx"
)

// FileWrapper is the native wrapper for the local file system.
type FileWrapper struct{}

var _ Wrapper = (*FileWrapper)(nil)

func NewFileWrapper() *FileWrapper {
	return &FileWrapper{}
}

func (w *FileWrapper) Open(_ context.Context, path, mode string) (Handle, error) {
	p, err := LocalPath(path)
	if err != nil {
		return nil, err
	}
	flags, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(p, flags, 0o666)
	if err != nil {
		return nil, err
	}
	return &fileHandle{f: f}, nil
}

func (w *FileWrapper) Stat(_ context.Context, path string, flags StatFlags) (FileInfo, error) {
	p, err := LocalPath(path)
	if err != nil {
		return nil, err
	}
	if flags&StatLink != 0 {
		return os.Lstat(p)
	}
	return os.Stat(p)
}

func (w *FileWrapper) OpenDir(_ context.Context, path string) (DirHandle, error) {
	p, err := LocalPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !info.IsDir() {
		f.Close()
		return nil, &fs.PathError{Op: "opendir", Path: p, Err: unix.ENOTDIR}
	}
	return &dirHandle{f: f}, nil
}

func (w *FileWrapper) Mkdir(_ context.Context, path string, perm os.FileMode, recursive bool) error {
	p, err := LocalPath(path)
	if err != nil {
		return err
	}
	if recursive {
		return os.MkdirAll(p, perm)
	}
	return os.Mkdir(p, perm)
}

func (w *FileWrapper) Rmdir(_ context.Context, path string) error {
	p, err := LocalPath(path)
	if err != nil {
		return err
	}
	if err := unix.Rmdir(p); err != nil {
		return &fs.PathError{Op: "rmdir", Path: p, Err: err}
	}
	return nil
}

func (w *FileWrapper) Unlink(_ context.Context, path string) error {
	p, err := LocalPath(path)
	if err != nil {
		return err
	}
	if err := unix.Unlink(p); err != nil {
		return &fs.PathError{Op: "unlink", Path: p, Err: err}
	}
	return nil
}

func (w *FileWrapper) Rename(_ context.Context, from, to string) error {
	src, err := LocalPath(from)
	if err != nil {
		return err
	}
	dst, err := LocalPath(to)
	if err != nil {
		return err
	}
	return os.Rename(src, dst)
}

func (w *FileWrapper) SetMetadata(_ context.Context, path string, meta Metadata) error {
	p, err := LocalPath(path)
	if err != nil {
		return err
	}

	switch meta.Option {
	case MetaTouch:
		return touch(p, meta.AccessTime, meta.ModTime)
	case MetaOwnerName:
		uid, err := lookupID(meta.Name, func(name string) (string, error) {
			u, err := user.Lookup(name)
			if err != nil {
				return "", err
			}
			return u.Uid, nil
		})
		if err != nil {
			return err
		}
		return os.Chown(p, uid, -1)
	case MetaOwner:
		return os.Chown(p, meta.ID, -1)
	case MetaGroupName:
		gid, err := lookupID(meta.Name, func(name string) (string, error) {
			g, err := user.LookupGroup(name)
			if err != nil {
				return "", err
			}
			return g.Gid, nil
		})
		if err != nil {
			return err
		}
		return os.Chown(p, -1, gid)
	case MetaGroup:
		return os.Chown(p, -1, meta.ID)
	case MetaAccess:
		return os.Chmod(p, meta.Mode)
	}
	return errx.With(ErrUnsupported, ": metadata option %d", meta.Option)
}

func touch(path string, atime, mtime time.Time) error {
	now := time.Now()
	if mtime.IsZero() {
		mtime = now
	}
	if atime.IsZero() {
		atime = mtime
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o666)
		if err != nil {
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return os.Chtimes(path, atime, mtime)
}

func lookupID(name string, lookup func(string) (string, error)) (int, error) {
	raw, err := lookup(name)
	if err != nil {
		return 0, errx.Wrap(ErrLookupOwner, err)
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errx.Wrap(ErrLookupOwner, err)
	}
	return id, nil
}

type fileHandle struct {
	f   *os.File
	eof bool
}

func (h *fileHandle) Read(p []byte) (int, error) {
	n, err := h.f.Read(p)
	if errors.Is(err, io.EOF) {
		h.eof = true
	}
	return n, err
}

func (h *fileHandle) Write(p []byte) (int, error) {
	return h.f.Write(p)
}

func (h *fileHandle) Seek(offset int64, whence int) (int64, error) {
	pos, err := h.f.Seek(offset, whence)
	if err == nil {
		h.eof = false
	}
	return pos, err
}

func (h *fileHandle) Tell() (int64, error) {
	return h.f.Seek(0, io.SeekCurrent)
}

func (h *fileHandle) Truncate(size int64) error {
	return h.f.Truncate(size)
}

// Flush is a no-op beyond checking the handle: *os.File is unbuffered.
func (h *fileHandle) Flush() error {
	_, err := h.f.Stat()
	return err
}

func (h *fileHandle) Lock(op LockOp) error {
	if op == 0 {
		return nil
	}
	var how int
	switch {
	case op&LockUnlock != 0:
		how = unix.LOCK_UN
	case op&LockExclusive != 0:
		how = unix.LOCK_EX
	case op&LockShared != 0:
		how = unix.LOCK_SH
	default:
		return errx.With(ErrUnsupported, ": lock operation %d", op)
	}
	if op&LockNonBlocking != 0 {
		how |= unix.LOCK_NB
	}
	if err := unix.Flock(int(h.f.Fd()), how); err != nil {
		return &fs.PathError{Op: "flock", Path: h.f.Name(), Err: err}
	}
	return nil
}

func (h *fileHandle) EOF() bool {
	return h.eof
}

func (h *fileHandle) Stat() (FileInfo, error) {
	return h.f.Stat()
}

func (h *fileHandle) Cast() any {
	return h.f
}

func (h *fileHandle) Close() error {
	return h.f.Close()
}

const dirBatch = 64

type dirHandle struct {
	f     *os.File
	names []string
	pos   int
	done  bool
}

func (d *dirHandle) Next() (string, error) {
	for d.pos >= len(d.names) {
		if d.done {
			return "", io.EOF
		}
		batch, err := d.f.Readdirnames(dirBatch)
		if errors.Is(err, io.EOF) {
			d.done = true
			continue
		}
		if err != nil {
			return "", err
		}
		d.names = append(d.names, batch...)
	}
	name := d.names[d.pos]
	d.pos++
	return name, nil
}

func (d *dirHandle) Rewind() error {
	if _, err := d.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	d.names = d.names[:0]
	d.pos = 0
	d.done = false
	return nil
}

func (d *dirHandle) Close() error {
	return d.f.Close()
}
