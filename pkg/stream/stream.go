// Package stream is a scheme-dispatched I/O layer. Callers open, stat and
// manipulate paths and URLs through a Registry, which routes each call to
// the Wrapper currently registered for the URL's scheme. Native wrappers for
// "file", "http" and "https" are always available and can be temporarily
// replaced by another Wrapper, which is how instrumentation is attached.
package stream

import (
	"context"
	"io"
	"io/fs"
	"os"
	"time"
)

// Wrapper implements the path-level primitives for one scheme.
type Wrapper interface {
	Open(ctx context.Context, path, mode string) (Handle, error)
	Stat(ctx context.Context, path string, flags StatFlags) (FileInfo, error)
	OpenDir(ctx context.Context, path string) (DirHandle, error)
	Mkdir(ctx context.Context, path string, perm os.FileMode, recursive bool) error
	Rmdir(ctx context.Context, path string) error
	Unlink(ctx context.Context, path string) error
	Rename(ctx context.Context, from, to string) error
	SetMetadata(ctx context.Context, path string, meta Metadata) error
}

// Handle is an open stream. It is valid between a successful Open and Close.
type Handle interface {
	io.ReadWriteSeeker
	Tell() (int64, error)
	Truncate(size int64) error
	Flush() error
	Lock(op LockOp) error
	EOF() bool
	Stat() (FileInfo, error)
	// Cast exposes the underlying resource (*os.File, *http.Response, ...).
	Cast() any
	Close() error
}

// DirHandle iterates entry names of an open directory.
type DirHandle interface {
	// Next returns the next entry name, or io.EOF when exhausted.
	Next() (string, error)
	Rewind() error
	Close() error
}

type FileInfo = fs.FileInfo

// StatFlags modifies Stat behaviour.
type StatFlags uint8

const (
	// StatLink reports the link itself instead of its target.
	StatLink StatFlags = 1 << iota
	// StatQuiet suppresses warning logs on failure. The error is still returned.
	StatQuiet
)

// LockOp mirrors flock(2) operations.
type LockOp int

const (
	LockShared LockOp = 1 << iota
	LockExclusive
	LockUnlock
	LockNonBlocking
)

// MetaOption selects which metadata SetMetadata changes.
type MetaOption int

const (
	MetaTouch MetaOption = iota + 1
	MetaOwnerName
	MetaOwner
	MetaGroupName
	MetaGroup
	MetaAccess
)

// Metadata carries the value for a SetMetadata call. Only the fields
// relevant to Option are read.
type Metadata struct {
	Option MetaOption
	// MetaTouch; zero times mean "now".
	ModTime    time.Time
	AccessTime time.Time
	// MetaOwner / MetaGroup
	ID int
	// MetaOwnerName / MetaGroupName
	Name string
	// MetaAccess
	Mode os.FileMode
}

type fileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
	isDir   bool
}

// NewFileInfo builds a FileInfo for wrappers without an OS-level stat.
func NewFileInfo(name string, size int64, mode os.FileMode, modTime time.Time, isDir bool) FileInfo {
	return &fileInfo{name: name, size: size, mode: mode, modTime: modTime, isDir: isDir}
}

func (fi *fileInfo) Name() string       { return fi.name }
func (fi *fileInfo) Size() int64        { return fi.size }
func (fi *fileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *fileInfo) ModTime() time.Time { return fi.modTime }
func (fi *fileInfo) IsDir() bool        { return fi.isDir }
func (fi *fileInfo) Sys() any           { return nil }
