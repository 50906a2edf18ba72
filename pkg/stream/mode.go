package stream

import (
	"os"
	"strings"

	"github.com/jingkaihe/streamstat/internal/errx"
)

// ParseMode converts an fopen-style mode string into os.OpenFile flags.
//
//	r  read              r+ read/write
//	w  truncate/create   w+ read/write, truncate/create
//	a  append/create     a+ read/append, create
//	x  exclusive create  x+ read/write, exclusive create
//	c  create            c+ read/write, create
//
// A trailing "b" or "t" is accepted and ignored.
func ParseMode(mode string) (int, error) {
	m := strings.NewReplacer("b", "", "t", "").Replace(mode)
	if m == "" {
		return 0, errx.With(ErrInvalidMode, " %q", mode)
	}

	plus := false
	switch {
	case len(m) == 2 && m[1] == '+':
		plus = true
	case len(m) != 1:
		return 0, errx.With(ErrInvalidMode, " %q", mode)
	}

	rw := os.O_WRONLY
	if plus {
		rw = os.O_RDWR
	}

	switch m[0] {
	case 'r':
		if plus {
			return os.O_RDWR, nil
		}
		return os.O_RDONLY, nil
	case 'w':
		return rw | os.O_CREATE | os.O_TRUNC, nil
	case 'a':
		return rw | os.O_CREATE | os.O_APPEND, nil
	case 'x':
		return rw | os.O_CREATE | os.O_EXCL, nil
	case 'c':
		return rw | os.O_CREATE, nil
	}
	return 0, errx.With(ErrInvalidMode, " %q", mode)
}

// IsReadOnlyMode reports whether mode opens the stream for reading only.
// Invalid modes are not read-only.
func IsReadOnlyMode(mode string) bool {
	flags, err := ParseMode(mode)
	if err != nil {
		return false
	}
	return flags&(os.O_WRONLY|os.O_RDWR) == 0
}
