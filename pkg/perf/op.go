package perf

import (
	"strings"

	"github.com/jingkaihe/streamstat/internal/errx"
)

// Op is the kind of an accounted operation.
type Op uint8

const (
	OpMiss Op = iota
	OpStat
	OpRead
	OpWrite
	OpBytes

	numOps
)

var opNames = [numOps]string{
	OpMiss:  "miss",
	OpStat:  "stat",
	OpRead:  "read",
	OpWrite: "write",
	OpBytes: "bytes",
}

// Ops lists every valid Op in declaration order.
func Ops() []Op {
	return []Op{OpMiss, OpStat, OpRead, OpWrite, OpBytes}
}

func (o Op) Valid() bool {
	return o < numOps
}

func (o Op) String() string {
	if !o.Valid() {
		return "unknown"
	}
	return opNames[o]
}

// ParseOp resolves an operation name. It is meant for validating
// configuration, not for the hot path.
func ParseOp(name string) (Op, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range opNames {
		if n == name {
			return Op(i), nil
		}
	}
	return 0, errx.With(ErrUnknownOp, " %q", name)
}
