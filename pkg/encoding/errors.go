package encoding

import (
	"errors"
	"fmt"
	"math"
)

// ErrBufferBounds is returned when a read or write would cross the end of a
// fixed buffer. It always indicates a sizing defect at the call site.
var ErrBufferBounds = errors.New("buffer bounds exceeded")

// BoundsError carries the offending operation and offsets.
type BoundsError struct {
	Op     string
	Offset int
	Need   int
	Len    int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s: %v (offset=%d need=%d len=%d)", e.Op, ErrBufferBounds, e.Offset, e.Need, e.Len)
}

func (e *BoundsError) Unwrap() error { return ErrBufferBounds }

// lengthPrefix returns n as a sized-string prefix. Lengths beyond an int32
// cannot be represented on the wire.
func lengthPrefix(op string, n int) (int32, error) {
	if n < 0 || int64(n) > math.MaxInt32 {
		return 0, &BoundsError{Op: op, Need: n, Len: math.MaxInt32}
	}
	return int32(n), nil
}

func checkBounds(op string, buf []byte, off, n int) error {
	if off < 0 || n < 0 || off > len(buf) || len(buf)-off < n {
		return &BoundsError{Op: op, Offset: off, Need: n, Len: len(buf)}
	}
	return nil
}
