// Package callsite mints keys that identify a single call expression in the
// program, so state can be attached to "this place in the source" rather than
// to the values flowing through it.
package callsite

import (
	"fmt"
	"runtime"
)

// Key is comparable and stable for the life of the process. It names a
// position in the source, so every compiled copy of a call expression shares
// one key: inlined copies, and the instantiations of a generic function.
//
// Call expressions on the same line share a key. Use With to tell them apart.
type Key struct {
	File string
	Line int
	// Tag separates keys minted at the same position
	Tag string
}

func (k Key) String() string {
	if k.Tag == "" {
		return fmt.Sprintf("%s:%d", k.File, k.Line)
	}
	return fmt.Sprintf("%s:%d [%s]", k.File, k.Line, k.Tag)
}

func (k Key) IsZero() bool {
	return k == Key{}
}

// With returns a copy of k with the given tag.
func (k Key) With(tag string) Key {
	k.Tag = tag
	return k
}

// Caller returns the key of the call expression skip frames above the caller
// of Caller. Caller(0) identifies the call to Caller itself.
func Caller(skip int) Key {
	var pcs [1]uintptr
	// +2 skips runtime.Callers and Caller
	if runtime.Callers(skip+2, pcs[:]) == 0 {
		panic("callsite: no caller at requested depth")
	}

	// CallersFrames resolves inlined calls to the position they were written at
	frames := runtime.CallersFrames(pcs[:])
	frame, _ := frames.Next()

	return Key{
		File: frame.File,
		Line: frame.Line,
	}
}
