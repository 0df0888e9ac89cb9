package intern

import (
	"fmt"
	"strings"
	"sync"
)

var defaultPool = sync.OnceValue(func() *Pool {
	return New()
})

// Default returns the process-wide pool used by the package level functions.
func Default() *Pool {
	return defaultPool()
}

func Intern(s string) string {
	return Default().Intern(s)
}

func InternBytes(b []byte) string {
	return Default().InternBytes(b)
}

func IsInterned(s string) bool {
	return Default().IsInterned(s)
}

func Evict(s string) bool {
	return Default().Evict(s)
}

// Literal makes Concat reject string variables unless they are explicitly
// converted. Untyped string constants convert implicitly.
type Literal string

// Concat joins the fragments and interns the result. Without fragments it
// returns "" and leaves the pool untouched.
func (p *Pool) Concat(fragments ...Literal) string {
	if len(fragments) == 0 {
		return ""
	}

	var b strings.Builder
	for _, fragment := range fragments {
		b.WriteString(string(fragment))
	}
	return p.Intern(b.String())
}

// Format interns the result of fmt.Sprintf(format, args...).
func (p *Pool) Format(format string, args ...any) string {
	return p.Intern(fmt.Sprintf(format, args...))
}

func Concat(fragments ...Literal) string {
	return Default().Concat(fragments...)
}

func Format(format string, args ...any) string {
	return Default().Format(format, args...)
}
