package errors

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// stackTracer is implemented by errors created using github.com/pkg/errors
// helpers.
type stackTracer interface {
	error
	StackTrace() errors.StackTrace
}

// stackTrace returns the first stacktrace found in the cause chain, or nil
// if no error in the chain carries one.
func stackTrace(err error) errors.StackTrace {
	for {
		if st, ok := err.(stackTracer); ok {
			return st.StackTrace()
		}
		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return nil
		}
	}
}

// trimInternal removes the frames that belong to this package or the
// runtime, leaving only the frames relevant to the caller.
func trimInternal(st errors.StackTrace) errors.StackTrace {
	// manual error creation, or runtime for caught panics
	for len(st) > 1 && matchesFile(st[0],
		"vault/errors/errors.go",
		"vault/errors/stacktrace.go",
		"/runtime/",
		"/_test/") {
		st = st[1:]
	}
	// trim out outer wrappers (runtime)
	for l := len(st) - 1; l > 0 && matchesFile(st[l], "/runtime/"); l-- {
		st = st[:l]
	}
	return st
}

func matchesFile(f errors.Frame, substrs ...string) bool {
	file, _ := fileLine(f)
	for _, sub := range substrs {
		if strings.Contains(file, sub) {
			return true
		}
	}
	return false
}

func fileLine(f errors.Frame) (string, int) {
	pc := uintptr(f) - 1
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown", 0
	}
	return fn.FileLine(pc)
}

func writeSimpleFrame(s fmt.State, f errors.Frame) {
	file, line := fileLine(f)
	// cut file at "github.com/" to keep the output short
	chunks := strings.SplitN(file, "github.com/", 2)
	if len(chunks) == 2 {
		file = chunks[1]
	}
	fmt.Fprintf(s, " [%s:%d]", file, line)
}

// Format works like pkg/errors, with additions.
// %s is just the error message
// %+v is the full stack trace
// %v appends a compressed [filename:line] where the error
//    was created
func (e *wrappedError) Format(s fmt.State, verb rune) {
	// %+v shows all lines
	if verb == 'v' && s.Flag('+') {
		if st := stackTrace(e); st != nil {
			fmt.Fprintf(s, "%+v\n", trimInternal(st))
		}
	}
	// always print the normal error
	fmt.Fprint(s, e.Error())
	// %v just the first
	if verb == 'v' && !s.Flag('+') {
		if st := stackTrace(e); len(st) > 0 {
			writeSimpleFrame(s, trimInternal(st)[0])
		}
	}
}
