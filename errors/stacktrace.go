package errors

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// stackTrace returns the first found stack trace frame carried by given error
// or any wrapped error. It returns nil if no stack trace is found.
func stackTrace(err error) errors.StackTrace {
	type stackTracer interface {
		StackTrace() errors.StackTrace
	}

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

// Format implements fmt.Formatter so the full trace is printed with %+v and a
// compressed [file:line] information with %v.
func (e *wrappedError) Format(s fmt.State, verb rune) {
	// If the stack trace is not available, there is nothing to add.
	st := stackTrace(e)
	if st == nil {
		fmt.Fprint(s, e.Error())
		return
	}

	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s\n", e.Error())
			for _, f := range trimInternal(st) {
				fmt.Fprintf(s, "%+v\n", f)
			}
			return
		}
		fmt.Fprintf(s, "%s [%s]", e.Error(), writeSimpleFrame(trimInternal(st)))
	default:
		fmt.Fprint(s, e.Error())
	}
}

// trimInternal removes the frames of this package and of the go runtime from
// the stack, so that the first frame is where the error was created.
func trimInternal(st errors.StackTrace) errors.StackTrace {
	// trim our internal parts here
	// manual error creation, or runtime for caught panics
	for len(st) > 0 && matchesFunc(st[0],
		// where we create errors
		"github.com/iov-one/custody/errors.Wrap",
		"github.com/iov-one/custody/errors.Wrapf",
		"github.com/iov-one/custody/errors.Recover",
		// runtime are added on panics
		"runtime.",
	) {
		st = st[1:]
	}
	// trim out outer wrappers (runtime.goexit and test library if present)
	for l := len(st) - 1; l > 0 && matchesFunc(st[l], "runtime.", "testing."); l-- {
		st = st[:l]
	}
	return st
}

func matchesFunc(f errors.Frame, prefixes ...string) bool {
	fn := funcName(f)
	for _, prefix := range prefixes {
		if strings.HasPrefix(fn, prefix) {
			return true
		}
	}
	return false
}

// funcName returns the name of this function, if known.
func funcName(f errors.Frame) string {
	// this looks a bit like magic, but follows example here:
	// https://github.com/pkg/errors/blob/v0.8.1/stack.go#L43-L50
	pc := uintptr(f) - 1
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown"
	}
	return fn.Name()
}

func writeSimpleFrame(st errors.StackTrace) string {
	if len(st) == 0 {
		return ""
	}
	// %+s gives "fn\n\tfile", %d gives the line
	frame := st[0]
	file, line := fileLine(frame)
	// cut the file to the last two path elements
	chunks := strings.Split(file, "/")
	if len(chunks) > 2 {
		file = strings.Join(chunks[len(chunks)-2:], "/")
	}
	return fmt.Sprintf("%s:%d", file, line)
}

func fileLine(f errors.Frame) (string, int) {
	fn := runtime.FuncForPC(uintptr(f) - 1)
	if fn == nil {
		return "unknown", 0
	}
	return fn.FileLine(uintptr(f) - 1)
}
