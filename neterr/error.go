// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

package neterr

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Error is the single error type returned by the network subsystem.
//
// An Error carries exactly one Kind, fixed when the error is first created,
// and a causal chain. Every WithContext call adds a new node on top of the
// chain; nodes are never modified after construction, so an Error can be
// shared between goroutines freely.
type Error struct {
	kind Kind
	// msg is the annotation of a context node, empty otherwise.
	msg string
	// tagged marks the node that attached the kind to a native cause.
	tagged bool
	cause  error
}

// Kind returns the tag of the error.
func (e *Error) Kind() Kind {
	return e.kind
}

func (e *Error) head() string {
	switch {
	case e.msg != "":
		return e.msg
	case e.tagged:
		return e.kind.Error()
	default:
		return ""
	}
}

// Error renders the outer context first, then the category and finally the
// root cause, e.g. "dial peer: io error: connection refused".
func (e *Error) Error() string {
	head := e.head()
	if e.cause == nil {
		return head
	}
	if head == "" {
		return e.cause.Error()
	}
	return head + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is the Kind of e.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.kind
}

// WithContext returns a new error annotated with msg. The kind is preserved.
func (e *Error) WithContext(msg string) *Error {
	return &Error{kind: e.kind, msg: msg, cause: e}
}

func (e *Error) WithContextf(format string, args ...any) *Error {
	return e.WithContext(fmt.Sprintf(format, args...))
}

// Root returns the first error in the chain that is not an *Error, or nil
// when the error was built from a bare kind.
func (e *Error) Root() error {
	var cur error = e
	for {
		ne, ok := cur.(*Error)
		if !ok {
			return cur
		}
		if ne.cause == nil {
			return nil
		}
		cur = ne.cause
	}
}

// causes lists the text of every link in the chain, outermost first.
func (e *Error) causes() []string {
	var out []string
	var cur error = e
	for cur != nil {
		if ne, ok := cur.(*Error); ok {
			if h := ne.head(); h != "" {
				out = append(out, h)
			}
			cur = ne.cause
			continue
		}
		out = append(out, cur.Error())
		cur = errors.Unwrap(cur)
	}
	return out
}

// Format implements fmt.Formatter. %+v renders the kind followed by every
// link of the causal chain on its own line.
func (e *Error) Format(f fmt.State, verb rune) {
	switch verb {
	case 'v':
		if f.Flag('+') {
			_, _ = io.WriteString(f, e.detail())
			return
		}
		_, _ = io.WriteString(f, e.Error())
	case 's':
		_, _ = io.WriteString(f, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(f, "%q", e.Error())
	}
}

func (e *Error) detail() string {
	var b strings.Builder
	b.WriteString(e.kind.String())
	b.WriteString(": ")
	b.WriteString(e.Error())

	causes := e.causes()
	if len(causes) > 1 {
		b.WriteString("\n\nCaused by:")
		for i, c := range causes {
			fmt.Fprintf(&b, "\n    %d: %s", i, c)
		}
	}
	return b.String()
}

func (e *Error) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", e.kind.String()),
		slog.String("error", e.Error()),
	)
}
