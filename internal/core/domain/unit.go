package domain

import (
	"context"
	"time"
)

// Unit is one independently retryable piece of work: an identity and a
// producer function. Units share no mutable state with each other.
type Unit struct {
	ID      string
	Produce func(ctx context.Context) (string, error)
}

// Result is the outcome of one unit. Exactly one of Value or Err is
// meaningful; Attempts counts producer invocations including retries.
type Result struct {
	ID       string
	Value    string
	Err      error
	Attempts int
	Elapsed  time.Duration
}

// OK reports whether the unit eventually succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}
