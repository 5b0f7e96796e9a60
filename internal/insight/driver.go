// Package insight turns aggregated match statistics into a narrative report
// through a pluggable generation driver.
package insight

import "context"

// Request is one generation call.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int64
}

// Driver is a text generation backend. Complete returns the full response
// text; drivers surface throttling through their error values.
type Driver interface {
	Complete(ctx context.Context, req Request) (string, error)
	Model() string
}
