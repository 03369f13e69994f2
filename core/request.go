package core

import (
	"time"

	"github.com/google/uuid"
)

// Request is the evolving record of one prompt as it moves through the
// pipeline. It is created at pipeline start, mutated in place by each step,
// and discarded once the run terminates.
type Request struct {
	ID     string
	Prompt string

	// SceneDescription is the planner agent's enriched description. When
	// empty the raw prompt seeds the specification directly.
	SceneDescription string

	Spec     string
	Plan     string
	Script   string
	Feedback []string
	Attempts int

	Validated  bool
	RenderPath string
	BundlePath string

	CreatedAt time.Time
}

// NewRequest creates a fresh request for a user prompt.
func NewRequest(prompt string) *Request {
	return &Request{
		ID:        uuid.NewString(),
		Prompt:    prompt,
		CreatedAt: time.Now(),
	}
}

func (r *Request) description() string {
	if r.SceneDescription != "" {
		return r.SceneDescription
	}
	return r.Prompt
}
