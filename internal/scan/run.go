package scan

import (
	"time"

	"github.com/google/uuid"
)

// Run identifies one invocation of the scanner. Sinks tag their output
// with it.
type Run struct {
	ID        uuid.UUID
	Node      string
	Started   time.Time
	ModelType string
	ModelPath string
	Source    string // archive list
}

// NewRun returns a run with a fresh random ID.
func NewRun(node, modelType, modelPath, source string) Run {
	return Run{
		ID:        uuid.New(),
		Node:      node,
		Started:   time.Now(),
		ModelType: modelType,
		ModelPath: modelPath,
		Source:    source,
	}
}
