package models

import "context"

// Analyzer is an external decision provider. It takes the prompt context and
// returns free-form text expected to contain a single JSON object.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string) (string, error)
}

// SnapshotStore persists the whole portfolio snapshot under a fixed key.
// Load returns (nil, nil) when no snapshot exists for the key.
type SnapshotStore interface {
	Load(key string) (*Portfolio, error)
	Save(key string, p *Portfolio) error
}
