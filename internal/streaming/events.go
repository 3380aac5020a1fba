package streaming

import "github.com/zjrosen/cachebox/internal/asset"

// LoadEvent describes the outcome of one resolution attempt, published on
// the manager's broker for observers such as the CLI progress printer.
type LoadEvent struct {
	Path asset.Path
	Name string
	Err  error
}

// OK reports whether the path resolved.
func (e LoadEvent) OK() bool {
	return e.Err == nil
}
