package testutil

import (
	"time"

	"github.com/skosovsky/toolrun"
)

// NewTestRegistry returns a Registry with long timeout and panic recovery enabled,
// suitable for tests. It panics if a tool cannot be registered.
func NewTestRegistry(tools ...toolrun.Tool) *toolrun.Registry {
	reg := toolrun.NewRegistry(
		toolrun.WithDefaultTimeout(30*time.Second),
		toolrun.WithRecoverPanics(true),
	)
	reg.MustRegister(tools...)
	return reg
}
