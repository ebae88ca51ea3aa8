// Package config carries the process-wide, but never global, settings the
// Cholesky driver and the distribution layer need: the default blocksize
// and the collective message-size floor. Callers pass a *Config explicitly
// (or nil to fall back to Default()); nothing here is package-level
// mutable state, per the module-level-mutable-state design note.
package config

import "github.com/dmatrix/dense/internal/trace"

// Config is the explicit configuration record threaded through
// factorization and redistribution entry points.
type Config struct {
	// Blocksize is the default panel width used by the blocked Cholesky
	// driver when a call site does not override it.
	Blocksize int

	// MinCollectiveMsg is the platform's minimum collective message
	// size: portions are clamped to at least this many elements so
	// collectives stay valid for empty tiles.
	MinCollectiveMsg int

	// Tracer receives structured diagnostics; nil disables tracing.
	Tracer *trace.Tracer
}

// Default returns the module's default configuration: Blocksize 128,
// MinCollectiveMsg 1, tracing off.
func Default() *Config {
	return &Config{
		Blocksize:        128,
		MinCollectiveMsg: 1,
		Tracer:           trace.New(trace.Off),
	}
}

// Or returns c if non-nil, otherwise Default(). Call sites use this to
// normalize an optional override in one line.
func Or(c *Config) *Config {
	if c != nil {
		return c
	}
	return Default()
}
