package types

import "time"

// Config carries every knob a run needs. It is resolved once by the CLI
// (flags, environment, optional external file) and passed by value into
// component constructors; nothing mutates it after load.
type Config struct {
	// StackAPIKey identifies the stack being exported from.
	StackAPIKey string

	// Branch selects the content branch; records are written under
	// ExportDir/Branch.
	Branch string

	// ExportDir is the destination root for all exported files.
	ExportDir string

	// SkipReferences disables the referenced-content-type closure loop:
	// only directly queried content types are exported.
	SkipReferences bool

	// SkipDependencies disables dependent-module extraction (global
	// fields, extensions, marketplace apps, taxonomies).
	SkipDependencies bool

	// SecuredAssets requests signed asset URLs from the fetch collaborator.
	SecuredAssets bool

	// MaxIterations bounds the referenced-content-type closure loop.
	// Hitting the bound is a depth cutoff, not an error.
	MaxIterations int

	// AssetBatchSize is the number of assets fetched and written per
	// export batch.
	AssetBatchSize int

	// AssetBatchDelay is the settling delay between entry export and
	// asset extraction, and between asset batches.
	AssetBatchDelay time.Duration

	// MaxQueryDepth bounds filter-object nesting during strict query
	// validation.
	MaxQueryDepth int

	// MaxArrayOperands bounds the cardinality of array operands such as
	// $in lists during strict query validation.
	MaxArrayOperands int

	// FetchCacheSize sizes the by-UID fetch memoization cache.
	FetchCacheSize int
}

// Defaults for the tunable limits. Exposed so tests and the CLI agree on
// one source of truth.
const (
	DefaultMaxIterations    = 10
	DefaultAssetBatchSize   = 100
	DefaultAssetBatchDelay  = 3 * time.Second
	DefaultMaxQueryDepth    = 5
	DefaultMaxArrayOperands = 1000
	DefaultFetchCacheSize   = 512
	DefaultBranch           = "main"
)

// WithDefaults returns a copy of c with every zero-valued limit replaced
// by its default.
func (c Config) WithDefaults() Config {
	if c.Branch == "" {
		c.Branch = DefaultBranch
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.AssetBatchSize <= 0 {
		c.AssetBatchSize = DefaultAssetBatchSize
	}
	if c.AssetBatchDelay <= 0 {
		c.AssetBatchDelay = DefaultAssetBatchDelay
	}
	if c.MaxQueryDepth <= 0 {
		c.MaxQueryDepth = DefaultMaxQueryDepth
	}
	if c.MaxArrayOperands <= 0 {
		c.MaxArrayOperands = DefaultMaxArrayOperands
	}
	if c.FetchCacheSize <= 0 {
		c.FetchCacheSize = DefaultFetchCacheSize
	}
	return c
}
