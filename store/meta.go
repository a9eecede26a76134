package store

import (
	"path/filepath"
	"time"

	"github.com/contentstack/cli-query-export/types"
)

// QueryMetaFileName is the sidecar summarizing a completed run.
const QueryMetaFileName = "_query-meta.json"

// ModuleMeta records what one module contributed to the export.
type ModuleMeta struct {
	Count int      `json:"count"`
	UIDs  []string `json:"uids,omitempty"`
}

// QueryMeta is the run summary written next to the exported modules.
type QueryMeta struct {
	RunID     string                      `json:"run_id"`
	Branch    string                      `json:"branch"`
	Query     *types.StructuredQuery      `json:"query"`
	Modules   []types.Module              `json:"modules"`
	PerModule map[types.Module]ModuleMeta `json:"per_module"`
	Flags     QueryMetaFlags              `json:"flags"`
	Timestamp time.Time                   `json:"timestamp"`
}

// QueryMetaFlags captures the behavior switches the run used.
type QueryMetaFlags struct {
	SkipReferences   bool `json:"skip_references"`
	SkipDependencies bool `json:"skip_dependencies"`
	SecuredAssets    bool `json:"secured_assets"`
}

// WriteQueryMeta writes the run summary sidecar.
func (s *Store) WriteQueryMeta(meta QueryMeta) error {
	return writeJSONAtomic(filepath.Join(s.root, QueryMetaFileName), meta)
}
