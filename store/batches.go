package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/contentstack/cli-query-export/types"
)

// AssetMetadata is the per-asset summary collected into the merged
// metadata file.
type AssetMetadata struct {
	UID      string `json:"uid"`
	Filename string `json:"filename,omitempty"`
	URL      string `json:"url,omitempty"`
}

const assetMetadataFileName = "metadata.json"

func assetBatchFileName(n int) string { return fmt.Sprintf("batch-%d.json", n) }

// WriteAssetBatch persists one fetched asset batch keyed by UID. Batches
// are numbered from zero; the merge step consumes them in order.
func (s *Store) WriteAssetBatch(n int, records []json.RawMessage) error {
	dir, err := s.ModuleDir(types.ModuleAssets)
	if err != nil {
		return err
	}

	batch := make(map[string]json.RawMessage, len(records))
	for _, rec := range records {
		var probe struct {
			UID string `json:"uid"`
		}
		if err := json.Unmarshal(rec, &probe); err != nil {
			return fmt.Errorf("parsing asset record in batch %d: %w", n, err)
		}
		if probe.UID == "" {
			return fmt.Errorf("asset record without uid in batch %d", n)
		}
		batch[probe.UID] = rec
	}
	return writeJSONAtomic(filepath.Join(dir, assetBatchFileName(n)), batch)
}

// MergeAssetBatches folds batch files 0..totalBatches-1 into the final
// asset-data file and metadata file, then removes the batch files. The
// loop runs exactly totalBatches iterations. Staging files are swapped in
// atomically; on failure, already-merged output stays on disk for
// inspection and the error propagates.
func (s *Store) MergeAssetBatches(totalBatches int) (int, error) {
	dir, err := s.ModuleDir(types.ModuleAssets)
	if err != nil {
		return 0, err
	}

	merged := make(map[string]json.RawMessage)
	for n := 0; n < totalBatches; n++ {
		path := filepath.Join(dir, assetBatchFileName(n))
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("reading asset batch %d: %w", n, err)
		}
		batch := make(map[string]json.RawMessage)
		if err := json.Unmarshal(data, &batch); err != nil {
			return 0, fmt.Errorf("parsing asset batch %d: %w", n, err)
		}
		for uid, rec := range batch {
			merged[uid] = rec
		}
	}

	metadata := make(map[string]AssetMetadata, len(merged))
	for uid, rec := range merged {
		var probe struct {
			Filename string `json:"filename"`
			URL      string `json:"url"`
		}
		// Metadata fields are best-effort; the full record is already in
		// the merged data file.
		_ = json.Unmarshal(rec, &probe)
		metadata[uid] = AssetMetadata{UID: uid, Filename: probe.Filename, URL: probe.URL}
	}

	if err := writeJSONAtomic(filepath.Join(dir, types.Modules[types.ModuleAssets].FileName), merged); err != nil {
		return 0, err
	}
	if err := writeJSONAtomic(filepath.Join(dir, assetMetadataFileName), metadata); err != nil {
		return 0, err
	}

	for n := 0; n < totalBatches; n++ {
		if err := os.Remove(filepath.Join(dir, assetBatchFileName(n))); err != nil {
			s.log.Warn("could not remove merged batch file", "batch", n, "error", err)
		}
	}
	return len(merged), nil
}
