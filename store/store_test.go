package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/contentstack/cli-query-export/schema"
	"github.com/contentstack/cli-query-export/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := types.Config{ExportDir: t.TempDir(), Branch: "main"}
	return New(cfg, nil)
}

func TestSaveAndLoadContentTypes(t *testing.T) {
	s := newTestStore(t)

	blog := types.ContentType{
		UID: "blog",
		Schema: []schema.Field{
			{UID: "author", DataType: schema.DataTypeReference, ReferenceTo: schema.ReferenceList{"author"}},
		},
	}
	if err := s.SaveContentTypes([]types.ContentType{blog}); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A later batch must extend the aggregate, not replace it.
	author := types.ContentType{UID: "author", Schema: []schema.Field{{UID: "name", DataType: "text"}}}
	if err := s.SaveContentTypes([]types.ContentType{author}); err != nil {
		t.Fatalf("save second batch: %v", err)
	}

	loaded, err := s.LoadContentTypes([]string{"blog", "author"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d content types, want 2", len(loaded))
	}
	if loaded[0].UID != "blog" || len(loaded[0].Schema) != 1 {
		t.Errorf("blog record round trip broken: %+v", loaded[0])
	}

	aggregate := make(map[string]json.RawMessage)
	if err := s.ReadModuleFile(types.ModuleContentTypes, &aggregate); err != nil {
		t.Fatalf("read aggregate: %v", err)
	}
	if len(aggregate) != 2 {
		t.Errorf("aggregate has %d records, want 2", len(aggregate))
	}
}

func TestLoadContentTypesMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.LoadContentTypes([]string{"ghost"}); err == nil {
		t.Fatal("expected error for missing record file")
	}
}

func TestWriteModuleFileAtomic(t *testing.T) {
	s := newTestStore(t)
	if err := s.WriteModuleFile(types.ModuleLocales, map[string]string{"en-us": "English"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	dir, _ := s.ModuleDir(types.ModuleLocales)
	if _, err := os.Stat(filepath.Join(dir, "locales.json.tmp")); !os.IsNotExist(err) {
		t.Error("staging file left behind after write")
	}

	var locales map[string]string
	if err := s.ReadModuleFile(types.ModuleLocales, &locales); err != nil {
		t.Fatalf("read: %v", err)
	}
	if locales["en-us"] != "English" {
		t.Errorf("round trip mismatch: %v", locales)
	}
}

func TestAssetBatchMerge(t *testing.T) {
	s := newTestStore(t)

	// 250 asset records at batch size 100 produce batches of 100/100/50.
	total := 250
	batchSize := 100
	batchNum := 0
	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		var records []json.RawMessage
		for i := start; i < end; i++ {
			records = append(records, json.RawMessage(fmt.Sprintf(
				`{"uid":"asset_%03d","filename":"f%d.png","url":"https://images.contentstack.io/v3/assets/stack/asset_%03d/f%d.png"}`,
				i, i, i, i)))
		}
		if err := s.WriteAssetBatch(batchNum, records); err != nil {
			t.Fatalf("write batch %d: %v", batchNum, err)
		}
		batchNum++
	}
	if batchNum != 3 {
		t.Fatalf("wrote %d batches, want 3", batchNum)
	}

	count, err := s.MergeAssetBatches(batchNum)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if count != total {
		t.Errorf("merged %d assets, want %d", count, total)
	}

	merged := make(map[string]json.RawMessage)
	if err := s.ReadModuleFile(types.ModuleAssets, &merged); err != nil {
		t.Fatalf("read merged: %v", err)
	}
	if len(merged) != total {
		t.Errorf("merged file has %d keys, want %d", len(merged), total)
	}

	dir, _ := s.ModuleDir(types.ModuleAssets)
	metaData, err := os.ReadFile(filepath.Join(dir, assetMetadataFileName))
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	metadata := make(map[string]AssetMetadata)
	if err := json.Unmarshal(metaData, &metadata); err != nil {
		t.Fatalf("parse metadata: %v", err)
	}
	if len(metadata) != total {
		t.Errorf("metadata has %d keys, want %d", len(metadata), total)
	}
	if metadata["asset_007"].Filename != "f7.png" {
		t.Errorf("metadata fields not carried: %+v", metadata["asset_007"])
	}

	// Batch files are cleaned up after the merge.
	for n := 0; n < batchNum; n++ {
		if _, err := os.Stat(filepath.Join(dir, assetBatchFileName(n))); !os.IsNotExist(err) {
			t.Errorf("batch file %d not removed", n)
		}
	}
}

func TestMergeAssetBatchesMissingBatch(t *testing.T) {
	s := newTestStore(t)
	if err := s.WriteAssetBatch(0, []json.RawMessage{json.RawMessage(`{"uid":"a"}`)}); err != nil {
		t.Fatal(err)
	}
	// Asking for two batches when only one exists must fail, not silently
	// merge fewer.
	if _, err := s.MergeAssetBatches(2); err == nil {
		t.Fatal("expected error for missing batch file")
	}
}

func TestWriteQueryMeta(t *testing.T) {
	s := newTestStore(t)
	meta := QueryMeta{
		RunID:   "run-1",
		Branch:  "main",
		Modules: []types.Module{types.ModuleStack, types.ModuleContentTypes},
		PerModule: map[types.Module]ModuleMeta{
			types.ModuleContentTypes: {Count: 2, UIDs: []string{"blog", "author"}},
		},
	}
	if err := s.WriteQueryMeta(meta); err != nil {
		t.Fatalf("write meta: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.Root(), QueryMetaFileName))
	if err != nil {
		t.Fatalf("read meta: %v", err)
	}
	var back QueryMeta
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("parse meta: %v", err)
	}
	if diff := cmp.Diff(meta.PerModule, back.PerModule); diff != "" {
		t.Errorf("per-module meta mismatch (-want +got):\n%s", diff)
	}
}

func TestAcquireRelease(t *testing.T) {
	s := newTestStore(t)
	if err := s.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := s.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
}
