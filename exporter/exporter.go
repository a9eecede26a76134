// Package exporter drives the end-to-end export sequence: general modules,
// queried modules, the referenced-content-type closure, dependent modules,
// entries, and finally assets in batches. Steps run strictly in order
// because each step's input is the previous step's committed output.
package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/contentstack/cli-query-export/assets"
	"github.com/contentstack/cli-query-export/fetch"
	"github.com/contentstack/cli-query-export/internal/runctx"
	"github.com/contentstack/cli-query-export/resolver"
	"github.com/contentstack/cli-query-export/store"
	"github.com/contentstack/cli-query-export/types"
)

// Exporter orchestrates one export run.
type Exporter struct {
	cfg      types.Config
	client   fetch.Client
	store    *store.Store
	resolver *resolver.Resolver
	log      *slog.Logger
	run      runctx.Context

	// sleep is swapped out in tests so settling delays don't slow them.
	sleep func(time.Duration)

	ledger    *types.ExportedModulesLedger
	perModule map[types.Module]store.ModuleMeta
}

// New wires an Exporter from its collaborators. cfg must already carry
// defaults (see Config.WithDefaults).
func New(cfg types.Config, client fetch.Client, st *store.Store, log *slog.Logger) *Exporter {
	run := runctx.New(cfg.Branch)
	log = run.Logger(log)
	return &Exporter{
		cfg:       cfg,
		client:    client,
		store:     st,
		resolver:  resolver.New(client, st, log, cfg),
		log:       log,
		run:       run,
		sleep:     time.Sleep,
		ledger:    types.NewLedger(),
		perModule: make(map[types.Module]store.ModuleMeta),
	}
}

// Run executes the full export sequence for the validated query.
func (e *Exporter) Run(ctx context.Context, q *types.StructuredQuery) error {
	if err := e.store.Acquire(ctx); err != nil {
		return err
	}
	defer func() {
		if err := e.store.Release(); err != nil {
			e.log.Warn("releasing export lock", "error", err)
		}
	}()

	e.log.Info("export run starting", "export_dir", e.store.Root())

	// Step 1: general modules, no dependency logic.
	for _, m := range types.GeneralModules {
		if _, err := e.exportModule(ctx, m, nil); err != nil {
			return err
		}
	}

	// Step 2: queried modules, filters passed through. Content types are
	// kept in hand as the closure seed.
	var seed []types.ContentType
	for _, m := range q.TargetModules() {
		items, err := e.exportModule(ctx, m, q.Filter(m))
		if err != nil {
			return err
		}
		if m == types.ModuleContentTypes {
			// writeModuleRecords already persisted the batch; the
			// closure loop re-persists through SaveContentTypes.
			seed, err = resolver.ParseContentTypes(items)
			if err != nil {
				return err
			}
		}
	}

	// Step 3: grow the seed to its reference closure.
	contentTypes := seed
	if e.cfg.SkipReferences {
		e.log.Info("skipping referenced-content-type resolution")
	} else {
		var err error
		contentTypes, err = e.resolver.ResolveContentTypes(ctx, seed)
		if err != nil {
			return err
		}
		e.setMeta(types.ModuleContentTypes, contentTypeUIDs(contentTypes))
	}

	// Step 4: dependent modules discovered from the complete set.
	if e.cfg.SkipDependencies {
		e.log.Info("skipping dependent-module extraction")
	} else if err := e.exportDependentModules(ctx, contentTypes); err != nil {
		return err
	}

	// Step 5: entries for every content type now known.
	if err := e.exportEntries(ctx, contentTypes); err != nil {
		return err
	}

	// Step 6: assets referenced by the exported entries, in batches.
	if err := e.exportAssets(ctx); err != nil {
		return err
	}

	return e.writeMeta(q)
}

// exportModule drains every record of m matching filter and writes the
// module's aggregate file (plus per-record files where the module keeps
// them). Returns the raw records for callers that need them.
func (e *Exporter) exportModule(ctx context.Context, m types.Module, filter map[string]interface{}) ([]json.RawMessage, error) {
	items, err := fetch.Drain(ctx, e.client, m, filter, fetch.DefaultPageLimit)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		e.log.Warn("module matched no records", "module", m)
	}

	if err := e.writeModuleRecords(m, items); err != nil {
		return nil, err
	}
	e.ledger.Add(m)
	e.setMeta(m, recordUIDs(items))
	e.log.Info("module exported", "module", m, "count", len(items))
	return items, nil
}

// writeModuleRecords persists items keyed by uid where possible.
func (e *Exporter) writeModuleRecords(m types.Module, items []json.RawMessage) error {
	keyed := make(map[string]json.RawMessage, len(items))
	for i, item := range items {
		uid := recordUID(item)
		if uid == "" {
			uid = fmt.Sprintf("record-%d", i)
		}
		keyed[uid] = item
		if types.Modules[m].PerRecordFiles {
			if err := e.store.WriteRecordFile(m, uid, item); err != nil {
				return err
			}
		}
	}
	return e.store.WriteModuleFile(m, keyed)
}

func (e *Exporter) exportDependentModules(ctx context.Context, contentTypes []types.ContentType) error {
	deps, err := e.resolver.ExtractDependentModules(ctx, contentTypes)
	if err != nil {
		return err
	}

	if uids := deps.Bundle.GlobalFields(); len(uids) > 0 {
		if _, err := e.exportModule(ctx, types.ModuleGlobalFields, fetch.InQuery(uids)); err != nil {
			return err
		}
	}

	if uids := deps.Bundle.Extensions(); len(uids) > 0 {
		if err := e.exportExtensions(ctx, uids, deps.ExtensionRecords); err != nil {
			return err
		}
	}

	if installUIDs := deps.Bundle.AppInstallationUIDs(); len(installUIDs) > 0 {
		if err := e.exportByUID(ctx, types.ModuleMarketplaceApps, installUIDs); err != nil {
			return err
		}
	}

	if uids := deps.Bundle.Taxonomies(); len(uids) > 0 {
		if err := e.exportByUID(ctx, types.ModuleTaxonomies, uids); err != nil {
			return err
		}
	}
	return nil
}

// exportExtensions writes the extension records already resolved during
// disambiguation and fetches the rest individually (the cached client
// makes re-requests cheap).
func (e *Exporter) exportExtensions(ctx context.Context, uids []string, resolved map[string]json.RawMessage) error {
	items := make([]json.RawMessage, 0, len(uids))
	for _, uid := range uids {
		if item, ok := resolved[uid]; ok {
			items = append(items, item)
			continue
		}
		item, err := e.client.FetchByUID(ctx, types.ModuleExtensions, uid)
		if err != nil {
			return &fetch.RequestError{Module: types.ModuleExtensions, Err: err}
		}
		items = append(items, item)
	}

	if err := e.writeModuleRecords(types.ModuleExtensions, items); err != nil {
		return err
	}
	e.ledger.Add(types.ModuleExtensions)
	e.setMeta(types.ModuleExtensions, uids)
	e.log.Info("module exported", "module", types.ModuleExtensions, "count", len(items))
	return nil
}

// exportByUID fetches each record individually and writes the module.
func (e *Exporter) exportByUID(ctx context.Context, m types.Module, uids []string) error {
	items := make([]json.RawMessage, 0, len(uids))
	for _, uid := range uids {
		item, err := e.client.FetchByUID(ctx, m, uid)
		if err != nil {
			return &fetch.RequestError{Module: m, Err: err}
		}
		items = append(items, item)
	}

	if err := e.writeModuleRecords(m, items); err != nil {
		return err
	}
	e.ledger.Add(m)
	e.setMeta(m, uids)
	e.log.Info("module exported", "module", m, "count", len(items))
	return nil
}

func (e *Exporter) exportEntries(ctx context.Context, contentTypes []types.ContentType) error {
	// The directory must exist even when no content type matched: the
	// asset scan walks it unconditionally in the next step.
	if _, err := e.store.ModuleDir(types.ModuleEntries); err != nil {
		return err
	}

	total := 0
	for _, ct := range contentTypes {
		filter := map[string]interface{}{"content_type_uid": ct.UID}
		items, err := fetch.Drain(ctx, e.client, types.ModuleEntries, filter, fetch.DefaultPageLimit)
		if err != nil {
			return err
		}

		keyed := make(map[string]json.RawMessage, len(items))
		for i, item := range items {
			uid := recordUID(item)
			if uid == "" {
				uid = fmt.Sprintf("entry-%d", i)
			}
			keyed[uid] = item
		}
		if err := e.store.WriteEntries(ct.UID, keyed); err != nil {
			return err
		}
		total += len(items)
	}

	e.ledger.Add(types.ModuleEntries)
	e.perModule[types.ModuleEntries] = store.ModuleMeta{Count: total}
	e.log.Info("entries exported", "content_types", len(contentTypes), "count", total)
	return nil
}

func (e *Exporter) exportAssets(ctx context.Context) error {
	// Let step 5's writes land before scanning them back.
	e.sleep(e.cfg.AssetBatchDelay)

	set, err := assets.NewExtractor(e.log).ExtractFromDir(e.store.EntriesDir())
	if err != nil {
		return err
	}
	uids := set.UIDs()
	if len(uids) == 0 {
		e.log.Info("no asset references found in exported entries")
		return nil
	}

	batchSize := e.cfg.AssetBatchSize
	totalBatches := (len(uids) + batchSize - 1) / batchSize
	e.log.Info("exporting assets", "count", len(uids), "batches", totalBatches)

	for n := 0; n < totalBatches; n++ {
		start := n * batchSize
		end := start + batchSize
		if end > len(uids) {
			end = len(uids)
		}

		filter := fetch.InQuery(uids[start:end])
		if e.cfg.SecuredAssets {
			filter[fetch.ParamSecuredAssets] = true
		}
		items, err := fetch.Drain(ctx, e.client, types.ModuleAssets, filter, fetch.DefaultPageLimit)
		if err != nil {
			return err
		}
		if err := e.store.WriteAssetBatch(n, items); err != nil {
			return err
		}
		if n+1 < totalBatches {
			e.sleep(e.cfg.AssetBatchDelay)
		}
	}

	merged, err := e.store.MergeAssetBatches(totalBatches)
	if err != nil {
		return err
	}
	e.ledger.Add(types.ModuleAssets)
	e.perModule[types.ModuleAssets] = store.ModuleMeta{Count: merged}
	e.log.Info("assets merged", "count", merged, "batches", totalBatches)
	return nil
}

func (e *Exporter) writeMeta(q *types.StructuredQuery) error {
	ordered, err := resolver.OrderModules(e.ledger.Modules())
	if err != nil {
		return err
	}

	return e.store.WriteQueryMeta(store.QueryMeta{
		RunID:     e.run.RunID,
		Branch:    e.cfg.Branch,
		Query:     q,
		Modules:   ordered,
		PerModule: e.perModule,
		Flags: store.QueryMetaFlags{
			SkipReferences:   e.cfg.SkipReferences,
			SkipDependencies: e.cfg.SkipDependencies,
			SecuredAssets:    e.cfg.SecuredAssets,
		},
		Timestamp: time.Now().UTC(),
	})
}

func (e *Exporter) setMeta(m types.Module, uids []string) {
	e.perModule[m] = store.ModuleMeta{Count: len(uids), UIDs: uids}
}

func contentTypeUIDs(cts []types.ContentType) []string {
	uids := make([]string, len(cts))
	for i, ct := range cts {
		uids[i] = ct.UID
	}
	return uids
}

func recordUID(item json.RawMessage) string {
	var probe struct {
		UID string `json:"uid"`
	}
	_ = json.Unmarshal(item, &probe)
	return probe.UID
}

func recordUIDs(items []json.RawMessage) []string {
	uids := make([]string, 0, len(items))
	for _, item := range items {
		if uid := recordUID(item); uid != "" {
			uids = append(uids, uid)
		}
	}
	return uids
}
