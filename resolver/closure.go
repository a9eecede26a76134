// Package resolver computes the dependency closure of a query's matches:
// the transitively referenced content types, and the global fields,
// extensions, marketplace apps, and taxonomies those content types need
// to be self-contained on re-import. It also orders modules against the
// static dependency map.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/contentstack/cli-query-export/fetch"
	"github.com/contentstack/cli-query-export/schema"
	"github.com/contentstack/cli-query-export/types"
)

// Persister is the slice of the store the resolver needs: each fetched
// batch is persisted before the next extraction pass reads it back, so a
// crash mid-loop loses no already-fetched data.
type Persister interface {
	SaveContentTypes([]types.ContentType) error
	LoadContentTypes(uids []string) ([]types.ContentType, error)
}

// Resolver expands a seed set of content types to its dependency closure.
type Resolver struct {
	client        fetch.Client
	persister     Persister
	log           *slog.Logger
	maxIterations int
	pageLimit     int
}

// New returns a Resolver. The logger must not be nil in production use;
// a nil logger falls back to slog.Default.
func New(client fetch.Client, persister Persister, log *slog.Logger, cfg types.Config) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	cfg = cfg.WithDefaults()
	return &Resolver{
		client:        client,
		persister:     persister,
		log:           log,
		maxIterations: cfg.MaxIterations,
		pageLimit:     fetch.DefaultPageLimit,
	}
}

// ResolveContentTypes grows seed to the fixed point of the reference
// relation: each pass extracts referenced content-type UIDs from the most
// recently fetched batch, fetches the ones not yet seen, and repeats
// until no new references appear or maxIterations is hit. Hitting the cap
// is a depth cutoff logged as a warning, never an error. The returned
// slice contains the seed records plus every transitively referenced
// content type, each exactly once.
func (r *Resolver) ResolveContentTypes(ctx context.Context, seed []types.ContentType) ([]types.ContentType, error) {
	exported := make(map[string]struct{}, len(seed))
	all := make([]types.ContentType, 0, len(seed))
	currentBatch := seed

	for iteration := 0; ; iteration++ {
		for _, ct := range currentBatch {
			if _, ok := exported[ct.UID]; ok {
				continue
			}
			exported[ct.UID] = struct{}{}
			all = append(all, ct)
		}

		if len(currentBatch) == 0 {
			return all, nil
		}

		// Persist the batch, then extract from the records read back
		// from storage rather than the in-memory copies.
		batchUIDs := contentTypeUIDs(currentBatch)
		if err := r.persister.SaveContentTypes(currentBatch); err != nil {
			return nil, fmt.Errorf("persisting content-type batch: %w", err)
		}
		persisted, err := r.persister.LoadContentTypes(batchUIDs)
		if err != nil {
			return nil, fmt.Errorf("reading back content-type batch: %w", err)
		}

		bundle := schema.NewBundle()
		for _, ct := range persisted {
			schema.Extract(ct.Schema, bundle)
		}

		var newUIDs []string
		for _, uid := range bundle.ContentTypes() {
			if _, ok := exported[uid]; !ok {
				newUIDs = append(newUIDs, uid)
			}
		}
		if len(newUIDs) == 0 {
			r.log.Debug("content-type closure reached fixed point",
				"iterations", iteration+1, "total", len(all))
			return all, nil
		}

		if iteration+1 >= r.maxIterations {
			r.log.Warn("content-type reference depth limit reached; export continues without deeper references",
				"max_iterations", r.maxIterations, "unresolved", newUIDs)
			return all, nil
		}

		r.log.Info("fetching referenced content types",
			"iteration", iteration+1, "new", len(newUIDs))
		items, err := fetch.Drain(ctx, r.client, types.ModuleContentTypes, fetch.InQuery(newUIDs), r.pageLimit)
		if err != nil {
			return nil, err
		}
		fetched, err := parseContentTypes(items)
		if err != nil {
			return nil, err
		}
		currentBatch = fetched
	}
}

// Dependencies is the dependent-module output of one resolution pass.
type Dependencies struct {
	// Bundle holds the discovered global-field, extension, taxonomy, and
	// marketplace-app-installation UID sets.
	Bundle *schema.Bundle

	// ExtensionRecords are the extension records resolved during
	// marketplace disambiguation, keyed by UID. Empty when the
	// disambiguation fetch failed open.
	ExtensionRecords map[string]json.RawMessage
}

// ExtractDependentModules runs the schema extractor over the complete
// content-type set and disambiguates extensions from marketplace apps:
// an extension record carrying both an app UID and an app-installation
// UID is reclassified as a marketplace app. Records that fail to resolve
// stay plain extensions, and a failed disambiguation fetch keeps every
// candidate as a plain extension; losing an extension export is worse
// than mis-classifying it.
func (r *Resolver) ExtractDependentModules(ctx context.Context, contentTypes []types.ContentType) (*Dependencies, error) {
	bundle := schema.NewBundle()
	for _, ct := range contentTypes {
		schema.Extract(ct.Schema, bundle)
	}

	deps := &Dependencies{Bundle: bundle, ExtensionRecords: make(map[string]json.RawMessage)}

	candidates := bundle.Extensions()
	if len(candidates) == 0 {
		return deps, nil
	}

	filter := fetch.InQuery(candidates)
	filter[fetch.ParamIncludeMarketplaceExtensions] = true
	items, err := fetch.Drain(ctx, r.client, types.ModuleExtensions, filter, r.pageLimit)
	if err != nil {
		r.log.Warn("extension disambiguation fetch failed; treating all candidates as plain extensions",
			"candidates", len(candidates), "error", err)
		return deps, nil
	}

	for _, item := range items {
		var ext types.Extension
		if err := json.Unmarshal(item, &ext); err != nil {
			r.log.Warn("skipping unparsable extension record during disambiguation", "error", err)
			continue
		}
		if ext.UID == "" {
			continue
		}
		if ext.IsMarketplaceApp() {
			bundle.ReclassifyExtension(ext.UID, ext.AppInstallationUID)
			continue
		}
		deps.ExtensionRecords[ext.UID] = item
	}
	return deps, nil
}

// ParseContentTypes converts raw fetched records into ContentType values,
// keeping the raw form for lossless persistence.
func ParseContentTypes(items []json.RawMessage) ([]types.ContentType, error) {
	return parseContentTypes(items)
}

func parseContentTypes(items []json.RawMessage) ([]types.ContentType, error) {
	out := make([]types.ContentType, 0, len(items))
	for _, item := range items {
		var ct types.ContentType
		if err := json.Unmarshal(item, &ct); err != nil {
			return nil, fmt.Errorf("parsing content-type record: %w", err)
		}
		if ct.UID == "" {
			return nil, fmt.Errorf("content-type record without uid")
		}
		ct.Raw = item
		out = append(out, ct)
	}
	return out, nil
}

func contentTypeUIDs(cts []types.ContentType) []string {
	uids := make([]string, len(cts))
	for i, ct := range cts {
		uids[i] = ct.UID
	}
	return uids
}
