// Package fetch defines the boundary to the content-management API. The
// export pipeline only ever talks to the Client interface; transports
// (HTTP, or an external export command) live behind it.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/contentstack/cli-query-export/types"
)

// Pagination selects one page of a query result.
type Pagination struct {
	Skip  int
	Limit int
}

// DefaultPageLimit is used when a caller passes a zero Limit.
const DefaultPageLimit = 100

// Page is one page of records plus the total match count, which drives
// pagination: callers consume pages until skip >= TotalCount.
type Page struct {
	Items      []json.RawMessage
	TotalCount int
}

// Client is the abstract fetch capability.
type Client interface {
	// FetchByQuery returns one page of module records matching filter.
	FetchByQuery(ctx context.Context, module types.Module, filter map[string]interface{}, page Pagination) (Page, error)

	// FetchByUID returns a single record.
	FetchByUID(ctx context.Context, module types.Module, uid string) (json.RawMessage, error)
}

// RequestError wraps a failure contacting the fetch collaborator. It is
// fatal for the current module unless the call site has an explicit
// fallback.
type RequestError struct {
	Module types.Module
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Module, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Drain consumes every page of a query until skip reaches the reported
// total count and returns the concatenated items.
func Drain(ctx context.Context, c Client, module types.Module, filter map[string]interface{}, limit int) ([]json.RawMessage, error) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	var items []json.RawMessage
	skip := 0
	for {
		page, err := c.FetchByQuery(ctx, module, filter, Pagination{Skip: skip, Limit: limit})
		if err != nil {
			return nil, &RequestError{Module: module, Err: err}
		}
		items = append(items, page.Items...)

		skip += limit
		if skip >= page.TotalCount || len(page.Items) == 0 {
			return items, nil
		}
	}
}

// Request options ride in the filter map at the Client boundary so the
// interface stays transport-neutral; transports that distinguish filter
// terms from request parameters route these keys separately (see
// HTTPClient.FetchByQuery).
const (
	// ParamIncludeMarketplaceExtensions asks an extensions query to also
	// return extensions installed by marketplace apps.
	ParamIncludeMarketplaceExtensions = "include_marketplace_extensions"

	// ParamSecuredAssets asks an assets query for secured download URLs.
	ParamSecuredAssets = "secured_assets"
)

// InQuery builds the `uid $in uids` filter used for batched by-UID
// fetches.
func InQuery(uids []string) map[string]interface{} {
	vals := make([]interface{}, len(uids))
	for i, uid := range uids {
		vals[i] = uid
	}
	return map[string]interface{}{"uid": map[string]interface{}{"$in": vals}}
}
