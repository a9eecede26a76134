package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/contentstack/cli-query-export/types"
)

// endpoint paths and response envelope keys per module. Modules not
// listed are fetched under their own name.
var modulePaths = map[types.Module]string{
	types.ModuleStack:           "stacks",
	types.ModuleContentTypes:    "content_types",
	types.ModuleGlobalFields:    "global_fields",
	types.ModuleMarketplaceApps: "installations",
	types.ModuleCustomRoles:     "roles",
}

var moduleEnvelopes = map[types.Module]string{
	types.ModuleStack:           "stack",
	types.ModuleContentTypes:    "content_types",
	types.ModuleGlobalFields:    "global_fields",
	types.ModuleExtensions:      "extensions",
	types.ModuleEntries:         "entries",
	types.ModuleAssets:          "assets",
	types.ModuleTaxonomies:      "taxonomies",
	types.ModuleLocales:         "locales",
	types.ModuleEnvironments:    "environments",
	types.ModuleWebhooks:        "webhooks",
	types.ModuleWorkflows:       "workflows",
	types.ModuleLabels:          "labels",
	types.ModuleCustomRoles:     "roles",
	types.ModuleMarketplaceApps: "installations",
}

// HTTPClient talks to the content-management API. It implements Client;
// timeouts and retries are the transport's concern, configured on the
// injected http.Client.
type HTTPClient struct {
	base       *url.URL
	httpClient *http.Client
	apiKey     string
	token      string
	branch     string
}

// NewHTTPClient returns an HTTPClient for baseURL (e.g.
// https://api.contentstack.io/v3) authenticating with the stack API key
// and management token.
func NewHTTPClient(baseURL, apiKey, token, branch string, hc *http.Client) (*HTTPClient, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPClient{base: base, httpClient: hc, apiKey: apiKey, token: token, branch: branch}, nil
}

// requestParamKeys are filter-map entries that the API takes as
// standalone URL parameters, not query terms.
var requestParamKeys = map[string]bool{
	ParamIncludeMarketplaceExtensions: true,
	ParamSecuredAssets:                true,
}

// FetchByQuery implements Client.
func (c *HTTPClient) FetchByQuery(ctx context.Context, module types.Module, filter map[string]interface{}, page Pagination) (Page, error) {
	values := url.Values{}
	values.Set("skip", strconv.Itoa(page.Skip))
	values.Set("limit", strconv.Itoa(page.Limit))
	values.Set("include_count", "true")

	terms := make(map[string]interface{}, len(filter))
	for k, v := range filter {
		if requestParamKeys[k] {
			values.Set(k, fmt.Sprint(v))
			continue
		}
		terms[k] = v
	}
	if len(terms) > 0 {
		q, err := json.Marshal(terms)
		if err != nil {
			return Page{}, fmt.Errorf("encoding %s query: %w", module, err)
		}
		values.Set("query", string(q))
	}

	body, err := c.get(ctx, modulePath(module), values)
	if err != nil {
		return Page{}, &RequestError{Module: module, Err: err}
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Page{}, &RequestError{Module: module, Err: fmt.Errorf("parsing response: %w", err)}
	}

	var p Page
	if items, ok := envelope[moduleEnvelope(module)]; ok {
		if err := json.Unmarshal(items, &p.Items); err != nil {
			// Singleton modules (stack) wrap one object, not an array.
			p.Items = []json.RawMessage{items}
		}
	}
	if count, ok := envelope["count"]; ok {
		if err := json.Unmarshal(count, &p.TotalCount); err != nil {
			return Page{}, &RequestError{Module: module, Err: fmt.Errorf("parsing count: %w", err)}
		}
	} else {
		p.TotalCount = len(p.Items)
	}
	return p, nil
}

// FetchByUID implements Client.
func (c *HTTPClient) FetchByUID(ctx context.Context, module types.Module, uid string) (json.RawMessage, error) {
	body, err := c.get(ctx, modulePath(module)+"/"+url.PathEscape(uid), nil)
	if err != nil {
		return nil, &RequestError{Module: module, Err: err}
	}

	// Single-record responses wrap the record under its singular name;
	// fall back to the whole body when no known wrapper is present.
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &RequestError{Module: module, Err: fmt.Errorf("parsing response: %w", err)}
	}
	for _, key := range []string{singular(module), moduleEnvelope(module)} {
		if item, ok := envelope[key]; ok {
			return item, nil
		}
	}
	return body, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, values url.Values) ([]byte, error) {
	u := *c.base
	u.Path = u.Path + "/" + path
	if values != nil {
		u.RawQuery = values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("api_key", c.apiKey)
	req.Header.Set("authorization", c.token)
	if c.branch != "" {
		req.Header.Set("branch", c.branch)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s: %s", u.Path, resp.Status, truncate(body, 200))
	}
	return body, nil
}

func modulePath(m types.Module) string {
	if p, ok := modulePaths[m]; ok {
		return p
	}
	return string(m)
}

func moduleEnvelope(m types.Module) string {
	if k, ok := moduleEnvelopes[m]; ok {
		return k
	}
	return string(m)
}

func singular(m types.Module) string {
	switch m {
	case types.ModuleContentTypes:
		return "content_type"
	case types.ModuleGlobalFields:
		return "global_field"
	case types.ModuleExtensions:
		return "extension"
	case types.ModuleEntries:
		return "entry"
	case types.ModuleAssets:
		return "asset"
	case types.ModuleTaxonomies:
		return "taxonomy"
	case types.ModuleMarketplaceApps:
		return "installation"
	}
	return string(m)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
