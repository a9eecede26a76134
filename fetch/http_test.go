package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/contentstack/cli-query-export/types"
)

func TestHTTPClientFetchByQuery(t *testing.T) {
	var gotQuery, gotSkip string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/content_types" {
			t.Errorf("path = %s, want /v3/content_types", r.URL.Path)
		}
		if r.Header.Get("api_key") != "stack_key" {
			t.Errorf("api_key header = %q", r.Header.Get("api_key"))
		}
		gotQuery = r.URL.Query().Get("query")
		gotSkip = r.URL.Query().Get("skip")
		fmt.Fprint(w, `{"content_types":[{"uid":"blog"}],"count":1}`)
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL+"/v3", "stack_key", "token", "main", server.Client())
	if err != nil {
		t.Fatal(err)
	}

	page, err := client.FetchByQuery(context.Background(), types.ModuleContentTypes,
		map[string]interface{}{"uid": "blog"}, Pagination{Skip: 0, Limit: 50})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.TotalCount != 1 || len(page.Items) != 1 {
		t.Errorf("page = %+v, want one item with count 1", page)
	}
	if gotSkip != "0" {
		t.Errorf("skip param = %q, want 0", gotSkip)
	}
	var filter map[string]interface{}
	if err := json.Unmarshal([]byte(gotQuery), &filter); err != nil {
		t.Fatalf("query param not JSON: %q", gotQuery)
	}
	if filter["uid"] != "blog" {
		t.Errorf("filter = %v", filter)
	}
}

func TestHTTPClientRoutesRequestParams(t *testing.T) {
	var gotParam, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotParam = r.URL.Query().Get("include_marketplace_extensions")
		gotQuery = r.URL.Query().Get("query")
		fmt.Fprint(w, `{"extensions":[],"count":0}`)
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL+"/v3", "k", "t", "", server.Client())
	if err != nil {
		t.Fatal(err)
	}

	filter := InQuery([]string{"ext_1"})
	filter[ParamIncludeMarketplaceExtensions] = true
	if _, err := client.FetchByQuery(context.Background(), types.ModuleExtensions, filter, Pagination{Limit: 10}); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	// The option travels as its own URL parameter, never inside the
	// serialized query object.
	if gotParam != "true" {
		t.Errorf("include_marketplace_extensions param = %q, want true", gotParam)
	}
	var terms map[string]interface{}
	if err := json.Unmarshal([]byte(gotQuery), &terms); err != nil {
		t.Fatalf("query param not JSON: %q", gotQuery)
	}
	if _, ok := terms[ParamIncludeMarketplaceExtensions]; ok {
		t.Errorf("query object carries the request param: %q", gotQuery)
	}
	if _, ok := terms["uid"]; !ok {
		t.Errorf("query object lost the uid filter: %q", gotQuery)
	}
}

func TestHTTPClientFetchByUID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/taxonomies/regions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"taxonomy":{"uid":"regions","name":"Regions"}}`)
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL+"/v3", "k", "t", "", server.Client())
	if err != nil {
		t.Fatal(err)
	}

	item, err := client.FetchByUID(context.Background(), types.ModuleTaxonomies, "regions")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	var record struct {
		UID string `json:"uid"`
	}
	if err := json.Unmarshal(item, &record); err != nil || record.UID != "regions" {
		t.Errorf("record = %s, err = %v", item, err)
	}
}

func TestHTTPClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error_message":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL+"/v3", "k", "bad", "", server.Client())
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.FetchByQuery(context.Background(), types.ModuleLocales, nil, Pagination{Limit: 10})
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if _, ok := err.(*RequestError); !ok {
		t.Errorf("expected *RequestError, got %T", err)
	}
}
