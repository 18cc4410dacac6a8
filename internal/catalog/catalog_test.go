package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"contract-agent/internal/config"
)

const sampleCatalog = `[
  {"name":"0x1::bank::getBalance","_id":"t1","type":"tool","tool":{"description":"Read balance","type":"view","params":{"owner":{"type":"address","description":"account"}}}},
  {"name":"addRFP","_id":"t2","type":"tool","tool":{"description":"Create an RFP","type":"entry","params":{"title":{"type":"vector<u8>","description":"title"},"budget":{"type":"u64","description":"budget"}}}}
]`

func TestHTTPSource_FetchSendsQueryAndDecodes(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"user_id": r.URL.Query().Get("user_id"),
			"type":    r.URL.Query().Get("type"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleCatalog))
	}))
	t.Cleanup(srv.Close)

	src := NewHTTPSource(srv.URL+"/api/tools", "kurodenjiro", "view", time.Second)
	entries, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotQuery["user_id"] != "kurodenjiro" || gotQuery["type"] != "view" {
		t.Fatalf("query = %v", gotQuery)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].ID != "t1" || entries[0].Kind() != KindView {
		t.Fatalf("entries[0] = %#v", entries[0])
	}
	if entries[1].Kind() != KindEntry || entries[1].Tool.Params["budget"].Type != "u64" {
		t.Fatalf("entries[1] = %#v", entries[1])
	}
}

func TestHTTPSource_OmitsEmptyTypeFilter(t *testing.T) {
	var rawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	if _, err := NewHTTPSource(srv.URL, "u1", "", 0).Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if rawQuery != "user_id=u1" {
		t.Fatalf("query = %q, want user_id=u1", rawQuery)
	}
}

func TestHTTPSource_BadStatusAndMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	t.Cleanup(srv.Close)

	_, err := NewHTTPSource(srv.URL+"/down", "u", "", time.Second).Fetch(context.Background())
	if !errors.Is(err, ErrBadStatus) {
		t.Fatalf("err = %v, want ErrBadStatus", err)
	}
	if _, err := NewHTTPSource(srv.URL+"/bad", "u", "", time.Second).Fetch(context.Background()); err == nil {
		t.Fatalf("malformed body should fail")
	}
}

func TestFileSource_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "tools.json")
	if err := os.WriteFile(jsonPath, []byte(sampleCatalog), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	yamlPath := filepath.Join(dir, "tools.yaml")
	if err := os.WriteFile(yamlPath, []byte(`
- name: addRFP
  _id: t2
  tool:
    description: Create an RFP
    type: entry
    params:
      title:
        type: vector<u8>
        description: title
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	entries, err := FileSource{Path: jsonPath, Type: "entry"}.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch json: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "addRFP" {
		t.Fatalf("filtered entries = %#v", entries)
	}

	entries, err = FileSource{Path: yamlPath}.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch yaml: %v", err)
	}
	if len(entries) != 1 || entries[0].Tool.Params["title"].Type != "vector<u8>" {
		t.Fatalf("yaml entries = %#v", entries)
	}
}

func TestNewPicksSourceByURL(t *testing.T) {
	if _, ok := New(config.Catalog{URL: "https://example.test/api/tools"}).(*HTTPSource); !ok {
		t.Fatalf("https url should use HTTPSource")
	}
	if _, ok := New(config.Catalog{URL: "./testdata/tools.yaml"}).(FileSource); !ok {
		t.Fatalf("yaml path should use FileSource")
	}
}

func TestEntryKindFallsBackToTopLevelType(t *testing.T) {
	if (Entry{Type: "view"}).Kind() != KindView {
		t.Fatalf("top-level view type ignored")
	}
	if (Entry{}).Kind() != KindEntry {
		t.Fatalf("default kind should be entry")
	}
}
