package assets

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractFromStringInlineEmbed(t *testing.T) {
	// The marker as it appears escaped inside a serialized entry.
	content := `{"body":"<img {{asset_uid=\"blt111aaa\" type=\"asset\"}} /> and {{asset_uid=\"blt222bbb\"}}"}`

	got := ExtractFromString(content)
	want := []string{"blt111aaa", "blt222bbb"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("inline embed extraction (-want +got):\n%s", diff)
	}
}

func TestExtractFromStringHostedURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			"no regional prefix",
			"https://images.contentstack.io/v3/assets/stackkey1/bltimg001/version/photo.png",
			"bltimg001",
		},
		{
			"eu prefix",
			"https://eu-images.contentstack.com/v3/assets/stackkey1/bltimg002/photo.png",
			"bltimg002",
		},
		{
			"azure prefix on assets host",
			"https://azure-na-assets.contentstack.com/v3/assets/stackkey1/bltimg003/doc.pdf",
			"bltimg003",
		},
		{
			"gcp prefix",
			"https://gcp-eu-assets.contentstack.com/v3/assets/stackkey1/bltimg004/doc.pdf",
			"bltimg004",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractFromString(fmt.Sprintf(`{"file":{"url":"%s"}}`, tt.url))
			if diff := cmp.Diff([]string{tt.want}, got); diff != "" {
				t.Errorf("hosted url extraction (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractFromStringCombined(t *testing.T) {
	// N inline markers and M hosted URLs with disjoint identifiers, with
	// duplicates sprinkled in, must yield exactly N+M unique UIDs.
	var sb strings.Builder
	n, m := 4, 3
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, `text {{asset_uid=\"inline%d\"}} more `, i)
		fmt.Fprintf(&sb, `dup {{asset_uid=\"inline%d\"}} `, i)
	}
	for i := 0; i < m; i++ {
		fmt.Fprintf(&sb, `"https://assets.contentstack.io/v3/assets/stack/hosted%d/f.png" `, i)
	}

	got := ExtractFromString(sb.String())
	if len(got) != n+m {
		t.Fatalf("got %d unique uids, want %d: %v", len(got), n+m, got)
	}
}

func TestExtractFromStringNoMatches(t *testing.T) {
	got := ExtractFromString(`{"title":"plain entry","url":"https://example.com/v3/assets/x/y/"}`)
	if got != nil {
		t.Errorf("expected no matches, got %v", got)
	}
}

func TestExtractFromDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "blog", "en-us")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	files := map[string]string{
		filepath.Join(dir, "a.json"):   `{"body":"{{asset_uid=\"blt_a\"}}"}`,
		filepath.Join(sub, "b.json"):   `{"file":"https://images.contentstack.io/v3/assets/stack/blt_b/f.png"}`,
		filepath.Join(dir, "bad.json"): `{"body": not-json`,
		filepath.Join(dir, "skip.txt"): `{{asset_uid=\"blt_ignored\"}}`,
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	set, err := NewExtractor(slog.New(slog.NewTextHandler(io.Discard, nil))).ExtractFromDir(dir)
	if err != nil {
		t.Fatalf("ExtractFromDir: %v", err)
	}
	want := []string{"blt_a", "blt_b"}
	if diff := cmp.Diff(want, set.UIDs()); diff != "" {
		t.Errorf("dir extraction (-want +got):\n%s", diff)
	}
}

func TestExtractFromDirMissing(t *testing.T) {
	_, err := NewExtractor(nil).ExtractFromDir(filepath.Join(t.TempDir(), "absent"))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
