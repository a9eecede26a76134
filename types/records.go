package types

import (
	"encoding/json"

	"github.com/contentstack/cli-query-export/schema"
)

// ContentType is the slice of a content-type record the export pipeline
// interprets: its UID and schema tree. Raw preserves the full record so
// persistence never loses fields the resolver does not understand.
type ContentType struct {
	UID    string          `json:"uid"`
	Title  string          `json:"title,omitempty"`
	Schema []schema.Field  `json:"schema"`
	Raw    json.RawMessage `json:"-"`
}

// GlobalField mirrors ContentType for reusable schema fragments.
type GlobalField struct {
	UID    string          `json:"uid"`
	Schema []schema.Field  `json:"schema"`
	Raw    json.RawMessage `json:"-"`
}

// Extension is the subset of an extension record needed for marketplace
// disambiguation: an extension installed through an app installation
// carries both AppUID and AppInstallationUID.
type Extension struct {
	UID                string          `json:"uid"`
	Title              string          `json:"title,omitempty"`
	AppUID             string          `json:"app_uid,omitempty"`
	AppInstallationUID string          `json:"app_installation_uid,omitempty"`
	Raw                json.RawMessage `json:"-"`
}

// IsMarketplaceApp reports whether the extension record resolves to a
// marketplace app installation rather than a plain extension.
func (e Extension) IsMarketplaceApp() bool {
	return e.AppUID != "" && e.AppInstallationUID != ""
}
