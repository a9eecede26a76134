// Package schema models content-type schema trees and extracts the
// dependencies they declare: referenced global fields, extensions,
// taxonomies, and other content types.
package schema

import (
	"encoding/json"
	"fmt"
)

// Field data types the extractor interprets. Any other data_type is a
// leaf field with no dependencies.
const (
	DataTypeGlobalField = "global_field"
	DataTypeReference   = "reference"
	DataTypeTaxonomy    = "taxonomy"
	DataTypeGroup       = "group"
	DataTypeBlocks      = "blocks"
	DataTypeJSON        = "json"
	DataTypeText        = "text"
)

// SysAssetsSentinel is the literal reference target denoting the built-in
// asset collection. It never names a content type and is excluded from
// reference extraction.
const SysAssetsSentinel = "sys_assets"

// Field is one descriptor in a schema tree, tagged by DataType. The shape
// is finite and non-cyclic at the field level, so traversal needs no
// visited set; entity-level cycles are the resolver's problem.
type Field struct {
	UID          string        `json:"uid,omitempty"`
	DisplayName  string        `json:"display_name,omitempty"`
	DataType     string        `json:"data_type"`
	ReferenceTo  ReferenceList `json:"reference_to,omitempty"`
	ExtensionUID string        `json:"extension_uid,omitempty"`
	Taxonomies   []TaxonomyRef `json:"taxonomies,omitempty"`
	Schema       []Field       `json:"schema,omitempty"`
	Blocks       []Block       `json:"blocks,omitempty"`
	Metadata     FieldMetadata `json:"field_metadata,omitempty"`
}

// Block is one named block inside a blocks field; its schema is traversed
// like a nested group.
type Block struct {
	UID    string  `json:"uid,omitempty"`
	Title  string  `json:"title,omitempty"`
	Schema []Field `json:"schema,omitempty"`
}

// TaxonomyRef attaches a taxonomy to a taxonomy field. Elements without a
// taxonomy_uid are tolerated and skipped during extraction.
type TaxonomyRef struct {
	TaxonomyUID string `json:"taxonomy_uid,omitempty"`
	MaxTerms    int    `json:"max_terms,omitempty"`
	Mandatory   bool   `json:"mandatory,omitempty"`
}

// FieldMetadata carries the markers that turn plain json/text fields into
// rich-text fields with embedded entries or extension rendering.
type FieldMetadata struct {
	RichTextType  string `json:"rich_text_type,omitempty"`
	AllowRichText bool   `json:"allow_rich_text,omitempty"`
	AllowJSONRTE  bool   `json:"allow_json_rte,omitempty"`
	EmbedEntry    bool   `json:"embed_entry,omitempty"`
	Extension     bool   `json:"extension,omitempty"`
}

// RichText reports whether the field metadata marks rich-text semantics.
func (m FieldMetadata) RichText() bool {
	return m.AllowRichText || m.AllowJSONRTE || m.RichTextType != ""
}

// ReferenceList is a reference_to value. Global-field references encode it
// as a single string, reference fields as an array; both unmarshal into a
// flat list.
type ReferenceList []string

// UnmarshalJSON accepts either a JSON string or an array of strings.
func (r *ReferenceList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = ReferenceList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("reference_to is neither string nor string array: %w", err)
	}
	*r = ReferenceList(many)
	return nil
}

// MarshalJSON re-encodes a single-element list as a bare string so the
// round trip preserves the original wire shape for global fields.
func (r ReferenceList) MarshalJSON() ([]byte, error) {
	if len(r) == 1 {
		return json.Marshal(r[0])
	}
	return json.Marshal([]string(r))
}
