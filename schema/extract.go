package schema

// Extract walks one schema tree and records every dependency it declares
// into b. The walk follows the static shape of the document only, so it
// terminates on any well-formed schema; it is idempotent because the
// Bundle deduplicates.
func Extract(fields []Field, b *Bundle) {
	for i := range fields {
		extractField(&fields[i], b)
	}
}

func extractField(f *Field, b *Bundle) {
	// An extension_uid makes the field extension-backed regardless of its
	// outer data type; rich-text json/text fields rendered by an
	// extension carry the same attribute.
	if f.ExtensionUID != "" {
		b.AddExtension(f.ExtensionUID)
	}

	switch f.DataType {
	case DataTypeGlobalField:
		for _, uid := range f.ReferenceTo {
			b.AddGlobalField(uid)
		}

	case DataTypeReference:
		for _, uid := range f.ReferenceTo {
			b.AddContentType(uid)
		}

	case DataTypeJSON, DataTypeText:
		// Rich-text fields with embedded entries declare their own
		// reference_to list, same semantics as a reference field.
		if f.Metadata.RichText() {
			for _, uid := range f.ReferenceTo {
				b.AddContentType(uid)
			}
		}

	case DataTypeTaxonomy:
		for _, ref := range f.Taxonomies {
			// Elements without a taxonomy_uid are tolerated.
			if ref.TaxonomyUID != "" {
				b.AddTaxonomy(ref.TaxonomyUID)
			}
		}

	case DataTypeGroup:
		Extract(f.Schema, b)

	case DataTypeBlocks:
		for i := range f.Blocks {
			Extract(f.Blocks[i].Schema, b)
		}
	}
}
