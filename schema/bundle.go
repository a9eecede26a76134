package schema

import "sort"

// Bundle accumulates the dependency UIDs discovered while walking schema
// trees. One Bundle is created per resolution pass, mutated by Extract,
// and consumed by the fetch step; it is never shared across runs.
type Bundle struct {
	globalFields   map[string]struct{}
	extensions     map[string]struct{}
	taxonomies     map[string]struct{}
	contentTypes   map[string]struct{}
	appInstallUIDs map[string]struct{}
}

// NewBundle returns an empty Bundle.
func NewBundle() *Bundle {
	return &Bundle{
		globalFields:   make(map[string]struct{}),
		extensions:     make(map[string]struct{}),
		taxonomies:     make(map[string]struct{}),
		contentTypes:   make(map[string]struct{}),
		appInstallUIDs: make(map[string]struct{}),
	}
}

// AddGlobalField records a referenced global-field UID.
func (b *Bundle) AddGlobalField(uid string) { add(b.globalFields, uid) }

// AddExtension records a referenced extension UID.
func (b *Bundle) AddExtension(uid string) { add(b.extensions, uid) }

// AddTaxonomy records a referenced taxonomy UID.
func (b *Bundle) AddTaxonomy(uid string) { add(b.taxonomies, uid) }

// AddContentType records a referenced content-type UID. The sys_assets
// sentinel is rejected here so no caller can leak it in.
func (b *Bundle) AddContentType(uid string) {
	if uid == SysAssetsSentinel {
		return
	}
	add(b.contentTypes, uid)
}

// ReclassifyExtension moves uid out of the extension set and records its
// marketplace app installation instead. Called during disambiguation when
// an extension record turns out to be an installed app.
func (b *Bundle) ReclassifyExtension(uid, installationUID string) {
	delete(b.extensions, uid)
	add(b.appInstallUIDs, installationUID)
}

// GlobalFields returns the sorted global-field UIDs.
func (b *Bundle) GlobalFields() []string { return sorted(b.globalFields) }

// Extensions returns the sorted extension UIDs.
func (b *Bundle) Extensions() []string { return sorted(b.extensions) }

// Taxonomies returns the sorted taxonomy UIDs.
func (b *Bundle) Taxonomies() []string { return sorted(b.taxonomies) }

// ContentTypes returns the sorted referenced content-type UIDs.
func (b *Bundle) ContentTypes() []string { return sorted(b.contentTypes) }

// AppInstallationUIDs returns the sorted marketplace app installation UIDs
// carved out of the extension set by disambiguation.
func (b *Bundle) AppInstallationUIDs() []string { return sorted(b.appInstallUIDs) }

func add(set map[string]struct{}, uid string) {
	if uid == "" {
		return
	}
	set[uid] = struct{}{}
}

func sorted(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for uid := range set {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out
}
