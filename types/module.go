// Package types defines the core data model shared by every stage of a
// query export run: the module catalog, the static module dependency map,
// record types, and the immutable run configuration.
package types

// Module identifies a category of exportable content.
type Module string

const (
	ModuleStack           Module = "stack"
	ModuleLocales         Module = "locales"
	ModuleEnvironments    Module = "environments"
	ModuleContentTypes    Module = "content-types"
	ModuleGlobalFields    Module = "global-fields"
	ModuleExtensions      Module = "extensions"
	ModuleEntries         Module = "entries"
	ModuleAssets          Module = "assets"
	ModuleTaxonomies      Module = "taxonomies"
	ModuleMarketplaceApps Module = "marketplace-apps"
	ModulePersonalize     Module = "personalize"
	ModuleWebhooks        Module = "webhooks"
	ModuleWorkflows       Module = "workflows"
	ModuleLabels          Module = "labels"
	ModuleCustomRoles     Module = "custom-roles"
)

// ModuleDescriptor describes how a module is exported. Per-module behavior
// is driven by this table rather than switch cascades: adding a module is
// a new table row.
type ModuleDescriptor struct {
	// DirName is the directory the module's records are written under.
	DirName string

	// FileName is the aggregate file for the module inside DirName.
	FileName string

	// Queryable reports whether the module may appear as a top-level key
	// in a user query. All other modules are reached only through
	// dependency resolution.
	Queryable bool

	// PerRecordFiles indicates the module additionally writes one file
	// per individual record (schema-bearing modules do, so that
	// re-import can consume records independently).
	PerRecordFiles bool
}

// Modules is the catalog of every known module.
var Modules = map[Module]ModuleDescriptor{
	ModuleStack:           {DirName: "stack", FileName: "stack.json"},
	ModuleLocales:         {DirName: "locales", FileName: "locales.json"},
	ModuleEnvironments:    {DirName: "environments", FileName: "environments.json"},
	ModuleContentTypes:    {DirName: "content_types", FileName: "schema.json", Queryable: true, PerRecordFiles: true},
	ModuleGlobalFields:    {DirName: "global_fields", FileName: "globalfields.json", PerRecordFiles: true},
	ModuleExtensions:      {DirName: "extensions", FileName: "extensions.json", PerRecordFiles: true},
	ModuleEntries:         {DirName: "entries", FileName: "entries.json"},
	ModuleAssets:          {DirName: "assets", FileName: "assets.json"},
	ModuleTaxonomies:      {DirName: "taxonomies", FileName: "taxonomies.json", PerRecordFiles: true},
	ModuleMarketplaceApps: {DirName: "marketplace_apps", FileName: "marketplace_apps.json"},
	ModulePersonalize:     {DirName: "personalize", FileName: "personalize.json"},
	ModuleWebhooks:        {DirName: "webhooks", FileName: "webhooks.json"},
	ModuleWorkflows:       {DirName: "workflows", FileName: "workflows.json"},
	ModuleLabels:          {DirName: "labels", FileName: "labels.json"},
	ModuleCustomRoles:     {DirName: "custom-roles", FileName: "custom-roles.json"},
}

// ModuleDependencies maps each module to the modules that must be exported
// before it. The map is a DAG by construction; resolver.OrderModules sorts
// against it and fails fast if a cycle is ever introduced.
var ModuleDependencies = map[Module][]Module{
	ModuleStack:           nil,
	ModuleLocales:         nil,
	ModuleEnvironments:    nil,
	ModuleExtensions:      nil,
	ModuleTaxonomies:      nil,
	ModuleMarketplaceApps: nil,
	ModulePersonalize:     nil,
	ModuleGlobalFields:    {ModuleExtensions},
	ModuleContentTypes:    {ModuleGlobalFields, ModuleExtensions, ModuleTaxonomies, ModuleMarketplaceApps},
	ModuleEntries:         {ModuleContentTypes, ModuleLocales},
	ModuleAssets:          {ModuleEntries},
	ModuleWebhooks:        {ModuleEnvironments},
	ModuleWorkflows:       {ModuleContentTypes},
	ModuleLabels:          {ModuleContentTypes},
	ModuleCustomRoles:     {ModuleEnvironments},
}

// GeneralModules are exported unconditionally at the start of every run;
// they carry no dependency logic.
var GeneralModules = []Module{ModuleStack, ModuleLocales, ModuleEnvironments}

// moduleOrder fixes the declaration order used wherever a deterministic
// module sequence is needed. It must list every catalog entry exactly
// once (covered by a test against Modules).
var moduleOrder = []Module{
	ModuleStack, ModuleLocales, ModuleEnvironments, ModuleContentTypes,
	ModuleGlobalFields, ModuleExtensions, ModuleEntries, ModuleAssets,
	ModuleTaxonomies, ModuleMarketplaceApps, ModulePersonalize,
	ModuleWebhooks, ModuleWorkflows, ModuleLabels, ModuleCustomRoles,
}

// Known reports whether m is in the module catalog.
func Known(m Module) bool {
	_, ok := Modules[m]
	return ok
}

// QueryableModules returns the modules a user query may target, in
// declaration order.
func QueryableModules() []Module {
	var out []Module
	for _, m := range moduleOrder {
		if Modules[m].Queryable {
			out = append(out, m)
		}
	}
	return out
}
