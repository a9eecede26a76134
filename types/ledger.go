package types

// ExportedModulesLedger records which modules have been written to the
// destination, in order, without duplicates. It lives for one run and is
// append-only; the orchestrator consults it to avoid re-exporting and to
// produce the final metadata sidecar.
type ExportedModulesLedger struct {
	order []Module
	seen  map[Module]bool
}

// NewLedger returns an empty ledger.
func NewLedger() *ExportedModulesLedger {
	return &ExportedModulesLedger{seen: make(map[Module]bool)}
}

// Add records m as exported. Adding a module twice is a no-op.
func (l *ExportedModulesLedger) Add(m Module) {
	if l.seen[m] {
		return
	}
	l.seen[m] = true
	l.order = append(l.order, m)
}

// Contains reports whether m has been exported.
func (l *ExportedModulesLedger) Contains(m Module) bool {
	return l.seen[m]
}

// Modules returns the exported modules in export order. The returned
// slice is a copy.
func (l *ExportedModulesLedger) Modules() []Module {
	out := make([]Module, len(l.order))
	copy(out, l.order)
	return out
}
