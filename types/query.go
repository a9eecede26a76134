package types

// StructuredQuery is the validated form of a user query: a filter object
// per targeted module. It is built once at run start and read-only
// thereafter.
type StructuredQuery struct {
	Modules map[Module]map[string]interface{} `json:"modules"`
}

// Filter returns the filter object for m, or nil if the query does not
// target it.
func (q *StructuredQuery) Filter(m Module) map[string]interface{} {
	if q == nil {
		return nil
	}
	return q.Modules[m]
}

// TargetModules returns the modules the query names, in declaration
// order.
func (q *StructuredQuery) TargetModules() []Module {
	if q == nil {
		return nil
	}
	var out []Module
	for _, m := range moduleOrder {
		if _, ok := q.Modules[m]; ok {
			out = append(out, m)
		}
	}
	return out
}
