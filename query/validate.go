package query

import (
	"sort"
	"strings"

	"github.com/contentstack/cli-query-export/types"
)

// SupportedOperators is the fixed operator whitelist shared by every
// queryable module.
var SupportedOperators = []string{
	"$eq", "$ne", "$lt", "$lte", "$gt", "$gte",
	"$in", "$nin", "$exists", "$regex", "$all",
	"$and", "$or", "$not", "$nor",
}

// SupportedFields lists the filterable fields per queryable module.
var SupportedFields = map[types.Module][]string{
	types.ModuleContentTypes: {"uid", "title", "description", "created_at", "updated_at"},
}

// Limits configures the strict validator. Zero values fall back to the
// shared defaults.
type Limits struct {
	MaxDepth       int
	MaxArrayLength int
}

func (l Limits) withDefaults() Limits {
	if l.MaxDepth <= 0 {
		l.MaxDepth = types.DefaultMaxQueryDepth
	}
	if l.MaxArrayLength <= 0 {
		l.MaxArrayLength = types.DefaultMaxArrayOperands
	}
	return l
}

// Validate checks the structural minimum: a non-nil query with at least
// one module, every module known and user-queryable.
func Validate(q *types.StructuredQuery) error {
	if q == nil || len(q.Modules) == 0 {
		return &ValidationError{Reason: "query must contain a non-empty modules map"}
	}
	for m := range q.Modules {
		if !types.Known(m) || !types.Modules[m].Queryable {
			return &ValidationError{
				Reason:  "module is not queryable",
				Subject: string(m),
				Allowed: moduleNames(types.QueryableModules()),
			}
		}
	}
	return nil
}

// ValidateStrict runs Validate and additionally checks every operator key
// against the supported-operator list, every non-operator key against the
// module's supported-field list, nesting depth against limits.MaxDepth,
// and array operand cardinality against limits.MaxArrayLength. Depth and
// array violations fail closed with QueryTooComplexError.
func ValidateStrict(q *types.StructuredQuery, limits Limits) error {
	if err := Validate(q); err != nil {
		return err
	}
	limits = limits.withDefaults()

	for m, filter := range q.Modules {
		if err := validateFilter(m, filter, 1, limits); err != nil {
			return err
		}
	}
	return nil
}

func validateFilter(m types.Module, filter map[string]interface{}, depth int, limits Limits) error {
	if depth > limits.MaxDepth {
		return &QueryTooComplexError{Limit: "depth", Max: limits.MaxDepth, Actual: depth}
	}

	for key, value := range filter {
		if strings.HasPrefix(key, "$") {
			if !operatorSupported(key) {
				return &ValidationError{
					Module:  string(m),
					Reason:  "unsupported operator",
					Subject: key,
					Allowed: SupportedOperators,
				}
			}
		} else if !fieldSupported(m, key) {
			return &ValidationError{
				Module:  string(m),
				Reason:  "unsupported field",
				Subject: key,
				Allowed: SupportedFields[m],
			}
		}
		if err := validateOperand(m, value, depth, limits); err != nil {
			return err
		}
	}
	return nil
}

func validateOperand(m types.Module, value interface{}, depth int, limits Limits) error {
	switch v := value.(type) {
	case map[string]interface{}:
		return validateFilter(m, v, depth+1, limits)
	case []interface{}:
		if len(v) > limits.MaxArrayLength {
			return &QueryTooComplexError{Limit: "array", Max: limits.MaxArrayLength, Actual: len(v)}
		}
		// $and/$or/$nor operands are arrays of nested filters; each
		// element counts one level deeper.
		for _, elem := range v {
			if nested, ok := elem.(map[string]interface{}); ok {
				if err := validateFilter(m, nested, depth+1, limits); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func operatorSupported(op string) bool {
	for _, known := range SupportedOperators {
		if op == known {
			return true
		}
	}
	return false
}

func fieldSupported(m types.Module, field string) bool {
	for _, known := range SupportedFields[m] {
		if field == known {
			return true
		}
	}
	return false
}

func moduleNames(mods []types.Module) []string {
	out := make([]string, len(mods))
	for i, m := range mods {
		out[i] = string(m)
	}
	sort.Strings(out)
	return out
}
