package resolver

import (
	"fmt"

	"github.com/contentstack/cli-query-export/types"
)

// CircularDependencyError means the static module dependency map contains
// a cycle. This is a configuration invariant violation, not a user error;
// it should be unreachable in shipped configuration.
type CircularDependencyError struct {
	Module types.Module
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency in module map at %q", e.Module)
}

// visit colors for the depth-first topological sort.
type visitState int

const (
	unvisited visitState = iota
	inProgress
	done
)

// OrderModules returns subset ordered so that every module appears after
// all of its prerequisites that are also in subset. The sort descends the
// full static map, so a cycle is detected even when it passes through
// modules outside the subset.
func OrderModules(subset []types.Module) ([]types.Module, error) {
	return orderModules(subset, types.ModuleDependencies)
}

func orderModules(subset []types.Module, deps map[types.Module][]types.Module) ([]types.Module, error) {
	wanted := make(map[types.Module]bool, len(subset))
	for _, m := range subset {
		wanted[m] = true
	}

	state := make(map[types.Module]visitState)
	var ordered []types.Module

	var visit func(m types.Module) error
	visit = func(m types.Module) error {
		switch state[m] {
		case done:
			return nil
		case inProgress:
			return &CircularDependencyError{Module: m}
		}
		state[m] = inProgress
		for _, dep := range deps[m] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[m] = done
		if wanted[m] {
			ordered = append(ordered, m)
		}
		return nil
	}

	for _, m := range subset {
		if err := visit(m); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}
