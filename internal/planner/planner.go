// Package planner decides which bundles to install and remove by
// comparing what is selected against what is already managed. It is
// pure set algebra over composite ids; no I/O happens here.
package planner

import "sort"

// Plan partitions a selection against managed state.
type Plan struct {
	// Install holds ids selected but not yet managed.
	Install []string
	// Keep holds ids selected and already managed.
	Keep []string
	// Remove holds managed ids that are no longer selected. Populated
	// only when removal of unselected bundles was requested.
	Remove []string
}

// Empty reports whether the plan changes nothing.
func (p Plan) Empty() bool {
	return len(p.Install) == 0 && len(p.Remove) == 0
}

// Compute builds the plan for desired against managed. Inputs may
// contain duplicates and arrive in any order; the output lists are
// deduplicated and sorted.
func Compute(desired, managed []string, removeUnselected bool) Plan {
	desiredSet := toSet(desired)
	managedSet := toSet(managed)

	p := Plan{Install: []string{}, Keep: []string{}, Remove: []string{}}
	for _, id := range sortedKeys(desiredSet) {
		if managedSet[id] {
			p.Keep = append(p.Keep, id)
		} else {
			p.Install = append(p.Install, id)
		}
	}
	if removeUnselected {
		for _, id := range sortedKeys(managedSet) {
			if !desiredSet[id] {
				p.Remove = append(p.Remove, id)
			}
		}
	}
	return p
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = true
		}
	}
	return set
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for id := range set {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}
