package models

import "slices"

// BuildDependencyList returns every live entity in creation/restore order.
//
// Kinds are visited as devices, processors, sources, displays; entities of one kind keep
// their discovery order. An entity nothing in the list depends on is appended. Otherwise
// the tail starting at its first dependent is cut out, the entity is appended and the tail
// is put back after it. In both cases the entity's explicit dependencies that are not yet
// listed are inserted immediately before it; a dependency found in the cut-out tail is moved
// out of it. X depends on E when E owns X or when X reports E from CollectDependencies.
func (r *Registry) BuildDependencyList() []Entity {
	var (
		list    []Entity
		present = make(map[EntityID]bool)
		deps    = make(map[EntityID][]Entity)
	)

	dependenciesOf := func(e Entity) []Entity {
		if d, ok := deps[e.ID()]; ok {
			return d
		}
		d := e.CollectDependencies(nil)
		deps[e.ID()] = d
		return d
	}

	dependsOn := func(x, e Entity) bool {
		if x.base().IsOwnedBy(e) {
			return true
		}
		for _, d := range dependenciesOf(x) {
			if d != nil && d.ID() == e.ID() {
				return true
			}
		}
		return false
	}

	for _, kind := range restoreOrder {
		for _, e := range r.Entities(kind) {
			if present[e.ID()] {
				continue
			}

			var current []Entity
			for pos, x := range list {
				if dependsOn(x, e) {
					current = append(current, list[pos:]...)
					list = list[:pos]
					break
				}
			}
			for _, x := range current {
				present[x.ID()] = false
			}

			for _, d := range dependenciesOf(e) {
				if d == nil || d.ID() == e.ID() || present[d.ID()] {
					continue
				}
				if _, live := r.Find(d.ID()); !live {
					continue
				}
				// a prerequisite cut out with the tail moves in front of e
				current = slices.DeleteFunc(current, func(x Entity) bool { return x.ID() == d.ID() })
				list = append(list, d)
				present[d.ID()] = true
			}

			list = append(list, e)
			present[e.ID()] = true
			for _, x := range current {
				present[x.ID()] = true
			}
			list = append(list, current...)
		}
	}
	return list
}
