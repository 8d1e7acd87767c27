package schema

import "fmt"

// Validate checks a loaded registry for structural problems that would
// otherwise only surface as per-message decode failures: inheritance
// cycles, parents that don't resolve to any class, and container type
// expressions that don't parse. It returns one human-readable line per
// problem found.
func Validate(r *Registry) []string {
	var problems []string

	for _, c := range r.Classes() {
		if c.Parent != "" {
			if _, ok := r.GetByName(c.Parent); !ok {
				problems = append(problems, fmt.Sprintf("%s: dangling parent %q", c.Name, c.Parent))
			} else if cycle := findCycle(r, c); cycle != "" {
				problems = append(problems, fmt.Sprintf("%s: inheritance cycle (%s)", c.Name, cycle))
			}
		}

		for _, attr := range c.Attributes {
			if attr.Type.Kind != KindOther {
				continue
			}
			if looksLikeContainer(attr.Type.Name) {
				if ParseContainer(attr.Type.Name).Kind == ContainerNone {
					problems = append(problems, fmt.Sprintf("%s.%s: unparsable container type %q", c.Name, attr.Name, attr.Type.Name))
				}
			}
		}
	}

	return problems
}

func looksLikeContainer(name string) bool {
	for _, c := range name {
		if c == '<' {
			return true
		}
	}
	return false
}

// findCycle walks start's parent chain and returns a description of the
// cycle if start is reachable from itself, or "" if the chain terminates.
func findCycle(r *Registry, start *Class) string {
	seen := map[string]bool{start.Name: true}
	trail := start.Name
	current := start

	for current.Parent != "" {
		parent, ok := r.GetByName(current.Parent)
		if !ok {
			return ""
		}
		trail += " -> " + parent.Name
		if seen[parent.Name] {
			return trail
		}
		seen[parent.Name] = true
		current = parent
	}
	return ""
}
