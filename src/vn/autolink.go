package vn

// AutoLinks proposes links between the variables of node and those of its
// siblings (nodes with the same parent name). An unlinked input is paired with
// an output of the same base name and type on the other side. Inputs of node
// are considered first, then inputs of the siblings fed by outputs of node.
// When several candidates qualify, the first by name wins.
func AutoLinks(r *Registry, node *Node) []Link {
	siblings := r.Siblings(node)

	r.RLock()
	defer r.RUnlock()

	res := []Link{}
	taken := make(map[Name]bool)

	pair := func(in *Variable, candidates []*Node) {
		if in.direction != Input || taken[in.name] || r.linkedInput(in.name) {
			return
		}
		for _, s := range candidates {
			for _, out := range s.variables {
				if out.direction == Output &&
					out.name.Base() == in.name.Base() &&
					out.typ == in.typ {
					res = append(res, Link{Source: out.name, Target: in.name})
					taken[in.name] = true
					return
				}
			}
		}
	}

	for _, in := range node.variables {
		pair(in, siblings)
	}
	for _, s := range siblings {
		for _, in := range s.variables {
			pair(in, []*Node{node})
		}
	}

	return res
}
