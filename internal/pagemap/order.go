package pagemap

import "sort"

// candidate is one sortable sibling slot. An inlined index folder occupies
// a single slot holding all of its children.
type candidate struct {
	name    string
	ids     []NodeID
	fsIndex int
}

// sortCandidates orders siblings: explicitly ranked entries by rank (ties
// by ordering key position), then entries listed in the ordering file
// without a rank in key order, then everything else in filesystem order.
func sortCandidates(cands []candidate, o *Ordering) {
	type sortKey struct{ group, a, b int }
	keyOf := func(c candidate) sortKey {
		pos := o.index(c.name)
		if item, ok := o.lookup(c.name); ok && item.Rank != nil {
			return sortKey{0, *item.Rank, pos}
		}
		if pos >= 0 {
			return sortKey{1, pos, 0}
		}
		return sortKey{2, c.fsIndex, 0}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		ki, kj := keyOf(cands[i]), keyOf(cands[j])
		if ki.group != kj.group {
			return ki.group < kj.group
		}
		if ki.a != kj.a {
			return ki.a < kj.a
		}
		return ki.b < kj.b
	})
}
