package piecetree

// searchCache is the bounded LIFO of recent node lookups described by
// spec.md §4.4. Entries are invalidated precisely, not just cleared, so a
// cache hit is guaranteed to match a cold lookup (testable property 10).
type searchCache struct {
	capacity int
	entries  []nodePosition // entries[0] is the most recently inserted
}

func newSearchCache(capacity int) *searchCache {
	return &searchCache{capacity: capacity}
}

func (c *searchCache) lookupOffset(offset int) (nodePosition, bool) {
	for _, e := range c.entries {
		if e.node.Detached {
			continue
		}
		// A cold lookup resolves a piece boundary to the earlier piece, so an
		// entry answers for its own start offset only when that offset is 0.
		lo := e.nodeStartOffset
		if (offset > lo || offset == 0 && lo == 0) && offset <= lo+e.node.Piece.Length {
			e.remainder = offset - lo
			return e, true
		}
	}
	return nodePosition{}, false
}

func (c *searchCache) insert(np nodePosition) {
	c.entries = append([]nodePosition{np}, c.entries...)
	if len(c.entries) > c.capacity {
		c.entries = c.entries[:c.capacity]
	}
}

// invalidateFrom drops every entry whose node has been detached from the
// tree or whose nodeStartOffset is at or past the edit point o, per
// spec.md §4.4's precise invalidation rule.
func (c *searchCache) invalidateFrom(o int) {
	kept := c.entries[:0]
	for _, e := range c.entries {
		if e.node.Detached || e.nodeStartOffset >= o {
			continue
		}
		kept = append(kept, e)
	}
	c.entries = kept
}
