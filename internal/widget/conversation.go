package widget

import "github.com/soyeahso/matchat/internal/domain"

// conversation is the append-only message log of one widget.
type conversation struct {
	entries []domain.Entry
}

func (c *conversation) append(e domain.Entry) {
	c.entries = append(c.entries, e)
}

// snapshot returns a copy safe to hand to callers.
func (c *conversation) snapshot() []domain.Entry {
	out := make([]domain.Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *conversation) size() int {
	return len(c.entries)
}

func (c *conversation) clear() {
	c.entries = nil
}
