package widget

// gate blocks new submissions while a response is pending.
type gate struct {
	waiting bool
}

// lock reports whether the gate moved from open to locked.
func (g *gate) lock() bool {
	if g.waiting {
		return false
	}
	g.waiting = true
	return true
}

// unlock reports whether the gate moved from locked to open.
func (g *gate) unlock() bool {
	if !g.waiting {
		return false
	}
	g.waiting = false
	return true
}

func (g *gate) locked() bool {
	return g.waiting
}
