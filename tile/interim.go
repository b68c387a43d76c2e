package tile

// LinkInterim makes interim the previous tile of this geographic cell,
// kept alive for crossfade continuity while this tile loads. The chain is
// singly linked, newest first; linking a tile that does not strictly
// predate its successor would allow cycles and panics.
func (t *Tile) LinkInterim(interim *Tile) {
	if interim != nil && interim.seq >= t.seq {
		panic("tile: interim tile must predate its successor")
	}
	t.mu.Lock()
	t.interim = interim
	t.mu.Unlock()
}

// Interim returns the direct interim link, nil at the end of the chain.
func (t *Tile) Interim() *Tile {
	return t.nextInterim()
}

func (t *Tile) nextInterim() *Tile {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interim
}

// InterimTile returns the tile to draw for this cell right now: the tile
// itself when loaded, otherwise the newest loaded tile in the interim
// chain, otherwise the tile itself.
func (t *Tile) InterimTile() *Tile {
	t.mu.Lock()
	state := t.state
	first := t.interim
	t.mu.Unlock()

	if state == Loaded || first == nil {
		return t
	}
	for cur := first; cur != nil; cur = cur.nextInterim() {
		if cur.State() == Loaded {
			return cur
		}
	}
	return t
}

// RefreshInterimChain prunes the chain: everything behind the newest
// loaded tile is discarded (those loads are superseded), and idle tiles
// are spliced out since their loads never started.
func (t *Tile) RefreshInterimChain() {
	prev := t
	cur := t.nextInterim()
	for cur != nil {
		switch cur.State() {
		case Loaded:
			cur.LinkInterim(nil)
			return
		case Idle:
			next := cur.nextInterim()
			prev.LinkInterim(next)
			cur = next
		default:
			prev = cur
			cur = cur.nextInterim()
		}
	}
}
