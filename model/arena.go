package model

import "fmt"

// Arena owns the ordered block sequence for one document and addresses
// blocks by their stable ids. Indices are explicit; nothing here depends on
// pointer identity or garbage-collection semantics.
type Arena struct {
	blocks []Block
	index  map[BlockID]int
}

// NewArena builds an arena over the given block sequence. Duplicate or empty
// ids are a structural fault.
func NewArena(blocks []Block) (*Arena, error) {
	a := &Arena{
		blocks: blocks,
		index:  make(map[BlockID]int, len(blocks)),
	}
	for i, b := range blocks {
		id := b.ID()
		if id == "" {
			return nil, &ConfigError{Reason: fmt.Sprintf("block %d has empty id", i)}
		}
		if prev, ok := a.index[id]; ok {
			return nil, &ConfigError{Reason: fmt.Sprintf("block id %q reused at %d and %d", id, prev, i)}
		}
		a.index[id] = i
	}
	return a, nil
}

// Len returns the number of blocks
func (a *Arena) Len() int {
	return len(a.blocks)
}

// At returns the block at the given position
func (a *Arena) At(i int) Block {
	return a.blocks[i]
}

// Block returns the block with the given id, or nil when absent
func (a *Arena) Block(id BlockID) Block {
	i, ok := a.index[id]
	if !ok {
		return nil
	}
	return a.blocks[i]
}

// IndexOf returns the position of the block with the given id, or -1
func (a *Arena) IndexOf(id BlockID) int {
	i, ok := a.index[id]
	if !ok {
		return -1
	}
	return i
}

// Blocks returns the ordered block slice. Callers must treat it as read-only.
func (a *Arena) Blocks() []Block {
	return a.blocks
}
