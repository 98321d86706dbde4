package puzzle

import (
	"container/list"
	"encoding/json"

	"github.com/pkg/errors"
)

const cacheVersion = 1

// ErrNoPuzzle is returned by Fallback when the cache is empty.
var ErrNoPuzzle = errors.New("puzzle: cache is empty")

// Cache keeps the most recently used puzzles, bounded. Not safe for
// concurrent use; the core serializes access.
type Cache struct {
	capacity int
	order    *list.List
	byID     map[string]*list.Element
}

// NewCache creates a Cache holding at most capacity puzzles. It panics
// when capacity is not positive.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		panic(errors.Errorf("puzzle: cache capacity %d", capacity))
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		byID:     make(map[string]*list.Element),
	}
}

// Put inserts or refreshes p, evicting the least recently used entry
// when full.
func (c *Cache) Put(p *Puzzle) {
	if el, ok := c.byID[p.ID]; ok {
		el.Value = p
		c.order.MoveToFront(el)
		return
	}
	c.byID[p.ID] = c.order.PushFront(p)
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.byID, oldest.Value.(*Puzzle).ID)
	}
}

// Get returns the puzzle with the given id and marks it recently used.
func (c *Cache) Get(id string) (*Puzzle, bool) {
	el, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*Puzzle), true
}

// Fallback returns the most recently used puzzle, for callers that hit
// the generation-exhausted path.
func (c *Cache) Fallback() (*Puzzle, error) {
	front := c.order.Front()
	if front == nil {
		return nil, ErrNoPuzzle
	}
	return front.Value.(*Puzzle), nil
}

// Recent lists the cached puzzles, most recently used first.
func (c *Cache) Recent() []*Puzzle {
	out := make([]*Puzzle, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*Puzzle))
	}
	return out
}

// Len returns the number of cached puzzles.
func (c *Cache) Len() int { return c.order.Len() }

type cacheSnapshot struct {
	Version int       `json:"version"`
	Puzzles []*Puzzle `json:"puzzles"`
}

// Snapshot serializes the cache, most recently used first.
func (c *Cache) Snapshot() ([]byte, error) {
	data, err := json.Marshal(cacheSnapshot{Version: cacheVersion, Puzzles: c.Recent()})
	if err != nil {
		return nil, errors.Wrap(err, "puzzle: snapshot cache")
	}
	return data, nil
}

// Restore replaces the cache contents from a Snapshot payload.
func (c *Cache) Restore(data []byte) error {
	var snap cacheSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return errors.Wrap(err, "puzzle: restore cache")
	}
	if snap.Version != cacheVersion {
		return errors.Errorf("puzzle: unsupported cache version %d", snap.Version)
	}
	c.order.Init()
	c.byID = make(map[string]*list.Element)
	// Insert oldest first so the snapshot's MRU order is rebuilt.
	for i := len(snap.Puzzles) - 1; i >= 0; i-- {
		c.Put(snap.Puzzles[i])
	}
	return nil
}
