package wallpaper

import (
	"maps"
	"slices"
)

// Catalog maps wallpaper filenames to their entries. It holds at most one
// entry per filename and is owned by a single goroutine.
type Catalog struct {
	items map[string]*Item
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{items: make(map[string]*Item)}
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Contains reports whether filename already has an entry.
func (c *Catalog) Contains(filename string) bool {
	_, ok := c.items[filename]
	return ok
}

// Lookup returns the entry for filename.
func (c *Catalog) Lookup(filename string) (*Item, bool) {
	it, ok := c.items[filename]
	return it, ok
}

// insert adds it unless its filename is empty or already present.
func (c *Catalog) insert(it *Item) bool {
	if it.Filename == "" || c.Contains(it.Filename) {
		return false
	}
	c.items[it.Filename] = it
	return true
}

// Filenames returns the catalog keys in sorted order.
func (c *Catalog) Filenames() []string {
	return slices.Sorted(maps.Keys(c.items))
}

// Items returns the entries sorted by filename. The catalog keeps them.
func (c *Catalog) Items() []*Item {
	out := make([]*Item, 0, len(c.items))
	for _, name := range c.Filenames() {
		out = append(out, c.items[name])
	}
	return out
}

// Flatten hands every entry to the caller, sorted by filename, and leaves
// the catalog empty.
func (c *Catalog) Flatten() []*Item {
	out := c.Items()
	clear(c.items)
	return out
}
