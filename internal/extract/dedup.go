package extract

// DedupIndex is the set of canonical keys accepted during one harvest.
type DedupIndex struct {
	keys map[string]struct{}
}

// NewDedupIndex returns an empty index.
func NewDedupIndex() *DedupIndex {
	return &DedupIndex{keys: make(map[string]struct{})}
}

// Insert records key and reports whether it was new.
func (d *DedupIndex) Insert(key string) bool {
	if _, ok := d.keys[key]; ok {
		return false
	}
	d.keys[key] = struct{}{}
	return true
}

// Contains reports whether key was recorded.
func (d *DedupIndex) Contains(key string) bool {
	_, ok := d.keys[key]
	return ok
}

// Len returns the number of recorded keys.
func (d *DedupIndex) Len() int {
	return len(d.keys)
}
