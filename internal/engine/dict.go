package engine

// Dict is a bidirectional string interner. Repeated values (countries,
// cities, names) are stored once and referenced by a dense id assigned in
// first-seen order. Ids are stable for the process lifetime.
//
// Dict is not safe for concurrent use on its own; the owning Store guards
// it with the store-wide lock.
type Dict struct {
	ids     map[string]uint32
	strings []string
}

func NewDict() *Dict {
	return &Dict{ids: make(map[string]uint32)}
}

// Put returns the id of s, assigning the next sequential id if s has not
// been seen before.
func (d *Dict) Put(s string) uint32 {
	if id, ok := d.ids[s]; ok {
		return id
	}
	id := uint32(len(d.strings))
	d.strings = append(d.strings, s)
	d.ids[s] = id
	return id
}

// Get returns the string for id. ok is false when id was never assigned.
func (d *Dict) Get(id uint32) (string, bool) {
	if int(id) >= len(d.strings) {
		return "", false
	}
	return d.strings[id], true
}

// ID returns the id previously assigned to s, if any.
func (d *Dict) ID(s string) (uint32, bool) {
	id, ok := d.ids[s]
	return id, ok
}

// Exists reports whether s has an assigned id.
func (d *Dict) Exists(s string) bool {
	_, ok := d.ids[s]
	return ok
}

// Len returns the number of distinct strings stored.
func (d *Dict) Len() int {
	return len(d.strings)
}
