package graph

// ordered is an insertion-ordered map. Deletions leave tombstones that are
// compacted once they outnumber live entries, so iteration order is stable
// and every operation is amortized O(1).
type ordered[K comparable, V any] struct {
	pos   map[K]int
	keys  []K
	vals  []V
	alive []bool
	n     int
}

func newOrdered[K comparable, V any]() *ordered[K, V] {
	return &ordered[K, V]{pos: make(map[K]int)}
}

func (o *ordered[K, V]) get(k K) (V, bool) {
	if i, ok := o.pos[k]; ok {
		return o.vals[i], true
	}
	var zero V
	return zero, false
}

func (o *ordered[K, V]) has(k K) bool {
	_, ok := o.pos[k]
	return ok
}

// set stores v under k. An existing key keeps its position.
func (o *ordered[K, V]) set(k K, v V) {
	if i, ok := o.pos[k]; ok {
		o.vals[i] = v
		return
	}
	o.pos[k] = len(o.keys)
	o.keys = append(o.keys, k)
	o.vals = append(o.vals, v)
	o.alive = append(o.alive, true)
	o.n++
}

func (o *ordered[K, V]) del(k K) bool {
	i, ok := o.pos[k]
	if !ok {
		return false
	}
	delete(o.pos, k)
	var zeroK K
	var zeroV V
	o.keys[i] = zeroK
	o.vals[i] = zeroV
	o.alive[i] = false
	o.n--
	if len(o.keys) > 32 && o.n < len(o.keys)/2 {
		o.compact()
	}
	return true
}

func (o *ordered[K, V]) compact() {
	j := 0
	for i := range o.keys {
		if !o.alive[i] {
			continue
		}
		o.keys[j], o.vals[j], o.alive[j] = o.keys[i], o.vals[i], true
		o.pos[o.keys[j]] = j
		j++
	}
	clear(o.keys[j:])
	clear(o.vals[j:])
	o.keys, o.vals, o.alive = o.keys[:j], o.vals[:j], o.alive[:j]
}

func (o *ordered[K, V]) len() int { return o.n }

// list returns the live keys in insertion order.
func (o *ordered[K, V]) list() []K {
	out := make([]K, 0, o.n)
	for i, k := range o.keys {
		if o.alive[i] {
			out = append(out, k)
		}
	}
	return out
}

// first returns the oldest live key.
func (o *ordered[K, V]) first() (K, bool) {
	for i, k := range o.keys {
		if o.alive[i] {
			return k, true
		}
	}
	var zero K
	return zero, false
}
