package connector

import "strings"

// headerSet keeps headers under their original key while indexing them by
// lower-cased name, so lookups and overrides ignore capitalization.
type headerSet struct {
	values map[string]string
	index  map[string]string
}

func newHeaderSet(initial map[string]string) *headerSet {
	h := &headerSet{
		values: make(map[string]string, len(initial)),
		index:  make(map[string]string, len(initial)),
	}
	h.merge(initial)
	return h
}

// set stores value under key, replacing any header with the same name in
// another case. The new key's spelling wins.
func (h *headerSet) set(key, value string) {
	lower := strings.ToLower(key)
	if prev, ok := h.index[lower]; ok && prev != key {
		delete(h.values, prev)
	}
	h.index[lower] = key
	h.values[key] = value
}

func (h *headerSet) merge(headers map[string]string) {
	for k, v := range headers {
		h.set(k, v)
	}
}

func (h *headerSet) has(key string) bool {
	_, ok := h.index[strings.ToLower(key)]
	return ok
}

func (h *headerSet) toMap() map[string]string {
	out := make(map[string]string, len(h.values))
	for k, v := range h.values {
		out[k] = v
	}
	return out
}

// MergeHeaders overlays overrides on defaults. Keys are compared without regard
// to case and the override's spelling is kept.
func MergeHeaders(defaults, overrides map[string]string) map[string]string {
	h := newHeaderSet(defaults)
	h.merge(overrides)
	return h.toMap()
}
