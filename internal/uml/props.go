package uml

// Props is an insertion-ordered string map used for attributes and tagged
// values. The set of keys is open-ended and tool-version dependent, so values
// stay as text.
type Props struct {
	keys   []string
	values map[string]string
}

// NewProps returns an empty Props.
func NewProps() *Props {
	return &Props{values: make(map[string]string)}
}

// Set stores value under key. Re-setting an existing key keeps its original
// position.
func (p *Props) Set(key, value string) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value for key and whether it was present.
func (p *Props) Get(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p.values[key]
	return v, ok
}

// Value returns the value for key, or "" if absent.
func (p *Props) Value(key string) string {
	v, _ := p.Get(key)
	return v
}

// Has reports whether key is present.
func (p *Props) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Delete removes key if present.
func (p *Props) Delete(key string) {
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (p *Props) Keys() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of entries.
func (p *Props) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Map returns an unordered copy of the entries.
func (p *Props) Map() map[string]string {
	out := make(map[string]string, p.Len())
	if p == nil {
		return out
	}
	for k, v := range p.values {
		out[k] = v
	}
	return out
}
