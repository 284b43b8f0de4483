package stream

import "slices"

// Properties is an ordered string -> value bag. It travels with data: a successful read
// request replaces the destination's bag wholesale with a copy of the source's.
type Properties struct {
	keys   []string
	values map[string]any
}

func NewProperties() *Properties {
	return &Properties{values: make(map[string]any)}
}

// Set inserts or overwrites key. New keys are appended to the iteration order.
func (p *Properties) Set(key string, value any) {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

func (p *Properties) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[key]
	return v, ok
}

func (p *Properties) Delete(key string) {
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	p.keys = slices.DeleteFunc(p.keys, func(k string) bool { return k == key })
}

func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Keys returns the keys in insertion order.
func (p *Properties) Keys() []string {
	if p == nil {
		return nil
	}
	return slices.Clone(p.keys)
}

// Each visits entries in insertion order until fn returns false.
func (p *Properties) Each(fn func(key string, value any) bool) {
	if p == nil {
		return
	}
	for _, k := range p.keys {
		if !fn(k, p.values[k]) {
			return
		}
	}
}

// Clone copies the bag by value. Values themselves are copied shallowly.
func (p *Properties) Clone() *Properties {
	out := NewProperties()
	if p == nil {
		return out
	}
	out.keys = slices.Clone(p.keys)
	for k, v := range p.values {
		out.values[k] = v
	}
	return out
}
