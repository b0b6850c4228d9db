package source

import "golang.org/x/text/unicode/norm"

// Interner canonicalizes identifiers: every spelling is normalized to NFC
// and equal names share one string.
type Interner struct {
	names map[string]string
}

func NewInterner() *Interner {
	return &Interner{names: make(map[string]string)}
}

// Canonical returns the shared NFC spelling of s.
func (i *Interner) Canonical(s string) string {
	if c, ok := i.names[s]; ok {
		return c
	}
	c := norm.NFC.String(s)
	if shared, ok := i.names[c]; ok {
		c = shared
	} else {
		i.names[c] = c
	}
	i.names[s] = c
	return c
}

// Len reports the number of distinct canonical names.
func (i *Interner) Len() int {
	n := 0
	for k, v := range i.names {
		if k == v {
			n++
		}
	}
	return n
}
