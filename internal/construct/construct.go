package construct

import "strings"

// Construct is a mathematical skill area a diagnostic question targets.
type Construct struct {
	ID          string
	Name        string
	Description string
	Examples    []string
}

// registry is keyed by ID.
var registry map[string]*Construct

// byKey indexes constructs by their normalized name and ID.
var byKey map[string]*Construct

func init() {
	registry = make(map[string]*Construct, len(seedConstructs))
	byKey = make(map[string]*Construct, 2*len(seedConstructs))
	for i := range seedConstructs {
		c := &seedConstructs[i]
		registry[c.ID] = c
		byKey[normalize(c.Name)] = c
		byKey[normalize(c.ID)] = c
	}
}

// Get returns a construct by ID, or nil if not found.
func Get(id string) *Construct {
	return registry[id]
}

// All returns every construct in taxonomy order.
func All() []*Construct {
	out := make([]*Construct, len(seedConstructs))
	for i := range seedConstructs {
		out[i] = &seedConstructs[i]
	}
	return out
}

// Names returns the display names of all constructs in taxonomy order.
func Names() []string {
	out := make([]string, len(seedConstructs))
	for i, c := range seedConstructs {
		out[i] = c.Name
	}
	return out
}

// Lookup finds a construct by name or ID, ignoring case, punctuation and
// surrounding whitespace.
func Lookup(name string) (*Construct, bool) {
	c, ok := byKey[normalize(name)]
	return c, ok
}

// Canonical maps a construct name to its taxonomy spelling. Unknown names
// are returned trimmed so blockers are still grouped consistently.
func Canonical(name string) string {
	if c, ok := Lookup(name); ok {
		return c.Name
	}
	return strings.TrimSpace(name)
}

// normalize lowercases and keeps only letters and digits.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
