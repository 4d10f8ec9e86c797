// Package registry holds the code-defined capability catalog. The catalog is
// built once at startup and is read-only afterwards; pass it by reference.
package registry

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Rate tiers, in requests per minute per (project, capability, client).
const (
	TierLow      = "low"
	TierMedium   = "medium"
	TierHigh     = "high"
	TierCritical = "critical"
)

var tierLimits = map[string]int{
	TierLow:      120,
	TierMedium:   60,
	TierHigh:     20,
	TierCritical: 5,
}

// TierLimit returns the per-minute budget of a tier, or 0 for unknown tiers.
func TierLimit(tier string) int {
	return tierLimits[tier]
}

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9]*\.[a-z][a-z0-9-]*$`)

// Descriptor is one named capability.
type Descriptor struct {
	Name          string `json:"function_name"`
	Domain        string `json:"domain"`
	Description   string `json:"description"`
	RequiresAuth  bool   `json:"requires_auth"`
	RateLimitTier string `json:"rate_limit_tier"`
}

// Declaration is a domain's list of capabilities. Descriptor.Domain is filled
// from the declaration.
type Declaration struct {
	Domain    string
	Functions []Descriptor
}

type Catalog struct {
	byName  map[string]Descriptor
	ordered []Descriptor
}

// NewCatalog aggregates declarations, rejecting malformed, mismatched or
// duplicate names and unknown tiers.
func NewCatalog(decls ...Declaration) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Descriptor)}
	for _, decl := range decls {
		for _, d := range decl.Functions {
			d.Domain = decl.Domain
			if !namePattern.MatchString(d.Name) {
				return nil, fmt.Errorf("capability %q is not of the form domain.verb", d.Name)
			}
			if !strings.HasPrefix(d.Name, decl.Domain+".") {
				return nil, fmt.Errorf("capability %q declared under domain %q", d.Name, decl.Domain)
			}
			if _, ok := tierLimits[d.RateLimitTier]; !ok {
				return nil, fmt.Errorf("capability %q has unknown rate tier %q", d.Name, d.RateLimitTier)
			}
			if _, dup := c.byName[d.Name]; dup {
				return nil, fmt.Errorf("capability %q declared twice", d.Name)
			}
			c.byName[d.Name] = d
			c.ordered = append(c.ordered, d)
		}
	}
	sort.Slice(c.ordered, func(i, j int) bool {
		if c.ordered[i].Domain != c.ordered[j].Domain {
			return c.ordered[i].Domain < c.ordered[j].Domain
		}
		return c.ordered[i].Name < c.ordered[j].Name
	})
	return c, nil
}

func (c *Catalog) Get(name string) (Descriptor, bool) {
	d, ok := c.byName[name]
	return d, ok
}

func (c *Catalog) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// All returns a copy of every descriptor ordered by domain then name.
func (c *Catalog) All() []Descriptor {
	out := make([]Descriptor, len(c.ordered))
	copy(out, c.ordered)
	return out
}

func (c *Catalog) ByDomain(domain string) []Descriptor {
	var out []Descriptor
	for _, d := range c.ordered {
		if d.Domain == domain {
			out = append(out, d)
		}
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.ordered)
}
