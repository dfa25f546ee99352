package schemes

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Scheme is a government programme farmers can apply for
type Scheme struct {
	ID              string   `yaml:"id" json:"id"`
	Name            string   `yaml:"name" json:"name"`
	Description     string   `yaml:"description" json:"description"`
	Benefits        string   `yaml:"benefits" json:"benefits"`
	Keywords        []string `yaml:"keywords" json:"keywords"`
	Categories      []string `yaml:"categories" json:"categories"`
	MaxLandHectares float64  `yaml:"max_land_hectares" json:"max_land_hectares,omitempty"`
	States          []string `yaml:"states" json:"states"`
	Documents       []string `yaml:"documents" json:"documents"`
	ApplyURL        string   `yaml:"apply_url" json:"apply_url"`
}

// Catalog is the set of known schemes in catalogue order
type Catalog struct {
	schemes []Scheme
	byID    map[string]*Scheme
}

// Filter narrows the catalogue. Zero values disable the corresponding check.
type Filter struct {
	Query        string
	State        string
	LandHectares float64
	Category     string
}

// Load parses the embedded catalogue
func Load() (*Catalog, error) {
	return Parse(catalogYAML)
}

// Parse builds a catalogue from YAML
func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Schemes []Scheme `yaml:"schemes"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scheme catalogue: %w", err)
	}

	c := &Catalog{schemes: doc.Schemes, byID: make(map[string]*Scheme, len(doc.Schemes))}
	for i := range c.schemes {
		s := &c.schemes[i]
		if s.ID == "" {
			return nil, fmt.Errorf("scheme %d has no id", i)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate scheme id %q", s.ID)
		}
		c.byID[s.ID] = s
	}
	return c, nil
}

// All returns every scheme
func (c *Catalog) All() []Scheme {
	out := make([]Scheme, len(c.schemes))
	copy(out, c.schemes)
	return out
}

// Get returns a scheme by id
func (c *Catalog) Get(id string) (Scheme, bool) {
	s, ok := c.byID[id]
	if !ok {
		return Scheme{}, false
	}
	return *s, true
}

// Match returns schemes allowed by the state/land/category hints whose name or
// keywords match any query token. An empty query matches every allowed scheme.
func (c *Catalog) Match(f Filter) []Scheme {
	tokens := Tokenize(f.Query)
	out := []Scheme{}
	for _, s := range c.schemes {
		if !s.allows(f) {
			continue
		}
		if len(tokens) > 0 && !s.matchesAny(tokens) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (s *Scheme) allows(f Filter) bool {
	if f.State != "" && !containsFold(s.States, "all") && !containsFold(s.States, f.State) {
		return false
	}
	if f.LandHectares > 0 && s.MaxLandHectares > 0 && f.LandHectares > s.MaxLandHectares {
		return false
	}
	if f.Category != "" && len(s.Categories) > 0 && !containsFold(s.Categories, f.Category) {
		return false
	}
	return true
}

func (s *Scheme) matchesAny(tokens []string) bool {
	name := strings.ToLower(s.Name + " " + s.ID)
	for _, tok := range tokens {
		if containsFold(s.Keywords, tok) {
			return true
		}
		if len(tok) >= 3 && strings.Contains(name, tok) {
			return true
		}
	}
	return false
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "for": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"i": {}, "my": {}, "me": {}, "is": {}, "are": {}, "want": {}, "need": {}, "scheme": {}, "schemes": {},
	"get": {}, "how": {}, "what": {}, "which": {}, "can": {}, "on": {}, "with": {},
}

// Tokenize lowercases a free-text query and splits it into keyword tokens,
// dropping stopwords and a trailing plural "s".
func Tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, stop := stopwords[f]; stop {
			continue
		}
		if len(f) > 3 && strings.HasSuffix(f, "s") && !strings.HasSuffix(f, "ss") {
			f = strings.TrimSuffix(f, "s")
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

func containsFold(list []string, value string) bool {
	for _, v := range list {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}
