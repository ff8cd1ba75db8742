package rules

import (
	"fmt"
	"sort"
)

// Corpus is an immutable index of rule writeups keyed by locale and ID.
// Build one with NewCorpus or a loader; reads are safe for concurrent use.
type Corpus struct {
	byLocale map[string]map[string]Rule // locale -> id -> rule
	ids      []string                   // sorted canonical ids across locales
	locales  []string                   // sorted locales present
}

// NewCorpus indexes the given writeups. Two writeups with the same
// (locale, id) pair are a corpus defect and fail the build.
func NewCorpus(list []Rule) (*Corpus, error) {
	c := &Corpus{byLocale: make(map[string]map[string]Rule)}

	for _, r := range list {
		byID := c.byLocale[r.Locale]
		if byID == nil {
			byID = make(map[string]Rule)
			c.byLocale[r.Locale] = byID
		}
		if existing, ok := byID[r.ID]; ok {
			return nil, fmt.Errorf("duplicate writeup %s/%s (%s and %s)", r.Locale, r.ID, existing.Path, r.Path)
		}
		byID[r.ID] = r
	}

	c.reindex()
	return c, nil
}

// reindex recomputes the sorted id and locale listings.
func (c *Corpus) reindex() {
	seen := make(map[string]bool)
	c.ids = c.ids[:0]
	c.locales = c.locales[:0]

	for locale, byID := range c.byLocale {
		c.locales = append(c.locales, locale)
		for id := range byID {
			if !seen[id] {
				seen[id] = true
				c.ids = append(c.ids, id)
			}
		}
	}

	sort.Strings(c.ids)
	sort.Strings(c.locales)
}

// Get returns the writeup for id in the requested locale. When the locale
// has no translation of that rule, the default locale's writeup is
// returned instead, so a partially translated corpus still answers every
// known ID. The boolean is false only when no locale has the ID.
func (c *Corpus) Get(id, locale string) (Rule, bool) {
	id = NormalizeID(id)

	if r, ok := c.byLocale[locale][id]; ok {
		return r, true
	}
	if locale != DefaultLocale {
		if r, ok := c.byLocale[DefaultLocale][id]; ok {
			return r, true
		}
	}
	return Rule{}, false
}

// List returns the writeups visible in the given locale sorted by ID,
// applying the same default-locale fallback as Get for each rule.
func (c *Corpus) List(locale string) []Rule {
	out := make([]Rule, 0, len(c.ids))
	for _, id := range c.ids {
		if r, ok := c.Get(id, locale); ok {
			out = append(out, r)
		}
	}
	return out
}

// IDs returns the sorted canonical rule IDs known to any locale.
func (c *Corpus) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Locales returns the sorted locales present in the corpus.
func (c *Corpus) Locales() []string {
	out := make([]string, len(c.locales))
	copy(out, c.locales)
	return out
}

// Has reports whether any locale carries the given rule ID.
func (c *Corpus) Has(id string) bool {
	id = NormalizeID(id)
	for _, byID := range c.byLocale {
		if _, ok := byID[id]; ok {
			return true
		}
	}
	return false
}

// Len returns the total number of writeups across all locales.
func (c *Corpus) Len() int {
	total := 0
	for _, byID := range c.byLocale {
		total += len(byID)
	}
	return total
}
