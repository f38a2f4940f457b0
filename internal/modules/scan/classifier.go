package scan

import "strings"

// IsEnvironmental reports whether any keyword is a substring of the case-folded label.
func (c *Catalog) IsEnvironmental(label string) bool {
	s := fold(label)
	if s == "" {
		return false
	}
	for _, k := range c.keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// IsEnvironmental classifies label against the embedded catalog.
func IsEnvironmental(label string) bool {
	return DefaultCatalog().IsEnvironmental(label)
}
