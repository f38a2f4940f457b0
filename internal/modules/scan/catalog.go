package scan

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// Topic is one entry of the ordered topic table.
type Topic struct {
	Key  string `yaml:"key" json:"key"`
	Fact string `yaml:"fact" json:"fact"`
	Tip  string `yaml:"tip" json:"tip"`
}

// Catalog holds the keyword set and the topic table. It is built once and never mutated.
type Catalog struct {
	keywords []string
	topics   []Topic
}

type catalogFile struct {
	Keywords []string `yaml:"keywords"`
	Topics   []Topic  `yaml:"topics"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// DefaultCatalog returns the catalog parsed from the embedded catalog.yaml.
func DefaultCatalog() *Catalog {
	defaultOnce.Do(func() {
		c, err := ParseCatalog(embeddedCatalog)
		if err != nil {
			panic(fmt.Sprintf("embedded catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// LoadCatalog reads a catalog override from path. An empty path yields the embedded catalog.
func LoadCatalog(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := ParseCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	keywords := make([]string, 0, len(f.Keywords))
	for _, k := range f.Keywords {
		k = fold(k)
		if k == "" {
			continue
		}
		keywords = append(keywords, k)
	}
	if len(keywords) == 0 {
		return nil, fmt.Errorf("catalog has no keywords")
	}

	topics := make([]Topic, 0, len(f.Topics))
	seen := map[string]bool{}
	for i, t := range f.Topics {
		key := fold(t.Key)
		if key == "" {
			return nil, fmt.Errorf("topic %d: empty key", i)
		}
		if seen[key] {
			return nil, fmt.Errorf("topic %q: duplicate key", key)
		}
		if strings.TrimSpace(t.Fact) == "" || strings.TrimSpace(t.Tip) == "" {
			return nil, fmt.Errorf("topic %q: fact and tip are required", key)
		}
		seen[key] = true
		topics = append(topics, Topic{Key: key, Fact: strings.TrimSpace(t.Fact), Tip: strings.TrimSpace(t.Tip)})
	}

	return &Catalog{keywords: keywords, topics: topics}, nil
}

// Keywords returns a copy of the keyword list.
func (c *Catalog) Keywords() []string {
	out := make([]string, len(c.keywords))
	copy(out, c.keywords)
	return out
}

// Topics returns a copy of the topic table in priority order.
func (c *Catalog) Topics() []Topic {
	out := make([]Topic, len(c.topics))
	copy(out, c.topics)
	return out
}

// MatchTopic returns the first topic, in table order, whose key is contained in label.
func (c *Catalog) MatchTopic(label string) (Topic, bool) {
	s := fold(label)
	if s == "" {
		return Topic{}, false
	}
	for _, t := range c.topics {
		if strings.Contains(s, t.Key) {
			return t, true
		}
	}
	return Topic{}, false
}

// fold normalizes label text for substring matching: NFKC, full case folding, trimmed.
func fold(s string) string {
	s = strings.TrimSpace(norm.NFKC.String(s))
	if s == "" {
		return ""
	}
	return cases.Fold().String(s)
}
