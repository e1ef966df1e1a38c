package pagemap

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MetaItem is one ordering file override for a sibling.
type MetaItem struct {
	Title  string              `json:"title,omitempty"`
	Rank   *int                `json:"rank,omitempty"`
	Hidden bool                `json:"hidden,omitempty"`
	Type   string              `json:"type,omitempty"`
	Items  map[string]MetaItem `json:"items,omitempty"`
	// itemKeys keeps the declaration order of Items.
	itemKeys []string
}

// Ordering is a parsed ordering file, keys kept in declaration order.
type Ordering struct {
	Keys  []string
	Items map[string]MetaItem
	// Defaults come from the "*" key and apply to unlisted siblings.
	Defaults *MetaItem
}

// index reports the declaration position of key, or -1.
func (o *Ordering) index(key string) int {
	if o == nil {
		return -1
	}
	for i, k := range o.Keys {
		if k == key {
			return i
		}
	}
	return -1
}

func (o *Ordering) lookup(key string) (MetaItem, bool) {
	if o == nil {
		return MetaItem{}, false
	}
	item, ok := o.Items[key]
	return item, ok
}

// merge overlays o on top of base; keys from o win and come first.
func (o *Ordering) merge(base *Ordering) *Ordering {
	if base == nil {
		return o
	}
	if o == nil {
		return base
	}
	out := &Ordering{Items: map[string]MetaItem{}, Defaults: o.Defaults}
	if out.Defaults == nil {
		out.Defaults = base.Defaults
	}
	for _, k := range o.Keys {
		out.Keys = append(out.Keys, k)
		out.Items[k] = o.Items[k]
	}
	for _, k := range base.Keys {
		if _, ok := out.Items[k]; ok {
			continue
		}
		out.Keys = append(out.Keys, k)
		out.Items[k] = base.Items[k]
	}
	return out
}

// LoadOrdering reads and parses an ordering file. JSON files are parsed as YAML.
func LoadOrdering(path string) (*Ordering, []Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read ordering file: %w", err)
	}
	return ParseOrdering(path, data)
}

// ParseOrdering parses ordering file bytes. Malformed entries are reported
// as diagnostics and skipped; a file that is not a mapping is an error.
func ParseOrdering(path string, data []byte) (*Ordering, []Diagnostic, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse ordering file %s: %w", path, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return &Ordering{Items: map[string]MetaItem{}}, nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("ordering file %s: expected a mapping at line %d", path, root.Line)
	}
	return parseMapping(path, root)
}

func parseMapping(path string, m *yaml.Node) (*Ordering, []Diagnostic, error) {
	o := &Ordering{Items: map[string]MetaItem{}}
	var diags []Diagnostic
	for i := 0; i+1 < len(m.Content); i += 2 {
		key := m.Content[i].Value
		item, ds, ok := parseItem(path, key, m.Content[i+1])
		diags = append(diags, ds...)
		if !ok {
			continue
		}
		if key == "*" {
			d := item
			o.Defaults = &d
			continue
		}
		if _, dup := o.Items[key]; dup {
			diags = append(diags, warnf(path, m.Content[i].Line, "duplicate ordering key %q, later entry wins", key))
		} else {
			o.Keys = append(o.Keys, key)
		}
		o.Items[key] = item
	}
	return o, diags, nil
}

type rawItem struct {
	Title   string    `yaml:"title"`
	Rank    *int      `yaml:"rank"`
	Hidden  bool      `yaml:"hidden"`
	Display string    `yaml:"display"`
	Type    string    `yaml:"type"`
	Items   yaml.Node `yaml:"items"`
}

func parseItem(path, key string, v *yaml.Node) (MetaItem, []Diagnostic, bool) {
	switch v.Kind {
	case yaml.ScalarNode:
		if v.ShortTag() == "!!int" {
			rank, err := strconv.Atoi(v.Value)
			if err != nil {
				return MetaItem{}, []Diagnostic{warnf(path, v.Line, "invalid rank for %q: %v", key, err)}, false
			}
			return MetaItem{Rank: &rank}, nil, true
		}
		return MetaItem{Title: v.Value}, nil, true
	case yaml.MappingNode:
		var raw rawItem
		if err := v.Decode(&raw); err != nil {
			return MetaItem{}, []Diagnostic{warnf(path, v.Line, "invalid override for %q: %v", key, err)}, false
		}
		item := MetaItem{
			Title:  raw.Title,
			Rank:   raw.Rank,
			Hidden: raw.Hidden || raw.Display == "hidden",
			Type:   raw.Type,
		}
		var diags []Diagnostic
		if raw.Items.Kind == yaml.MappingNode {
			nested, ds, _ := parseMapping(path, &raw.Items)
			diags = append(diags, ds...)
			item.Items = nested.Items
			item.itemKeys = nested.Keys
		}
		return item, diags, true
	default:
		return MetaItem{}, []Diagnostic{warnf(path, v.Line, "unsupported override shape for %q", key)}, false
	}
}

// nested returns the items of a folder override as an Ordering.
func (m MetaItem) nested() *Ordering {
	if len(m.Items) == 0 {
		return nil
	}
	return &Ordering{Keys: m.itemKeys, Items: m.Items}
}
