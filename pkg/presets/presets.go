// Package presets ships the built-in catalog of example architectures.
//
// The catalog is a TOML document embedded into the binary. Users can load
// additional catalogs in the same format with [Load] and layer them over the
// built-ins with [Catalog.Merge].
//
//	text, err := presets.Text("mlp")   // pretty-printed description
//	g, err := presets.Get("cnn")       // parsed graph
package presets

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/nnviz/pkg/errors"
	"github.com/matzehuels/nnviz/pkg/graph"
)

// Default is the preset shown when nothing else is selected.
const Default = "roadvision"

//go:embed catalog.toml
var builtinTOML []byte

// Entry is one named architecture in a catalog.
type Entry struct {
	Key     string
	Summary string
	Graph   graph.Graph
}

// Catalog is an ordered set of presets addressed by key.
type Catalog struct {
	entries []Entry
	index   map[string]int
}

type catalogFile struct {
	Preset []presetFile `toml:"preset"`
}

type presetFile struct {
	Key     string     `toml:"key"`
	Name    string     `toml:"name"`
	Summary string     `toml:"summary"`
	Nodes   []nodeFile `toml:"nodes"`
	Edges   [][]string `toml:"edges"`
}

type nodeFile struct {
	ID    string `toml:"id"`
	Type  string `toml:"type"`
	Shape string `toml:"shape"`
	Note  string `toml:"note"`
}

// Load decodes a catalog document. Keys must be unique and valid; every edge
// must have exactly two endpoints.
func Load(data []byte) (*Catalog, error) {
	var f catalogFile
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode catalog")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown catalog key %q", undecoded[0].String())
	}

	c := &Catalog{index: make(map[string]int, len(f.Preset))}
	for _, p := range f.Preset {
		entry, err := p.entry()
		if err != nil {
			return nil, err
		}
		if _, dup := c.index[entry.Key]; dup {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "preset %q defined twice", entry.Key)
		}
		c.add(entry)
	}
	return c, nil
}

// LoadFile reads and decodes a catalog file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "catalog %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Load(data)
}

func (p presetFile) entry() (Entry, error) {
	if err := errors.ValidatePresetKey(p.Key); err != nil {
		return Entry{}, err
	}
	g := graph.Graph{
		Name:  p.Name,
		Nodes: make([]graph.Node, len(p.Nodes)),
		Edges: make([]graph.Edge, len(p.Edges)),
	}
	for i, n := range p.Nodes {
		g.Nodes[i] = graph.Node{ID: n.ID, Type: n.Type, Shape: n.Shape, Note: n.Note}
	}
	for i, e := range p.Edges {
		if len(e) != 2 {
			return Entry{}, errors.New(errors.ErrCodeInvalidFormat,
				"preset %q: edge %d must have 2 endpoints, got %d", p.Key, i, len(e))
		}
		g.Edges[i] = graph.Edge{From: e[0], To: e[1]}
	}
	return Entry{Key: p.Key, Summary: p.Summary, Graph: g}, nil
}

func (c *Catalog) add(e Entry) {
	c.index[e.Key] = len(c.entries)
	c.entries = append(c.entries, e)
}

// Keys returns the preset keys in catalog order.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of the catalog entries in order.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Len returns the number of presets.
func (c *Catalog) Len() int { return len(c.entries) }

// Lookup returns the entry for key.
func (c *Catalog) Lookup(key string) (Entry, error) {
	i, ok := c.index[key]
	if !ok {
		return Entry{}, errors.New(errors.ErrCodeUnknownPreset, "unknown preset: %q", key)
	}
	return c.entries[i], nil
}

// Get returns the graph stored under key. Each call returns fresh slices.
func (c *Catalog) Get(key string) (graph.Graph, error) {
	e, err := c.Lookup(key)
	if err != nil {
		return graph.Graph{}, err
	}
	g := e.Graph
	g.Nodes = append([]graph.Node{}, g.Nodes...)
	g.Edges = append([]graph.Edge{}, g.Edges...)
	return g, nil
}

// Text returns the pretty-printed description for key, exactly as
// [graph.Marshal] renders it.
func (c *Catalog) Text(key string) (string, error) {
	g, err := c.Get(key)
	if err != nil {
		return "", err
	}
	data, err := graph.Marshal(g)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "marshal preset %q", key)
	}
	return string(data), nil
}

// Merge returns a new catalog with the entries of c followed by those of
// other. Entries in other replace same-keyed entries of c in place.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	out := &Catalog{index: make(map[string]int, c.Len()+other.Len())}
	for _, e := range c.entries {
		out.add(e)
	}
	for _, e := range other.entries {
		if i, ok := out.index[e.Key]; ok {
			out.entries[i] = e
			continue
		}
		out.add(e)
	}
	return out
}

var (
	builtinOnce sync.Once
	builtin     *Catalog
)

// Builtin returns the embedded catalog. It panics if the embedded document is
// malformed, which only a broken build can cause.
func Builtin() *Catalog {
	builtinOnce.Do(func() {
		c, err := Load(builtinTOML)
		if err != nil {
			panic(fmt.Sprintf("presets: embedded catalog: %v", err))
		}
		builtin = c
	})
	return builtin
}

// Keys returns the built-in preset keys in menu order.
func Keys() []string { return Builtin().Keys() }

// Get returns the built-in graph for key.
func Get(key string) (graph.Graph, error) { return Builtin().Get(key) }

// Text returns the pretty-printed built-in description for key.
func Text(key string) (string, error) { return Builtin().Text(key) }
