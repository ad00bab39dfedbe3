package cache

import "time"

// Cache TTLs per entry kind.
const (
	// TTLLayout is how long a positioned layout stays cached.
	TTLLayout = 7 * 24 * time.Hour

	// TTLArtifact is how long a rendered artifact stays cached.
	TTLArtifact = 7 * 24 * time.Hour

	// TTLScene is how long the server keeps the last render of a session
	// available for node lookups.
	TTLScene = 24 * time.Hour
)

// Keyer derives cache keys. Implementations must return the same key for
// equal inputs.
type Keyer interface {
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
	SceneKey(layoutHash string) string
}

// LayoutKeyOpts are the inputs besides the description that change a layout.
type LayoutKeyOpts struct {
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
	PadX   float64 `json:"px"`
	PadY   float64 `json:"py"`
}

// ArtifactKeyOpts are the inputs besides the layout that change an artifact.
type ArtifactKeyOpts struct {
	Format      string  `json:"f"`
	NodeWidth   float64 `json:"nw,omitempty"`
	NodeHeight  float64 `json:"nh,omitempty"`
	Radius      float64 `json:"r,omitempty"`
	StaggerMS   int64   `json:"s,omitempty"`
	DurationMS  int64   `json:"d,omitempty"`
	Static      bool    `json:"st,omitempty"`
	Detailed    bool    `json:"dt,omitempty"`
	Diagnostics bool    `json:"dg,omitempty"`
	Scale       float64 `json:"sc,omitempty"`
}

// DefaultKeyer hashes its inputs into "kind:sha256" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey returns the key of the layout of graphHash under opts.
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey returns the key of one rendered format of layoutHash.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// SceneKey returns the key under which the exported layout of layoutHash is
// kept for hover lookups.
func (DefaultKeyer) SceneKey(layoutHash string) string {
	return "scene:" + layoutHash
}
