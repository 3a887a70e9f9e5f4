// Package resolve computes the concrete dependency graph an npm install
// would produce for a package on a fixed target platform: semantic-version
// range resolution against the published version list, platform-constraint
// matching, and a dedup-safe graph walk with depth classification.
package resolve

import "context"

// TargetPlatform is the runtime triple a resolution is performed for,
// e.g. linux/x64/glibc. It is fixed for the duration of a walk.
type TargetPlatform struct {
	OS   string `json:"os"`
	CPU  string `json:"cpu"`
	Libc string `json:"libc"`
}

func (p TargetPlatform) String() string {
	return p.OS + "/" + p.CPU + "/" + p.Libc
}

// Manifest is the metadata for one published version of a package.
// The OS/CPU/Libc slices hold platform constraint tokens; a token prefixed
// with "!" excludes that value, and an empty slice means no constraint.
type Manifest struct {
	Name         string
	Version      string
	Dependencies map[string]string // name -> range specifier
	OS           []string
	CPU          []string
	Libc         []string
}

// Identity uniquely identifies a resolved package version. The same
// identity may be reachable through multiple paths (diamond dependencies)
// but appears in a resolved tree exactly once.
type Identity struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (id Identity) String() string {
	return id.Name + "@" + id.Version
}

// Depth classifies a node's distance from the analysis root.
type Depth int

const (
	DepthRoot Depth = iota
	DepthDirect
	DepthTransitive
)

func (d Depth) String() string {
	switch d {
	case DepthRoot:
		return "root"
	case DepthDirect:
		return "direct"
	default:
		return "transitive"
	}
}

// Node is one resolved package in the dependency tree.
type Node struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Depth   Depth    `json:"depth"`
	Path    []string `json:"path"` // identities from root to this node's parent
}

// Identity returns the node's unique (name, version) pair.
func (n *Node) Identity() Identity {
	return Identity{Name: n.Name, Version: n.Version}
}

// MetadataSource supplies raw package metadata from a registry.
// Implementations live outside this package (e.g. the npm client).
type MetadataSource interface {
	// Versions returns the full set of published versions for a package.
	Versions(ctx context.Context, name string) ([]string, error)

	// Manifest returns the manifest of one published version.
	Manifest(ctx context.Context, name, version string) (*Manifest, error)
}
