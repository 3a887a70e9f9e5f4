package npm

import (
	"encoding/json"
	"fmt"

	"github.com/pkglens/pkglens/pkg/resolve"
)

// packument is the registry document for one package. Version entries stay
// raw until a manifest is actually needed; published metadata is noisy
// enough that each entry is validated individually on parse.
type packument struct {
	Name     string                     `json:"name"`
	Versions map[string]json.RawMessage `json:"versions"`
}

// manifestDoc is the subset of a version entry the resolver consumes.
// Field types are deliberately loose; validation happens in parseManifest
// rather than trusting the payload's declared shape.
type manifestDoc struct {
	Version      string         `json:"version"`
	Dependencies map[string]any `json:"dependencies"`
	OS           stringList     `json:"os"`
	CPU          stringList     `json:"cpu"`
	Libc         stringList     `json:"libc"`
}

// parseManifest validates one raw version entry into a resolve.Manifest.
// Malformed entries fail with an error so the walker can drop the edge.
func parseManifest(name, version string, raw json.RawMessage) (*resolve.Manifest, error) {
	var doc manifestDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("malformed manifest for %s@%s: %w", name, version, err)
	}

	deps := make(map[string]string, len(doc.Dependencies))
	for dep, spec := range doc.Dependencies {
		// Range specifiers are strings; anything else is junk data.
		if s, ok := spec.(string); ok {
			deps[dep] = s
		}
	}

	return &resolve.Manifest{
		Name:         name,
		Version:      version,
		Dependencies: deps,
		OS:           doc.OS,
		CPU:          doc.CPU,
		Libc:         doc.Libc,
	}, nil
}

// stringList decodes a JSON value that should be an array of strings but is
// published in the wild as a single string, null, or an array with mixed
// element types. Non-string elements are discarded.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = []string{single}
		return nil
	}

	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		// null or an unrecognized shape: treat as unconstrained.
		*l = nil
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}
