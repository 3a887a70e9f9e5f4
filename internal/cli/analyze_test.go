package cli

import "testing"

func TestSplitPackageArg(t *testing.T) {
	tests := []struct {
		arg      string
		wantName string
		wantSpec string
	}{
		{"express", "express", ""},
		{"express@4.18.2", "express", "4.18.2"},
		{"express@^4.0.0", "express", "^4.0.0"},
		{"@types/node", "@types/node", ""},
		{"@types/node@20.1.0", "@types/node", "20.1.0"},
		{"@scope/pkg@>=2.0.0 <3.0.0", "@scope/pkg", ">=2.0.0 <3.0.0"},
		{"express@", "express", ""},
		{" lodash ", "lodash", ""},
		{"@", "@", ""},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			name, spec := splitPackageArg(tt.arg)
			if name != tt.wantName || spec != tt.wantSpec {
				t.Errorf("splitPackageArg(%q) = (%q, %q), want (%q, %q)",
					tt.arg, name, spec, tt.wantName, tt.wantSpec)
			}
		})
	}
}
