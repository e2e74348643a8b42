package purl

import "testing"

func TestParseValid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Reference
		hasVers bool
	}{
		{
			name:    "with version",
			input:   "pkg:chainsights/example.com/core@1.2.0",
			want:    Reference{Domain: "example.com", Component: "core", Version: "1.2.0"},
			hasVers: true,
		},
		{
			name:    "without version",
			input:   "pkg:chainsights/example.com/core",
			want:    Reference{Domain: "example.com", Component: "core"},
			hasVers: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if *got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, *got, tt.want)
			}
			if got.HasVersion() != tt.hasVers {
				t.Errorf("HasVersion() = %v, want %v", got.HasVersion(), tt.hasVers)
			}
		})
	}
}

func TestParseRejectsWrongType(t *testing.T) {
	_, err := Parse("pkg:npm/example.com/core@1.0.0")
	if _, ok := err.(*InvalidPurlError); !ok {
		t.Fatalf("expected *InvalidPurlError, got %T (%v)", err, err)
	}
}

func TestParseRejectsMissingNamespace(t *testing.T) {
	_, err := Parse("pkg:chainsights/core@1.0.0")
	if _, ok := err.(*InvalidPurlError); !ok {
		t.Fatalf("expected *InvalidPurlError, got %T (%v)", err, err)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	_, err := Parse("not-a-purl-at-all")
	if _, ok := err.(*InvalidPurlError); !ok {
		t.Fatalf("expected *InvalidPurlError, got %T (%v)", err, err)
	}
}
