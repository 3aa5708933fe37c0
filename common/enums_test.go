package common

import (
	"testing"

	yaml "gopkg.in/yaml.v3"
)

func TestStoreKind_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		in      string
		want    StoreKind
		wantErr bool
	}{
		{"kind: memory", StoreKindMemory, false},
		{"kind: YAML", StoreKindYAML, false},
		{"kind: SQLite", StoreKindSQLite, false},
		{"kind: redis", "", true},
		{"kind: [sqlite]", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var v struct {
				Kind StoreKind `yaml:"kind"`
			}
			err := yaml.Unmarshal([]byte(tt.in), &v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && v.Kind != tt.want {
				t.Errorf("Unmarshal(%q) = %q, want %q", tt.in, v.Kind, tt.want)
			}
		})
	}
}

func TestOutputFmt_UnmarshalYAML(t *testing.T) {
	var v struct {
		Format OutputFmt `yaml:"format"`
	}
	if err := yaml.Unmarshal([]byte("format: Json"), &v); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if v.Format != OutputFmtJSON {
		t.Errorf("Format = %q, want json", v.Format)
	}
	if err := yaml.Unmarshal([]byte("format: toml"), &v); err == nil {
		t.Error("expected error for unknown format")
	}
}
