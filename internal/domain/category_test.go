package domain

import "testing"

func TestSplitCategoryID(t *testing.T) {
	tests := []struct {
		id      string
		wantTop string
		wantSub string
	}{
		{"dev", "dev", ""},
		{"design/tools", "design", "tools"},
		{"a/b", "a", "b"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			top, sub := SplitCategoryID(tt.id)
			if top != tt.wantTop || sub != tt.wantSub {
				t.Errorf("SplitCategoryID(%q) = (%q, %q), want (%q, %q)",
					tt.id, top, sub, tt.wantTop, tt.wantSub)
			}
		})
	}
}

func TestValidateCategoryID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"simple", "dev", false},
		{"nested", "design/tools", false},
		{"with dash and dot", "ai-ml.v2", false},
		{"empty", "", true},
		{"too deep", "a/b/c", true},
		{"empty segment", "dev/", true},
		{"leading slash", "/dev", true},
		{"dot segment", "..", true},
		{"traversal", "design/..", true},
		{"spaces", "my category", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCategoryID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCategoryID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}
