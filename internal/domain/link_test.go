package domain

import (
	"testing"
)

func TestNewLink(t *testing.T) {
	link := NewLink("Example", "a site", "https://example.com", "", IconText, []string{"dev"}, false, "dev")

	if link.ID == "" {
		t.Error("NewLink() should generate an id")
	}
	if link.CreatedAt.IsZero() {
		t.Error("NewLink() should set CreatedAt")
	}
	if !link.CreatedAt.Equal(link.UpdatedAt) {
		t.Errorf("CreatedAt = %v, UpdatedAt = %v, want equal at creation", link.CreatedAt, link.UpdatedAt)
	}

	other := NewLink("Other", "", "https://other.example.com", "", "", nil, false, "dev")
	if other.ID == link.ID {
		t.Error("NewLink() should generate unique ids")
	}
}

func TestLinkTouch(t *testing.T) {
	link := NewLink("Example", "", "https://example.com", "", "", nil, false, "dev")
	created := link.CreatedAt

	link.Touch()

	if link.CreatedAt != created {
		t.Error("Touch() must not change CreatedAt")
	}
	if link.UpdatedAt.Before(created) {
		t.Error("Touch() must not move UpdatedAt backwards")
	}
}

func TestLinkValidate(t *testing.T) {
	valid := func() *Link {
		return &Link{
			Title:    "Example",
			URL:      "https://example.com",
			Category: "dev",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Link)
		wantErr bool
	}{
		{
			name:    "valid link",
			mutate:  func(l *Link) {},
			wantErr: false,
		},
		{
			name:    "valid nested category",
			mutate:  func(l *Link) { l.Category = "design/tools" },
			wantErr: false,
		},
		{
			name:    "valid icon types",
			mutate:  func(l *Link) { l.IconType = IconImage },
			wantErr: false,
		},
		{
			name:    "missing title",
			mutate:  func(l *Link) { l.Title = "   " },
			wantErr: true,
		},
		{
			name:    "missing url",
			mutate:  func(l *Link) { l.URL = "" },
			wantErr: true,
		},
		{
			name:    "relative url",
			mutate:  func(l *Link) { l.URL = "/just/a/path" },
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			mutate:  func(l *Link) { l.URL = "ftp://example.com" },
			wantErr: true,
		},
		{
			name:    "missing category",
			mutate:  func(l *Link) { l.Category = "" },
			wantErr: true,
		},
		{
			name:    "unknown icon type",
			mutate:  func(l *Link) { l.IconType = "emoji" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := valid()
			tt.mutate(link)

			err := link.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsValidation(err) {
				t.Errorf("Validate() should return a ValidationError, got %T", err)
			}
		})
	}
}
