package captcha

import "testing"

func TestCollectionCloneIsIndependent(t *testing.T) {
	t.Parallel()

	orig := Collection{Name: "cats", Images: []string{"a.jpg", "b.jpg"}}
	clone := orig.Clone()
	clone.Images[0] = "mutated.jpg"

	if orig.Images[0] != "a.jpg" {
		t.Fatal("mutating a clone's Images should not affect the original")
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{BufferSize: 8, ImageSize: 96, GapSize: 8, GridLength: 3}, false},
		{"zero buffer", Config{BufferSize: 0, ImageSize: 96, GapSize: 8, GridLength: 3}, true},
		{"zero image size", Config{BufferSize: 8, ImageSize: 0, GapSize: 8, GridLength: 3}, true},
		{"negative gap", Config{BufferSize: 8, ImageSize: 96, GapSize: -1, GridLength: 3}, true},
		{"zero grid length", Config{BufferSize: 8, ImageSize: 96, GapSize: 8, GridLength: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigCells(t *testing.T) {
	t.Parallel()

	cfg := Config{GridLength: 4}
	if got := cfg.Cells(); got != 16 {
		t.Fatalf("Cells() = %d, want 16", got)
	}
}
