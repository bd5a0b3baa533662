package resizer

import (
	"path/filepath"
	"testing"
)

func TestMapper_Map(t *testing.T) {
	m := Mapper{InputRoot: "../images", OutputRoot: "..", Subfolder: "Resized"}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"top-level file", "../images/a.jpg", "../Resized/a.jpg", false},
		{"nested file", "../images/trip/day1/b.png", "../Resized/trip/day1/b.png", false},
		{"unclean input", "../images/./trip/../c.txt", "../Resized/c.txt", false},
		{"outside root", "../other/a.jpg", "", true},
		{"root parent", "..", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Map(filepath.FromSlash(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Map(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != filepath.FromSlash(tt.want) {
				t.Errorf("Map(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMapper_AbsoluteRoots(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	m := Mapper{InputRoot: in, OutputRoot: out, Subfolder: "Resized"}

	got, err := m.Map(filepath.Join(in, "x", "y.gif"))
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(out, "Resized", "x", "y.gif"); got != want {
		t.Errorf("Map = %q, want %q", got, want)
	}
	if m.Root() != filepath.Join(out, "Resized") {
		t.Errorf("Root = %q", m.Root())
	}
}
