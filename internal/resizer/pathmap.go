package resizer

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Mapper re-roots input paths under <OutputRoot>/<Subfolder>.
type Mapper struct {
	InputRoot  string
	OutputRoot string
	Subfolder  string
}

// Root returns the directory mirrored paths are placed under.
func (m Mapper) Root() string {
	return filepath.Join(m.OutputRoot, m.Subfolder)
}

// Map returns the mirrored path of input. Paths outside InputRoot are rejected.
func (m Mapper) Map(input string) (string, error) {
	rel, err := filepath.Rel(m.InputRoot, input)
	if err != nil {
		return "", fmt.Errorf("relating %q to input root %q: %w", input, m.InputRoot, err)
	}

	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside input root %q", input, m.InputRoot)
	}

	return filepath.Join(m.Root(), rel), nil
}
