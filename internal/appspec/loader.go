package appspec

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the manifest file expected at the root of an archive.
const DefaultFileName = "appspec.yml"

// Loader reads the appspec from a deployment archive directory.
type Loader struct {
	fileName string
}

// NewLoader creates a loader for fileName (DefaultFileName when empty).
func NewLoader(fileName string) *Loader {
	if fileName == "" {
		fileName = DefaultFileName
	}
	return &Loader{
		fileName: fileName,
	}
}

// Load reads and parses the appspec located in archiveDir.
func (l *Loader) Load(archiveDir string) (*AppSpec, error) {
	path := filepath.Join(archiveDir, l.fileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read appspec: %w", err)
	}
	return Parse(data)
}

// Parse decodes an appspec document. Values are kept verbatim; a literal
// "$" in a URL, header or script path is not interpreted.
func Parse(data []byte) (*AppSpec, error) {
	var spec AppSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse appspec yaml: %w", err)
	}
	return &spec, nil
}
