package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/canopy-commissioning/internal/domain"
)

// readProject loads a project from a JSON or YAML file, or from stdin when
// path is "-". YAML is recognised by extension.
func readProject(path string, stdin io.Reader) (domain.Project, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return domain.Project{}, &fileError{path: path, err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return domain.Project{}, err
		}
	}
	return domain.ParseProject(data)
}

// yamlToJSON re-encodes a YAML document as JSON so the project decoder's
// field names and leniency apply unchanged.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidProject, err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidProject, err)
	}
	return out, nil
}

type fileError struct {
	path string
	err  error
}

func (e *fileError) Error() string { return fmt.Sprintf("read %s: %v", e.path, e.err) }
func (e *fileError) Unwrap() error { return e.err }
