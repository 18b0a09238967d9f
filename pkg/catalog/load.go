package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/controlgraph/pkg/errors"
)

// Supported catalog encodings.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

//go:embed default.toml
var defaultTOML []byte

// Default returns a fresh copy of the embedded sample catalog.
// It panics if the embedded data is invalid, which is a build defect.
func Default() *Catalog {
	c, err := Decode(bytes.NewReader(defaultTOML), FormatTOML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
	}
	return c
}

// Load reads and validates a catalog file. The format is chosen from the
// file extension (.toml, .yaml, .yml, .json).
func Load(path string) (*Catalog, error) {
	if err := errors.ValidateCatalogPath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	c, err := Decode(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return c, nil
}

// FormatFromPath maps a file extension to a catalog format.
// Unknown extensions default to TOML.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatTOML
	}
}

// Decode reads a catalog in the given format, derives missing relation
// counts, and validates the result.
func Decode(r io.Reader, format string) (*Catalog, error) {
	var c Catalog
	switch format {
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&c); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidCatalog, err, "decode toml")
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&c); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidCatalog, err, "decode yaml")
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&c); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidCatalog, err, "decode json")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported catalog format: %s", format)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.deriveRelationCounts()
	return &c, nil
}

// WriteJSON writes the catalog as indented JSON.
func (c *Catalog) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
