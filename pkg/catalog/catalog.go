// Package catalog loads the object lists that layouts are computed from.
//
// A catalog is a named list of [celestial.Object] values. Catalogs are read
// from JSON, TOML or YAML documents, picked by file extension:
//
//	name = "sol"
//	description = "The solar system"
//
//	[[objects]]
//	id = "sol"
//	classification = "star"
//	properties = { radius_km = 695700 }
//
//	[[objects]]
//	id = "earth"
//	classification = "planet"
//	properties = { radius_km = 6371 }
//	orbit = { parent_id = "sol", semi_major_axis_au = 1.0 }
//
// JSON documents may also be a bare array of objects. Classifications are
// normalized ("Dwarf Planet" becomes dwarf_planet); unknown classifications
// and invalid IDs are rejected.
//
// Catalogs are looked up by name through a [Store]: [BuiltinStore] serves
// the catalogs compiled into the binary, [DirStore] a directory of catalog
// files, and the catalog/mongo subpackage a MongoDB collection.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/errors"
)

// Document formats.
const (
	FormatJSON = "json"
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// Catalog is a named object list.
type Catalog struct {
	Name        string             `json:"name" toml:"name" yaml:"name" bson:"name"`
	Description string             `json:"description,omitempty" toml:"description" yaml:"description,omitempty" bson:"description,omitempty"`
	Objects     []celestial.Object `json:"objects" toml:"objects" yaml:"objects" bson:"objects"`
}

// Info summarizes a catalog for listings.
type Info struct {
	Name        string `json:"name" bson:"name"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
	Objects     int    `json:"objects" bson:"objects"`
}

// Info returns the listing summary of c.
func (c *Catalog) Info() Info {
	return Info{Name: c.Name, Description: c.Description, Objects: len(c.Objects)}
}

// FormatFromPath infers the document format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported catalog file %s (want .json, .toml, .yaml or .yml)", filepath.Base(path))
}

// Read decodes a catalog document in the given format from r and
// normalizes it. Read does not close r.
func Read(r io.Reader, format string) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var c Catalog
	switch format {
	case FormatJSON:
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
			err = json.Unmarshal(trimmed, &c.Objects)
		} else {
			err = json.Unmarshal(data, &c)
		}
	case FormatTOML:
		err = toml.Unmarshal(data, &c)
	case FormatYAML:
		err = yaml.Unmarshal(data, &c)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported catalog format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s catalog", format)
	}

	if err := c.Normalize(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads the catalog file at path. A catalog without a name is named
// after the file.
func Load(path string) (*Catalog, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	c, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return c, nil
}

// Normalize validates object IDs and canonicalizes classifications in
// place. Empty catalogs are accepted; the layout service rejects them.
func (c *Catalog) Normalize() error {
	for i := range c.Objects {
		o := &c.Objects[i]
		if err := errors.ValidateObjectID(o.ID); err != nil {
			return fmt.Errorf("object %d: %w", i, err)
		}
		cls, ok := celestial.ParseClassification(string(o.Classification))
		if !ok {
			return errors.New(errors.ErrCodeInvalidInput, "object %s has unknown classification %q", o.ID, o.Classification)
		}
		o.Classification = cls
	}
	return nil
}

// Marshal encodes c in the given format.
func Marshal(c *Catalog, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(c, "", "  ")
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatYAML:
		return yaml.Marshal(c)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported catalog format %q", format)
}
