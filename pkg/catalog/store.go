package catalog

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/errors"
)

// Store looks up catalogs by name.
type Store interface {
	// List returns a summary of every catalog, sorted by name.
	List(ctx context.Context) ([]Info, error)

	// Get returns the named catalog, or a CATALOG_NOT_FOUND error.
	Get(ctx context.Context, name string) (*Catalog, error)
}

// NotFound builds the error stores return for unknown catalog names.
func NotFound(name string) error {
	return errors.New(errors.ErrCodeCatalogNotFound, "catalog %q not found", name)
}

// =============================================================================
// Builtin
// =============================================================================

//go:embed data
var builtinFS embed.FS

// BuiltinStore serves the catalogs compiled into the binary. It decodes
// them once on first use; callers receive copies.
type BuiltinStore struct {
	once     sync.Once
	catalogs map[string]*Catalog
	err      error
}

// Builtin is the shared store of compiled-in catalogs.
var Builtin = &BuiltinStore{}

func (s *BuiltinStore) load() error {
	s.once.Do(func() {
		s.catalogs, s.err = readFS(builtinFS, "data")
	})
	return s.err
}

// List implements Store.
func (s *BuiltinStore) List(context.Context) ([]Info, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	return infos(s.catalogs), nil
}

// Get implements Store.
func (s *BuiltinStore) Get(_ context.Context, name string) (*Catalog, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	c, ok := s.catalogs[name]
	if !ok {
		return nil, NotFound(name)
	}
	return c.clone(), nil
}

func readFS(fsys fs.FS, dir string) (map[string]*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*Catalog, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		format, err := FormatFromPath(e.Name())
		if err != nil {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		c, err := Read(bytes.NewReader(data), format)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		if c.Name == "" {
			c.Name = strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		}
		out[c.Name] = c
	}
	return out, nil
}

// =============================================================================
// Directory
// =============================================================================

// DirStore serves catalog files from a directory. A catalog named n is
// the first of n.json, n.toml, n.yaml or n.yml that exists. The directory
// is read on every call so edits show up without a restart.
type DirStore struct {
	dir string
}

// NewDirStore creates a store over dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

// Dir returns the directory the store reads from.
func (s *DirStore) Dir() string { return s.dir }

// List implements Store. Files that fail to decode are skipped.
func (s *DirStore) List(context.Context) ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	catalogs := make(map[string]*Catalog)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := FormatFromPath(e.Name()); err != nil {
			continue
		}
		c, err := Load(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		if _, dup := catalogs[c.Name]; !dup {
			catalogs[c.Name] = c
		}
	}
	return infos(catalogs), nil
}

// Get implements Store.
func (s *DirStore) Get(_ context.Context, name string) (*Catalog, error) {
	if err := errors.ValidateCatalogName(name); err != nil {
		return nil, err
	}
	for _, ext := range []string{".json", ".toml", ".yaml", ".yml"} {
		p := filepath.Join(s.dir, name+ext)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		return Load(p)
	}
	return nil, NotFound(name)
}

// =============================================================================
// Chain
// =============================================================================

// Chain queries stores in order. Get returns the first hit; List merges
// listings, earlier stores shadowing later ones.
type Chain []Store

// List implements Store.
func (c Chain) List(ctx context.Context) ([]Info, error) {
	seen := make(map[string]bool)
	var out []Info
	for _, s := range c {
		list, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, info := range list {
			if !seen[info.Name] {
				seen[info.Name] = true
				out = append(out, info)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get implements Store.
func (c Chain) Get(ctx context.Context, name string) (*Catalog, error) {
	for _, s := range c {
		cat, err := s.Get(ctx, name)
		if err == nil {
			return cat, nil
		}
		if !errors.Is(err, errors.ErrCodeCatalogNotFound) {
			return nil, err
		}
	}
	return nil, NotFound(name)
}

// =============================================================================
// Resolution
// =============================================================================

// Resolve treats ref as a file path when it names an existing file or has
// a catalog extension, and as a catalog name in store otherwise.
func Resolve(ctx context.Context, store Store, ref string) (*Catalog, error) {
	if _, err := FormatFromPath(ref); err == nil {
		return Load(ref)
	}
	if fi, err := os.Stat(ref); err == nil && !fi.IsDir() {
		return Load(ref)
	}
	return store.Get(ctx, ref)
}

func infos(catalogs map[string]*Catalog) []Info {
	out := make([]Info, 0, len(catalogs))
	for _, c := range catalogs {
		out = append(out, c.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// clone copies c deeply enough that callers may edit objects and orbits.
func (c *Catalog) clone() *Catalog {
	out := *c
	out.Objects = make([]celestial.Object, len(c.Objects))
	for i, o := range c.Objects {
		if o.Orbit != nil {
			orbit := *o.Orbit
			o.Orbit = &orbit
		}
		out.Objects[i] = o
	}
	return &out
}
