package devtools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"contentnode/internal/codec"
	"contentnode/internal/restmodel"
)

// Directory and file names inside a package
const (
	DirConstructs       = "constructs"
	DirDatasources      = "datasources"
	DirTemplates        = "templates"
	DirObjectProperties = "objectproperties"

	baseConstruct  = "construct"
	baseDatasource = "datasource"
	baseStructure  = "gentics_structure"

	// FileSource holds the template source next to its structure file
	FileSource = "source.html"
)

var (
	// ErrNotFound is returned for packages that do not exist
	ErrNotFound = errors.New("package not found")
	// ErrInvalidName is returned for package or object names that cannot be used as a directory
	ErrInvalidName = errors.New("invalid name")
)

// Contents are the objects of one package
type Contents struct {
	Constructs       []*restmodel.DevtoolsConstruct      `json:"constructs,omitempty"`
	Datasources      []*restmodel.DevtoolsDatasource     `json:"datasources,omitempty"`
	Templates        []*restmodel.DevtoolsTemplate       `json:"templates,omitempty"`
	ObjectProperties []*restmodel.DevtoolsObjectProperty `json:"objectProperties,omitempty"`
}

// IsEmpty reports whether the package holds no objects
func (c *Contents) IsEmpty() bool {
	return len(c.Constructs) == 0 && len(c.Datasources) == 0 &&
		len(c.Templates) == 0 && len(c.ObjectProperties) == 0
}

// Packages reads and writes packages below a root directory
type Packages struct {
	root  string
	codec codec.Codec
}

// New creates a package directory. The codec is used for writing; reading
// accepts every supported format.
func New(root string, c codec.Codec) *Packages {
	if c == nil {
		c = codec.NewJSONCodec()
	}
	return &Packages{root: root, codec: c}
}

// Root returns the packages directory
func (p *Packages) Root() string {
	return p.root
}

// Dir returns the directory of the named package
func (p *Packages) Dir(name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	return filepath.Join(p.root, name), nil
}

// List returns the names of all packages
func (p *Packages) List() ([]string, error) {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// PackageOf returns the package name of a slash separated path relative to the root
func (p *Packages) PackageOf(rel string) string {
	name, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	if validName(name) != nil {
		return ""
	}
	return name
}

// ============================================================================
// Export
// ============================================================================

// Export writes the contents into the named package, creating it if needed.
// Existing objects with the same directory name are overwritten.
func (p *Packages) Export(ctx context.Context, name string, c *Contents) error {
	dir, err := p.Dir(name)
	if err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create package %s: %w", name, err)
	}

	for _, ds := range c.Datasources {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.writeObject(dir, DirDatasources, ds.Name, baseDatasource, ds); err != nil {
			return err
		}
	}
	for _, con := range c.Constructs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.writeObject(dir, DirConstructs, con.Keyword, baseConstruct, con); err != nil {
			return err
		}
	}
	for _, op := range c.ObjectProperties {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.writeObject(dir, DirObjectProperties, op.Keyword, baseStructure, op); err != nil {
			return err
		}
	}
	for _, t := range c.Templates {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.writeObject(dir, DirTemplates, t.Name, baseStructure, t); err != nil {
			return err
		}
		path := filepath.Join(dir, DirTemplates, t.Name, FileSource)
		if err := os.WriteFile(path, []byte(t.Source), 0644); err != nil {
			return fmt.Errorf("failed to write template source %s: %w", t.Name, err)
		}
	}
	return nil
}

// validate checks every directory name before anything is written
func (c *Contents) validate() error {
	check := func(kind, name string) error {
		if err := validName(name); err != nil {
			return fmt.Errorf("%s %q: %w", kind, name, err)
		}
		return nil
	}
	for _, ds := range c.Datasources {
		if err := check(DirDatasources, ds.Name); err != nil {
			return err
		}
	}
	for _, con := range c.Constructs {
		if err := check(DirConstructs, con.Keyword); err != nil {
			return err
		}
	}
	for _, op := range c.ObjectProperties {
		if err := check(DirObjectProperties, op.Keyword); err != nil {
			return err
		}
	}
	for _, t := range c.Templates {
		if err := check(DirTemplates, t.Name); err != nil {
			return err
		}
	}
	return nil
}

func (p *Packages) writeObject(pkgDir, kind, name, base string, v any) error {
	if err := validName(name); err != nil {
		return fmt.Errorf("%s %q: %w", kind, name, err)
	}
	dir := filepath.Join(pkgDir, kind, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	// drop structure files in other formats so reading stays unambiguous
	for _, ext := range codec.Extensions() {
		if ext != p.codec.Extension() {
			_ = os.Remove(filepath.Join(dir, base+ext))
		}
	}

	f, err := os.Create(filepath.Join(dir, base+p.codec.Extension()))
	if err != nil {
		return fmt.Errorf("failed to create %s %s: %w", kind, name, err)
	}
	if err := p.codec.Encode(f, v); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s %s: %w", kind, name, err)
	}
	return f.Close()
}

// ============================================================================
// Load
// ============================================================================

// Load reads all objects of the named package
func (p *Packages) Load(name string) (*Contents, error) {
	dir, err := p.Dir(name)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	c := &Contents{}
	err = eachObject(dir, DirDatasources, baseDatasource, func(path string) error {
		var ds restmodel.DevtoolsDatasource
		if err := decodeFile(path, &ds); err != nil {
			return err
		}
		c.Datasources = append(c.Datasources, &ds)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachObject(dir, DirConstructs, baseConstruct, func(path string) error {
		var con restmodel.DevtoolsConstruct
		if err := decodeFile(path, &con); err != nil {
			return err
		}
		c.Constructs = append(c.Constructs, &con)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachObject(dir, DirObjectProperties, baseStructure, func(path string) error {
		var op restmodel.DevtoolsObjectProperty
		if err := decodeFile(path, &op); err != nil {
			return err
		}
		c.ObjectProperties = append(c.ObjectProperties, &op)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachObject(dir, DirTemplates, baseStructure, func(path string) error {
		var t restmodel.DevtoolsTemplate
		if err := decodeFile(path, &t); err != nil {
			return err
		}
		objDir := filepath.Dir(path)
		if t.Name == "" {
			t.Name = filepath.Base(objDir)
		}
		src, err := os.ReadFile(filepath.Join(objDir, FileSource))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read template source %s: %w", t.Name, err)
		}
		t.Source = string(src)
		c.Templates = append(c.Templates, &t)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

// eachObject calls fn with the structure file of every object directory of the kind
func eachObject(pkgDir, kind, base string, fn func(path string) error) error {
	entries, err := os.ReadDir(filepath.Join(pkgDir, kind))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", kind, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path, ok := structureFile(filepath.Join(pkgDir, kind, e.Name()), base)
		if !ok {
			continue
		}
		if err := fn(path); err != nil {
			return fmt.Errorf("%s/%s: %w", kind, e.Name(), err)
		}
	}
	return nil
}

// structureFile finds the structure file of an object in any supported format
func structureFile(dir, base string) (string, bool) {
	for _, ext := range codec.Extensions() {
		path := filepath.Join(dir, base+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func decodeFile(path string, v any) error {
	c, err := codec.ForPath(path)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	if err := c.Decode(f, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func validName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return ErrInvalidName
	case strings.ContainsAny(name, `/\`), strings.HasPrefix(name, "."):
		return ErrInvalidName
	}
	return nil
}
