// Package bundle resolves installed JavaScript packages to the minified
// script bundles that are loaded into the browser page.
package bundle

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	// ModuleEngine is the diagram rendering engine package
	ModuleEngine = "mermaid"
	// ModuleZenUML is the UML sequence diagram extension package
	ModuleZenUML = "@mermaid-js/mermaid-zenuml"
)

// ErrModuleResolution is matched by errors returned when a module cannot be resolved
var ErrModuleResolution = errors.New("module resolution failed")

// ResolutionError reports a module that is not installed below the search root.
type ResolutionError struct {
	Module string
	Root   string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot resolve module %q from %s: %v", e.Module, e.Root, e.Err)
	}
	return fmt.Sprintf("cannot resolve module %q from %s", e.Module, e.Root)
}

// Is reports whether target is ErrModuleResolution.
func (e *ResolutionError) Is(target error) bool { return target == ErrModuleResolution }

func (e *ResolutionError) Unwrap() error { return e.Err }

// Bundles lists the script files loaded into a page.
type Bundles struct {
	// Engine is the rendering engine bundle
	Engine string
	// Extensions are diagram extension bundles registered with the engine
	Extensions []Extension
}

// Extension is a diagram extension bundle and the global it defines.
type Extension struct {
	Path   string
	Global string
}

// Paths returns every bundle path, extensions first.
func (b Bundles) Paths() []string {
	paths := make([]string, 0, len(b.Extensions)+1)
	for _, ext := range b.Extensions {
		paths = append(paths, ext.Path)
	}
	return append(paths, b.Engine)
}

// ResolveDefaults resolves the engine and the ZenUML extension from root.
func ResolveDefaults(root string) (Bundles, error) {
	engine, err := Resolve(root, ModuleEngine)
	if err != nil {
		return Bundles{}, err
	}
	zenuml, err := Resolve(root, ModuleZenUML)
	if err != nil {
		return Bundles{}, err
	}
	return Bundles{
		Engine: engine,
		Extensions: []Extension{
			{Path: zenuml, Global: GlobalName(ModuleZenUML)},
		},
	}, nil
}

// Resolve returns the minified bundle of module, searching node_modules
// directories from root up to the filesystem root. The bundle lives next to
// the package entry point and is named after the last path element of the
// module name.
func Resolve(root, module string) (string, error) {
	if module == "" {
		return "", &ResolutionError{Module: module, Root: root, Err: errors.New("empty module name")}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &ResolutionError{Module: module, Root: root, Err: err}
	}

	pkgDir, err := findPackage(abs, module)
	if err != nil {
		return "", &ResolutionError{Module: module, Root: abs, Err: err}
	}

	entry, err := entryPoint(pkgDir)
	if err != nil {
		return "", &ResolutionError{Module: module, Root: abs, Err: err}
	}

	bundle := filepath.Join(filepath.Dir(filepath.Join(pkgDir, entry)), GlobalName(module)+".min.js")
	info, err := os.Stat(bundle)
	if err != nil {
		return "", &ResolutionError{Module: module, Root: abs, Err: err}
	}
	if info.IsDir() {
		return "", &ResolutionError{Module: module, Root: abs, Err: fmt.Errorf("%s is a directory", bundle)}
	}
	return bundle, nil
}

// GlobalName returns the last path element of a module name, which is also
// the global the bundle defines in the page.
func GlobalName(module string) string {
	return path.Base(module)
}

func findPackage(start, module string) (string, error) {
	dir := start
	for {
		candidate := filepath.Join(dir, "node_modules", filepath.FromSlash(module))
		if _, err := os.Stat(filepath.Join(candidate, "package.json")); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("package is not installed")
		}
		dir = parent
	}
}

// entryPoint picks the package entry from package.json. Conditional exports
// are preferred over main because they point at the published dist folder.
func entryPoint(pkgDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(pkgDir, "package.json"))
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(data) {
		return "", errors.New("invalid package.json")
	}

	candidates := []string{
		`exports.\..import`,
		`exports.\..default`,
		`exports.\..require`,
		`exports.\.`,
		`exports`,
		"module",
		"main",
	}
	for _, p := range candidates {
		v := gjson.GetBytes(data, p)
		if v.Type == gjson.String && v.Str != "" {
			return strings.TrimPrefix(v.Str, "./"), nil
		}
	}
	return "index.js", nil
}
