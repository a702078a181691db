package bundle

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// installPackage lays out a fake npm package under root/node_modules.
func installPackage(t *testing.T, root, module, packageJSON string, files ...string) string {
	t.Helper()
	dir := filepath.Join(root, "node_modules", filepath.FromSlash(module))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(packageJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		p := filepath.Join(dir, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("// bundle"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestResolve_ConditionalExports(t *testing.T) {
	root := t.TempDir()
	dir := installPackage(t, root, "mermaid",
		`{"name":"mermaid","main":"./dist/mermaid.core.mjs","exports":{".":{"types":"./dist/mermaid.d.ts","import":"./dist/mermaid.core.mjs"}}}`,
		"dist/mermaid.min.js")

	got, err := Resolve(root, "mermaid")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := filepath.Join(dir, "dist", "mermaid.min.js")
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestResolve_ScopedPackageUsesBaseName(t *testing.T) {
	root := t.TempDir()
	dir := installPackage(t, root, ModuleZenUML,
		`{"name":"@mermaid-js/mermaid-zenuml","module":"dist/mermaid-zenuml.esm.mjs"}`,
		"dist/mermaid-zenuml.min.js")

	got, err := Resolve(root, ModuleZenUML)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := filepath.Join(dir, "dist", "mermaid-zenuml.min.js")
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestResolve_WalksUpToParentNodeModules(t *testing.T) {
	root := t.TempDir()
	installPackage(t, root, "mermaid", `{"main":"dist/index.js"}`, "dist/mermaid.min.js")
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := Resolve(nested, "mermaid"); err != nil {
		t.Fatalf("Expected module to resolve from nested dir, got %v", err)
	}
}

func TestResolve_NotInstalled(t *testing.T) {
	_, err := Resolve(t.TempDir(), "mermaid")
	if !errors.Is(err, ErrModuleResolution) {
		t.Fatalf("Expected ErrModuleResolution, got %v", err)
	}
	var resErr *ResolutionError
	if !errors.As(err, &resErr) || resErr.Module != "mermaid" {
		t.Errorf("Expected ResolutionError for mermaid, got %v", err)
	}
}

func TestResolve_MissingMinifiedBundle(t *testing.T) {
	root := t.TempDir()
	installPackage(t, root, "mermaid", `{"main":"dist/mermaid.core.mjs"}`, "dist/mermaid.core.mjs")

	_, err := Resolve(root, "mermaid")
	if !errors.Is(err, ErrModuleResolution) {
		t.Fatalf("Expected ErrModuleResolution, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected wrapped not-exist error, got %v", err)
	}
}

func TestResolve_InvalidPackageJSON(t *testing.T) {
	root := t.TempDir()
	installPackage(t, root, "mermaid", `{not json`)

	if _, err := Resolve(root, "mermaid"); !errors.Is(err, ErrModuleResolution) {
		t.Fatalf("Expected ErrModuleResolution, got %v", err)
	}
}

func TestResolveDefaults(t *testing.T) {
	root := t.TempDir()
	installPackage(t, root, "mermaid", `{"main":"dist/mermaid.js"}`, "dist/mermaid.min.js")

	if _, err := ResolveDefaults(root); !errors.Is(err, ErrModuleResolution) {
		t.Fatalf("Expected missing extension to fail resolution, got %v", err)
	}

	installPackage(t, root, ModuleZenUML, `{"main":"dist/mermaid-zenuml.js"}`, "dist/mermaid-zenuml.min.js")

	bundles, err := ResolveDefaults(root)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(bundles.Extensions) != 1 || bundles.Extensions[0].Global != "mermaid-zenuml" {
		t.Errorf("Unexpected extensions: %+v", bundles.Extensions)
	}
	paths := bundles.Paths()
	if len(paths) != 2 || paths[1] != bundles.Engine {
		t.Errorf("Expected engine bundle last, got %v", paths)
	}
}
