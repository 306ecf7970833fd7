package packages

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gopa-lang/gopa/internal/object"
	"github.com/gopa-lang/gopa/internal/perm"
	"github.com/gopa-lang/gopa/internal/registry"
)

func TestUseBundledStdlib(t *testing.T) {
	m := NewManager(registry.NewMemory(), perm.None(), nil)
	ns, err := m.Use("colors")
	if err != nil {
		t.Fatal(err)
	}
	if ns.Kind != object.KindObject {
		t.Fatalf("namespace kind = %s", ns.Kind)
	}
	red, ok := ns.Map.Get("red")
	if !ok || red.Str != "#ff0000" {
		t.Fatalf("red = %v ok=%v", red, ok)
	}
	if _, ok := ns.Map.Get("square"); ok {
		t.Fatal("colors must not leak math definitions")
	}
}

func TestUseIsIdempotent(t *testing.T) {
	m := NewManager(registry.NewMemory(), perm.None(), nil)
	a, err := m.Use("math")
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Use("math")
	if err != nil {
		t.Fatal(err)
	}
	if a.Map != b.Map {
		t.Fatal("second use must return the same namespace")
	}
}

func TestUseInstalledPackage(t *testing.T) {
	store := registry.NewMemory()
	store.Put(&registry.Package{
		Name:     "greet",
		Version:  "1.0.0",
		Manifest: "name = \"greet\"\nexports = [\"greeting\"]\n",
		Source:   "greeting is \"hello\"\nsecret is \"hidden\"",
	})
	m := NewManager(store, perm.None(), nil)

	ns, err := m.Use("greet")
	if err != nil {
		t.Fatal(err)
	}
	greeting, ok := ns.Map.Get("greeting")
	if !ok || greeting.Str != "hello" {
		t.Fatalf("greeting = %v", greeting)
	}
	if _, ok := ns.Map.Get("secret"); ok {
		t.Fatal("unexported names must stay private")
	}
}

func TestUseMissingPackage(t *testing.T) {
	m := NewManager(registry.NewMemory(), perm.None(), nil)
	if _, err := m.Use("nope"); err == nil || !strings.Contains(err.Error(), "not installed") {
		t.Fatalf("err = %v", err)
	}
}

func TestManifestPermissionsFailClosed(t *testing.T) {
	store := registry.NewMemory()
	store.Put(&registry.Package{
		Name:     "fetcher",
		Version:  "1.0.0",
		Manifest: "name = \"fetcher\"\npermissions = [\"network\"]\n",
		// Top-level code prints, which would prove it ran.
		Source: "say \"ran\"",
	})
	var out strings.Builder
	m := NewManager(store, perm.None(), &out)

	_, err := m.Use("fetcher")
	if err == nil || !strings.Contains(err.Error(), "network") {
		t.Fatalf("err = %v", err)
	}
	if out.Len() != 0 {
		t.Fatal("package code ran before the permission check")
	}
}

func TestManifestPermissionsSatisfied(t *testing.T) {
	store := registry.NewMemory()
	store.Put(&registry.Package{
		Name:     "fetcher",
		Version:  "1.0.0",
		Manifest: "name = \"fetcher\"\npermissions = [\"network\"]\n",
		Source:   "ok is yes",
	})
	m := NewManager(store, perm.Parse("network"), nil)
	if _, err := m.Use("fetcher"); err != nil {
		t.Fatal(err)
	}
}

func TestExportedFunctionMissing(t *testing.T) {
	store := registry.NewMemory()
	store.Put(&registry.Package{
		Name:     "broken",
		Version:  "1.0.0",
		Manifest: "name = \"broken\"\nexports = [\"gone\"]\n",
		Source:   "present is 1",
	})
	m := NewManager(store, perm.None(), nil)
	if _, err := m.Use("broken"); err == nil || !strings.Contains(err.Error(), "gone") {
		t.Fatalf("err = %v", err)
	}
}

func TestInstallLocal(t *testing.T) {
	dir := t.TempDir()
	pkgDir := filepath.Join(dir, "shapes")
	if err := os.Mkdir(pkgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := "name = \"shapes\"\nversion = \"0.2.0\"\nentry = \"main.gopa\"\nexports = [\"area\"]\n"
	if err := os.WriteFile(filepath.Join(pkgDir, "gopa.toml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	src := "define area with w h\nreturn w times h\nend"
	if err := os.WriteFile(filepath.Join(pkgDir, "main.gopa"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	store := registry.NewMemory()
	m := NewManager(store, perm.None(), nil)
	if err := m.Install(pkgDir); err != nil {
		t.Fatal(err)
	}

	installed, err := store.Get("shapes")
	if err != nil {
		t.Fatal(err)
	}
	if installed == nil || installed.Version != "0.2.0" {
		t.Fatalf("installed = %+v", installed)
	}

	ns, err := m.Use("shapes")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ns.Map.Get("area"); !ok {
		t.Fatal("area not exported")
	}
}

func TestInstallBareNameRejected(t *testing.T) {
	m := NewManager(registry.NewMemory(), perm.None(), nil)
	if err := m.Install("shapes"); err == nil || !strings.Contains(err.Error(), "local path") {
		t.Fatalf("err = %v", err)
	}
}
