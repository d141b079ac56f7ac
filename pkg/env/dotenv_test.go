package env

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "WERKIT_TEST_FOO=bar\n# comment\nexport WERKIT_TEST_BAZ=\"qux\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("WERKIT_TEST_FOO", "")
	t.Setenv("WERKIT_TEST_BAZ", "")
	_ = os.Unsetenv("WERKIT_TEST_FOO")
	_ = os.Unsetenv("WERKIT_TEST_BAZ")
	if err := LoadFromDir(dir); err != nil {
		t.Fatalf("LoadFromDir: %v", err)
	}
	if got := os.Getenv("WERKIT_TEST_FOO"); got != "bar" {
		t.Fatalf("expected WERKIT_TEST_FOO=bar, got %q", got)
	}
	if got := os.Getenv("WERKIT_TEST_BAZ"); got != "qux" {
		t.Fatalf("expected WERKIT_TEST_BAZ=qux, got %q", got)
	}
}

func TestLoadDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("WERKIT_TEST_FOO=bar\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("WERKIT_TEST_FOO", "existing")
	if err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := os.Getenv("WERKIT_TEST_FOO"); got != "existing" {
		t.Fatalf("expected existing value preserved, got %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if err := Load(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
}
