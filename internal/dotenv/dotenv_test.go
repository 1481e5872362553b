package dotenv

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFilesAreNoop(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := Load(filepath.Join(dir, ".env"), filepath.Join(dir, ".env.local")); err != nil {
		t.Fatalf("Load missing files error: %v", err)
	}
}

func TestLoad_SetsValuesAndPreservesExisting(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	content := "" +
		"# comment\n" +
		"FROM_FILE=loaded\n" +
		"QUOTED=\"hello world\"\n" +
		"SINGLE='one two'\n" +
		"export EXPORTED=ok\n" +
		"EXISTING=from_file\n" +
		"not-a-pair\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("EXISTING", "already_set")

	if err := Load(envPath); err != nil {
		t.Fatalf("Load error: %v", err)
	}

	for key, want := range map[string]string{
		"FROM_FILE": "loaded",
		"QUOTED":    "hello world",
		"SINGLE":    "one two",
		"EXPORTED":  "ok",
		"EXISTING":  "already_set",
	} {
		if got := os.Getenv(key); got != want {
			t.Fatalf("%s=%q, want %q", key, got, want)
		}
	}
}

func TestLoad_UsesFirstExistingFile(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, ".env")
	second := filepath.Join(dir, ".env.local")
	if err := os.WriteFile(first, []byte("PICKED=first\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	if err := os.WriteFile(second, []byte("PICKED=second\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("PICKED", "")
	os.Unsetenv("PICKED")

	if err := Load(first, second); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got := os.Getenv("PICKED"); got != "first" {
		t.Fatalf("PICKED=%q, want %q", got, "first")
	}
}
