package secrets

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filippo.io/age"

	"github.com/hay-kot/tenv/internal/core"
	"github.com/hay-kot/tenv/internal/toxfile"
	"github.com/hay-kot/tenv/pkgs/fcrypt"
)

func TestLoad_NoSecretsConfigured(t *testing.T) {
	values, err := Load(toxfile.SecretsConfig{}, core.NewPathResolver(t.TempDir()))
	if err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}
	if len(values) != 0 {
		t.Errorf("Load() = %v, want empty", values)
	}
}

func TestLoad_Plaintext(t *testing.T) {
	dir := t.TempDir()

	content := "# upload credentials\nPYPI_TOKEN=abc123\nCODECOV_TOKEN = xyz\n"
	if err := os.WriteFile(filepath.Join(dir, "secrets.env"), []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write secrets file: %v", err)
	}

	values, err := Load(toxfile.SecretsConfig{SecretsFile: "secrets.env"}, core.NewPathResolver(dir))
	if err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}

	if values["PYPI_TOKEN"] != "abc123" {
		t.Errorf("PYPI_TOKEN = %q, want %q", values["PYPI_TOKEN"], "abc123")
	}
	if values["CODECOV_TOKEN"] != "xyz" {
		t.Errorf("CODECOV_TOKEN = %q, want %q", values["CODECOV_TOKEN"], "xyz")
	}
}

func TestLoad_Encrypted(t *testing.T) {
	dir := t.TempDir()

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatalf("failed to generate identity: %v", err)
	}

	identityPath := filepath.Join(dir, "identity.key")
	if err := os.WriteFile(identityPath, []byte("# created for tests\n"+identity.String()+"\n"), 0o600); err != nil {
		t.Fatalf("failed to write identity file: %v", err)
	}

	var encrypted bytes.Buffer
	plaintext := "PYPI_TOKEN=sekret\n"
	if err := fcrypt.EncryptReader(strings.NewReader(plaintext), &encrypted, identity.Recipient()); err != nil {
		t.Fatalf("failed to encrypt: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "secrets.env.age"), encrypted.Bytes(), 0o600); err != nil {
		t.Fatalf("failed to write encrypted file: %v", err)
	}

	cfg := toxfile.SecretsConfig{
		SecretsFile:  "secrets.env",
		IdentityFile: "identity.key",
	}

	values, err := Load(cfg, core.NewPathResolver(dir))
	if err != nil {
		t.Fatalf("Load() unexpected error = %v", err)
	}

	if values["PYPI_TOKEN"] != "sekret" {
		t.Errorf("PYPI_TOKEN = %q, want %q", values["PYPI_TOKEN"], "sekret")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg := toxfile.SecretsConfig{SecretsFile: "secrets.env"}

	_, err := Load(cfg, core.NewPathResolver(t.TempDir()))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestLoad_MalformedLine(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "secrets.env"), []byte("NOT A PAIR\n"), 0o600); err != nil {
		t.Fatalf("failed to write secrets file: %v", err)
	}

	_, err := Load(toxfile.SecretsConfig{SecretsFile: "secrets.env"}, core.NewPathResolver(dir))
	if err == nil || !strings.Contains(err.Error(), "KEY=VALUE") {
		t.Errorf("Load() error = %v, want KEY=VALUE complaint", err)
	}
}
