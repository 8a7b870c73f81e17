// Package secrets loads the optional age-encrypted KEY=VALUE file declared
// in the [tenv] section and exposes its values for injection into test
// environment processes.
package secrets

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"filippo.io/age"
	"github.com/rs/zerolog/log"

	"github.com/hay-kot/tenv/internal/core"
	"github.com/hay-kot/tenv/internal/toxfile"
	"github.com/hay-kot/tenv/pkgs/fcrypt"
)

// Load returns the secret values for a run. The encrypted version of the
// configured file (suffix .age) is preferred and decrypted in memory; a
// plaintext file is read directly so local editing still works before
// re-encrypting. No configured file yields an empty result.
func Load(cfg toxfile.SecretsConfig, resolver core.PathResolver) (map[string]string, error) {
	if cfg.SecretsFile == "" {
		return nil, nil
	}

	plain, encrypted, err := FilePair(cfg, resolver)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(encrypted); err == nil {
		identity, err := ReadIdentity(cfg, resolver)
		if err != nil {
			return nil, err
		}

		data, err := os.ReadFile(encrypted)
		if err != nil {
			return nil, fmt.Errorf("failed to read secrets file %s: %w", encrypted, err)
		}

		var buf bytes.Buffer
		if err := fcrypt.DecryptReader(bytes.NewReader(data), &buf, identity); err != nil {
			return nil, fmt.Errorf("failed to decrypt secrets file %s: %w", encrypted, err)
		}

		return parseEnvFile(buf.String())
	}

	data, err := os.ReadFile(plain)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("secrets file %s not found (nor %s)", plain, encrypted)
		}
		return nil, fmt.Errorf("failed to read secrets file %s: %w", plain, err)
	}

	log.Debug().Str("file", plain).Msg("using unencrypted secrets file")
	return parseEnvFile(string(data))
}

// FilePair resolves the configured secrets path into its plaintext and
// encrypted variants regardless of which one the configuration names.
func FilePair(cfg toxfile.SecretsConfig, resolver core.PathResolver) (plain, encrypted string, err error) {
	path, err := resolver.Resolve(cfg.SecretsFile)
	if err != nil {
		return "", "", err
	}

	if strings.HasSuffix(path, ".age") {
		return strings.TrimSuffix(path, ".age"), path, nil
	}
	return path, path + ".age", nil
}

// ReadIdentity loads the age private key from the configured identity file,
// skipping comments and blank lines.
func ReadIdentity(cfg toxfile.SecretsConfig, resolver core.PathResolver) (age.Identity, error) {
	if cfg.IdentityFile == "" {
		return nil, fmt.Errorf("no identity_file configured in [tenv]")
	}

	path, err := resolver.Resolve(cfg.IdentityFile)
	if err != nil {
		return nil, err
	}

	identityData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity file %s: %w", path, err)
	}

	var keyLine string
	for _, line := range strings.Split(string(identityData), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			keyLine = line
			break
		}
	}

	if keyLine == "" {
		return nil, fmt.Errorf("no valid key found in identity file %s", path)
	}

	identity, err := fcrypt.LoadPrivateKey(keyLine)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key: %w", err)
	}

	return identity, nil
}

func parseEnvFile(data string) (map[string]string, error) {
	values := map[string]string{}

	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("secrets line %q is not KEY=VALUE", line)
		}
		values[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	return values, nil
}
