package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/tenv/internal/core"
	"github.com/hay-kot/tenv/internal/secrets"
	"github.com/hay-kot/tenv/pkgs/fcrypt"
)

type EncryptCmd struct {
	coreFlags *core.Flags
}

func NewEncryptCmd(coreFlags *core.Flags) *EncryptCmd {
	return &EncryptCmd{coreFlags: coreFlags}
}

func (ec *EncryptCmd) Register(app *cli.Command) *cli.Command {
	cmds := []*cli.Command{
		{
			Name:  "encrypt",
			Usage: "encrypt the secrets file in-place",
			Description: `Encrypts the secrets file declared in the [tenv] section using age
encryption. The first configured recipient (public key) is used, a .age
version of the file is written, and the plaintext original is removed so
only the encrypted copy stays on disk.

Runs that need the values decrypt the .age file in memory using the
configured identity (private key); the plaintext never touches disk again
until 'tenv decrypt'.`,
			Action: ec.encrypt,
		},
		{
			Name:  "decrypt",
			Usage: "decrypt the secrets file in-place",
			Description: `Decrypts the .age secrets file back to plaintext using the configured
age identity and removes the encrypted copy. Use this when you need to
edit the secret values, then re-run 'tenv encrypt'.`,
			Action: ec.decrypt,
		},
	}

	app.Commands = append(app.Commands, cmds...)
	return app
}

func (ec *EncryptCmd) encrypt(ctx context.Context, cmd *cli.Command) error {
	cfg, err := setupEnv(ec.coreFlags.ConfigFilePath)
	if err != nil {
		return err
	}

	if cfg.Secrets.SecretsFile == "" {
		return fmt.Errorf("no secrets_file configured in [tenv]")
	}
	if len(cfg.Secrets.Recipients) == 0 {
		return fmt.Errorf("no recipients configured in [tenv]")
	}

	recipient, err := fcrypt.LoadPublicKey(cfg.Secrets.Recipients[0])
	if err != nil {
		return fmt.Errorf("failed to load public key: %w", err)
	}

	resolver := core.NewPathResolver(cfg.Dir)
	plain, encrypted, err := secrets.FilePair(cfg.Secrets, resolver)
	if err != nil {
		return err
	}

	if _, err := os.Stat(plain); os.IsNotExist(err) {
		log.Info().Str("file", plain).Msg("nothing to encrypt, plaintext file doesn't exist")
		return nil
	}

	if _, err := os.Stat(encrypted); err == nil {
		return fmt.Errorf("encrypted file %s already exists, decrypt it first", encrypted)
	}

	log.Info().Str("source", plain).Str("target", encrypted).Msg("encrypting secrets file")
	if err := fcrypt.EncryptFile(plain, encrypted, recipient); err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", plain, err)
	}

	log.Info().Str("file", encrypted).Msg("secrets file encrypted")
	return nil
}

func (ec *EncryptCmd) decrypt(ctx context.Context, cmd *cli.Command) error {
	cfg, err := setupEnv(ec.coreFlags.ConfigFilePath)
	if err != nil {
		return err
	}

	if cfg.Secrets.SecretsFile == "" {
		return fmt.Errorf("no secrets_file configured in [tenv]")
	}

	resolver := core.NewPathResolver(cfg.Dir)

	identity, err := secrets.ReadIdentity(cfg.Secrets, resolver)
	if err != nil {
		return err
	}

	plain, encrypted, err := secrets.FilePair(cfg.Secrets, resolver)
	if err != nil {
		return err
	}

	if _, err := os.Stat(encrypted); os.IsNotExist(err) {
		log.Info().Str("file", encrypted).Msg("nothing to decrypt, encrypted file doesn't exist")
		return nil
	}

	if _, err := os.Stat(plain); err == nil {
		return fmt.Errorf("plaintext file %s already exists, remove it first", plain)
	}

	log.Info().Str("source", encrypted).Str("target", plain).Msg("decrypting secrets file")
	if err := fcrypt.DecryptFile(encrypted, plain, identity); err != nil {
		return fmt.Errorf("failed to decrypt %s: %w", encrypted, err)
	}

	if err := os.Remove(encrypted); err != nil {
		log.Warn().Str("file", encrypted).Err(err).Msg("failed to remove encrypted file after decryption")
	}

	log.Info().Str("file", plain).Msg("secrets file decrypted")
	return nil
}
