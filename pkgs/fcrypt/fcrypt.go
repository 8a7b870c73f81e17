// Package fcrypt wraps age encryption for the armored secrets files that
// environment runs inject into subprocess environments.
package fcrypt

import (
	"fmt"
	"io"
	"os"

	"filippo.io/age"
	"filippo.io/age/armor"
)

// EncryptReader encrypts r to w in the armored age format.
func EncryptReader(r io.Reader, w io.Writer, recipient age.Recipient) error {
	armorWriter := armor.NewWriter(w)

	encryptor, err := age.Encrypt(armorWriter, recipient)
	if err != nil {
		return fmt.Errorf("failed to create encryptor: %w", err)
	}

	if _, err := io.Copy(encryptor, r); err != nil {
		return fmt.Errorf("failed to encrypt: %w", err)
	}

	// Close order matters: the payload must be finalized before the armor
	// trailer is written.
	if err := encryptor.Close(); err != nil {
		return fmt.Errorf("failed to finalize encryption: %w", err)
	}
	if err := armorWriter.Close(); err != nil {
		return fmt.Errorf("failed to finalize armor: %w", err)
	}

	return nil
}

// DecryptReader decrypts armored age data from r to w.
func DecryptReader(r io.Reader, w io.Writer, identity age.Identity) error {
	decryptor, err := age.Decrypt(armor.NewReader(r), identity)
	if err != nil {
		return fmt.Errorf("failed to create decryptor: %w", err)
	}

	if _, err := io.Copy(w, decryptor); err != nil {
		return fmt.Errorf("failed to decrypt: %w", err)
	}

	return nil
}

// EncryptFile writes an encrypted copy of inputPath to outputPath and removes
// the plaintext original. The removal cannot be undone.
func EncryptFile(inputPath, outputPath string, recipient age.Recipient) error {
	inputFile, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() {
		_ = inputFile.Close()
	}()

	outputFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		_ = outputFile.Close()
	}()

	if err := EncryptReader(inputFile, outputFile, recipient); err != nil {
		return err
	}

	return os.Remove(inputPath)
}

// DecryptFile writes a decrypted copy of inputPath to outputPath. The
// encrypted original is left in place.
func DecryptFile(inputPath, outputPath string, identity age.Identity) error {
	inputFile, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() {
		_ = inputFile.Close()
	}()

	outputFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		_ = outputFile.Close()
	}()

	return DecryptReader(inputFile, outputFile, identity)
}
