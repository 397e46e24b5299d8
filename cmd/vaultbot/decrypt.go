package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/vaultbot/internal/storage"
	"github.com/iudanet/vaultbot/internal/storage/sqlite"
)

var errVaultNotInitialized = errors.New("vault has no key salt yet, start the bot once first")

var decryptCmd = &cobra.Command{
	Use:   "decrypt <ciphertext>",
	Short: "Decrypt a stored secret with the vault key",
	Long: `Decrypts a ciphertext taken from the credential database. The key is read
from ENCRYPTION_KEY or the config file, or prompted for when neither is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		db, err := sqlite.New(ctx, cfg.Storage.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open credential store: %w", err)
		}
		defer db.Close()

		// OpenCipher создаст соль на пустой базе; здесь это было бы ошибкой
		if _, err := db.GetMeta(ctx, storage.MetaKDFSalt); errors.Is(err, storage.ErrMetaNotFound) {
			return errVaultNotInitialized
		} else if err != nil {
			return err
		}

		key, err := readSecret(cfg.Crypto.EncryptionKey, "Encryption key: ")
		if err != nil {
			return err
		}

		cipher, err := storage.OpenCipher(ctx, db, []byte(key), cfg.Crypto.KDF)
		if err != nil {
			return err
		}

		plaintext, err := cipher.Decrypt(args[0])
		if err != nil {
			return fmt.Errorf("failed to decrypt: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), plaintext)
		return nil
	},
}
