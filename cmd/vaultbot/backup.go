package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/vaultbot/internal/backup"
	"github.com/iudanet/vaultbot/internal/clock"
	"github.com/iudanet/vaultbot/internal/messaging"
	"github.com/iudanet/vaultbot/internal/storage/sqlite"
	"github.com/iudanet/vaultbot/internal/telegram"
)

var sendBackup bool

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create an encrypted backup of the credential database",
	Long: `Snapshots the credential database into the backup directory, compresses
and encrypts it as configured and writes a BLAKE3 checksum next to it.
With --send the archive is also delivered to the operator in Telegram.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := cliLogger(cfg)
		ctx := cmd.Context()

		db, err := sqlite.New(ctx, cfg.Storage.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open credential store: %w", err)
		}
		defer db.Close()

		var sender messaging.DocumentSender
		if sendBackup {
			tg, err := telegram.New(cfg.Telegram.Token, logger)
			if err != nil {
				return err
			}
			sender = tg
		}
		svc := backup.New(db, sender, cfg.BackupOptions(), clock.Real(), logger)

		s := startSpinner("Creating backup...")
		if sendBackup {
			err = svc.Send(ctx, cfg.Telegram.AuthorizedUserID)
			s.Stop()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), success("Backup sent to user %d", cfg.Telegram.AuthorizedUserID))
			return nil
		}

		archive, err := svc.Create(ctx)
		s.Stop()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), success("Backup written to %s", archive.Path))
		fmt.Fprintf(cmd.OutOrStdout(), "  BLAKE3: %s\n", archive.Checksum)
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <archive> <output.db>",
	Short: "Verify and unpack a backup archive",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		archivePath, outPath := args[0], args[1]

		if err := backup.Verify(archivePath); err != nil {
			return err
		}

		passphrase := cfg.Backup.Passphrase
		if strings.HasSuffix(archivePath, ".age") {
			if passphrase, err = readSecret(passphrase, "Backup passphrase: "); err != nil {
				return err
			}
		}

		src, err := backup.Open(archivePath, passphrase)
		if err != nil {
			return err
		}
		defer src.Close()

		dst, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", outPath, err)
		}
		if _, err := io.Copy(dst, src); err != nil {
			_ = dst.Close()
			return fmt.Errorf("failed to unpack archive: %w", err)
		}
		if err := dst.Close(); err != nil {
			return fmt.Errorf("failed to write %s: %w", outPath, err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), success("Database restored to %s", outPath))
		return nil
	},
}

func init() {
	backupCmd.Flags().BoolVar(&sendBackup, "send", false, "send the archive to the operator in Telegram")
	backupCmd.AddCommand(restoreCmd)
}
