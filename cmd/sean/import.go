package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lorenco/sean/internal/cli"
	"github.com/lorenco/sean/internal/model"
	"github.com/lorenco/sean/internal/ofx"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import transactions from OFX/QFX or CSV bank statements",
		Long: `Import bank transactions from statement files exported by your bank.

OFX and QFX files are detected by extension; anything else is read as a
date,description,amount CSV.

Examples:
  # Import a single statement
  sean import ~/Downloads/fnb_march.ofx

  # Import a client's statements
  sean import --client acme-pty ~/Downloads/acme_*.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("user", "default", "user the transactions belong to")
	cmd.Flags().String("client", "", "client book to import into")
	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	userID, _ := cmd.Flags().GetString("user")
	clientID, _ := cmd.Flags().GetString("client")

	var allFiles []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				allFiles = append(allFiles, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
		} else {
			allFiles = append(allFiles, matches...)
		}
	}
	if len(allFiles) == 0 {
		return fmt.Errorf("no files found to import")
	}

	opts := ofx.ImportOptions{UserID: userID, ClientID: clientID}
	parser := ofx.NewParser()

	var allTransactions []model.BankTransaction
	seen := make(map[string]bool)
	for _, file := range allFiles {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", file, err)
		}

		var txns []model.BankTransaction
		ext := strings.ToLower(filepath.Ext(file))
		if ext == ".ofx" || ext == ".qfx" {
			txns, err = parser.ParseFile(cmd.Context(), f, opts)
		} else {
			txns, err = ofx.ParseCSV(cmd.Context(), f, opts)
		}
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", file, err)
		}

		duplicates := 0
		for _, txn := range txns {
			if seen[txn.Hash] {
				duplicates++
				continue
			}
			seen[txn.Hash] = true
			allTransactions = append(allTransactions, txn)
		}
		slog.Info("Parsed statement file",
			"file", file,
			"transactions", len(txns),
			"duplicates", duplicates)
	}

	if dryRun {
		cmd.Println(cli.FormatInfo(fmt.Sprintf("Dry run: %d transactions would be imported", len(allTransactions))))
		return nil
	}

	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveTransactions(cmd.Context(), allTransactions); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}

	cmd.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d transactions from %d files", len(allTransactions), len(allFiles))))
	return nil
}
