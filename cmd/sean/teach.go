package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lorenco/sean/internal/cli"
	"github.com/lorenco/sean/internal/kb"
	"github.com/spf13/cobra"
)

func teachCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teach [message...]",
		Short: "Teach the knowledge base a new fact",
		Long: `Submit knowledge with the TEACH: prefix. Metadata lines before the
content set the layer, scope and domain.

Example:
  sean teach "TEACH:
  TITLE: VAT registration threshold
  DOMAIN: VAT
  CONTENT: Compulsory VAT registration applies above R1 million turnover
  in any 12-month period."

Reads from stdin when no message argument is given. New items are
PENDING until approved with 'sean kb approve'.`,
		RunE: runTeach,
	}

	cmd.Flags().String("user", "default", "user submitting the knowledge")

	return cmd
}

func runTeach(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("user")

	message := strings.Join(args, " ")
	if message == "" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
		message = string(raw)
	}

	if !kb.IsTeachMessage(message) {
		return fmt.Errorf("not a teach message: start with TEACH:, LEER: or SAVE TO KNOWLEDGE:")
	}

	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	item, err := kb.NewService(store).Teach(cmd.Context(), userID, message)
	if err != nil {
		return err
	}

	cmd.Println(cli.FormatSuccess(fmt.Sprintf("Stored %s as %s (pending approval)", item.Slug, item.CitationID)))
	return nil
}
