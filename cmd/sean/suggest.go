package main

import (
	"fmt"

	"github.com/lorenco/sean/internal/allocation"
	"github.com/lorenco/sean/internal/cli"
	"github.com/spf13/cobra"
)

func suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest [description]",
		Short: "Suggest a category for a transaction description",
		Args:  cobra.ExactArgs(1),
		RunE:  runSuggest,
	}

	cmd.Flags().String("client", "", "client scope for rule lookup")

	return cmd
}

func runSuggest(cmd *cobra.Command, args []string) error {
	clientID, _ := cmd.Flags().GetString("client")

	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	suggester := allocation.NewSuggester(store)
	suggestion, err := suggester.Suggest(cmd.Context(), args[0], clientID)
	if err != nil {
		return err
	}

	if suggestion.MatchType == allocation.MatchNone {
		cmd.Println(cli.FormatWarning("No category match found"))
		return nil
	}

	cmd.Println(cli.FormatSuccess(fmt.Sprintf("%s (%s) confidence %.2f via %s",
		suggestion.Category, suggestion.CategoryLabel, suggestion.Confidence, suggestion.MatchType)))
	for _, alt := range suggestion.Alternatives {
		cmd.Println(cli.SubtleStyle.Render(fmt.Sprintf("  alternative: %s (%.2f)", alt.Category, alt.Confidence)))
	}
	return nil
}
