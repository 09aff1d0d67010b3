package main

import (
	"fmt"

	"github.com/lorenco/sean/internal/allocation"
	"github.com/lorenco/sean/internal/cli"
	"github.com/spf13/cobra"
)

func confirmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confirm [transaction-id] [category]",
		Short: "Confirm a transaction's category and learn from it",
		Long: `Record the final category for a transaction. The confirmed pair is fed
to the learner, so the same description is allocated automatically next
time.`,
		Args: cobra.ExactArgs(2),
		RunE: runConfirm,
	}

	cmd.Flags().String("user", "default", "user making the correction")
	cmd.Flags().String("client", "", "learn the rule in this client's scope")
	cmd.Flags().Bool("global", false, "learn the rule globally even with a client scope")
	cmd.Flags().String("feedback", "", "free-form note stored with the learning event")

	return cmd
}

func runConfirm(cmd *cobra.Command, args []string) error {
	transactionID, category := args[0], args[1]
	userID, _ := cmd.Flags().GetString("user")
	clientID, _ := cmd.Flags().GetString("client")
	global, _ := cmd.Flags().GetBool("global")
	feedback, _ := cmd.Flags().GetString("feedback")

	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	txn, err := store.GetTransactionByID(cmd.Context(), transactionID)
	if err != nil {
		return err
	}

	if err := store.ConfirmTransaction(cmd.Context(), transactionID, category, userID, feedback); err != nil {
		return err
	}

	opts := allocation.LearnOptions{
		ClientID: clientID,
		Feedback: feedback,
		UserID:   userID,
	}
	if global {
		isGlobal := true
		opts.IsGlobal = &isGlobal
	}

	learner := allocation.NewLearner(store, nil)
	result, err := learner.LearnFromCorrection(cmd.Context(), txn.RawDescription, category, opts)
	if err != nil {
		return fmt.Errorf("confirmed, but learning failed: %w", err)
	}

	verb := "Learned new rule"
	if result.Reinforced {
		verb = "Reinforced rule"
	}
	cmd.Println(cli.FormatSuccess(fmt.Sprintf("Confirmed as %s. %s (confidence %.2f)", category, verb, result.Confidence)))
	return nil
}
