package main

import (
	"fmt"

	"github.com/lorenco/sean/internal/cli"
	"github.com/lorenco/sean/internal/kb"
	"github.com/lorenco/sean/internal/model"
	"github.com/spf13/cobra"
)

func kbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Manage knowledge base items",
	}

	cmd.AddCommand(kbListCmd())
	cmd.AddCommand(kbApproveCmd())

	return cmd
}

func kbListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List knowledge items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, _ := cmd.Flags().GetString("status")

			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			items, err := store.ListKnowledgeItems(cmd.Context(), status)
			if err != nil {
				return err
			}

			if len(items) == 0 {
				cmd.Println(cli.FormatInfo("No knowledge items"))
				return nil
			}

			for _, item := range items {
				cmd.Println(fmt.Sprintf("%-10s %-20s %-40s %s",
					item.Status, item.PrimaryDomain, truncate(item.Title, 40), item.CitationID))
				cmd.Println(cli.SubtleStyle.Render("  id: " + item.ID))
			}
			return nil
		},
	}

	cmd.Flags().String("status", "", "filter by status (PENDING, APPROVED, REJECTED)")

	return cmd
}

func kbApproveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve [item-id]",
		Short: "Approve or reject a pending knowledge item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			reject, _ := cmd.Flags().GetBool("reject")

			status := model.StatusApproved
			if reject {
				status = model.StatusRejected
			}

			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := kb.NewService(store).Approve(cmd.Context(), userID, args[0], status); err != nil {
				return err
			}

			cmd.Println(cli.FormatSuccess(fmt.Sprintf("Item %s is now %s", args[0], status)))
			return nil
		},
	}

	cmd.Flags().String("user", "default", "user approving the item")
	cmd.Flags().Bool("reject", false, "reject instead of approve")

	return cmd
}
