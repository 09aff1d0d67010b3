package main

import (
	"fmt"
	"os"

	"github.com/lorenco/sean/internal/allocation"
	"github.com/lorenco/sean/internal/cli"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func allocateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Run an allocation job over unprocessed transactions",
		Long: `Process unallocated transactions in a batch: confident matches are
auto-confirmed, weaker ones queued for review, and unknown patterns
optionally sent to the LLM fallback.`,
		RunE: runAllocate,
	}

	cmd.Flags().String("user", "", "only process this user's transactions")
	cmd.Flags().Int("limit", allocation.DefaultJobLimit, "maximum transactions to process")
	cmd.Flags().Float64("threshold", allocation.DefaultJobAutoConfirm, "auto-confirm confidence threshold")
	cmd.Flags().Bool("no-llm", false, "disable the LLM fallback for this run")

	return cmd
}

func runAllocate(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	limit, _ := cmd.Flags().GetInt("limit")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	noLLM, _ := cmd.Flags().GetBool("no-llm")

	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var bar *progressbar.ProgressBar
	engine := newAllocationEngine(store)
	job, err := engine.RunJob(cmd.Context(), allocation.JobOptions{
		UserID:           userID,
		Limit:            limit,
		AutoConfirmAbove: threshold,
		UseLLMFallback:   !noLLM,
		OnProgress: func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(40),
					progressbar.OptionSetDescription("Allocating transactions..."),
				)
			}
			_ = bar.Set(done)
		},
	})
	if err != nil {
		return err
	}

	summary := fmt.Sprintf(
		"Processed: %d\nAuto-allocated: %d\nLLM-allocated: %d\nNeeds review: %d\nErrors: %d",
		job.Processed, job.AutoAllocated, job.LLMAllocated, job.NeedsReview, job.Errors)
	cmd.Println(cli.RenderBox("Allocation Job Complete", summary))
	return nil
}
