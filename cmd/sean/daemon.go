package main

import (
	"log/slog"

	"github.com/lorenco/sean/internal/allocation"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the auto-allocation scheduler in the foreground",
		Long: `Check the agent schedule every minute and run an allocation job when
one is due. The agent's own interval, confidence threshold and LLM
fallback settings control each run.`,
		RunE: runDaemon,
	}
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	engine := newAllocationEngine(store)
	scheduler := allocation.NewScheduler(store, slog.Default())

	c := cron.New()
	_, err = c.AddFunc("* * * * *", func() {
		due, err := scheduler.ShouldRun(ctx)
		if err != nil {
			slog.Error("schedule check failed", "error", err)
			return
		}
		if !due {
			return
		}

		agent, err := store.GetOrCreateAgent(ctx, allocation.DefaultAgentName)
		if err != nil {
			slog.Error("failed to load agent", "error", err)
			return
		}

		job, err := engine.RunJob(ctx, allocation.JobOptions{
			AutoConfirmAbove: agent.MinConfidence,
			UseLLMFallback:   agent.LLMFallback,
		})
		if err != nil {
			slog.Error("scheduled allocation job failed", "error", err)
			return
		}
		slog.Info("scheduled allocation job complete",
			"processed", job.Processed,
			"auto_allocated", job.AutoAllocated,
			"llm_allocated", job.LLMAllocated,
			"needs_review", job.NeedsReview,
			"errors", job.Errors)
	})
	if err != nil {
		return err
	}

	slog.Info("allocation daemon started")
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	slog.Info("allocation daemon stopped")
	return nil
}
