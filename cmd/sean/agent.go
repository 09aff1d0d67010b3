package main

import (
	"fmt"

	"github.com/lorenco/sean/internal/allocation"
	"github.com/lorenco/sean/internal/cli"
	"github.com/lorenco/sean/internal/model"
	"github.com/spf13/cobra"
)

func agentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage the auto-allocation agent",
	}

	cmd.AddCommand(agentStatusCmd())
	cmd.AddCommand(agentSetCmd(model.AgentActive, "activate", "Activate the agent so scheduled runs happen"))
	cmd.AddCommand(agentSetCmd(model.AgentPaused, "pause", "Pause the agent without losing its settings"))
	cmd.AddCommand(agentSetCmd(model.AgentInactive, "deactivate", "Deactivate the agent"))

	return cmd
}

func agentStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show agent settings, queue counts and recent jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			scheduler := allocation.NewScheduler(store, nil)
			summary, err := scheduler.GetSummary(cmd.Context())
			if err != nil {
				return err
			}

			agent := summary.Agent
			nextRun := "not scheduled"
			if agent.NextRun != nil {
				nextRun = agent.NextRun.Format("2006-01-02 15:04:05")
			}
			content := fmt.Sprintf(
				"Status: %s (enabled: %v)\nInterval: %d minutes\nNext run: %s\nTotal allocations: %d (LLM calls: %d)\n\nPending: %d  Needs review: %d  Processed: %d\nLLM cache entries: %d",
				agent.Status, agent.Enabled, agent.IntervalMinutes, nextRun,
				agent.TotalAllocations, agent.TotalLLMCalls,
				summary.Counts.Pending, summary.Counts.NeedsReview, summary.Counts.Processed,
				summary.LLMCacheSize)

			for _, job := range summary.RecentJobs {
				content += fmt.Sprintf("\n%s %s: processed %d, auto %d, llm %d, review %d, errors %d",
					job.StartedAt.Format("2006-01-02 15:04"), job.Status,
					job.Processed, job.AutoAllocated, job.LLMAllocated, job.NeedsReview, job.Errors)
			}

			cmd.Println(cli.RenderBox(cli.RobotIcon+" Allocation Agent", content))
			return nil
		},
	}
}

func agentSetCmd(status model.AgentStatus, use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, _ := cmd.Flags().GetString("user")
			interval, _ := cmd.Flags().GetInt("interval")

			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			update := allocation.AgentUpdate{Status: &status}
			if status == model.AgentActive {
				enabled := true
				update.Enabled = &enabled
			}
			if cmd.Flags().Changed("interval") {
				update.IntervalMinutes = &interval
			}

			scheduler := allocation.NewScheduler(store, nil)
			agent, err := scheduler.UpdateAgent(cmd.Context(), userID, update)
			if err != nil {
				return err
			}

			cmd.Println(cli.FormatSuccess(fmt.Sprintf("Agent is now %s (enabled: %v)", agent.Status, agent.Enabled)))
			return nil
		},
	}

	cmd.Flags().String("user", "default", "user making the change")
	cmd.Flags().Int("interval", 60, "minutes between scheduled runs")

	return cmd
}
