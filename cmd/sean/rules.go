package main

import (
	"encoding/json"
	"fmt"

	"github.com/lorenco/sean/internal/cli"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect learned allocation rules",
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesStatsCmd())
	cmd.AddCommand(rulesExportCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all allocation rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules, err := store.GetAllRules(cmd.Context())
			if err != nil {
				return err
			}

			if len(rules) == 0 {
				cmd.Println(cli.FormatInfo("No rules learned yet"))
				return nil
			}

			cmd.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-40s %-20s %10s %6s %s", "PATTERN", "CATEGORY", "CONFIDENCE", "COUNT", "SCOPE")))
			for _, rule := range rules {
				scope := "global"
				if !rule.IsGlobal {
					scope = rule.ClientID
				}
				cmd.Println(fmt.Sprintf("%-40s %-20s %10.2f %6d %s",
					truncate(rule.NormalizedPattern, 40), rule.Category, rule.Confidence, rule.LearnedFromCount, scope))
			}
			return nil
		},
	}
}

func rulesStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show rule counts per category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := store.GetRuleStats(cmd.Context())
			if err != nil {
				return err
			}

			content := fmt.Sprintf("Total rules: %d\n", stats.TotalRules)
			for _, byCat := range stats.ByCategory {
				content += fmt.Sprintf("  %-24s %4d rules, %d learnings\n", byCat.Category, byCat.RuleCount, byCat.TotalLearnings)
			}
			cmd.Println(cli.RenderBox("Rule Statistics", content))
			return nil
		},
	}
}

func rulesExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export all allocation rules as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules, err := store.GetAllRules(cmd.Context())
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(rules)
		},
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
