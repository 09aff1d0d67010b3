package main

import (
	"fmt"
	"strings"

	"github.com/lorenco/sean/internal/bootstrap"
	"github.com/lorenco/sean/internal/cli"
	"github.com/lorenco/sean/internal/reason"
	"github.com/spf13/cobra"
)

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Answer a question from the knowledge base",
		Long: `Answer a tax or accounting question from approved knowledge, with an
exact citation when a single entry matches. When nothing in the
knowledge base applies and an LLM is configured, the answer is
bootstrapped once and stored for future questions.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().String("user", "default", "user asking the question")
	cmd.Flags().String("client", "", "include this client's knowledge scope")
	cmd.Flags().String("layer", "", "restrict answers to one knowledge layer (LEGAL, FIRM, CLIENT)")
	cmd.Flags().String("domain", "", "override the inferred knowledge domain for bootstrapped answers")
	cmd.Flags().Bool("no-bootstrap", false, "never consult the LLM, answer from knowledge only")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	userID, _ := cmd.Flags().GetString("user")
	clientID, _ := cmd.Flags().GetString("client")
	layer, _ := cmd.Flags().GetString("layer")
	domain, _ := cmd.Flags().GetString("domain")
	noBootstrap, _ := cmd.Flags().GetBool("no-bootstrap")

	store, err := initStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	engine := reason.NewEngine(store, nil)
	result, err := engine.Answer(cmd.Context(), userID, clientID, layer, question)
	if err != nil {
		return err
	}

	if !result.HasRelevantKB && !noBootstrap {
		booted := bootstrap.NewEngine(store, initLLMClient(), nil)
		answer, err := booted.Answer(cmd.Context(), userID, question, domain)
		if err != nil {
			return err
		}

		cmd.Println(answer.Answer)
		if answer.CitationID != "" {
			cmd.Println(cli.SubtleStyle.Render("[" + answer.CitationID + "]"))
		}
		if answer.Source == bootstrap.SourceLLM {
			cmd.Println(cli.FormatWarning("Answered by " + answer.Provider + " and stored for review"))
		}
		return nil
	}

	cmd.Println(result.Answer)
	for _, action := range result.Actions {
		cmd.Println(cli.SubtleStyle.Render(fmt.Sprintf("  %s: %s (%.1f)", action.Type, action.Detail, action.Confidence)))
	}
	return nil
}
