package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/coreline-ai/deskmind/internal/audit"
	"github.com/coreline-ai/deskmind/internal/config"
	"github.com/coreline-ai/deskmind/internal/executor"
	"github.com/coreline-ai/deskmind/internal/llm"
	"github.com/coreline-ai/deskmind/internal/pathresolver"
	"github.com/coreline-ai/deskmind/internal/pipeline"
	"github.com/coreline-ai/deskmind/internal/registry"
	"github.com/coreline-ai/deskmind/internal/resolver"
	"github.com/coreline-ai/deskmind/internal/tool"
	"github.com/coreline-ai/deskmind/internal/worldstate"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var processSessionID string

var processCmd = &cobra.Command{
	Use:   "process <utterance>",
	Short: "Run one utterance through the reasoning-and-planning pipeline",
	Long: `process classifies the utterance, plans and resolves whatever goals
it expresses against the tool registry, executes the resulting plan
graph, and prints the final outcome.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := joinArgs(args)

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		provider, err := newProvider(cfg)
		if err != nil {
			printStatus("⚠", fmt.Sprintf("no LLM provider available (%v); continuing with deterministic fallbacks only", err), color.FgYellow)
		}

		home, err := os.UserHomeDir()
		if err != nil {
			home = cfg.Workspace.Root
		}

		var auditDB *audit.DB
		if cfg.Audit.DBPath != "" {
			if db, err := audit.Open(cfg.Audit.DBPath); err == nil {
				auditDB = db
				defer db.Close()
			} else {
				printStatus("⚠", fmt.Sprintf("audit log unavailable (%v); continuing without it", err), color.FgYellow)
			}
		}

		p := pipeline.New(pipeline.Deps{
			Provider: provider,
			Model:    cfg.Anthropic.Model,
			Registry: registry.Builtin(),
			Tools:    tool.NewRegistry(),
			World:    worldstate.Empty(),
			Paths:    pathresolver.New(cfg.Workspace.Root, home),
			Resolver: resolver.Config{
				ConfidenceThreshold:   cfg.Resolver.ConfidenceThreshold,
				DomainMismatchPenalty: cfg.Resolver.DomainMismatchPenalty,
			},
			Audit:               auditDB,
			DestructiveCooldown: 0,
		})

		ctx, cancel := context.WithTimeout(cmd.Context(), totalTimeout(cfg))
		defer cancel()

		result, err := p.Process(ctx, text, processSessionID)
		if err != nil {
			printStatus("✗", result.String(), color.FgRed)
			return err
		}
		printResult(result)
		return nil
	},
}

func init() {
	processCmd.Flags().StringVar(&processSessionID, "session", "", "session ID to scope this request under")
}

func joinArgs(args []string) string {
	out := args[0]
	for _, a := range args[1:] {
		out += " " + a
	}
	return out
}

func totalTimeout(cfg *config.Config) time.Duration {
	total := cfg.Timeouts.Classification + cfg.Timeouts.Interpretation + cfg.Timeouts.Resolution + cfg.Timeouts.ToolCall
	if total <= 0 {
		return 60 * time.Second
	}
	return total
}

func newProvider(cfg *config.Config) (llm.Provider, error) {
	if !cfg.Anthropic.UseAWSBedrock && cfg.Anthropic.APIKey == "" {
		return nil, fmt.Errorf("no anthropic.api_key configured")
	}
	client, err := llm.NewClient(llm.ClientConfig{
		Model:         cfg.Anthropic.Model,
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func printResult(result pipeline.Result) {
	switch result.FinalStatus {
	case string(executor.FinalSuccess), "answered":
		printStatus("✓", result.String(), color.FgGreen)
	case string(executor.FinalPartial):
		printStatus("⚠", result.String(), color.FgYellow)
	case "ask":
		printStatus("?", result.String(), color.FgCyan)
	default:
		printStatus("✗", result.String(), color.FgRed)
	}
}

func printStatus(symbol, message string, c color.Attribute) {
	color.New(c).Printf("%s %s\n", symbol, message)
}
