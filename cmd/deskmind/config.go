package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/coreline-ai/deskmind/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "View or modify deskmind configuration",
	Long: `Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/deskmind/config.yaml
Project-specific overrides can be placed in .deskmind.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

func displayAllConfig(cfg *config.Config) {
	apiKeyDisplay := "(not set)"
	if cfg.Anthropic.APIKey != "" {
		apiKeyDisplay = "****"
	}

	fmt.Printf("anthropic.api_key: %s\n", apiKeyDisplay)
	fmt.Printf("anthropic.model: %s\n", cfg.Anthropic.Model)
	fmt.Printf("anthropic.use_aws_bedrock: %t\n", cfg.Anthropic.UseAWSBedrock)
	fmt.Printf("classifier.enable_syntactic_phase: %t\n", cfg.Classifier.EnableSyntacticPhase)
	fmt.Printf("classifier.fallback_model: %s\n", cfg.Classifier.FallbackModel)
	fmt.Printf("resolver.confidence_threshold: %v\n", cfg.Resolver.ConfidenceThreshold)
	fmt.Printf("resolver.domain_mismatch_penalty: %v\n", cfg.Resolver.DomainMismatchPenalty)
	fmt.Printf("workspace.root: %s\n", cfg.Workspace.Root)
	fmt.Printf("timeouts.classification: %s\n", cfg.Timeouts.Classification)
	fmt.Printf("timeouts.interpretation: %s\n", cfg.Timeouts.Interpretation)
	fmt.Printf("timeouts.resolution: %s\n", cfg.Timeouts.Resolution)
	fmt.Printf("timeouts.tool_call: %s\n", cfg.Timeouts.ToolCall)
	fmt.Printf("audit.db_path: %s\n", cfg.Audit.DBPath)
}

func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Set %s = %s\n", key, value)
}

func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		if cfg.Anthropic.APIKey == "" {
			return "(not set)", nil
		}
		return "****", nil
	case "anthropic.model":
		return cfg.Anthropic.Model, nil
	case "anthropic.use_aws_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseAWSBedrock), nil
	case "resolver.confidence_threshold":
		return strconv.FormatFloat(cfg.Resolver.ConfidenceThreshold, 'f', -1, 64), nil
	case "resolver.domain_mismatch_penalty":
		return strconv.FormatFloat(cfg.Resolver.DomainMismatchPenalty, 'f', -1, 64), nil
	case "workspace.root":
		return cfg.Workspace.Root, nil
	case "audit.db_path":
		return cfg.Audit.DBPath, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.model":
		cfg.Anthropic.Model = value
	case "anthropic.use_aws_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for use_aws_bedrock: %w", err)
		}
		cfg.Anthropic.UseAWSBedrock = b
	case "resolver.confidence_threshold":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float for confidence_threshold: %w", err)
		}
		cfg.Resolver.ConfidenceThreshold = f
	case "resolver.domain_mismatch_penalty":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float for domain_mismatch_penalty: %w", err)
		}
		cfg.Resolver.DomainMismatchPenalty = f
	case "workspace.root":
		cfg.Workspace.Root = value
	case "audit.db_path":
		cfg.Audit.DBPath = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
