// Package llm provides the single LLM provider interface used by the
// classification, interpretation, and tool-resolution stages, plus an
// Anthropic-backed implementation adapted from the teacher repo's
// internal/api client.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/coreline-ai/deskmind/pkg/corerr"
)

// Provider is the minimal surface the reasoning stages need from an
// LLM: a single-turn completion call with a system prompt and a user
// message, returning raw text the caller parses itself. None of the
// five stages need streaming or tool-use content blocks — each LLM
// call in this core asks for one decision (a route, an intent, a
// goal graph) and expects one textual answer back.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userMessage, model string) (string, error)
}

// Client wraps the Anthropic SDK client with token tracking, the way
// the teacher repo's api.Client does.
type Client struct {
	inner        anthropic.Client
	defaultModel anthropic.Model
	useBedrock   bool
	tracker      *TokenTracker
}

// ClientConfig configures a new Client.
type ClientConfig struct {
	Model         string
	APIKey        string
	UseAWSBedrock bool
	AWSRegion     string
	AWSProfile    string
}

// NewClient creates a new Anthropic-backed Provider.
func NewClient(cfg ClientConfig) (*Client, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		ctx := context.Background()
		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, corerr.Wrap(corerr.KindProviderUnavailable, "no Anthropic API key configured", fmt.Errorf("ANTHROPIC_API_KEY unset"))
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	inner := anthropic.NewClient(opts...)

	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_5_20250929
	}
	if cfg.UseAWSBedrock {
		model = translateModelForBedrock(model)
	}

	return &Client{
		inner:        inner,
		defaultModel: model,
		useBedrock:   cfg.UseAWSBedrock,
		tracker:      NewTokenTracker(),
	}, nil
}

// Complete issues a single-turn completion call and returns the
// concatenated text of the response. A model override of "" uses the
// client's configured default model.
func (c *Client) Complete(ctx context.Context, systemPrompt, userMessage, model string) (string, error) {
	m := c.defaultModel
	if model != "" {
		m = anthropic.Model(model)
		if c.useBedrock {
			m = translateModelForBedrock(m)
		}
	}

	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     m,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMessage)),
		},
	})
	if err != nil {
		return "", corerr.Wrap(corerr.KindProviderUnavailable, "anthropic completion failed", err)
	}

	c.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// Tracker returns the token tracker for this client.
func (c *Client) Tracker() *TokenTracker {
	return c.tracker
}

func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	bedrockModels := map[anthropic.Model]string{
		anthropic.ModelClaudeSonnet4_20250514:   "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaudeSonnet4_5_20250929: "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
		anthropic.ModelClaudeHaiku4_5_20251001:  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		anthropic.ModelClaudeOpus4_1_20250805:   "us.anthropic.claude-opus-4-1-20250805-v1:0",
	}
	if bedrockModel, ok := bedrockModels[model]; ok {
		return anthropic.Model(bedrockModel)
	}
	return model
}

// TokenTracker tracks token usage across API calls, used to bound
// runaway LLM-fallback loops across a single process request.
type TokenTracker struct {
	mu        sync.Mutex
	inputTok  int64
	outputTok int64
	calls     int
}

// NewTokenTracker creates a new token tracker.
func NewTokenTracker() *TokenTracker {
	return &TokenTracker{}
}

// Add records token usage from one completion call.
func (t *TokenTracker) Add(input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok += input
	t.outputTok += output
	t.calls++
}

// Total returns the total input and output tokens tracked.
func (t *TokenTracker) Total() (input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputTok, t.outputTok
}

// Calls returns the number of completion calls made.
func (t *TokenTracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}
