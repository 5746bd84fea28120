// Package llm holds the model collaborator clients: the cheap classifier
// tier and the expensive responder tier, both speaking to OpenAI-compatible
// chat completion endpoints.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/openclaw/openclaw/pkg/observability"
)

// ClientOptions configures the two-tier chat client.
type ClientOptions struct {
	Endpoint       string // chat completion endpoint
	CheapModel     string // classification tier, e.g. a flash/lite model
	ExpensiveModel string // generation tier
	Timeout        time.Duration
}

// Client issues chat completions against a cheap and an expensive model.
// Every call carries a bounded timeout so a stuck endpoint cannot hang a
// message task.
type Client struct {
	client         openai.Client
	cheapModel     string
	expensiveModel string
	timeout        time.Duration
}

// NewClient creates a two-tier chat client.
func NewClient(options ClientOptions) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	var opts []option.RequestOption
	if options.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(options.Endpoint))
	}
	return &Client{
		client:         openai.NewClient(opts...),
		cheapModel:     options.CheapModel,
		expensiveModel: options.ExpensiveModel,
		timeout:        timeout,
	}
}

const classifyPromptTemplate = `Classify this chat message into ONE category:
- greeting: "hi", "hello", "hey", "sup", "yo", "morning", "lol", "haha"
- junk: spam, random characters, nonsensical
- faq: questions about rules, pricing, how-to, refunds
- rules_intent: proposals or questions about changing server rules
- toxic: insults, harassment, threats, slurs
- complex: everything else that needs a real answer

Message: "%s"

Respond with ONLY the category word (greeting/junk/faq/rules_intent/toxic/complex):`

// Classify asks the cheap model for the raw category word. Callers coerce
// unknown output; this method only reports what the model said.
func (c *Client) Classify(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	observability.Debugf("Querying %q for classification", c.cheapModel)
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.cheapModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(fmt.Sprintf(classifyPromptTemplate, text)),
		},
		MaxCompletionTokens: openai.Int(10),
		Temperature:         openai.Float(0.1),
	})
	if err != nil {
		return "", fmt.Errorf("error calling chat completions: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return strings.ToLower(strings.TrimSpace(resp.Choices[0].Message.Content)), nil
}

// Generate asks the expensive model to produce a response for the prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	observability.Debugf("Querying %q for generation", c.expensiveModel)
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.expensiveModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(500),
		Temperature:         openai.Float(0.3),
	})
	if err != nil {
		return "", fmt.Errorf("error calling chat completions: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
