package classify

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"

	"github.com/pfrederiksen/campus-events/internal/patterns"
)

const (
	// DefaultModel is used when no model is configured
	DefaultModel = "gpt-4o-mini"
	// maxPromptText bounds the event text sent per request
	maxPromptText = 2000
)

// OpenAICategorizer classifies event text with a chat completion model
// constrained to the configured topic labels
type OpenAICategorizer struct {
	client *openai.Client
	model  string
	labels []string
}

// NewOpenAICategorizer creates a categorizer. baseURL may be empty to use
// the public API endpoint.
func NewOpenAICategorizer(apiKey, baseURL, model string, tables *patterns.Tables) *OpenAICategorizer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = DefaultModel
	}

	return &OpenAICategorizer{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		labels: tables.TopicLabels(),
	}
}

// Categorize implements Categorizer
func (o *OpenAICategorizer) Categorize(ctx context.Context, text string) ([]string, error) {
	text = truncateText(text, maxPromptText)

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0,
		MaxTokens:   30,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: o.systemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response choices", ErrMalformedResponse)
	}

	content := resp.Choices[0].Message.Content
	parts := strings.FieldsFunc(content, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty answer", ErrMalformedResponse)
	}

	labels, err := normalizeLabels(parts, o.labels)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, content)
	}
	return labels, nil
}

func (o *OpenAICategorizer) systemPrompt() string {
	var b strings.Builder
	b.WriteString("You classify academic event announcements by topic.\n")
	b.WriteString("Answer with a comma-separated list using only these labels: ")
	b.WriteString(strings.Join(o.labels, ", "))
	b.WriteString(".\nIf none apply, answer exactly: other\n")
	b.WriteString("Do not explain your answer.")
	return b.String()
}

// truncateText cuts s to at most limit bytes without splitting a rune
func truncateText(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
