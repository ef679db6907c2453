package relay

import (
	"context"
	"fmt"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/leadwise/leadwise/internal/session"
	"github.com/leadwise/leadwise/internal/stream"
)

// AnthropicProvider streams completions from the Anthropic Messages API.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_20250514)
	}
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Stream(ctx context.Context, req Request, emit Emitter) (string, error) {
	messages := historyToParams(req.History)
	if len(messages) == 0 {
		messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(req.Message)))
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 4096,
		Messages:  messages,
	}
	if req.PageContext != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: fmt.Sprintf("The user is currently on the %q page of the application.", req.PageContext)},
		}
	}

	sseStream := p.client.Messages.NewStreaming(ctx, params)

	var text strings.Builder
	for sseStream.Next() {
		event := sseStream.Current()
		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := eventVariant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				text.WriteString(delta.Text)
				if err := emit(stream.Event{Type: stream.TypeChunk, Text: delta.Text}); err != nil {
					return "", err
				}
			case anthropic.ThinkingDelta:
				if err := emit(stream.Event{Type: stream.TypeThinking, Text: delta.Thinking}); err != nil {
					return "", err
				}
			}
		}
	}
	if err := sseStream.Err(); err != nil {
		return "", fmt.Errorf("anthropic stream failed: %w", err)
	}

	return text.String(), nil
}

func historyToParams(history []session.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	for _, m := range history {
		switch m.Role {
		case session.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case session.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return out
}
