package relay

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leadwise/leadwise/internal/stream"
)

// ScriptedProvider replays a fixed sequence of events. It backs the
// relay in development when no model credentials are around, and the
// server tests.
type ScriptedProvider struct {
	steps []ScriptStep
}

// ScriptStep is one scripted event with an optional delay before it.
type ScriptStep struct {
	DelayMs int          `yaml:"delayMs,omitempty"`
	Event   stream.Event `yaml:"-"`
}

// scriptStepYAML is the on-disk shape of a step. Event fields are spelled
// out because stream.Event carries JSON tags, not YAML ones.
type scriptStepYAML struct {
	DelayMs    int    `yaml:"delayMs"`
	Type       string `yaml:"type"`
	Text       string `yaml:"text"`
	ToolCallID string `yaml:"toolCallId"`
	ToolName   string `yaml:"toolName"`
	Status     string `yaml:"status"`
	Summary    string `yaml:"summary"`
	Message    string `yaml:"message"`
}

func NewScriptedProvider(steps []ScriptStep) *ScriptedProvider {
	return &ScriptedProvider{steps: steps}
}

// LoadScript reads a step list from a YAML file.
func LoadScript(path string) (*ScriptedProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	var raw []scriptStepYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}

	steps := make([]ScriptStep, 0, len(raw))
	for _, r := range raw {
		steps = append(steps, ScriptStep{
			DelayMs: r.DelayMs,
			Event: stream.Event{
				Type:       stream.Type(r.Type),
				Text:       r.Text,
				ToolCallID: r.ToolCallID,
				ToolName:   r.ToolName,
				Status:     r.Status,
				Summary:    r.Summary,
				Message:    r.Message,
			},
		})
	}
	return NewScriptedProvider(steps), nil
}

func (p *ScriptedProvider) Name() string { return "scripted" }

func (p *ScriptedProvider) Stream(ctx context.Context, req Request, emit Emitter) (string, error) {
	var text strings.Builder
	for _, step := range p.steps {
		if step.DelayMs > 0 {
			select {
			case <-time.After(time.Duration(step.DelayMs) * time.Millisecond):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		if step.Event.Type == stream.TypeChunk {
			text.WriteString(step.Event.Text)
		}
		if err := emit(step.Event); err != nil {
			return "", err
		}
	}
	return text.String(), nil
}
