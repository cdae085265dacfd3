package builtin

import (
	"context"
	"errors"
	"strings"

	"github.com/quailyquaily/justdoit/internal/content"
	"github.com/quailyquaily/justdoit/providers/azureagent"
	"github.com/quailyquaily/justdoit/tools"
)

// Asker runs one agent session.
type Asker interface {
	Ask(ctx context.Context, req azureagent.AskRequest) (string, error)
}

var errEmptyReply = errors.New("agent returned no text")

// EggsTool asks the agent for a short motivational quote.
type EggsTool struct {
	agent  Asker
	prompt content.Prompt
}

func NewEggsTool(agent Asker, prompt content.Prompt) *EggsTool {
	return &EggsTool{agent: agent, prompt: prompt}
}

func (t *EggsTool) Name() string { return "eggs" }

func (t *EggsTool) Description() string {
	return "来一段 AI 灵感彩蛋"
}

func (t *EggsTool) Parameters() []tools.ParameterSpec { return nil }

func (t *EggsTool) Execute(ctx context.Context, _ map[string]any) (string, error) {
	out, err := t.agent.Ask(ctx, azureagent.AskRequest{
		Content:      t.prompt.Content,
		Instructions: t.prompt.Instructions,
	})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errEmptyReply
	}
	return out, nil
}
