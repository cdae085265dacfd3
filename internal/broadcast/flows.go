package broadcast

import (
	"context"
	"strings"

	"github.com/quailyquaily/justdoit/internal/content"
	"github.com/quailyquaily/justdoit/providers/azureagent"
)

const (
	CommentaryFlowName = "commentary"
	PosterFlowName     = "poster"

	DefaultCommentarySchedule = "0 * * * *"
	DefaultPosterSchedule     = "*/30 * * * *"
)

type Asker interface {
	Ask(ctx context.Context, req azureagent.AskRequest) (string, error)
}

type PosterGenerator interface {
	GeneratePoster(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// CommentaryFlow asks the agent for one commentary and appends the footer.
func CommentaryFlow(agent Asker, c content.Commentary, schedule string) Flow {
	if schedule == "" {
		schedule = DefaultCommentarySchedule
	}
	return Flow{
		Name:     CommentaryFlowName,
		Schedule: schedule,
		Generate: func(ctx context.Context) (Post, error) {
			text, err := agent.Ask(ctx, azureagent.AskRequest{
				Content:      c.Content,
				Instructions: c.Instructions,
			})
			if err != nil {
				return Post{}, err
			}
			if strings.TrimSpace(text) == "" {
				return Post{}, ErrEmptyPost
			}
			return Post{Text: c.WithFooter(text)}, nil
		},
	}
}

// PosterFlow renders the daily brief and sends it with the fixed caption.
func PosterFlow(images PosterGenerator, p content.Poster, schedule string) Flow {
	if schedule == "" {
		schedule = DefaultPosterSchedule
	}
	return Flow{
		Name:     PosterFlowName,
		Schedule: schedule,
		Generate: func(ctx context.Context) (Post, error) {
			url, err := images.GeneratePoster(ctx, p.SystemPrompt, p.Brief)
			if err != nil {
				return Post{}, err
			}
			return Post{PhotoURL: url, Caption: p.Caption}, nil
		},
	}
}
