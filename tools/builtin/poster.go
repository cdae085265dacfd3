package builtin

import (
	"context"
	"strings"

	"github.com/quailyquaily/justdoit/internal/content"
	"github.com/quailyquaily/justdoit/tools"
)

type PosterGenerator interface {
	GeneratePoster(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// PosterTool renders a poster on demand. The reply is the caption followed by
// the image URL so the chat client shows a preview.
type PosterTool struct {
	images PosterGenerator
	poster content.Poster
}

func NewPosterTool(images PosterGenerator, poster content.Poster) *PosterTool {
	return &PosterTool{images: images, poster: poster}
}

func (t *PosterTool) Name() string { return "poster" }

func (t *PosterTool) Description() string {
	return "生成一张 Justdoit 宣传海报"
}

func (t *PosterTool) Parameters() []tools.ParameterSpec {
	return []tools.ParameterSpec{
		{Name: "prompt", Type: "string", Description: "海报内容描述， 默认使用每日创意"},
	}
}

func (t *PosterTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	prompt, ok, err := stringParam(params, "prompt")
	if err != nil {
		return "", err
	}
	if !ok {
		prompt = t.poster.Brief
	}
	url, err := t.images.GeneratePoster(ctx, t.poster.SystemPrompt, prompt)
	if err != nil {
		return "", err
	}
	caption := strings.TrimSpace(t.poster.Caption)
	if caption == "" {
		return url, nil
	}
	return caption + "\n" + url, nil
}
