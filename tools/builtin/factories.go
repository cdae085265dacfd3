package builtin

import (
	"errors"

	"github.com/quailyquaily/justdoit/internal/content"
	"github.com/quailyquaily/justdoit/tools"
)

// Deps are the collaborators the built-in tools need. A nil collaborator
// makes the matching factory fail, so discovery skips that tool.
type Deps struct {
	Agent   Asker
	Images  PosterGenerator
	Content content.Pack
}

// Factories lists every built-in tool in help order.
func Factories(deps Deps) []tools.Factory {
	return []tools.Factory{
		func() (tools.Tool, error) {
			if deps.Agent == nil {
				return nil, errors.New("eggs: agent is not configured")
			}
			return NewEggsTool(deps.Agent, deps.Content.Eggs), nil
		},
		func() (tools.Tool, error) {
			if deps.Images == nil {
				return nil, errors.New("poster: image API is not configured")
			}
			return NewPosterTool(deps.Images, deps.Content.Poster), nil
		},
		func() (tools.Tool, error) {
			return NewEchoTool(), nil
		},
	}
}
