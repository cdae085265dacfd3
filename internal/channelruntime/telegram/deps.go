package telegram

import (
	"fmt"
	"log/slog"

	"github.com/quailyquaily/justdoit/internal/content"
	"github.com/quailyquaily/justdoit/tools"
)

type Dependencies struct {
	Logger   func() (*slog.Logger, error)
	Registry func() *tools.Registry
	Content  func() content.Pack
}

func loggerFromDeps(d Dependencies) (*slog.Logger, error) {
	if d.Logger == nil {
		return nil, fmt.Errorf("Logger dependency missing")
	}
	return d.Logger()
}

func registryFromDeps(d Dependencies) *tools.Registry {
	if d.Registry == nil {
		return tools.NewRegistry()
	}
	if reg := d.Registry(); reg != nil {
		return reg
	}
	return tools.NewRegistry()
}

func contentFromDeps(d Dependencies) content.Pack {
	if d.Content == nil {
		return content.Default()
	}
	return d.Content()
}
