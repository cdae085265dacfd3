package tools

import (
	"context"
	"log/slog"
)

// Dispatcher invokes registered tools by name and normalizes their failures.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: registry, logger: logger}
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Invoke runs the named tool. Unknown names fail with *ToolNotFoundError and
// errors from Execute come back as *ToolExecutionError. Nothing is retried.
func (d *Dispatcher) Invoke(ctx context.Context, name string, params map[string]any) (string, error) {
	tool, ok := d.registry.Get(name)
	if !ok {
		d.logger.Error("tool_not_found", "tool", name)
		return "", &ToolNotFoundError{Name: name}
	}
	if params == nil {
		params = map[string]any{}
	}

	d.logger.Debug("tool_invoke", "tool", name, "params", params)
	out, err := tool.Execute(ctx, params)
	if err != nil {
		d.logger.Error("tool_invoke_failed", "tool", name, "error", err.Error())
		return "", &ToolExecutionError{Name: name, Err: err}
	}
	return out, nil
}
