package tools

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Telegram bot command names: lowercase letters, digits and underscores.
var commandNamePattern = regexp.MustCompile(`^[a-z0-9_]{1,32}$`)

// Registry indexes tools by name and remembers registration order.
// It is filled once at startup and only read afterwards.
type Registry struct {
	tools map[string]Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register indexes tool under its name. A later tool with the same name
// replaces the earlier one and keeps its position.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("%w: nil tool", ErrInvalidTool)
	}
	name := strings.TrimSpace(tool.Name())
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidTool)
	}
	if !commandNamePattern.MatchString(name) {
		return fmt.Errorf("%w: name %q is not a valid command name", ErrInvalidTool, name)
	}
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
	return nil
}

// Discover runs every factory and registers the tools that load and pass
// validation. Failures, panics included, are logged and skipped. It returns
// how many tools were indexed by this pass.
func (r *Registry) Discover(logger *slog.Logger, factories ...Factory) int {
	if logger == nil {
		logger = slog.Default()
	}
	registered := 0
	for i, factory := range factories {
		if r.discoverOne(logger, i, factory) {
			registered++
		}
	}
	return registered
}

func (r *Registry) discoverOne(logger *slog.Logger, i int, factory Factory) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			logger.Warn("tool_load_failed", "index", i, "error", fmt.Sprintf("panic: %v", p))
			ok = false
		}
	}()
	if factory == nil {
		logger.Warn("tool_load_failed", "index", i, "error", "nil factory")
		return false
	}
	tool, err := factory()
	if err != nil {
		logger.Warn("tool_load_failed", "index", i, "error", err.Error())
		return false
	}
	if err := r.Register(tool); err != nil {
		logger.Warn("tool_invalid", "index", i, "error", err.Error())
		return false
	}
	logger.Info("tool_registered", "tool", strings.TrimSpace(tool.Name()))
	return true
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[strings.TrimSpace(name)]
	return t, ok
}

func (r *Registry) Len() int {
	return len(r.order)
}

// All returns the tools in registration order.
func (r *Registry) All() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

func (r *Registry) Infos() []Info {
	out := make([]Info, 0, len(r.order))
	for _, t := range r.All() {
		params := append([]ParameterSpec(nil), t.Parameters()...)
		out = append(out, Info{
			Name:        strings.TrimSpace(t.Name()),
			Description: strings.TrimSpace(t.Description()),
			Parameters:  params,
		})
	}
	return out
}

func (r *Registry) ToolNames() string {
	return strings.Join(r.order, ", ")
}
