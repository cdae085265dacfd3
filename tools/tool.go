package tools

import "context"

type Tool interface {
	Name() string
	Description() string
	Parameters() []ParameterSpec
	Execute(ctx context.Context, params map[string]any) (string, error)
}

// ParameterSpec describes one tool parameter. It feeds /help and the JSON
// schema output; call arguments are not validated against it.
type ParameterSpec struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

// Info is the read-only projection of a registered tool.
type Info struct {
	Name        string
	Description string
	Parameters  []ParameterSpec
}

// Factory builds a tool during discovery. A factory error skips the tool.
type Factory func() (Tool, error)
