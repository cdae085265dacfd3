package tools

import (
	"errors"
	"fmt"
)

var (
	ErrToolNotFound = errors.New("tool not found")
	ErrInvalidTool  = errors.New("invalid tool")
)

type ToolNotFoundError struct {
	Name string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool not found: %s", e.Name)
}

func (e *ToolNotFoundError) Is(target error) bool {
	return target == ErrToolNotFound
}

// ToolExecutionError wraps the error returned by a tool's Execute.
type ToolExecutionError struct {
	Name string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	if e.Err == nil {
		return "tool execution failed"
	}
	return "tool execution failed: " + e.Err.Error()
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}
