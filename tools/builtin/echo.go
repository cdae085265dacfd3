package builtin

import (
	"context"
	"strings"

	"github.com/quailyquaily/justdoit/tools"
)

type EchoTool struct{}

func NewEchoTool() *EchoTool { return &EchoTool{} }

func (t *EchoTool) Name() string { return "echo" }

func (t *EchoTool) Description() string {
	return "原样返回文本， 用来检查机器人是否在线"
}

func (t *EchoTool) Parameters() []tools.ParameterSpec {
	return []tools.ParameterSpec{
		{Name: "text", Type: "string", Description: "要返回的文本", Required: true},
		{Name: "upper", Type: "boolean", Description: "是否转为大写"},
	}
}

func (t *EchoTool) Execute(_ context.Context, params map[string]any) (string, error) {
	text, err := requiredString(params, "text")
	if err != nil {
		return "", err
	}
	if parseBoolDefault(params["upper"], false) {
		text = strings.ToUpper(text)
	}
	return text, nil
}
