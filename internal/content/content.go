// Package content loads the canned texts the bot sends: command replies,
// persona prompts for the agent and the poster brief.
package content

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

type Pack struct {
	Bot        Bot        `yaml:"bot"`
	Eggs       Prompt     `yaml:"eggs"`
	Commentary Commentary `yaml:"commentary"`
	Poster     Poster     `yaml:"poster"`
}

type Bot struct {
	Name          string `yaml:"name"`
	Welcome       string `yaml:"welcome"`
	HelpHeader    string `yaml:"help_header"`
	HelpParams    string `yaml:"help_params"`
	HelpExample   string `yaml:"help_example"`
	NotUnderstood string `yaml:"not_understood"`
	FailurePrefix string `yaml:"failure_prefix"`
}

type Prompt struct {
	Instructions string `yaml:"instructions"`
	Content      string `yaml:"content"`
}

type Commentary struct {
	Instructions string `yaml:"instructions"`
	Content      string `yaml:"content"`
	Footer       string `yaml:"footer"`
}

type Poster struct {
	SystemPrompt string `yaml:"system_prompt"`
	Brief        string `yaml:"brief"`
	Caption      string `yaml:"caption"`
}

// Default returns the embedded pack.
func Default() Pack {
	var p Pack
	if err := yaml.Unmarshal(defaultYAML, &p); err != nil {
		panic(fmt.Sprintf("content: embedded default.yaml: %v", err))
	}
	return p
}

// Load reads path over the embedded defaults; fields missing from the file
// keep their default value. An empty path returns the defaults.
func Load(path string) (Pack, error) {
	p := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		return p, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Pack{}, fmt.Errorf("read content file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Pack{}, fmt.Errorf("parse content file %s: %w", path, err)
	}
	return p, nil
}

// WithFooter appends the commentary footer to generated text.
func (c Commentary) WithFooter(text string) string {
	text = strings.TrimSpace(text)
	footer := strings.TrimSpace(c.Footer)
	switch {
	case footer == "":
		return text
	case text == "":
		return footer
	default:
		return text + "\n\n" + footer
	}
}
