package telegram

import (
	"regexp"
	"strings"

	"github.com/quailyquaily/justdoit/internal/content"
	"github.com/quailyquaily/justdoit/tools"
)

var paramKeyPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// RenderHelp lists every tool as "/<name> - <description>" followed by its
// parameters, each marked [required] or [optional].
func RenderHelp(bot content.Bot, infos []tools.Info) string {
	var b strings.Builder
	b.WriteString(bot.HelpHeader)
	b.WriteString("\n\n")
	for _, info := range infos {
		b.WriteString("/")
		b.WriteString(info.Name)
		b.WriteString(" - ")
		b.WriteString(info.Description)
		b.WriteString("\n")
		if len(info.Parameters) > 0 {
			b.WriteString("  ")
			b.WriteString(bot.HelpParams)
			b.WriteString("\n")
			for _, p := range info.Parameters {
				marker := "[optional]"
				if p.Required {
					marker = "[required]"
				}
				b.WriteString("  - ")
				b.WriteString(p.Name)
				b.WriteString(": ")
				b.WriteString(p.Description)
				b.WriteString(" ")
				b.WriteString(marker)
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}
	b.WriteString(bot.HelpExample)
	return b.String()
}

// ParseCommandParams turns a command payload into tool params. Tokens of the
// form key=value set declared parameters; the remaining text, if any, fills
// the first declared parameter not set explicitly.
func ParseCommandParams(payload string, specs []tools.ParameterSpec) map[string]any {
	params := map[string]any{}
	declared := make(map[string]bool, len(specs))
	for _, s := range specs {
		declared[s.Name] = true
	}

	var rest []string
	for _, tok := range strings.Fields(payload) {
		key, value, ok := strings.Cut(tok, "=")
		if ok && paramKeyPattern.MatchString(key) && declared[key] {
			params[key] = value
			continue
		}
		rest = append(rest, tok)
	}
	if len(rest) == 0 {
		return params
	}
	for _, s := range specs {
		if _, set := params[s.Name]; !set {
			params[s.Name] = strings.Join(rest, " ")
			break
		}
	}
	return params
}
