package main

import (
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/quailyquaily/justdoit/internal/content"
	"github.com/quailyquaily/justdoit/providers/azureagent"
	"github.com/quailyquaily/justdoit/providers/imagegen"
	"github.com/quailyquaily/justdoit/tools"
	"github.com/quailyquaily/justdoit/tools/builtin"
)

type collaborators struct {
	agent  *azureagent.Client
	images *imagegen.Client
}

// collaboratorsFromViper builds the agent and image clients. A client whose
// credential is not configured stays nil.
func collaboratorsFromViper(logger *slog.Logger) collaborators {
	var c collaborators
	if strings.TrimSpace(viper.GetString("agent.connection_string")) != "" {
		c.agent = azureagent.New(azureagent.Config{
			ConnectionString: viper.GetString("agent.connection_string"),
			Model:            viper.GetString("agent.model"),
			Name:             viper.GetString("agent.name"),
			PollInterval:     viper.GetDuration("agent.poll_interval"),
			MaxWait:          viper.GetDuration("agent.max_wait"),
			RequestTimeout:   viper.GetDuration("agent.request_timeout"),
		}, logger.With("component", "agent"))
	} else {
		logger.Warn("agent_not_configured", "key", "agent.connection_string")
	}
	if strings.TrimSpace(viper.GetString("image.api_token")) != "" {
		c.images = imagegen.New(imagegen.Config{
			APIURL:      viper.GetString("image.api_url"),
			Token:       viper.GetString("image.api_token"),
			Container:   viper.GetString("image.container"),
			Model:       viper.GetString("image.model"),
			Quality:     viper.GetString("image.quality"),
			Size:        viper.GetString("image.size"),
			ExpiryHours: viper.GetInt("image.expiry_hours"),
			Timeout:     viper.GetDuration("image.timeout"),
		}, logger.With("component", "image"))
	} else {
		logger.Warn("image_not_configured", "key", "image.api_token")
	}
	return c
}

func contentFromViper() (content.Pack, error) {
	return content.Load(viper.GetString("content.file"))
}

func registryFromViper(logger *slog.Logger, c collaborators, pack content.Pack) *tools.Registry {
	deps := builtin.Deps{Content: pack}
	// Typed nil pointers must not reach the interfaces.
	if c.agent != nil {
		deps.Agent = c.agent
	}
	if c.images != nil {
		deps.Images = c.images
	}
	r := tools.NewRegistry()
	n := r.Discover(logger, builtin.Factories(deps)...)
	logger.Info("tools_discovered", "count", n, "tools", r.ToolNames())
	// Disabled commands fall through to the not-understood reply.
	if c.agent == nil {
		logger.Warn("command_disabled", "command", "/eggs", "missing", "agent.connection_string (AZURE_AI_PROJECTS_CONNECTION_STRING)")
	}
	if c.images == nil {
		logger.Warn("command_disabled", "command", "/poster", "missing", "image.api_token (AZURE_IMAGE_API_KEY)")
	}
	return r
}
