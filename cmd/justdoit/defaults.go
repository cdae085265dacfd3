package main

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/quailyquaily/justdoit/internal/broadcast"
	"github.com/quailyquaily/justdoit/providers/imagegen"
)

func initViperDefaults() {
	// Telegram
	viper.SetDefault("telegram.base_url", "https://api.telegram.org")
	viper.SetDefault("telegram.poll_timeout", 30*time.Second)
	viper.SetDefault("telegram.task_timeout", 10*time.Minute)
	viper.SetDefault("telegram.allowed_chat_ids", []string{})

	// Agent
	viper.SetDefault("agent.model", "gpt-4o")
	viper.SetDefault("agent.name", "Jusdoit-agent")
	viper.SetDefault("agent.poll_interval", time.Second)
	viper.SetDefault("agent.max_wait", 5*time.Minute)
	viper.SetDefault("agent.request_timeout", 90*time.Second)

	// Image
	viper.SetDefault("image.api_url", imagegen.DefaultAPIURL)
	viper.SetDefault("image.container", imagegen.DefaultContainer)
	viper.SetDefault("image.model", imagegen.DefaultModel)
	viper.SetDefault("image.quality", imagegen.DefaultQuality)
	viper.SetDefault("image.size", imagegen.DefaultSize)
	viper.SetDefault("image.expiry_hours", imagegen.DefaultExpiryHours)
	viper.SetDefault("image.timeout", 3*time.Minute)

	// Broadcast
	viper.SetDefault("broadcast.timezone", broadcast.DefaultTimezone)
	viper.SetDefault("broadcast.send_rate", 20.0)
	viper.SetDefault("broadcast.send_burst", 1)
	viper.SetDefault("broadcast.commentary.enabled", true)
	viper.SetDefault("broadcast.commentary.schedule", broadcast.DefaultCommentarySchedule)
	viper.SetDefault("broadcast.poster.enabled", true)
	viper.SetDefault("broadcast.poster.schedule", broadcast.DefaultPosterSchedule)

	// Content
	viper.SetDefault("content.file", "")

	// Logging
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.add_source", false)
}

// Variable names used by earlier deployments of the bot.
var legacyEnv = map[string]string{
	"telegram.bot_token":        "BOT_TOKEN",
	"telegram.allowed_chat_ids": "ALLOWED_CHAT_IDS",
	"agent.connection_string":   "AZURE_AI_PROJECTS_CONNECTION_STRING",
	"image.api_token":           "AZURE_IMAGE_API_KEY",
	"image.container":           "IMAGE_CONTAINER",
	"logging.level":             "LOG_LEVEL",
}

// bindLegacyEnv lets the legacy names fill a key when the prefixed variable
// is unset. The prefixed name wins when both are present.
func bindLegacyEnv() {
	for key, legacy := range legacyEnv {
		_ = viper.BindEnv(key, envKey(key), legacy)
	}
}

func envKey(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
}
