package main

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quailyquaily/justdoit/internal/allowlist"
	"github.com/quailyquaily/justdoit/internal/boterr"
	"github.com/quailyquaily/justdoit/providers/azureagent"
)

func TestLegacyEnvAliases(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("BOT_TOKEN", "legacy-token")
	t.Setenv("ALLOWED_CHAT_IDS", "-1001,42")
	t.Setenv("AZURE_AI_PROJECTS_CONNECTION_STRING", "eastus.api.azureml.ms;0000-sub;my-rg;my-project")
	t.Setenv("LOG_LEVEL", "debug")
	initConfig()

	assert.Equal(t, "legacy-token", viper.GetString("telegram.bot_token"))
	conn, err := azureagent.ParseConnectionString(viper.GetString("agent.connection_string"))
	require.NoError(t, err)
	assert.True(t, conn.Project)
	assert.Contains(t, conn.Endpoint, "/workspaces/my-project")
	assert.Equal(t, "debug", viper.GetString("logging.level"))
	ids, err := allowlist.ParseIDs(viper.GetStringSlice("telegram.allowed_chat_ids"))
	require.NoError(t, err)
	assert.Equal(t, []int64{-1001, 42}, ids)

	t.Setenv("JUSTDOIT_TELEGRAM_BOT_TOKEN", "prefixed-token")
	assert.Equal(t, "prefixed-token", viper.GetString("telegram.bot_token"))
}

func TestDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	initConfig()

	assert.Equal(t, "Asia/Shanghai", viper.GetString("broadcast.timezone"))
	assert.Equal(t, "0 * * * *", viper.GetString("broadcast.commentary.schedule"))
	assert.Equal(t, "*/30 * * * *", viper.GetString("broadcast.poster.schedule"))
	assert.Equal(t, "test-container", viper.GetString("image.container"))
	assert.Equal(t, 87600, viper.GetInt("image.expiry_hours"))
	assert.Equal(t, "JUSTDOIT_BROADCAST_POSTER_SCHEDULE", envKey("broadcast.poster.schedule"))
}

func TestDotenvFillsUnsetVariables(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("IMAGE_CONTAINER=from-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("IMAGE_CONTAINER") })

	viper.Set("env_file", path)
	initConfig()
	assert.Equal(t, "from-dotenv", viper.GetString("image.container"))

	loadDotenv(filepath.Join(dir, "missing.env"))
}

func TestTelegramCommandRequiresToken(t *testing.T) {
	t.Cleanup(viper.Reset)
	initConfig()

	_, err := newAppFromViper(newTelegramCmd())
	var cfgErr *boterr.ConfigError
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, "telegram.bot_token", cfgErr.Key)
}

func TestFlowsFromViperNeedCollaborators(t *testing.T) {
	t.Cleanup(viper.Reset)
	initConfig()
	logger := quietLogger()

	assert.Empty(t, flowsFromViper(logger, collaborators{}, contentForTest(t)))

	viper.Set("agent.connection_string", "Endpoint=https://example.invalid;ApiKey=k")
	viper.Set("image.api_token", "t")
	viper.Set("broadcast.poster.enabled", false)
	flows := flowsFromViper(logger, collaboratorsFromViper(logger), contentForTest(t))
	require.Len(t, flows, 1)
	assert.Equal(t, "commentary", flows[0].Name)
	assert.Equal(t, "0 * * * *", flows[0].Schedule)
}

func TestRegistryWarnsAboutDisabledCommands(t *testing.T) {
	t.Cleanup(viper.Reset)
	initConfig()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	r := registryFromViper(logger, collaborators{}, contentForTest(t))

	assert.Equal(t, "echo", r.ToolNames())
	out := logs.String()
	assert.Contains(t, out, "msg=command_disabled command=/eggs")
	assert.Contains(t, out, "msg=command_disabled command=/poster")
}
