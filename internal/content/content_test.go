package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPackIsComplete(t *testing.T) {
	p := Default()
	assert.Equal(t, "JustdoitBot", p.Bot.Name)
	assert.NotEmpty(t, p.Bot.Welcome)
	assert.NotEmpty(t, p.Bot.NotUnderstood)
	assert.Equal(t, "参数:", p.Bot.HelpParams)
	assert.Equal(t, "处理失败: ", p.Bot.FailurePrefix)
	assert.Equal(t, "来一段随机灵感彩蛋", p.Eggs.Content)
	assert.NotEmpty(t, p.Eggs.Instructions)
	assert.NotEmpty(t, p.Commentary.Footer)
	assert.NotEmpty(t, p.Poster.SystemPrompt)
	assert.NotEmpty(t, p.Poster.Caption)
}

func TestLoadOverridesOnlyGivenFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "content.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bot:\n  welcome: hi there\npost: ignored\n"), 0o600))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hi there", p.Bot.Welcome)
	assert.Equal(t, Default().Bot.HelpHeader, p.Bot.HelpHeader)
	assert.Equal(t, Default().Poster.Brief, p.Poster.Brief)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("bot: [unclosed"), 0o600))
	_, err = Load(bad)
	require.Error(t, err)
}

func TestWithFooter(t *testing.T) {
	c := Commentary{Footer: "#Justdoit"}
	assert.Equal(t, "keep going\n\n#Justdoit", c.WithFooter(" keep going "))
	assert.Equal(t, "#Justdoit", c.WithFooter(""))
	assert.Equal(t, "keep going", Commentary{}.WithFooter("keep going"))
}
