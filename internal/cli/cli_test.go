package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curatai/curatai/internal/agent"
	"github.com/curatai/curatai/internal/assistant"
	"github.com/curatai/curatai/internal/common/apperrors"
	"github.com/curatai/curatai/internal/common/httpclient"
	"github.com/curatai/curatai/internal/config"
	"github.com/curatai/curatai/internal/toolregistry"
)

const testConfig = `
format_version = "0.1.0"

[catalog]
base_url = "https://catalog.example.com"
username = "steward@example.com"
password = "file-secret"
token_name = "AlationAPI"
request_timeout = "30s"

[agent]
provider = "anthropic"
max_tokens = 4096
max_tool_rounds = 5

[propagation]
poll_interval = "1s"
max_polls = 60
submit_timeout = "10s"

[server]
port = "8000"
`

func init() {
	color.NoColor = true
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "curatai.conf")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0600))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// scripted makes chat use a canned model and an unused catalog client.
func scripted(t *testing.T, script ...agent.Completion) *agent.ScriptedProvider {
	t.Helper()
	p := agent.NewScriptedProvider(script...)
	orig := newAssistant
	newAssistant = func(_ context.Context, cfg *config.Config, opts ...assistant.Option) (*assistant.Assistant, error) {
		catalog, err := httpclient.NewHTTPClient(cfg.Catalog.BaseURL)
		if err != nil {
			return nil, err
		}
		return assistant.Assemble(cfg, catalog, p, opts...)
	}
	t.Cleanup(func() { newAssistant = orig })
	return p
}

func reply(s string) agent.Completion {
	return agent.Completion{Message: agent.Message{Role: agent.RoleAssistant, Content: s}}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "curatai "+Version+"\n", out)

	out, err = run(t, "", "version", "-j")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"`+Version+`"}`, out)
}

func TestToolsList(t *testing.T) {
	out, err := run(t, "", "tools", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 16)
	assert.True(t, strings.HasPrefix(lines[0], "search_data_products "))
	assert.True(t, strings.HasPrefix(lines[15], "propagate_custom_field "))
}

func TestToolsDescribe(t *testing.T) {
	out, err := run(t, "", "tools", "describe", "get_table_info")
	require.NoError(t, err)
	assert.Contains(t, out, "name: get_table_info")
	assert.Contains(t, out, "input_schema:")
	assert.Contains(t, out, "table_name:")

	_, err = run(t, "", "tools", "describe", "drop_table")
	assert.ErrorIs(t, err, toolregistry.ErrUnknownTool)
}

func TestToolsCall(t *testing.T) {
	orig := connectTools
	connectTools = func(_ *cobra.Command, _ *config.Config) (*toolregistry.Registry, error) {
		return offlineRegistry()
	}
	t.Cleanup(func() { connectTools = orig })

	out, err := run(t, "", "--config", writeTestConfig(t), "tools", "call", "get_data_steward_info")
	require.NoError(t, err)
	assert.Contains(t, out, "Mrugesh")

	_, err = run(t, "", "--config", writeTestConfig(t), "tools", "call", "search_data_products", "--args", `{"search_term": "x", "limit": 101}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Limit can be no more than 100.")
	assert.True(t, apperrors.IsRetryable(err))
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "curatai.conf")
	out, err := run(t, "", "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	_, err = run(t, "", "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	t.Setenv(config.EnvBaseURL, "https://catalog.example.com")
	t.Setenv(config.EnvUsername, "steward@example.com")
	t.Setenv(config.EnvPassword, "env-secret")
	t.Setenv(config.EnvAnthropicKey, "sk-test-abcd")

	out, err = run(t, "", "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `base_url = "https://catalog.example.com"`)
	assert.Contains(t, out, `password = "********"`)
	assert.Contains(t, out, "****abcd")
	assert.NotContains(t, out, "env-secret")
	assert.NotContains(t, out, "sk-test")
}

func TestMissingConfigFile(t *testing.T) {
	_, err := run(t, "", "--config", filepath.Join(t.TempDir(), "absent.conf"), "chat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "curatai config init")
}

func TestChat(t *testing.T) {
	p := scripted(t,
		reply("Hi, I am CuratAI."),
		reply("Your tables look great."),
	)
	out, err := run(t, "how are my tables?\nexit\nnever read\n", "--config", writeTestConfig(t), "chat")
	require.NoError(t, err)

	assert.Contains(t, out, "\nHi, I am CuratAI.\n\n> ")
	assert.Contains(t, out, "\nYour tables look great.\n\n> ")
	require.Len(t, p.Requests, 2)
	assert.Equal(t, greeting, p.Requests[0].Messages[0].Content)
	// the second turn carries the first one
	require.Len(t, p.Requests[1].Messages, 3)
	assert.Equal(t, "how are my tables?", p.Requests[1].Messages[2].Content)
}

func TestChatVerbosePrintsToolCalls(t *testing.T) {
	scripted(t,
		agent.Completion{Message: agent.Message{
			Role:      agent.RoleAssistant,
			ToolCalls: []agent.ToolCall{{ID: "c1", Name: "get_data_steward_info", Arguments: []byte(`{}`)}},
		}},
		reply("Mrugesh fits best."),
	)
	out, err := run(t, "", "--config", writeTestConfig(t), "chat", "--verbose")
	require.NoError(t, err)

	assert.Contains(t, out, "CuratAI on Scripted")
	assert.Contains(t, out, "get_data_steward_info {}")
	assert.Contains(t, out, "▶ ")
	assert.Contains(t, out, "Mrugesh fits best.")
}

func TestChatContinuesAfterFailedTurn(t *testing.T) {
	scripted(t, reply("Hello."))
	out, err := run(t, "anything\nexit\n", "--config", writeTestConfig(t), "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "Error: scripted completion failed")
}

func TestChatRejectsUnknownProvider(t *testing.T) {
	_, err := run(t, "", "--config", writeTestConfig(t), "chat", "--provider", "bedrock")
	assert.ErrorContains(t, err, "unsupported provider")
}

func TestIndentMultiline(t *testing.T) {
	assert.Equal(t, "a", indentMultiline("a", "  "))
	assert.Equal(t, "a\n  b\n  c", indentMultiline("a\nb\nc", "  "))
	assert.Equal(t, "abc ...", clip("abcdef", 3))
}
