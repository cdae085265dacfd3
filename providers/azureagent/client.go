// Package azureagent runs one-shot agent sessions against an Azure OpenAI
// Assistants deployment or an Azure AI Projects agents endpoint: create
// assistant and thread, post one message, run, read the reply, delete
// everything.
package azureagent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	"github.com/quailyquaily/justdoit/internal/boterr"
)

const (
	defaultModel        = "gpt-4o"
	defaultAgentName    = "Jusdoit-agent"
	defaultPollInterval = time.Second
	defaultMaxWait      = 5 * time.Minute
	cleanupTimeout      = 15 * time.Second
)

// ErrRunTimeout is returned when a run is still queued or in progress after
// Config.MaxWait.
var ErrRunTimeout = errors.New("agent run did not finish in time")

type Config struct {
	ConnectionString string
	Model            string
	Name             string
	PollInterval     time.Duration
	// MaxWait bounds run polling. Zero means the default; negative disables
	// the bound and polling only stops with ctx.
	MaxWait        time.Duration
	RequestTimeout time.Duration
}

type AskRequest struct {
	Content      string
	Role         string
	Instructions string
}

type Client struct {
	cfg        Config
	logger     *slog.Logger
	opts       []option.RequestOption
	credential func() (azcore.TokenCredential, error)

	mu     sync.Mutex
	tokens *tokenSource
}

// New never dials; credentials are checked on every Ask so a bot without an
// agent connection can still start. opts are appended to the request options
// of every session.
func New(cfg Config, logger *slog.Logger, opts ...option.RequestOption) *Client {
	cfg.ConnectionString = strings.TrimSpace(cfg.ConnectionString)
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultModel
	}
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = defaultAgentName
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = defaultMaxWait
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, logger: logger, opts: opts, credential: defaultCredential}
}

func (c *Client) apiClient() (openai.Client, error) {
	if c.cfg.ConnectionString == "" {
		return openai.Client{}, boterr.MissingConfig("agent.connection_string", "set AZURE_AI_PROJECTS_CONNECTION_STRING")
	}
	conn, err := ParseConnectionString(c.cfg.ConnectionString)
	if err != nil {
		return openai.Client{}, &boterr.ConfigError{Key: "agent.connection_string", Reason: err.Error()}
	}

	opts := []option.RequestOption{option.WithMaxRetries(0)}
	switch {
	case conn.Project:
		tokens, err := c.projectTokens()
		if err != nil {
			return openai.Client{}, &boterr.ConfigError{Key: "agent.connection_string", Reason: "AI Projects connection needs an Azure credential: " + err.Error()}
		}
		opts = append(opts,
			option.WithBaseURL(conn.Endpoint+"/"),
			option.WithQueryAdd("api-version", conn.APIVersion),
			withBearerToken(tokens),
		)
	case conn.APIKey != "":
		opts = append(opts, azure.WithEndpoint(conn.Endpoint, conn.APIVersion), azure.WithAPIKey(conn.APIKey))
	default:
		cred, err := c.credential()
		if err != nil {
			return openai.Client{}, &boterr.ConfigError{Key: "agent.connection_string", Reason: "no ApiKey and no Azure credential: " + err.Error()}
		}
		opts = append(opts, azure.WithEndpoint(conn.Endpoint, conn.APIVersion), azure.WithTokenCredential(cred))
	}
	if c.cfg.RequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(c.cfg.RequestTimeout))
	}
	opts = append(opts, c.opts...)
	return openai.NewClient(opts...), nil
}

// projectTokens returns the token cache shared by every session of c.
func (c *Client) projectTokens() (*tokenSource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens != nil {
		return c.tokens, nil
	}
	cred, err := c.credential()
	if err != nil {
		return nil, err
	}
	c.tokens = &tokenSource{cred: cred, scope: projectTokenScope}
	return c.tokens, nil
}

// Ask runs one agent session and returns the first text segment of the first
// assistant message, or "" when the assistant said nothing. The thread and
// the assistant are deleted before Ask returns, whatever the run outcome.
func (c *Client) Ask(ctx context.Context, req AskRequest) (string, error) {
	api, err := c.apiClient()
	if err != nil {
		return "", err
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = string(openai.BetaThreadMessageNewParamsRoleUser)
	}

	assistant, err := api.Beta.Assistants.New(ctx, openai.BetaAssistantNewParams{
		Model:        c.cfg.Model,
		Name:         openai.String(c.cfg.Name),
		Instructions: openai.String(req.Instructions),
	})
	if err != nil {
		return "", collaboratorError("create_assistant", err)
	}
	c.logger.Debug("agent_assistant_created", "assistant_id", assistant.ID, "name", assistant.Name)
	defer c.cleanup(ctx, "delete_assistant", assistant.ID, func(cctx context.Context) error {
		_, err := api.Beta.Assistants.Delete(cctx, assistant.ID)
		return err
	})

	thread, err := api.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return "", collaboratorError("create_thread", err)
	}
	c.logger.Debug("agent_thread_created", "thread_id", thread.ID)
	defer c.cleanup(ctx, "delete_thread", thread.ID, func(cctx context.Context) error {
		_, err := api.Beta.Threads.Delete(cctx, thread.ID)
		return err
	})

	msg, err := api.Beta.Threads.Messages.New(ctx, thread.ID, openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRole(role),
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfString: openai.String(req.Content),
		},
	})
	if err != nil {
		return "", collaboratorError("create_message", err)
	}
	c.logger.Debug("agent_message_created", "thread_id", thread.ID, "message_id", msg.ID)

	run, err := api.Beta.Threads.Runs.New(ctx, thread.ID, openai.BetaThreadRunNewParams{
		AssistantID: assistant.ID,
	})
	if err != nil {
		return "", collaboratorError("create_run", err)
	}
	run, err = c.waitRun(ctx, api, thread.ID, run)
	if err != nil {
		return "", err
	}
	c.logger.Info("agent_run_finished", "thread_id", thread.ID, "run_id", run.ID, "status", string(run.Status))

	page, err := api.Beta.Threads.Messages.List(ctx, thread.ID, openai.BetaThreadMessageListParams{})
	if err != nil {
		return "", collaboratorError("list_messages", err)
	}
	return firstAssistantText(page.Data), nil
}

func (c *Client) waitRun(ctx context.Context, api openai.Client, threadID string, run *openai.Run) (*openai.Run, error) {
	var deadline time.Time
	if c.cfg.MaxWait > 0 {
		deadline = time.Now().Add(c.cfg.MaxWait)
	}
	for run.Status == openai.RunStatusQueued || run.Status == openai.RunStatusInProgress {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil, &boterr.CollaboratorError{
				Service: "agent",
				Op:      "poll_run",
				Err:     fmt.Errorf("%w (run %s still %s after %s)", ErrRunTimeout, run.ID, run.Status, c.cfg.MaxWait),
			}
		}
		timer := time.NewTimer(c.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		next, err := api.Beta.Threads.Runs.Get(ctx, threadID, run.ID)
		if err != nil {
			return nil, collaboratorError("get_run", err)
		}
		run = next
	}
	return run, nil
}

func (c *Client) cleanup(ctx context.Context, op, id string, fn func(context.Context) error) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := fn(cctx); err != nil {
		c.logger.Warn("agent_cleanup_failed", "op", op, "id", id, "error", err.Error())
	}
}

func firstAssistantText(messages []openai.Message) string {
	for _, m := range messages {
		if m.Role != openai.MessageRoleAssistant {
			continue
		}
		for _, part := range m.Content {
			if part.Type == "text" {
				return part.Text.Value
			}
		}
		return ""
	}
	return ""
}

func collaboratorError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	out := &boterr.CollaboratorError{Service: "agent", Op: op, Err: err}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		out.StatusCode = apiErr.StatusCode
	}
	return out
}
