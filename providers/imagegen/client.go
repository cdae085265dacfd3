// Package imagegen calls the poster generation endpoint: a JSON POST that
// renders an image, stores it in a blob container and answers with its URL.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/quailyquaily/justdoit/internal/boterr"
)

const (
	DefaultAPIURL      = "https://azuregpts.azurewebsites.net/api/gpts/image/generate"
	DefaultContainer   = "test-container"
	DefaultModel       = "gpt-4o"
	DefaultQuality     = "hd"
	DefaultSize        = "1024x1024"
	DefaultExpiryHours = 24 * 365 * 10
	defaultTimeout     = 3 * time.Minute
	maxErrorBody       = 2048
)

// Styles are the rendering styles a poster may be drawn in.
var Styles = []string{"vivid", "natural"}

// ErrInvalidResponse is returned when the envelope has a non-zero code or no
// data.
var ErrInvalidResponse = errors.New("invalid image API response")

type Config struct {
	APIURL      string
	Token       string
	Container   string
	Model       string
	Quality     string
	Size        string
	ExpiryHours int
	Timeout     time.Duration
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
	// pickStyle returns an index into Styles.
	pickStyle func(n int) int
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithStylePicker replaces the uniform random style choice.
func WithStylePicker(pick func(n int) int) Option {
	return func(c *Client) {
		if pick != nil {
			c.pickStyle = pick
		}
	}
}

func New(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	cfg.APIURL = strings.TrimSpace(cfg.APIURL)
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	cfg.Token = strings.TrimSpace(cfg.Token)
	if strings.TrimSpace(cfg.Container) == "" {
		cfg.Container = DefaultContainer
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if strings.TrimSpace(cfg.Quality) == "" {
		cfg.Quality = DefaultQuality
	}
	if strings.TrimSpace(cfg.Size) == "" {
		cfg.Size = DefaultSize
	}
	if cfg.ExpiryHours <= 0 {
		cfg.ExpiryHours = DefaultExpiryHours
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
		pickStyle: rand.IntN,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type generateRequest struct {
	SysMsg        string `json:"sysmsg"`
	Prompt        string `json:"prompt"`
	Model         string `json:"model"`
	Quality       string `json:"quality"`
	Size          string `json:"size"`
	Style         string `json:"style"`
	ContainerName string `json:"container_name"`
	ExpiryHours   int    `json:"expiry_hours"`
}

type generateResponse struct {
	Code    *int              `json:"code"`
	Message string            `json:"message,omitempty"`
	Data    []json.RawMessage `json:"data"`
}

// GeneratePoster renders one poster and returns its URL.
func (c *Client) GeneratePoster(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.cfg.Token == "" {
		return "", boterr.MissingConfig("image.api_token", "set AZURE_IMAGE_API_KEY")
	}
	style := Styles[c.pickStyle(len(Styles))]
	body, err := json.Marshal(generateRequest{
		SysMsg:        systemPrompt,
		Prompt:        userPrompt,
		Model:         c.cfg.Model,
		Quality:       c.cfg.Quality,
		Size:          c.cfg.Size,
		Style:         style,
		ContainerName: c.cfg.Container,
		ExpiryHours:   c.cfg.ExpiryHours,
	})
	if err != nil {
		return "", fmt.Errorf("encode image request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	start := time.Now()
	c.logger.Debug("image_generate_start", "style", style, "size", c.cfg.Size, "container", c.cfg.Container)
	resp, err := c.http.Do(req)
	if err != nil {
		return "", &boterr.CollaboratorError{Service: "image", Op: "generate", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &boterr.CollaboratorError{
			Service:    "image",
			Op:         "generate",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("image API error: %s", strings.TrimSpace(string(snippet))),
		}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &boterr.CollaboratorError{Service: "image", Op: "generate", StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %v", ErrInvalidResponse, err)}
	}
	if out.Code == nil || *out.Code != 0 || len(out.Data) == 0 {
		return "", &boterr.CollaboratorError{Service: "image", Op: "generate", StatusCode: resp.StatusCode, Err: ErrInvalidResponse}
	}
	url, err := imageURL(out.Data[0])
	if err != nil {
		return "", &boterr.CollaboratorError{Service: "image", Op: "generate", StatusCode: resp.StatusCode, Err: err}
	}
	c.logger.Info("image_generated", "style", style, "duration", time.Since(start).String())
	return url, nil
}

// imageURL accepts either a bare string or an object carrying url.
func imageURL(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s = strings.TrimSpace(s); s != "" {
			return s, nil
		}
		return "", ErrInvalidResponse
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if obj.URL = strings.TrimSpace(obj.URL); obj.URL == "" {
		return "", ErrInvalidResponse
	}
	return obj.URL, nil
}
