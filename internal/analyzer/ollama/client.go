package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/TradeAgent/internal/platform/http"
)

const defaultBaseURL = "http://localhost:11434"

// Client is an analyzer backed by a local Ollama server.
type Client struct {
	baseURL    string
	model      string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// NewClient creates a new Ollama analyzer client
func NewClient(baseURL, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = "llama2"
	}

	return &Client{
		baseURL: baseURL,
		model:   model,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:         timeout,
			RequestsPerSec:  2,
			MaxRetryTimeout: timeout,
		}),
		logger: log.With().Str("component", "ollama_client").Logger(),
	}
}

// Analyze sends the prompt to the generate endpoint and returns the response text
func (c *Client) Analyze(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	url := c.baseURL + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug().Str("url", url).Str("model", c.model).Msg("Calling Ollama")

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	var data generateResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Msg("Error parsing Ollama response")
		return "", fmt.Errorf("parsing JSON: %w", err)
	}

	return data.Response, nil
}
