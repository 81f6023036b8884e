package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"voxscribe/internal/domain"
	"voxscribe/internal/infra"
)

// Options configures the transcription endpoint client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client calls the external POST /transcribe endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

// Response is the decoded success payload of the endpoint.
type Response struct {
	Transcription   string
	TokensRemaining int64
}

// APIError reports a rejected call. It unwraps to domain.ErrProviderFailure.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("transcription: status %d", e.Status)
	}
	return fmt.Sprintf("transcription: status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return domain.ErrProviderFailure }

type transcribeRequest struct {
	FileURL string `json:"fileUrl"`
}

type transcribeResponse struct {
	Transcription   *string `json:"transcription"`
	TokensRemaining *int64  `json:"tokensRemaining"`
	Error           string  `json:"error"`
}

// NewClient builds a client. A zero Timeout leaves long transcriptions
// unbounded apart from the request context.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		l := infra.Logger(zerolog.New(io.Discard))
		logger = &l
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Transcribe asks the endpoint to transcribe the media at fileURL on behalf of
// the bearer of token.
func (c *Client) Transcribe(ctx context.Context, fileURL, token string) (*Response, error) {
	if strings.TrimSpace(fileURL) == "" {
		return nil, errors.New("transcription: file url is required")
	}
	body, err := json.Marshal(transcribeRequest{FileURL: fileURL})
	if err != nil {
		return nil, fmt.Errorf("transcription: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("transcription: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription: http request: %w", errors.Join(domain.ErrProviderFailure, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transcription: read response: %w", errors.Join(domain.ErrProviderFailure, err))
	}

	var decoded transcribeResponse
	decodeErr := json.Unmarshal(raw, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(decoded.Error)
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return nil, &APIError{Status: resp.StatusCode, Message: truncate(msg, 512)}
	}
	if decodeErr != nil {
		return nil, &APIError{Status: resp.StatusCode, Message: "malformed response: " + decodeErr.Error()}
	}
	if decoded.Error != "" {
		return nil, &APIError{Status: resp.StatusCode, Message: decoded.Error}
	}
	if decoded.Transcription == nil || decoded.TokensRemaining == nil {
		return nil, &APIError{Status: resp.StatusCode, Message: "response missing transcription or tokensRemaining"}
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Int("chars", len(*decoded.Transcription)).
		Int64("tokens_remaining", *decoded.TokensRemaining).
		Dur("took", time.Since(started)).
		Msg("transcription: endpoint returned")

	return &Response{Transcription: *decoded.Transcription, TokensRemaining: *decoded.TokensRemaining}, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
