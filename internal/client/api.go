package client

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
)

// Progress is one playback position report from the player.
type Progress struct {
	TitleID     string  `json:"titleId"`
	TitleName   string  `json:"titleName"`
	TitleThumb  string  `json:"titleThumb"`
	EpisodeID   string  `json:"episodeId"`
	EpisodeName string  `json:"episodeName"`
	ServerLabel string  `json:"serverLabel"`
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
}

// SendError wraps a failed progress send with its retry classification, so
// the dispatcher's retry policy is an explicit decision.
type SendError struct {
	Retryable bool
	Err       error
}

func (e *SendError) Error() string {
	if e.Retryable {
		return fmt.Sprintf("send failed (retryable): %v", e.Err)
	}
	return fmt.Sprintf("send failed (permanent): %v", e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// retryable reports whether err should be kept for a later drain.
// Unclassified errors are assumed transient.
func retryable(err error) bool {
	var se *SendError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return true
}

// ProgressAPI sends progress reports to the server.
type ProgressAPI interface {
	SaveProgress(ctx context.Context, p Progress) error
}

// HTTPProgressAPI posts reports to the progress endpoint with a bearer token.
type HTTPProgressAPI struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPProgressAPI(baseURL, token string) *HTTPProgressAPI {
	return &HTTPProgressAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// SaveProgress posts one report. Transport errors, 5xx and 429 come back as
// retryable; any other rejection is permanent.
func (a *HTTPProgressAPI) SaveProgress(ctx context.Context, p Progress) error {
	body, err := json.Marshal(p)
	if err != nil {
		return &SendError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/v1/progress/save", bytes.NewReader(body))
	if err != nil {
		return &SendError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return &SendError{Retryable: true, Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return &SendError{Retryable: true, Err: fmt.Errorf("server returned %d", resp.StatusCode)}
	default:
		return &SendError{Err: fmt.Errorf("server rejected report: %d", resp.StatusCode)}
	}
}
