package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PabloGalante/onestep/internal/domain"
)

// GenerateResponse is the wire shape of POST /api/generate.
type GenerateResponse struct {
	Text    string `json:"text,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// RemoteGenerator implements domain.ResponseGenerator by calling another
// onestep server's /api/generate endpoint.
type RemoteGenerator struct {
	baseURL string
	http    *http.Client
}

func NewRemoteGenerator(baseURL string, client *http.Client) *RemoteGenerator {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &RemoteGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    client,
	}
}

func (r *RemoteGenerator) Generate(ctx context.Context, req domain.TurnRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode turn request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", &domain.GenerationError{Mode: req.Mode, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := r.http.Do(httpReq)
	if err != nil {
		return "", &domain.GenerationError{Mode: req.Mode, Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", &domain.GenerationError{Mode: req.Mode, Err: err}
	}

	var out GenerateResponse
	decodeErr := json.Unmarshal(raw, &out)

	// A rejection is a domain answer, whatever the status code.
	if decodeErr == nil && isRejectionCode(out.Error) {
		return "", &domain.RejectionError{Reason: out.Error, Message: out.Message}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", &domain.GenerationError{
			Mode: req.Mode,
			Err:  fmt.Errorf("server returned %d", res.StatusCode),
		}
	}
	if decodeErr != nil {
		return "", &domain.GenerationError{Mode: req.Mode, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	return out.Text, nil
}

func isRejectionCode(code string) bool {
	return code == "question" || code == "missing_task"
}
