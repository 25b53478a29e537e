package lookup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/thebtf/skinshelf/pkg/models"
)

// ErrNoText is returned when the completion carries no usable text.
var ErrNoText = errors.New("no text in completion")

// DetailService produces descriptive text for a product list.
type DetailService interface {
	Details(ctx context.Context, products []models.Product, userID string) (string, error)
}

// Completer is a single request/response text-completion backend.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// PromptedService builds the detail prompt and sends it to a Completer.
type PromptedService struct {
	completer Completer
}

// NewPromptedService creates a DetailService over completer.
func NewPromptedService(completer Completer) *PromptedService {
	return &PromptedService{completer: completer}
}

// Details implements DetailService.
func (s *PromptedService) Details(ctx context.Context, products []models.Product, _ string) (string, error) {
	text, err := s.completer.Complete(ctx, BuildDetailPrompt(products))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

// DetailRequest is the body of POST /detail-lookup.
type DetailRequest struct {
	UserID   string           `json:"userId"`
	Products []models.Product `json:"products"`
}

// DetailResponse is the body returned by POST /detail-lookup.
type DetailResponse struct {
	Details string `json:"details,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RemoteService calls a detail-lookup endpoint served by another tier.
type RemoteService struct {
	httpClient *http.Client
	url        string
}

// NewRemoteService creates a DetailService that posts to url.
// A nil client uses http.DefaultClient.
func NewRemoteService(url string, client *http.Client) *RemoteService {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteService{url: url, httpClient: client}
}

// Details implements DetailService.
func (s *RemoteService) Details(ctx context.Context, products []models.Product, userID string) (string, error) {
	body, err := json.Marshal(DetailRequest{Products: products, UserID: userID})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("detail lookup request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var out DetailResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("detail lookup failed (%d): %s", resp.StatusCode, out.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("detail lookup failed with status %d", resp.StatusCode)
	}
	if strings.TrimSpace(out.Details) == "" {
		return "", ErrNoText
	}
	return out.Details, nil
}
