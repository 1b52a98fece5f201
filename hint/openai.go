// Package hint generates one-sentence hints for a running duel by calling
// an OpenAI-compatible chat completions endpoint.
//
// The gateway is deliberately an external collaborator: callers own failure
// policy (the coordinator converts any error into a user-facing placeholder
// and still consumes the player's hint budget).
package hint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nmaroz/codeduel/game/room"
)

// ErrNotConfigured is returned by Disabled and by an OpenAI gateway missing
// an API key.
var ErrNotConfigured = errors.New("hint gateway is not configured")

// OpenAIConfig configures the chat completions endpoint and HTTP behavior.
type OpenAIConfig struct {
	// BaseURL is the API root, e.g. "https://api.openai.com/v1". The
	// "/chat/completions" path is appended.
	BaseURL string
	APIKey  string
	Model   string
	// HTTPClient defaults to http.DefaultClient. No request timeout is set
	// here; a hung call stalls only the one hint waiting on it.
	HTTPClient *http.Client
}

// OpenAI calls a chat completions endpoint to produce hint text.
type OpenAI struct {
	cfg OpenAIConfig
}

// NewOpenAI builds a gateway from cfg, applying defaults.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &OpenAI{cfg: cfg}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const systemPrompt = `You are a witty, friendly host of a two-player game where players try to crack a 4-digit code. Give the requesting player exactly one hint sentence that moves them one step closer to the code.

Rules:
- Base the hint only on the secret code and the guess history you are given; never invent information.
- Never reveal the code or all of its digits.
- Do not repeat the numeric feedback the player already sees.
- Make the hint focused and useful: point at a promising digit, suggest moving a digit, or suggest a class of digits (even/odd, high/low) that fits the history.
- If there are no guesses yet, give a light piece of general advice for a first guess.
- Answer with a single sentence.`

// GenerateHint asks the model for one hint sentence given the secret and the
// requesting player's merged guess history. It never reveals the secret to
// the caller beyond what the model chooses to hint at.
func (o *OpenAI) GenerateHint(ctx context.Context, secret string, history []room.HistoryEntry) (string, error) {
	if strings.TrimSpace(o.cfg.APIKey) == "" {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(chatRequest{
		Model: o.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(secret, history)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal hint request: %w", err)
	}

	url := strings.TrimRight(o.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build hint request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)

	resp, err := o.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call hint endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("hint endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode hint response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("hint response contained no choices")
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("hint response was empty")
	}
	return text, nil
}

// userPrompt renders the secret and history into the model's input.
func userPrompt(secret string, history []room.HistoryEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The secret code is %q.\n", secret)
	if len(history) == 0 {
		b.WriteString("There are no guesses yet.")
		return b.String()
	}
	b.WriteString("Guess history so far:\n")
	for i, h := range history {
		fmt.Fprintf(&b, "Guess #%d (%s): %s -> %d in place, %d misplaced\n",
			i+1, h.Perspective, h.Guess, h.CorrectPositions, h.CorrectDigits)
	}
	return b.String()
}

// Disabled is a gateway that always fails. It keeps the hint feature wired
// when no API key is configured; the coordinator turns the error into its
// placeholder text.
type Disabled struct{}

// GenerateHint always returns ErrNotConfigured.
func (Disabled) GenerateHint(context.Context, string, []room.HistoryEntry) (string, error) {
	return "", ErrNotConfigured
}
