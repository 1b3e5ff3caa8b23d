package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/halcyon-health/halcyon/internal/config"
	"github.com/halcyon-health/halcyon/internal/types"
)

// CloudProvider is the higher-quality, higher-latency escalation backend.
// It speaks the chat-completions wire format. All error text that could
// contain the configured credentials passes through Redact before it is
// logged or returned.
type CloudProvider struct {
	cfg    config.CloudProviderConfig
	client *http.Client
	logger *slog.Logger
}

func NewCloudProvider(cfg config.CloudProviderConfig, logger *slog.Logger) *CloudProvider {
	return &CloudProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (p *CloudProvider) Name() types.ProviderID { return types.ProviderCloud }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequestBody struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
}

type chatResponseBody struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

func (p *CloudProvider) buildRequest(ctx context.Context, prompt types.Prompt, opts types.CompletionOptions, stream bool) (*http.Request, string, error) {
	model := opts.Model
	if model == "" {
		model = p.cfg.Model
	}
	body := chatRequestBody{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemMessage(prompt)},
			{Role: "user", Content: userMessage(prompt)},
		},
		Stream:      stream,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		TopP:        opts.TopP,
		Stop:        opts.Stop,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("marshal cloud request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("create cloud request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	for k, v := range p.cfg.Headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	// Token accounting uses the same len/4 heuristic as the local provider
	// so the two sides stay comparable.
	input := body.Messages[0].Content + body.Messages[1].Content
	return req, input, nil
}

func (p *CloudProvider) Complete(ctx context.Context, prompt types.Prompt, opts types.CompletionOptions) (types.CompletionResult, error) {
	started := time.Now()

	req, input, err := p.buildRequest(ctx, prompt, opts, false)
	if err != nil {
		return types.CompletionResult{}, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return types.CompletionResult{}, fmt.Errorf("call cloud backend: %s", Redact(err.Error()))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		p.logger.Error("cloud backend returned error", "status", resp.StatusCode, "detail", Redact(string(detail)))
		return types.CompletionResult{}, fmt.Errorf("%w: cloud backend status %d", ErrUpstream, resp.StatusCode)
	}

	var chat chatResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return types.CompletionResult{}, fmt.Errorf("decode cloud response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return types.CompletionResult{}, fmt.Errorf("%w: cloud response had no choices", ErrUpstream)
	}

	choice := chat.Choices[0]
	return types.CompletionResult{
		Text:       choice.Message.Content,
		Provider:   types.ProviderCloud,
		TokensUsed: types.EstimateTokens(input) + types.EstimateTokens(choice.Message.Content),
		Latency:    time.Since(started),
		Confidence: p.cfg.Confidence,
		Complete:   choice.FinishReason == "stop" || choice.FinishReason == "",
	}, nil
}

func (p *CloudProvider) Stream(ctx context.Context, prompt types.Prompt, opts types.CompletionOptions) (<-chan types.StreamFragment, error) {
	req, _, err := p.buildRequest(ctx, prompt, opts, true)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call cloud backend: %s", Redact(err.Error()))
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		p.logger.Error("cloud backend returned error", "status", resp.StatusCode, "detail", Redact(string(detail)))
		return nil, fmt.Errorf("%w: cloud backend status %d", ErrUpstream, resp.StatusCode)
	}

	ch := make(chan types.StreamFragment, 16)

	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			select {
			case <-ctx.Done():
				ch <- types.StreamFragment{Done: true, Err: ctx.Err(), Provider: types.ProviderCloud}
				return
			default:
			}

			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")

			if data == "[DONE]" {
				ch <- types.StreamFragment{Done: true, Provider: types.ProviderCloud}
				return
			}

			var chunk chatStreamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				p.logger.Warn("skipping malformed stream chunk", "error", err)
				continue
			}
			if len(chunk.Choices) == 0 {
				continue
			}

			choice := chunk.Choices[0]
			if choice.FinishReason != nil && *choice.FinishReason != "" {
				ch <- types.StreamFragment{Text: choice.Delta.Content, Done: true, Provider: types.ProviderCloud}
				return
			}
			if choice.Delta.Content != "" {
				ch <- types.StreamFragment{Text: choice.Delta.Content, Provider: types.ProviderCloud}
			}
		}

		if err := scanner.Err(); err != nil {
			ch <- types.StreamFragment{Done: true, Err: err, Provider: types.ProviderCloud}
			return
		}
		ch <- types.StreamFragment{Done: true, Provider: types.ProviderCloud}
	}()

	return ch, nil
}
