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
	"sync"
	"time"

	"github.com/halcyon-health/halcyon/internal/config"
	"github.com/halcyon-health/halcyon/internal/types"
)

// OllamaProvider is the local, on-device backend. It checks backend
// availability (and that the configured model is loaded) before first use
// and caches that answer until InvalidateAvailability is called. When
// unavailable, every call fails fast with ErrUnavailable.
type OllamaProvider struct {
	cfg    config.LocalProviderConfig
	client *http.Client
	logger *slog.Logger

	mu        sync.Mutex
	checked   bool
	available bool
	checkErr  error
}

func NewOllamaProvider(cfg config.LocalProviderConfig, logger *slog.Logger) *OllamaProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	return &OllamaProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (p *OllamaProvider) Name() types.ProviderID { return types.ProviderLocal }

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	TopK        *int     `json:"top_k,omitempty"`
	NumPredict  *int     `json:"num_predict,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type ollamaGenerateResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
}

// ensureAvailable performs the /api/tags check on first use and caches the
// outcome. A loaded model list without the configured model counts as
// unavailable.
func (p *OllamaProvider) ensureAvailable(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.checked {
		if !p.available {
			return p.checkErr
		}
		return nil
	}

	p.checked = true
	p.available = false

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		p.checkErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
		return p.checkErr
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.checkErr = fmt.Errorf("%w: backend unreachable", ErrUnavailable)
		return p.checkErr
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.checkErr = fmt.Errorf("%w: tags check returned status %d", ErrUnavailable, resp.StatusCode)
		return p.checkErr
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		p.checkErr = fmt.Errorf("%w: decode tags response: %v", ErrUnavailable, err)
		return p.checkErr
	}

	for _, m := range tags.Models {
		// Ollama tags carry a variant suffix, e.g. "llama3.2:latest".
		if m.Name == p.cfg.Model || strings.HasPrefix(m.Name, p.cfg.Model+":") {
			p.available = true
			p.checkErr = nil
			return nil
		}
	}

	p.checkErr = fmt.Errorf("%w: model %q not loaded", ErrUnavailable, p.cfg.Model)
	return p.checkErr
}

// Available reports whether the backend is reachable and the configured
// model is loaded, using the same cached check the call path uses.
func (p *OllamaProvider) Available(ctx context.Context) error {
	return p.ensureAvailable(ctx)
}

// InvalidateAvailability drops the cached availability answer so the next
// call re-checks the backend.
func (p *OllamaProvider) InvalidateAvailability() {
	p.mu.Lock()
	p.checked = false
	p.mu.Unlock()
}

func (p *OllamaProvider) buildRequest(prompt types.Prompt, opts types.CompletionOptions, stream bool) ollamaGenerateRequest {
	model := opts.Model
	if model == "" {
		model = p.cfg.Model
	}
	return ollamaGenerateRequest{
		Model:  model,
		Prompt: framePrompt(prompt),
		Stream: stream,
		Options: ollamaOptions{
			Temperature: opts.Temperature,
			TopP:        opts.TopP,
			TopK:        opts.TopK,
			NumPredict:  opts.MaxTokens,
			Stop:        opts.Stop,
		},
	}
}

func (p *OllamaProvider) Complete(ctx context.Context, prompt types.Prompt, opts types.CompletionOptions) (types.CompletionResult, error) {
	if err := p.ensureAvailable(ctx); err != nil {
		return types.CompletionResult{}, err
	}

	started := time.Now()
	body := p.buildRequest(prompt, opts, false)

	data, err := json.Marshal(body)
	if err != nil {
		return types.CompletionResult{}, fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/api/generate", bytes.NewReader(data))
	if err != nil {
		return types.CompletionResult{}, fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return types.CompletionResult{}, fmt.Errorf("call local backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return types.CompletionResult{}, fmt.Errorf("%w: local backend status %d: %s", ErrUpstream, resp.StatusCode, Redact(string(detail)))
	}

	var gen ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return types.CompletionResult{}, fmt.Errorf("decode generate response: %w", err)
	}

	return types.CompletionResult{
		Text:       gen.Response,
		Provider:   types.ProviderLocal,
		TokensUsed: types.EstimateTokens(body.Prompt) + types.EstimateTokens(gen.Response),
		Latency:    time.Since(started),
		Confidence: p.cfg.Confidence,
		Complete:   gen.Done,
	}, nil
}

func (p *OllamaProvider) Stream(ctx context.Context, prompt types.Prompt, opts types.CompletionOptions) (<-chan types.StreamFragment, error) {
	if err := p.ensureAvailable(ctx); err != nil {
		return nil, err
	}

	body := p.buildRequest(prompt, opts, true)
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/api/generate", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call local backend: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: local backend status %d: %s", ErrUpstream, resp.StatusCode, Redact(string(detail)))
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
				ch <- types.StreamFragment{Done: true, Err: ctx.Err(), Provider: types.ProviderLocal}
				return
			default:
			}

			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var chunk ollamaGenerateResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				p.logger.Warn("skipping malformed stream line", "error", err)
				continue
			}

			ch <- types.StreamFragment{
				Text:     chunk.Response,
				Done:     chunk.Done,
				Provider: types.ProviderLocal,
			}

			if chunk.Done {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			ch <- types.StreamFragment{Done: true, Err: err, Provider: types.ProviderLocal}
			return
		}
		// Backend closed the stream without a done marker.
		ch <- types.StreamFragment{Done: true, Err: io.ErrUnexpectedEOF, Provider: types.ProviderLocal}
	}()

	return ch, nil
}
