// Package embedding provides a pluggable interface for text embedding
// providers: a local daemon (Ollama-style), a remote OpenAI-compatible
// API, a no-op provider, and an auto-probing selector (spec.md §6).
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Vector is a float32 embedding vector.
type Vector = []float32

// Embedder generates embedding vectors from text.
type Embedder interface {
	Name() string
	Dims() int
	Embed(ctx context.Context, text string) (Vector, error)
	// Available probes whether the provider can currently serve requests,
	// without performing a full embed call.
	Available(ctx context.Context) bool
}

// CosineSimilarity computes cosine similarity between two vectors.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// --- None provider (text-only retrieval fallback) ---

// NoneEmbedder disables vector retrieval entirely: the engine falls back
// to lexical-only fusion (spec §6, "fall back to text-only retrieval if
// none [provider] available").
type NoneEmbedder struct{}

func (NoneEmbedder) Name() string                       { return "none" }
func (NoneEmbedder) Dims() int                           { return 0 }
func (NoneEmbedder) Available(ctx context.Context) bool { return true }
func (NoneEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	return nil, nil
}

// --- Local (Ollama-style) provider ---

// LocalEmbedder uses a local embedding daemon reachable over HTTP,
// grounded on Ollama's /api/embeddings contract.
type LocalEmbedder struct {
	baseURL string
	model   string
	dims    int
	client  *http.Client
}

type localRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type localResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewLocalEmbedder creates an embedder against a local daemon.
// Default model: nomic-embed-text (768 dims); all-minilm yields 384.
func NewLocalEmbedder(baseURL, model string) *LocalEmbedder {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	dims := 768
	if model == "all-minilm" {
		dims = 384
	}
	return &LocalEmbedder{
		baseURL: baseURL,
		model:   model,
		dims:    dims,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *LocalEmbedder) Name() string { return "local:" + e.model }
func (e *LocalEmbedder) Dims() int    { return e.dims }

func (e *LocalEmbedder) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", e.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	probeClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := probeClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == 200
}

func (e *LocalEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	body, _ := json.Marshal(localRequest{Model: e.model, Prompt: text})
	req, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("local embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("local embedding error %d: %s", resp.StatusCode, string(b))
	}

	var result localResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result.Embedding, nil
}

// --- Remote (OpenAI-compatible) provider ---

// RemoteEmbedder uses any OpenAI-compatible embeddings API.
type RemoteEmbedder struct {
	baseURL string
	apiKey  string
	model   string
	dims    int
	client  *http.Client
}

type remoteRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type remoteResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// NewRemoteEmbedder creates an embedder against a remote API.
func NewRemoteEmbedder(baseURL, apiKey, model string, dims int) *RemoteEmbedder {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	if dims == 0 {
		dims = 1536
	}
	return &RemoteEmbedder{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		dims:    dims,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *RemoteEmbedder) Name() string { return "remote:" + e.model }
func (e *RemoteEmbedder) Dims() int    { return e.dims }

func (e *RemoteEmbedder) Available(ctx context.Context) bool {
	return e.apiKey != ""
}

func (e *RemoteEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	body, _ := json.Marshal(remoteRequest{Input: text, Model: e.model})
	req, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("remote embedding error %d: %s", resp.StatusCode, string(b))
	}

	var result remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return result.Data[0].Embedding, nil
}

// --- Auto-probing selector ---

// Auto probes providers in order — local daemon, then remote API — and
// returns the first available, falling back to NoneEmbedder (spec §6's
// "auto" selection mode).
func Auto(ctx context.Context, local *LocalEmbedder, remote *RemoteEmbedder) Embedder {
	if local != nil && local.Available(ctx) {
		return local
	}
	if remote != nil && remote.Available(ctx) {
		return remote
	}
	return NoneEmbedder{}
}

// Select resolves an explicit provider name, auto-falling back to Auto
// unless forbidden (spec §6: "on failure, auto-fallback unless the caller
// forbids it").
func Select(ctx context.Context, name string, local *LocalEmbedder, remote *RemoteEmbedder, forbidFallback bool) (Embedder, error) {
	switch name {
	case "", "auto":
		return Auto(ctx, local, remote), nil
	case "none":
		return NoneEmbedder{}, nil
	case "local":
		if local != nil && local.Available(ctx) {
			return local, nil
		}
	case "remote":
		if remote != nil && remote.Available(ctx) {
			return remote, nil
		}
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", name)
	}
	if forbidFallback {
		return nil, fmt.Errorf("embedding provider %q unavailable", name)
	}
	return Auto(ctx, local, remote), nil
}
