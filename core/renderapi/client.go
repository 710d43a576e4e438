// Package renderapi is the HTTP client for the external render backend,
// which synthesizes narration/dialogue audio, renders master preview mixes,
// and extracts audio from finished video shots.
package renderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"CutRoom/logger"
)

// Client talks to the render backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GenerateVoiceRequest selects which shots get voice audio generated.
// Empty ShotIDs means all shots. Overwrite regenerates existing tracks;
// otherwise only missing tracks are backfilled.
type GenerateVoiceRequest struct {
	ProjectID        string   `json:"projectId"`
	ShotIDs          []string `json:"shotIds,omitempty"`
	IncludeNarration bool     `json:"includeNarration"`
	IncludeDialogue  bool     `json:"includeDialogue"`
	Overwrite        bool     `json:"overwrite"`
}

// GenerateVoiceResult reports how many tracks were produced.
type GenerateVoiceResult struct {
	Generated int `json:"generated"`
	Skipped   int `json:"skipped"`
}

// MasterVariant names one server-rendered preview track.
type MasterVariant string

const (
	VariantNarrationOnly MasterVariant = "narration"
	VariantFinalMix      MasterVariant = "mix"
)

// RenderMasterRequest asks for preview tracks rendered against the given
// per-shot durations.
type RenderMasterRequest struct {
	ProjectID string             `json:"projectId"`
	Durations map[string]float64 `json:"durations"` // shotId -> seconds
	Variants  []MasterVariant    `json:"variants"`
}

// RenderMasterResult carries resolved URLs per requested variant.
type RenderMasterResult struct {
	MasterAudioURL    string `json:"masterAudioUrl,omitempty"`
	MasterMixAudioURL string `json:"masterMixAudioUrl,omitempty"`
}

// ExtractOutcome is the per-shot result of audio extraction from video.
type ExtractOutcome struct {
	ShotID   string `json:"shotId"`
	Updated  bool   `json:"updated"`
	NoAudio  bool   `json:"noAudio"`
	Failed   bool   `json:"failed"`
	Message  string `json:"message,omitempty"`
	AudioURL string `json:"audioUrl,omitempty"`
}

// apiError is the backend's error envelope; Message is surfaced verbatim to
// the user when present.
type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// GenerateVoice asks the backend to synthesize voice tracks.
func (c *Client) GenerateVoice(ctx context.Context, req GenerateVoiceRequest) (*GenerateVoiceResult, error) {
	var result GenerateVoiceResult
	if err := c.postJSON(ctx, "/api/voice/generate", req, &result); err != nil {
		return nil, err
	}
	logger.Info("voice generation finished",
		logger.String("projectId", req.ProjectID),
		logger.Int("generated", result.Generated),
		logger.Int("skipped", result.Skipped))
	return &result, nil
}

// RenderMaster asks the backend to render master preview track(s).
func (c *Client) RenderMaster(ctx context.Context, req RenderMasterRequest) (*RenderMasterResult, error) {
	var result RenderMasterResult
	if err := c.postJSON(ctx, "/api/master/render", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ExtractAudio asks the backend to pull audio out of finished video shots.
func (c *Client) ExtractAudio(ctx context.Context, projectID string, shotIDs []string) ([]ExtractOutcome, error) {
	req := struct {
		ProjectID string   `json:"projectId"`
		ShotIDs   []string `json:"shotIds,omitempty"`
	}{ProjectID: projectID, ShotIDs: shotIDs}

	var outcomes []ExtractOutcome
	if err := c.postJSON(ctx, "/api/video/extract-audio", req, &outcomes); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// postJSON posts a JSON body and decodes the JSON response, surfacing the
// server-provided message on non-2xx status when one exists.
func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("render backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read render backend response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil {
			if apiErr.Message != "" {
				return fmt.Errorf("%s", apiErr.Message)
			}
			if apiErr.Error != "" {
				return fmt.Errorf("%s", apiErr.Error)
			}
		}
		return fmt.Errorf("render backend returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode render backend response: %w", err)
		}
	}
	return nil
}
