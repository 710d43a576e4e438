package renderapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/voice/generate", r.URL.Path)
		var req GenerateVoiceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "p1", req.ProjectID)
		assert.True(t, req.IncludeNarration)
		json.NewEncoder(w).Encode(GenerateVoiceResult{Generated: 3, Skipped: 1})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	result, err := c.GenerateVoice(context.Background(), GenerateVoiceRequest{
		ProjectID:        "p1",
		IncludeNarration: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Generated)
	assert.Equal(t, 1, result.Skipped)
}

func TestServerMessageSurfacedVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"message": "no script text for shot 7"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.RenderMaster(context.Background(), RenderMasterRequest{ProjectID: "p1"})
	require.Error(t, err)
	assert.EqualError(t, err, "no script text for shot 7")
}

func TestGenericFallbackMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>boom</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.ExtractAudio(context.Background(), "p1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestExtractAudioOutcomes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]ExtractOutcome{
			{ShotID: "a", Updated: true, AudioURL: "/static/a.wav"},
			{ShotID: "b", NoAudio: true},
			{ShotID: "c", Failed: true, Message: "corrupt container"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	outcomes, err := c.ExtractAudio(context.Background(), "p1", []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].Updated)
	assert.True(t, outcomes[1].NoAudio)
	assert.Equal(t, "corrupt container", outcomes[2].Message)
}
