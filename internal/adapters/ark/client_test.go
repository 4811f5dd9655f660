package ark_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/docmill/internal/adapters/ark"
	"go.trai.ch/docmill/internal/adapters/logger"
	"go.trai.ch/docmill/internal/core/domain"
)

func testLogger() *logger.Logger {
	return logger.NewWithOutput(io.Discard)
}

func TestNewClient_MissingKey(t *testing.T) {
	_, err := ark.NewClient(domain.Credentials{}, testLogger())
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
}

func TestComplete(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"generated text"}}]}`))
	}))
	defer srv.Close()

	client, err := ark.NewClient(domain.Credentials{ArkAPIKey: "test-key"}, testLogger())
	require.NoError(t, err)

	text, err := client.Complete(context.Background(),
		[]domain.Message{{Role: "user", Content: "prompt"}},
		domain.ModelConfig{Name: "test-model", BaseURL: srv.URL + "/", ReasoningEffort: "high"},
	)
	require.NoError(t, err)
	assert.Equal(t, "generated text", text)

	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-model", gotBody["model"])
	assert.Equal(t, "high", gotBody["reasoning_effort"])

	messages, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	msg := messages[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, "prompt", msg["content"])
}

func TestComplete_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := ark.NewClient(domain.Credentials{ArkAPIKey: "k"}, testLogger())
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), nil, domain.ModelConfig{BaseURL: srv.URL})
	assert.Error(t, err)
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client, err := ark.NewClient(domain.Credentials{ArkAPIKey: "k"}, testLogger())
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), nil, domain.ModelConfig{BaseURL: srv.URL})
	assert.Error(t, err)
}

func TestComplete_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client, err := ark.NewClient(domain.Credentials{ArkAPIKey: "k"}, testLogger())
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), nil, domain.ModelConfig{BaseURL: srv.URL})
	assert.Error(t, err)
}
