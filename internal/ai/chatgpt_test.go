package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/internal/lookup"
)

func newChatServer(t *testing.T, content string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req ChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		if assert.Len(t, req.Messages, 2) {
			assert.Contains(t, req.Messages[1].Content, `"lucid"`)
		}

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New("", "", "", zap.NewNop())
	assert.Error(t, err)
}

func TestLookupDefinition(t *testing.T) {
	var hits int32
	srv := newChatServer(t, "Sure!\n```json\n{\"english\": \"easy to understand\", \"translation\": \"清楚的\", \"partOfSpeech\": \"adjective\"}\n```", &hits)
	c, err := New("test-key", srv.URL, "test-model", zap.NewNop())
	require.NoError(t, err)

	def, err := c.LookupDefinition(context.Background(), "Lucid", "Her prose was lucid.")
	require.NoError(t, err)
	assert.Equal(t, "easy to understand", def.English)
	assert.Equal(t, "清楚的", def.Translation)
	assert.Equal(t, "adjective", def.PartOfSpeech)
	assert.Equal(t, "easy to understand (清楚的)", def.Gloss())

	// same word and sentence is served from cache
	_, err = c.LookupDefinition(context.Background(), "lucid", "Her prose was lucid.")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// a different sentence is a different lookup
	_, err = c.LookupDefinition(context.Background(), "lucid", "")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestLookupDefinitionUnparsable(t *testing.T) {
	var hits int32
	srv := newChatServer(t, "I am not sure.", &hits)
	c, err := New("test-key", srv.URL, "test-model", zap.NewNop())
	require.NoError(t, err)

	_, err = c.LookupDefinition(context.Background(), "lucid", "")
	assert.Error(t, err)
}

func TestLookupDefinitionEmpty(t *testing.T) {
	var hits int32
	srv := newChatServer(t, `{"english": "", "translation": ""}`, &hits)
	c, err := New("test-key", srv.URL, "test-model", zap.NewNop())
	require.NoError(t, err)

	_, err = c.LookupDefinition(context.Background(), "lucid", "")
	assert.ErrorIs(t, err, lookup.ErrNotFound)
}

func TestLookupDefinitionAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "invalid api key"}}`))
	}))
	defer srv.Close()

	c, err := New("test-key", srv.URL, "", zap.NewNop())
	require.NoError(t, err)
	_, err = c.LookupDefinition(context.Background(), "lucid", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}
