package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ollamallm "github.com/custodia-labs/manualqa/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

func TestVisionService_Describe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req ollamallm.GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llava", req.Model)
		assert.False(t, req.Stream)
		assert.Equal(t, []string{"AQI="}, req.Images)
		_, _ = w.Write([]byte(`{"response":"TEXT","done":true}`))
	}))
	defer server.Close()

	svc := NewVisionService(Config{BaseURL: server.URL})

	reply, err := svc.Describe(context.Background(), driven.Image{Data: []byte{1, 2}, MIMEType: "image/png"}, "p")

	require.NoError(t, err)
	assert.Equal(t, "TEXT", reply)
}
