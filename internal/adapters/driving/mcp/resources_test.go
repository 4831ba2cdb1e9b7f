package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

func TestExtractManualRef(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid id", "manualqa://manuals/abc-123", "abc-123"},
		{"valid name", "manualqa://manuals/espresso", "espresso"},
		{"list uri", "manualqa://manuals", ""},
		{"nested path", "manualqa://manuals/a/b", ""},
		{"wrong scheme", "other://manuals/abc", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractManualRef(tt.uri))
		})
	}
}

func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func testManuals() []domain.Manual {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []domain.Manual{
		{ID: "m-1", Name: "espresso", Kind: domain.ManualKindPDF, Status: domain.ManualStatusReady,
			PageCount: 24, IconCount: 7, ChunkCount: 31, UpdatedAt: ts},
		{ID: "m-2", Name: "oven", Kind: domain.ManualKindMarkdown, Status: domain.ManualStatusFailed,
			UpdatedAt: ts.Add(-time.Hour)},
	}
}

func TestServer_handleManualsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil manual service returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{QA: &mockQAService{}})
		require.NoError(t, err)

		result, err := server.handleManualsResource(ctx, makeReadResourceRequest("manualqa://manuals"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("lists manuals and marks the active one", func(t *testing.T) {
		manuals := &mockManualService{manuals: testManuals(), activeID: "m-1"}
		server, err := NewServer(&Ports{QA: &mockQAService{}, Manuals: manuals})
		require.NoError(t, err)

		result, err := server.handleManualsResource(ctx, makeReadResourceRequest("manualqa://manuals"))
		require.NoError(t, err)

		var infos []manualInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &infos))
		require.Len(t, infos, 2)
		assert.Equal(t, "espresso", infos[0].Name)
		assert.True(t, infos[0].Active)
		assert.Equal(t, 7, infos[0].Icons)
		assert.Equal(t, "pdf", infos[0].Kind)
		assert.False(t, infos[1].Active)
		assert.Equal(t, "failed", infos[1].Status)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		manuals := &mockManualService{err: errors.New("database error")}
		server, err := NewServer(&Ports{QA: &mockQAService{}, Manuals: manuals})
		require.NoError(t, err)

		_, err = server.handleManualsResource(ctx, makeReadResourceRequest("manualqa://manuals"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing manuals")
	})
}

func TestServer_handleManualResource(t *testing.T) {
	ctx := context.Background()
	manuals := &mockManualService{manuals: testManuals(), activeID: "m-2"}
	server, err := NewServer(&Ports{QA: &mockQAService{}, Manuals: manuals})
	require.NoError(t, err)

	t.Run("by name", func(t *testing.T) {
		result, err := server.handleManualResource(ctx, makeReadResourceRequest("manualqa://manuals/oven"))
		require.NoError(t, err)

		var info manualInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &info))
		assert.Equal(t, "m-2", info.ID)
		assert.True(t, info.Active)
	})

	t.Run("unknown manual", func(t *testing.T) {
		_, err := server.handleManualResource(ctx, makeReadResourceRequest("manualqa://manuals/fridge"))
		assert.Error(t, err)
	})

	t.Run("malformed uri", func(t *testing.T) {
		_, err := server.handleManualResource(ctx, makeReadResourceRequest("manualqa://manuals/"))
		assert.Error(t, err)
	})

	t.Run("nil manual service", func(t *testing.T) {
		bare, err := NewServer(&Ports{QA: &mockQAService{}})
		require.NoError(t, err)

		_, err = bare.handleManualResource(ctx, makeReadResourceRequest("manualqa://manuals/oven"))
		assert.Error(t, err)
	})
}
