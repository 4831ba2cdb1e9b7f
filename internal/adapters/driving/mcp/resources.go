package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const uriScheme = "manualqa://"

// manualInfo is the JSON shape of a registry entry.
type manualInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	Status     string    `json:"status"`
	Pages      int       `json:"pages"`
	Icons      int       `json:"icons"`
	Chunks     int       `json:"chunks"`
	Active     bool      `json:"active"`
	UpdatedAt  time.Time `json:"updated_at"`
	SourcePath string    `json:"source_path,omitempty"`
}

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "manuals",
		Name:        "manuals",
		Description: "Manuals ingested so far; the active one answers questions",
		MIMEType:    "application/json",
	}, s.handleManualsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "manuals/{ref}",
		Name:        "manual",
		Description: "A single manual by id or name",
		MIMEType:    "application/json",
	}, s.handleManualResource)
}

func (s *Server) handleManualsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Manuals == nil {
		return jsonResult(req.Params.URI, []manualInfo{})
	}

	manuals, err := s.ports.Manuals.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing manuals: %w", err)
	}
	activeID, err := s.ports.Manuals.ActiveID(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading active manual: %w", err)
	}

	infos := make([]manualInfo, len(manuals))
	for i := range manuals {
		m := &manuals[i]
		infos[i] = manualInfo{
			ID:         m.ID,
			Name:       m.Name,
			Kind:       string(m.Kind),
			Status:     string(m.Status),
			Pages:      m.PageCount,
			Icons:      m.IconCount,
			Chunks:     m.ChunkCount,
			Active:     m.ID == activeID,
			UpdatedAt:  m.UpdatedAt,
			SourcePath: m.SourcePath,
		}
	}
	return jsonResult(req.Params.URI, infos)
}

func (s *Server) handleManualResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	ref := extractManualRef(req.Params.URI)
	if s.ports.Manuals == nil || ref == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	m, err := s.ports.Manuals.Get(ctx, ref)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	activeID, _ := s.ports.Manuals.ActiveID(ctx) //nolint:errcheck // best effort flag

	return jsonResult(req.Params.URI, manualInfo{
		ID:         m.ID,
		Name:       m.Name,
		Kind:       string(m.Kind),
		Status:     string(m.Status),
		Pages:      m.PageCount,
		Icons:      m.IconCount,
		Chunks:     m.ChunkCount,
		Active:     m.ID == activeID,
		UpdatedAt:  m.UpdatedAt,
		SourcePath: m.SourcePath,
	})
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractManualRef extracts the ref from manualqa://manuals/{ref}.
func extractManualRef(uri string) string {
	const prefix = uriScheme + "manuals/"
	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	ref := strings.TrimPrefix(uri, prefix)
	if strings.Contains(ref, "/") {
		return ""
	}
	return ref
}
