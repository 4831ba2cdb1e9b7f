package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// defaultSearchLimit is used when search_manual is called without a limit.
const defaultSearchLimit = 5

// AskInput is the input schema for the ask_manual tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question about the product"`
}

// AskOutput is the output schema for the ask_manual tool.
type AskOutput struct {
	Answer  string       `json:"answer"`
	Intent  string       `json:"intent,omitempty"`
	Sources []HitOutput  `json:"sources,omitempty"`
	Manual  *ManualBrief `json:"manual,omitempty"`
}

// SearchInput is the input schema for the search_manual tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"text to look up in the active manual"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of sections to return (default 5)"`
}

// SearchOutput is the output schema for the search_manual tool.
type SearchOutput struct {
	Results []HitOutput `json:"results"`
	Count   int         `json:"count"`
}

// HitOutput is one retrieved manual section.
type HitOutput struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

// StatusInput is the (empty) input schema for the ingest_status tool.
type StatusInput struct{}

// StatusOutput is the output schema for the ingest_status tool.
type StatusOutput struct {
	Phase    string `json:"phase"`
	Progress int    `json:"progress"`
	Done     bool   `json:"done"`
}

// ManualBrief identifies a manual in tool output.
type ManualBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_manual",
		Description: "Answer a question using the active product manual, including the meaning of its icons",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_manual",
		Description: "Return the manual sections most similar to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_status",
		Description: "Report the progress of the manual currently being ingested",
	}, s.handleStatus)
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if input.Question == "" {
		return nil, AskOutput{}, errors.New("question is required")
	}

	ans, err := s.ports.QA.Ask(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	out := AskOutput{
		Answer:  ans.Answer,
		Intent:  string(ans.Intent),
		Sources: hitsOutput(ans.Chunks),
	}
	if m := s.ports.QA.ActiveManual(); m != nil {
		out.Manual = &ManualBrief{ID: m.ID, Name: m.Name}
	}
	return nil, out, nil
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	hits, err := s.ports.QA.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	results := hitsOutput(hits)
	return nil, SearchOutput{Results: results, Count: len(results)}, nil
}

func (s *Server) handleStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	p := domain.IdleProgress()
	if s.ports.Ingest != nil {
		var err error
		if p, err = s.ports.Ingest.Status(); err != nil {
			return nil, StatusOutput{}, err
		}
	}
	return nil, StatusOutput{Phase: string(p.Phase), Progress: p.Progress, Done: p.Done()}, nil
}

func hitsOutput(hits []domain.SearchHit) []HitOutput {
	out := make([]HitOutput, len(hits))
	for i, h := range hits {
		out[i] = HitOutput{ID: h.ID, Score: h.Score, Text: h.Text}
	}
	return out
}
