package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/chris/schemascout/internal/llm"
)

// schemaTemperature keeps schema descriptions consistent between calls.
const schemaTemperature = 0.1

// incompleteMarkers flag an analysis that admits the schema is not fully known.
var incompleteMarkers = []string{"missing", "need more", "unclear"}

type SchemaAnalysis struct {
	SchemaAnalysis string `json:"schema_analysis"`
	IsComplete     bool   `json:"is_complete"`
	FileType       string `json:"file_type"`
}

// Analyzer infers schemas by asking the completion service.
type Analyzer struct {
	client llm.Client
}

func NewAnalyzer(client llm.Client) *Analyzer {
	return &Analyzer{client: client}
}

func (a *Analyzer) Understand(ctx context.Context, content, fileType string) (*SchemaAnalysis, error) {
	temp := schemaTemperature
	resp, err := a.client.Chat(ctx, llm.Request{
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: llm.SchemaPrompt(strings.ToUpper(fileType), content),
		}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, fmt.Errorf("analyzing schema: %w", err)
	}
	analysis := resp.Message().Text()
	return &SchemaAnalysis{
		SchemaAnalysis: analysis,
		IsComplete:     isComplete(analysis),
		FileType:       fileType,
	}, nil
}

func isComplete(analysis string) bool {
	if strings.TrimSpace(analysis) == "" {
		return false
	}
	lower := strings.ToLower(analysis)
	for _, m := range incompleteMarkers {
		if strings.Contains(lower, m) {
			return false
		}
	}
	return true
}
