package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/kaizau/pinyin-ktv-replit/pkg/ai"
)

var _ ai.Client = (*gemini)(nil)

type gemini struct {
	model *genai.GenerativeModel
	ctx   context.Context
}

// NewGemini builds a Gemini-backed completion client. An empty
// modelName selects a sensible default.
func NewGemini(apiKey, modelName string) (ai.Client, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &gemini{model: client.GenerativeModel(modelName), ctx: ctx}, nil
}

func (g *gemini) Name() string {
	return "gemini"
}

func (g *gemini) HandleText(msg string) (string, error) {
	resp, err := g.model.GenerateContent(g.ctx, genai.Text(msg))
	if err != nil {
		log.Error().Err(err).Msg("could not get response from gemini")
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}
	return fmt.Sprint(resp.Candidates[0].Content.Parts[0]), nil
}
