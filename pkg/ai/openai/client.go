package openai

import (
	"context"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/kaizau/pinyin-ktv-replit/pkg/ai"
)

var _ ai.Client = (*openAi)(nil)

type openAi struct {
	model  string
	client *openai.Client
	ctx    context.Context
}

// NewOpenAi builds a client for any OpenAI-compatible endpoint.
func NewOpenAi(apiKey, modelName, baseURL string) ai.Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &openAi{
		model:  modelName,
		client: openai.NewClientWithConfig(config),
		ctx:    context.Background(),
	}
}

func (o *openAi) Name() string {
	return "openai"
}

func (o *openAi) HandleText(msg string) (string, error) {
	resp, err := o.client.CreateChatCompletion(o.ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: msg,
			},
		},
		MaxTokens: 500,
	})
	if err != nil {
		log.Error().Err(err).Msg("could not get response from openai")
		return "", err
	}
	return resp.Choices[0].Message.Content, nil
}
