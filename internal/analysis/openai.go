package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketplace-reviews/pkg/utils"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const systemPrompt = "You are an expert at detecting fake reviews and analyzing sentiment."

const promptTemplate = `Analyze this business review for authenticity and sentiment:

Review: %q
Rating: %d/5

Provide analysis in JSON format:
{
  "sentimentScore": <number from -1 to 1>,
  "isManipulative": <boolean>,
  "flags": {
    "genericContent": <boolean>,
    "excessivePositivity": <boolean>,
    "suspiciousPatterns": <boolean>,
    "inappropriateContent": <boolean>
  }
}`

type openAIAnalyzer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	log     *zap.Logger
}

func NewOpenAIAnalyzer(config utils.OpenAIConfig, log *zap.Logger) Analyzer {
	return &openAIAnalyzer{
		client:  openai.NewClient(config.APIKey),
		model:   config.Model,
		timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		log:     log.With(zap.String("analyzer", "openai")),
	}
}

func (a *openAIAnalyzer) Analyze(ctx context.Context, text string, rating int) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: 0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(promptTemplate, text, rating)},
		},
	})
	if err != nil {
		a.log.Warn("Review analysis call failed", zap.Error(err))
		return Neutral(), fmt.Errorf("analyze review: %w", err)
	}

	if len(resp.Choices) == 0 {
		a.log.Warn("Review analysis returned no choices")
		return Neutral(), fmt.Errorf("analyze review: empty response")
	}

	result, err := parseResult([]byte(resp.Choices[0].Message.Content))
	if err != nil {
		a.log.Warn("Review analysis returned malformed output", zap.Error(err))
		return Neutral(), fmt.Errorf("analyze review: %w", err)
	}

	return result, nil
}

func parseResult(raw []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return Neutral(), fmt.Errorf("decode analysis JSON: %w", err)
	}

	result.SentimentScore = clampSentiment(result.SentimentScore)
	return result, nil
}

func clampSentiment(score float64) float64 {
	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}
