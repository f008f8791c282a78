package analyzer

import (
	"context"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"chartsight/internal/errors"
	"chartsight/internal/imaging"
	"chartsight/internal/models"
	"chartsight/internal/resilience"
)

// OpenAIAnalyzer implements Analyzer using the OpenAI vision API.
// Transient API failures (rate limits, 5xx) are retried with backoff.
type OpenAIAnalyzer struct {
	client  *openai.Client
	model   string
	retrier *resilience.Retrier
}

// NewOpenAIAnalyzer creates a new OpenAI-backed analyzer. An empty API
// key is allowed at construction; Analyze reports it as a configuration
// error before any network call.
func NewOpenAIAnalyzer(apiKey, model string) *OpenAIAnalyzer {
	a := &OpenAIAnalyzer{
		model:   model,
		retrier: resilience.NewRetrier(resilience.DefaultRetryConfig(), retryableAPIError),
	}
	if apiKey != "" {
		a.client = openai.NewClient(apiKey)
	}
	return a
}

// retryableAPIError reports whether an OpenAI error is worth retrying.
func retryableAPIError(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
}

// Analyze sends the chart image to the vision model and parses the
// structured result.
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, img imaging.Image) (*models.AnalysisResult, error) {
	if a.client == nil {
		return nil, errors.ErrCredentialsMissing
	}

	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: userPrompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    img.DataURL(),
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	var resp openai.ChatCompletionResponse
	err := a.retrier.Do(ctx, func() error {
		var callErr error
		resp, callErr = a.client.CreateChatCompletion(ctx, req)
		return callErr
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusUnauthorized {
			return nil, errors.Wrap(errors.ErrCredentialsInvalid, "openai completion failed")
		}
		return nil, errors.NewAnalysisError("", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.NewAnalysisError("The analysis service returned no response.", nil)
	}

	return parseResult(resp.Choices[0].Message.Content)
}
