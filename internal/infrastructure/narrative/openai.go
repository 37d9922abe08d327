package narrative

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"
)

const systemPrompt = "You are a concise urban livability analyst. Reply with plain text only."

// OpenAIClient generates narrative text through an OpenAI-compatible chat
// model endpoint, with client-side rate limiting and bounded retries.
type OpenAIClient struct {
	chatModel model.ChatModel
	limiter   *rate.Limiter
}

func NewOpenAIClient(ctx context.Context, baseURL, apiKey, modelName string, rpm int) (*OpenAIClient, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   modelName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat model: %w", err)
	}

	if rpm <= 0 {
		rpm = 60
	}

	return &OpenAIClient{
		chatModel: chatModel,
		limiter:   rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
	}, nil
}

// Generate sends the prompt and returns the model's cleaned text reply.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	const maxRetries = 2
	baseDelay := 2 * time.Second
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		messages := []*schema.Message{
			{Role: schema.System, Content: systemPrompt},
			{Role: schema.User, Content: prompt},
		}

		resp, err := c.chatModel.Generate(ctx, messages)
		if err != nil {
			if strings.Contains(err.Error(), "429") ||
				strings.Contains(strings.ToLower(err.Error()), "too many requests") {
				lastErr = err
				if i < maxRetries {
					select {
					case <-ctx.Done():
						return "", ctx.Err()
					case <-time.After(baseDelay * time.Duration(1<<i)):
					}
					continue
				}
			}
			return "", err
		}

		// Strip code fences some models wrap replies in
		clean := strings.TrimSpace(resp.Content)
		clean = strings.TrimPrefix(clean, "```text")
		clean = strings.TrimPrefix(clean, "```")
		clean = strings.TrimSuffix(clean, "```")

		return strings.TrimSpace(clean), nil
	}

	return "", lastErr
}
