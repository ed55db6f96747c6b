package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyEmbedding indicates the provider answered without any vector.
var ErrEmptyEmbedding = errors.New("provider returned no embedding")

// ErrEmptyCompletion indicates the provider answered without any choices.
var ErrEmptyCompletion = errors.New("provider returned no completion")

const llmService = "hunyuan"

type embeddingRequest struct {
	InputList []string `json:"InputList"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"Embedding"`
	} `json:"Data"`
}

// Embed returns the embedding vector for text. Satisfies
// retrieval.Embedder.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp embeddingResponse
	err := c.call(ctx, c.cfg.LLMEndpoint, llmService, llmVersion, "GetEmbedding",
		embeddingRequest{InputList: []string{text}}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return resp.Data[0].Embedding, nil
}

type chatMessage struct {
	Role    string `json:"Role"`
	Content string `json:"Content"`
}

type chatRequest struct {
	Model    string        `json:"Model"`
	Stream   bool          `json:"Stream"`
	Messages []chatMessage `json:"Messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"Content"`
		} `json:"Message"`
	} `json:"Choices"`
}

// Chat sends a system prompt and user message to the chat model and returns
// the assistant's reply. An empty reply is an error, never a placeholder.
func (c *Client) Chat(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	req := chatRequest{
		Model:  c.cfg.ChatModel,
		Stream: false,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
	}

	var resp chatResponse
	if err := c.call(ctx, c.cfg.LLMEndpoint, llmService, llmVersion, "ChatCompletions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty message content", ErrEmptyCompletion)
	}
	return text, nil
}
