package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient runs completions directly against an OpenAI-compatible
// provider instead of the hosted endpoint. It re-emits the provider stream
// as standard SSE frames so both clients share one decoding path.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a direct provider client. baseURL may be empty for
// the default OpenAI API.
func NewOpenAIClient(apiKey, baseURL, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("provider API key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// Stream starts a streaming completion and returns a body of SSE frames.
func (c *OpenAIClient) Stream(ctx context.Context, req Request) (io.ReadCloser, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, c.convertRequest(req))
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	go func() {
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				fmt.Fprint(pw, "data: [DONE]\n\n")
				pw.Close()
				return
			}
			if err != nil {
				pw.CloseWithError(err)
				return
			}
			if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
				continue
			}

			frame, err := json.Marshal(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"delta": map[string]string{"content": resp.Choices[0].Delta.Content}},
				},
			})
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(pw, "data: %s\n\n", frame); err != nil {
				return
			}
		}
	}()

	return pr, nil
}

// convertRequest maps the endpoint request shape onto the OpenAI API. Plain
// text messages use the scalar content field; messages carrying images use
// multimodal content parts.
func (c *OpenAIClient) convertRequest(req Request) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		converted := openai.ChatCompletionMessage{Role: msg.Role}

		hasImage := false
		for _, part := range msg.Content {
			if part.Type == PartTypeImageURL {
				hasImage = true
				break
			}
		}

		if hasImage {
			parts := make([]openai.ChatMessagePart, 0, len(msg.Content))
			for _, part := range msg.Content {
				switch part.Type {
				case PartTypeText:
					parts = append(parts, openai.ChatMessagePart{
						Type: openai.ChatMessagePartTypeText,
						Text: part.Text,
					})
				case PartTypeImageURL:
					if part.ImageURL != nil {
						parts = append(parts, openai.ChatMessagePart{
							Type:     openai.ChatMessagePartTypeImageURL,
							ImageURL: &openai.ChatMessageImageURL{URL: part.ImageURL.URL},
						})
					}
				}
			}
			converted.MultiContent = parts
		} else {
			var text string
			for _, part := range msg.Content {
				if part.Type == PartTypeText {
					text += part.Text
				}
			}
			converted.Content = text
		}

		messages[i] = converted
	}

	return openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	}
}
