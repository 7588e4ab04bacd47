package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/TheAdaptoid/Altron-Core/internal/thread"

	"github.com/sashabaranov/go-openai"
)

const chatCompletionsPath = "/v1/chat/completions"

// Client talks to one OpenAI-compatible backend. Stream drives the raw SSE
// wire for the agent's token demultiplexer; Complete and Models ride the
// go-openai client for the plain request/response surfaces.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	openai  *openai.Client
}

func NewClient(baseURL, apiKey string, requestTimeout time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL + "/v1"

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: requestTimeout,
			},
		},
		openai: openai.NewClientWithConfig(cfg),
	}
}

// Stream opens a streaming chat completion over the full context plus tool
// definitions and hands back the token demultiplexer. The caller owns the
// stream and must exhaust or close it.
func (c *Client) Stream(ctx context.Context, model string, history []thread.Message, tools []openai.Tool) (*TokenStream, error) {
	messages, err := ToChatMessages(history)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		Tools:    tools,
		Stream:   true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatCompletionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		return nil, fmt.Errorf("backend http %d: %s", resp.StatusCode, string(raw))
	}

	return newTokenStream(resp.Body), nil
}

// Complete runs a non-streaming completion. Used for side channels like
// thread title generation, never for the conversational turn itself.
func (c *Client) Complete(ctx context.Context, model string, history []thread.Message) (string, error) {
	messages, err := ToChatMessages(history)
	if err != nil {
		return "", err
	}

	resp, err := c.openai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// Models lists the model ids the backend serves.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	list, err := c.openai.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models failed: %w", err)
	}

	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

// ToChatMessages converts thread messages to the chat-completions wire
// form, rejecting roles the protocol does not know.
func ToChatMessages(msgs []thread.Message) ([]openai.ChatCompletionMessage, error) {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		if err := thread.ValidateRole(m.Role); err != nil {
			return nil, err
		}

		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out, nil
}
