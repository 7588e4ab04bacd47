// Package inference implements the OpenAI-compatible streaming backend
// client: the chat-completions request, the SSE frame decoding, the chunk
// classifier, the tool-call accumulator, and the token stream
// demultiplexer the agent drives.
package inference

import (
	"encoding/json"

	altronErrors "github.com/TheAdaptoid/Altron-Core/internal/errors"
)

// doneSentinel terminates a chat-completions SSE stream.
const doneSentinel = "[DONE]"

type completionChunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []choiceChunk `json:"choices"`
}

type choiceChunk struct {
	Index        int        `json:"index"`
	Delta        chunkDelta `json:"delta"`
	FinishReason string     `json:"finish_reason"`
}

// chunkDelta is one incremental fragment of the model response. Content and
// reasoning are pointers so "field absent" and "field empty" stay
// distinguishable.
type chunkDelta struct {
	Role             string          `json:"role,omitempty"`
	Content          *string         `json:"content,omitempty"`
	ReasoningContent *string         `json:"reasoning_content,omitempty"`
	ToolCalls        []toolCallChunk `json:"tool_calls,omitempty"`
}

type toolCallChunk struct {
	Index    int               `json:"index"`
	ID       string            `json:"id,omitempty"`
	Type     string            `json:"type,omitempty"`
	Function toolCallFragments `json:"function"`
}

type toolCallFragments struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments"`
}

// ToolRequest is one complete tool invocation assembled from stream
// fragments. Arguments is the concatenated raw JSON string, not yet
// validated.
type ToolRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chunkClass int

const (
	// classDone - delta carries nothing; the stream is over
	classDone chunkClass = iota
	// classToolCall - delta carries tool-call fragments
	classToolCall
	// classReasoning - delta carries reasoning text
	classReasoning
	// classContent - delta carries response text
	classContent
)

// classify maps one delta fragment to exactly one outcome. A fragment
// carrying only a role echo counts as empty, matching the wire behavior of
// LM Studio and vLLM first frames.
func classify(delta chunkDelta) chunkClass {
	switch {
	case len(delta.ToolCalls) > 0:
		return classToolCall
	case delta.ReasoningContent != nil:
		return classReasoning
	case delta.Content != nil:
		return classContent
	default:
		return classDone
	}
}

// decodeChunk parses one SSE data payload. Anything that is not a
// well-formed completion chunk with at least one choice is a protocol
// error, reported with the raw payload attached and never retried.
func decodeChunk(payload string) (choiceChunk, error) {
	var chunk completionChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return choiceChunk{}, altronErrors.MalformedChunk(payload)
	}
	if len(chunk.Choices) == 0 {
		return choiceChunk{}, altronErrors.MalformedChunk(payload)
	}
	return chunk.Choices[0], nil
}
