package inference

import (
	"bufio"
	"io"
	"strings"

	altronErrors "github.com/TheAdaptoid/Altron-Core/internal/errors"
)

type TokenKind int

const (
	TokenReasoning TokenKind = iota
	TokenContent
)

func (k TokenKind) String() string {
	if k == TokenReasoning {
		return "reasoning"
	}
	return "content"
}

// Token is one typed fragment of model output. Boundary is set on the
// first token and whenever the kind switches, so a consumer can bracket
// reasoning separately from the answer without tracking state itself.
type Token struct {
	Kind     TokenKind
	Text     string
	Boundary bool
}

// TokenStream demultiplexes one backend response into typed tokens,
// pulling SSE frames lazily and accumulating tool-call fragments on the
// side. It is finite and non-restartable: Next returns io.EOF exactly once
// the underlying stream terminates, after which ToolCalls yields the
// assembled requests. The stream must be exhausted (or Closed) to release
// the response body.
type TokenStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	acc     toolCallAccumulator
	last    TokenKind
	started bool
	done    bool
	calls   []ToolRequest
}

func newTokenStream(body io.ReadCloser) *TokenStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 8<<20)
	return &TokenStream{body: body, scanner: scanner}
}

// Next returns the next reasoning or content token. It returns io.EOF when
// the backend stream terminates, and a malformed-chunk error when a frame
// matches no recognized shape; either way the stream is finished and the
// body released.
func (s *TokenStream) Next() (Token, error) {
	if s.done {
		return Token{}, io.EOF
	}

	for s.scanner.Scan() {
		line := strings.TrimRight(s.scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		if payload == doneSentinel {
			return s.finish()
		}

		choice, err := decodeChunk(payload)
		if err != nil {
			s.finish()
			return Token{}, err
		}

		switch classify(choice.Delta) {
		case classDone:
			return s.finish()
		case classToolCall:
			for _, frag := range choice.Delta.ToolCalls {
				s.acc.add(frag)
			}
		case classReasoning:
			if *choice.Delta.ReasoningContent == "" {
				continue
			}
			return s.emit(TokenReasoning, *choice.Delta.ReasoningContent), nil
		case classContent:
			if *choice.Delta.Content == "" {
				continue
			}
			return s.emit(TokenContent, *choice.Delta.Content), nil
		}
	}

	if err := s.scanner.Err(); err != nil {
		s.finish()
		return Token{}, altronErrors.Wrap(err, "stream read failed")
	}
	return s.finish()
}

func (s *TokenStream) emit(kind TokenKind, text string) Token {
	boundary := !s.started || kind != s.last
	s.started = true
	s.last = kind
	return Token{Kind: kind, Text: text, Boundary: boundary}
}

func (s *TokenStream) finish() (Token, error) {
	if !s.done {
		s.done = true
		s.calls = s.acc.flush()
		s.body.Close()
	}
	return Token{}, io.EOF
}

// ToolCalls returns the accumulated tool requests. Valid only after Next
// has returned io.EOF.
func (s *TokenStream) ToolCalls() ([]ToolRequest, error) {
	if !s.done {
		return nil, altronErrors.InvalidInput("token stream not exhausted")
	}
	return s.calls, nil
}

// Close releases the backend response without draining it. Used when the
// consumer disconnects mid-stream.
func (s *TokenStream) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	s.calls = s.acc.flush()
	return s.body.Close()
}
