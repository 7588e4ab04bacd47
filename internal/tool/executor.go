package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	altronErrors "github.com/TheAdaptoid/Altron-Core/internal/errors"
)

// Call is one tool invocation as requested by the model: the raw argument
// string has not been validated yet.
type Call struct {
	ID        string
	Name      string
	Arguments string
}

// Response is the outcome of one call, addressed back to the originating
// call id.
type Response struct {
	ID      string
	Name    string
	Content string
}

// Executor resolves a call to a registered tool and runs it. Argument
// decode failures and tool runtime failures come back as descriptive
// response content so the model can see what went wrong and adapt; only an
// unregistered tool name is reported as an error to the caller.
type Executor struct {
	registry *Registry
}

func NewExecutor(registry *Registry) *Executor {
	return &Executor{registry: registry}
}

func (e *Executor) Execute(ctx context.Context, call Call) (Response, error) {
	t, ok := e.registry.Get(call.Name)
	if !ok {
		return Response{}, altronErrors.UnknownTool(call.Name)
	}

	resp := Response{ID: call.ID, Name: call.Name}

	var args json.RawMessage
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		resp.Content = fmt.Sprintf("invalid arguments for tool %q: %v", call.Name, err)
		return resp, nil
	}

	start := time.Now()
	result, err := t.Execute(ctx, args)
	if err != nil {
		slog.Warn("Tool execution failed", "tool", call.Name, "call_id", call.ID, "error", err)
		resp.Content = fmt.Sprintf("error executing tool %q: %v", call.Name, err)
		return resp, nil
	}

	slog.Debug("Tool executed", "tool", call.Name, "call_id", call.ID, "duration", time.Since(start))
	resp.Content = result
	return resp, nil
}
