// Package agent drives the conversational invocation lifecycle: perceive
// the user message, stream the model's thinking and response, run requested
// tools, and persist the turn to its thread.
package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/TheAdaptoid/Altron-Core/internal/config"
	altronErrors "github.com/TheAdaptoid/Altron-Core/internal/errors"
	"github.com/TheAdaptoid/Altron-Core/internal/inference"
	"github.com/TheAdaptoid/Altron-Core/internal/logger"
	"github.com/TheAdaptoid/Altron-Core/internal/thread"
	"github.com/TheAdaptoid/Altron-Core/internal/tool"
)

// emptyMessageText stands in for an assistant turn that produced tool calls
// or reasoning but no visible text, so the persisted thread never carries a
// blank content field.
const emptyMessageText = "[[No Text Content]]"

const titlePrompt = "Summarize the following message as a conversation title of at most six words. Reply with the title only, no quotes.\n\n%s"

type Agent struct {
	name             string
	model            string
	titleModel       string
	maxToolRounds    int
	persistReasoning bool

	client   *inference.Client
	registry *tool.Registry
	executor *tool.Executor
	store    *thread.Store
}

func New(cfg config.AgentConfig, models config.ModelsConfig, client *inference.Client, registry *tool.Registry, store *thread.Store) *Agent {
	rounds := cfg.MaxToolRounds
	if rounds <= 0 {
		rounds = config.DefaultAgentMaxToolRounds
	}
	return &Agent{
		name:             cfg.Name,
		model:            models.ForRole(cfg.Role),
		titleModel:       cfg.TitleModel,
		maxToolRounds:    rounds,
		persistReasoning: cfg.PersistReasoning,
		client:           client,
		registry:         registry,
		executor:         tool.NewExecutor(registry),
		store:            store,
	}
}

// Name reports the agent's configured display name.
func (a *Agent) Name() string {
	return a.name
}

// Model reports the resolved model id the agent converses with.
func (a *Agent) Model() string {
	return a.model
}

// Store exposes the thread store for the serving layer's CRUD surface.
func (a *Agent) Store() *thread.Store {
	return a.store
}

// Invoke runs one conversational turn against the thread identified by
// threadID, creating a fresh thread when the id is empty. Events are pushed
// through emit in order: one perceiving marker, then an active token event
// per thinking or responding fragment, then exactly one terminal done event,
// or a failed event that ends the sequence. Invoke blocks on emit, so a slow
// consumer throttles the backend read; an emit error aborts the turn after a
// best-effort save of whatever was already produced.
//
// The returned thread reflects the persisted state, including the new user
// and assistant messages.
func (a *Agent) Invoke(ctx context.Context, threadID string, userMsg thread.Message, emit EmitFunc) (*thread.Thread, error) {
	if strings.TrimSpace(userMsg.Content) == "" {
		return nil, altronErrors.InvalidInput("message content is empty")
	}
	if err := thread.ValidateRole(userMsg.Role); err != nil {
		return nil, err
	}
	if userMsg.Timestamp.IsZero() {
		userMsg.Timestamp = time.Now()
	}
	if threadID == "" {
		threadID = logger.GetThreadID(ctx)
	}

	th, created, err := a.resolveThread(threadID)
	if err != nil {
		emit(failedEvent(err))
		return nil, err
	}
	unlock := a.store.Guard(th.ID)
	defer unlock()

	th.Append(userMsg)
	if err := emit(stateEvent(StatePerceiving)); err != nil {
		return nil, err
	}

	finalMsg, err := a.converse(ctx, th, emit)
	if err != nil {
		return nil, err
	}

	th.Append(*finalMsg)
	if err := a.store.Save(th); err != nil {
		slog.Error("Thread save failed after completed turn", "thread_id", th.ID, "error", err)
		emit(failedEvent(fmt.Errorf("persist thread %s: %w", th.ID, err)))
	} else if created {
		a.retitle(ctx, th, userMsg.Content)
	}

	if err := emit(stateEvent(StateDone)); err != nil {
		return th, err
	}
	return th, nil
}

func (a *Agent) resolveThread(threadID string) (*thread.Thread, bool, error) {
	if strings.TrimSpace(threadID) == "" {
		th, err := a.store.Create(thread.DefaultTitle)
		if err != nil {
			return nil, false, err
		}
		slog.Info("Thread created", "thread_id", th.ID)
		return th, true, nil
	}

	th, err := a.store.Load(threadID)
	if err != nil {
		return nil, false, err
	}
	return th, false, nil
}

// converse runs the think/act loop: stream one completion, forward its
// tokens, and either return the final assistant message or execute the
// requested tools and go around again with the extended context.
func (a *Agent) converse(ctx context.Context, th *thread.Thread, emit EmitFunc) (*thread.Message, error) {
	working := make([]thread.Message, len(th.Messages))
	copy(working, th.Messages)
	tools := a.registry.Definitions()

	var content, reasoning strings.Builder
	for round := 0; ; round++ {
		stream, err := a.client.Stream(ctx, a.model, working, tools)
		if err != nil {
			emit(failedEvent(err))
			return nil, err
		}

		content.Reset()
		reasoning.Reset()
		if err := a.drain(stream, &content, &reasoning, emit); err != nil {
			return nil, a.failPartial(th, content.String(), reasoning.String(), emit, err)
		}

		calls, err := stream.ToolCalls()
		if err != nil {
			emit(failedEvent(err))
			return nil, err
		}
		if len(calls) == 0 {
			return a.finalMessage(content.String(), reasoning.String()), nil
		}

		if round+1 >= a.maxToolRounds {
			err := fmt.Errorf("tool round limit reached after %d rounds", a.maxToolRounds)
			slog.Warn("Aborting tool continuation", "thread_id", th.ID, "rounds", a.maxToolRounds)
			return nil, a.failPartial(th, content.String(), reasoning.String(), emit, err)
		}

		working = append(working, a.callMessage(calls))
		for _, call := range calls {
			working = append(working, a.runTool(ctx, th.ID, call))
		}
	}
}

// drain forwards every token from one completion to the consumer, buffering
// content and reasoning on the side. Reasoning tokens surface as thinking
// events, content tokens as responding events.
func (a *Agent) drain(stream *inference.TokenStream, content, reasoning *strings.Builder, emit EmitFunc) error {
	for {
		tok, err := stream.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var ev Event
		if tok.Kind == inference.TokenReasoning {
			reasoning.WriteString(tok.Text)
			ev = tokenEvent(StateThinking, tok.Text)
		} else {
			content.WriteString(tok.Text)
			ev = tokenEvent(StateResponding, tok.Text)
		}
		if err := emit(ev); err != nil {
			stream.Close()
			return fmt.Errorf("consumer gone: %w", err)
		}
	}
}

// failPartial ends a turn that broke mid-stream. Any content already
// produced is appended and saved so the thread does not silently lose it,
// then the failure is reported. No done event follows.
func (a *Agent) failPartial(th *thread.Thread, content, reasoning string, emit EmitFunc, cause error) error {
	if content != "" {
		th.Append(*a.finalMessage(content, reasoning))
		if err := a.store.Save(th); err != nil {
			slog.Error("Partial response not persisted", "thread_id", th.ID, "error", err)
			cause = fmt.Errorf("%w (partial response not persisted: %v)", cause, err)
		}
	}
	emit(failedEvent(cause))
	return cause
}

func (a *Agent) finalMessage(content, reasoning string) *thread.Message {
	if content == "" {
		content = emptyMessageText
	}
	msg := thread.NewMessage(thread.RoleAssistant, content)
	if a.persistReasoning {
		msg.Reasoning = reasoning
	}
	return &msg
}

func (a *Agent) callMessage(calls []inference.ToolRequest) thread.Message {
	msg := thread.NewMessage(thread.RoleAssistant, "")
	for _, call := range calls {
		msg.ToolCalls = append(msg.ToolCalls, thread.ToolCall{
			ID:        call.ID,
			Name:      call.Name,
			Arguments: call.Arguments,
		})
	}
	return msg
}

// runTool executes one requested call and wraps the outcome as a tool-role
// message. Failures become message content so the model can recover; they
// never abort the turn.
func (a *Agent) runTool(ctx context.Context, threadID string, call inference.ToolRequest) thread.Message {
	resp, err := a.executor.Execute(ctx, tool.Call{
		ID:        call.ID,
		Name:      call.Name,
		Arguments: call.Arguments,
	})
	if err != nil {
		slog.Warn("Tool call rejected", "thread_id", threadID, "tool", call.Name, "error", err)
		resp = tool.Response{ID: call.ID, Name: call.Name, Content: fmt.Sprintf("Error: %v", err)}
	}

	msg := thread.NewMessage(thread.RoleTool, resp.Content)
	msg.ToolCallID = resp.ID
	return msg
}

// retitle replaces the placeholder title of a freshly created thread with a
// short model-generated summary. Best effort; the default title stands when
// the side channel is disabled or fails.
func (a *Agent) retitle(ctx context.Context, th *thread.Thread, firstMessage string) {
	if a.titleModel == "" || th.Title != thread.DefaultTitle {
		return
	}

	title, err := a.client.Complete(ctx, a.titleModel, []thread.Message{
		thread.NewMessage(thread.RoleUser, fmt.Sprintf(titlePrompt, firstMessage)),
	})
	if err != nil {
		slog.Warn("Title generation failed", "thread_id", th.ID, "error", err)
		return
	}
	title = strings.Trim(strings.TrimSpace(title), `"`)
	if title == "" {
		return
	}

	th.Title = title
	if err := a.store.Save(th); err != nil {
		slog.Warn("Title save failed", "thread_id", th.ID, "error", err)
	}
}
