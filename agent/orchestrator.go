// Package agent runs the conversation loop: it sends the session
// transcript to an LLM with the tool catalogue, executes requested tools
// in order, feeds results back, and repeats until the model produces a
// final text answer or the depth budget runs out.
//
// The loop is an explicit state machine with a depth counter rather than
// a recursive function, so termination does not depend on call depth.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/avennor/trawl/llm"
	"github.com/avennor/trawl/storage"
	"github.com/avennor/trawl/tools"
	"github.com/avennor/trawl/tracker"
)

// DefaultMaxDepth bounds the number of tool-bearing LLM replies one
// SendMessage call will follow. It bounds tool-chain length, not
// wall-clock time.
const DefaultMaxDepth = 5

// defaultSystemPrompt frames the assistant's job for the model.
const defaultSystemPrompt = `You are a security testing assistant embedded in a web proxy. You can inspect captured HTTP traffic, create and send replay requests, define match/replace rules, record findings, and issue ad-hoc HTTP requests through the tools available to you. Use tools when the user's request needs live data; answer directly when it does not. Be concise and concrete.`

// Dispatcher executes tools by wire name and exposes the catalogue. The
// tools.Registry implements it; tests substitute fakes.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, input map[string]interface{}) (tools.Result, error)
	Definitions() []llm.ToolDefinition
}

// ProviderFactory builds a provider for a model identifier and API key.
type ProviderFactory func(model, apiKey string) (llm.Provider, error)

// Orchestrator coordinates LLM turns, tool execution, tracking and
// persistence for chat sessions.
type Orchestrator struct {
	store        storage.Store
	tracker      *tracker.Tracker
	dispatcher   Dispatcher
	newProvider  ProviderFactory
	maxDepth     int
	systemPrompt string
	log          zerolog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxDepth overrides the tool-chain depth budget.
func WithMaxDepth(depth int) Option {
	return func(o *Orchestrator) { o.maxDepth = depth }
}

// WithSystemPrompt overrides the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(o *Orchestrator) { o.systemPrompt = prompt }
}

// WithProviderFactory overrides provider construction (tests inject
// scripted providers through this).
func WithProviderFactory(f ProviderFactory) Option {
	return func(o *Orchestrator) { o.newProvider = f }
}

// WithLogger sets the orchestrator's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// New creates an orchestrator. The tracker is injected, not global, so
// independent orchestrators (and tests) never share execution state.
func New(store storage.Store, track *tracker.Tracker, dispatcher Dispatcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:      store,
		tracker:    track,
		dispatcher: dispatcher,
		newProvider: func(model, apiKey string) (llm.Provider, error) {
			return llm.ForModel(model, apiKey, llm.DefaultOptions())
		},
		maxDepth:     DefaultMaxDepth,
		systemPrompt: defaultSystemPrompt,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// keyNameFor maps a provider type to its api_keys row name.
func keyNameFor(pt llm.ProviderType) string {
	return pt.String() + "_api_key"
}

// toolOutcome records one executed tool for the fallback summary.
type toolOutcome struct {
	name     string
	resultID int64
	summary  string
}

// loopState is the explicit state of the conversation loop.
type loopState int

const (
	stateAwaitLLM loopState = iota
	stateExecuteTools
	stateDone
)

// SendMessage runs one full conversational turn: persists the user
// message, drives the tool loop until the model answers in text, persists
// the final answer, and returns it.
//
// An empty sessionID selects the default session. Errors are typed;
// Describe maps them to user-facing strings at the outermost boundary.
func (o *Orchestrator) SendMessage(ctx context.Context, sessionID, userText, model string) (string, error) {
	pt, err := llm.ProviderForModel(model)
	if err != nil {
		return "", err
	}

	keyName := keyNameFor(pt)
	apiKey, err := o.store.Key(ctx, keyName)
	if err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	if apiKey == "" {
		return "", &NoAPIKeyError{Provider: pt.String(), KeyName: keyName}
	}

	provider, err := o.newProvider(model, apiKey)
	if err != nil {
		return "", err
	}

	if sessionID == "" {
		session, err := o.store.DefaultSession(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to resolve default session: %w", err)
		}
		sessionID = session.ID
	}

	history, err := o.store.Messages(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to load transcript: %w", err)
	}

	conversation := make([]llm.ChatMessage, 0, len(history)+2)
	conversation = append(conversation, llm.SystemMessage(o.systemPrompt))
	for _, m := range history {
		conversation = append(conversation, llm.ChatMessage{Role: m.Role, Content: m.Content})
	}
	conversation = append(conversation, llm.UserMessage(userText))

	// Persist the user message before the LLM call so the transcript
	// records the question even if the turn fails.
	if _, err := o.store.AppendMessage(ctx, sessionID, "user", userText); err != nil {
		return "", fmt.Errorf("failed to persist user message: %w", err)
	}

	final, err := o.runLoop(ctx, provider, sessionID, conversation)
	if err != nil {
		return "", err
	}

	if _, err := o.store.AppendMessage(ctx, sessionID, "assistant", final); err != nil {
		return "", fmt.Errorf("failed to persist assistant message: %w", err)
	}
	return final, nil
}

// runLoop drives the AwaitLLM/ExecuteTools state machine to completion.
func (o *Orchestrator) runLoop(ctx context.Context, provider llm.Provider, sessionID string, conversation []llm.ChatMessage) (string, error) {
	depth := o.maxDepth
	var (
		state     = stateAwaitLLM
		final     string
		outcomes  []toolOutcome
		toolsUsed []string
		pending   *toolQueue
	)

	for state != stateDone {
		switch state {
		case stateAwaitLLM:
			// The budget counts tool-bearing replies: after maxDepth
			// tool rounds the model still gets one call to answer in
			// text, but one more tool round exhausts the budget.
			if depth < 0 {
				return "", &RecursionLimitError{Limit: o.maxDepth}
			}

			o.log.Debug().
				Str("session", sessionID).
				Str("provider", provider.Name()).
				Int("depth_remaining", depth).
				Msg("calling LLM")

			reply, err := provider.ChatWithTools(ctx, o.withSystem(conversation, toolsUsed), o.dispatcher.Definitions())
			if err != nil {
				return "", fmt.Errorf("LLM request failed: %w", err)
			}

			if reply.Content != "" {
				// The deepest reply's narrative wins outright.
				final = reply.Content
			}
			if len(reply.ToolCalls) == 0 {
				state = stateDone
				break
			}

			depth--
			pending = newToolQueue(reply.ToolCalls)
			state = stateExecuteTools

		case stateExecuteTools:
			for {
				call, ok := pending.Next()
				if !ok {
					break
				}
				outcome, followUp, err := o.executeTool(ctx, sessionID, call)
				if err != nil {
					return "", err
				}
				outcomes = append(outcomes, outcome)
				toolsUsed = append(toolsUsed, outcome.name)
				conversation = append(conversation, llm.UserMessage(followUp))
			}
			state = stateAwaitLLM
		}
	}

	if final != "" {
		return final, nil
	}
	if len(outcomes) > 0 {
		return fallbackSummary(outcomes), nil
	}
	return "No response generated", nil
}

// executeTool runs one tool call: tracker bookkeeping, transcript entry,
// dispatch, result persistence, and the synthetic follow-up message.
//
// A handler-reported failure (Result.Success=false) is a normal outcome:
// it is persisted and fed back to the model. A dispatch error (unknown
// tool, handler fault) checkpoints the tracker and fails the whole turn.
func (o *Orchestrator) executeTool(ctx context.Context, sessionID string, call llm.ToolCall) (toolOutcome, string, error) {
	input := map[string]interface{}{}
	if len(call.Arguments) > 0 {
		if err := json.Unmarshal(call.Arguments, &input); err != nil {
			return toolOutcome{}, "", fmt.Errorf("malformed arguments for tool %s: %w", call.Name, err)
		}
	}

	o.tracker.Start(sessionID, call.Name, input)

	// Record intent before execution so the transcript shows the attempt
	// even if the tool fails.
	if _, err := o.store.AppendMessage(ctx, sessionID, "assistant", "Using tool: "+call.Name); err != nil {
		o.tracker.Checkpoint(sessionID, call.Name, input)
		return toolOutcome{}, "", fmt.Errorf("failed to persist tool intent: %w", err)
	}

	o.log.Info().Str("session", sessionID).Str("tool", call.Name).Msg("executing tool")

	result, err := o.dispatcher.Dispatch(ctx, call.Name, input)
	if err != nil {
		o.tracker.Checkpoint(sessionID, call.Name, input)
		o.log.Error().Str("session", sessionID).Str("tool", call.Name).Err(err).Msg("tool dispatch failed")
		return toolOutcome{}, "", fmt.Errorf("tool execution failed: %w", err)
	}

	inputData, err := json.Marshal(input)
	if err != nil {
		o.tracker.Checkpoint(sessionID, call.Name, input)
		return toolOutcome{}, "", fmt.Errorf("failed to serialize tool input: %w", err)
	}
	resultData, err := json.Marshal(result)
	if err != nil {
		o.tracker.Checkpoint(sessionID, call.Name, input)
		return toolOutcome{}, "", fmt.Errorf("failed to serialize tool result: %w", err)
	}

	resultID, err := o.store.SaveResult(ctx, sessionID, call.Name, string(inputData), string(resultData), result.Summary)
	if err != nil {
		o.tracker.Checkpoint(sessionID, call.Name, input)
		return toolOutcome{}, "", fmt.Errorf("failed to persist tool result: %w", err)
	}

	// The model sees the follow-up as a user turn to keep it answering;
	// the stored transcript records it as assistant-originated context.
	followUp := fmt.Sprintf("Tool %s executed successfully. Results saved to id: %d. %s", call.Name, resultID, result.Summary)
	if _, err := o.store.AppendMessage(ctx, sessionID, "assistant", followUp); err != nil {
		o.tracker.Checkpoint(sessionID, call.Name, input)
		return toolOutcome{}, "", fmt.Errorf("failed to persist tool follow-up: %w", err)
	}

	o.tracker.Stop(sessionID)

	return toolOutcome{name: call.Name, resultID: resultID, summary: result.Summary}, followUp, nil
}

// withSystem rebuilds the system message, augmenting the prompt with the
// tools used so far in this turn.
func (o *Orchestrator) withSystem(conversation []llm.ChatMessage, toolsUsed []string) []llm.ChatMessage {
	if len(toolsUsed) == 0 {
		return conversation
	}
	out := make([]llm.ChatMessage, len(conversation))
	copy(out, conversation)
	out[0] = llm.SystemMessage(o.systemPrompt + "\n\nTools used so far in this conversation turn: " + strings.Join(toolsUsed, ", "))
	return out
}

// fallbackSummary synthesizes a final answer when tools ran but the model
// never produced text.
func fallbackSummary(outcomes []toolOutcome) string {
	names := make([]string, len(outcomes))
	ids := make([]string, len(outcomes))
	for i, out := range outcomes {
		names[i] = out.name
		ids[i] = fmt.Sprintf("%d", out.resultID)
	}
	return fmt.Sprintf("Tools executed: %s; Results saved to ids: %s", strings.Join(names, ", "), strings.Join(ids, ", "))
}
