// Package stockagent is the orchestration core of the inventory assistant: a
// bounded reasoning loop that alternates model calls with tool executions and
// commits each completed exchange to short-term memory.
package stockagent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Desarso/stockagent/memory"
	models "github.com/Desarso/stockagent/models"
	"github.com/Desarso/stockagent/registry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Model is implemented by every provider adapter. The request carries the full
// message sequence for this iteration plus the tool declarations.
type Model interface {
	Model_Request(ctx context.Context, request models.Model_Request) (models.Model_Response, error)
}

// ModelFunc adapts a plain function to Model.
type ModelFunc func(ctx context.Context, request models.Model_Request) (models.Model_Response, error)

func (f ModelFunc) Model_Request(ctx context.Context, request models.Model_Request) (models.Model_Response, error) {
	return f(ctx, request)
}

type Agent struct {
	Model  Model
	Tools  *registry.Registry
	Memory *memory.Manager
	config *AgentConfig
	logger *zap.Logger
}

// Create_Agent wires a model, a sealed tool registry and a memory manager.
// A nil config means defaults; a nil memory manager gets an in-process one.
func Create_Agent(model Model, tools *registry.Registry, mem *memory.Manager, config *AgentConfig) *Agent {
	if config == nil {
		config = NewAgentConfig()
	}
	if tools == nil {
		tools = registry.New()
	}
	if mem == nil {
		mem = memory.NewManager(memory.WithLogger(config.Logger))
	}
	if !tools.Sealed() {
		tools.Seal()
	}
	return &Agent{
		Model:  model,
		Tools:  tools,
		Memory: mem,
		config: config,
		logger: config.Logger.Named("agent"),
	}
}

// Config returns the agent's configuration.
func (agent *Agent) Config() *AgentConfig {
	return agent.config
}

// RunTurn executes one user turn on req.ThreadID. Turns on the same thread are
// serialised; different threads run in parallel. A non-nil error is returned
// only for invalid requests. Degraded outcomes come back as an apology in
// Answer with Failure set, and leave memory untouched.
func (agent *Agent) RunTurn(ctx context.Context, req models.TurnRequest) (models.TurnResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return models.TurnResult{}, ErrEmptyMessage
	}
	if strings.TrimSpace(req.UserID) == "" {
		return models.TurnResult{}, ErrMissingUser
	}
	threadID := req.ThreadID
	if threadID == "" {
		threadID = memory.ThreadKey(0, req.UserID)
	}
	log := agent.logger.With(zap.String("thread_id", threadID), zap.String("user_id", req.UserID))

	unlock := agent.Memory.Lock(threadID)
	defer unlock()

	history, err := agent.Memory.GetContext(ctx, threadID)
	if err != nil {
		log.Warn("failed to load memory, continuing without history", zap.Error(err))
		history = nil
	}

	decls := agent.Tools.Declarations()
	userMsg := models.UserMessage(req.Message)
	transcript := make([]models.Message, 0, len(history)+4)
	transcript = append(transcript, models.SystemMessage(agent.systemPrompt(req, len(decls) > 0)))
	transcript = append(transcript, history...)
	transcript = append(transcript, userMsg)

	result := models.TurnResult{}
	for iteration := 1; iteration <= agent.config.MaxIterations; iteration++ {
		result.Iterations = iteration

		response, err := agent.callModel(ctx, transcript, decls)
		if err != nil {
			log.Error("model request failed", zap.Int("iteration", iteration), zap.Error(err))
			result.Answer = apologyModelUnavailable
			result.Failure = fmt.Errorf("%w: %v", ErrModelUnavailable, err)
			return result, nil
		}

		calls := response.FunctionCalls()
		if len(calls) == 0 {
			answer := response.Text()
			if strings.TrimSpace(answer) == "" {
				log.Warn("model returned an empty answer", zap.Int("iteration", iteration))
				answer = apologyEmptyResponse
			}
			result.Answer = answer
			if err := agent.Memory.AppendTurn(ctx, threadID, userMsg, models.AssistantMessage(answer)); err != nil {
				log.Warn("failed to commit turn to memory", zap.Error(err))
			} else {
				result.Committed = true
			}
			result.Failure = toolFailure(result.FailedTools())
			log.Info("turn completed",
				zap.Int("iterations", iteration),
				zap.Int("tool_calls", len(result.ToolCalls)))
			return result, nil
		}

		for i := range calls {
			if calls[i].ID == "" {
				calls[i].ID = uuid.NewString()
			}
		}
		transcript = append(transcript, models.Message{
			Role:      models.RoleAssistant,
			Content:   response.Text(),
			ToolCalls: calls,
		})

		// Tool calls run in emitted order; an update is never reordered with a read.
		for _, call := range calls {
			outcome := agent.runTool(ctx, req.UserRole, call)
			result.ToolCalls = append(result.ToolCalls, outcome)
			transcript = append(transcript, models.ToolMessage(call, outcome.Output))
			log.Debug("tool executed",
				zap.String("tool", call.Name),
				zap.String("status", string(outcome.Status)),
				zap.Duration("duration", outcome.Duration))
		}
	}

	log.Warn("iteration limit reached", zap.Int("max_iterations", agent.config.MaxIterations))
	result.Answer = apologyIterationLimit
	result.Failure = ErrIterationLimitExceeded
	return result, nil
}

func (agent *Agent) callModel(ctx context.Context, transcript []models.Message, decls []models.FunctionDeclaration) (models.Model_Response, error) {
	if agent.Model == nil {
		return models.Model_Response{}, errors.New("no model configured")
	}
	modelCtx, cancel := context.WithTimeout(ctx, agent.config.ModelTimeout)
	defer cancel()

	// Adapters may keep the slice; hand them a copy.
	messages := make([]models.Message, len(transcript))
	copy(messages, transcript)
	return agent.Model.Model_Request(modelCtx, models.Model_Request{Messages: messages, Tools: decls})
}

// runTool checks approval and then executes one call under the tool timeout.
func (agent *Agent) runTool(ctx context.Context, role string, call models.FunctionCall) models.ToolOutcome {
	start := time.Now()
	if decl, err := agent.Tools.Resolve(call.Name); err == nil && !agent.ApproveTool(role, decl) {
		detail := fmt.Sprintf("role %q may not run %s", role, call.Name)
		return models.ToolOutcome{
			Call:     call,
			Output:   fmt.Sprintf("Error: tu rol (%s) no tiene permiso para ejecutar %s.", role, call.Name),
			Status:   models.ToolStatusDenied,
			Detail:   detail,
			Duration: time.Since(start),
		}
	}

	toolCtx, cancel := context.WithTimeout(ctx, agent.config.ToolTimeout)
	defer cancel()
	res := agent.Tools.Execute(toolCtx, call)

	outcome := models.ToolOutcome{Call: call, Output: res.Output, Status: res.Status, Duration: res.Duration}
	if res.Err != nil {
		outcome.Detail = res.Err.Error()
	}
	return outcome
}

// ApproveTool reports whether role may run the declared tool.
func (agent *Agent) ApproveTool(role string, decl models.FunctionDeclaration) bool {
	return Tool_Approver(role, decl, agent.config.ReadOnlyRoles)
}

// ExecuteTool runs a single tool by name outside of a turn, with the same
// validation and timeout as the loop. It does not apply role approval.
func (agent *Agent) ExecuteTool(ctx context.Context, functionName string, args map[string]interface{}) (string, error) {
	toolCtx, cancel := context.WithTimeout(ctx, agent.config.ToolTimeout)
	defer cancel()
	res := agent.Tools.Execute(toolCtx, models.FunctionCall{ID: uuid.NewString(), Name: functionName, Args: args})
	return res.Output, res.Err
}

func (agent *Agent) systemPrompt(req models.TurnRequest, withTools bool) string {
	now := agent.config.Clock()
	if agent.config.Location != nil {
		now = now.In(agent.config.Location)
	}
	return buildSystemPrompt(now, req.UserName, req.UserID, req.UserRole, withTools)
}

func toolFailure(failed []models.ToolOutcome) error {
	if len(failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(failed))
	for _, outcome := range failed {
		errs = append(errs, &ToolExecutionFailedError{ToolName: outcome.Call.Name, Detail: outcome.Detail})
	}
	return errors.Join(errs...)
}
