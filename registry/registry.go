// Package registry holds the closed set of tools the agent may call and
// validates model-emitted arguments before any handler runs.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Desarso/stockagent/models"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Result is the model-facing outcome of one tool call.
type Result struct {
	Output   string
	Status   models.ToolStatus
	Err      error
	Duration time.Duration
}

type Registry struct {
	mu      sync.RWMutex
	tools   map[string]models.FunctionDeclaration
	schemas map[string]*jsonschema.Schema
	order   []string
	sealed  bool
}

func New() *Registry {
	return &Registry{
		tools:   make(map[string]models.FunctionDeclaration),
		schemas: make(map[string]*jsonschema.Schema),
	}
}

// Register adds a declaration. Only valid before Seal.
func (r *Registry) Register(decl models.FunctionDeclaration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrRegistrySealed
	}
	if decl.Name == "" {
		return errors.New("tool name is empty")
	}
	if decl.Handler == nil {
		return fmt.Errorf("tool %s has no handler", decl.Name)
	}
	if _, exists := r.tools[decl.Name]; exists {
		return fmt.Errorf("tool %s already registered", decl.Name)
	}
	if decl.Parameters.Type == "" {
		decl.Parameters.Type = "object"
	}
	if decl.Parameters.Properties == nil {
		decl.Parameters.Properties = map[string]interface{}{}
	}
	for _, req := range decl.Parameters.Required {
		if _, ok := decl.Parameters.Property(req); !ok {
			return fmt.Errorf("tool %s requires undeclared property %q", decl.Name, req)
		}
	}

	schema, err := compileSchema(decl.Name, decl.Parameters)
	if err != nil {
		return err
	}

	r.tools[decl.Name] = decl
	r.schemas[decl.Name] = schema
	r.order = append(r.order, decl.Name)
	return nil
}

// MustRegister is Register for startup wiring, panicking on error.
func (r *Registry) MustRegister(decls ...models.FunctionDeclaration) *Registry {
	for _, decl := range decls {
		if err := r.Register(decl); err != nil {
			panic(err)
		}
	}
	return r
}

// Seal freezes the registry.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

func (r *Registry) Resolve(name string) (models.FunctionDeclaration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decl, ok := r.tools[name]
	if !ok {
		return models.FunctionDeclaration{}, &NotFoundError{ToolName: name}
	}
	return decl, nil
}

// Validate resolves name and checks raw against its parameter schema.
func (r *Registry) Validate(name string, raw map[string]interface{}) (Arguments, error) {
	decl, schema, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return validateArguments(decl, schema, raw)
}

func (r *Registry) lookup(name string) (models.FunctionDeclaration, *jsonschema.Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decl, ok := r.tools[name]
	if !ok {
		return models.FunctionDeclaration{}, nil, &NotFoundError{ToolName: name}
	}
	return decl, r.schemas[name], nil
}

// Declarations returns the registered tools in registration order.
func (r *Registry) Declarations() []models.FunctionDeclaration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decls := make([]models.FunctionDeclaration, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.tools[name])
	}
	return decls
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute runs one tool call. Unknown names and invalid arguments never reach a
// handler; every failure is rendered as text so the model can react to it.
func (r *Registry) Execute(ctx context.Context, call models.FunctionCall) Result {
	start := time.Now()

	decl, schema, err := r.lookup(call.Name)
	if err != nil {
		return Result{Output: FormatError(err), Status: models.ToolStatusInvalid, Err: err, Duration: time.Since(start)}
	}
	args, err := validateArguments(decl, schema, call.Args)
	if err != nil {
		return Result{Output: FormatError(err), Status: models.ToolStatusInvalid, Err: err, Duration: time.Since(start)}
	}

	output, err := decl.Handler(ctx, args)
	if err != nil {
		var failure *ToolFailure
		if errors.As(err, &failure) {
			return Result{Output: failure.Text, Status: models.ToolStatusFailed, Err: err, Duration: time.Since(start)}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("tool %s timed out: %w", call.Name, err)
		}
		return Result{Output: FormatError(err), Status: models.ToolStatusFailed, Err: err, Duration: time.Since(start)}
	}
	return Result{Output: output, Status: models.ToolStatusOK, Duration: time.Since(start)}
}

// FormatError renders err the way tool failures are shown to the model.
func FormatError(err error) string {
	return "Error: " + err.Error()
}
