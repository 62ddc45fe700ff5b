package registry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Desarso/stockagent/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingHandler struct {
	calls int
	last  map[string]interface{}
	out   string
	err   error
}

func (h *countingHandler) handle(ctx context.Context, args map[string]interface{}) (string, error) {
	h.calls++
	h.last = args
	return h.out, h.err
}

func updateDecl(h *countingHandler) models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "update_product",
		Description: "update a product",
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"id":             map[string]interface{}{"type": "integer"},
				"total":          map[string]interface{}{"type": "integer"},
				"publicPrice":    map[string]interface{}{"type": "number"},
				"classification": map[string]interface{}{"type": "string"},
				"mode":           map[string]interface{}{"type": "string", "enum": []string{"a", "b"}},
			},
			Required: []string{"id"},
		},
		Handler:  h.handle,
		Mutating: true,
	}
}

func TestRegister(t *testing.T) {
	h := &countingHandler{}

	tests := []struct {
		name    string
		decl    models.FunctionDeclaration
		wantErr bool
	}{
		{name: "valid", decl: updateDecl(h)},
		{name: "empty name", decl: models.FunctionDeclaration{Handler: h.handle}, wantErr: true},
		{name: "nil handler", decl: models.FunctionDeclaration{Name: "x"}, wantErr: true},
		{
			name: "unsupported schema type",
			decl: models.FunctionDeclaration{
				Name:    "z",
				Handler: h.handle,
				Parameters: models.Parameters{
					Type:       "object",
					Properties: map[string]interface{}{"id": map[string]interface{}{"type": "int"}},
				},
			},
			wantErr: true,
		},
		{
			name: "required property not declared",
			decl: models.FunctionDeclaration{
				Name:       "y",
				Handler:    h.handle,
				Parameters: models.Parameters{Required: []string{"id"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New().Register(tt.decl)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegister_DuplicateAndSealed(t *testing.T) {
	h := &countingHandler{}
	r := New()
	require.NoError(t, r.Register(updateDecl(h)))
	assert.Error(t, r.Register(updateDecl(h)))

	r.Seal()
	err := r.Register(models.FunctionDeclaration{Name: "late", Handler: h.handle})
	assert.ErrorIs(t, err, ErrRegistrySealed)
	assert.Equal(t, 1, r.Len())
}

func TestResolve_Deterministic(t *testing.T) {
	h := &countingHandler{out: "ok"}
	r := New().MustRegister(updateDecl(h))

	first, err := r.Resolve("update_product")
	require.NoError(t, err)
	second, err := r.Resolve("update_product")
	require.NoError(t, err)

	_, _ = first.Handler(context.Background(), nil)
	_, _ = second.Handler(context.Background(), nil)
	assert.Equal(t, 2, h.calls, "both resolutions point at the same handler")
	assert.Equal(t, first.Name, second.Name)
}

func TestResolve_NotFound(t *testing.T) {
	_, err := New().Resolve("drop_tables")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "drop_tables", nf.ToolName)
}

func TestValidate(t *testing.T) {
	r := New().MustRegister(updateDecl(&countingHandler{}))

	tests := []struct {
		name    string
		raw     map[string]interface{}
		want    Arguments
		wantErr bool
	}{
		{
			name: "integer from json float",
			raw:  map[string]interface{}{"id": float64(7), "total": float64(12)},
			want: Arguments{"id": int64(7), "total": int64(12)},
		},
		{
			name: "json number",
			raw:  map[string]interface{}{"id": json.Number("3"), "publicPrice": json.Number("10.5")},
			want: Arguments{"id": int64(3), "publicPrice": 10.5},
		},
		{
			name: "null optional dropped",
			raw:  map[string]interface{}{"id": float64(7), "total": nil},
			want: Arguments{"id": int64(7)},
		},
		{name: "missing required", raw: map[string]interface{}{"total": float64(1)}, wantErr: true},
		{name: "null required", raw: map[string]interface{}{"id": nil}, wantErr: true},
		{name: "string for integer", raw: map[string]interface{}{"id": "7"}, wantErr: true},
		{name: "fractional integer", raw: map[string]interface{}{"id": 7.5}, wantErr: true},
		{name: "number for string", raw: map[string]interface{}{"id": float64(1), "classification": float64(3)}, wantErr: true},
		{name: "unknown field", raw: map[string]interface{}{"id": float64(1), "price": float64(3)}, wantErr: true},
		{name: "enum violation", raw: map[string]interface{}{"id": float64(1), "mode": "c"}, wantErr: true},
		{name: "enum ok", raw: map[string]interface{}{"id": float64(1), "mode": "a"}, want: Arguments{"id": int64(1), "mode": "a"}},
		{name: "integer beyond float precision", raw: map[string]interface{}{"id": 1e19}, wantErr: true},
		{name: "integer beyond int64", raw: map[string]interface{}{"id": json.Number("9223372036854775808")}, wantErr: true},
		{name: "largest safe integer", raw: map[string]interface{}{"id": float64(1 << 53)}, want: Arguments{"id": int64(1 << 53)}},
		{name: "integral json number with fraction digits", raw: map[string]interface{}{"id": json.Number("7.0")}, want: Arguments{"id": int64(7)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Validate("update_product", tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_ListsEveryProblem(t *testing.T) {
	r := New().MustRegister(updateDecl(&countingHandler{}))

	_, err := r.Validate("update_product", map[string]interface{}{"total": "diez", "price": float64(3)})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.GreaterOrEqual(t, len(ve.Problems), 3)
	assert.Equal(t, "update_product", ve.ToolName)
}

func TestValidate_UnknownTool(t *testing.T) {
	_, err := New().Validate("nope", map[string]interface{}{})
	assert.True(t, IsNotFound(err))
}

func TestExecute_InvalidArgumentsNeverReachHandler(t *testing.T) {
	h := &countingHandler{out: "updated"}
	r := New().MustRegister(updateDecl(h))

	malformed := []map[string]interface{}{
		{},
		{"id": "seven"},
		{"id": float64(7), "total": "many"},
		{"id": true},
	}
	for _, args := range malformed {
		res := r.Execute(context.Background(), models.FunctionCall{Name: "update_product", Args: args})
		assert.Equal(t, models.ToolStatusInvalid, res.Status)
		assert.Contains(t, res.Output, "Error:")
	}

	res := r.Execute(context.Background(), models.FunctionCall{Name: "delete_everything", Args: map[string]interface{}{}})
	assert.Equal(t, models.ToolStatusInvalid, res.Status)
	assert.True(t, IsNotFound(res.Err))

	assert.Equal(t, 0, h.calls)
}

func TestExecute_Success(t *testing.T) {
	h := &countingHandler{out: `{"id":7}`}
	r := New().MustRegister(updateDecl(h))

	res := r.Execute(context.Background(), models.FunctionCall{
		Name: "update_product",
		Args: map[string]interface{}{"id": float64(7), "total": float64(3)},
	})
	require.NoError(t, res.Err)
	assert.Equal(t, models.ToolStatusOK, res.Status)
	assert.Equal(t, `{"id":7}`, res.Output)
	assert.Equal(t, 1, h.calls)
	assert.Equal(t, int64(3), h.last["total"])
}

func TestExecute_HandlerErrorBecomesText(t *testing.T) {
	h := &countingHandler{err: errors.New("db down")}
	r := New().MustRegister(updateDecl(h))

	res := r.Execute(context.Background(), models.FunctionCall{Name: "update_product", Args: map[string]interface{}{"id": float64(1)}})
	assert.Equal(t, models.ToolStatusFailed, res.Status)
	assert.Equal(t, "Error: db down", res.Output)
	assert.Equal(t, 1, h.calls)
}

func TestExecute_Timeout(t *testing.T) {
	slow := models.FunctionDeclaration{
		Name: "slow",
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	r := New().MustRegister(slow)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	res := r.Execute(ctx, models.FunctionCall{Name: "slow", Args: map[string]interface{}{}})
	assert.Equal(t, models.ToolStatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Contains(t, res.Output, "timed out")
}

func TestDeclarations_RegistrationOrder(t *testing.T) {
	h := &countingHandler{}
	r := New()
	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, r.Register(models.FunctionDeclaration{Name: name, Handler: h.handle}))
	}
	var names []string
	for _, d := range r.Declarations() {
		names = append(names, d.Name)
		assert.Equal(t, "object", d.Parameters.Type)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}
