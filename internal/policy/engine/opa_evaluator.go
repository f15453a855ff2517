package engine

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
	"go.uber.org/zap"

	"sleeptracker/backend/internal/logger"
)

const policyQuery = "data.sleeptracker.sleeplog"

// DefaultRegoPolicy mirrors the operator settings one-to-one. Replace it with SLEEP_POLICY_FILE to
// apply rules per user or per operation.
const DefaultRegoPolicy = `package sleeptracker.sleeplog

default one_per_day := false

default updates_use_create_window := false

one_per_day if {
	input.settings.one_per_day
}

updates_use_create_window if {
	input.operation == "update"
	input.settings.updates_use_create_window
}
`

// OPAEvaluator evaluates sleep log rules using OPA Rego.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
	log   *zap.Logger
}

// NewOPAEvaluator compiles policy (DefaultRegoPolicy when empty) and prepares the rules query.
func NewOPAEvaluator(ctx context.Context, policy string, log *zap.Logger) (*OPAEvaluator, error) {
	if strings.TrimSpace(policy) == "" {
		policy = DefaultRegoPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"sleeplog.rego": policy})
	if err != nil {
		return nil, fmt.Errorf("compile policy: %w", err)
	}
	pq, err := rego.New(
		rego.Query(policyQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare policy: %w", err)
	}
	return &OPAEvaluator{query: pq, log: logger.OrNop(log)}, nil
}

// LoadPolicyFile returns the contents of path, or "" when path is empty.
func LoadPolicyFile(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read policy file: %w", err)
	}
	return string(b), nil
}

// HealthCheck evaluates the prepared policy against a minimal input. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	_, err := e.eval(ctx, Input{Operation: OperationCreate})
	return err
}

// Evaluate returns the rules for in. On evaluation failure it logs and returns the settings defaults
// together with the error.
func (e *OPAEvaluator) Evaluate(ctx context.Context, in Input) (Rules, error) {
	rules, err := e.eval(ctx, in)
	if err != nil {
		e.log.Warn("policy: evaluation failed, using defaults", zap.Error(err))
		return DefaultRules(in.Settings), err
	}
	return rules, nil
}

func (e *OPAEvaluator) eval(ctx context.Context, in Input) (Rules, error) {
	input := map[string]interface{}{
		"user_id":   in.UserID,
		"operation": in.Operation,
		"settings": map[string]interface{}{
			"one_per_day":               in.Settings.OnePerDay,
			"updates_use_create_window": in.Settings.UpdatesUseCreateWindow,
		},
	}
	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Rules{}, fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return Rules{}, fmt.Errorf("policy query returned no result")
	}
	doc, ok := rs[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Rules{}, fmt.Errorf("policy result is %T, want object", rs[0].Expressions[0].Value)
	}
	out := DefaultRules(in.Settings)
	if v, ok := doc["one_per_day"].(bool); ok {
		out.OnePerDay = v
	}
	if v, ok := doc["updates_use_create_window"].(bool); ok {
		out.UpdatesUseCreateWindow = v
	}
	return out, nil
}
