package jsonlogic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/diegoholiveira/jsonlogic/v3"

	"github.com/Victor-armando18/service-clearance/internal/domain"
	"github.com/Victor-armando18/service-clearance/internal/domain/engine"
)

type Executor struct {
	customOps map[string]func(args ...any) any
}

// NewExecutor returns an executor with the round and hs_digits operators.
func NewExecutor() *Executor {
	e := &Executor{customOps: make(map[string]func(args ...any) any)}
	e.RegisterCustomOperator("round", Round)
	e.RegisterCustomOperator("hs_digits", HSDigits)
	return e
}

func (e *Executor) RegisterCustomOperator(name string, logic func(args ...any) any) {
	e.customOps[name] = logic
}

// Execute evaluates rule against data. Custom operators are resolved first and
// replaced by their values, the rest goes to the standard JsonLogic evaluator.
func (e *Executor) Execute(ctx context.Context, rule map[string]any, data map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	expanded, err := e.expand(ctx, rule, data)
	if err != nil {
		return nil, err
	}

	ruleJSON, err := json.Marshal(expanded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRuleExecutionFailed, err)
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRuleExecutionFailed, err)
	}

	var result bytes.Buffer
	if err := jsonlogic.Apply(bytes.NewReader(ruleJSON), bytes.NewReader(dataJSON), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRuleExecutionFailed, err)
	}

	out := strings.TrimSpace(result.String())
	if out == "" || out == "null" {
		return nil, nil
	}
	var res any
	dec := json.NewDecoder(strings.NewReader(out))
	dec.UseNumber()
	if err := dec.Decode(&res); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRuleExecutionFailed, err)
	}
	return finalizeValue(res), nil
}

func (e *Executor) expand(ctx context.Context, node any, data map[string]any) (any, error) {
	switch v := node.(type) {
	case map[string]any:
		if len(v) == 1 {
			for op, args := range v {
				if fn, ok := e.customOps[op]; ok {
					params, err := e.params(ctx, args, data)
					if err != nil {
						return nil, err
					}
					return fn(params...), nil
				}
			}
		}
		out := make(map[string]any, len(v))
		for k, child := range v {
			x, err := e.expand(ctx, child, data)
			if err != nil {
				return nil, err
			}
			out[k] = x
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			x, err := e.expand(ctx, child, data)
			if err != nil {
				return nil, err
			}
			out[i] = x
		}
		return out, nil
	default:
		return node, nil
	}
}

// params evaluates the arguments of a custom operator.
func (e *Executor) params(ctx context.Context, args any, data map[string]any) ([]any, error) {
	list, ok := args.([]any)
	if !ok {
		list = []any{args}
	}
	params := make([]any, 0, len(list))
	for _, item := range list {
		sub, isRule := item.(map[string]any)
		if !isRule {
			params = append(params, item)
			continue
		}
		if path, ok := sub["var"].(string); ok && len(sub) == 1 {
			params = append(params, resolveVar(path, data))
			continue
		}
		res, err := e.Execute(ctx, sub, data)
		if err != nil {
			return nil, err
		}
		params = append(params, res)
	}
	return params, nil
}

func resolveVar(path string, data map[string]any) any {
	var current any = data
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return finalizeValue(current)
}

func finalizeValue(val any) any {
	if n, ok := val.(json.Number); ok {
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return val
}

// GuardExecutor trips a guard when its logic evaluates truthy.
type GuardExecutor struct {
	Executor *Executor
}

func NewGuardExecutor() *GuardExecutor {
	return &GuardExecutor{Executor: NewExecutor()}
}

func (g *GuardExecutor) Execute(guard engine.Guard, ctx *engine.EngineContext) error {
	out, err := g.Executor.Execute(context.Background(), guard.Logic, ctx.State)
	if err != nil {
		return err
	}
	if truthy(out) {
		msg := guard.Message
		if msg == "" {
			msg = "Restrictive condition reached"
		}
		ctx.Violations = append(ctx.Violations, engine.Violation{RuleID: guard.ID, Message: msg})
	}
	return nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	default:
		return true
	}
}
