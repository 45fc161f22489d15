package engine

import "fmt"

type Guard struct {
	ID      string
	Logic   map[string]any
	Message string
}

type GuardPack struct {
	Version string
	Guards  []Guard
}

type EngineContext struct {
	State      map[string]any
	Phase      PipelinePhase
	Reasons    []Reason
	Violations []Violation
}

type Engine struct {
	Guards []Guard
}

// Run evaluates every guard. A guard that cannot be evaluated is skipped and
// noted in the reasons; it never blocks the intake on its own.
func (e *Engine) Run(ctx *EngineContext, ge GuardExecutor) {
	ctx.Phase = Guards
	for _, g := range e.Guards {
		if err := ge.Execute(g, ctx); err != nil {
			ctx.Reasons = append(ctx.Reasons, Reason{
				RuleID: g.ID,
				Phase:  ctx.Phase,
				Why:    fmt.Sprintf("skipped: %v", err),
			})
		}
	}
}
