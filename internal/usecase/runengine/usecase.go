package runengine

import (
	"context"
	"fmt"

	"github.com/Victor-armando18/service-clearance/internal/domain"
	"github.com/Victor-armando18/service-clearance/internal/domain/engine"
	"github.com/Victor-armando18/service-clearance/internal/domain/model"
)

// UseCase runs an intake guard pack against a submitted shipment.
type UseCase struct {
	GuardExecutor engine.GuardExecutor
}

func (u *UseCase) Run(ctx context.Context, in model.Intake, def *domain.GuardPackDefinition) (engine.Result, error) {
	if err := ctx.Err(); err != nil {
		return engine.Result{}, err
	}
	if def == nil {
		return engine.Result{}, fmt.Errorf("%w: nil guard pack", domain.ErrConfig)
	}
	pack := Compile(def)

	engineCtx := &engine.EngineContext{State: in.ToMap()}
	e := &engine.Engine{Guards: pack.Guards}
	e.Run(engineCtx, u.GuardExecutor)

	return engine.Result{
		Violations:   engineCtx.Violations,
		Reasons:      engineCtx.Reasons,
		RulesVersion: pack.Version,
	}, nil
}

// Compile keeps the rules of the guards phase. Rules without a phase count as guards.
func Compile(def *domain.GuardPackDefinition) engine.GuardPack {
	pack := engine.GuardPack{Version: def.Version}
	for _, r := range def.Rules {
		if r.Phase != "" && engine.PipelinePhase(r.Phase) != engine.Guards {
			continue
		}
		pack.Guards = append(pack.Guards, engine.Guard{ID: r.ID, Logic: r.Logic, Message: r.ErrorMessage})
	}
	return pack
}
