package runengine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Victor-armando18/service-clearance/internal/domain"
	"github.com/Victor-armando18/service-clearance/internal/domain/engine"
	"github.com/Victor-armando18/service-clearance/internal/domain/model"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure/jsonlogic"
)

func pack() *domain.GuardPackDefinition {
	return &domain.GuardPackDefinition{
		Version: "v1",
		Rules: []domain.GuardConfig{
			{ID: "value-positive", Phase: "guards", Logic: map[string]any{"<=": []any{map[string]any{"var": "product.declaredValue"}, 0}}, ErrorMessage: "declared value must be positive"},
			{ID: "country", Logic: map[string]any{"==": []any{map[string]any{"var": "receiver.country"}, ""}}},
			{ID: "ignored", Phase: "totals", Logic: map[string]any{"==": []any{1, 1}}},
		},
	}
}

func TestRun_ReportsViolations(t *testing.T) {
	uc := &UseCase{GuardExecutor: jsonlogic.NewGuardExecutor()}

	res, err := uc.Run(context.Background(), model.Intake{}, pack())
	require.NoError(t, err)
	assert.True(t, res.Blocked())
	assert.Equal(t, "v1", res.RulesVersion)

	var ids []string
	for _, v := range res.Violations {
		ids = append(ids, v.RuleID)
	}
	assert.Equal(t, []string{"value-positive", "country"}, ids)
	assert.Equal(t, "declared value must be positive", res.Violations[0].Message)

	assert.Empty(t, res.Reasons)
}

type failingExecutor struct{ failID string }

func (f failingExecutor) Execute(g engine.Guard, ctx *engine.EngineContext) error {
	if g.ID == f.failID {
		return errors.New("boom")
	}
	return nil
}

func TestRun_SkipsGuardsThatFail(t *testing.T) {
	uc := &UseCase{GuardExecutor: failingExecutor{failID: "country"}}
	res, err := uc.Run(context.Background(), model.Intake{}, pack())
	require.NoError(t, err)
	assert.False(t, res.Blocked())
	require.Len(t, res.Reasons, 1)
	assert.Equal(t, "country", res.Reasons[0].RuleID)
	assert.Contains(t, res.Reasons[0].Why, "boom")
}

func TestRun_CleanIntake(t *testing.T) {
	uc := &UseCase{GuardExecutor: jsonlogic.NewGuardExecutor()}
	in := model.Intake{
		Receiver: domain.Party{Country: "USA"},
		Product:  domain.Product{DeclaredValue: 1200},
	}
	res, err := uc.Run(context.Background(), in, pack())
	require.NoError(t, err)
	assert.False(t, res.Blocked())
}

func TestRun_NilPack(t *testing.T) {
	uc := &UseCase{GuardExecutor: jsonlogic.NewGuardExecutor()}
	_, err := uc.Run(context.Background(), model.Intake{}, nil)
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestCompile(t *testing.T) {
	p := Compile(pack())
	assert.Len(t, p.Guards, 2)
}
