package rulewatch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Victor-armando18/service-clearance/internal/infrastructure"
	"github.com/Victor-armando18/service-clearance/pkg/tariff"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingTarget struct {
	mu    sync.Mutex
	loads []tariff.RuleSet
}

func (r *recordingTarget) Replace(rules tariff.RuleSet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads = append(r.loads, rules)
}

func (r *recordingTarget) last() (tariff.RuleSet, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.loads) == 0 {
		return tariff.RuleSet{}, 0
	}
	return r.loads[len(r.loads)-1], len(r.loads)
}

func writeTable(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func startWatcher(t *testing.T, dir string, target Target) (context.CancelFunc, <-chan error) {
	t.Helper()
	w, err := New(infrastructure.NewFileRuleLoader(dir), dir, "duty.json", target, nil)
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	return cancel, done
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "duty.json")
	writeTable(t, path, `[{"country":"USA","hs":["84"],"duty":"2","gstRule":"18"}]`)

	target := &recordingTarget{}
	cancel, done := startWatcher(t, dir, target)

	writeTable(t, path, `[
		{"country":"USA","hs":["84"],"duty":"2","gstRule":"18"},
		{"country":"UK","hs":["6109"],"duty":"12","gstRule":"20"},
	]`)

	require.Eventually(t, func() bool {
		rules, _ := target.last()
		return rules.Len() == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestWatcher_KeepsTableOnBadReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "duty.json")
	writeTable(t, path, `[{"country":"USA","hs":["84"],"duty":"2","gstRule":"18"}]`)

	target := &recordingTarget{}
	cancel, done := startWatcher(t, dir, target)

	// Outros ficheiros do diretório são ignorados.
	writeTable(t, filepath.Join(dir, "notes.txt"), "x")
	writeTable(t, path, `[`)
	time.Sleep(150 * time.Millisecond)

	_, n := target.last()
	assert.Zero(t, n)

	cancel()
	assert.NoError(t, <-done)
}

func TestNew_MissingDir(t *testing.T) {
	_, err := New(infrastructure.NewFileRuleLoader("."), filepath.Join(t.TempDir(), "nope"), "duty.json", &recordingTarget{}, nil)
	assert.Error(t, err)
}
