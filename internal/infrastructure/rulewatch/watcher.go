// Package rulewatch recarrega a tabela de direitos quando o ficheiro muda em disco.
package rulewatch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Victor-armando18/service-clearance/internal/interfaces"
	"github.com/Victor-armando18/service-clearance/pkg/tariff"
)

const DefaultDebounce = 250 * time.Millisecond

// Target receives every table that loads cleanly.
type Target interface {
	Replace(rules tariff.RuleSet)
}

// Watcher watches the directory holding the table, since editors often replace
// the file instead of writing it in place.
type Watcher struct {
	loader   interfaces.RuleTableLoader
	dir      string
	table    string
	target   Target
	logger   *zap.Logger
	debounce time.Duration
	fs       *fsnotify.Watcher
}

func New(loader interfaces.RuleTableLoader, dir, table string, target Target, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, err
	}
	return &Watcher{
		loader:   loader,
		dir:      dir,
		table:    table,
		target:   target,
		logger:   logger,
		debounce: DefaultDebounce,
		fs:       fs,
	}, nil
}

// Run blocks until ctx is done. A table that fails to load is logged and the
// previous one stays active.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	target := filepath.Clean(filepath.Join(w.dir, w.table))
	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("rule watcher error", zap.Error(err))

		case <-pending:
			pending = nil
			w.reload(ctx)
		}
	}
}

// Close releases the watch. Safe to call after Run returned.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) reload(ctx context.Context) {
	rules, err := w.loader.LoadRuleTable(ctx, w.table)
	if err != nil {
		w.logger.Warn("duty rules reload rejected", zap.String("table", w.table), zap.Error(err))
		return
	}
	w.target.Replace(rules)
	w.logger.Info("duty rules reloaded", zap.String("table", w.table), zap.Int("rules", rules.Len()))
}
