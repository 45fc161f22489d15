package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/Victor-armando18/service-clearance/internal/domain"
	"github.com/Victor-armando18/service-clearance/internal/infrastructure/yaml"
	"github.com/Victor-armando18/service-clearance/pkg/tariff"
)

// FileRuleLoader reads duty tables and guard packs from disk. JSON sources may
// carry comments and trailing commas.
type FileRuleLoader struct {
	BasePath string
}

func NewFileRuleLoader(basePath string) *FileRuleLoader {
	return &FileRuleLoader{BasePath: basePath}
}

// LoadRuleTable loads and normalizes a duty table. A relative path is resolved
// against BasePath. Only a missing or malformed source is an error.
func (l *FileRuleLoader) LoadRuleTable(ctx context.Context, source string) (tariff.RuleSet, error) {
	if err := ctx.Err(); err != nil {
		return tariff.RuleSet{}, err
	}
	path := l.resolve(source)

	var (
		rules []tariff.Rule
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		rules, err = yaml.LoadRules(path)
	default:
		err = decodeJSONFile(path, &rules)
	}
	if err != nil {
		return tariff.RuleSet{}, domain.ConfigError("rules.load", path, err)
	}
	// Uma tabela vazia é válida: nenhuma regra casa e as taxas ficam (0,0).
	return tariff.NewRuleSet(rules), nil
}

// Load reads the guard pack <version>_guards.{json,yaml}.
func (l *FileRuleLoader) Load(ctx context.Context, version string) (*domain.GuardPackDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}

	base := filepath.Join(l.BasePath, fmt.Sprintf("%s_guards", version))
	if _, err := os.Stat(base + ".yaml"); err == nil {
		pack, err := yaml.LoadGuardPack(base + ".yaml")
		if err != nil {
			return nil, domain.ConfigError("guards.load", base+".yaml", err)
		}
		return pack, nil
	}

	var pack domain.GuardPackDefinition
	if err := decodeJSONFile(base+".json", &pack); err != nil {
		return nil, domain.ConfigError("guards.load", base+".json", err)
	}
	return &pack, nil
}

func (l *FileRuleLoader) resolve(source string) string {
	if filepath.IsAbs(source) || l.BasePath == "" {
		return source
	}
	return filepath.Join(l.BasePath, source)
}

func decodeJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(std, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filepath.Base(path), err)
	}
	return nil
}
