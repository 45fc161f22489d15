package yaml

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Victor-armando18/service-clearance/internal/domain"
	"github.com/Victor-armando18/service-clearance/pkg/tariff"
)

// LoadRules lê uma tabela de direitos em YAML: uma lista de regras.
func LoadRules(path string) ([]tariff.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rules []tariff.Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func LoadGuardPack(path string) (*domain.GuardPackDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pack domain.GuardPackDefinition
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, err
	}
	return &pack, nil
}
