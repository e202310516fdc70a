package reward

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gosuda/dopalist/internal/domain"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type catalogFile struct {
	Rewards []domain.Reward `yaml:"rewards"`
}

// DefaultCatalog returns the built-in seed catalog.
func DefaultCatalog() ([]domain.Reward, error) {
	return parseCatalog(defaultsYAML)
}

// LoadCatalogFile reads a seed catalog from a YAML file with the same shape
// as the built-in one.
func LoadCatalogFile(path string) ([]domain.Reward, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reward.LoadCatalogFile: %w", err)
	}
	rewards, err := parseCatalog(b)
	if err != nil {
		return nil, fmt.Errorf("reward.LoadCatalogFile %s: %w", path, err)
	}
	return rewards, nil
}

func parseCatalog(b []byte) ([]domain.Reward, error) {
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	seen := make(map[string]bool, len(f.Rewards))
	out := make([]domain.Reward, 0, len(f.Rewards))
	for i, r := range f.Rewards {
		r.ID = strings.TrimSpace(r.ID)
		r.Text = strings.TrimSpace(r.Text)
		switch {
		case r.ID == "":
			return nil, fmt.Errorf("reward #%d: missing id: %w", i+1, domain.ErrValidation)
		case seen[r.ID]:
			return nil, fmt.Errorf("reward %q: duplicate id: %w", r.ID, domain.ErrValidation)
		case r.Text == "":
			return nil, fmt.Errorf("reward %q: missing text: %w", r.ID, domain.ErrValidation)
		case !r.Type.Valid():
			return nil, fmt.Errorf("reward %q: unknown type %q: %w", r.ID, r.Type, domain.ErrValidation)
		}
		seen[r.ID] = true
		r.Weight = domain.ClampWeight(r.Weight)
		out = append(out, r)
	}
	return out, nil
}
