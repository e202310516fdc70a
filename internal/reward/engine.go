// Package reward implements weighted random reward selection and the
// editable reward catalog behind it.
package reward

import (
	"github.com/gosuda/dopalist/internal/domain"
)

// Source yields uniform floats in [0, 1). *math/rand/v2.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Draw picks one entry of catalog with probability weight/W, where W is the
// total weight. Catalog order decides which entry owns each segment of
// [0, W). An empty catalog or W == 0 yields a normal result.
func Draw(catalog []domain.Reward, src Source) domain.RewardResult {
	prefix := make([]int, len(catalog))
	total := 0
	for i, r := range catalog {
		if r.Weight > 0 {
			total += r.Weight
		}
		prefix[i] = total
	}

	if len(catalog) == 0 || total == 0 {
		return domain.RewardResult{Type: domain.ResultNormal}
	}

	roll := src.Float64() * float64(total)
	for i := range catalog {
		if catalog[i].Weight <= 0 {
			continue
		}
		if float64(prefix[i]) >= roll {
			picked := catalog[i]
			return domain.RewardResult{Type: domain.ResultType(picked.Type), Reward: &picked}
		}
	}

	return domain.RewardResult{Type: domain.ResultNormal}
}
