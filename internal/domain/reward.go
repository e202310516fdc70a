package domain

type RewardType string

const (
	RewardSmall RewardType = "small"
	RewardSuper RewardType = "super"
)

// Valid reports whether t is small or super.
func (t RewardType) Valid() bool {
	return t == RewardSmall || t == RewardSuper
}

// DefaultWeight is the weight assumed for entries persisted before weights existed.
func (t RewardType) DefaultWeight() int {
	if t == RewardSuper {
		return 3
	}
	return 10
}

// MinRewardWeight is the lower bound every stored weight is clamped to.
const MinRewardWeight = 1

// ClampWeight raises w to MinRewardWeight.
func ClampWeight(w int) int {
	if w < MinRewardWeight {
		return MinRewardWeight
	}
	return w
}

type Reward struct {
	ID     string     `json:"id" yaml:"id"`
	Text   string     `json:"text" yaml:"text"`
	Type   RewardType `json:"type" yaml:"type"`
	Weight int        `json:"weight" yaml:"weight"`
}

type ResultType string

const (
	ResultSmall  ResultType = "small"
	ResultSuper  ResultType = "super"
	ResultNormal ResultType = "normal"
)

// RewardResult is produced once per completion and never persisted.
type RewardResult struct {
	Type   ResultType `json:"type"`
	Reward *Reward    `json:"reward,omitempty"`
}
