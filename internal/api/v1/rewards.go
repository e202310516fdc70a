package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/dopalist/internal/domain"
	"github.com/gosuda/dopalist/internal/reward"
)

type ListRewardsOutput struct {
	Body []domain.Reward
}

type RewardOutput struct {
	Body domain.Reward
}

type CreateRewardInput struct {
	Body struct {
		Text   string `json:"text" minLength:"1" maxLength:"200" doc:"Reward text"`
		Type   string `json:"type" enum:"small,super" doc:"Reward type"`
		Weight *int   `json:"weight,omitempty" doc:"Relative weight, clamped to at least 1; defaults by type"`
	}
}

type UpdateRewardInput struct {
	ID   string `path:"id" doc:"Reward ID"`
	Body struct {
		Text   *string `json:"text,omitempty" maxLength:"200" doc:"Reward text"`
		Type   *string `json:"type,omitempty" enum:"small,super" doc:"Reward type"`
		Weight *int    `json:"weight,omitempty" doc:"Relative weight, clamped to at least 1"`
	}
}

type RewardIDInput struct {
	ID string `path:"id" doc:"Reward ID"`
}

type RewardSummaryOutput struct {
	Body reward.Summary
}

type DrawRewardOutput struct {
	Body domain.RewardResult
}

func RegisterRewardRoutes(api huma.API, d Deps) {
	huma.Register(api, huma.Operation{
		OperationID: "list-rewards",
		Method:      http.MethodGet,
		Path:        "/rewards",
		Summary:     "List the reward catalog",
		Tags:        []string{"Rewards"},
	}, func(_ context.Context, _ *struct{}) (*ListRewardsOutput, error) {
		return &ListRewardsOutput{Body: d.Rewards.List()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reward-summary",
		Method:      http.MethodGet,
		Path:        "/rewards/summary",
		Summary:     "Weight split between small and super rewards",
		Tags:        []string{"Rewards"},
	}, func(_ context.Context, _ *struct{}) (*RewardSummaryOutput, error) {
		return &RewardSummaryOutput{Body: d.Rewards.Summary()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "draw-reward",
		Method:      http.MethodPost,
		Path:        "/rewards/draw",
		Summary:     "Draw a reward without completing a task",
		Tags:        []string{"Rewards"},
	}, func(ctx context.Context, _ *struct{}) (*DrawRewardOutput, error) {
		return &DrawRewardOutput{Body: d.Rewards.Trigger(ctx)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-reward",
		Method:        http.MethodPost,
		Path:          "/rewards",
		Summary:       "Add a reward",
		Tags:          []string{"Rewards"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateRewardInput) (*RewardOutput, error) {
		typ := domain.RewardType(input.Body.Type)
		weight := typ.DefaultWeight()
		if input.Body.Weight != nil {
			weight = *input.Body.Weight
		}

		r, err := d.Rewards.Add(ctx, input.Body.Text, typ, weight)
		if err != nil {
			return nil, apiError(err, "reward", "create reward")
		}
		return &RewardOutput{Body: r}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-reward",
		Method:      http.MethodPatch,
		Path:        "/rewards/{id}",
		Summary:     "Change a reward's text, type or weight",
		Tags:        []string{"Rewards"},
	}, func(ctx context.Context, input *UpdateRewardInput) (*RewardOutput, error) {
		p := reward.Patch{Text: input.Body.Text, Weight: input.Body.Weight}
		if input.Body.Type != nil {
			typ := domain.RewardType(*input.Body.Type)
			p.Type = &typ
		}

		r, err := d.Rewards.Update(ctx, input.ID, p)
		if err != nil {
			return nil, apiError(err, "reward", "update reward")
		}
		return &RewardOutput{Body: r}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-reward",
		Method:      http.MethodDelete,
		Path:        "/rewards/{id}",
		Summary:     "Remove a reward from the catalog",
		Tags:        []string{"Rewards"},
	}, func(ctx context.Context, input *RewardIDInput) (*struct{}, error) {
		if err := d.Rewards.Delete(ctx, input.ID); err != nil {
			return nil, apiError(err, "reward", "delete reward")
		}
		return nil, nil
	})
}
