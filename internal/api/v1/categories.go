package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/dopalist/internal/category"
	"github.com/gosuda/dopalist/internal/domain"
	"github.com/gosuda/dopalist/internal/view"
)

type ListCategoriesOutput struct {
	Body []domain.Category
}

type CategoryOutput struct {
	Body domain.Category
}

type CreateCategoryInput struct {
	Body struct {
		Name  string `json:"name" minLength:"1" maxLength:"100" doc:"Category name"`
		Color string `json:"color,omitempty" doc:"Display color; defaults to the first preset"`
	}
}

type UpdateCategoryInput struct {
	ID   string `path:"id" doc:"Category ID"`
	Body struct {
		Name  string `json:"name,omitempty" maxLength:"100" doc:"New name"`
		Color string `json:"color,omitempty" doc:"New display color"`
	}
}

type CategoryIDInput struct {
	ID string `path:"id" doc:"Category ID"`
}

type CategoryCountsOutput struct {
	Body view.CategoryCounts
}

type CategoryPresetsOutput struct {
	Body []string
}

func RegisterCategoryRoutes(api huma.API, d Deps) {
	huma.Register(api, huma.Operation{
		OperationID: "list-categories",
		Method:      http.MethodGet,
		Path:        "/categories",
		Summary:     "List categories",
		Tags:        []string{"Categories"},
	}, func(_ context.Context, _ *struct{}) (*ListCategoriesOutput, error) {
		return &ListCategoriesOutput{Body: d.Categories.List()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "category-presets",
		Method:      http.MethodGet,
		Path:        "/categories/presets",
		Summary:     "List the preset category colors",
		Tags:        []string{"Categories"},
	}, func(_ context.Context, _ *struct{}) (*CategoryPresetsOutput, error) {
		return &CategoryPresetsOutput{Body: append([]string(nil), category.Presets...)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "category-counts",
		Method:      http.MethodGet,
		Path:        "/categories/counts",
		Summary:     "Count root tasks per category",
		Tags:        []string{"Categories"},
	}, func(_ context.Context, _ *struct{}) (*CategoryCountsOutput, error) {
		return &CategoryCountsOutput{Body: view.CountByCategory(d.Tasks.Tasks(), d.Categories.List())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-category",
		Method:        http.MethodPost,
		Path:          "/categories",
		Summary:       "Create a category",
		Tags:          []string{"Categories"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateCategoryInput) (*CategoryOutput, error) {
		c, err := d.Categories.Add(ctx, input.Body.Name, input.Body.Color)
		if err != nil {
			return nil, apiError(err, "category", "create category")
		}
		return &CategoryOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-category",
		Method:      http.MethodPut,
		Path:        "/categories/{id}",
		Summary:     "Rename or recolor a category",
		Tags:        []string{"Categories"},
	}, func(ctx context.Context, input *UpdateCategoryInput) (*CategoryOutput, error) {
		c, err := d.Categories.Update(ctx, input.ID, input.Body.Name, input.Body.Color)
		if err != nil {
			return nil, apiError(err, "category", "update category")
		}
		return &CategoryOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-category",
		Method:      http.MethodDelete,
		Path:        "/categories/{id}",
		Summary:     "Delete a category; tasks keep their reference",
		Tags:        []string{"Categories"},
	}, func(ctx context.Context, input *CategoryIDInput) (*struct{}, error) {
		if err := d.Categories.Delete(ctx, input.ID); err != nil {
			return nil, apiError(err, "category", "delete category")
		}
		return nil, nil
	})
}
