// Package category owns the category catalog. Categories are referenced by id
// from root tasks; deleting one never touches the tasks that point at it.
package category

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/dopalist/internal/domain"
)

// Presets is the palette offered when creating a category.
var Presets = []string{
	"hsl(var(--primary))",
	"hsl(142, 76%, 36%)",
	"hsl(24, 95%, 53%)",
	"hsl(262, 83%, 58%)",
	"hsl(0, 84%, 60%)",
	"hsl(189, 85%, 46%)",
}

const (
	uncategorizedName = "Uncategorized"
	unknownName       = "Unknown category"
	fallbackColor     = "hsl(var(--muted-foreground))"
)

// Gateway is the slice of the persistence gateway the service needs.
// *persist.Gateway satisfies it.
type Gateway interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	SaveCategories(ctx context.Context, categories []domain.Category) error
}

type Service struct {
	mu         sync.Mutex
	gw         Gateway
	categories []domain.Category
	now        func() time.Time
	newID      func() string
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the UUIDv7 id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// New loads the catalog once. A failed read is logged and the session starts
// with an empty catalog.
func New(ctx context.Context, gw Gateway, opts ...Option) *Service {
	s := &Service{
		gw:    gw,
		now:   time.Now,
		newID: func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, opt := range opts {
		opt(s)
	}

	categories, err := gw.Categories(ctx)
	if err != nil {
		log.Error().Err(err).Str("collection", string(domain.CollectionCategories)).Msg("load categories")
		categories = []domain.Category{}
	}
	s.categories = categories

	return s
}

func (s *Service) List() []domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// Lookup returns the category with id.
func (s *Service) Lookup(id string) (domain.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		return s.categories[i], true
	}
	return domain.Category{}, false
}

// Info is the display name and color for a category reference.
type Info struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Known bool   `json:"known"`
}

// Info resolves id for display. An empty id or domain.CategoryUncategorized yields the
// "Uncategorized" entry; an id that no longer exists yields "Unknown category".
func (s *Service) Info(id string) Info {
	id = strings.TrimSpace(id)
	if id == "" || id == domain.CategoryUncategorized {
		return Info{Name: uncategorizedName, Color: fallbackColor}
	}
	c, ok := s.Lookup(id)
	if !ok {
		return Info{Name: unknownName, Color: fallbackColor}
	}
	return Info{Name: c.Name, Color: c.Color, Known: true}
}

func (s *Service) Add(ctx context.Context, name, color string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, fmt.Errorf("category.Service.Add: empty name: %w", domain.ErrValidation)
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = Presets[0]
	}

	c := domain.Category{
		ID:        s.newID(),
		Name:      name,
		Color:     color,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.Category, len(s.categories), len(s.categories)+1)
	copy(next, s.categories)
	next = append(next, c)
	s.commit(ctx, next)

	return c, nil
}

// Update renames and/or recolors a category. Empty arguments keep the
// current value.
func (s *Service) Update(ctx context.Context, id, name, color string) (domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Category{}, fmt.Errorf("category.Service.Update %q: %w", id, domain.ErrNotFound)
	}

	next := make([]domain.Category, len(s.categories))
	copy(next, s.categories)
	if n := strings.TrimSpace(name); n != "" {
		next[i].Name = n
	}
	if c := strings.TrimSpace(color); c != "" {
		next[i].Color = c
	}
	s.commit(ctx, next)

	return next[i], nil
}

// Delete removes a category. Tasks that reference it are left as they are.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("category.Service.Delete %q: %w", id, domain.ErrNotFound)
	}

	next := make([]domain.Category, 0, len(s.categories)-1)
	next = append(next, s.categories[:i]...)
	next = append(next, s.categories[i+1:]...)
	s.commit(ctx, next)

	return nil
}

func (s *Service) indexOf(id string) int {
	for i := range s.categories {
		if s.categories[i].ID == id {
			return i
		}
	}
	return -1
}

// commit swaps in next and writes it through. Caller holds s.mu.
func (s *Service) commit(ctx context.Context, next []domain.Category) {
	s.categories = next
	if err := s.gw.SaveCategories(ctx, next); err != nil {
		log.Error().Err(err).Str("collection", string(domain.CollectionCategories)).Msg("persist categories")
	}
}
