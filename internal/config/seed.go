package config

import (
	"fmt"

	"github.com/zeusync/simstore/internal/core/models"
)

// Resolve maps the seed's names onto model values.
func (s SeedEntity) Resolve() (models.EntityKind, models.Category, error) {
	kind, ok := models.ParseEntityKind(s.Kind)
	if !ok || kind == models.EntityKindNone {
		return 0, 0, fmt.Errorf("%w: kind %q", ErrBadSeed, s.Kind)
	}
	category, ok := models.ParseCategory(s.Category)
	if !ok {
		return 0, 0, fmt.Errorf("%w: category %q", ErrBadSeed, s.Category)
	}
	return kind, category, nil
}

func (s SeedEntity) validate() error {
	_, _, err := s.Resolve()
	return err
}
