package core

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default_categories.yaml
var defaultCategoriesYAML []byte

var (
	defaultsOnce sync.Once
	defaults     []Category
	defaultsErr  error
)

// DefaultCategories returns the built-in category set for an owner that has
// none persisted. The returned slice is a fresh copy tagged with ownerID and
// without ids, so callers may modify it.
func DefaultCategories(ownerID string) ([]Category, error) {
	defaultsOnce.Do(func() {
		if err := yaml.Unmarshal(defaultCategoriesYAML, &defaults); err != nil {
			defaultsErr = fmt.Errorf("failed to parse default categories: %w", err)
		}
	})
	if defaultsErr != nil {
		return nil, defaultsErr
	}

	out := make([]Category, len(defaults))
	for i, c := range defaults {
		c.OwnerID = ownerID
		c.Subcategories = append([]string{}, c.Subcategories...)
		out[i] = c
	}
	return out, nil
}
