package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ilkoid/vitrina-ai/pkg/catalog"
)

func TestMissingImageKeys(t *testing.T) {
	products := []catalog.Product{
		{ID: "p-001", ImageKey: "products/p-001.jpg"},
		{ID: "p-002", ImageKey: "products/p-002.jpg"},
		{ID: "p-003"}, // товар без изображения не считается пропажей
	}

	t.Run("all present", func(t *testing.T) {
		missing := missingImageKeys(products, []string{
			"products/p-001.jpg",
			"products/p-002.jpg",
			"products/unrelated.jpg",
		})
		assert.Empty(t, missing)
	})

	t.Run("one missing", func(t *testing.T) {
		missing := missingImageKeys(products, []string{"products/p-001.jpg"})
		assert.Equal(t, []string{"products/p-002.jpg"}, missing)
	})

	t.Run("empty bucket", func(t *testing.T) {
		missing := missingImageKeys(products, nil)
		assert.Len(t, missing, 2)
	})
}
