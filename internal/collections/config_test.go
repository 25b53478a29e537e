package collections

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "collections.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	r, err := Load("/nonexistent/path/that/does/not/exist.yml")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "skincare", r.Table(Products))
	assert.Equal(t, "skincare_views", r.Table(Views))
	assert.Equal(t, []string{Products, Views}, r.Names())
}

func TestLoadOverridesTable(t *testing.T) {
	path := writeFile(t, `
collections:
  - name: products
    table: shelf_products
    description: Renamed products table
`)

	r, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "shelf_products", r.Table(Products))
	assert.Equal(t, "skincare_views", r.Table(Views), "unlisted collections keep defaults")

	c, ok := r.Get(Products)
	require.True(t, ok)
	assert.Equal(t, "Renamed products table", c.Description)

	col, ok := c.Column("userId")
	require.True(t, ok)
	assert.Equal(t, "user_id", col)
}

func TestLoadCustomFilters(t *testing.T) {
	path := writeFile(t, `
collections:
  - name: views
    filters:
      userId: owner
`)

	r, err := Load(path)
	require.NoError(t, err)

	c, ok := r.Get(Views)
	require.True(t, ok)
	assert.Equal(t, "skincare_views", c.Table)

	col, ok := c.Column("userId")
	require.True(t, ok)
	assert.Equal(t, "owner", col)

	_, ok = c.Column("productName")
	assert.False(t, ok)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad yaml", content: ":\tinvalid:\tyaml:\t[unclosed"},
		{name: "missing name", content: "collections:\n  - table: x\n"},
		{name: "unknown collection without table", content: "collections:\n  - name: reviews\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Load(writeFile(t, tt.content))
			assert.Error(t, err)
			assert.Nil(t, r)
		})
	}
}

func TestAllPreservesOrder(t *testing.T) {
	path := writeFile(t, `
collections:
  - name: reviews
    table: skincare_reviews
`)

	r, err := Load(path)
	require.NoError(t, err)

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, Products, all[0].Name)
	assert.Equal(t, Views, all[1].Name)
	assert.Equal(t, "reviews", all[2].Name)
	assert.Equal(t, []string{Products, "reviews", Views}, r.Names())
}

func TestColumnUnknown(t *testing.T) {
	r := Defaults()
	c, _ := r.Get(Products)

	_, ok := c.Column("price")
	assert.False(t, ok)

	var missing *Collection
	_, ok = missing.Column("userId")
	assert.False(t, ok)

	assert.Equal(t, "other", r.Table("other"))
}
