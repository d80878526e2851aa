package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopwala/shopwala-golang/internal/models"
)

func TestCategorySlugs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.category(t, "Mobile Phones", nil)
	second := env.category(t, "Mobile Phones", nil)
	third := env.category(t, "Mobile  phones!", nil)
	assert.Equal(t, "mobile-phones", first.Slug)
	assert.Equal(t, "mobile-phones-1", second.Slug)
	assert.Equal(t, "mobile-phones-2", third.Slug)

	got, err := env.categories.GetBySlug(ctx, "mobile-phones-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	// Renaming keeps slugs unique but lets a category keep its own.
	renamed, err := env.categories.Update(ctx, third.ID, CategoryInput{Name: "Tablets", Status: statusPtr(models.StatusActive)})
	require.NoError(t, err)
	assert.Equal(t, "tablets", renamed.Slug)
	same, err := env.categories.Update(ctx, renamed.ID, CategoryInput{Name: "Tablets", Status: statusPtr(models.StatusActive)})
	require.NoError(t, err)
	assert.Equal(t, "tablets", same.Slug)

	_, err = env.categories.GetBySlug(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.categories.Create(ctx, CategoryInput{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCategoryParents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	electronics := env.category(t, "Electronics", nil)
	phones := env.category(t, "Phones", &electronics.ID)
	smart := env.category(t, "Smartphones", &phones.ID)

	missing := int64(9999)
	_, err := env.categories.Create(ctx, CategoryInput{Name: "Orphan", ParentID: &missing})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.categories.Update(ctx, electronics.ID, CategoryInput{Name: "Electronics", ParentID: &smart.ID, Status: statusPtr(models.StatusActive)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	ids, err := env.categories.SubtreeIDs(ctx, electronics.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{electronics.ID, phones.ID, smart.ID}, ids)

	roots, err := env.categories.ListRoots(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	children, err := env.categories.ListChildren(ctx, electronics.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "Phones", children[0].Name)
}

func TestCategoryTreeIsCachedAndInvalidated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	electronics := env.category(t, "Electronics", nil)
	phones := env.category(t, "Phones", &electronics.ID)
	env.category(t, "Smartphones", &phones.ID)
	hidden := env.category(t, "Hidden", nil)
	_, err := env.categories.Update(ctx, hidden.ID, CategoryInput{Name: "Hidden", Status: statusPtr(models.StatusInactive)})
	require.NoError(t, err)

	tree, err := env.categories.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	require.Len(t, tree[0].Children[0].Children, 1)
	assert.Equal(t, "Smartphones", tree[0].Children[0].Children[0].Name)

	var cached []models.Category
	ok, err := env.cache.Get(ctx, categoryTreeKey, &cached)
	require.NoError(t, err)
	assert.True(t, ok)

	env.category(t, "Books", nil)
	ok, err = env.cache.Get(ctx, categoryTreeKey, &cached)
	require.NoError(t, err)
	assert.False(t, ok)

	tree, err = env.categories.Tree(ctx)
	require.NoError(t, err)
	assert.Len(t, tree, 2)
}

func TestCategoryDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	electronics := env.category(t, "Electronics", nil)
	phones := env.category(t, "Phones", &electronics.ID)
	p := env.product(t, "Phone", "PH-1", phones.ID, "10", 1)

	assert.ErrorIs(t, env.categories.Delete(ctx, electronics.ID), ErrInUse)
	assert.ErrorIs(t, env.categories.Delete(ctx, phones.ID), ErrInUse)

	require.NoError(t, env.products.Delete(ctx, p.ID))
	require.NoError(t, env.categories.Delete(ctx, phones.ID))
	require.NoError(t, env.categories.Delete(ctx, electronics.ID))
	assert.ErrorIs(t, env.categories.Delete(ctx, electronics.ID), ErrNotFound)
}

func TestCategoryAttributes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	phones := env.category(t, "Phones", nil)
	attr := models.ProductAttribute{Name: "Storage", FieldType: models.FieldDropdown, IsRequired: true,
		Options: []models.AttributeOption{{Value: "64GB"}, {Value: "128GB"}}}
	require.NoError(t, env.db.Create(&attr).Error)
	require.NoError(t, env.db.Create(&models.CategoryAttribute{CategoryID: phones.ID, AttributeID: attr.ID}).Error)

	attrs, err := env.categories.Attributes(ctx, phones.ID)
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, "Storage", attrs[0].Name)
	assert.Len(t, attrs[0].Options, 2)

	full, err := env.categories.GetByID(ctx, phones.ID)
	require.NoError(t, err)
	assert.Len(t, full.Attributes, 1)

	_, err = env.categories.Attributes(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
