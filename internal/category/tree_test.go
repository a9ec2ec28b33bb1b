package category

import (
	"testing"

	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cat(id, name string, parent string) model.Category {
	c := model.Category{BaseModel: model.BaseModel{ID: id}, Name: name, Slug: id, IsActive: true}
	if parent != "" {
		c.ParentID = &parent
	}
	return c
}

func names(cats []model.Category) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = c.Name
	}
	return out
}

func TestWalkIsPreOrderAndSorted(t *testing.T) {
	tree := NewTree([]model.Category{
		cat("sea", "Deniz Araçları", ""),
		cat("motor", "Motor Teknesi", "sea"),
		cat("sail", "Yelkenli", "sea"),
		cat("gulet", "Gulet", "sail"),
		cat("parts", "Parts", ""),
		cat("engine", "Engine", "parts"),
	})

	var depths []int
	for depth := range tree.Walk() {
		depths = append(depths, depth)
	}
	assert.Equal(t, []string{"Deniz Araçları", "Motor Teknesi", "Yelkenli", "Gulet", "Parts", "Engine"}, names(tree.Nodes()))
	assert.Equal(t, []int{0, 1, 1, 2, 0, 1}, depths)

	// restartable
	assert.Equal(t, names(tree.Nodes()), names(tree.Nodes()))
}

func TestWalkIsLazy(t *testing.T) {
	tree := NewTree([]model.Category{cat("a", "A", ""), cat("b", "B", "a"), cat("c", "C", "b")})

	var seen []string
	for _, c := range tree.Walk() {
		seen = append(seen, c.ID)
		if c.ID == "b" {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestWalkSurvivesCycles(t *testing.T) {
	// x -> y -> x is unreachable from any root.
	tree := NewTree([]model.Category{
		cat("root", "Root", ""),
		cat("x", "X", "y"),
		cat("y", "Y", "x"),
	})
	assert.Equal(t, []string{"Root"}, names(tree.Nodes()))

	sub, ok := tree.Subtree("x")
	require.True(t, ok)
	assert.Equal(t, []string{"X", "Y"}, names(sub.Nodes()))
	assert.Len(t, sub.Nested(), 1)
	assert.Len(t, sub.Nested()[0].Children, 1)
	assert.Empty(t, sub.Nested()[0].Children[0].Children)

	assert.False(t, tree.IsAncestor("root", "x"))
	assert.True(t, tree.IsAncestor("y", "x"))
}

func TestSubtreeAndNested(t *testing.T) {
	tree := NewTree([]model.Category{
		cat("sea", "Sea", ""),
		cat("sail", "Sail", "sea"),
		cat("gulet", "Gulet", "sail"),
	})

	_, ok := tree.Subtree("missing")
	assert.False(t, ok)

	sub, ok := tree.Subtree("sail")
	require.True(t, ok)
	assert.Equal(t, []string{"Sail", "Gulet"}, names(sub.Nodes()))

	nested := tree.Nested()
	require.Len(t, nested, 1)
	assert.Equal(t, "sea", nested[0].ID)
	require.Len(t, nested[0].Children, 1)
	assert.Equal(t, "gulet", nested[0].Children[0].Children[0].ID)
}

func TestIsAncestor(t *testing.T) {
	tree := NewTree([]model.Category{cat("a", "A", ""), cat("b", "B", "a"), cat("c", "C", "b")})

	assert.True(t, tree.IsAncestor("a", "c"))
	assert.True(t, tree.IsAncestor("c", "c"))
	assert.False(t, tree.IsAncestor("c", "a"))
	assert.False(t, tree.IsAncestor("a", "missing"))
}
