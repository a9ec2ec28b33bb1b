package category

import (
	"iter"
	"sort"

	"github.com/fekuna/marine-listing-service/internal/category/dto"
	"github.com/fekuna/marine-listing-service/internal/model"
)

// Tree is an immutable view of the category forest built from parent-indexed adjacency.
// Traversals are lazy, can be ranged over any number of times and visit each category at
// most once even if stored data contains a cycle.
type Tree struct {
	byID     map[string]model.Category
	children map[string][]string
	starts   []string
}

func NewTree(categories []model.Category) *Tree {
	t := &Tree{
		byID:     make(map[string]model.Category, len(categories)),
		children: make(map[string][]string),
	}
	for _, c := range categories {
		c.Children = nil
		t.byID[c.ID] = c
	}
	for _, c := range t.byID {
		if c.ParentID == nil {
			t.starts = append(t.starts, c.ID)
			continue
		}
		if _, ok := t.byID[*c.ParentID]; ok {
			t.children[*c.ParentID] = append(t.children[*c.ParentID], c.ID)
		}
	}
	t.sortIDs(t.starts)
	for _, ids := range t.children {
		t.sortIDs(ids)
	}
	return t
}

// Subtree returns the same tree rooted at id.
func (t *Tree) Subtree(id string) (*Tree, bool) {
	if _, ok := t.byID[id]; !ok {
		return nil, false
	}
	return &Tree{byID: t.byID, children: t.children, starts: []string{id}}, true
}

func (t *Tree) Get(id string) (model.Category, bool) {
	c, ok := t.byID[id]
	return c, ok
}

// Walk yields (depth, category) in depth-first pre-order, siblings ordered by name.
func (t *Tree) Walk() iter.Seq2[int, model.Category] {
	return func(yield func(int, model.Category) bool) {
		type frame struct {
			id    string
			depth int
		}
		visited := make(map[string]struct{}, len(t.byID))
		stack := make([]frame, 0, len(t.starts))
		for i := len(t.starts) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: t.starts[i]})
		}

		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, seen := visited[f.id]; seen {
				continue
			}
			visited[f.id] = struct{}{}

			if !yield(f.depth, t.byID[f.id]) {
				return
			}
			kids := t.children[f.id]
			for i := len(kids) - 1; i >= 0; i-- {
				stack = append(stack, frame{id: kids[i], depth: f.depth + 1})
			}
		}
	}
}

// Nodes collects Walk into a slice.
func (t *Tree) Nodes() []model.Category {
	var out []model.Category
	for _, c := range t.Walk() {
		out = append(out, c)
	}
	return out
}

func (t *Tree) Nested() []dto.TreeNode {
	visited := make(map[string]struct{}, len(t.byID))
	var build func(id string) (dto.TreeNode, bool)
	build = func(id string) (dto.TreeNode, bool) {
		if _, seen := visited[id]; seen {
			return dto.TreeNode{}, false
		}
		visited[id] = struct{}{}
		c := t.byID[id]
		node := dto.TreeNode{
			ID:           c.ID,
			ParentID:     c.ParentID,
			Name:         c.Name,
			Slug:         c.Slug,
			Description:  c.Description,
			IconURL:      c.IconURL,
			ListingCount: c.ListingCount,
			IsActive:     c.IsActive,
		}
		for _, kid := range t.children[id] {
			if child, ok := build(kid); ok {
				node.Children = append(node.Children, child)
			}
		}
		return node, true
	}

	out := make([]dto.TreeNode, 0, len(t.starts))
	for _, id := range t.starts {
		if node, ok := build(id); ok {
			out = append(out, node)
		}
	}
	return out
}

// IsAncestor reports whether ancestorID is id itself or lies on id's parent chain.
func (t *Tree) IsAncestor(ancestorID, id string) bool {
	visited := make(map[string]struct{})
	for cur := id; cur != ""; {
		if cur == ancestorID {
			return true
		}
		if _, seen := visited[cur]; seen {
			return false
		}
		visited[cur] = struct{}{}
		c, ok := t.byID[cur]
		if !ok || c.ParentID == nil {
			return false
		}
		cur = *c.ParentID
	}
	return false
}

func (t *Tree) sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := t.byID[ids[i]], t.byID[ids[j]]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}
