package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/shared"
)

// MaxCategoryDepth is the maximum depth of category hierarchy
const MaxCategoryDepth = 5

// Category is a node of the product category tree.
// Path is the materialized chain of ancestor IDs ending with the category's own ID.
type Category struct {
	shared.BaseAggregateRoot
	Code      string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name      shared.LocalizedText `gorm:"embedded;embeddedPrefix:name_"`
	ParentID  *uuid.UUID           `gorm:"type:uuid;index"`
	Path      string               `gorm:"type:varchar(500);not null;index"`
	Level     int                  `gorm:"not null;default:0"`
	SortOrder int                  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a category. A nil parent makes it a root.
func NewCategory(code string, name shared.LocalizedText, parent *Category) (*Category, error) {
	if err := validateCategoryCode(code); err != nil {
		return nil, err
	}
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}

	category := &Category{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(strings.TrimSpace(code)),
		Name:              name,
	}
	category.Path = category.ID.String()

	if parent != nil {
		if parent.Level >= MaxCategoryDepth-1 {
			return nil, shared.NewDomainError("MAX_DEPTH_EXCEEDED", fmt.Sprintf("Category depth cannot exceed %d levels", MaxCategoryDepth))
		}
		category.ParentID = &parent.ID
		category.Level = parent.Level + 1
		category.Path = parent.Path + "/" + category.ID.String()
	}

	category.AddDomainEvent(NewCategoryCreatedEvent(category))

	return category, nil
}

// Update updates the category's name and display order
func (c *Category) Update(name shared.LocalizedText, sortOrder int) error {
	if err := validateCategoryName(name); err != nil {
		return err
	}

	c.Name = name
	c.SortOrder = sortOrder
	c.IncrementVersion()

	c.AddDomainEvent(NewCategoryUpdatedEvent(c))

	return nil
}

// MoveTo re-parents the category. A nil parent moves it to the root.
// Moving a category under itself or one of its descendants is rejected.
// Callers must rebase descendants with RebasePath using the returned old path.
func (c *Category) MoveTo(parent *Category, subtreeDepth int) (string, error) {
	oldPath := c.Path

	if parent == nil {
		c.ParentID = nil
		c.Level = 0
		c.Path = c.ID.String()
	} else {
		if parent.ID == c.ID || c.IsAncestorOf(parent) {
			return "", shared.NewDomainError("CATEGORY_CYCLE", "Category cannot be moved under itself or its descendant")
		}
		if parent.Level+1+subtreeDepth >= MaxCategoryDepth {
			return "", shared.NewDomainError("MAX_DEPTH_EXCEEDED", fmt.Sprintf("Category depth cannot exceed %d levels", MaxCategoryDepth))
		}
		c.ParentID = &parent.ID
		c.Level = parent.Level + 1
		c.Path = parent.Path + "/" + c.ID.String()
	}

	c.IncrementVersion()
	c.AddDomainEvent(NewCategoryMovedEvent(c, oldPath))

	return oldPath, nil
}

// RebasePath rewrites a descendant's path after an ancestor moved from oldPrefix to newPrefix
func (c *Category) RebasePath(oldPrefix, newPrefix string, levelDelta int) {
	if !strings.HasPrefix(c.Path, oldPrefix+"/") {
		return
	}
	c.Path = newPrefix + strings.TrimPrefix(c.Path, oldPrefix)
	c.Level += levelDelta
	c.IncrementVersion()
}

// IsRoot returns true if this is a root category
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// IsAncestorOf returns true if this category is an ancestor of the given category
func (c *Category) IsAncestorOf(other *Category) bool {
	if other == nil || other.Path == "" {
		return false
	}
	return strings.HasPrefix(other.Path, c.Path+"/")
}

// MarkDeleted records the deletion event
func (c *Category) MarkDeleted() {
	c.AddDomainEvent(NewCategoryDeletedEvent(c))
}

// CategoryNode is a category with its children, used to render the tree
type CategoryNode struct {
	Category *Category
	Children []*CategoryNode
}

// BuildTree assembles a forest from a flat list. Siblings are ordered by
// SortOrder, then Code. Categories whose parent is missing become roots.
func BuildTree(categories []Category) []*CategoryNode {
	nodes := make(map[uuid.UUID]*CategoryNode, len(categories))
	for i := range categories {
		nodes[categories[i].ID] = &CategoryNode{Category: &categories[i]}
	}

	roots := make([]*CategoryNode, 0)
	for i := range categories {
		node := nodes[categories[i].ID]
		if parentID := categories[i].ParentID; parentID != nil {
			if parent, ok := nodes[*parentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	sortNodes(roots)
	return roots
}

func sortNodes(nodes []*CategoryNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i].Category, nodes[j].Category
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.Code < b.Code
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

// SubtreeDepth returns how many levels exist below root among the given descendants
func SubtreeDepth(root *Category, descendants []Category) int {
	depth := 0
	for _, d := range descendants {
		if delta := d.Level - root.Level; delta > depth {
			depth = delta
		}
	}
	return depth
}

// validateCategoryCode validates the category code
func validateCategoryCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Category code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Category code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Category code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

// validateCategoryName validates the category name
func validateCategoryName(name shared.LocalizedText) error {
	if name.UK == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name (uk) cannot be empty")
	}
	if len(name.UK) > 100 || len(name.EN) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 100 characters")
	}
	return nil
}
