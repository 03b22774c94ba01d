package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/catalog"
	"github.com/petstore/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CategoryService handles category tree operations
type CategoryService struct {
	categoryRepo   catalog.CategoryRepository
	productRepo    catalog.ProductRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo catalog.CategoryRepository, productRepo catalog.ProductRepository) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		logger:       zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for the service
func (s *CategoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLogger sets the logger used for non-fatal failures
func (s *CategoryService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Create creates a category, optionally under a parent
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error) {
	exists, err := s.categoryRepo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Category with this code already exists")
	}

	parent, err := s.findParent(ctx, req.ParentID)
	if err != nil {
		return nil, err
	}

	category, err := catalog.NewCategory(req.Code, req.Name, parent)
	if err != nil {
		return nil, err
	}
	if req.SortOrder != 0 {
		if err := category.Update(req.Name, req.SortOrder); err != nil {
			return nil, err
		}
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	s.publish(ctx, category)

	response := ToCategoryResponse(category)
	return &response, nil
}

// GetByID retrieves a category by ID
func (s *CategoryService) GetByID(ctx context.Context, id uuid.UUID) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToCategoryResponse(category)
	return &response, nil
}

// List returns categories matching a search term, flat and ordered by level
func (s *CategoryService) List(ctx context.Context, search string, parentID *uuid.UUID) ([]CategoryResponse, error) {
	filter := shared.Unpaged()
	filter.Search = search
	if parentID != nil {
		filter = filter.With("parent_id", *parentID)
	}

	categories, err := s.categoryRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]CategoryResponse, len(categories))
	for i := range categories {
		responses[i] = ToCategoryResponse(&categories[i])
	}
	return responses, nil
}

// Tree returns the whole category forest
func (s *CategoryService) Tree(ctx context.Context) ([]CategoryTreeNode, error) {
	categories, err := s.categoryRepo.FindAll(ctx, shared.Unpaged())
	if err != nil {
		return nil, err
	}
	return toTreeNodes(catalog.BuildTree(categories)), nil
}

// Update changes a category's name and sort order
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := category.Update(req.Name, req.SortOrder); err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	s.publish(ctx, category)

	response := ToCategoryResponse(category)
	return &response, nil
}

// Move re-parents a category and rebases the paths of its whole subtree
func (s *CategoryService) Move(ctx context.Context, id uuid.UUID, req MoveCategoryRequest) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	parent, err := s.findParent(ctx, req.ParentID)
	if err != nil {
		return nil, err
	}

	descendants, err := s.categoryRepo.FindDescendants(ctx, category)
	if err != nil {
		return nil, err
	}

	oldLevel := category.Level
	oldPath, err := category.MoveTo(parent, catalog.SubtreeDepth(category, descendants))
	if err != nil {
		return nil, err
	}

	changed := make([]*catalog.Category, 0, len(descendants)+1)
	changed = append(changed, category)
	for i := range descendants {
		descendants[i].RebasePath(oldPath, category.Path, category.Level-oldLevel)
		changed = append(changed, &descendants[i])
	}

	if err := s.categoryRepo.SaveAll(ctx, changed); err != nil {
		return nil, err
	}
	s.publish(ctx, category)

	response := ToCategoryResponse(category)
	return &response, nil
}

// Delete removes a leaf category with no products
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	hasChildren, err := s.categoryRepo.HasChildren(ctx, id)
	if err != nil {
		return err
	}
	if hasChildren {
		return shared.NewDomainError("HAS_CHILDREN", "Category has child categories")
	}

	products, err := s.productRepo.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if products > 0 {
		return shared.ErrInUse.WithMessage("Category has products")
	}

	category.MarkDeleted()
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, category)
	return nil
}

func (s *CategoryService) findParent(ctx context.Context, parentID *uuid.UUID) (*catalog.Category, error) {
	if parentID == nil {
		return nil, nil
	}
	parent, err := s.categoryRepo.FindByID(ctx, *parentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_PARENT", "Parent category not found")
		}
		return nil, err
	}
	return parent, nil
}

func (s *CategoryService) publish(ctx context.Context, category *catalog.Category) {
	events := category.PullDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish category events",
			zap.String("category_id", category.ID.String()),
			zap.Error(err))
	}
}
