package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/shopwala/shopwala-golang/internal/cache"
	"github.com/shopwala/shopwala-golang/internal/database"
	"github.com/shopwala/shopwala-golang/internal/models"
	"github.com/shopwala/shopwala-golang/internal/repository"
)

const categoryTreeKey = "categories:tree"

// CategoryInput is used for create and update.
type CategoryInput struct {
	Name     string
	ParentID *int64
	ImageURL *string
	Status   *models.EntityStatus // nil keeps the stored status
}

type CategoryService struct {
	repo     *repository.CategoryRepository
	products *repository.ProductRepository
	uow      *database.UnitOfWork
	cache    cache.Cache
	ttl      time.Duration
}

func NewCategoryService(repo *repository.CategoryRepository, products *repository.ProductRepository, uow *database.UnitOfWork, c cache.Cache, ttl time.Duration) *CategoryService {
	if c == nil {
		c = cache.Noop{}
	}
	return &CategoryService{repo: repo, products: products, uow: uow, cache: c, ttl: ttl}
}

func (s *CategoryService) ListRoots(ctx context.Context) ([]models.Category, error) {
	return s.repo.ListByParent(ctx, nil)
}

func (s *CategoryService) ListChildren(ctx context.Context, parentID int64) ([]models.Category, error) {
	return s.repo.ListByParent(ctx, &parentID)
}

// ListAll is the admin view: every category regardless of status.
func (s *CategoryService) ListAll(ctx context.Context) ([]models.Category, error) {
	return s.repo.ListAll(ctx)
}

// Tree returns active roots with their active descendants nested.
func (s *CategoryService) Tree(ctx context.Context) ([]models.Category, error) {
	var tree []models.Category
	if ok, err := s.cache.Get(ctx, categoryTreeKey, &tree); err != nil {
		zap.L().Warn("category tree cache read failed", zap.Error(err))
	} else if ok {
		return tree, nil
	}

	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	tree = buildCategoryTree(all)
	if err := s.cache.Set(ctx, categoryTreeKey, tree, s.ttl); err != nil {
		zap.L().Warn("category tree cache write failed", zap.Error(err))
	}
	return tree, nil
}

func buildCategoryTree(all []models.Category) []models.Category {
	children := make(map[int64][]models.Category)
	var roots []models.Category
	for _, c := range all {
		if c.Status != models.StatusActive {
			continue
		}
		if c.ParentID == nil {
			roots = append(roots, c)
		} else {
			children[*c.ParentID] = append(children[*c.ParentID], c)
		}
	}

	var attach func(c *models.Category, depth int)
	attach = func(c *models.Category, depth int) {
		if depth > len(all) {
			return
		}
		c.Children = children[c.ID]
		for i := range c.Children {
			attach(&c.Children[i], depth+1)
		}
	}
	for i := range roots {
		attach(&roots[i], 0)
	}
	if roots == nil {
		roots = []models.Category{}
	}
	return roots
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	c, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// GetByID loads the category with its attribute definitions.
func (s *CategoryService) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	c, err := s.repo.GetWithAttributes(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// Attributes returns the attribute definitions of a category.
func (s *CategoryService) Attributes(ctx context.Context, categoryID int64) ([]models.ProductAttribute, error) {
	if _, err := s.repo.GetByID(ctx, categoryID); err != nil {
		return nil, notFound(err)
	}
	links, err := s.repo.ListAttributes(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	out := make([]models.ProductAttribute, 0, len(links))
	for _, l := range links {
		out = append(out, l.Attribute)
	}
	return out, nil
}

// SubtreeIDs returns id and the ids of every descendant category.
func (s *CategoryService) SubtreeIDs(ctx context.Context, id int64) ([]int64, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	children := make(map[int64][]int64)
	for _, c := range all {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}
	return subtree(id, children), nil
}

func (s *CategoryService) uniqueSlug(ctx context.Context, name string, exceptID int64) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "category"
	}
	candidate := base
	for i := 1; ; i++ {
		taken, err := s.repo.SlugExists(ctx, candidate, exceptID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *CategoryService) checkParent(ctx context.Context, id int64, parentID *int64) error {
	if parentID == nil {
		return nil
	}
	if _, err := s.repo.GetByID(ctx, *parentID); err != nil {
		if err == repository.ErrNotFound {
			return invalid("parentId", "parent category does not exist")
		}
		return err
	}
	if id == 0 {
		return nil
	}
	ids, err := s.SubtreeIDs(ctx, id)
	if err != nil {
		return err
	}
	for _, d := range ids {
		if d == *parentID {
			return invalid("parentId", "category cannot be moved under itself")
		}
	}
	return nil
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, invalid("name", "is required")
	}
	c := &models.Category{Name: in.Name, ParentID: in.ParentID, ImageURL: in.ImageURL, Status: models.StatusActive}
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		if err := s.checkParent(ctx, 0, in.ParentID); err != nil {
			return err
		}
		sl, err := s.uniqueSlug(ctx, in.Name, 0)
		if err != nil {
			return err
		}
		c.Slug = sl
		return s.repo.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id int64, in CategoryInput) (*models.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, invalid("name", "is required")
	}
	var c *models.Category
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return notFound(err)
		}
		if err := s.checkParent(ctx, id, in.ParentID); err != nil {
			return err
		}
		if c.Name != in.Name {
			if c.Slug, err = s.uniqueSlug(ctx, in.Name, id); err != nil {
				return err
			}
		}
		c.Name = in.Name
		c.ParentID = in.ParentID
		c.ImageURL = in.ImageURL
		if in.Status != nil {
			c.Status = *in.Status
		}
		return s.repo.Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return c, nil
}

// Delete refuses while the category still has children or products.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return notFound(err)
		}
		children, err := s.repo.CountChildren(ctx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return fmt.Errorf("category %d has %d subcategories: %w", id, children, ErrInUse)
		}
		products, err := s.products.CountByCategory(ctx, id)
		if err != nil {
			return err
		}
		if products > 0 {
			return fmt.Errorf("category %d has %d products: %w", id, products, ErrInUse)
		}
		if err := s.repo.Conn(ctx).Where("category_id = ?", id).Delete(&models.CategoryAttribute{}).Error; err != nil {
			return err
		}
		return s.repo.Delete(ctx, c)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CategoryService) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, categoryTreeKey); err != nil {
		zap.L().Warn("category tree cache invalidation failed", zap.Error(err))
	}
}
