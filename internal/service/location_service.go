package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shopwala/shopwala-golang/internal/database"
	"github.com/shopwala/shopwala-golang/internal/models"
	"github.com/shopwala/shopwala-golang/internal/repository"
)

const (
	locationPathSeparator = ", "
	locationSearchLimit   = 200
)

// LocationOption is a node in the location picker.
type LocationOption struct {
	ID        int64            `json:"id"`
	Name      string           `json:"name"`
	ParentID  *int64           `json:"parentId,omitempty"`
	Latitude  *decimal.Decimal `json:"latitude,omitempty"`
	Longitude *decimal.Decimal `json:"longitude,omitempty"`
}

// LocationWithPath is a location with its display path.
type LocationWithPath struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullPath string `json:"fullPath"`
}

// LocationInput is used for create and update.
type LocationInput struct {
	Name         string
	ParentID     *int64
	Latitude     *decimal.Decimal
	Longitude    *decimal.Decimal
	DisplayOrder int
}

type LocationService struct {
	repo     *repository.LocationRepository
	products *repository.ProductRepository
	uow      *database.UnitOfWork
}

func NewLocationService(repo *repository.LocationRepository, products *repository.ProductRepository, uow *database.UnitOfWork) *LocationService {
	return &LocationService{repo: repo, products: products, uow: uow}
}

func toOption(l models.Location) LocationOption {
	return LocationOption{ID: l.ID, Name: l.Name, ParentID: l.ParentID, Latitude: l.Latitude, Longitude: l.Longitude}
}

func toWithPath(l models.Location) LocationWithPath {
	return LocationWithPath{ID: l.ID, Name: l.Name, FullPath: l.PathOrName()}
}

func (s *LocationService) Roots(ctx context.Context) ([]LocationOption, error) {
	return s.Children(ctx, nil)
}

func (s *LocationService) Children(ctx context.Context, parentID *int64) ([]LocationOption, error) {
	list, err := s.repo.ListByParent(ctx, parentID)
	if err != nil {
		return nil, err
	}
	out := make([]LocationOption, 0, len(list))
	for _, l := range list {
		out = append(out, toOption(l))
	}
	return out, nil
}

func (s *LocationService) Get(ctx context.Context, id int64) (*models.Location, error) {
	loc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return loc, nil
}

func (s *LocationService) Search(ctx context.Context, q string) ([]LocationWithPath, error) {
	list, err := s.repo.Search(ctx, q, locationSearchLimit)
	if err != nil {
		return nil, err
	}
	out := make([]LocationWithPath, 0, len(list))
	for _, l := range list {
		out = append(out, toWithPath(l))
	}
	return out, nil
}

// WithProducts lists locations that active products point at, by path.
func (s *LocationService) WithProducts(ctx context.Context) ([]LocationWithPath, error) {
	ids, err := s.products.ActiveLocationIDs(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]LocationWithPath, 0, len(list))
	for _, l := range list {
		out = append(out, toWithPath(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullPath < out[j].FullPath })
	return out, nil
}

func (s *LocationService) validate(ctx context.Context, in *LocationInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("name", "is required")
	}
	if in.ParentID != nil {
		if _, err := s.repo.GetByID(ctx, *in.ParentID); err != nil {
			if err == repository.ErrNotFound {
				return invalid("parentId", "parent location does not exist")
			}
			return err
		}
	}
	return nil
}

func (s *LocationService) Create(ctx context.Context, in LocationInput) (*models.Location, error) {
	loc := &models.Location{}
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		if err := s.validate(ctx, &in); err != nil {
			return err
		}
		loc.Name = in.Name
		loc.ParentID = in.ParentID
		loc.Latitude = in.Latitude
		loc.Longitude = in.Longitude
		loc.DisplayOrder = in.DisplayOrder
		if err := s.repo.Create(ctx, loc); err != nil {
			return err
		}
		return s.rebuildPaths(ctx, loc.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, loc.ID)
}

// Update edits a node. Moving a node under itself or one of its descendants
// is rejected with ErrLocationCycle.
func (s *LocationService) Update(ctx context.Context, id int64, in LocationInput) (*models.Location, error) {
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		loc, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return notFound(err)
		}
		if err := s.validate(ctx, &in); err != nil {
			return err
		}
		if in.ParentID != nil {
			all, err := s.repo.ListAll(ctx)
			if err != nil {
				return err
			}
			for _, d := range subtree(id, childIndex(all)) {
				if d == *in.ParentID {
					return ErrLocationCycle
				}
			}
		}

		loc.Name = in.Name
		loc.ParentID = in.ParentID
		loc.Latitude = in.Latitude
		loc.Longitude = in.Longitude
		loc.DisplayOrder = in.DisplayOrder
		if err := s.repo.Save(ctx, loc); err != nil {
			return err
		}
		return s.rebuildPaths(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a leaf location. Products pointing at it lose their location.
func (s *LocationService) Delete(ctx context.Context, id int64) error {
	return s.uow.Do(ctx, func(ctx context.Context) error {
		loc, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return notFound(err)
		}
		children, err := s.repo.CountChildren(ctx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return fmt.Errorf("location %d has %d children: %w", id, children, ErrInUse)
		}
		if err := s.repo.Conn(ctx).Model(&models.Product{}).Where("location_id = ?", id).Update("location_id", nil).Error; err != nil {
			return err
		}
		return s.repo.Delete(ctx, loc)
	})
}

// SubtreeIDs returns id and all of its descendants.
func (s *LocationService) SubtreeIDs(ctx context.Context, id int64) ([]int64, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return subtree(id, childIndex(all)), nil
}

// rebuildPaths recomputes FullPath for id and every descendant, breadth first.
func (s *LocationService) rebuildPaths(ctx context.Context, id int64) error {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return err
	}
	byID := make(map[int64]models.Location, len(all))
	for _, l := range all {
		byID[l.ID] = l
	}
	for _, nodeID := range subtree(id, childIndex(all)) {
		l, ok := byID[nodeID]
		if !ok {
			continue
		}
		path := BuildFullPath(l, byID)
		if l.FullPath != nil && *l.FullPath == path {
			continue
		}
		if err := s.repo.UpdateFullPath(ctx, nodeID, path); err != nil {
			return err
		}
	}
	return nil
}

// BuildFullPath joins the names from the root down to loc.
func BuildFullPath(loc models.Location, byID map[int64]models.Location) string {
	parts := []string{loc.Name}
	seen := map[int64]bool{loc.ID: true}
	current := loc
	for current.ParentID != nil {
		parent, ok := byID[*current.ParentID]
		if !ok || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		parts = append(parts, parent.Name)
		current = parent
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, locationPathSeparator)
}

func childIndex(all []models.Location) map[int64][]int64 {
	children := make(map[int64][]int64)
	for _, l := range all {
		if l.ParentID != nil {
			children[*l.ParentID] = append(children[*l.ParentID], l.ID)
		}
	}
	return children
}

// subtree walks breadth first from root; the root comes first.
func subtree(root int64, children map[int64][]int64) []int64 {
	out := []int64{root}
	seen := map[int64]bool{root: true}
	for i := 0; i < len(out); i++ {
		for _, c := range children[out[i]] {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}
