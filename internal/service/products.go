// Package service provides the catalog business logic, delegating
// persistence to repository interfaces.
package service

import (
	"context"
	"fmt"

	"github.com/atinyakov/CoverCatalog/internal/models"
)

// ProductRepository defines the persistence operations needed by ProductService.
type ProductRepository interface {
	// Load returns the full collection in insertion order.
	Load(ctx context.Context) ([]models.Product, error)
	// Mutate runs fn as an exclusive read-modify-write cycle and persists its result.
	Mutate(ctx context.Context, fn func([]models.Product) ([]models.Product, error)) error
}

// ProductService implements the product catalog operations.
type ProductService struct {
	repo ProductRepository
}

// NewProductService constructs a ProductService backed by repo.
func NewProductService(repo ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

// List returns all products in creation order.
func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	return s.repo.Load(ctx)
}

// Get returns the product with the given id or models.ErrNotFound.
func (s *ProductService) Get(ctx context.Context, id int64) (models.Product, error) {
	products, err := s.repo.Load(ctx)
	if err != nil {
		return models.Product{}, err
	}
	i := indexOf(products, id)
	if i < 0 {
		return models.Product{}, models.ErrNotFound
	}
	return products[i], nil
}

// Create validates fields, assigns the next id and appends the product.
func (s *ProductService) Create(ctx context.Context, fields models.ProductPatch) (models.Product, error) {
	if err := fields.ValidateCreate(); err != nil {
		return models.Product{}, err
	}

	var created models.Product
	err := s.repo.Mutate(ctx, func(products []models.Product) ([]models.Product, error) {
		created = fields.Apply(models.Product{ID: NextID(products)})
		return append(products, created), nil
	})
	if err != nil {
		return models.Product{}, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

// Update merges the present fields into the product with the given id.
// Fields absent from fields keep their previous values.
func (s *ProductService) Update(ctx context.Context, id int64, fields models.ProductPatch) (models.Product, error) {
	if err := fields.ValidateUpdate(); err != nil {
		return models.Product{}, err
	}

	var updated models.Product
	err := s.repo.Mutate(ctx, func(products []models.Product) ([]models.Product, error) {
		i := indexOf(products, id)
		if i < 0 {
			return nil, models.ErrNotFound
		}
		merged := fields.Apply(products[i])
		if err := merged.Validate(); err != nil {
			return nil, err
		}
		products[i] = merged
		updated = merged
		return products, nil
	})
	if err != nil {
		return models.Product{}, fmt.Errorf("update product %d: %w", id, err)
	}
	return updated, nil
}

// Delete removes the product with the given id and returns it.
func (s *ProductService) Delete(ctx context.Context, id int64) (models.Product, error) {
	var removed models.Product
	err := s.repo.Mutate(ctx, func(products []models.Product) ([]models.Product, error) {
		i := indexOf(products, id)
		if i < 0 {
			return nil, models.ErrNotFound
		}
		removed = products[i]
		return append(products[:i], products[i+1:]...), nil
	})
	if err != nil {
		return models.Product{}, fmt.Errorf("delete product %d: %w", id, err)
	}
	return removed, nil
}

// NextID returns max(existing ids, default 0) + 1. Deleting the current
// maximum and creating again reuses that id.
func NextID(products []models.Product) int64 {
	var highest int64
	for _, p := range products {
		if p.ID > highest {
			highest = p.ID
		}
	}
	return highest + 1
}

func indexOf(products []models.Product, id int64) int {
	for i, p := range products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
