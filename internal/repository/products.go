// Package repository provides persistence of the product catalog in a single
// JSON file.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/atinyakov/CoverCatalog/internal/models"
	"go.uber.org/zap"
)

// FileProductRepository stores the whole product collection as a JSON array.
//
// Every write replaces the file atomically (temp file + rename), so readers
// never observe a partial file and do not take the lock. Writers are
// serialized by mu for the whole read-modify-write cycle.
type FileProductRepository struct {
	// Path is the location of the JSON file.
	Path string

	mu  sync.Mutex
	log *zap.Logger
}

// NewFileProductRepository creates a repository backed by path.
// log may be nil.
func NewFileProductRepository(path string, log *zap.Logger) *FileProductRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileProductRepository{Path: path, log: log}
}

// Load reads the full collection.
//
// A missing file is an empty collection. A file that cannot be parsed is
// logged and also treated as empty.
func (r *FileProductRepository) Load(ctx context.Context) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Product{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}

	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		r.log.Warn("malformed products file, treating as empty",
			zap.String("path", r.Path),
			zap.Error(err),
		)
		return []models.Product{}, nil
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// Save writes products as the full collection.
func (r *FileProductRepository) Save(ctx context.Context, products []models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(ctx, products)
}

// Mutate runs a read-modify-write cycle under the writer lock. fn receives
// the current collection and returns the collection to persist. If fn
// returns an error nothing is written.
func (r *FileProductRepository) Mutate(ctx context.Context, fn func([]models.Product) ([]models.Product, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	products, err := r.Load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(products)
	if err != nil {
		return err
	}
	return r.save(ctx, next)
}

func (r *FileProductRepository) save(ctx context.Context, products []models.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if products == nil {
		products = []models.Product{}
	}
	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return fmt.Errorf("encode products: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(r.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create products dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.Path); err != nil {
		return fmt.Errorf("replace products file: %w", err)
	}

	r.log.Debug("products saved", zap.String("path", r.Path), zap.Int("count", len(products)))
	return nil
}
