package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog/log"

	apperrors "github.com/quickmart/pos-server/internal/errors"
	"github.com/quickmart/pos-server/internal/model"
	"github.com/quickmart/pos-server/internal/repository"
	"github.com/quickmart/pos-server/internal/util"
)

// resolveCacheTTL keeps lookups hot during a scanning burst. Stock read
// through the cache can be slightly stale; the scan-time stock check is
// advisory only, so this is acceptable.
const resolveCacheTTL = 15 * time.Second

// ProductResolver maps a scanned identifier to a product snapshot. Tried as
// internal ID first, then barcode, then name; first match wins.
type ProductResolver interface {
	Resolve(ctx context.Context, identifier string) (*model.Product, error)
}

type ProductService struct {
	repo     repository.ProductRepository
	notifier Notifier
	cache    *ttlcache.Cache[string, model.Product]
}

func NewProductService(repo repository.ProductRepository, notifier Notifier) *ProductService {
	cache := ttlcache.New[string, model.Product](
		ttlcache.WithTTL[string, model.Product](resolveCacheTTL),
		ttlcache.WithDisableTouchOnHit[string, model.Product](),
	)
	go cache.Start()

	return &ProductService{
		repo:     repo,
		notifier: notifier,
		cache:    cache,
	}
}

func (s *ProductService) Resolve(ctx context.Context, identifier string) (*model.Product, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, apperrors.MissingRequired("identifier")
	}

	if item := s.cache.Get(identifier); item != nil {
		p := item.Value()
		return &p, nil
	}

	p, err := s.lookup(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperrors.ProductNotFound(identifier)
	}

	s.cache.Set(identifier, *p, ttlcache.DefaultTTL)
	return p, nil
}

func (s *ProductService) lookup(ctx context.Context, identifier string) (*model.Product, error) {
	if util.IsValidUUID(identifier) {
		p, err := s.repo.FindByID(ctx, identifier)
		if err != nil {
			return nil, fmt.Errorf("resolve by id: %w", err)
		}
		if p != nil {
			return p, nil
		}
	}

	p, err := s.repo.FindByBarcode(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("resolve by barcode: %w", err)
	}
	if p != nil {
		return p, nil
	}

	p, err = s.repo.FindByName(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("resolve by name: %w", err)
	}
	return p, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*model.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ProductService) List(ctx context.Context, limit, offset int) ([]model.Product, int, error) {
	products, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	return products, total, nil
}

func (s *ProductService) Create(ctx context.Context, params model.CreateProductParams) (*model.Product, error) {
	if err := validateProductParams(params.Name, params.PriceCents, params.Stock); err != nil {
		return nil, err
	}

	p, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	log.Info().
		Str("productId", p.ID).
		Str("name", p.Name).
		Msg("product created")

	return p, nil
}

func (s *ProductService) Update(ctx context.Context, id string, params model.UpdateProductParams) (*model.Product, error) {
	if err := validateProductParams(params.Name, params.PriceCents, params.Stock); err != nil {
		return nil, err
	}

	p, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if p == nil {
		return nil, nil
	}

	s.cache.DeleteAll()

	log.Info().Str("productId", p.ID).Msg("product updated")
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}
	if deleted {
		s.cache.DeleteAll()
		log.Info().Str("productId", id).Msg("product deleted")
	}
	return deleted, nil
}

func validateProductParams(name string, priceCents int64, stock int) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.MissingRequired("name")
	}
	if priceCents < 0 {
		return apperrors.InvalidInput("priceCents", "must not be negative")
	}
	if stock < 0 {
		return apperrors.InvalidInput("stock", "must not be negative")
	}
	return nil
}
