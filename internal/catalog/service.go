package catalog

import "context"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListActive(ctx context.Context) ([]Product, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) FindVariant(ctx context.Context, id int) (Variant, error) {
	if id <= 0 {
		return Variant{}, ErrVariantNotFound
	}
	return s.repo.FindVariant(ctx, id)
}

func (s *Service) FindVariants(ctx context.Context, ids []int) (map[int]Variant, error) {
	return s.repo.FindVariants(ctx, ids)
}

// CurrentStock returns the units available for a variant.
func (s *Service) CurrentStock(ctx context.Context, id int) (int, error) {
	v, err := s.FindVariant(ctx, id)
	if err != nil {
		return 0, err
	}
	return v.Stock, nil
}
