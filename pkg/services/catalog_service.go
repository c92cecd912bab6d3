package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kotoba-lab/sensei/pkg/models"
	"github.com/kotoba-lab/sensei/pkg/store"
)

const (
	// DefaultPageSize is used when a listing request omits page_size.
	DefaultPageSize = 50

	// MaxPageSize is the ceiling on one listing page.
	MaxPageSize = 200
)

// CatalogService serves the read-only JLPT dictionary: vocabulary and kanji
// browsing with level filters and search.
type CatalogService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(st *store.Store, logger *slog.Logger) *CatalogService {
	return &CatalogService{store: st, logger: logger.With("component", "catalog_service")}
}

// ListVocab returns one page of vocabulary items.
func (s *CatalogService) ListVocab(ctx context.Context, q store.ListQuery) (*models.VocabPage, error) {
	q, err := normalizePage(q)
	if err != nil {
		return nil, err
	}
	items, total, err := s.store.ListVocab(ctx, q)
	if err != nil {
		return nil, err
	}
	return &models.VocabPage{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// ListKanji returns one page of kanji items.
func (s *CatalogService) ListKanji(ctx context.Context, q store.ListQuery) (*models.KanjiPage, error) {
	q, err := normalizePage(q)
	if err != nil {
		return nil, err
	}
	items, total, err := s.store.ListKanji(ctx, q)
	if err != nil {
		return nil, err
	}
	return &models.KanjiPage{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// GetVocab returns one vocabulary item by id.
func (s *CatalogService) GetVocab(ctx context.Context, id int) (*models.VocabItem, error) {
	item, err := s.store.GetVocab(ctx, id)
	return item, mapStoreErr(err)
}

// GetKanji returns one kanji item by id.
func (s *CatalogService) GetKanji(ctx context.Context, id int) (*models.KanjiItem, error) {
	item, err := s.store.GetKanji(ctx, id)
	return item, mapStoreErr(err)
}

// GetKanjiByCharacter returns one kanji item by its character.
func (s *CatalogService) GetKanjiByCharacter(ctx context.Context, character string) (*models.KanjiItem, error) {
	item, err := s.store.GetKanjiByCharacter(ctx, character)
	return item, mapStoreErr(err)
}

func normalizePage(q store.ListQuery) (store.ListQuery, error) {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Page < 1 {
		return q, NewValidationError("page", "must be >= 1")
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return q, NewValidationError("page_size", fmt.Sprintf("must be between 1 and %d", MaxPageSize))
	}
	return q, nil
}
