package api

import (
	"context"

	"airwaves/internal/catalog"
)

// ShowReader abstracts the catalog queries the API serves.
type ShowReader interface {
	List(ctx context.Context, page, limit int) (*catalog.Page, error)
	Get(ctx context.Context, id string) (*catalog.Show, error)
}

// ShowService exposes read-only show operations returning API DTOs.
type ShowService struct {
	store ShowReader
}

// NewShowService constructs a ShowService around the provided reader.
func NewShowService(store ShowReader) *ShowService {
	return &ShowService{store: store}
}

// List returns one page of shows, newest first.
func (s *ShowService) List(ctx context.Context, page, limit int) (ShowListResponse, error) {
	result, err := s.store.List(ctx, page, limit)
	if err != nil {
		return ShowListResponse{}, err
	}
	data := result.Shows
	if data == nil {
		data = []catalog.Show{}
	}
	return ShowListResponse{
		Data: data,
		Pagination: Pagination{
			Page:       result.Page,
			Limit:      result.Limit,
			Total:      result.Total,
			TotalPages: result.TotalPages,
		},
	}, nil
}

// Describe returns a show with its tracks ordered by position.
func (s *ShowService) Describe(ctx context.Context, id string) (*catalog.Show, error) {
	return s.store.Get(ctx, id)
}
