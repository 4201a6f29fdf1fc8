package filter

import (
	"context"
	"fmt"

	"github.com/yildizm/NgramLens/internal/apperr"
	"github.com/yildizm/NgramLens/internal/client"
	"github.com/yildizm/NgramLens/internal/logger"
	"github.com/yildizm/NgramLens/internal/store"
)

// Service performs the filter call
type Service interface {
	Filter(ctx context.Context, req *client.FilterRequest) (*client.FilterResponse, error)
}

// Session runs filter round trips against the service on behalf of one store
type Session struct {
	service Service
	store   *store.Store
	log     *logger.Logger
}

// NewSession creates a filter session for st
func NewSession(service Service, st *store.Store, log *logger.Logger) *Session {
	if log == nil {
		log = logger.Nop()
	}
	return &Session{
		service: service,
		store:   st,
		log:     log.WithComponent("filter"),
	}
}

// Request builds the wire form of intent
func Request(intent Intent) *client.FilterRequest {
	selected := intent.SelectedFiles
	if selected == nil {
		selected = []string{}
	}
	mode := intent.Mode
	if mode == "" {
		mode = ModeAll
	}
	return &client.FilterRequest{
		Mode:             string(mode),
		SelectedFiles:    selected,
		IncludeAllCommon: intent.IncludeAllCommon,
		SortOption:       intent.Sort.Label(),
	}
}

// Apply performs the round trip and returns the resulting set without
// touching the store. The service does not echo the file list, so the new
// set carries the filenames held when the request was issued.
func (s *Session) Apply(ctx context.Context, intent Intent) (store.AnalysisSet, error) {
	filenames := s.store.Filenames()

	s.log.DebugWithFields("applying filter", []logger.Field{
		logger.F("mode", intent.Mode),
		logger.F("sort", intent.Sort),
		logger.F("selected", len(intent.SelectedFiles)),
		logger.F("include_all_common", intent.IncludeAllCommon),
	})

	resp, err := s.service.Filter(ctx, Request(intent))
	if err != nil {
		if apperr.IsServiceError(err) || apperr.IsTransportError(err) {
			return store.AnalysisSet{}, err
		}
		return store.AnalysisSet{}, fmt.Errorf("filter round trip failed: %w", err)
	}

	results := resp.Results
	if results == nil {
		results = []string{}
	}
	return store.AnalysisSet{
		Results:   results,
		Filenames: filenames,
		DataCount: resp.DataCount,
	}, nil
}

// Run applies intent and replaces the store with the response. With nothing
// analyzed yet it is a silent no-op and reports false.
func (s *Session) Run(ctx context.Context, intent Intent) (bool, error) {
	if s.store.IsEmpty() {
		s.log.Debug("nothing to filter, skipping")
		return false, nil
	}

	set, err := s.Apply(ctx, intent)
	if err != nil {
		return false, err
	}

	gen := s.store.Replace(set)
	s.log.DebugWithFields("filter applied", []logger.Field{
		logger.Count(set.DataCount),
		logger.F("generation", gen),
	})
	return true, nil
}
