package search

import (
	"log"
)

// Service fronts two Searcher backends: Meilisearch when configured and
// healthy, Postgres FTS otherwise.
type Service struct {
	primary  Searcher
	fallback Searcher
	indexer  *Meili
}

// NewService creates a search service. meili may be nil if Meilisearch is not
// configured.
func NewService(meili *Meili, pgfts *PgFTS) *Service {
	s := &Service{fallback: pgfts}
	if meili != nil {
		s.primary = meili
		s.indexer = meili
	}
	return s
}

// Search queries the primary backend when it is healthy and falls back to
// Postgres FTS on absence or error.
func (s *Service) Search(q Query) Response {
	if s.primary != nil && s.primary.Healthy() {
		results, total, err := s.primary.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: primary backend error, falling back: %v", err)
	}

	results, total, err := s.fallback.Search(q)
	if err != nil {
		log.Printf("search: fallback backend error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexDocument indexes a document (fire-and-forget to Meilisearch).
func (s *Service) IndexDocument(doc DocumentRecord) {
	if s.indexer == nil || !s.indexer.Healthy() {
		return
	}
	go func() {
		if err := s.indexer.IndexDocument(doc); err != nil {
			log.Printf("search: index document %d: %v", doc.ID, err)
		}
	}()
}

// ReindexAll pushes every document to Meilisearch, called at startup when the
// index may be behind the database.
func (s *Service) ReindexAll(documents []DocumentRecord) {
	if s.indexer == nil || !s.indexer.Healthy() {
		return
	}
	go func() {
		if err := s.indexer.IndexDocuments(documents); err != nil {
			log.Printf("search: reindex documents: %v", err)
		}
	}()
}

func nonNil(results []Result) []Result {
	if results == nil {
		return []Result{}
	}
	return results
}
