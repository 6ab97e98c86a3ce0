package search

import (
	"errors"
	"testing"
)

type stubSearcher struct {
	healthy bool
	results []Result
	total   int
	err     error
	calls   int
}

func (s *stubSearcher) Search(q Query) ([]Result, int, error) {
	s.calls++
	return s.results, s.total, s.err
}

func (s *stubSearcher) Healthy() bool { return s.healthy }

func TestSearchUsesPrimaryWhenHealthy(t *testing.T) {
	primary := &stubSearcher{
		healthy: true,
		results: []Result{{ID: 1, Title: "Spec", OrganizationID: 5}},
		total:   1,
	}
	fallback := &stubSearcher{healthy: true}
	svc := &Service{primary: primary, fallback: fallback}

	response := svc.Search(Query{Text: "spec", OrganizationID: 5})
	if response.Total != 1 || len(response.Results) != 1 {
		t.Fatalf("expected primary hit, got %+v", response)
	}
	if fallback.calls != 0 {
		t.Fatalf("fallback should not be queried when primary succeeds, got %d calls", fallback.calls)
	}
}

func TestSearchFallsBackWhenPrimaryUnhealthy(t *testing.T) {
	primary := &stubSearcher{healthy: false}
	fallback := &stubSearcher{
		healthy: true,
		results: []Result{{ID: 2, Title: "Onboarding", OrganizationID: 5}},
		total:   1,
	}
	svc := &Service{primary: primary, fallback: fallback}

	response := svc.Search(Query{Text: "onboarding", OrganizationID: 5})
	if response.Total != 1 || response.Results[0].ID != 2 {
		t.Fatalf("expected fallback hit, got %+v", response)
	}
	if primary.calls != 0 {
		t.Fatalf("unhealthy primary should not be queried, got %d calls", primary.calls)
	}
}

func TestSearchFallsBackOnPrimaryError(t *testing.T) {
	primary := &stubSearcher{healthy: true, err: errors.New("index gone")}
	fallback := &stubSearcher{
		healthy: true,
		results: []Result{{ID: 3, Title: "Runbook", OrganizationID: 5}},
		total:   1,
	}
	svc := &Service{primary: primary, fallback: fallback}

	response := svc.Search(Query{Text: "runbook", OrganizationID: 5})
	if response.Total != 1 || response.Results[0].ID != 3 {
		t.Fatalf("expected fallback hit after primary error, got %+v", response)
	}
}

func TestSearchReturnsEmptyResponseWhenBothFail(t *testing.T) {
	svc := &Service{
		primary:  &stubSearcher{healthy: true, err: errors.New("index gone")},
		fallback: &stubSearcher{healthy: true, err: errors.New("db gone")},
	}

	response := svc.Search(Query{Text: "anything", OrganizationID: 5})
	if response.Results == nil || len(response.Results) != 0 || response.Total != 0 {
		t.Fatalf("expected empty response, got %+v", response)
	}
}

func TestNewServiceWithoutMeili(t *testing.T) {
	svc := NewService(nil, &PgFTS{})
	if svc.primary != nil || svc.indexer != nil {
		t.Fatal("nil meili must not register a primary backend")
	}
	// Indexing without Meilisearch is a no-op, not a panic.
	svc.IndexDocument(DocumentRecord{ID: 1})
	svc.ReindexAll([]DocumentRecord{{ID: 1}})
}
