package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dreamclass/examengine/internal/api"
	"github.com/dreamclass/examengine/internal/quiz"
)

// ErrAlreadyFetching indicates a catalog fetch is already in flight.
// The engine never queues a second fetch behind the first.
var ErrAlreadyFetching = errors.New("catalog fetch already in flight")

// UnavailableError wraps a transport, server or decode failure from
// the catalog endpoint. The previous catalog and snapshot stay intact.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("quiz server unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// CatalogFetcher is the slice of the API client the engine needs.
type CatalogFetcher interface {
	FetchQuizzes(ctx context.Context) (*quiz.Catalog, error)
}

// SnapshotStore persists catalog snapshots between runs.
type SnapshotStore interface {
	// LoadSnapshot returns the persisted snapshot, or nil when none
	// has been adopted yet.
	LoadSnapshot(ctx context.Context) (*Snapshot, error)

	// SaveSnapshot replaces the persisted snapshot.
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
}

// Engine keeps a local, addressable copy of the remote question
// catalog fresh. It caches the last fetched catalog in memory with a
// timestamp, runs the count-only diff against the persisted snapshot
// on adoption, and never lets two fetches overlap.
type Engine struct {
	client    CatalogFetcher
	snapshots SnapshotStore
	now       func() time.Time

	mu        sync.Mutex
	catalog   *quiz.Catalog
	lastFetch time.Time
	fetching  bool
}

// NewEngine creates an engine. now may be nil for the wall clock.
func NewEngine(client CatalogFetcher, snapshots SnapshotStore, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{client: client, snapshots: snapshots, now: now}
}

// FetchCatalog retrieves the catalog from the server and, on success,
// swaps it in as the working catalog and stamps the fetch time.
// Authentication failures pass through as api.ErrUnauthenticated; all
// other failures wrap in UnavailableError and leave the previous
// catalog untouched. A concurrent call fails with ErrAlreadyFetching.
func (e *Engine) FetchCatalog(ctx context.Context) (*quiz.Catalog, error) {
	e.mu.Lock()
	if e.fetching {
		e.mu.Unlock()
		return nil, ErrAlreadyFetching
	}
	e.fetching = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.fetching = false
		e.mu.Unlock()
	}()

	catalog, err := e.client.FetchQuizzes(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthenticated) {
			return nil, err
		}
		return nil, &UnavailableError{Err: err}
	}

	e.mu.Lock()
	e.catalog = catalog
	e.lastFetch = e.now()
	e.mu.Unlock()

	return catalog, nil
}

// Catalog returns the current working catalog, or nil before the
// first successful fetch.
func (e *Engine) Catalog() *quiz.Catalog {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog
}

// CacheValid reports whether a catalog is present and was fetched
// within maxAge. Used to skip a re-fetch on every exam start.
func (e *Engine) CacheValid(maxAge time.Duration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog != nil && e.now().Sub(e.lastFetch) < maxAge
}

// CompareAndAdopt diffs the new catalog against the persisted
// snapshot, then unconditionally persists the new catalog's snapshot,
// changes or not. Re-adopting the same catalog yields an empty report.
// Any failure happens before adoption and leaves the old snapshot
// untouched.
func (e *Engine) CompareAndAdopt(ctx context.Context, newCatalog *quiz.Catalog) (*DiffReport, error) {
	oldSnap, err := e.snapshots.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	newSnap := SnapshotOf(newCatalog)
	report := Compare(oldSnap, newSnap)

	if err := e.snapshots.SaveSnapshot(ctx, newSnap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	return report, nil
}

// Refresh is the compound path used before an exam: reuse the cached
// catalog when still valid, otherwise fetch and adopt. The report is
// nil when the cache was used.
func (e *Engine) Refresh(ctx context.Context, maxAge time.Duration) (*quiz.Catalog, *DiffReport, error) {
	if e.CacheValid(maxAge) {
		return e.Catalog(), nil, nil
	}

	catalog, err := e.FetchCatalog(ctx)
	if err != nil {
		return nil, nil, err
	}

	report, err := e.CompareAndAdopt(ctx, catalog)
	if err != nil {
		return nil, nil, err
	}
	return catalog, report, nil
}
