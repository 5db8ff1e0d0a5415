package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/listforge/listforge-be/internal/domain"
)

// fakeStore is an in-memory SubmissionStore, DirectoryReader and
// ProductReader for engine tests.
type fakeStore struct {
	mu          sync.Mutex
	nextID      int64
	submissions map[int64]*domain.Submission
	directories map[int64]*domain.Directory
	products    map[int64]*domain.SaasProduct

	outcomes []bool

	createErr error
	updateErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:      1,
		submissions: make(map[int64]*domain.Submission),
		directories: make(map[int64]*domain.Directory),
		products:    make(map[int64]*domain.SaasProduct),
	}
}

func (f *fakeStore) addDirectory(d *domain.Directory) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.directories[d.ID] = d
}

func (f *fakeStore) addProduct(p *domain.SaasProduct) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = p
}

func (f *fakeStore) addSubmission(sub *domain.Submission) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sub.ID == 0 {
		sub.ID = f.nextID
		f.nextID++
	}
	clone := *sub
	f.submissions[sub.ID] = &clone
}

func (f *fakeStore) get(id int64) *domain.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sub, ok := f.submissions[id]; ok {
		clone := *sub
		return &clone
	}
	return nil
}

func (f *fakeStore) CreateSubmission(_ context.Context, sub *domain.Submission) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	sub.ID = f.nextID
	f.nextID++
	clone := *sub
	f.submissions[sub.ID] = &clone
	return nil
}

func (f *fakeStore) GetSubmission(_ context.Context, id int64) (*domain.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.submissions[id]
	if !ok {
		return nil, domain.ErrSubmissionNotFound
	}
	clone := *sub
	return &clone, nil
}

func (f *fakeStore) UpdateSubmission(_ context.Context, sub *domain.Submission) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.submissions[sub.ID]; !ok {
		return domain.ErrSubmissionNotFound
	}
	clone := *sub
	f.submissions[sub.ID] = &clone
	return nil
}

func (f *fakeStore) CountSubmissionsByStatus(_ context.Context) (map[domain.SubmissionStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[domain.SubmissionStatus]int)
	for _, sub := range f.submissions {
		counts[sub.Status]++
	}
	return counts, nil
}

func (f *fakeStore) RecordDirectoryOutcome(_ context.Context, directoryID int64, success bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, success)
	if d, ok := f.directories[directoryID]; ok {
		d.TotalSubmissions++
		if success {
			d.SuccessfulSubmissions++
		}
	}
	return nil
}

func (f *fakeStore) GetDirectory(_ context.Context, id int64) (*domain.Directory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.directories[id]
	if !ok {
		return nil, domain.ErrDirectoryNotFound
	}
	return d, nil
}

func (f *fakeStore) CountDirectories(_ context.Context) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total, active := 0, 0
	for _, d := range f.directories {
		total++
		if d.Status == domain.DirectoryActive {
			active++
		}
	}
	return total, active, nil
}

func (f *fakeStore) GetProduct(_ context.Context, id int64) (*domain.SaasProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

// gauge tracks the highest number of simultaneous callers.
type gauge struct {
	mu      sync.Mutex
	current int
	peak    int
}

func (g *gauge) enter() {
	g.mu.Lock()
	g.current++
	if g.current > g.peak {
		g.peak = g.current
	}
	g.mu.Unlock()
}

func (g *gauge) exit() {
	g.mu.Lock()
	g.current--
	g.mu.Unlock()
}

func (g *gauge) max() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.peak
}

// fakeScheduler records scheduled retries.
type fakeScheduler struct {
	mu        sync.Mutex
	scheduled []int64
	err       error
}

func (f *fakeScheduler) ScheduleRetry(_ context.Context, submissionID int64, _ time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, submissionID)
	return nil
}

func (f *fakeScheduler) ids() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.scheduled...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testDirectory(id int64) *domain.Directory {
	return &domain.Directory{
		ID:     id,
		Name:   fmt.Sprintf("directory-%d", id),
		URL:    fmt.Sprintf("https://dir%d.example.com", id),
		Status: domain.DirectoryActive,
	}
}

func testProduct(id int64) *domain.SaasProduct {
	return &domain.SaasProduct{
		ID:           id,
		Name:         "Acme Analytics",
		WebsiteURL:   "https://acme.example.com",
		Description:  "Analytics for small teams",
		ContactEmail: "hello@acme.example.com",
	}
}
