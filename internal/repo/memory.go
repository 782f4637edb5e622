package repo

import (
	"context"
	"fmt"
	"sync"

	"hireline/internal/domain"
)

// table is one keyed partition with its own id counter. order holds live ids
// in insertion order; since ids only grow it is also sorted.
type table[T any] struct {
	seq   int64
	rows  map[int64]T
	order []int64
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: map[int64]T{}}
}

func (t *table[T]) insert(build func(id int64) T) T {
	t.seq++
	v := build(t.seq)
	t.rows[t.seq] = v
	t.order = append(t.order, t.seq)
	return v
}

func (t *table[T]) get(id int64) (T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[T]) replace(id int64, v T) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	t.rows[id] = v
	return true
}

func (t *table[T]) delete(id int64) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

func (t *table[T]) scan(keep func(T) bool, clone func(T) T) []T {
	res := make([]T, 0, len(t.order))
	for _, id := range t.order {
		v := t.rows[id]
		if keep(v) {
			res = append(res, clone(v))
		}
	}
	return res
}

// Memory is a process-local Store. State lives and dies with the instance.
type Memory struct {
	mu         sync.RWMutex
	jobs       *table[domain.Job]
	candidates *table[domain.Candidate]
	messages   *table[domain.Message]
	boards     *table[domain.JobBoard]
	posts      *table[domain.JobPost]
	events     *table[domain.Event]
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		jobs:       newTable[domain.Job](),
		candidates: newTable[domain.Candidate](),
		messages:   newTable[domain.Message](),
		boards:     newTable[domain.JobBoard](),
		posts:      newTable[domain.JobPost](),
		events:     newTable[domain.Event](),
	}
}

func (m *Memory) Ping(context.Context) error { return nil }
func (m *Memory) Close() error               { return nil }

func (m *Memory) CreateJob(_ context.Context, j domain.Job) (domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := m.jobs.insert(func(id int64) domain.Job {
		j.ID = id
		return cloneJob(j)
	})
	return cloneJob(created), nil
}

func (m *Memory) GetJob(_ context.Context, id int64) (domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs.get(id)
	if !ok {
		return domain.Job{}, ErrNotFound
	}
	return cloneJob(j), nil
}

func (m *Memory) ListJobs(_ context.Context, f JobFilter) ([]domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs.scan(f.match, cloneJob), nil
}

func (m *Memory) ReplaceJob(_ context.Context, j domain.Job) (domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.jobs.replace(j.ID, cloneJob(j)) {
		return domain.Job{}, ErrNotFound
	}
	return j, nil
}

func (m *Memory) DeleteJob(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.jobs.delete(id) {
		return ErrNotFound
	}
	return nil
}

func (m *Memory) CreateCandidate(_ context.Context, c domain.Candidate) (domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := m.candidates.insert(func(id int64) domain.Candidate {
		c.ID = id
		return cloneCandidate(c)
	})
	return cloneCandidate(created), nil
}

func (m *Memory) GetCandidate(_ context.Context, id int64) (domain.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.candidates.get(id)
	if !ok {
		return domain.Candidate{}, ErrNotFound
	}
	return cloneCandidate(c), nil
}

func (m *Memory) ListCandidates(_ context.Context, f CandidateFilter) ([]domain.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.candidates.scan(f.match, cloneCandidate), nil
}

func (m *Memory) ReplaceCandidate(_ context.Context, c domain.Candidate) (domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.candidates.replace(c.ID, cloneCandidate(c)) {
		return domain.Candidate{}, ErrNotFound
	}
	return c, nil
}

func (m *Memory) CreateMessage(_ context.Context, msg domain.Message) (domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := m.messages.insert(func(id int64) domain.Message {
		msg.ID = id
		return cloneMessage(msg)
	})
	return cloneMessage(created), nil
}

func (m *Memory) GetMessage(_ context.Context, id int64) (domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msg, ok := m.messages.get(id)
	if !ok {
		return domain.Message{}, ErrNotFound
	}
	return cloneMessage(msg), nil
}

func (m *Memory) ListMessages(_ context.Context, f MessageFilter) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.messages.scan(f.match, cloneMessage), nil
}

func (m *Memory) CreateJobBoard(_ context.Context, b domain.JobBoard) (domain.JobBoard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.boards.order {
		if m.boards.rows[id].Slug == b.Slug {
			return domain.JobBoard{}, fmt.Errorf("job board slug %q already exists: %w", b.Slug, ErrConflict)
		}
	}
	created := m.boards.insert(func(id int64) domain.JobBoard {
		b.ID = id
		return cloneJobBoard(b)
	})
	return cloneJobBoard(created), nil
}

func (m *Memory) GetJobBoard(_ context.Context, id int64) (domain.JobBoard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.boards.get(id)
	if !ok {
		return domain.JobBoard{}, ErrNotFound
	}
	return cloneJobBoard(b), nil
}

func (m *Memory) GetJobBoardBySlug(_ context.Context, slug string) (domain.JobBoard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	found := m.boards.scan(func(b domain.JobBoard) bool { return b.Slug == slug }, cloneJobBoard)
	if len(found) == 0 {
		return domain.JobBoard{}, ErrNotFound
	}
	return found[0], nil
}

func (m *Memory) ListJobBoards(_ context.Context) ([]domain.JobBoard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.boards.scan(func(domain.JobBoard) bool { return true }, cloneJobBoard), nil
}

func (m *Memory) CreateJobPost(_ context.Context, p domain.JobPost) (domain.JobPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.boards.get(p.JobBoardID); !ok {
		return domain.JobPost{}, fmt.Errorf("job board %d: %w", p.JobBoardID, ErrNotFound)
	}
	return m.posts.insert(func(id int64) domain.JobPost {
		p.ID = id
		return p
	}), nil
}

func (m *Memory) ListJobPosts(_ context.Context, f JobPostFilter) ([]domain.JobPost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.posts.scan(f.match, func(p domain.JobPost) domain.JobPost { return p }), nil
}

func (m *Memory) AppendEvent(_ context.Context, e domain.Event) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.Payload == "" {
		e.Payload = "{}"
	}
	return m.events.insert(func(id int64) domain.Event {
		e.ID = id
		return e
	}), nil
}

func (m *Memory) ListEvents(_ context.Context, f EventFilter) ([]domain.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.events.scan(f.match, func(e domain.Event) domain.Event { return e }), nil
}

func cloneJob(j domain.Job) domain.Job {
	if j.CloseDate != nil {
		t := *j.CloseDate
		j.CloseDate = &t
	}
	return j
}

func cloneCandidate(c domain.Candidate) domain.Candidate {
	c.Source = cloneString(c.Source)
	c.Notes = cloneString(c.Notes)
	return c
}

func cloneMessage(m domain.Message) domain.Message {
	if m.RelatedStage != nil {
		s := *m.RelatedStage
		m.RelatedStage = &s
	}
	return m
}

func cloneJobBoard(b domain.JobBoard) domain.JobBoard {
	b.LogoURL = cloneString(b.LogoURL)
	return b
}
