package store

import (
	"context"
	"sync"

	"github.com/KaramelBytes/studentlens/internal/student"
)

// Memory is an in-process Store. Insertion order is kept for FetchAll.
type Memory struct {
	mu    sync.RWMutex
	order []int64
	rows  map[int64]student.Record
}

// NewMemory returns a store seeded with recs. Invalid or duplicate records are rejected.
func NewMemory(recs ...student.Record) (*Memory, error) {
	m := &Memory{rows: make(map[int64]student.Record, len(recs))}
	for _, r := range recs {
		if err := m.Insert(context.Background(), r); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Memory) FetchAll(_ context.Context) (*student.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := make([]student.Record, 0, len(m.order))
	for _, id := range m.order {
		recs = append(recs, m.rows[id])
	}
	return student.NewDataset(recs)
}

func (m *Memory) FetchByID(_ context.Context, id int64) (student.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rows[id]
	if !ok {
		return student.Record{}, ErrNotFound
	}
	return r.Clone(), nil
}

func (m *Memory) DeleteByID(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return false, nil
	}
	delete(m.rows, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *Memory) Insert(_ context.Context, rec student.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[rec.ID]; ok {
		return ErrConflict
	}
	m.rows[rec.ID] = rec.Clone()
	m.order = append(m.order, rec.ID)
	return nil
}

func (m *Memory) Update(_ context.Context, rec student.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[rec.ID]; !ok {
		return ErrNotFound
	}
	m.rows[rec.ID] = rec.Clone()
	return nil
}

// Len returns the number of stored students.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}
