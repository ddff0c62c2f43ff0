package store

import (
	"context"
	"sync"
	"time"

	"github.com/dunamismax/chromaflow/internal/domain"
)

type MemoryStore struct {
	mu      sync.RWMutex
	records map[int64]domain.ImageRecord
	jobs    map[string]domain.ConversionJob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[int64]domain.ImageRecord),
		jobs:    make(map[string]domain.ConversionJob),
	}
}

func (s *MemoryStore) CreateRecord(_ context.Context, rec domain.ImageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return ErrRecordExists
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *MemoryStore) GetRecord(_ context.Context, id int64) (domain.ImageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return domain.ImageRecord{}, ErrRecordNotFound
	}
	return rec, nil
}

func (s *MemoryStore) LookupName(ctx context.Context, id int64) (string, error) {
	rec, err := s.GetRecord(ctx, id)
	if err != nil {
		return "", err
	}
	return rec.RawName, nil
}

func (s *MemoryStore) UpdateConvertedName(_ context.Context, id int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return ErrRecordNotFound
	}
	rec.ConvertedName = name
	rec.UpdatedAt = time.Now().UTC()
	s.records[id] = rec
	return nil
}

func (s *MemoryStore) CreateJob(_ context.Context, job domain.ConversionJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

func (s *MemoryStore) GetJob(_ context.Context, id string) (domain.ConversionJob, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	return job, ok, nil
}

func (s *MemoryStore) UpdateJob(_ context.Context, id string, update JobUpdate) (domain.ConversionJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.ConversionJob{}, ErrJobNotFound
	}

	update.apply(&job)
	job.UpdatedAt = time.Now().UTC()
	s.jobs[id] = job
	return job, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
