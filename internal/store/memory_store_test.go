package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dunamismax/chromaflow/internal/colorspace"
	"github.com/dunamismax/chromaflow/internal/domain"
)

var (
	_ RecordStore = (*MemoryStore)(nil)
	_ JobStore    = (*MemoryStore)(nil)
	_ RecordStore = (*PostgresStore)(nil)
	_ JobStore    = (*PostgresStore)(nil)
)

func TestMemoryStoreRecords(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now().UTC()

	if err := s.CreateRecord(ctx, domain.ImageRecord{ID: 1, RawName: "cat.png", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("create record: %v", err)
	}
	if err := s.CreateRecord(ctx, domain.ImageRecord{ID: 1, RawName: "dog.png"}); !errors.Is(err, ErrRecordExists) {
		t.Fatalf("expected ErrRecordExists, got %v", err)
	}

	name, err := s.LookupName(ctx, 1)
	if err != nil {
		t.Fatalf("lookup name: %v", err)
	}
	if name != "cat.png" {
		t.Fatalf("expected cat.png, got %s", name)
	}

	if err := s.UpdateConvertedName(ctx, 1, "converted_cat.png"); err != nil {
		t.Fatalf("update converted name: %v", err)
	}
	rec, err := s.GetRecord(ctx, 1)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.ConvertedName != "converted_cat.png" {
		t.Fatalf("expected converted name to be stored, got %q", rec.ConvertedName)
	}
	if rec.RawName != "cat.png" {
		t.Fatalf("raw name must not change, got %q", rec.RawName)
	}

	if _, err := s.LookupName(ctx, 2); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if err := s.UpdateConvertedName(ctx, 2, "x"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound on update, got %v", err)
	}
}

func TestMemoryStoreJobs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.CreateJob(ctx, domain.ConversionJob{
		ID:      "job-1",
		ImageID: 1,
		Mode:    colorspace.ModeHSV,
		Status:  domain.JobStatusQueued,
	}); err != nil {
		t.Fatalf("create job: %v", err)
	}

	job, err := s.UpdateJob(ctx, "job-1", JobUpdate{Status: domain.JobStatusSucceeded, ConvertedName: "converted_cat.png"})
	if err != nil {
		t.Fatalf("update job: %v", err)
	}
	if job.Status != domain.JobStatusSucceeded || job.ConvertedName != "converted_cat.png" {
		t.Fatalf("unexpected job after update: %+v", job)
	}

	job, err = s.UpdateJob(ctx, "job-1", JobUpdate{Error: "boom"})
	if err != nil {
		t.Fatalf("update job error: %v", err)
	}
	if job.Status != domain.JobStatusSucceeded {
		t.Fatalf("empty status must keep previous value, got %s", job.Status)
	}

	if _, ok, _ := s.GetJob(ctx, "missing"); ok {
		t.Fatal("expected missing job lookup to report not found")
	}
	if _, err := s.UpdateJob(ctx, "missing", JobUpdate{Status: domain.JobStatusFailed}); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestOpenWithoutDSNUsesMemory(t *testing.T) {
	s, err := Open(context.Background(), "  ")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if _, ok := s.(*MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", s)
	}
}
