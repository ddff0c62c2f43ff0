package store

import (
	"context"
	"errors"

	"github.com/dunamismax/chromaflow/internal/domain"
)

var (
	ErrRecordNotFound = errors.New("image record not found")
	ErrRecordExists   = errors.New("image record already exists")
	ErrJobNotFound    = errors.New("job not found")
)

type RecordStore interface {
	CreateRecord(ctx context.Context, rec domain.ImageRecord) error
	GetRecord(ctx context.Context, id int64) (domain.ImageRecord, error)
	LookupName(ctx context.Context, id int64) (string, error)
	UpdateConvertedName(ctx context.Context, id int64, name string) error
}

type JobStore interface {
	CreateJob(ctx context.Context, job domain.ConversionJob) error
	GetJob(ctx context.Context, id string) (domain.ConversionJob, bool, error)
	UpdateJob(ctx context.Context, id string, update JobUpdate) (domain.ConversionJob, error)
}

// JobUpdate carries the fields a worker changes on a job. Empty strings
// leave the stored value untouched.
type JobUpdate struct {
	Status        string
	ConvertedName string
	Error         string
}

func (u JobUpdate) apply(job *domain.ConversionJob) {
	if u.Status != "" {
		job.Status = u.Status
	}
	if u.ConvertedName != "" {
		job.ConvertedName = u.ConvertedName
	}
	if u.Error != "" {
		job.Error = u.Error
	}
}
