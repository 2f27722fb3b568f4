// Package publisher persists comparison jobs to PostgreSQL and publishes
// them to Kafka for the worker pool. A job that is stored but fails to
// publish stays PENDING and is surfaced through the job history rather
// than failing the submission.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/synocheck/synocheck/internal/compare"
	"github.com/synocheck/synocheck/internal/jobs"
	"github.com/synocheck/synocheck/internal/store"
	"github.com/synocheck/synocheck/pkg/kafka"
)

// Publisher coordinates job persistence and Kafka event production.
type Publisher struct {
	store    *store.Store
	producer *kafka.Producer
	logger   *slog.Logger
}

// New creates a Publisher with the given store and Kafka producer.
func New(st *store.Store, producer *kafka.Producer) *Publisher {
	return &Publisher{
		store:    st,
		producer: producer,
		logger:   slog.Default().With("component", "job-publisher"),
	}
}

// Submit persists the comparison request as a PENDING job and publishes a
// CompareJob event keyed by the job id.
func (p *Publisher) Submit(ctx context.Context, req *compare.Request) (*jobs.SubmitResponse, error) {
	id, err := p.store.CreateJob(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("creating compare job: %w", err)
	}

	event := kafka.Event{
		Key: id,
		Value: jobs.CompareJob{
			JobID:       id,
			TupleSize:   req.TupleSize,
			Synonyms:    req.Synonyms,
			Reference:   req.Reference,
			Candidate:   req.Candidate,
			SubmittedAt: time.Now().UTC(),
		},
	}
	if err := p.producer.Publish(ctx, event); err != nil {
		p.logger.Error("failed to publish to kafka, job stuck in PENDING",
			"job_id", id,
			"error", err,
		)
	}
	return &jobs.SubmitResponse{JobID: id, Status: jobs.StatusPending}, nil
}
