package model

import (
	"time"

	"github.com/google/uuid"
)

type Status uint8

const (
	StatusNew Status = iota
	StatusDone
	StatusFailed
)

// DataPoint is one input vector of a run, kept alongside the run so results
// stay reproducible after the source data moves on.
type DataPoint struct {
	ID        string
	Vec       []float64
	CreatedAt time.Time
}

// Run is one clustering request with its parameters, input data and, once
// processed, the resulting partition.
type Run struct {
	ID         uuid.UUID
	EntityID   string
	Eps        float64
	MinPoints  int32
	Metric     string
	Status     Status
	Data       []DataPoint
	Clusters   map[int32][]string
	Labels     map[string]int32
	Error      string
	CreatedAt  time.Time
	FinishedAt time.Time
}

func NewRun(entityID string, eps float64, minPoints int, metric string, data []DataPoint) Run {
	return Run{
		ID:        uuid.New(),
		EntityID:  entityID,
		Eps:       eps,
		MinPoints: int32(minPoints),
		Metric:    metric,
		Status:    StatusNew,
		Data:      data,
		CreatedAt: time.Now(),
	}
}

func (r Run) IsNew() bool {
	return r.Status == StatusNew
}

func (r Run) IsDone() bool {
	return r.Status == StatusDone
}

func (r Run) IsFailed() bool {
	return r.Status == StatusFailed
}
