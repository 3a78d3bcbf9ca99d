package integration

import "time"

type DataPoint struct {
	ID        string    `json:"id"`
	Vec       []float64 `json:"vector"`
	CreatedAt time.Time `json:"createdAt"`
}

type SubmitRequest struct {
	EntityID  string      `json:"entity"`
	Eps       float64     `json:"eps"`
	MinPoints int         `json:"minPoints"`
	Metric    string      `json:"metric"`
	Data      []DataPoint `json:"data"`
}

type SubmitResponse struct {
	RunID string `json:"runId"`
}

type Dataset struct {
	ID   string      `json:"id"`
	Data []DataPoint `json:"data"`
}

type ClusterizeRequest struct {
	EntityID  string    `json:"entity"`
	Eps       float64   `json:"eps"`
	MinPoints int       `json:"minPoints"`
	Metric    string    `json:"metric"`
	Datasets  []Dataset `json:"datasets"`
}

type Partition struct {
	DatasetID string           `json:"datasetId"`
	Clusters  map[int][]string `json:"clusters"`
	Labels    map[string]int32 `json:"labels"`
}

type ClusterizeResponse struct {
	EntityID string      `json:"entity"`
	Results  []Partition `json:"results"`
}

type ResultsResponse struct {
	RunID      string             `json:"runId"`
	EntityID   string             `json:"entityId"`
	Status     string             `json:"status"`
	Clusters   map[int32][]string `json:"clusters,omitempty"`
	Labels     map[string]int32   `json:"labels,omitempty"`
	Error      string             `json:"error,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
	FinishedAt *time.Time         `json:"finishedAt,omitempty"`
}
