package queue

import (
	"github.com/caselight/backend/pkg/common"
)

// Queue names the server publishes to and the worker consumes from.
const (
	BuildQueue       = "build_queue"
	IncrementalQueue = "incremental_queue"
	DeleteQueue      = "delete_queue"
)

// QueueNames lists every work queue, in the order they are declared.
var QueueNames = []string{BuildQueue, IncrementalQueue, DeleteQueue}

// QueueBuildMsg is the payload of a full-build job. CorrelationID ties
// the job to its enqueue request across log lines and status events.
type QueueBuildMsg struct {
	Message       string           `json:"message"`
	GraphID       string           `json:"graph_id"`
	CorrelationID string           `json:"correlation_id"`
	Mentions      []common.Mention `json:"mentions"`
	Mode          string           `json:"mode,omitempty"`
	ClusterLabel  string           `json:"cluster_label,omitempty"`
	Rebuild       bool             `json:"rebuild,omitempty"`
}

// QueueIncrementalMsg is the payload of an incremental-update job.
type QueueIncrementalMsg struct {
	Message       string           `json:"message"`
	GraphID       string           `json:"graph_id"`
	CorrelationID string           `json:"correlation_id"`
	Mentions      []common.Mention `json:"mentions"`
	Mode          string           `json:"mode,omitempty"`
	ClusterLabel  string           `json:"cluster_label,omitempty"`
}

// QueueDeleteMsg is the payload of a document-removal job.
type QueueDeleteMsg struct {
	Message       string   `json:"message"`
	GraphID       string   `json:"graph_id"`
	CorrelationID string   `json:"correlation_id"`
	DocumentIDs   []string `json:"document_ids"`
}

// GraphEventMsg is published on the pubsub exchange when a job finishes,
// so interested consumers can react without polling.
type GraphEventMsg struct {
	GraphID       string `json:"graph_id"`
	CorrelationID string `json:"correlation_id"`
	Operation     string `json:"operation"`
	Status        string `json:"status"`
	Detail        any    `json:"detail,omitempty"`
}
