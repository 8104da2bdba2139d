package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/caselight/backend/internal/storage"
	"github.com/caselight/backend/pkg/ai"
	"github.com/caselight/backend/pkg/graph"
	"github.com/caselight/backend/pkg/logger"
	"github.com/caselight/backend/pkg/provenance"
	"github.com/caselight/backend/pkg/resolve"
	graphstorage "github.com/caselight/backend/pkg/store/pgx"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
)

// newGraphClient assembles a client over the shared connection pool. The
// worker handles one message at a time, which gives every mutating
// operation the exclusive transaction it expects.
func newGraphClient(conn *pgxpool.Pool, classifier ai.RelationClassifier) (*graph.GraphClient, error) {
	return graph.NewGraphClient(graph.NewGraphClientParams{
		Store:      graphstorage.NewGraphDBStore(conn),
		Provenance: provenance.NewDBRecorder(conn),
		Classifier: classifier,
	})
}

func ProcessBuildMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	classifier ai.RelationClassifier,
	ch *amqp091.Channel,
	conn *pgxpool.Pool,
	msg string,
) error {
	data := new(QueueBuildMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("failed to decode build message: %w", err)
	}

	client, err := newGraphClient(conn, classifier)
	if err != nil {
		return err
	}

	logger.Info("[Queue] Building graph", "graph_id", data.GraphID, "correlation_id", data.CorrelationID, "mentions", len(data.Mentions))

	result, err := client.Build(ctx, graph.BuildParams{
		GraphID:      data.GraphID,
		Mentions:     data.Mentions,
		Mode:         resolve.Mode(data.Mode),
		ClusterLabel: data.ClusterLabel,
		Rebuild:      data.Rebuild,
	})
	if err != nil {
		// A duplicate delivery of a finished build is not a failure.
		if errors.Is(err, graph.ErrGraphExists) && !data.Rebuild {
			logger.Warn("[Queue] Graph already built, dropping message", "graph_id", data.GraphID, "correlation_id", data.CorrelationID)
			return nil
		}
		return fmt.Errorf("build failed for graph %s: %w", data.GraphID, err)
	}

	logger.Info("[Queue] Graph built", "graph_id", data.GraphID, "nodes", result.Nodes, "links", result.Links, "edges", result.Edges)

	if err := uploadSnapshot(ctx, s3Client, client, data.GraphID); err != nil {
		logger.Error("[Queue] Failed to upload snapshot", "graph_id", data.GraphID, "err", err)
	}

	publishEvent(ch, GraphEventMsg{
		GraphID:       data.GraphID,
		CorrelationID: data.CorrelationID,
		Operation:     "build",
		Status:        "done",
		Detail:        result,
	})

	return nil
}

func ProcessIncrementalMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	classifier ai.RelationClassifier,
	ch *amqp091.Channel,
	conn *pgxpool.Pool,
	msg string,
) error {
	data := new(QueueIncrementalMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("failed to decode incremental message: %w", err)
	}

	client, err := newGraphClient(conn, classifier)
	if err != nil {
		return err
	}

	logger.Info("[Queue] Updating graph", "graph_id", data.GraphID, "correlation_id", data.CorrelationID, "mentions", len(data.Mentions))

	result, err := client.Incremental(ctx, graph.IncrementalParams{
		GraphID:      data.GraphID,
		Mentions:     data.Mentions,
		Mode:         resolve.Mode(data.Mode),
		ClusterLabel: data.ClusterLabel,
	})
	if err != nil {
		return fmt.Errorf("incremental update failed for graph %s: %w", data.GraphID, err)
	}

	logger.Info("[Queue] Graph updated", "graph_id", data.GraphID, "new_nodes", result.NewNodes, "new_links", result.NewLinks, "skipped", result.Skipped)

	if err := uploadSnapshot(ctx, s3Client, client, data.GraphID); err != nil {
		logger.Error("[Queue] Failed to upload snapshot", "graph_id", data.GraphID, "err", err)
	}

	publishEvent(ch, GraphEventMsg{
		GraphID:       data.GraphID,
		CorrelationID: data.CorrelationID,
		Operation:     "incremental",
		Status:        "done",
		Detail:        result,
	})

	return nil
}

func ProcessDeleteMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	classifier ai.RelationClassifier,
	ch *amqp091.Channel,
	conn *pgxpool.Pool,
	msg string,
) error {
	data := new(QueueDeleteMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("failed to decode delete message: %w", err)
	}

	client, err := newGraphClient(conn, classifier)
	if err != nil {
		return err
	}

	logger.Info("[Queue] Removing documents", "graph_id", data.GraphID, "correlation_id", data.CorrelationID, "documents", len(data.DocumentIDs))

	result, err := client.DeleteDocuments(ctx, data.GraphID, data.DocumentIDs)
	if err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			logger.Warn("[Queue] Graph not found, dropping message", "graph_id", data.GraphID, "correlation_id", data.CorrelationID)
			return nil
		}
		return fmt.Errorf("document removal failed for graph %s: %w", data.GraphID, err)
	}

	logger.Info("[Queue] Documents removed", "graph_id", data.GraphID, "links_removed", result.LinksRemoved, "nodes_removed", result.NodesRemoved, "edges_removed", result.EdgesRemoved)

	if err := uploadSnapshot(ctx, s3Client, client, data.GraphID); err != nil {
		logger.Error("[Queue] Failed to upload snapshot", "graph_id", data.GraphID, "err", err)
	}

	publishEvent(ch, GraphEventMsg{
		GraphID:       data.GraphID,
		CorrelationID: data.CorrelationID,
		Operation:     "delete",
		Status:        "done",
		Detail:        result,
	})

	return nil
}

// uploadSnapshot exports the graph and writes it to object storage, so
// consumers can fetch the latest state without hitting the database.
func uploadSnapshot(ctx context.Context, s3Client *awss3.Client, client *graph.GraphClient, graphID string) error {
	if s3Client == nil {
		return nil
	}

	export, err := client.Export(ctx, graphID)
	if err != nil {
		return fmt.Errorf("failed to export graph: %w", err)
	}

	payload, err := json.Marshal(export)
	if err != nil {
		return fmt.Errorf("failed to marshal export: %w", err)
	}

	key, err := storage.PutSnapshot(ctx, s3Client, graphID, payload)
	if err != nil {
		return err
	}

	logger.Info("[Queue] Snapshot uploaded", "graph_id", graphID, "key", key)
	return nil
}

func publishEvent(ch *amqp091.Channel, event GraphEventMsg) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("[Queue] Failed to marshal event", "graph_id", event.GraphID, "err", err)
		return
	}

	topic := fmt.Sprintf("graph.%s.%s", event.Operation, event.Status)
	if err := PublishTopic(ch, topic, payload); err != nil {
		logger.Error("[Queue] Failed to publish event", "topic", topic, "err", err)
	}
}
