package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Pulkit320/market-scope/internal/domain/models"
	domrepo "github.com/Pulkit320/market-scope/internal/domain/repository"
	"github.com/Pulkit320/market-scope/internal/services/export"
	pkgkafka "github.com/Pulkit320/market-scope/pkg/kafka"
)

// PredictionsSchema creates the predictions table used by CHPredictionStore.
func PredictionsSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
            run_id      UUID,
            exported_at DateTime64(3, 'UTC'),
            asset_id    LowCardinality(String),
            symbol      LowCardinality(String),
            price       Float64,
            change_24h  Float64,
            direction   LowCardinality(String),
            confidence  UInt8,
            label       LowCardinality(String),
            probability Float64,
            mock        UInt8
        ) ENGINE = MergeTree
        ORDER BY (asset_id, exported_at)`, database, table),
	}
}

// CHPredictionStore implements ExportSink by appending one row per record to ClickHouse.
type CHPredictionStore struct {
	db    *sql.DB
	table string
}

func NewCHPredictionStore(db *sql.DB, database, table string) *CHPredictionStore {
	return &CHPredictionStore{db: db, table: database + "." + table}
}

func (s *CHPredictionStore) Name() string { return "clickhouse" }

func (s *CHPredictionStore) Publish(ctx context.Context, run models.ExportRun) error {
	q, args := predictionInsert(s.table, run)
	if q == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert predictions: %w", err)
	}
	return nil
}

// Close is a no-op; the pool is owned by pkg/clickhouse.
func (s *CHPredictionStore) Close() error { return nil }

const predictionColumns = "run_id, exported_at, asset_id, symbol, price, change_24h, direction, confidence, label, probability, mock"

// predictionInsert builds one multi-row INSERT for the run. It returns an empty query for an empty document.
func predictionInsert(table string, run models.ExportRun) (string, []interface{}) {
	if len(run.Document) == 0 {
		return "", nil
	}
	values := make([]string, 0, len(run.Document))
	args := make([]interface{}, 0, len(run.Document)*11)
	for _, r := range run.Document {
		var mock uint8
		if r.Prediction.Mock() {
			mock = 1
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			run.ID,
			run.GeneratedAt,
			r.ID,
			r.Symbol,
			r.Price,
			r.Change24h,
			string(r.Prediction.Direction),
			uint8(r.Prediction.Confidence),
			string(r.Prediction.Label),
			r.Prediction.Probability,
			mock,
		)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, predictionColumns, strings.Join(values, ","))
	return q, args
}

// KafkaRecordPublisher implements ExportSink by publishing one message per record, keyed by asset id.
type KafkaRecordPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	opts     export.EncodeOptions
}

func NewKafkaRecordPublisher(producer *pkgkafka.Producer, topic string, opts export.EncodeOptions) *KafkaRecordPublisher {
	return &KafkaRecordPublisher{producer: producer, topic: topic, opts: opts}
}

func (p *KafkaRecordPublisher) Name() string { return "kafka" }

func (p *KafkaRecordPublisher) Publish(ctx context.Context, run models.ExportRun) error {
	return p.producer.PublishBatch(ctx, p.topic, recordMessages(run, p.opts))
}

func (p *KafkaRecordPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func recordMessages(run models.ExportRun, opts export.EncodeOptions) []pkgkafka.Message {
	msgs := make([]pkgkafka.Message, len(run.Document))
	for i, r := range run.Document {
		msgs[i] = pkgkafka.Message{
			Key: []byte(r.ID),
			Value: export.Envelope{
				RunID:       run.ID,
				GeneratedAt: run.GeneratedAt,
				RecordDTO:   export.ToDTO(r, opts),
			},
		}
	}
	return msgs
}

var (
	_ domrepo.ExportSink = (*CHPredictionStore)(nil)
	_ domrepo.ExportSink = (*KafkaRecordPublisher)(nil)
)
