package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TrendRadar/internal/domain/models"
	"TrendRadar/internal/domain/repository"
	pkgkafka "TrendRadar/pkg/kafka"
)

// quotesSchema holds the DDL applied by Init (idempotent).
var quotesSchema = []string{
	`CREATE DATABASE IF NOT EXISTS trendradar`,
	`CREATE TABLE IF NOT EXISTS trendradar.quotes_raw (
        ts        DateTime64(3),
        symbol    LowCardinality(String),
        price     Float64,
        volume    Float64,
        source    LowCardinality(String),
        event_id  String,
        seq       UInt64
    ) ENGINE = ReplacingMergeTree(seq)
    PARTITION BY toYYYYMM(ts)
    ORDER BY (symbol, ts, event_id)`,
}

// ClickHouseStorage implements Storage for ClickHouse.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseStorage creates ClickHouse quote storage.
func NewClickHouseStorage(db *sql.DB, table string) repository.Storage {
	if table == "" {
		table = "trendradar.quotes_raw"
	}
	return &ClickHouseStorage{db: db, table: table}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	for _, stmt := range quotesSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init quotes schema: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseStorage) Store(ctx context.Context, q *models.Quote) error {
	qry := fmt.Sprintf("INSERT INTO %s (ts, symbol, price, volume, source, event_id, seq) VALUES (?, ?, ?, ?, ?, ?, ?)", s.table)
	// Idempotency: event_id and seq derived from symbol+timestamp
	eventID := fmt.Sprintf("%s-%d", q.Symbol, q.Timestamp)
	seq := uint64(q.Timestamp)
	_, err := s.db.ExecContext(ctx, qry,
		time.Unix(q.Timestamp, 0),
		q.Symbol,
		q.Price,
		q.Volume,
		"stream",
		eventID,
		seq,
	)
	return err
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, quotes []*models.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	// Multi-row VALUES insert, chunked to bound statement size.
	const chunkSize = 2000
	for start := 0; start < len(quotes); start += chunkSize {
		end := start + chunkSize
		if end > len(quotes) {
			end = len(quotes)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, q := range quotes[start:end] {
			if q == nil || q.Symbol == "" || q.Timestamp == 0 {
				continue
			}
			eventID := fmt.Sprintf("%s-%d", q.Symbol, q.Timestamp)
			seq := uint64(q.Timestamp)
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				time.Unix(q.Timestamp, 0),
				q.Symbol,
				q.Price,
				q.Volume,
				"stream",
				eventID,
				seq,
			)
		}
		if len(values) == 0 {
			continue
		}
		qry := fmt.Sprintf("INSERT INTO %s (ts, symbol, price, volume, source, event_id, seq) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, qry, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseStorage) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Quote, error) {
	qry := fmt.Sprintf("SELECT symbol, ts, price, volume FROM %s WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, qry, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []*models.Quote
	for rows.Next() {
		var q models.Quote
		var ts time.Time
		if err := rows.Scan(&q.Symbol, &ts, &q.Price, &q.Volume); err != nil {
			return nil, err
		}
		q.Timestamp = ts.Unix()
		quotes = append(quotes, &q)
	}
	return quotes, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // Managed by pkg
}

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates a Kafka quote publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, q *models.Quote) error {
	return p.producer.Publish(ctx, p.topic, []byte(q.Symbol), map[string]interface{}{
		"symbol": q.Symbol,
		"t":      q.Timestamp,
		"c":      q.Price,
		"v":      q.Volume,
	})
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, quotes []*models.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(quotes))
	for i, q := range quotes {
		msgs[i] = pkgkafka.Message{
			Key: []byte(q.Symbol),
			Value: map[string]interface{}{
				"symbol": q.Symbol,
				"t":      q.Timestamp,
				"c":      q.Price,
				"v":      q.Volume,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
