package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TrendRadar/internal/domain/models"
	domrepo "TrendRadar/internal/domain/repository"
	pkgch "TrendRadar/pkg/clickhouse"
	applogger "TrendRadar/pkg/logger"
)

// datasetSchema holds the DDL applied by Init (idempotent).
var datasetSchema = []string{
	`CREATE DATABASE IF NOT EXISTS trendradar`,
	`CREATE TABLE IF NOT EXISTS trendradar.labeled_signals (
        symbol         LowCardinality(String),
        timeframe      LowCardinality(String),
        entry_date     DateTime,
        entry_price    Float64,
        stage          Int32,
        buy_point      Float64,
        stop_loss      Float64,
        has_buy_point  UInt8,
        has_uptrend    UInt8,
        has_rs_chaikin UInt8,
        features       Array(Float64),
        outcome        Int32,
        gain           Float64,
        bars_held      Int32,
        target_pct     Float64
    ) ENGINE = ReplacingMergeTree
    PARTITION BY toYYYYMM(entry_date)
    ORDER BY (timeframe, symbol, entry_date)`,
	`CREATE TABLE IF NOT EXISTS trendradar.model_artifacts (
        timeframe        LowCardinality(String),
        version          String,
        payload          String,
        training_samples Int32,
        success_rate     Float64,
        accuracy         Float64,
        target_pct       Float64,
        trained_at       DateTime
    ) ENGINE = ReplacingMergeTree
    ORDER BY (timeframe, version)`,
}

// CHDatasetStore keeps labeled signals and versioned model artifacts in
// ClickHouse.
type CHDatasetStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHDatasetStore(ch *pkgch.Client) *CHDatasetStore {
	return &CHDatasetStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHDatasetStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHDatasetStore) Init(ctx context.Context) error {
	for _, stmt := range datasetSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init dataset schema: %w", err)
		}
	}
	return nil
}

func (s *CHDatasetStore) StoreBatch(ctx context.Context, rows []models.LabeledSignal) error {
	if len(rows) == 0 {
		return nil
	}
	start := time.Now()
	const chunkSize = 1000
	for lo := 0; lo < len(rows); lo += chunkSize {
		hi := lo + chunkSize
		if hi > len(rows) {
			hi = len(rows)
		}
		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*15)
		for i := lo; i < hi; i++ {
			r := &rows[i]
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.Symbol,
				r.Timeframe,
				r.EntryDate,
				r.EntryPrice,
				int32(r.Stage),
				r.BuyPoint,
				r.StopLoss,
				boolU8(r.Flags.HasBuyPoint),
				boolU8(r.Flags.HasUptrend),
				boolU8(r.Flags.HasRSChaikin),
				r.Features,
				int32(r.Outcome),
				r.Gain,
				int32(r.BarsHeld),
				r.TargetPct,
			)
		}
		q := "INSERT INTO trendradar.labeled_signals (symbol, timeframe, entry_date, entry_price, stage, buy_point, stop_loss, has_buy_point, has_uptrend, has_rs_chaikin, features, outcome, gain, bars_held, target_pct) VALUES " + strings.Join(values, ",")
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse store_labeled insert error",
					applogger.Int("rows", hi-lo),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("store labeled signals: %w", err)
		}
	}
	if s.l != nil {
		s.l.Info("clickhouse store_labeled ok",
			applogger.Int("rows", len(rows)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHDatasetStore) GetDataset(ctx context.Context, tf domrepo.Timeframe, limit int) ([]models.LabeledSignal, error) {
	start := time.Now()
	const q = `
        SELECT symbol, timeframe, entry_date, entry_price, stage, buy_point, stop_loss,
               has_buy_point, has_uptrend, has_rs_chaikin, features, outcome, gain, bars_held, target_pct
        FROM trendradar.labeled_signals
        WHERE timeframe = ?
        ORDER BY entry_date ASC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, string(tf), limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_dataset query error",
				applogger.String("tf", string(tf)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get dataset: %w", err)
	}
	defer rows.Close()

	out := make([]models.LabeledSignal, 0, 1024)
	for rows.Next() {
		var (
			r              models.LabeledSignal
			stage, outcome int32
			barsHeld       int32
			bp, up, rsc    uint8
		)
		if err := rows.Scan(&r.Symbol, &r.Timeframe, &r.EntryDate, &r.EntryPrice, &stage, &r.BuyPoint, &r.StopLoss,
			&bp, &up, &rsc, &r.Features, &outcome, &r.Gain, &barsHeld, &r.TargetPct); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse get_dataset scan error",
					applogger.String("tf", string(tf)),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan labeled signal: %w", err)
		}
		r.Stage = models.Stage(stage)
		r.Outcome = models.Outcome(outcome)
		r.BarsHeld = int(barsHeld)
		r.Flags = models.QualityFlags{HasBuyPoint: bp != 0, HasUptrend: up != 0, HasRSChaikin: rsc != 0}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse get_dataset ok",
			applogger.String("tf", string(tf)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHDatasetStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHDatasetStore) Close() error {
	return nil // Managed by pkg
}

func (s *CHDatasetStore) SaveModel(ctx context.Context, tf domrepo.Timeframe, version string, payload []byte, report models.TrainReport) error {
	if version == "" {
		return fmt.Errorf("model version required")
	}
	// Versions are immutable: refuse to overwrite.
	var exists uint8
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM trendradar.model_artifacts WHERE timeframe = ? AND version = ? LIMIT 1",
		string(tf), version,
	).Scan(&exists)
	if err == nil {
		return fmt.Errorf("model version %s/%s already exists", tf, version)
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("check model version: %w", err)
	}

	const q = `
        INSERT INTO trendradar.model_artifacts
            (timeframe, version, payload, training_samples, success_rate, accuracy, target_pct, trained_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err = s.db.ExecContext(ctx, q,
		string(tf),
		version,
		string(payload),
		int32(report.TrainingSamples),
		report.SuccessRate,
		report.Accuracy,
		report.TargetPct,
		report.TrainedAt,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse save_model error",
				applogger.String("tf", string(tf)),
				applogger.String("version", version),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("save model: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse save_model ok",
			applogger.String("tf", string(tf)),
			applogger.String("version", version),
			applogger.Int("bytes", len(payload)),
		)
	}
	return nil
}

func (s *CHDatasetStore) LoadModel(ctx context.Context, tf domrepo.Timeframe, version string) ([]byte, string, error) {
	var (
		payload string
		got     string
		err     error
	)
	if version == "" {
		err = s.db.QueryRowContext(ctx,
			"SELECT payload, version FROM trendradar.model_artifacts WHERE timeframe = ? ORDER BY trained_at DESC LIMIT 1",
			string(tf),
		).Scan(&payload, &got)
	} else {
		err = s.db.QueryRowContext(ctx,
			"SELECT payload, version FROM trendradar.model_artifacts WHERE timeframe = ? AND version = ? LIMIT 1",
			string(tf), version,
		).Scan(&payload, &got)
	}
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("no model for timeframe %s", tf)
	}
	if err != nil {
		return nil, "", fmt.Errorf("load model: %w", err)
	}
	return []byte(payload), got, nil
}

func (s *CHDatasetStore) ListVersions(ctx context.Context, tf domrepo.Timeframe) ([]models.TrainReport, error) {
	const q = `
        SELECT version, training_samples, success_rate, accuracy, target_pct, trained_at
        FROM trendradar.model_artifacts
        WHERE timeframe = ?
        ORDER BY trained_at DESC
    `
	rows, err := s.db.QueryContext(ctx, q, string(tf))
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var out []models.TrainReport
	for rows.Next() {
		var (
			r       models.TrainReport
			samples int32
		)
		if err := rows.Scan(&r.Version, &samples, &r.SuccessRate, &r.Accuracy, &r.TargetPct, &r.TrainedAt); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		r.Timeframe = string(tf)
		r.TrainingSamples = int(samples)
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolU8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

var (
	_ domrepo.DatasetStore = (*CHDatasetStore)(nil)
	_ domrepo.ModelStore   = (*CHDatasetStore)(nil)
)
