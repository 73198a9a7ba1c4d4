package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"NewsScreener/internal/domain/models"
	drepo "NewsScreener/internal/domain/repository"
	pkgkafka "NewsScreener/pkg/kafka"
)

// ClickHouseScanStore persists per-symbol scan signals for history queries.
type ClickHouseScanStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseScanStore creates the ClickHouse-backed scan store.
func NewClickHouseScanStore(db *sql.DB, table string) drepo.ScanStore {
	return &ClickHouseScanStore{db: db, table: table}
}

func (s *ClickHouseScanStore) Init(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		scan_id String,
		symbol String,
		generated_at DateTime,
		direction String,
		strength_tier String,
		strength_score Float64,
		action String,
		hold_days Int32,
		last_price Float64,
		volume_ratio Float64,
		price_change Float64,
		news_count Int32
	) ENGINE = MergeTree() ORDER BY (symbol, generated_at)`, s.table)
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// StoreScan inserts one row per screened symbol in a single multi-row insert.
func (s *ClickHouseScanStore) StoreScan(ctx context.Context, res *models.ScanResult) error {
	if res == nil || len(res.PerSymbol) == 0 {
		return nil
	}

	values := make([]string, 0, len(res.PerSymbol))
	args := make([]interface{}, 0, len(res.PerSymbol)*12)
	for _, sym := range res.Universe {
		rec, ok := res.PerSymbol[sym]
		if !ok {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			res.ScanID,
			sym,
			rec.Signal.GeneratedAt,
			string(rec.Signal.Direction),
			string(rec.Signal.StrengthTier),
			rec.Signal.StrengthScore,
			string(rec.Action),
			int32(rec.HoldWindowDays),
			rec.LastPrice,
			rec.VolumeSurgeRatio,
			rec.PriceChangePercent,
			int32(rec.NewsCount),
		)
	}
	if len(values) == 0 {
		return nil
	}

	q := fmt.Sprintf(
		"INSERT INTO %s (scan_id, symbol, generated_at, direction, strength_tier, strength_score, action, hold_days, last_price, volume_ratio, price_change, news_count) VALUES %s",
		s.table, strings.Join(values, ","))
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

// QuerySignals returns stored signals newest first. An empty symbol matches
// every symbol.
func (s *ClickHouseScanStore) QuerySignals(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*drepo.StoredSignal, error) {
	var (
		q    string
		rows *sql.Rows
		err  error
	)
	cols := "scan_id, symbol, generated_at, direction, strength_tier, strength_score, action, hold_days, last_price, volume_ratio, price_change, news_count"
	if symbol == "" {
		q = fmt.Sprintf("SELECT %s FROM %s WHERE generated_at >= ? AND generated_at <= ? ORDER BY generated_at DESC LIMIT ?", cols, s.table)
		rows, err = s.db.QueryContext(ctx, q, from, to, limit)
	} else {
		q = fmt.Sprintf("SELECT %s FROM %s WHERE symbol = ? AND generated_at >= ? AND generated_at <= ? ORDER BY generated_at DESC LIMIT ?", cols, s.table)
		rows, err = s.db.QueryContext(ctx, q, symbol, from, to, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*drepo.StoredSignal
	for rows.Next() {
		var (
			sig      drepo.StoredSignal
			holdDays int32
			newsCnt  int32
		)
		if err := rows.Scan(
			&sig.ScanID,
			&sig.Symbol,
			&sig.GeneratedAt,
			&sig.Direction,
			&sig.StrengthTier,
			&sig.StrengthScore,
			&sig.Action,
			&holdDays,
			&sig.LastPrice,
			&sig.VolumeRatio,
			&sig.PriceChange,
			&newsCnt,
		); err != nil {
			return nil, err
		}
		sig.HoldDays = int(holdDays)
		sig.NewsCount = int(newsCnt)
		out = append(out, &sig)
	}
	return out, rows.Err()
}

func (s *ClickHouseScanStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseScanStore) Close() error {
	return nil // connection owned by pkg/clickhouse
}

// KafkaSignalPublisher fans out actionable recommendations to a Kafka topic,
// keyed by symbol so per-symbol ordering is preserved.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSignalPublisher creates the Kafka publisher.
func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) drepo.SignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, rec *models.Recommendation) error {
	return p.producer.Publish(ctx, p.topic, []byte(rec.Signal.Symbol), signalPayload(rec))
}

func (p *KafkaSignalPublisher) PublishBatch(ctx context.Context, recs []*models.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(recs))
	for i, rec := range recs {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(rec.Signal.Symbol),
			Value: signalPayload(rec),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func signalPayload(rec *models.Recommendation) map[string]interface{} {
	return map[string]interface{}{
		"symbol":         rec.Signal.Symbol,
		"direction":      rec.Signal.Direction,
		"strength_tier":  rec.Signal.StrengthTier,
		"strength_score": rec.Signal.StrengthScore,
		"action":         rec.Action,
		"hold_days":      rec.HoldWindowDays,
		"last_price":     rec.LastPrice,
		"price_change":   rec.PriceChangePercent,
		"volume_ratio":   rec.VolumeSurgeRatio,
		"news_count":     rec.NewsCount,
		"generated_at":   rec.Signal.GeneratedAt,
	}
}
