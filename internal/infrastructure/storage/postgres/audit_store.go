package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"pharmaledger/internal/domain/audit"
)

// compression algorithm markers stored next to the payload
const (
	compressionNone = "none"
	compressionZstd = "zstd"
)

// AuditStore implements audit.Store on the activity_log table. Detail
// payloads above the threshold are stored zstd-compressed.
type AuditStore struct {
	tx *TxManager

	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var _ audit.Store = (*AuditStore)(nil)

func NewAuditStore(tx *TxManager) (*AuditStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditStore{
		tx:                tx,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Append persists one event.
func (s *AuditStore) Append(ctx context.Context, event audit.Event) error {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	var compressed []byte
	algo := compressionNone
	if len(details) > s.compressThreshold {
		compressed = s.encoder.EncodeAll(details, nil)
		details = nil
		algo = compressionZstd
	}

	const query = `
		INSERT INTO activity_log (
			id, actor, action, subject_id,
			details, details_compressed, compression_algo, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = s.tx.GetQuerier(ctx).Exec(ctx, query,
		event.ID, event.Actor, event.Action, event.SubjectID,
		details, compressed, algo, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert activity log entry: %w", err)
	}
	return nil
}

// List returns events newest first.
func (s *AuditStore) List(ctx context.Context, filter audit.Filter) ([]audit.Event, error) {
	query := `
		SELECT id, actor, action, subject_id,
		       details, details_compressed, compression_algo, recorded_at
		FROM activity_log
		WHERE 1=1`
	args := []any{}

	if filter.Actor != "" {
		args = append(args, filter.Actor)
		query += fmt.Sprintf(" AND actor = $%d", len(args))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if filter.FromDate != nil {
		args = append(args, *filter.FromDate)
		query += fmt.Sprintf(" AND recorded_at >= $%d", len(args))
	}
	if filter.ToDate != nil {
		args = append(args, *filter.ToDate)
		query += fmt.Sprintf(" AND recorded_at <= $%d", len(args))
	}

	query += " ORDER BY recorded_at DESC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.tx.GetQuerier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity log: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event      audit.Event
			details    []byte
			compressed []byte
			algo       string
		)
		if err := rows.Scan(
			&event.ID, &event.Actor, &event.Action, &event.SubjectID,
			&details, &compressed, &algo, &event.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan activity log entry: %w", err)
		}

		if algo == compressionZstd && len(compressed) > 0 {
			details, err = s.decoder.DecodeAll(compressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress details: %w", err)
			}
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &event.Details); err != nil {
				return nil, fmt.Errorf("unmarshal details: %w", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
