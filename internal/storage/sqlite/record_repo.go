package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"plugfolio-deployer/internal/domain"
)

// RecordRepository stands in for a DNS provider on local runs. Records
// are keyed by zone, name and type, so an upsert never duplicates.
type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) UpsertARecord(ctx context.Context, zone, name, ip string, ttl int64) error {
	query := `
	INSERT INTO dns_records (zone, name, type, value, ttl, updated_at) VALUES (?, ?, 'A', ?, ?, ?)
	ON CONFLICT (zone, name, type) DO UPDATE SET
		value = excluded.value,
		ttl = excluded.ttl,
		updated_at = excluded.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, zone, name, ip, ttl, domain.FormatTimestamp(time.Now())); err != nil {
		return fmt.Errorf("failed to upsert record %s: %w", name, err)
	}

	return nil
}

func (r *RecordRepository) List(ctx context.Context, zone string) ([]domain.DNSRecord, error) {
	query := `SELECT zone, name, type, value, ttl, updated_at FROM dns_records WHERE zone = ? ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, zone)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []domain.DNSRecord
	for rows.Next() {
		var rec domain.DNSRecord
		if err := rows.Scan(&rec.Zone, &rec.Name, &rec.Type, &rec.Value, &rec.TTL, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
