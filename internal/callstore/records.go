package callstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"callwatch/internal/calls"
)

// timeLayout keeps a fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Record is a stored call without its audio payload.
type Record struct {
	ID         int64
	SourceType string
	System     int
	Talkgroup  int
	Frequency  *int
	DateTime   time.Time
	AudioName  string
	AudioType  string
	AudioSize  int
	CreatedAt  time.Time
}

// Insert writes call and returns its row id.
func (s *Store) Insert(ctx context.Context, call calls.Call) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("callstore: store is closed")
	}
	if call.AudioName == "" {
		return 0, errors.New("callstore: call has no audio name")
	}

	var metaJSON sql.NullString
	if call.Meta != nil {
		data, err := json.Marshal(call.Meta)
		if err != nil {
			return 0, fmt.Errorf("encode call metadata: %w", err)
		}
		metaJSON = sql.NullString{String: string(data), Valid: true}
	}
	var frequency sql.NullInt64
	if call.Frequency != nil {
		frequency = sql.NullInt64{Int64: int64(*call.Frequency), Valid: true}
	}
	dateTime := call.DateTime
	if dateTime.IsZero() {
		dateTime = s.now()
	}
	audio := call.Audio
	if audio == nil {
		audio = []byte{}
	}

	res, err := s.execWithRetry(ctx, `INSERT INTO calls (
		source_type, system, talkgroup, frequency, date_time, audio_name, audio_type,
		audio, audio_size, meta_json, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		call.SourceType,
		call.System,
		call.Talkgroup,
		frequency,
		dateTime.UTC().Format(timeLayout),
		call.AudioName,
		call.AudioType,
		audio,
		len(audio),
		metaJSON,
		s.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert call: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read call id: %w", err)
	}
	return id, nil
}

// Recent returns up to limit calls, newest capture time first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT
		id, source_type, system, talkgroup, frequency, date_time, audio_name, audio_type, audio_size, created_at
		FROM calls ORDER BY date_time DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec       Record
			frequency sql.NullInt64
			dateTime  string
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.SourceType, &rec.System, &rec.Talkgroup, &frequency,
			&dateTime, &rec.AudioName, &rec.AudioType, &rec.AudioSize, &createdAt); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		if frequency.Valid {
			f := int(frequency.Int64)
			rec.Frequency = &f
		}
		rec.DateTime, _ = time.Parse(timeLayout, dateTime)
		rec.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}
	return records, nil
}

// Audio returns the stored audio payload of call id.
func (s *Store) Audio(ctx context.Context, id int64) ([]byte, error) {
	var audio []byte
	err := s.db.QueryRowContext(ensureContext(ctx), "SELECT audio FROM calls WHERE id = ?", id).Scan(&audio)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("call %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("read call audio: %w", err)
	}
	return audio, nil
}

// Count returns the number of stored calls.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx), "SELECT COUNT(1) FROM calls").Scan(&count); err != nil {
		return 0, fmt.Errorf("count calls: %w", err)
	}
	return count, nil
}
