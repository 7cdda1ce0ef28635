package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/overlay/internal/data"
)

var (
	// ErrSlotEmpty is returned when reading a slot that was never written.
	ErrSlotEmpty = errors.New("save slot is empty")

	// ErrHashMismatch means the stored blob does not match its hash.
	ErrHashMismatch = errors.New("save blob hash mismatch")
)

// Save is one save slot. Blob is nil in listings.
type Save struct {
	Slot      int
	SessionID string
	Seq       int64
	PlayTime  int64
	Blob      data.Object
	BlobHash  string
}

// WriteSave stores blob in slot, replacing what was there. The returned
// Save carries the slot's new seq and the blob hash.
func (s *Store) WriteSave(ctx context.Context, slot int, sessionID string, playTime int64, blob data.Object) (Save, error) {
	canonical, err := data.MarshalCanonical(blob)
	if err != nil {
		return Save{}, fmt.Errorf("write save: marshal blob: %w", err)
	}
	hash := data.HashBytes(data.DomainSave, canonical)

	var seq int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO saves (slot, session_id, seq, play_time, blob, blob_hash)
		VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			session_id = excluded.session_id,
			seq        = saves.seq + 1,
			play_time  = excluded.play_time,
			blob       = excluded.blob,
			blob_hash  = excluded.blob_hash
		RETURNING seq
	`,
		slot,
		sessionID,
		playTime,
		string(canonical),
		hash,
	).Scan(&seq)
	if err != nil {
		return Save{}, fmt.Errorf("write save: %w", err)
	}

	return Save{
		Slot:      slot,
		SessionID: sessionID,
		Seq:       seq,
		PlayTime:  playTime,
		Blob:      blob,
		BlobHash:  hash,
	}, nil
}

// ReadSave loads slot and verifies its hash.
// Returns ErrSlotEmpty if the slot was never written.
func (s *Store) ReadSave(ctx context.Context, slot int) (Save, error) {
	var (
		save Save
		raw  string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT slot, session_id, seq, play_time, blob, blob_hash
		FROM saves
		WHERE slot = ?
	`, slot).Scan(&save.Slot, &save.SessionID, &save.Seq, &save.PlayTime, &raw, &save.BlobHash)
	if errors.Is(err, sql.ErrNoRows) {
		return Save{}, fmt.Errorf("read save %d: %w", slot, ErrSlotEmpty)
	}
	if err != nil {
		return Save{}, fmt.Errorf("read save %d: %w", slot, err)
	}

	if got := data.HashBytes(data.DomainSave, []byte(raw)); got != save.BlobHash {
		return Save{}, fmt.Errorf("read save %d: %w: stored %s, computed %s", slot, ErrHashMismatch, save.BlobHash, got)
	}

	blob, err := data.UnmarshalObject([]byte(raw))
	if err != nil {
		return Save{}, fmt.Errorf("read save %d: unmarshal blob: %w", slot, err)
	}
	save.Blob = blob
	return save, nil
}

// ListSaves returns every written slot without blobs, ordered by slot.
// Returns an empty slice (not nil) if no slot is written.
func (s *Store) ListSaves(ctx context.Context) ([]Save, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT slot, session_id, seq, play_time, blob_hash
		FROM saves
		ORDER BY slot ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	defer rows.Close()

	saves := []Save{}
	for rows.Next() {
		var save Save
		if err := rows.Scan(&save.Slot, &save.SessionID, &save.Seq, &save.PlayTime, &save.BlobHash); err != nil {
			return nil, fmt.Errorf("scan save: %w", err)
		}
		saves = append(saves, save)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saves: %w", err)
	}
	return saves, nil
}

// DeleteSave empties slot. Deleting an empty slot is not an error.
func (s *Store) DeleteSave(ctx context.Context, slot int) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM saves WHERE slot = ?`, slot); err != nil {
		return fmt.Errorf("delete save %d: %w", slot, err)
	}
	return nil
}
