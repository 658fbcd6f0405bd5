package checkpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/abhisek/lessonplayer/internal/clock"
	"github.com/abhisek/lessonplayer/internal/exploration"
	"github.com/abhisek/lessonplayer/internal/store"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
)

const keyPrefix = "checkpoint/"

// DefaultQuotaBytes is the per-profile budget for stored checkpoints.
const DefaultQuotaBytes = 2 * 1024 * 1024

// Controller saves, loads and deletes checkpoints keyed by
// (profile, exploration).
type Controller struct {
	kv     store.KV
	quota  int64
	clock  clock.Clock
	logger *zap.Logger
	schema *jsonschema.Schema
}

// New creates a Controller enforcing quotaBytes per profile.
func New(kv store.KV, quotaBytes int64, clk clock.Clock, logger *zap.Logger) (*Controller, error) {
	if quotaBytes <= 0 {
		return nil, fmt.Errorf("checkpoint quota must be positive, got %d", quotaBytes)
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	schema, err := compileRecordSchema()
	if err != nil {
		return nil, fmt.Errorf("checkpoint schema: %w", err)
	}
	return &Controller{
		kv:     kv,
		quota:  quotaBytes,
		clock:  clk,
		logger: logger.Named("checkpoint"),
		schema: schema,
	}, nil
}

func profilePrefix(profileID string) string {
	return keyPrefix + url.PathEscape(profileID) + "/"
}

func recordKey(profileID, explorationID string) string {
	return profilePrefix(profileID) + url.PathEscape(explorationID)
}

// Save writes cp, replacing any previous checkpoint for the same key. A
// write from the same session carrying a lower Sequence than the stored
// record is dropped, as is a write from another session with an older
// TimestampMs. Exceeding the quota never fails the write; it is
// reported through the returned State.
func (c *Controller) Save(ctx context.Context, profileID, explorationID string, cp Checkpoint) (State, error) {
	if cp.Version == 0 {
		cp.Version = RecordVersion
	}
	if cp.TimestampMs == 0 {
		cp.TimestampMs = clock.Millis(c.clock)
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return Unsaved, fmt.Errorf("encode checkpoint: %w", err)
	}

	key := recordKey(profileID, explorationID)
	err = c.kv.Update(ctx, key, func(old []byte, found bool) ([]byte, bool, error) {
		if !found || cp.SessionID == "" {
			return data, true, nil
		}
		var prev Checkpoint
		if json.Unmarshal(old, &prev) != nil || !supersedes(prev, cp) {
			return data, true, nil
		}
		c.logger.Debug("dropping stale checkpoint write",
			zap.String("exploration_id", explorationID),
			zap.String("stored_session_id", prev.SessionID),
			zap.Int64("stored_sequence", prev.Sequence),
			zap.String("session_id", cp.SessionID),
			zap.Int64("sequence", cp.Sequence))
		return nil, false, nil
	})
	if err != nil {
		return Unsaved, fmt.Errorf("save checkpoint %s: %w", explorationID, err)
	}

	state, err := c.QuotaState(ctx, profileID)
	if err != nil {
		// The record itself is stored; only the size estimate failed.
		c.logger.Warn("checkpoint size estimate failed", zap.Error(err))
	}
	return state, nil
}

// QuotaState reports the saved state of a profile's checkpoints against its
// quota. On a scan error it returns SavedDatabaseNotExceededLimit with the
// error.
func (c *Controller) QuotaState(ctx context.Context, profileID string) (State, error) {
	size, err := c.ProfileSize(ctx, profileID)
	if err != nil {
		return SavedDatabaseNotExceededLimit, err
	}
	if size > c.quota {
		c.logger.Info("checkpoint storage over quota",
			zap.String("profile_id", profileID),
			zap.Int64("bytes", size),
			zap.Int64("quota", c.quota))
		return SavedDatabaseExceededLimit, nil
	}
	return SavedDatabaseNotExceededLimit, nil
}

// supersedes reports whether the stored record prev is newer than cp.
func supersedes(prev, cp Checkpoint) bool {
	if prev.SessionID == cp.SessionID {
		return prev.Sequence > cp.Sequence
	}
	return prev.TimestampMs > cp.TimestampMs
}

// ProfileSize sums the encoded size of every checkpoint of a profile.
func (c *Controller) ProfileSize(ctx context.Context, profileID string) (int64, error) {
	var total int64
	err := c.kv.Scan(ctx, profilePrefix(profileID), func(_ string, v []byte) error {
		total += int64(len(v))
		return nil
	})
	return total, err
}

// Retrieve loads the checkpoint for (profile, exploration). A missing record
// yields the empty Checkpoint and no error. Records that fail schema
// validation fail with ErrOutdatedCheckpoint.
func (c *Controller) Retrieve(ctx context.Context, profileID, explorationID string) (Checkpoint, error) {
	data, err := c.kv.Get(ctx, recordKey(profileID, explorationID))
	if errors.Is(err, store.ErrNotFound) {
		return Checkpoint{}, nil
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("retrieve checkpoint %s: %w", explorationID, err)
	}
	return c.decode(data)
}

func (c *Controller) decode(data []byte) (Checkpoint, error) {
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return Checkpoint{}, fmt.Errorf("%w: invalid JSON: %v", exploration.ErrOutdatedCheckpoint, err)
	}
	if err := c.schema.Validate(parsed); err != nil {
		return Checkpoint{}, fmt.Errorf("%w: %v", exploration.ErrOutdatedCheckpoint, err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("%w: %v", exploration.ErrOutdatedCheckpoint, err)
	}
	if cp.Version != RecordVersion {
		return Checkpoint{}, fmt.Errorf("%w: record version %d, want %d",
			exploration.ErrOutdatedCheckpoint, cp.Version, RecordVersion)
	}
	return cp, nil
}

// RetrieveOldestCheckpointDetails returns the least recently saved
// checkpoint of a profile, or ErrNotFound if the profile has none.
// Unreadable records are skipped.
func (c *Controller) RetrieveOldestCheckpointDetails(ctx context.Context, profileID string) (Details, error) {
	prefix := profilePrefix(profileID)
	var (
		oldest Details
		found  bool
	)
	err := c.kv.Scan(ctx, prefix, func(key string, v []byte) error {
		cp, err := c.decode(v)
		if err != nil {
			c.logger.Warn("skipping unreadable checkpoint", zap.String("key", key), zap.Error(err))
			return nil
		}
		if found && cp.TimestampMs >= oldest.TimestampMs {
			return nil
		}
		id, err := url.PathUnescape(strings.TrimPrefix(key, prefix))
		if err != nil {
			return fmt.Errorf("decode key %s: %w", key, err)
		}
		oldest = Details{ExplorationID: id, ExplorationTitle: cp.ExplorationTitle, TimestampMs: cp.TimestampMs}
		found = true
		return nil
	})
	if err != nil {
		return Details{}, fmt.Errorf("retrieve oldest checkpoint: %w", err)
	}
	if !found {
		return Details{}, fmt.Errorf("%w: no saved checkpoints for profile %s", exploration.ErrNotFound, profileID)
	}
	return oldest, nil
}

// Delete removes a checkpoint. Deleting a missing checkpoint fails with
// ErrNotFound.
func (c *Controller) Delete(ctx context.Context, profileID, explorationID string) error {
	err := c.kv.Delete(ctx, recordKey(profileID, explorationID))
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: no saved checkpoint with explorationId %s", exploration.ErrNotFound, explorationID)
	}
	if err != nil {
		return fmt.Errorf("delete checkpoint %s: %w", explorationID, err)
	}
	return nil
}
