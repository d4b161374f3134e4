package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adstate-project/adstate/internal/changelog"
	"github.com/adstate-project/adstate/pkg/errclass"
	"github.com/adstate-project/adstate/pkg/jsonutil"
	"github.com/adstate-project/adstate/pkg/model"
)

// ChangelogStore implements changelog.Store over SQLite. Each batch is one
// transaction, so readers never see a partially appended batch.
type ChangelogStore struct {
	db       *DB
	log      *zap.Logger
	attempts uint
	backoff  time.Duration
}

// ChangelogStoreOptions tunes the conflict retry policy.
type ChangelogStoreOptions struct {
	RetryAttempts uint
	RetryBackoff  time.Duration
	Logger        *zap.Logger
}

// NewChangelogStore creates a SQLite-backed changelog store.
func NewChangelogStore(db *DB, opts ChangelogStoreOptions) *ChangelogStore {
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = 5
	}
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = 50 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &ChangelogStore{db: db, log: opts.Logger, attempts: opts.RetryAttempts, backoff: opts.RetryBackoff}
}

var _ changelog.Store = (*ChangelogStore)(nil)

func (s *ChangelogStore) Append(ctx context.Context, accountID, campaignID string, entries []changelog.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if e.DetectedAt.IsZero() {
			return errclass.ErrMissingField.WithMessage("entry detected_at")
		}
	}

	batchHash, err := jsonutil.ContentHash(changelog.HashView(entries))
	if err != nil {
		return fmt.Errorf("hash batch: %w", err)
	}
	batchID := uuid.NewString()

	return retry.Do(
		func() error { return s.appendOnce(ctx, accountID, campaignID, entries, batchHash, batchID) },
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.backoff),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(func(err error) bool { return errors.Is(err, errclass.ErrWriteConflict) }),
		retry.LastErrorOnly(true),
	)
}

func (s *ChangelogStore) appendOnce(ctx context.Context, accountID, campaignID string, entries []changelog.Entry, batchHash, batchID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapBusy(fmt.Errorf("begin append: %w", err))
	}
	defer tx.Rollback()

	var lastSeq int64
	var lastHash string
	err = tx.QueryRowContext(ctx,
		`SELECT seq, batch_hash FROM changelog_entries
		 WHERE account_id = ? AND campaign_id = ?
		 ORDER BY seq DESC LIMIT 1`,
		accountID, campaignID).Scan(&lastSeq, &lastHash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return mapBusy(fmt.Errorf("read changelog tail: %w", err))
	}
	if lastHash == batchHash {
		s.log.Debug("changelog batch already appended, skipping",
			zap.String("account_id", accountID),
			zap.String("campaign_id", campaignID),
			zap.String("batch_hash", batchHash))
		return nil
	}

	seq := lastSeq
	for _, e := range entries {
		seq++
		entity, err := json.Marshal(e.Entity)
		if err != nil {
			return fmt.Errorf("marshal entity: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO changelog_entries
			 (account_id, campaign_id, seq, detected_at, source, category, entity, old_value, new_value, text, batch_hash)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			accountID, campaignID, seq,
			e.DetectedAt.UTC().Format(time.RFC3339Nano),
			string(e.Source), string(e.Category), string(entity),
			e.Old, e.New, e.Text, batchHash)
		if err != nil {
			return mapBusy(fmt.Errorf("insert entry: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return mapBusy(fmt.Errorf("commit append: %w", err))
	}
	s.log.Info("changelog batch appended",
		zap.String("account_id", accountID),
		zap.String("campaign_id", campaignID),
		zap.String("batch_id", batchID),
		zap.Int("entries", len(entries)))
	return nil
}

func (s *ChangelogStore) Read(ctx context.Context, accountID, campaignID string, since time.Time) ([]changelog.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, detected_at, source, category, entity, old_value, new_value, text, batch_hash
		 FROM changelog_entries
		 WHERE account_id = ? AND campaign_id = ?
		 ORDER BY seq ASC`,
		accountID, campaignID)
	if err != nil {
		return nil, fmt.Errorf("read changelog: %w", err)
	}
	defer rows.Close()

	var entries []changelog.Entry
	for rows.Next() {
		var e changelog.Entry
		var detectedAt, source, category, entity string
		if err := rows.Scan(&e.Seq, &detectedAt, &source, &category, &entity,
			&e.Old, &e.New, &e.Text, &e.BatchHash); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.DetectedAt, err = time.Parse(time.RFC3339Nano, detectedAt)
		if err != nil {
			return nil, errclass.ErrStoreCorrupt.WithMessagef("detected_at %q: %v", detectedAt, err)
		}
		e.Source = model.ChangeSource(source)
		e.Category = model.ChangeCategory(category)
		if err := json.Unmarshal([]byte(entity), &e.Entity); err != nil {
			return nil, errclass.ErrStoreCorrupt.WithMessagef("entity: %v", err)
		}
		if !since.IsZero() && e.DetectedAt.Before(since) {
			continue
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read changelog: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].DetectedAt.Equal(entries[j].DetectedAt) {
			return entries[i].DetectedAt.Before(entries[j].DetectedAt)
		}
		return entries[i].Seq < entries[j].Seq
	})
	return entries, nil
}
