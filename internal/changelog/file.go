package changelog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adstate-project/adstate/pkg/errclass"
	"github.com/adstate-project/adstate/pkg/fsutil"
	"github.com/adstate-project/adstate/pkg/jsonutil"
)

const changelogDirName = "changelogs"

// FileStore keeps one JSONL file per (account, campaign). Writers take a
// non-blocking flock on a sidecar lock file; contention surfaces as
// errclass.ErrWriteConflict and is retried with bounded backoff. The data
// file itself is replaced via atomic rename, so a batch is either fully
// visible or not at all, and readers need no lock.
type FileStore struct {
	dataDir  string
	log      *zap.Logger
	attempts uint
	backoff  time.Duration
	mu       sync.Mutex
}

// FileStoreOptions tunes the conflict retry policy.
type FileStoreOptions struct {
	RetryAttempts uint
	RetryBackoff  time.Duration
	Logger        *zap.Logger
}

// NewFileStore creates a file-backed changelog store rooted at dataDir.
func NewFileStore(dataDir string, opts FileStoreOptions) *FileStore {
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = 5
	}
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = 50 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &FileStore{
		dataDir:  dataDir,
		log:      opts.Logger,
		attempts: opts.RetryAttempts,
		backoff:  opts.RetryBackoff,
	}
}

// Append writes the batch as a whole. Re-appending a batch whose content
// hash equals that of the most recently appended batch is a no-op, which
// makes the "detect changes" action safe to retry.
func (s *FileStore) Append(ctx context.Context, accountID, campaignID string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if e.DetectedAt.IsZero() {
			return errclass.ErrMissingField.WithMessage("entry detected_at")
		}
	}

	batchHash, err := jsonutil.ContentHash(HashView(entries))
	if err != nil {
		return fmt.Errorf("hash batch: %w", err)
	}
	batchID := uuid.NewString()

	err = retry.Do(
		func() error { return s.appendOnce(accountID, campaignID, entries, batchHash, batchID) },
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.backoff),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(func(err error) bool { return errors.Is(err, errclass.ErrWriteConflict) }),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return err
	}
	return nil
}

func (s *FileStore) appendOnce(accountID, campaignID string, entries []Entry, batchHash, batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(accountID, campaignID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create changelog dir: %w", err)
	}

	// The lock lives on a sidecar file: the data file's inode changes on
	// every atomic replace.
	lockFile, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open changelog lock: %w", err)
	}
	defer lockFile.Close()
	if err := lockExclusive(lockFile); err != nil {
		return err
	}
	defer unlockExclusive(lockFile)

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read changelog: %w", err)
	}

	lastSeq, lastBatchHash, err := tailInfo(existing)
	if err != nil {
		return err
	}
	if lastBatchHash == batchHash {
		s.log.Debug("changelog batch already appended, skipping",
			zap.String("account_id", accountID),
			zap.String("campaign_id", campaignID),
			zap.String("batch_hash", batchHash))
		return nil
	}

	var buf bytes.Buffer
	buf.Write(existing)
	seq := lastSeq
	for _, e := range entries {
		seq++
		e.Seq = seq
		e.BatchHash = batchHash
		line, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	if err := fsutil.AtomicWrite(path, buf.Bytes(), 0644); err != nil {
		return err
	}

	s.log.Info("changelog batch appended",
		zap.String("account_id", accountID),
		zap.String("campaign_id", campaignID),
		zap.String("batch_id", batchID),
		zap.Int("entries", len(entries)))
	return nil
}

// Read returns entries ordered by DetectedAt ascending, ties by Seq.
// A zero since returns everything.
func (s *FileStore) Read(_ context.Context, accountID, campaignID string, since time.Time) ([]Entry, error) {
	data, err := os.ReadFile(s.path(accountID, campaignID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read changelog: %w", err)
	}

	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, errclass.ErrStoreCorrupt.WithMessagef("changelog line: %v", err)
		}
		if !since.IsZero() && e.DetectedAt.Before(since) {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan changelog: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].DetectedAt.Equal(entries[j].DetectedAt) {
			return entries[i].DetectedAt.Before(entries[j].DetectedAt)
		}
		return entries[i].Seq < entries[j].Seq
	})
	return entries, nil
}

// tailInfo extracts the last entry's seq and batch hash, if any.
func tailInfo(data []byte) (int64, string, error) {
	var lastSeq int64
	var lastHash string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return 0, "", errclass.ErrStoreCorrupt.WithMessagef("changelog line: %v", err)
		}
		lastSeq = e.Seq
		lastHash = e.BatchHash
	}
	if err := scanner.Err(); err != nil {
		return 0, "", fmt.Errorf("scan changelog: %w", err)
	}
	return lastSeq, lastHash, nil
}

func (s *FileStore) path(accountID, campaignID string) string {
	name := fsutil.SafeName(accountID) + "_" + fsutil.SafeName(campaignID) + ".jsonl"
	return filepath.Join(s.dataDir, changelogDirName, name)
}
