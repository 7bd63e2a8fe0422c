package maintenance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sovdef/filesearch/ai"
	"github.com/sovdef/filesearch/core"
	"github.com/sovdef/filesearch/storage"
)

// Config holds configuration for a verification run.
type Config struct {
	// ReportInterval is how often to report progress (number of files)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for storage reads
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// IssueKind classifies a verification finding.
type IssueKind string

const (
	// IssueMissingData means the descriptor has no persisted bytes.
	IssueMissingData IssueKind = "missing_data"

	// IssueSizeMismatch means the persisted bytes differ in length from
	// the descriptor.
	IssueSizeMismatch IssueKind = "size_mismatch"

	// IssueHashMismatch means the persisted bytes hash to a different
	// value than the descriptor records.
	IssueHashMismatch IssueKind = "hash_mismatch"

	// IssueUnextractable means the bytes can no longer be decoded by the
	// extractor that admits uploads.
	IssueUnextractable IssueKind = "unextractable"
)

// Issue is one integrity finding for a file.
type Issue struct {
	Store  string
	File   string
	Kind   IssueKind
	Detail string
}

// Report summarizes a verification run.
type Report struct {
	StoresChecked int
	FilesChecked  int
	Issues        []Issue
}

// Clean reports whether the run found no issues.
func (r *Report) Clean() bool { return len(r.Issues) == 0 }

// Verifier checks that persisted store data matches its descriptors.
type Verifier struct {
	repo      storage.StoreRepository
	extractor ai.Extractor
	config    *Config
	progress  io.Writer
}

// NewVerifier creates a verifier. A nil extractor skips the extraction
// check and verifies presence, size, and content hash only.
// progress: where to write progress output (typically os.Stderr)
func NewVerifier(repo storage.StoreRepository, extractor ai.Extractor, config *Config, progress io.Writer) *Verifier {
	if config == nil {
		config = DefaultConfig()
	}
	return &Verifier{
		repo:      repo,
		extractor: extractor,
		config:    config,
		progress:  progress,
	}
}

// Run verifies every file of every persisted store.
// Progress is reported to the configured writer.
func (v *Verifier) Run(ctx context.Context) (*Report, error) {
	stores, err := v.repo.ListStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}

	totalFiles := 0
	for _, store := range stores {
		totalFiles += len(store.Files)
	}

	report := &Report{StoresChecked: len(stores)}
	if totalFiles == 0 {
		fmt.Fprintf(v.progress, "No files found in %d store(s)\n", len(stores))
		return report, nil
	}

	fmt.Fprintf(v.progress, "Verifying %d file(s) across %d store(s)\n", totalFiles, len(stores))

	tracker := NewProgressTracker(v.progress, totalFiles, v.config.ReportInterval)
	tracker.Start()

	for _, store := range stores {
		for i := range store.Files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			v.checkFile(ctx, store.Name, &store.Files[i], report)
			report.FilesChecked++
			tracker.Increment(1)
		}
	}
	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(v.progress, "Verification complete. Checked %d file(s) in %v, %d issue(s) found\n",
		report.FilesChecked, elapsed.Round(time.Second), len(report.Issues))

	return report, nil
}

// checkFile verifies one descriptor against its persisted bytes, appending
// any findings to the report.
func (v *Verifier) checkFile(ctx context.Context, storeName string, fd *core.FileDescriptor, report *Report) {
	var data []byte
	err := RetryWithBackoff(ctx, func() error {
		var readErr error
		data, readErr = v.repo.GetFileData(ctx, storeName, fd.Name)
		if errors.Is(readErr, storage.ErrNotFound) {
			// Absence is a finding, not a transient failure.
			return nil
		}
		return readErr
	}, v.config.MaxRetries, v.config.RetryDelay)
	if err != nil {
		report.Issues = append(report.Issues, Issue{
			Store: storeName, File: fd.Name, Kind: IssueMissingData,
			Detail: err.Error(),
		})
		return
	}
	if data == nil {
		report.Issues = append(report.Issues, Issue{
			Store: storeName, File: fd.Name, Kind: IssueMissingData,
			Detail: "no persisted bytes",
		})
		return
	}

	if int64(len(data)) != fd.Size {
		report.Issues = append(report.Issues, Issue{
			Store: storeName, File: fd.Name, Kind: IssueSizeMismatch,
			Detail: fmt.Sprintf("descriptor %d bytes, stored %d bytes", fd.Size, len(data)),
		})
		return
	}

	if hash := core.IDFromBytes(data); hash != fd.ContentHash {
		report.Issues = append(report.Issues, Issue{
			Store: storeName, File: fd.Name, Kind: IssueHashMismatch,
			Detail: fmt.Sprintf("descriptor %d, stored content hashes to %d", uint64(fd.ContentHash), uint64(hash)),
		})
		return
	}

	if v.extractor != nil {
		if _, err := v.extractor.Extract(ctx, data, fd.MimeType); err != nil {
			report.Issues = append(report.Issues, Issue{
				Store: storeName, File: fd.Name, Kind: IssueUnextractable,
				Detail: err.Error(),
			})
		}
	}
}
