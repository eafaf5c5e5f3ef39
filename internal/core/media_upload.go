package core

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultUploadWorkers processes media files one at a time. Sequential
// processing keeps the compensating delete race-free and progress trivially
// monotonic.
const DefaultUploadWorkers = 1

// MediaUploader reconciles uploaded media files with entities by the code
// embedded in each filename, storing the bytes and a metadata record for
// every match.
type MediaUploader struct {
	blobs    BlobStore
	records  RecordStore
	workers  int
	progress ProgressFunc
	logger   *slog.Logger
	now      func() time.Time
}

// UploaderOption configures a MediaUploader.
type UploaderOption func(*MediaUploader)

// WithUploadWorkers sets how many files are processed in parallel.
// Values below 1 fall back to DefaultUploadWorkers.
func WithUploadWorkers(n int) UploaderOption {
	return func(u *MediaUploader) {
		if n >= 1 {
			u.workers = n
		}
	}
}

// WithUploadProgress registers a callback invoked after every file.
func WithUploadProgress(fn ProgressFunc) UploaderOption {
	return func(u *MediaUploader) { u.progress = fn }
}

// WithUploadLogger sets the logger used for per-file diagnostics.
func WithUploadLogger(l *slog.Logger) UploaderOption {
	return func(u *MediaUploader) {
		if l != nil {
			u.logger = l
		}
	}
}

// WithClock overrides the time source used in storage keys.
func WithClock(now func() time.Time) UploaderOption {
	return func(u *MediaUploader) {
		if now != nil {
			u.now = now
		}
	}
}

// NewMediaUploader creates an uploader writing to blobs and records.
func NewMediaUploader(blobs BlobStore, records RecordStore, opts ...UploaderOption) *MediaUploader {
	u := &MediaUploader{
		blobs:   blobs,
		records: records,
		workers: DefaultUploadWorkers,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Run processes every file exactly once and returns the aggregated outcome.
//
// No single file's failure stops the run. Cancelling ctx stops new files from
// starting; a file already in flight finishes its writes so a blob is never
// left without its metadata record (or the compensating delete).
func (u *MediaUploader) Run(ctx context.Context, files []MediaFile, index *EntityIndex) *UploadOutcome {
	results := make([]*fileResult, len(files))
	tracker := newProgressTracker(len(files), u.progress)

	// Writes for a started file must not be torn by caller cancellation.
	writeCtx := context.WithoutCancel(ctx)

	workers := u.workers
	if workers > len(files) {
		workers = len(files)
	}

	if workers <= 1 {
		for i, f := range files {
			if ctx.Err() != nil {
				break
			}
			r := u.processFile(writeCtx, f, index)
			results[i] = &r
			tracker.step()
		}
		return buildUploadOutcome(results)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				r := u.processFile(writeCtx, files[i], index)
				results[i] = &r
				tracker.step()
			}
		}()
	}

	for i := range files {
		if ctx.Err() != nil {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	// Workers finish out of order; results is indexed by input position so
	// the outcome lists keep the caller's order.
	return buildUploadOutcome(results)
}

// processFile runs extract → lookup → blob write → metadata write for one file.
func (u *MediaUploader) processFile(ctx context.Context, f MediaFile, index *EntityIndex) fileResult {
	code, ok := ExtractCode(f.Name)
	if !ok {
		u.logger.Debug("media file has no code", "file", f.Name)
		return fileResult{status: fileOrphaned, name: f.Name, reason: "no code in filename"}
	}

	entity, ok := index.Get(code)
	if !ok {
		u.logger.Debug("media code not found", "file", f.Name, "code", code)
		return fileResult{status: fileOrphaned, name: f.Name, reason: errNoMatchingEntity.Error()}
	}

	size := f.Size
	if size == 0 {
		size = int64(len(f.Data))
	}

	key := u.storageKey(entity.ID, f.Name)
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name)))

	if err := u.blobs.Put(ctx, key, f.Data, contentType); err != nil {
		u.logger.Warn("storage write failed", "file", f.Name, "key", key, "error", err)
		return fileResult{status: fileFailed, name: f.Name, reason: fmt.Sprintf("storage write: %v", err)}
	}

	rec := MediaRecord{
		EntityID:         entity.ID,
		StorageKey:       key,
		URL:              u.blobs.PublicURL(key),
		OriginalFilename: f.Name,
		SizeBytes:        size,
		ContentType:      contentType,
	}

	if err := u.records.InsertMediaRecord(ctx, rec); err != nil {
		// Compensate: the blob has no record pointing at it.
		if delErr := u.blobs.Delete(ctx, key); delErr != nil {
			u.logger.Error("compensating delete failed",
				"file", f.Name,
				"key", key,
				"error", delErr,
			)
		}
		u.logger.Warn("metadata write failed", "file", f.Name, "entity_id", entity.ID, "error", err)
		return fileResult{status: fileFailed, name: f.Name, reason: fmt.Sprintf("metadata write: %v", err)}
	}

	return fileResult{status: fileSucceeded, name: f.Name}
}

// storageKey builds <entityID>/<unixMillis>-<random>.<ext>, keeping the
// original extension as written.
func (u *MediaUploader) storageKey(entityID, filename string) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	ext := filepath.Ext(filename)
	if ext == "." {
		ext = ""
	}
	return fmt.Sprintf("%s/%d-%s%s", entityID, u.now().UnixMilli(), random, ext)
}
