package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.UnixMilli(1700000000000)
}

func TestMediaUploader_MatchesAndOrphans(t *testing.T) {
	blobs := newMemBlobs()
	records := &memRecords{}
	index := BuildEntityIndex([]Entity{{ID: "e1", Code: "QR1234567"}})

	u := NewMediaUploader(blobs, records, WithClock(fixedClock))
	out := u.Run(context.Background(), mediaFiles("IMG_QR1234567.jpg", "random.png", "qr9999999.jpg"), index)

	assert.Equal(t, 3, out.TotalFiles)
	assert.Equal(t, 1, out.SuccessCount)
	assert.Equal(t, 2, out.ErrorCount)
	assert.Equal(t, []string{"IMG_QR1234567.jpg"}, out.SuccessFiles)
	assert.Equal(t, []string{"random.png", "qr9999999.jpg"}, out.OrphanFiles)
	assert.Empty(t, out.ErrorFiles)
	assert.False(t, out.Cancelled)

	require.Len(t, records.media, 1)
	rec := records.media[0]
	assert.Equal(t, "e1", rec.EntityID)
	assert.Equal(t, "IMG_QR1234567.jpg", rec.OriginalFilename)
	assert.Equal(t, int64(len("bytes of img_qr1234567.jpg")), rec.SizeBytes)
	assert.Equal(t, "image/jpeg", rec.ContentType)
	assert.Equal(t, blobs.PublicURL(rec.StorageKey), rec.URL)
	assert.Equal(t, []string{rec.StorageKey}, blobs.keys())
}

func TestMediaUploader_StorageKey(t *testing.T) {
	index := BuildEntityIndex([]Entity{{ID: "e1", Code: "QR1234567"}})

	tests := []struct {
		name     string
		filename string
		pattern  string
	}{
		{"extension case preserved", "x_QR1234567.JPG", `^e1/1700000000000-[0-9a-f]{8}\.JPG$`},
		{"lower extension", "QR1234567.png", `^e1/1700000000000-[0-9a-f]{8}\.png$`},
		{"no extension", "QR1234567", `^e1/1700000000000-[0-9a-f]{8}$`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := &memRecords{}
			u := NewMediaUploader(newMemBlobs(), records, WithClock(fixedClock))
			out := u.Run(context.Background(), mediaFiles(tt.filename), index)

			require.Equal(t, 1, out.SuccessCount)
			require.Len(t, records.media, 1)
			assert.Regexp(t, regexp.MustCompile(tt.pattern), records.media[0].StorageKey)
		})
	}
}

func TestMediaUploader_MetadataFailureDeletesBlob(t *testing.T) {
	blobs := newMemBlobs()
	records := &memRecords{
		failMedia: func(MediaRecord) error { return errFakeDown },
	}
	index := BuildEntityIndex([]Entity{{ID: "e1", Code: "QR1234567"}})

	out := NewMediaUploader(blobs, records).Run(context.Background(), mediaFiles("QR1234567.jpg"), index)

	assert.Equal(t, 1, out.TotalFiles)
	assert.Equal(t, 0, out.SuccessCount)
	assert.Equal(t, 1, out.ErrorCount)
	require.Len(t, out.ErrorFiles, 1)
	assert.Equal(t, "QR1234567.jpg", out.ErrorFiles[0].Filename)
	assert.Contains(t, out.ErrorFiles[0].ErrorMessage, "metadata write")
	assert.Contains(t, out.ErrorFiles[0].ErrorMessage, errFakeDown.Error())

	assert.Empty(t, blobs.keys(), "blob must be removed when its record is not written")
	assert.Len(t, blobs.deletes, 1)
}

func TestMediaUploader_CompensationFailureIsNotFatal(t *testing.T) {
	blobs := newMemBlobs()
	blobs.failDelete = func(string) error { return errFakeDown }
	records := &memRecords{
		failMedia: func(rec MediaRecord) error {
			if strings.HasPrefix(rec.OriginalFilename, "bad") {
				return errFakeDown
			}
			return nil
		},
	}
	index := BuildEntityIndex([]Entity{
		{ID: "e1", Code: "QR1111111"},
		{ID: "e2", Code: "QR2222222"},
	})

	out := NewMediaUploader(blobs, records).Run(context.Background(),
		mediaFiles("bad_QR1111111.jpg", "good_QR2222222.jpg"), index)

	assert.Equal(t, 2, out.TotalFiles)
	assert.Equal(t, []string{"good_QR2222222.jpg"}, out.SuccessFiles)
	require.Len(t, out.ErrorFiles, 1)
	assert.Equal(t, "bad_QR1111111.jpg", out.ErrorFiles[0].Filename)
}

func TestMediaUploader_StorageFailure(t *testing.T) {
	blobs := newMemBlobs()
	blobs.failPut = func(string) error { return errFakeDown }
	records := &memRecords{}
	index := BuildEntityIndex([]Entity{{ID: "e1", Code: "QR1234567"}})

	out := NewMediaUploader(blobs, records).Run(context.Background(), mediaFiles("QR1234567.jpg"), index)

	require.Len(t, out.ErrorFiles, 1)
	assert.Contains(t, out.ErrorFiles[0].ErrorMessage, "storage write")
	assert.Equal(t, 0, records.mediaCount(), "no record without a stored blob")
	assert.Empty(t, blobs.deletes)
}

func TestMediaUploader_Progress(t *testing.T) {
	var progress progressLog
	index := BuildEntityIndex([]Entity{{ID: "e1", Code: "QR1234567"}})

	u := NewMediaUploader(newMemBlobs(), &memRecords{}, WithUploadProgress(progress.record))
	u.Run(context.Background(), mediaFiles("a.jpg", "QR1234567.jpg", "b.jpg"), index)

	assert.Equal(t, []int{33, 67, 100}, progress.all())
}

func TestMediaUploader_WorkersKeepInputOrder(t *testing.T) {
	var entities []Entity
	var names []string
	for i := 0; i < 25; i++ {
		code := fmt.Sprintf("QR%07d", i)
		entities = append(entities, Entity{ID: fmt.Sprintf("e%d", i), Code: code})
		names = append(names, code+".jpg")
	}
	names = append(names, "orphan.jpg")

	var progress progressLog
	records := &memRecords{}
	u := NewMediaUploader(newMemBlobs(), records,
		WithUploadWorkers(4),
		WithUploadProgress(progress.record),
	)
	out := u.Run(context.Background(), mediaFiles(names...), BuildEntityIndex(entities))

	assert.Equal(t, 26, out.TotalFiles)
	assert.Equal(t, names[:25], out.SuccessFiles)
	assert.Equal(t, []string{"orphan.jpg"}, out.OrphanFiles)
	assert.Equal(t, 25, records.mediaCount())

	values := progress.all()
	require.Len(t, values, 26)
	assert.IsNonDecreasing(t, values)
	assert.Equal(t, 100, values[len(values)-1])
}

func TestMediaUploader_RerunCreatesNewRecords(t *testing.T) {
	blobs := newMemBlobs()
	records := &memRecords{}
	index := BuildEntityIndex([]Entity{{ID: "e1", Code: "QR1234567"}})
	u := NewMediaUploader(blobs, records)

	u.Run(context.Background(), mediaFiles("QR1234567.jpg"), index)
	u.Run(context.Background(), mediaFiles("QR1234567.jpg"), index)

	require.Len(t, records.media, 2)
	assert.NotEqual(t, records.media[0].StorageKey, records.media[1].StorageKey)
	assert.Len(t, blobs.keys(), 2)
}

func TestMediaUploader_Cancellation(t *testing.T) {
	index := BuildEntityIndex([]Entity{{ID: "e1", Code: "QR1234567"}})

	t.Run("cancelled before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		records := &memRecords{}
		out := NewMediaUploader(newMemBlobs(), records).Run(ctx, mediaFiles("QR1234567.jpg", "a.jpg"), index)

		assert.True(t, out.Cancelled)
		assert.Equal(t, 0, out.TotalFiles)
		assert.Equal(t, 0, records.mediaCount())
	})

	t.Run("cancelled mid-run", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		u := NewMediaUploader(newMemBlobs(), &memRecords{},
			WithUploadProgress(func(pct int) {
				if pct >= 50 {
					cancel()
				}
			}),
		)
		out := u.Run(ctx, mediaFiles("QR1234567.jpg", "a.jpg", "b.jpg", "c.jpg"), index)

		assert.True(t, out.Cancelled)
		assert.Equal(t, 2, out.TotalFiles)
		assert.Equal(t, out.TotalFiles, out.SuccessCount+out.ErrorCount)
	})

	t.Run("empty upload", func(t *testing.T) {
		out := NewMediaUploader(newMemBlobs(), &memRecords{}).Run(context.Background(), nil, index)
		assert.False(t, out.Cancelled)
		assert.Equal(t, 0, out.TotalFiles)
		assert.NotNil(t, out.SuccessFiles)
	})
}
