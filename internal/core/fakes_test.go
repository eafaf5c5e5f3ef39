package core

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var errFakeDown = errors.New("fake backend down")

// memBlobs is an in-memory BlobStore that records every call.
type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	deletes []string

	failPut    func(key string) error
	failDelete func(key string) error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (b *memBlobs) Put(_ context.Context, key string, data []byte, contentType string) error {
	if b.failPut != nil {
		if err := b.failPut(key); err != nil {
			return err
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	b.types[key] = contentType
	return nil
}

func (b *memBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	b.deletes = append(b.deletes, key)
	b.mu.Unlock()

	if b.failDelete != nil {
		if err := b.failDelete(key); err != nil {
			return err
		}
	}

	b.mu.Lock()
	delete(b.objects, key)
	b.mu.Unlock()
	return nil
}

func (b *memBlobs) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

func (b *memBlobs) keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.objects))
	for k := range b.objects {
		out = append(out, k)
	}
	return out
}

// memRecords is an in-memory RecordStore with failure injection.
type memRecords struct {
	mu       sync.Mutex
	entities []Entity
	media    []MediaRecord
	inserted []EntityRecord
	listErr  error

	failMedia  func(rec MediaRecord) error
	failEntity func(rec EntityRecord) error
}

func (r *memRecords) InsertMediaRecord(_ context.Context, rec MediaRecord) error {
	if r.failMedia != nil {
		if err := r.failMedia(rec); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.media = append(r.media, rec)
	return nil
}

func (r *memRecords) InsertEntityRecord(_ context.Context, rec EntityRecord) error {
	if r.failEntity != nil {
		if err := r.failEntity(rec); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserted = append(r.inserted, rec)
	return nil
}

func (r *memRecords) ListEntities(_ context.Context, _ EntityFilter) ([]Entity, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entity, len(r.entities))
	copy(out, r.entities)
	return out, nil
}

func (r *memRecords) insertedNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.inserted))
	for i, rec := range r.inserted {
		names[i] = rec.Name
	}
	return names
}

func (r *memRecords) mediaCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.media)
}

// progressLog collects progress callbacks.
type progressLog struct {
	mu     sync.Mutex
	values []int
}

func (p *progressLog) record(pct int) {
	p.mu.Lock()
	p.values = append(p.values, pct)
	p.mu.Unlock()
}

func (p *progressLog) all() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int, len(p.values))
	copy(out, p.values)
	return out
}

func mediaFiles(names ...string) []MediaFile {
	files := make([]MediaFile, len(names))
	for i, n := range names {
		files[i] = MediaFile{Name: n, Data: []byte("bytes of " + strings.ToLower(n))}
	}
	return files
}
