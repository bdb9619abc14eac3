// Package blob holds uploaded visuals in memory for the lifetime of the
// process. References look like "blob:<uuid>" and are never reissued.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GoCodeAlone/postboard/events"
)

const refPrefix = "blob:"

var (
	ErrNotFound = errors.New("blob not found")
	ErrTooLarge = errors.New("blob exceeds size limit")
)

// Blob is a stored upload.
type Blob struct {
	Ref         string    `json:"ref"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	data        []byte
}

// Bytes returns the stored content.
func (b Blob) Bytes() []byte { return b.data }

// Store is a thread-safe in-memory blob store.
type Store struct {
	mu       sync.RWMutex
	blobs    map[string]Blob
	maxBytes int64
}

// NewStore creates a store rejecting uploads larger than maxBytes.
// maxBytes <= 0 means no limit.
func NewStore(maxBytes int64) *Store {
	return &Store{blobs: make(map[string]Blob), maxBytes: maxBytes}
}

// IsRef reports whether s looks like a blob reference.
func IsRef(s string) bool {
	return strings.HasPrefix(s, refPrefix) && len(s) > len(refPrefix)
}

// Put reads r fully and stores it under a new reference.
func (s *Store) Put(name, contentType string, r io.Reader) (string, error) {
	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	var buf bytes.Buffer
	n, err := buf.ReadFrom(src)
	if err != nil {
		return "", fmt.Errorf("read blob: %w", err)
	}
	if s.maxBytes > 0 && n > s.maxBytes {
		return "", fmt.Errorf("%w: limit %d bytes", ErrTooLarge, s.maxBytes)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	b := Blob{
		Ref:         refPrefix + uuid.NewString(),
		Name:        name,
		ContentType: contentType,
		Size:        n,
		CreatedAt:   time.Now().UTC(),
		data:        buf.Bytes(),
	}
	s.mu.Lock()
	s.blobs[b.Ref] = b
	s.mu.Unlock()
	return b.Ref, nil
}

// Get returns the blob for ref.
func (s *Store) Get(ref string) (Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[ref]
	if !ok {
		return Blob{}, ErrNotFound
	}
	return b, nil
}

// Delete removes ref. Deleting an unknown ref is a no-op.
func (s *Store) Delete(ref string) {
	s.mu.Lock()
	delete(s.blobs, ref)
	s.mu.Unlock()
}

// Len returns the number of stored blobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Attach frees a task's uploaded visual once the task drops it, either by
// being deleted or by having its visual replaced. inUse, when set, is asked
// before a ref is freed so a visual still shown by another task survives.
// Returns a function that detaches the store from the bus.
func (s *Store) Attach(bus events.Bus, inUse func(ref string) bool) (detach func()) {
	release := func(_ context.Context, ev *events.Event) error {
		if ev.Previous == nil || !IsRef(ev.Previous.Image) {
			return nil
		}
		ref := ev.Previous.Image
		if ev.Task != nil && ev.Task.Image == ref {
			return nil
		}
		if inUse != nil && inUse(ref) {
			return nil
		}
		s.Delete(ref)
		return nil
	}
	unsubVisual := bus.Subscribe(events.TypeVisualAttached, release)
	unsubDeleted := bus.Subscribe(events.TypeTaskDeleted, release)
	return func() {
		unsubVisual()
		unsubDeleted()
	}
}
