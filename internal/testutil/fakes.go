package testutil

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fekuna/marine-listing-service/internal/model"
	"github.com/fekuna/marine-listing-service/internal/notification"
)

// Notifier records every event it is handed.
type Notifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (n *Notifier) Notify(_ context.Context, userID string, eventType notification.EventType, payload map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification.Event{
		UserID:     userID,
		EventType:  eventType,
		Payload:    payload,
		OccurredAt: time.Now(),
	})
}

func (n *Notifier) Events() []notification.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.Event(nil), n.events...)
}

// Indexer records the ids it synced and removed.
type Indexer struct {
	mu      sync.Mutex
	synced  []string
	removed []string
}

func (i *Indexer) Sync(_ context.Context, l *model.Listing) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.synced = append(i.synced, l.ID)
	return nil
}

func (i *Indexer) Remove(_ context.Context, id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.removed = append(i.removed, id)
	return nil
}

func (i *Indexer) Synced() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.synced...)
}

func (i *Indexer) Removed() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.removed...)
}

// Locker is an in-process lock table. Err, when set, is returned by every AcquireLock call.
type Locker struct {
	mu    sync.Mutex
	held  map[string]string
	calls int
	Err   error
}

func (l *Locker) AcquireLock(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.Err != nil {
		return false, l.Err
	}
	if l.held == nil {
		l.held = map[string]string{}
	}
	if _, ok := l.held[key]; ok {
		return false, nil
	}
	l.held[key] = value
	return true, nil
}

func (l *Locker) ReleaseLock(_ context.Context, key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == value {
		delete(l.held, key)
	}
	return nil
}

func (l *Locker) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// Hold takes key on behalf of another owner.
func (l *Locker) Hold(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]string{}
	}
	l.held[key] = "other"
}

// Uploader returns deterministic URLs for whatever it stores.
type Uploader struct {
	mu       sync.Mutex
	Uploaded int
}

func (u *Uploader) Upload(_ context.Context, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Uploaded++
	return fmt.Sprintf("https://cdn.example.com/listings/upload-%d.jpg", u.Uploaded), nil
}
