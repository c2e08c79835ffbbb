package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// PopularSize 热门图片数量
const PopularSize = 10

type ViewStore interface {
	IncrementView(ctx context.Context, imageID string) error
	TopImages(ctx context.Context, n int) ([]string, error)
}

// Popular keeps a periodically refreshed snapshot of the most viewed image ids.
type Popular struct {
	store ViewStore

	mu  sync.RWMutex
	ids []string
}

func NewPopular(store ViewStore) *Popular {
	return &Popular{store: store, ids: []string{}}
}

// RecordView counts a view of imageID. Failures are logged, not returned.
func (p *Popular) RecordView(ctx context.Context, imageID string) {
	if err := p.store.IncrementView(ctx, imageID); err != nil {
		slog.Error("Failed to increment view", "image_id", imageID, "error", err)
	}
}

func (p *Popular) Refresh(ctx context.Context) error {
	ids, err := p.store.TopImages(ctx, PopularSize)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.ids = ids
	p.mu.Unlock()
	return nil
}

// IDs returns a copy of the current snapshot.
func (p *Popular) IDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.ids...)
}

// Start refreshes the snapshot immediately and then every interval seconds
// until ctx is done.
func (p *Popular) Start(ctx context.Context, interval int) {
	if err := p.Refresh(ctx); err != nil {
		slog.Error("Failed to refresh popular images", "error", err)
	}

	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Refresh(ctx); err != nil {
				slog.Error("Failed to refresh popular images", "error", err)
				continue
			}
			slog.Debug("Refreshed popular images", "ids", p.IDs())
		}
	}
}
