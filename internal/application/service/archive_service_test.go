package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"quotefeed/internal/concurrency/worker"
	"quotefeed/internal/domain/model"
	"quotefeed/internal/testutils"
)

func TestArchiveServiceArchivesPublishedTables(t *testing.T) {
	cache := testutils.NewMockCache()
	pool := worker.NewPool(2, func() string { return "test" }, cache, testutils.NewMockStorage(), discardLogger())
	s := NewArchiveService(pool, 4, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	now := time.Now()
	s.Enqueue(model.NewQuoteTable(1, now, []model.Quote{
		{Symbol: "AAPL", Current: 190, Open: 189, FetchedAt: now},
		{Symbol: "MSFT", Current: 410, Open: 400, FetchedAt: now},
	}))
	s.Enqueue(model.EmptyTable())

	assert.Eventually(t, func() bool { return s.Archived() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, cache.LatestCount())

	cancel()
	s.Wait()
}

func TestArchiveServiceDropsWhenFull(t *testing.T) {
	pool := worker.NewPool(1, func() string { return "test" }, testutils.NewMockCache(), testutils.NewMockStorage(), discardLogger())
	s := NewArchiveService(pool, 1, discardLogger())

	table := model.NewQuoteTable(1, time.Now(), []model.Quote{{Symbol: "AAPL", Current: 1, Open: 1}})
	s.Enqueue(table)
	s.Enqueue(table)
	s.Enqueue(table)

	assert.Equal(t, uint64(2), s.Dropped())
}

func TestArchiveServiceSubscribedToFeed(t *testing.T) {
	src := testutils.NewScriptedSource()
	src.Set("AAA", testutils.Response{Quote: model.Quote{Current: 11, Open: 10}})

	cache := testutils.NewMockCache()
	pool := worker.NewPool(1, func() string { return "scripted" }, cache, testutils.NewMockStorage(), discardLogger())
	s := NewArchiveService(pool, 4, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.Wait()
	}()
	s.Start(ctx)

	feed := NewQuoteFeed(src, []string{"AAA"}, time.Second, discardLogger())
	feed.Subscribe(s.Enqueue)
	_, published := feed.Refresh(context.Background())
	assert.True(t, published)

	assert.Eventually(t, func() bool { return cache.LatestCount() == 1 }, 2*time.Second, 10*time.Millisecond)
}
