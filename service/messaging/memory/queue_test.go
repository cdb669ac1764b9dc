package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testEvent struct {
	ID   string
	Code int
}

func TestQueue(t *testing.T) {
	queue := NewQueue[testEvent](10)

	ctx := context.Background()
	event := testEvent{ID: "job-1", Code: 0}

	err := queue.Publish(ctx, &event)
	assert.NoError(t, err)
	assert.Equal(t, 1, queue.Size())

	received, err := queue.Consume(ctx)
	assert.NoError(t, err)
	if assert.NotNil(t, received) {
		assert.Equal(t, event.ID, received.ID)
		assert.Equal(t, event.Code, received.Code)
	}
	assert.Equal(t, 0, queue.Size())
}

func TestQueueConcurrency(t *testing.T) {
	queue := NewQueue[testEvent](100)

	ctx := context.Background()
	concurrency := 10
	messagesPerProducer := 10

	var wg sync.WaitGroup
	wg.Add(concurrency * 2)

	var consumedCount int
	var consumedMu sync.Mutex

	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < messagesPerProducer; j++ {
				received, err := queue.Consume(ctx)
				if err != nil {
					t.Errorf("Error consuming: %v", err)
					continue
				}
				assert.NotNil(t, received)
				consumedMu.Lock()
				consumedCount++
				consumedMu.Unlock()
			}
		}()
	}

	for i := 0; i < concurrency; i++ {
		go func(producerID int) {
			defer wg.Done()
			for j := 0; j < messagesPerProducer; j++ {
				event := testEvent{
					ID:   fmt.Sprintf("p%d-m%d", producerID, j),
					Code: j,
				}
				if err := queue.Publish(ctx, &event); err != nil {
					t.Errorf("Error publishing: %v", err)
				}
			}
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Test timed out")
	}

	assert.Equal(t, concurrency*messagesPerProducer, consumedCount)
	assert.Equal(t, 0, queue.Size())
}

func TestQueueContextCancellation(t *testing.T) {
	queue := NewQueue[testEvent](1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	event := testEvent{ID: "job-1"}
	err := queue.Publish(ctx, &event)
	assert.Error(t, err)

	// Consume returns once the context ends instead of blocking forever.
	ctxWithTimeout, cancelTimeout := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancelTimeout()
	_, err = queue.Consume(ctxWithTimeout)
	assert.Error(t, err)

	// The queue stays usable after a cancelled call.
	emptyCtx := context.Background()
	assert.NoError(t, queue.Publish(emptyCtx, &event))
	received, err := queue.Consume(emptyCtx)
	assert.NoError(t, err)
	assert.NotNil(t, received)
}
