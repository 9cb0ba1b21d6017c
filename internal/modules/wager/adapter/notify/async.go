package notify

import (
	"context"
	"sync"

	"github.com/frankieli/players_bet/internal/modules/wager/domain"
	"github.com/frankieli/players_bet/pkg/logger"
	"github.com/frankieli/players_bet/pkg/service"
)

type asyncItem struct {
	ctx     context.Context
	wager   *domain.Wager
	outcome domain.Outcome
}

// AsyncNotifier moves delivery off the caller's goroutine. The round
// controller notifies while holding its lock, so network sinks must not run
// inline. Events keep their order; when the queue is full new events are
// dropped and logged.
type AsyncNotifier struct {
	next  service.OutcomeNotifier
	queue chan asyncItem
	wg    sync.WaitGroup
	once  sync.Once
	mu    sync.RWMutex
	done  bool
}

// NewAsyncNotifier starts the delivery goroutine
func NewAsyncNotifier(next service.OutcomeNotifier, buffer int) *AsyncNotifier {
	if buffer <= 0 {
		buffer = 1024
	}
	a := &AsyncNotifier{
		next:  next,
		queue: make(chan asyncItem, buffer),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

func (a *AsyncNotifier) run() {
	defer a.wg.Done()
	for item := range a.queue {
		if item.wager != nil {
			a.next.NotifyPlaced(item.ctx, item.wager)
		} else {
			a.next.NotifyOutcome(item.ctx, item.outcome)
		}
	}
}

func (a *AsyncNotifier) NotifyPlaced(ctx context.Context, w *domain.Wager) {
	copied := *w
	a.enqueue(ctx, asyncItem{wager: &copied})
}

func (a *AsyncNotifier) NotifyOutcome(ctx context.Context, o domain.Outcome) {
	a.enqueue(ctx, asyncItem{outcome: o})
}

func (a *AsyncNotifier) enqueue(ctx context.Context, item asyncItem) {
	item.ctx = logger.Detach(ctx)

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.done {
		return
	}

	select {
	case a.queue <- item:
	default:
		logger.Warn(ctx).
			Int("queue_size", cap(a.queue)).
			Msg("Notification queue full, dropping event")
	}
}

// Close stops accepting events and waits for queued ones to be delivered
func (a *AsyncNotifier) Close() {
	a.once.Do(func() {
		a.mu.Lock()
		a.done = true
		close(a.queue)
		a.mu.Unlock()
	})
	a.wg.Wait()
}
