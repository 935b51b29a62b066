// Package sync reconciles server-authoritative pending notifications and
// the remote task collection into the local stores on a fixed interval.
package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/crmdesk/crmdesk/internal/api"
	"github.com/crmdesk/crmdesk/internal/model"
	"github.com/crmdesk/crmdesk/internal/store"
)

// Defaults used when the config leaves the timings unset.
const (
	DefaultInterval = 10 * time.Second
	DefaultAckDelay = 10 * time.Second
)

// fetchTimeout is the maximum time allowed for a single poll cycle's
// network calls.
const fetchTimeout = 30 * time.Second

// PollResult is a tea.Msg sent when one poll cycle completes.
type PollResult struct {
	// NewNotifications is how many queue entries this cycle added.
	NewNotifications int

	// TasksRefreshed reports whether the task cache was replaced from
	// the server this cycle.
	TasksRefreshed bool

	// Err is the first failure of the cycle, nil on success. Background
	// failures are informational; the next tick retries regardless.
	Err error

	// AuthExpired is set when the server rejected the session.
	AuthExpired bool
}

// Poller periodically fetches the task collection and the server's
// pending notifications, reconciles the latter into the notification
// queue by identity, and schedules delayed acknowledgements back to the
// server for every genuinely new entry.
type Poller struct {
	client   *api.Client
	tasks    *store.TaskStore
	queue    *store.NotificationQueue
	log      *logrus.Logger
	interval time.Duration
	ackDelay time.Duration

	resultCh  chan PollResult
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a Poller. Non-positive timings fall back to the defaults.
func New(
	client *api.Client,
	tasks *store.TaskStore,
	queue *store.NotificationQueue,
	interval time.Duration,
	ackDelay time.Duration,
	log *logrus.Logger,
) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if ackDelay < 0 {
		ackDelay = DefaultAckDelay
	}
	return &Poller{
		client:    client,
		tasks:     tasks,
		queue:     queue,
		log:       log,
		interval:  interval,
		ackDelay:  ackDelay,
		resultCh:  make(chan PollResult, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the polling goroutine and returns a command that waits
// for the first result. Calling Start twice is a no-op.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()

	return p.waitForResult()
}

// Stop halts the polling goroutine. Acknowledgements already scheduled
// still fire; their failures are logged and otherwise ignored.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
}

// Refresh triggers an immediate poll without waiting for the next tick.
func (p *Poller) Refresh() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A poll is already pending; skip to avoid blocking.
	}
	return nil
}

func (p *Poller) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollOnce()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.pollOnce()
		case <-p.triggerCh:
			p.pollOnce()
		}
	}
}

func (p *Poller) pollOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	p.sendResult(p.Poll(ctx))
}

// Poll runs one reconciliation cycle against the server. Both halves of
// the cycle fail independently: a task-fetch failure never blocks
// notification reconciliation, and vice versa.
func (p *Poller) Poll(ctx context.Context) PollResult {
	var res PollResult

	serverTasks, err := p.client.GetTasks(ctx)
	if err != nil {
		p.log.WithError(err).Warn("poller: task refresh failed, keeping local cache")
		res.Err = err
		res.AuthExpired = api.IsAuthError(err)
	} else {
		p.tasks.ReplaceFromServer(serverTasks)
		res.TasksRefreshed = true
	}

	pending, err := p.client.GetPendingNotifications(ctx)
	if err != nil {
		p.log.WithError(err).Warn("poller: pending fetch failed, retrying next tick")
		if res.Err == nil {
			res.Err = err
		}
		res.AuthExpired = res.AuthExpired || api.IsAuthError(err)
		return res
	}

	for _, dto := range pending {
		rid := model.NormalizeReminderID(dto.ReminderID)
		if rid == "" {
			continue
		}
		n := model.Notification{
			ID:         rid,
			Title:      dto.Title,
			Message:    dto.Message,
			Timestamp:  time.Now().Format(time.RFC3339),
			TaskID:     dto.TaskID,
			ReminderID: rid,
		}
		if !p.queue.Append(n) {
			continue
		}
		res.NewNotifications++
		p.scheduleAck(rid)
	}

	return res
}

// scheduleAck acknowledges a reminder back to the server after the
// configured delay, so the user has time to see it first. Delivery is
// at-most-once: a failure is logged and never rolls back the local
// reconciliation, since the notification has already been shown.
func (p *Poller) scheduleAck(reminderID string) {
	time.AfterFunc(p.ackDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		if err := p.client.MarkNotificationProcessed(ctx, reminderID); err != nil {
			p.log.WithError(err).WithField("reminder", reminderID).
				Warn("poller: acknowledgement failed, not retried")
			return
		}
		p.log.WithField("reminder", reminderID).Debug("poller: reminder acknowledged")
	})
}

// sendResult sends a PollResult on the result channel without blocking.
func (p *Poller) sendResult(res PollResult) {
	select {
	case p.resultCh <- res:
	default:
		// Drop if the channel is full to avoid blocking the poller.
	}
}

// waitForResult returns a tea.Cmd that waits for the next poll result.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next poll
// result. Call it after processing a PollResult to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
