package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Probe reports whether a dependency is reachable.
type Probe func(ctx context.Context) error

// OutboxSizer is the part of the outbox the monitor reads.
type OutboxSizer interface {
	Len() (int, error)
}

type probe struct {
	name     string
	check    Probe
	required bool
	timeout  time.Duration
}

type Option func(*Monitor)

// WithProbe registers a named check. Required probes decide IsOnline; the
// rest only show up in Status.
func WithProbe(name string, check Probe, required bool, timeout time.Duration) Option {
	return func(m *Monitor) {
		if check == nil {
			return
		}
		if timeout <= 0 {
			timeout = 3 * time.Second
		}
		m.probes = append(m.probes, probe{name: name, check: check, required: required, timeout: timeout})
	}
}

func WithOutbox(outbox OutboxSizer) Option {
	return func(m *Monitor) { m.outbox = outbox }
}

type Monitor struct {
	probes []probe
	outbox OutboxSizer

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(interval time.Duration, logger *zap.Logger, opts ...Option) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	sort.SliceStable(m.probes, func(i, j int) bool { return m.probes[i].name < m.probes[j].name })
	// Optimistic until the first refresh so early writes are not queued.
	m.status = Status{Online: true, Components: map[string]bool{}}
	return m
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether every required probe passed on the last check.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Online
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.clone()
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh(context.Background())
	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs every probe once and stores the result.
func (m *Monitor) Refresh(ctx context.Context) Status {
	status := Status{
		Online:     true,
		Components: make(map[string]bool, len(m.probes)),
		LastCheck:  time.Now(),
	}
	for _, p := range m.probes {
		up := m.run(ctx, p)
		status.Components[p.name] = up
		if p.required && !up {
			status.Online = false
		}
	}
	status.Outbox, status.OutboxSize = m.checkOutbox()

	m.mu.Lock()
	previous := m.status.Online
	m.status = status
	m.mu.Unlock()

	if previous != status.Online {
		m.logger.Info("storage connectivity changed", zap.Bool("online", status.Online))
	}
	return status.clone()
}

func (m *Monitor) run(ctx context.Context, p probe) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.check(ctx); err != nil {
		m.logger.Debug("probe failed", zap.String("probe", p.name), zap.Error(err))
		return false
	}
	return true
}

func (m *Monitor) checkOutbox() (bool, int) {
	if m.outbox == nil {
		return false, 0
	}
	size, err := m.outbox.Len()
	if err != nil {
		m.logger.Warn("outbox size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
