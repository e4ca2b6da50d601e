package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const probeTimeout = 3 * time.Second

// Probe checks one backing service.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// SizeFunc reports the number of stored tasks, when the driver can say.
type SizeFunc func() (int, error)

type Monitor struct {
	probes []Probe
	size   SizeFunc

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(probes []Probe, size SizeFunc, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		probes:   probes,
		size:     size,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	return m.GetStatus().Healthy()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.status
	out.Components = make(map[string]bool, len(m.status.Components))
	for k, v := range m.status.Components {
		out.Components[k] = v
	}
	return out
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh()
	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs every probe once and stores the result.
func (m *Monitor) Refresh() {
	status := Status{
		Components: make(map[string]bool, len(m.probes)),
		LastCheck:  time.Now(),
	}
	for _, p := range m.probes {
		status.Components[p.Name] = m.check(p)
	}
	if m.size != nil {
		n, err := m.size()
		if err != nil {
			m.logger.Warn("task count check failed", zap.Error(err))
		}
		status.Tasks = n
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

func (m *Monitor) check(p Probe) bool {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	if err := p.Check(ctx); err != nil {
		m.logger.Warn("dependency check failed", zap.String("component", p.Name), zap.Error(err))
		return false
	}
	return true
}
