package healthcheck

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Probe checks one dependency, e.g. the database or redis
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Periodically runs the probes and keeps their latest status
type Checker struct {
	mu           sync.RWMutex
	probes       []Probe
	healthStatus map[string]*Status
	interval     time.Duration
	timeout      time.Duration
	maxFailures  int
	clock        clockwork.Clock
	logger       *slog.Logger
	stopChan     chan struct{}
	running      bool
}

// Holds health checker configuration
type Config struct {
	Probes      []Probe
	Interval    time.Duration // How often to check (default: 10s)
	Timeout     time.Duration // Per-probe timeout (default: 5s)
	MaxFailures int           // Failures before marking unhealthy (default: 3)
	Clock       clockwork.Clock
	Logger      *slog.Logger
}

func NewChecker(cfg *Config) *Checker {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	checker := &Checker{
		probes:       cfg.Probes,
		healthStatus: make(map[string]*Status),
		interval:     cfg.Interval,
		timeout:      cfg.Timeout,
		maxFailures:  cfg.MaxFailures,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
		stopChan:     make(chan struct{}),
	}

	for _, p := range cfg.Probes {
		checker.healthStatus[p.Name] = &Status{
			Name:      p.Name,
			IsHealthy: true, // Assume healthy initially
			LastCheck: cfg.Clock.Now(),
		}
	}

	return checker
}

// Begins periodic health checks
func (c *Checker) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	c.logger.Info("starting health checks", "probes", len(c.probes), "interval", c.interval)

	// Run initial check immediately
	c.CheckAll(context.Background())

	go func() {
		ticker := c.clock.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.Chan():
				c.CheckAll(context.Background())
			case <-c.stopChan:
				return
			}
		}
	}()
}

// Stops the health checker
func (c *Checker) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		close(c.stopChan)
		c.running = false
		c.logger.Info("health checker stopped")
	}
}

// CheckAll runs every probe concurrently and waits for them
func (c *Checker) CheckAll(ctx context.Context) {
	var wg sync.WaitGroup

	for _, p := range c.probes {
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()
			c.checkProbe(ctx, p)
		}(p)
	}

	wg.Wait()
}

func (c *Checker) checkProbe(ctx context.Context, p Probe) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := p.Check(ctx); err != nil {
		c.recordFailure(p.Name, err)
		return
	}
	c.recordSuccess(p.Name)
}

// Records a successful health check
func (c *Checker) recordSuccess(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	status := c.healthStatus[name]
	status.LastCheck = now
	status.LastSuccess = now
	status.LastError = ""
	status.FailureCount = 0

	if !status.IsHealthy {
		c.logger.Info("dependency is healthy again", "probe", name)
		status.IsHealthy = true
	}
}

// Records a failed health check
func (c *Checker) recordFailure(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	status := c.healthStatus[name]
	status.LastCheck = now
	status.LastFailure = now
	status.LastError = err.Error()
	status.FailureCount++

	if status.IsHealthy && status.FailureCount >= c.maxFailures {
		c.logger.Warn("dependency is unhealthy", "probe", name, "failures", status.FailureCount, "error", err)
		status.IsHealthy = false
	}
}

// Returns a copy of every probe's status
func (c *Checker) GetAllStatus() map[string]*Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	statusMap := make(map[string]*Status)
	for name, status := range c.healthStatus {
		statusCopy := *status
		statusMap[name] = &statusCopy
	}

	return statusMap
}

// Returns the overall health status
func (c *Checker) OverallHealth() HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	healthyCount := 0
	for _, status := range c.healthStatus {
		if status.IsHealthy {
			healthyCount++
		}
	}

	if len(c.healthStatus) > 0 && healthyCount == 0 {
		return Unhealthy
	}
	if healthyCount < len(c.healthStatus) {
		return Degraded
	}

	return Healthy
}
