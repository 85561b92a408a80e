package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/daemonp/alula2mqtt/internal/alula"
	"github.com/daemonp/alula2mqtt/internal/config"
	"github.com/daemonp/alula2mqtt/internal/log"
	"github.com/daemonp/alula2mqtt/internal/metrics"
	"github.com/daemonp/alula2mqtt/internal/types"
	"github.com/daemonp/alula2mqtt/internal/zones"
)

// SessionClient is the slice of the Alula client the poller depends on.
type SessionClient interface {
	ListDevices(ctx context.Context) ([]types.Device, error)
	GetEventLog(ctx context.Context, panelID string, limit int) ([]types.EventLogEntry, error)
	EnsureZoneSubscriptions(ctx context.Context, panelID string, indices []int) (int, error)
	RenewNotifications(ctx context.Context) error
	Arm(ctx context.Context, panelID string, armType types.ArmType) error
	Disarm(ctx context.Context, panelID string) error
	RefreshToken() string
}

// Outcome classifies how a poll cycle ended.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeAuthFailed
	OutcomeUpdateFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeAuthFailed:
		return "auth_failed"
	default:
		return "update_failed"
	}
}

// CycleResult is delivered to update subscribers once per completed cycle,
// successful or not. Failed cycles leave the snapshot untouched.
type CycleResult struct {
	Outcome Outcome
	Cycle   int
	Err     error
}

type state int

const (
	stateUninitialized state = iota
	stateSteady
)

// Poller drives the periodic poll cycle. It is the single owner of the zone
// registry and the cycle counter; cycles are serialized by the run loop, so
// neither is ever concurrently mutated. Only the snapshot and the callback
// lists cross goroutines and sit behind the mutex.
type Poller struct {
	cfg     *config.AlulaConfig
	log     *log.Logger
	client  SessionClient
	metrics *metrics.Metrics

	registry   *zones.Registry
	subPending map[string]map[int]bool
	state      state
	cycle      int
	lastToken  string

	mu             sync.Mutex
	snapshot       *types.Snapshot
	onUpdate       []func(CycleResult)
	onTokenRotated func(string)

	refreshCh chan struct{}
}

func NewPoller(cfg *config.AlulaConfig, client SessionClient, logger *log.Logger, m *metrics.Metrics) *Poller {
	return &Poller{
		cfg:        cfg,
		log:        logger,
		client:     client,
		metrics:    m,
		registry:   zones.NewRegistry(),
		subPending: make(map[string]map[int]bool),
		refreshCh:  make(chan struct{}, 1),
	}
}

// SeedRegistry pre-loads zones discovered in previous runs.
func (p *Poller) SeedRegistry(data map[string]map[int]zones.Metadata) {
	p.registry.Import(data)
}

// RegistryExport returns the registry contents for persistence.
func (p *Poller) RegistryExport() map[string]map[int]zones.Metadata {
	return p.registry.Export()
}

// NotePersistedToken records the refresh token that is already persisted so
// an unchanged token does not trigger a redundant save.
func (p *Poller) NotePersistedToken(token string) {
	p.lastToken = token
}

// OnUpdate registers a callback fired once per completed cycle.
func (p *Poller) OnUpdate(f func(CycleResult)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onUpdate = append(p.onUpdate, f)
}

// OnTokenRotated registers the persistence callback for rotated refresh
// tokens.
func (p *Poller) OnTokenRotated(f func(string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onTokenRotated = f
}

// Data returns the latest fully-built snapshot, or nil before the first
// successful cycle.
func (p *Poller) Data() *types.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

// Run executes poll cycles on the configured interval until the context is
// cancelled. An out-of-cycle refresh request runs one extra cycle without
// disturbing the schedule. Cycles never overlap.
func (p *Poller) Run(ctx context.Context) {
	interval := time.Duration(p.cfg.PollInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-p.refreshCh:
		}
		p.RunOnce(ctx)
	}
}

// Refresh requests one out-of-cycle poll, used after panel commands.
func (p *Poller) Refresh() {
	select {
	case p.refreshCh <- struct{}{}:
	default:
	}
}

// RunOnce executes a single poll cycle and reports its outcome. The cycle
// counter always advances: partial discovery from a failed cycle is kept,
// since re-discovering a known zone is idempotent.
func (p *Poller) RunOnce(ctx context.Context) CycleResult {
	res := p.update(ctx)
	res.Cycle = p.cycle
	p.cycle++

	p.metrics.ObserveCycle(res.Outcome.String())
	p.persistRotatedToken()

	p.mu.Lock()
	callbacks := append(([]func(CycleResult))(nil), p.onUpdate...)
	p.mu.Unlock()
	for _, cb := range callbacks {
		cb(res)
	}
	return res
}

func (p *Poller) update(ctx context.Context) CycleResult {
	devices, err := p.client.ListDevices(ctx)
	if err != nil {
		return p.failure(err)
	}
	p.log.Debug("API returned %d devices", len(devices))

	panels := make(map[string]types.Device)
	cameras := make(map[string]types.Device)
	for _, d := range devices {
		switch {
		case d.IsPanel:
			panels[d.ID] = d
		case d.IsCamera:
			cameras[d.ID] = d
		}
	}

	if len(devices) == 0 {
		p.log.Warning("Account has no devices; publishing an empty snapshot")
	} else if len(panels) == 0 {
		p.log.Warning("Found %d devices but none are panels", len(devices))
	}

	if err := p.client.RenewNotifications(ctx); err != nil {
		p.log.Warning("Failed to renew notifications: %v", err)
	}

	limit := p.scanLimit()
	p.log.Debug("Cycle %d: event window %d entries", p.cycle, limit)

	zoneMaps := make(map[string]map[int]types.Zone, len(panels))
	for panelID := range panels {
		events, err := p.client.GetEventLog(ctx, panelID, limit)
		if err != nil {
			return p.failure(err)
		}

		inserted := zones.Discover(p.registry, panelID, events)
		if len(inserted) > 0 {
			p.log.Info("Discovered %d new zones on panel %s", len(inserted), panelID)
			p.metrics.AddZonesDiscovered(len(inserted))
			p.stageSubscriptions(panelID, inserted)
		}
		p.ensureSubscriptions(ctx, panelID)

		zoneMaps[panelID] = zones.Reconstruct(panelID, events, p.registry.View(panelID))
	}

	snap := &types.Snapshot{Panels: panels, Cameras: cameras, Zones: zoneMaps}
	p.mu.Lock()
	p.snapshot = snap
	p.mu.Unlock()

	if p.state == stateUninitialized {
		p.log.Info("Initial scan complete: %d panels, %d cameras, %d zones", len(panels), len(cameras), countZones(zoneMaps))
		p.state = stateSteady
	}
	p.metrics.SetSnapshotSize(len(panels), countZones(zoneMaps))

	return CycleResult{Outcome: OutcomeOK}
}

// scanLimit picks the event-log window: wide for the initial scan and on
// the deep-scan cadence, narrow otherwise. The narrow window keeps steady
// polling cheap; the periodic wide scan bounds discovery latency for zones
// that trigger rarely.
func (p *Poller) scanLimit() int {
	if p.state == stateUninitialized {
		return p.cfg.DeepEventWindow
	}
	if p.cfg.DeepScanEvery > 0 && p.cycle%p.cfg.DeepScanEvery == 0 {
		return p.cfg.DeepEventWindow
	}
	return p.cfg.EventWindow
}

func (p *Poller) stageSubscriptions(panelID string, indices []int) {
	pending, ok := p.subPending[panelID]
	if !ok {
		pending = make(map[int]bool)
		p.subPending[panelID] = pending
	}
	for _, idx := range indices {
		pending[idx] = true
	}
}

// ensureSubscriptions flushes the pending subscription set for a panel.
// Failures keep the set intact so the next cycle retries; the zones stay in
// the registry regardless.
func (p *Poller) ensureSubscriptions(ctx context.Context, panelID string) {
	pending := p.subPending[panelID]
	if len(pending) == 0 {
		return
	}

	indices := make([]int, 0, len(pending))
	for idx := range pending {
		indices = append(indices, idx)
	}

	created, err := p.client.EnsureZoneSubscriptions(ctx, panelID, indices)
	if err != nil {
		p.log.Warning("Failed to create zone subscriptions for panel %s: %v (will retry next cycle)", panelID, err)
		p.metrics.ObserveSubscriptionFailure()
		return
	}

	p.log.Debug("Ensured %d zone subscriptions for panel %s (%d newly created)", len(indices), panelID, created)
	delete(p.subPending, panelID)
}

func (p *Poller) failure(err error) CycleResult {
	var authErr *alula.AuthError
	if errors.As(err, &authErr) {
		p.log.Error("Authentication failed: %v", err)
		return CycleResult{Outcome: OutcomeAuthFailed, Err: err}
	}
	p.log.Error("Update failed: %v", err)
	return CycleResult{Outcome: OutcomeUpdateFailed, Err: err}
}

func (p *Poller) persistRotatedToken() {
	token := p.client.RefreshToken()
	if token == "" || token == p.lastToken {
		return
	}
	p.lastToken = token

	p.mu.Lock()
	cb := p.onTokenRotated
	p.mu.Unlock()
	if cb != nil {
		p.log.Debug("Refresh token rotated, persisting")
		cb(token)
	}
}

// Arm sends an arm command and schedules an out-of-cycle refresh so the
// snapshot catches up without waiting for the next tick.
func (p *Poller) Arm(ctx context.Context, panelID string, armType types.ArmType) error {
	if err := p.client.Arm(ctx, panelID, armType); err != nil {
		return err
	}
	p.Refresh()
	return nil
}

// Disarm sends a disarm command and schedules an out-of-cycle refresh.
func (p *Poller) Disarm(ctx context.Context, panelID string) error {
	if err := p.client.Disarm(ctx, panelID); err != nil {
		return err
	}
	p.Refresh()
	return nil
}

func countZones(zoneMaps map[string]map[int]types.Zone) int {
	n := 0
	for _, m := range zoneMaps {
		n += len(m)
	}
	return n
}
