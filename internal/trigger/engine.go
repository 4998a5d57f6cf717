// File: internal/trigger/engine.go
package trigger

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/chat-outgoing-webhooks/internal/metrics"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/models"
	"github.com/smartdevs17/chat-outgoing-webhooks/pkg/utils"
)

// Engine is the outgoing integration trigger engine
type Engine interface {
	// Lifecycle management
	Start(ctx context.Context) error
	Stop() error
	IsRunning() bool

	// Registry operations
	AddIntegration(record *models.Integration)
	RemoveIntegration(id string)
	IsTriggerEnabled(record *models.Integration) bool

	// Execution
	ExecuteTriggers(ctx context.Context, kind models.EventKind, args ...interface{})
	ExecuteTriggerURL(ctx context.Context, url string, trigger *models.Integration, ev *models.NormalizedEvent, tries int) error
	Replay(ctx context.Context, record *models.Integration, history *models.HistoryEntry) error
}

// Deps bundles the external collaborators the engine consumes
type Deps struct {
	Users        UserStore
	Rooms        RoomStore
	Messages     MessageStore
	Messenger    Messenger
	Integrations IntegrationWriter
	History      HistorySink
	Settings     Settings
	Notifier     ChangeNotifier
	Fetcher      Fetcher
	Script       ScriptEngine
	Metrics      *metrics.Manager
}

// Manager implements the Engine interface
type Manager struct {
	registry   *Registry
	dispatcher *Dispatcher
	deps       Deps
	logger     *logrus.Entry

	successResults []int

	// schedule defers a retry attempt; replaced in tests
	schedule func(delay time.Duration, fn func())

	mu      sync.Mutex
	running bool

	// inflight tracks asynchronous HTTP continuations
	inflight sync.WaitGroup
}

// NewManager creates a new trigger engine manager
func NewManager(deps Deps) *Manager {
	if deps.Script == nil {
		deps.Script = NoopScriptEngine{}
	}

	m := &Manager{
		registry:       NewRegistry(),
		dispatcher:     NewDispatcher(deps.Users, deps.Rooms, deps.Messenger, deps.Metrics),
		deps:           deps,
		logger:         utils.ComponentLogger("trigger-engine"),
		successResults: []int{200, 201, 202},
	}
	m.schedule = func(delay time.Duration, fn func()) {
		time.AfterFunc(delay, fn)
	}
	return m
}

// Start starts the engine
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return utils.NewAppError(utils.ErrCodeInternal, "Trigger engine already running")
	}

	m.running = true
	m.deps.Metrics.SetComponentHealth("trigger-engine", true)
	m.logger.Info("Trigger engine started")
	return nil
}

// Stop stops the engine and waits for in-flight HTTP continuations
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	m.mu.Unlock()

	m.inflight.Wait()
	m.deps.Metrics.SetComponentHealth("trigger-engine", false)
	m.logger.Info("Trigger engine stopped")
	return nil
}

// IsRunning reports whether the engine is started
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// AddIntegration registers an integration in the trigger index
func (m *Manager) AddIntegration(record *models.Integration) {
	m.registry.Add(record)
	m.deps.Metrics.SetIntegrationsRegistered(m.registry.Count())
}

// RemoveIntegration removes an integration from the trigger index
func (m *Manager) RemoveIntegration(id string) {
	m.registry.Remove(id)
	m.deps.Metrics.SetIntegrationsRegistered(m.registry.Count())
}

// IsTriggerEnabled reports whether the integration is registered and enabled
func (m *Manager) IsTriggerEnabled(record *models.Integration) bool {
	return m.registry.IsEnabled(record.ID)
}

// ExecuteTriggers matches an application event against the registered
// integrations and executes every enabled candidate whose event kind
// matches. Failures of one trigger never abort processing of its siblings.
func (m *Manager) ExecuteTriggers(ctx context.Context, kind models.EventKind, args ...interface{}) {
	m.logger.Debugf("Execute trigger: %s", kind)

	ev := normalizeEvent(m.logger, kind, args...)
	if ev.Kind == "" {
		return
	}

	candidates := m.registry.Resolve(ev.Room, ev.Message)
	m.logger.Debugf("Found %d candidates to iterate over and see if they match the event", len(candidates))

	for _, candidate := range candidates {
		if candidate.Enabled && candidate.Event == ev.Kind {
			m.executeTrigger(ctx, candidate, ev)
		}
	}
}

// executeTrigger runs one trigger against each of its configured URLs
func (m *Manager) executeTrigger(ctx context.Context, trigger *models.Integration, ev *models.NormalizedEvent) {
	for _, url := range trigger.URLs {
		if err := m.ExecuteTriggerURL(ctx, url, trigger, ev, 0); err != nil {
			m.logger.WithError(err).Errorf("Execution of the integration %q against %s failed", trigger.Name, url)
		}
	}
}
