package services

import (
	"sync"
	"time"

	"moneybook/internal/amqp"
	"moneybook/internal/backend"
	"moneybook/internal/drafts"
	"moneybook/internal/history"
	"moneybook/internal/retailers"
	"moneybook/internal/submit"
)

type managedEditor struct {
	svc      *EditorService
	lastSeen time.Time
}

// Manager hands out one EditorService per browser session. The draft list and
// the in-flight guard are session-scoped; the retailer directory, the journal
// and the AMQP client are shared. Idle sessions are evicted after ttl.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*managedEditor
	ttl      time.Duration

	creator          backend.TransactionCreator
	directory        *retailers.Directory
	journal          *history.Store
	amqpClient       *amqp.Client
	concurrencyLimit int

	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

// ManagerConfig carries the shared collaborators for every editor session.
// Journal and AMQPClient may be nil; journaling and event publishing are
// then skipped.
type ManagerConfig struct {
	Creator          backend.TransactionCreator
	Directory        *retailers.Directory
	Journal          *history.Store
	AMQPClient       *amqp.Client
	SessionTTL       time.Duration
	ConcurrencyLimit int
}

func NewManager(cfg ManagerConfig) *Manager {
	m := &Manager{
		sessions:         make(map[string]*managedEditor),
		ttl:              cfg.SessionTTL,
		creator:          cfg.Creator,
		directory:        cfg.Directory,
		journal:          cfg.Journal,
		amqpClient:       cfg.AMQPClient,
		concurrencyLimit: cfg.ConcurrencyLimit,
		stopCleanup:      make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// Get returns the editor for sessionID, creating one when the session is new.
// Switching to a different account discards the old draft list and starts a
// fresh editor for the new account.
func (m *Manager) Get(sessionID, accountID string) *EditorService {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[sessionID]
	if ok && entry.svc.store.AccountID() == accountID {
		entry.lastSeen = time.Now()
		return entry.svc
	}

	svc := m.newEditor(accountID)
	m.sessions[sessionID] = &managedEditor{svc: svc, lastSeen: time.Now()}
	return svc
}

// Lookup returns the editor for sessionID without creating one.
func (m *Manager) Lookup(sessionID string) (*EditorService, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[sessionID]
	if !ok {
		return nil, false
	}
	entry.lastSeen = time.Now()
	return entry.svc, true
}

// Drop discards the session's editor, if any.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// ActiveSessions returns the number of live editor sessions.
func (m *Manager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Stop terminates the background cleanup goroutine.
func (m *Manager) Stop() {
	m.shutdownOnce.Do(func() {
		close(m.stopCleanup)
	})
}

func (m *Manager) newEditor(accountID string) *EditorService {
	var opts []submit.Option
	if m.concurrencyLimit > 0 {
		opts = append(opts, submit.WithConcurrencyLimit(m.concurrencyLimit))
	}
	return NewEditorService(
		drafts.New(accountID),
		m.directory,
		submit.NewCoordinator(m.creator, opts...),
		m.journal,
		m.amqpClient,
	)
}

func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCleanup:
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *Manager) evictIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-m.ttl)
	for id, entry := range m.sessions {
		if entry.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}
