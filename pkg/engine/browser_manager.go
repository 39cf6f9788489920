package engine

import (
	"errors"
	"sync"
	"time"
)

// Container launch ports spec §6 "Container launch parameters" names.
const (
	BrowserPortVNC     = 5900
	BrowserPortNoVNC   = 6080
	BrowserPortDevTools = 9222
)

// BrowserStatus is the lifecycle state of a provisioned browser container
// record.
type BrowserStatus string

const (
	BrowserProvisioning BrowserStatus = "provisioning"
	BrowserReady        BrowserStatus = "ready"
	BrowserClosed       BrowserStatus = "closed"
)

// BrowserRecord describes one browser container resource handed out by
// POST /browser/create, and read back by GET /browser/{id}. This is
// bookkeeping only — no real container is spawned here. spec.md and
// SPEC_FULL.md detail the container's launch flags and exposed ports but
// not a provisioning API or orchestrator SDK, and none of the example
// repos in the corpus wire a docker/k8s client; see DESIGN.md's
// "pkg/engine" entry for the resulting decision to keep this a minimal
// in-memory registry that a session's BROWSER_MODE=container/custom
// CDP connection points at, rather than invent an unfounded dependency.
type BrowserRecord struct {
	ID         string        `json:"id"`
	Image      string        `json:"image"`
	Status     BrowserStatus `json:"status"`
	CDPPort    int           `json:"devtools_port"`
	VNCPort    int           `json:"vnc_port"`
	NoVNCPort  int           `json:"novnc_port"`
	CreatedAt  time.Time     `json:"created_at"`
}

// errBrowserNotFound is returned by Get/Close for an unknown browser id.
var errBrowserNotFound = errors.New("engine: browser not found")

// BrowserManager tracks provisioned browser container records, keyed by
// id. Mutex-guarded process-wide map, in the same style as Registry (spec
// §5 "Shared resources").
type BrowserManager struct {
	mu       sync.Mutex
	browsers map[string]*BrowserRecord
	newID    func() string
}

// NewBrowserManager returns an empty BrowserManager. newID generates each
// record's id (injected so tests can use deterministic ids).
func NewBrowserManager(newID func() string) *BrowserManager {
	return &BrowserManager{browsers: make(map[string]*BrowserRecord), newID: newID}
}

// Create registers a new browser container record in BrowserReady status
// and returns it. image is stored as given; an empty image stays empty.
func (m *BrowserManager) Create(image string) *BrowserRecord {
	rec := &BrowserRecord{
		ID:        m.newID(),
		Image:     image,
		Status:    BrowserReady,
		CDPPort:   BrowserPortDevTools,
		VNCPort:   BrowserPortVNC,
		NoVNCPort: BrowserPortNoVNC,
		CreatedAt: time.Now(),
	}
	m.mu.Lock()
	m.browsers[rec.ID] = rec
	m.mu.Unlock()
	return rec
}

// Get returns the browser record for id, or errBrowserNotFound.
func (m *BrowserManager) Get(id string) (*BrowserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.browsers[id]
	if !ok {
		return nil, errBrowserNotFound
	}
	return rec, nil
}

// Close marks id's record BrowserClosed and removes it from the registry.
// Returns errBrowserNotFound if id is unknown.
func (m *BrowserManager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.browsers[id]; !ok {
		return errBrowserNotFound
	}
	delete(m.browsers, id)
	return nil
}

// ErrBrowserNotFound reports whether err is the not-found sentinel, for
// pkg/api's HTTP status mapping.
func ErrBrowserNotFound(err error) bool {
	return errors.Is(err, errBrowserNotFound)
}
