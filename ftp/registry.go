package ftp

import "sync"

// Registry is the process-wide index of live sessions and aggregate
// transfer counters, grounded on the teacher's connManager/SessionManager
// map-under-a-mutex idiom.
type Registry struct {
	mu       sync.Mutex
	sessions map[uint64]*Session
	nextID   uint64

	uploadedBytes   uint64
	downloadedBytes uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uint64]*Session)}
}

// NextID allocates a monotonically increasing session ID.
func (r *Registry) NextID() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	return r.nextID
}

// Add registers a session.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Remove drops a session and folds its counters into the process totals.
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, s.ID)
	r.uploadedBytes += s.UploadedBytes.Load()
	r.downloadedBytes += s.DownloadedBytes.Load()
}

// Snapshot returns a read-only copy of the live sessions.
func (r *Registry) Snapshot() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Totals returns the process-wide byte counters, including sessions
// still connected.
func (r *Registry) Totals() (uploaded, downloaded uint64) {
	r.mu.Lock()
	uploaded, downloaded = r.uploadedBytes, r.downloadedBytes
	live := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.Unlock()
	for _, s := range live {
		uploaded += s.UploadedBytes.Load()
		downloaded += s.DownloadedBytes.Load()
	}
	return uploaded, downloaded
}

// Count reports the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
