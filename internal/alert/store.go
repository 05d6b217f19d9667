package alert

import (
	"sync"

	"github.com/pkg/errors"
)

// DuplicatePolicy decides what Create does when an equal alert is already
// armed in the same channel.
type DuplicatePolicy string

const (
	// DuplicateReject refuses the second alert.
	DuplicateReject DuplicatePolicy = "reject"
	// DuplicateAppend keeps both, the permissive historical behavior.
	DuplicateAppend DuplicatePolicy = "append"
)

// ErrDuplicate is returned by Create under the reject policy.
var ErrDuplicate = errors.New("an equal alert is already armed")

// Store is the authoritative registry of armed alerts, keyed by workspace.
// All mutation goes through its mutex; alerts from different workspaces never
// interact.
type Store struct {
	mu     sync.Mutex
	policy DuplicatePolicy
	alerts map[int64][]*Alert
}

func NewStore(policy DuplicatePolicy) *Store {
	if policy != DuplicateAppend {
		policy = DuplicateReject
	}
	return &Store{
		policy: policy,
		alerts: make(map[int64][]*Alert),
	}
}

func (s *Store) Policy() DuplicatePolicy {
	return s.policy
}

// Create arms a new alert. Under the reject policy an equal armed alert in
// the same workspace yields ErrDuplicate.
func (s *Store) Create(a *Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.policy == DuplicateReject && s.findEqual(a) != nil {
		return ErrDuplicate
	}
	s.alerts[a.WorkspaceID] = append(s.alerts[a.WorkspaceID], a)
	return nil
}

// Exists reports whether an equal alert is already armed.
func (s *Store) Exists(a *Alert) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findEqual(a) != nil
}

// List returns a snapshot of a workspace's alerts, safe to iterate while the
// registry mutates underneath.
func (s *Store) List(workspaceID int64) []*Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.alerts[workspaceID]
	out := make([]*Alert, len(src))
	copy(out, src)
	return out
}

// Workspaces returns the ids of all workspaces holding at least one alert.
func (s *Store) Workspaces() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]int64, 0, len(s.alerts))
	for id, as := range s.alerts {
		if len(as) > 0 {
			out = append(out, id)
		}
	}
	return out
}

// Remove retires the exact alert instance a; the append policy allows equal
// alerts to coexist, so value equality alone could retire a sibling. Callers
// holding a reconstructed value rather than the stored instance fall back to
// the Equal scan. It reports whether anything was removed; a second call for
// the same alert is a no-op.
func (s *Store) Remove(a *Alert) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	as := s.alerts[a.WorkspaceID]
	for i, cur := range as {
		if cur == a {
			s.alerts[a.WorkspaceID] = append(as[:i], as[i+1:]...)
			return true
		}
	}
	for i, cur := range as {
		if cur.Equal(a) {
			s.alerts[a.WorkspaceID] = append(as[:i], as[i+1:]...)
			return true
		}
	}
	return false
}

// UpsertFromReconciliation inserts a restored alert unless an equal one is
// already present, which makes reconciliation idempotent. It reports whether
// the alert was inserted.
func (s *Store) UpsertFromReconciliation(a *Alert) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findEqual(a) != nil {
		return false
	}
	s.alerts[a.WorkspaceID] = append(s.alerts[a.WorkspaceID], a)
	return true
}

// FindByAnnouncement returns the armed alert announced by messageID, or nil.
func (s *Store) FindByAnnouncement(workspaceID int64, messageID int) *Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.alerts[workspaceID] {
		if a.AnnouncementMessageID == messageID {
			return a
		}
	}
	return nil
}

// Len counts armed alerts across all workspaces.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, as := range s.alerts {
		n += len(as)
	}
	return n
}

func (s *Store) findEqual(a *Alert) *Alert {
	for _, cur := range s.alerts[a.WorkspaceID] {
		if cur.Equal(a) {
			return cur
		}
	}
	return nil
}
