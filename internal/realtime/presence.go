package realtime

import "sync"

// Presence maps a user to the connections currently open for them. It is
// process-local; scaling the real-time layer across instances needs an
// external fan-out backplane, which this design deliberately omits.
type Presence struct {
	mu    sync.RWMutex
	users map[string]map[string]Conn
}

func NewPresence() *Presence {
	return &Presence{users: make(map[string]map[string]Conn)}
}

// Register adds the connection to the user's set. Registering the same
// connection twice is a no-op.
func (p *Presence) Register(userID string, conn Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.users[userID]
	if !ok {
		set = make(map[string]Conn)
		p.users[userID] = set
	}
	set[conn.ID()] = conn
}

// Unregister removes the connection; when it was the user's last one the
// user's entry disappears entirely, so no empty sets are retained.
func (p *Presence) Unregister(userID, connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.users[userID]
	if !ok {
		return
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(p.users, userID)
	}
}

func (p *Presence) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.users[userID]) > 0
}

// HandlesFor returns a snapshot of the user's connections. The caller may
// fan out to the snapshot while connections disconnect concurrently; writes
// to a closed connection are the writer's problem to swallow.
func (p *Presence) HandlesFor(userID string) []Conn {
	p.mu.RLock()
	defer p.mu.RUnlock()

	set := p.users[userID]
	if len(set) == 0 {
		return nil
	}
	conns := make([]Conn, 0, len(set))
	for _, c := range set {
		conns = append(conns, c)
	}
	return conns
}

// OnlineCount reports how many distinct users have at least one connection.
func (p *Presence) OnlineCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.users)
}
