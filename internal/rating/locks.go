package rating

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// TeamLocker serializes rating read-modify-write cycles per team. Two
// completions sharing a team must not interleave their updates.
type TeamLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewTeamLocker() *TeamLocker {
	return &TeamLocker{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *TeamLocker) lockFor(id uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// Lock acquires the mutexes for all given teams in a stable order so that
// concurrent completions over overlapping teams cannot deadlock. The returned
// func releases them.
func (l *TeamLocker) Lock(teamIDs ...uuid.UUID) func() {
	ids := append([]uuid.UUID(nil), teamIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	held := make([]*sync.Mutex, 0, len(ids))
	for i, id := range ids {
		if i > 0 && ids[i-1] == id {
			continue
		}
		m := l.lockFor(id)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
