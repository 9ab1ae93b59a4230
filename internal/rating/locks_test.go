package rating

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTeamLockerSerializesPerTeam(t *testing.T) {
	locker := NewTeamLocker()
	team := uuid.New()
	other := uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock(team, other)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, counter)
}

func TestTeamLockerDeduplicatesIDs(t *testing.T) {
	locker := NewTeamLocker()
	team := uuid.New()

	// locking the same team twice in one call must not self-deadlock
	unlock := locker.Lock(team, team)
	unlock()

	unlock = locker.Lock(team)
	unlock()
}

func TestTeamLockerOppositeOrderDoesNotDeadlock(t *testing.T) {
	locker := NewTeamLocker()
	a, b := uuid.New(), uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock := locker.Lock(a, b)
			unlock()
		}()
		go func() {
			defer wg.Done()
			unlock := locker.Lock(b, a)
			unlock()
		}()
	}
	wg.Wait()
}
