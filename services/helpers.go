package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/clubarena/clubarena/models"
	"github.com/clubarena/clubarena/repositories"
)

// authorizeEventAdmin resolves the acting user and checks they may administer
// the event's owning club (platform super admin or admin of that club).
func authorizeEventAdmin(ctx context.Context, userRepo repositories.UserRepository, event *models.Event, actorID int) (*models.User, error) {
	actor, err := userRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrForbiddenOperation
		}
		return nil, fmt.Errorf("failed to load acting user %d: %w", actorID, err)
	}
	if !actor.CanManageClub(event.ClubID) {
		return nil, ErrForbiddenOperation
	}
	return actor, nil
}

// keyedMutex serializes work per string key. Bracket mutation uses it to
// guard each event against interleaved delete/create.
// Mutexes are kept for the process lifetime; the key space (events under
// active administration) is small.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// bracketLockKey is deliberately event-wide rather than per division:
// DeleteBracket removes matches across all divisions, so a finer-grained
// lock could not exclude it from a concurrent per-division generate.
func bracketLockKey(eventID int) string {
	return fmt.Sprintf("event:%d", eventID)
}
