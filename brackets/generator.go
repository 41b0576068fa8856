package brackets

import (
	"context"
	"fmt"
	"math/rand"
)

// SlotKey addresses a slot within a generated bracket by round and position.
type SlotKey struct {
	Round    int `json:"round"`
	Position int `json:"position"`
}

// Slot is an in-memory, pre-persistence node of the bracket tree. Round 1
// slots carry the entrants; later rounds are empty until results come in.
// A round-1 slot with only one side populated is a bye. NextSlotKey points
// at the slot in the following round that the winner advances into and is
// nil only for the final.
type Slot struct {
	Round       int      `json:"round"`
	Position    int      `json:"position"`
	HomeTeamID  *int     `json:"home_team_id,omitempty"`
	AwayTeamID  *int     `json:"away_team_id,omitempty"`
	NextSlotKey *SlotKey `json:"next_slot_key,omitempty"`
}

// Key returns the slot's own address.
func (s *Slot) Key() SlotKey {
	return SlotKey{Round: s.Round, Position: s.Position}
}

type GenerateParams struct {
	TeamIDs []int
	// Rand drives the entrant shuffle. Callers inject it so tests can pin
	// bracket shapes; production callers seed a fresh source per call.
	Rand *rand.Rand
}

type Generator interface {
	Generate(ctx context.Context, params GenerateParams) ([]Slot, error)

	Name() string
}

// RoundLabel renders the stored display label for a round.
func RoundLabel(round, numRounds int) string {
	switch {
	case round == numRounds:
		return "Final"
	case round == numRounds-1:
		return "Semifinal"
	default:
		return fmt.Sprintf("Round %d", round)
	}
}

// NumRounds returns the highest round present in slots.
func NumRounds(slots []Slot) int {
	max := 0
	for _, s := range slots {
		if s.Round > max {
			max = s.Round
		}
	}
	return max
}
