package brackets

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotEnoughEntrants is returned for entrant lists shorter than two; there
// is no valid bracket for zero or one entrants.
var ErrNotEnoughEntrants = errors.New("at least 2 entrants are required to generate a bracket")

type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() Generator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string {
	return "SingleElimination"
}

// Generate builds a full single-elimination tree from the entrant list.
//
// With n entrants the bracket spans ceil(log2(n)) rounds over a padded size
// of 2^numRounds. Round 1 pairs shuffled[2i] against shuffled[2i+1] for each
// of bracketSize/2 slots; entrants landing past the end of the shuffled list
// leave the trailing slots half-empty (byes). Later rounds are created empty
// and each pair of adjacent previous-round slots links forward into them.
func (g *SingleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) ([]Slot, error) {
	n := len(params.TeamIDs)
	if n < 2 {
		return nil, ErrNotEnoughEntrants
	}
	if params.Rand == nil {
		return nil, errors.New("a random source is required for entrant shuffling")
	}

	shuffled := make([]int, n)
	copy(shuffled, params.TeamIDs)
	params.Rand.Shuffle(n, func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	numRounds := 0
	for 1<<numRounds < n {
		numRounds++
	}
	bracketSize := 1 << numRounds

	rounds := make([][]Slot, numRounds)

	// Round 1 always spans the full padded bracket: entrants past the end of
	// the shuffled list leave the trailing slots half or fully empty, and
	// their occupants (if any) advance as byes.
	firstRound := make([]Slot, 0, bracketSize/2)
	for i := 0; i < bracketSize/2; i++ {
		var home, away *int
		if 2*i < n {
			home = &shuffled[2*i]
		}
		if 2*i+1 < n {
			away = &shuffled[2*i+1]
		}
		firstRound = append(firstRound, Slot{Round: 1, Position: i, HomeTeamID: home, AwayTeamID: away})
	}
	rounds[0] = firstRound

	for r := 2; r <= numRounds; r++ {
		prev := rounds[r-2]
		count := (len(prev) + 1) / 2
		cur := make([]Slot, count)
		for i := 0; i < count; i++ {
			cur[i] = Slot{Round: r, Position: i}
		}
		for i := range prev {
			key := cur[i/2].Key()
			prev[i].NextSlotKey = &key
		}
		rounds[r-1] = cur
	}

	if last := rounds[numRounds-1]; len(last) != 1 {
		return nil, fmt.Errorf("internal error: final round has %d slots for %d entrants", len(last), n)
	}

	slots := make([]Slot, 0, bracketSize-1)
	for _, round := range rounds {
		slots = append(slots, round...)
	}
	return slots, nil
}
