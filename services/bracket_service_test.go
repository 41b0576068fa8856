package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/clubarena/clubarena/brackets"
	"github.com/clubarena/clubarena/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventID    = 1
	testClubID     = 10
	testAdminID    = 7
	testMemberID   = 5
	otherAdminID   = 8
	superAdminID   = 9
	unknownActorID = 404
)

func testUsers() *fakeUserRepo {
	clubID := testClubID
	otherClubID := 99
	return newFakeUserRepo(
		&models.User{ID: testAdminID, Email: "admin@club.test", Role: models.RoleClubAdmin, ClubID: &clubID},
		&models.User{ID: testMemberID, Email: "member@club.test", Role: models.RoleMember, ClubID: &clubID},
		&models.User{ID: otherAdminID, Email: "admin@other.test", Role: models.RoleClubAdmin, ClubID: &otherClubID},
		&models.User{ID: superAdminID, Email: "root@platform.test", Role: models.RoleSuperAdmin},
	)
}

func testEvent(status models.EventStatus) *models.Event {
	return &models.Event{
		ID:     testEventID,
		ClubID: testClubID,
		Name:   "Spring Open",
		Status: status,
	}
}

func addEntrants(repo *fakeEventRepo, count int, division *string) {
	for i := 0; i < count; i++ {
		repo.addTeams(testEventID, &models.Team{
			ID:       100 + len(repo.teams[testEventID]),
			EventID:  testEventID,
			Name:     fmt.Sprintf("Team %d", i+1),
			Division: division,
		})
	}
}

func newBracketServiceUnderTest(eventRepo *fakeEventRepo, matchRepo *fakeMatchRepo, seed int64) *bracketService {
	svc := NewBracketService(
		eventRepo,
		matchRepo,
		testUsers(),
		brackets.NewSingleEliminationGenerator(),
		nil,
		testLogger(),
	).(*bracketService)
	svc.newRand = func() *rand.Rand {
		return rand.New(rand.NewSource(seed))
	}
	return svc
}

func TestGenerateBracketCreatesFullTree(t *testing.T) {
	eventRepo := newFakeEventRepo(testEvent(models.EventStatusActive))
	addEntrants(eventRepo, 5, nil)
	matchRepo := newFakeMatchRepo()
	svc := newBracketServiceUnderTest(eventRepo, matchRepo, 1)

	result, err := svc.GenerateBracket(context.Background(), testEventID, GenerateBracketInput{}, testAdminID)
	require.NoError(t, err)
	assert.Equal(t, 7, result.MatchesCreated)

	matches, err := matchRepo.ListByEvent(context.Background(), testEventID, nil)
	require.NoError(t, err)
	require.Len(t, matches, 7)

	labels := make(map[string]int)
	finals := 0
	for _, m := range matches {
		labels[m.Round]++
		assert.Equal(t, models.MatchStatusScheduled, m.Status)
		if m.NextMatchID == nil {
			finals++
			assert.Equal(t, "Final", m.Round)
		}
	}
	assert.Equal(t, map[string]int{"Round 1": 4, "Semifinal": 2, "Final": 1}, labels)
	assert.Equal(t, 1, finals)

	event, err := eventRepo.GetByID(context.Background(), testEventID)
	require.NoError(t, err)
	require.NotNil(t, event.BracketType)
	assert.Equal(t, models.BracketSingleElimination, *event.BracketType)
	require.NotNil(t, event.BracketData)

	var slots []brackets.Slot
	require.NoError(t, json.Unmarshal([]byte(*event.BracketData), &slots))
	assert.Len(t, slots, 7)
}

func TestGenerateBracketRejectsUnsupportedType(t *testing.T) {
	eventRepo := newFakeEventRepo(testEvent(models.EventStatusActive))
	addEntrants(eventRepo, 4, nil)
	svc := newBracketServiceUnderTest(eventRepo, newFakeMatchRepo(), 1)

	for _, bt := range []models.BracketType{models.BracketDoubleElimination, models.BracketRoundRobin} {
		bracketType := bt
		_, err := svc.GenerateBracket(context.Background(), testEventID,
			GenerateBracketInput{BracketType: &bracketType}, testAdminID)
		assert.ErrorIs(t, err, ErrBracketTypeUnsupported)
	}
}

func TestGenerateBracketRegenerationReplacesMatches(t *testing.T) {
	eventRepo := newFakeEventRepo(testEvent(models.EventStatusActive))
	addEntrants(eventRepo, 6, nil)
	matchRepo := newFakeMatchRepo()
	svc := newBracketServiceUnderTest(eventRepo, matchRepo, 1)

	first, err := svc.GenerateBracket(context.Background(), testEventID, GenerateBracketInput{}, testAdminID)
	require.NoError(t, err)
	second, err := svc.GenerateBracket(context.Background(), testEventID, GenerateBracketInput{}, testAdminID)
	require.NoError(t, err)
	assert.Equal(t, first.MatchesCreated, second.MatchesCreated)

	matches, err := matchRepo.ListByEvent(context.Background(), testEventID, nil)
	require.NoError(t, err)
	require.Len(t, matches, second.MatchesCreated)

	type position struct {
		round string
		pos   int
	}
	seen := make(map[position]bool)
	for _, m := range matches {
		key := position{round: m.Round, pos: m.BracketPosition}
		assert.Falsef(t, seen[key], "duplicate bracket position %v after regeneration", key)
		seen[key] = true
	}
}

func TestGenerateBracketPerDivision(t *testing.T) {
	eventRepo := newFakeEventRepo(testEvent(models.EventStatusActive))
	divisionA, divisionB := "A", "B"
	addEntrants(eventRepo, 3, &divisionA)
	addEntrants(eventRepo, 2, &divisionB)
	matchRepo := newFakeMatchRepo()
	svc := newBracketServiceUnderTest(eventRepo, matchRepo, 1)

	result, err := svc.GenerateBracket(context.Background(), testEventID,
		GenerateBracketInput{Division: &divisionA}, testAdminID)
	require.NoError(t, err)
	// Three entrants pad out to a bracket of four: 2 + 1 slots.
	assert.Equal(t, 3, result.MatchesCreated)

	matches, err := matchRepo.ListByEvent(context.Background(), testEventID, &divisionA)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	for _, m := range matches {
		require.NotNil(t, m.Division)
		assert.Equal(t, divisionA, *m.Division)
	}

	// Division B is untouched until generated on its own.
	matchesB, err := matchRepo.ListByEvent(context.Background(), testEventID, &divisionB)
	require.NoError(t, err)
	assert.Empty(t, matchesB)
}

func TestGenerateBracketDivisionWithoutEnoughTeams(t *testing.T) {
	eventRepo := newFakeEventRepo(testEvent(models.EventStatusActive))
	divisionA := "A"
	addEntrants(eventRepo, 1, &divisionA)
	svc := newBracketServiceUnderTest(eventRepo, newFakeMatchRepo(), 1)

	_, err := svc.GenerateBracket(context.Background(), testEventID,
		GenerateBracketInput{Division: &divisionA}, testAdminID)
	require.ErrorIs(t, err, ErrNotEnoughTeams)
	assert.Contains(t, err.Error(), `division "A"`)
}

func TestGenerateBracketLifecycleGate(t *testing.T) {
	tests := []struct {
		status  models.EventStatus
		wantErr error
	}{
		{models.EventStatusDraft, ErrEventNotActive},
		{models.EventStatusUpcoming, ErrEventNotActive},
		{models.EventStatusActive, nil},
		{models.EventStatusCompleted, nil},
		{models.EventStatusClosed, ErrEventClosed},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			eventRepo := newFakeEventRepo(testEvent(tt.status))
			addEntrants(eventRepo, 4, nil)
			svc := newBracketServiceUnderTest(eventRepo, newFakeMatchRepo(), 1)

			_, err := svc.GenerateBracket(context.Background(), testEventID, GenerateBracketInput{}, testAdminID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestGenerateBracketAuthorization(t *testing.T) {
	tests := []struct {
		name    string
		actorID int
		wantErr error
	}{
		{"club admin of owning club", testAdminID, nil},
		{"super admin", superAdminID, nil},
		{"member of owning club", testMemberID, ErrForbiddenOperation},
		{"admin of another club", otherAdminID, ErrForbiddenOperation},
		{"unknown actor", unknownActorID, ErrForbiddenOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eventRepo := newFakeEventRepo(testEvent(models.EventStatusActive))
			addEntrants(eventRepo, 4, nil)
			svc := newBracketServiceUnderTest(eventRepo, newFakeMatchRepo(), 1)

			_, err := svc.GenerateBracket(context.Background(), testEventID, GenerateBracketInput{}, tt.actorID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestGenerateBracketEventNotFound(t *testing.T) {
	svc := newBracketServiceUnderTest(newFakeEventRepo(), newFakeMatchRepo(), 1)

	_, err := svc.GenerateBracket(context.Background(), testEventID, GenerateBracketInput{}, testAdminID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestGenerateBracketLinkFailureIsRecoverable(t *testing.T) {
	eventRepo := newFakeEventRepo(testEvent(models.EventStatusActive))
	addEntrants(eventRepo, 4, nil)
	matchRepo := newFakeMatchRepo()
	matchRepo.resolveLinksErr = fmt.Errorf("connection reset")
	svc := newBracketServiceUnderTest(eventRepo, matchRepo, 1)

	_, err := svc.GenerateBracket(context.Background(), testEventID, GenerateBracketInput{}, testAdminID)
	require.ErrorIs(t, err, ErrBracketLinkIncomplete)

	// Creation committed before linking failed: the rows exist but the
	// snapshot was never written, so the bracket reads as divergent.
	matches, listErr := matchRepo.ListByEvent(context.Background(), testEventID, nil)
	require.NoError(t, listErr)
	assert.Len(t, matches, 3)

	event, getErr := eventRepo.GetByID(context.Background(), testEventID)
	require.NoError(t, getErr)
	assert.Nil(t, event.BracketData)
	assert.True(t, snapshotDiverges(event.BracketData, matches))

	// Regeneration recovers once the store cooperates again.
	matchRepo.resolveLinksErr = nil
	result, err := svc.GenerateBracket(context.Background(), testEventID, GenerateBracketInput{}, testAdminID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.MatchesCreated)
}

func TestGenerateBracketDeterministicForSeed(t *testing.T) {
	snapshots := make([]string, 2)
	for i := range snapshots {
		eventRepo := newFakeEventRepo(testEvent(models.EventStatusActive))
		addEntrants(eventRepo, 8, nil)
		svc := newBracketServiceUnderTest(eventRepo, newFakeMatchRepo(), 42)

		_, err := svc.GenerateBracket(context.Background(), testEventID, GenerateBracketInput{}, testAdminID)
		require.NoError(t, err)

		event, err := eventRepo.GetByID(context.Background(), testEventID)
		require.NoError(t, err)
		require.NotNil(t, event.BracketData)
		snapshots[i] = *event.BracketData
	}
	assert.Equal(t, snapshots[0], snapshots[1])
}

func TestDeleteBracket(t *testing.T) {
	eventRepo := newFakeEventRepo(testEvent(models.EventStatusActive))
	addEntrants(eventRepo, 4, nil)
	matchRepo := newFakeMatchRepo()
	svc := newBracketServiceUnderTest(eventRepo, matchRepo, 1)

	_, err := svc.GenerateBracket(context.Background(), testEventID, GenerateBracketInput{}, testAdminID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBracket(context.Background(), testEventID, testAdminID))

	matches, err := matchRepo.ListByEvent(context.Background(), testEventID, nil)
	require.NoError(t, err)
	assert.Empty(t, matches)

	event, err := eventRepo.GetByID(context.Background(), testEventID)
	require.NoError(t, err)
	assert.Nil(t, event.BracketType)
	assert.Nil(t, event.BracketData)

	// Deleting an absent bracket is a no-op, not an error.
	assert.NoError(t, svc.DeleteBracket(context.Background(), testEventID, testAdminID))
}

func TestDeleteBracketRespectsLifecycleAndAuth(t *testing.T) {
	eventRepo := newFakeEventRepo(testEvent(models.EventStatusDraft))
	svc := newBracketServiceUnderTest(eventRepo, newFakeMatchRepo(), 1)

	err := svc.DeleteBracket(context.Background(), testEventID, testAdminID)
	assert.ErrorIs(t, err, ErrEventNotActive)

	eventRepo = newFakeEventRepo(testEvent(models.EventStatusActive))
	svc = newBracketServiceUnderTest(eventRepo, newFakeMatchRepo(), 1)
	err = svc.DeleteBracket(context.Background(), testEventID, testMemberID)
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestGetBracket(t *testing.T) {
	eventRepo := newFakeEventRepo(testEvent(models.EventStatusActive))
	addEntrants(eventRepo, 5, nil)
	matchRepo := newFakeMatchRepo()
	svc := newBracketServiceUnderTest(eventRepo, matchRepo, 1)

	_, err := svc.GenerateBracket(context.Background(), testEventID, GenerateBracketInput{}, testAdminID)
	require.NoError(t, err)

	view, err := svc.GetBracket(context.Background(), testEventID)
	require.NoError(t, err)
	require.NotNil(t, view.BracketType)
	assert.Equal(t, models.BracketSingleElimination, *view.BracketType)
	assert.NotNil(t, view.BracketData)
	assert.Len(t, view.Matches, 7)
	assert.Len(t, view.Teams, 5)
}

func TestGetBracketEventNotFound(t *testing.T) {
	svc := newBracketServiceUnderTest(newFakeEventRepo(), newFakeMatchRepo(), 1)

	_, err := svc.GetBracket(context.Background(), testEventID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestSnapshotDiverges(t *testing.T) {
	slots := []brackets.Slot{
		{Round: 1, Position: 0},
		{Round: 1, Position: 1},
		{Round: 2, Position: 0},
	}
	data, err := json.Marshal(slots)
	require.NoError(t, err)
	snapshot := string(data)
	garbage := "not json"

	threeMatches := []*models.Match{{ID: 1}, {ID: 2}, {ID: 3}}

	assert.False(t, snapshotDiverges(nil, nil))
	assert.True(t, snapshotDiverges(nil, threeMatches))
	assert.False(t, snapshotDiverges(&snapshot, threeMatches))
	assert.True(t, snapshotDiverges(&snapshot, threeMatches[:2]))
	assert.True(t, snapshotDiverges(&garbage, threeMatches))
}
