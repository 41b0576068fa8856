package services

import (
	"context"
	"testing"

	"github.com/clubarena/clubarena/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMatchServiceUnderTest(matchRepo *fakeMatchRepo, eventRepo *fakeEventRepo) MatchService {
	return NewMatchService(matchRepo, eventRepo, testUsers(), nil, testLogger())
}

// seedSemifinalsAndFinal builds the smallest playable bracket by hand: two
// semifinals feeding a final.
func seedSemifinalsAndFinal(matchRepo *fakeMatchRepo, teamIDs [4]int) (semiA, semiB, final *models.Match) {
	final = matchRepo.add(&models.Match{
		EventID: testEventID,
		Round:   "Final",
		Status:  models.MatchStatusScheduled,
	})
	semiA = matchRepo.add(&models.Match{
		EventID:     testEventID,
		Round:       "Semifinal",
		HomeTeamID:  &teamIDs[0],
		AwayTeamID:  &teamIDs[1],
		NextMatchID: &final.ID,
		Status:      models.MatchStatusScheduled,
	})
	semiB = matchRepo.add(&models.Match{
		EventID:         testEventID,
		Round:           "Semifinal",
		BracketPosition: 1,
		HomeTeamID:      &teamIDs[2],
		AwayTeamID:      &teamIDs[3],
		NextMatchID:     &final.ID,
		Status:          models.MatchStatusScheduled,
	})
	return semiA, semiB, final
}

func TestSubmitResultRecordsScoresAndAdvancesWinner(t *testing.T) {
	matchRepo := newFakeMatchRepo()
	semiA, _, final := seedSemifinalsAndFinal(matchRepo, [4]int{101, 102, 103, 104})
	svc := newMatchServiceUnderTest(matchRepo, newFakeEventRepo(testEvent(models.EventStatusActive)))

	match, err := svc.SubmitResult(context.Background(), semiA.ID, SubmitResultInput{HomeScore: 3, AwayScore: 1}, testAdminID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, match.Status)
	require.NotNil(t, match.HomeScore)
	require.NotNil(t, match.AwayScore)
	assert.Equal(t, 3, *match.HomeScore)
	assert.Equal(t, 1, *match.AwayScore)

	// The winner occupies the final's home side first.
	stored, err := matchRepo.GetByID(context.Background(), final.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.HomeTeamID)
	assert.Equal(t, 101, *stored.HomeTeamID)
	assert.Nil(t, stored.AwayTeamID)
}

func TestSubmitResultAwayWinnerFillsSecondSlot(t *testing.T) {
	matchRepo := newFakeMatchRepo()
	semiA, semiB, final := seedSemifinalsAndFinal(matchRepo, [4]int{101, 102, 103, 104})
	svc := newMatchServiceUnderTest(matchRepo, newFakeEventRepo(testEvent(models.EventStatusActive)))

	_, err := svc.SubmitResult(context.Background(), semiA.ID, SubmitResultInput{HomeScore: 2, AwayScore: 0}, testAdminID)
	require.NoError(t, err)
	_, err = svc.SubmitResult(context.Background(), semiB.ID, SubmitResultInput{HomeScore: 1, AwayScore: 4}, testAdminID)
	require.NoError(t, err)

	stored, err := matchRepo.GetByID(context.Background(), final.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.HomeTeamID)
	require.NotNil(t, stored.AwayTeamID)
	assert.Equal(t, 101, *stored.HomeTeamID)
	assert.Equal(t, 104, *stored.AwayTeamID)

	// Play the final; it has no forward link, so nothing else moves.
	finalResult, err := svc.SubmitResult(context.Background(), final.ID, SubmitResultInput{HomeScore: 0, AwayScore: 2}, testAdminID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, finalResult.Status)
}

func TestSubmitResultByeIsWalkover(t *testing.T) {
	matchRepo := newFakeMatchRepo()
	final := matchRepo.add(&models.Match{
		EventID: testEventID,
		Round:   "Final",
		Status:  models.MatchStatusScheduled,
	})
	soloTeam := 105
	bye := matchRepo.add(&models.Match{
		EventID:     testEventID,
		Round:       "Semifinal",
		HomeTeamID:  &soloTeam,
		NextMatchID: &final.ID,
		Status:      models.MatchStatusScheduled,
	})
	svc := newMatchServiceUnderTest(matchRepo, newFakeEventRepo(testEvent(models.EventStatusActive)))

	// Submitted scores are ignored for a walkover.
	match, err := svc.SubmitResult(context.Background(), bye.ID, SubmitResultInput{HomeScore: 9, AwayScore: 9}, testAdminID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, match.Status)
	assert.Nil(t, match.HomeScore)
	assert.Nil(t, match.AwayScore)

	stored, err := matchRepo.GetByID(context.Background(), final.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.HomeTeamID)
	assert.Equal(t, soloTeam, *stored.HomeTeamID)
}

func TestSubmitResultValidation(t *testing.T) {
	matchRepo := newFakeMatchRepo()
	semiA, _, _ := seedSemifinalsAndFinal(matchRepo, [4]int{101, 102, 103, 104})
	empty := matchRepo.add(&models.Match{
		EventID: testEventID,
		Round:   "Round 1",
		Status:  models.MatchStatusScheduled,
	})
	svc := newMatchServiceUnderTest(matchRepo, newFakeEventRepo(testEvent(models.EventStatusActive)))

	_, err := svc.SubmitResult(context.Background(), semiA.ID, SubmitResultInput{HomeScore: 2, AwayScore: 2}, testAdminID)
	assert.ErrorIs(t, err, ErrMatchDrawNotAllowed)

	_, err = svc.SubmitResult(context.Background(), semiA.ID, SubmitResultInput{HomeScore: -1, AwayScore: 2}, testAdminID)
	assert.ErrorIs(t, err, ErrScoreInvalid)

	_, err = svc.SubmitResult(context.Background(), empty.ID, SubmitResultInput{HomeScore: 1, AwayScore: 0}, testAdminID)
	assert.ErrorIs(t, err, ErrMatchMissingOpponent)

	_, err = svc.SubmitResult(context.Background(), 999, SubmitResultInput{HomeScore: 1, AwayScore: 0}, testAdminID)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestSubmitResultRejectsCompletedMatch(t *testing.T) {
	matchRepo := newFakeMatchRepo()
	semiA, _, _ := seedSemifinalsAndFinal(matchRepo, [4]int{101, 102, 103, 104})
	svc := newMatchServiceUnderTest(matchRepo, newFakeEventRepo(testEvent(models.EventStatusActive)))

	_, err := svc.SubmitResult(context.Background(), semiA.ID, SubmitResultInput{HomeScore: 1, AwayScore: 0}, testAdminID)
	require.NoError(t, err)

	_, err = svc.SubmitResult(context.Background(), semiA.ID, SubmitResultInput{HomeScore: 0, AwayScore: 1}, testAdminID)
	assert.ErrorIs(t, err, ErrMatchAlreadyCompleted)
}

func TestSubmitResultAuthorization(t *testing.T) {
	matchRepo := newFakeMatchRepo()
	semiA, _, _ := seedSemifinalsAndFinal(matchRepo, [4]int{101, 102, 103, 104})
	svc := newMatchServiceUnderTest(matchRepo, newFakeEventRepo(testEvent(models.EventStatusActive)))

	for _, actorID := range []int{testMemberID, otherAdminID, unknownActorID} {
		_, err := svc.SubmitResult(context.Background(), semiA.ID, SubmitResultInput{HomeScore: 1, AwayScore: 0}, actorID)
		assert.ErrorIs(t, err, ErrForbiddenOperation)
	}
}

func TestListByEvent(t *testing.T) {
	matchRepo := newFakeMatchRepo()
	seedSemifinalsAndFinal(matchRepo, [4]int{101, 102, 103, 104})
	svc := newMatchServiceUnderTest(matchRepo, newFakeEventRepo(testEvent(models.EventStatusActive)))

	matches, err := svc.ListByEvent(context.Background(), testEventID)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}
