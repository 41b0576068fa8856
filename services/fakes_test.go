package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/clubarena/clubarena/brackets"
	"github.com/clubarena/clubarena/models"
	"github.com/clubarena/clubarena/repositories"
	"github.com/clubarena/clubarena/storage"
)

// In-memory repository fakes shared by the service tests. They reproduce the
// observable behavior of the Postgres implementations, including the sentinel
// errors and the optimistic status update.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserRepo struct {
	users map[int]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[int]*models.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events map[int]*models.Event
	teams  map[int][]*models.Team

	updateStatusErr error
}

func newFakeEventRepo(events ...*models.Event) *fakeEventRepo {
	repo := &fakeEventRepo{
		events: make(map[int]*models.Event),
		teams:  make(map[int][]*models.Team),
	}
	for _, e := range events {
		repo.events[e.ID] = e
	}
	return repo
}

func (r *fakeEventRepo) addTeams(eventID int, teams ...*models.Team) {
	r.teams[eventID] = append(r.teams[eventID], teams...)
}

func (r *fakeEventRepo) GetByID(_ context.Context, id int) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

func (r *fakeEventRepo) ListTeams(_ context.Context, eventID int) ([]*models.Team, error) {
	return r.teams[eventID], nil
}

func (r *fakeEventRepo) CountTeams(_ context.Context, eventID int) (int, error) {
	return len(r.teams[eventID]), nil
}

func (r *fakeEventRepo) UpdateStatus(_ context.Context, id int, from, to models.EventStatus) error {
	if r.updateStatusErr != nil {
		return r.updateStatusErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok || event.Status != from {
		return repositories.ErrEventStatusConflict
	}
	event.Status = to
	return nil
}

func (r *fakeEventRepo) UpdateBracketInfo(_ context.Context, id int, bracketType *models.BracketType, bracketData *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	event.BracketType = bracketType
	event.BracketData = bracketData
	return nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	nextID  int
	matches map[int]*models.Match
	order   []int

	resolveLinksErr error
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{nextID: 1, matches: make(map[int]*models.Match)}
}

func (r *fakeMatchRepo) add(match *models.Match) *models.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	match.ID = r.nextID
	r.nextID++
	r.matches[match.ID] = match
	r.order = append(r.order, match.ID)
	return match
}

func (r *fakeMatchRepo) CreateAll(_ context.Context, eventID int, division *string, slots []brackets.Slot) ([]*models.Match, error) {
	numRounds := brackets.NumRounds(slots)
	created := make([]*models.Match, 0, len(slots))
	for _, slot := range slots {
		created = append(created, r.add(&models.Match{
			EventID:         eventID,
			Division:        division,
			Round:           brackets.RoundLabel(slot.Round, numRounds),
			BracketPosition: slot.Position,
			HomeTeamID:      slot.HomeTeamID,
			AwayTeamID:      slot.AwayTeamID,
			Status:          models.MatchStatusScheduled,
			CreatedAt:       time.Now(),
		}))
	}
	return created, nil
}

func (r *fakeMatchRepo) ResolveLinks(_ context.Context, slots []brackets.Slot, created []*models.Match) error {
	if r.resolveLinksErr != nil {
		return r.resolveLinksErr
	}
	if len(slots) != len(created) {
		return fmt.Errorf("slot/match count mismatch: %d slots, %d matches", len(slots), len(created))
	}
	idByKey := make(map[brackets.SlotKey]int, len(slots))
	for i, slot := range slots {
		idByKey[slot.Key()] = created[i].ID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, slot := range slots {
		if slot.NextSlotKey == nil {
			continue
		}
		nextID, ok := idByKey[*slot.NextSlotKey]
		if !ok {
			return fmt.Errorf("slot (%d,%d) links to unknown slot", slot.Round, slot.Position)
		}
		id := nextID
		r.matches[created[i].ID].NextMatchID = &id
		created[i].NextMatchID = &id
	}
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *match
	return &copied, nil
}

func (r *fakeMatchRepo) ListByEvent(_ context.Context, eventID int, division *string) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matches := make([]*models.Match, 0)
	for _, id := range r.order {
		match, ok := r.matches[id]
		if !ok || match.EventID != eventID {
			continue
		}
		if division != nil && (match.Division == nil || *match.Division != *division) {
			continue
		}
		matches = append(matches, match)
	}
	return matches, nil
}

func (r *fakeMatchRepo) DeleteByEvent(_ context.Context, eventID int, division *string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	remaining := r.order[:0]
	for _, id := range r.order {
		match := r.matches[id]
		drop := match.EventID == eventID &&
			(division == nil || (match.Division != nil && *match.Division == *division))
		if drop {
			delete(r.matches, id)
			deleted++
			continue
		}
		remaining = append(remaining, id)
	}
	r.order = remaining
	return deleted, nil
}

func (r *fakeMatchRepo) UpdateResult(_ context.Context, id int, homeScore, awayScore *int, status models.MatchStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.HomeScore = homeScore
	match.AwayScore = awayScore
	match.Status = status
	return nil
}

func (r *fakeMatchRepo) UpdateSlotTeams(_ context.Context, id int, homeTeamID, awayTeamID *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.HomeTeamID = homeTeamID
	match.AwayTeamID = awayTeamID
	return nil
}

type fakeReportRepo struct {
	nextID  int
	reports map[int]*models.EventReport
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{nextID: 1, reports: make(map[int]*models.EventReport)}
}

func (r *fakeReportRepo) Create(_ context.Context, report *models.EventReport) error {
	if _, exists := r.reports[report.EventID]; exists {
		return repositories.ErrReportAlreadyExists
	}
	report.ID = r.nextID
	r.nextID++
	report.CreatedAt = time.Now()
	r.reports[report.EventID] = report
	return nil
}

func (r *fakeReportRepo) GetByEvent(_ context.Context, eventID int) (*models.EventReport, error) {
	report, ok := r.reports[eventID]
	if !ok {
		return nil, repositories.ErrReportNotFound
	}
	return report, nil
}

func (r *fakeReportRepo) ExistsByEvent(_ context.Context, eventID int) (bool, error) {
	_, ok := r.reports[eventID]
	return ok, nil
}

type fakeCalendarRepo struct {
	nextID  int
	entries []*models.CalendarEntry
}

func newFakeCalendarRepo() *fakeCalendarRepo {
	return &fakeCalendarRepo{nextID: 1}
}

func (r *fakeCalendarRepo) Create(_ context.Context, entry *models.CalendarEntry) error {
	entry.ID = r.nextID
	r.nextID++
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeCalendarRepo) FindCompetitiveFixture(_ context.Context, clubID int, date time.Time, excludeID *int) (*models.CalendarEntry, error) {
	y, m, d := date.Date()
	for _, entry := range r.entries {
		if entry.ClubID != clubID || !entry.IsCompetitiveFixture() {
			continue
		}
		ey, em, ed := entry.StartDate.Date()
		if ey != y || em != m || ed != d {
			continue
		}
		if excludeID != nil && entry.ID == *excludeID {
			continue
		}
		return entry, nil
	}
	return nil, nil
}

func (r *fakeCalendarRepo) ListByClub(_ context.Context, clubID int) ([]*models.CalendarEntry, error) {
	entries := make([]*models.CalendarEntry, 0)
	for _, entry := range r.entries {
		if entry.ClubID == clubID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

type fakeUploader struct {
	uploadedKeys []string
	uploadErr    error
}

func (u *fakeUploader) Upload(_ context.Context, key string, _ string, _ io.Reader) (*storage.UploadResult, error) {
	if u.uploadErr != nil {
		return nil, u.uploadErr
	}
	u.uploadedKeys = append(u.uploadedKeys, key)
	return &storage.UploadResult{Key: key, Location: "https://cdn.test/" + key}, nil
}

func (u *fakeUploader) Delete(_ context.Context, _ string) error { return nil }

func (u *fakeUploader) GetPublicURL(key string) string { return "https://cdn.test/" + key }

type recordingNotifier struct {
	subjects []string
	bodies   []string
	err      error
}

func (n *recordingNotifier) NotifyAdmins(_ context.Context, subject, body string) error {
	if n.err != nil {
		return n.err
	}
	n.subjects = append(n.subjects, subject)
	n.bodies = append(n.bodies, body)
	return nil
}
