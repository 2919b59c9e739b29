package complaint

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hostelcare/hostelcare/internal/domain/facility"
	"github.com/hostelcare/hostelcare/internal/domain/identity"
	"github.com/hostelcare/hostelcare/internal/platform/apperr"
	"github.com/hostelcare/hostelcare/internal/platform/auth"
	"github.com/hostelcare/hostelcare/internal/platform/blobstore"
)

// --- fakes -----------------------------------------------------------------

type fakeFacilities map[uuid.UUID]*facility.Facility

func (f fakeFacilities) Get(_ context.Context, id uuid.UUID) (*facility.Facility, error) {
	fac, ok := f[id]
	if !ok {
		return nil, apperr.NotFound("Facility not found")
	}
	return fac, nil
}

type fakeDirectory map[uuid.UUID]*identity.User

func (d fakeDirectory) GetUser(_ context.Context, id uuid.UUID) (*identity.User, error) {
	u, ok := d[id]
	if !ok {
		return nil, apperr.NotFound("User not found")
	}
	return u, nil
}

func (d fakeDirectory) NotifyRecipients(_ context.Context, role auth.Role) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, u := range d {
		if u.Role == role {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type sent struct {
	to             uuid.UUID
	title, message string
}

type recordingNotifier struct{ sent []sent }

func (n *recordingNotifier) Notify(_ context.Context, userID uuid.UUID, title, message string) {
	n.sent = append(n.sent, sent{to: userID, title: title, message: message})
}

func (n *recordingNotifier) to(id uuid.UUID) []sent {
	var out []sent
	for _, s := range n.sent {
		if s.to == id {
			out = append(out, s)
		}
	}
	return out
}

type mockRepo struct {
	complaints  map[uuid.UUID]*Complaint
	assignments []*Assignment
	history     []*StatusChange
	facilities  fakeFacilities
	users       fakeDirectory
	historyErr  error
	clock       time.Time
}

func newMockRepo(facilities fakeFacilities, users fakeDirectory) *mockRepo {
	return &mockRepo{
		complaints: make(map[uuid.UUID]*Complaint),
		facilities: facilities,
		users:      users,
		clock:      time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *mockRepo) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

type snapshot struct {
	complaints  map[uuid.UUID]Complaint
	assignments []Assignment
	history     int
}

func (m *mockRepo) snapshot() snapshot {
	s := snapshot{complaints: make(map[uuid.UUID]Complaint), history: len(m.history)}
	for id, c := range m.complaints {
		s.complaints[id] = *c
	}
	for _, a := range m.assignments {
		s.assignments = append(s.assignments, *a)
	}
	return s
}

func (m *mockRepo) restore(s snapshot) {
	m.complaints = make(map[uuid.UUID]*Complaint)
	for id, c := range s.complaints {
		c := c
		m.complaints[id] = &c
	}
	m.assignments = nil
	for _, a := range s.assignments {
		a := a
		m.assignments = append(m.assignments, &a)
	}
	m.history = m.history[:s.history]
}

// fakeTx rolls the mock back when fn fails.
type fakeTx struct{ repo *mockRepo }

func (t fakeTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.repo.snapshot()
	if err := fn(ctx); err != nil {
		t.repo.restore(snap)
		return err
	}
	return nil
}

func (m *mockRepo) Create(_ context.Context, c *Complaint) error {
	c.ID = uuid.New()
	c.CreatedAt = m.tick()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.complaints[c.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Complaint, error) {
	c, ok := m.complaints[id]
	if !ok {
		return nil, apperr.NotFound(notFoundMsg)
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*Complaint, error) {
	return m.GetByID(ctx, id)
}

func (m *mockRepo) project(c *Complaint) *Complaint {
	cp := *c
	cp.Facility = m.facilities[c.FacilityID]
	if u, ok := m.users[c.CreatedByID]; ok {
		ref := u.Ref()
		cp.CreatedBy = &ref
	}
	return &cp
}

func (m *mockRepo) GetDetail(_ context.Context, id uuid.UUID) (*Complaint, error) {
	c, ok := m.complaints[id]
	if !ok {
		return nil, apperr.NotFound(notFoundMsg)
	}
	return m.project(c), nil
}

func (m *mockRepo) activeFor(complaintID uuid.UUID) *Assignment {
	for _, a := range m.assignments {
		if a.ComplaintID == complaintID && a.IsActive {
			return a
		}
	}
	return nil
}

func (m *mockRepo) List(_ context.Context, f Filter) ([]*Complaint, error) {
	var out []*Complaint
	for _, c := range m.complaints {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Priority != "" && c.Priority != f.Priority {
			continue
		}
		if f.FacilityID != nil && c.FacilityID != *f.FacilityID {
			continue
		}
		if f.CreatedByID != nil && c.CreatedByID != *f.CreatedByID {
			continue
		}
		active := m.activeFor(c.ID)
		if f.AssignedToID != nil && (active == nil || active.AssignedToID != *f.AssignedToID) {
			continue
		}
		p := m.project(c)
		if active != nil {
			a := *active
			if u, ok := m.users[a.AssignedToID]; ok {
				ref := u.Ref()
				a.AssignedTo = &ref
			}
			p.Assignments = []*Assignment{&a}
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (*Complaint, error) {
	c, ok := m.complaints[id]
	if !ok || c.Status != from {
		return nil, ErrStaleStatus
	}
	now := m.tick()
	c.Status = to
	if to == StatusResolved && c.ResolvedAt == nil {
		c.ResolvedAt = &now
	}
	if to == StatusClosed && c.ClosedAt == nil {
		c.ClosedAt = &now
	}
	c.UpdatedAt = now
	cp := *c
	return &cp, nil
}

func (m *mockRepo) AddHistory(_ context.Context, h *StatusChange) error {
	if m.historyErr != nil {
		return m.historyErr
	}
	h.ID = uuid.New()
	h.ChangedAt = m.tick()
	m.history = append(m.history, h)
	return nil
}

func (m *mockRepo) History(_ context.Context, complaintID uuid.UUID) ([]*StatusChange, error) {
	var out []*StatusChange
	for _, h := range m.history {
		if h.ComplaintID == complaintID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *mockRepo) DeactivateAssignments(_ context.Context, complaintID uuid.UUID) (int64, error) {
	var n int64
	for _, a := range m.assignments {
		if a.ComplaintID == complaintID && a.IsActive {
			a.IsActive = false
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) CreateAssignment(_ context.Context, a *Assignment) error {
	if m.activeFor(a.ComplaintID) != nil {
		return errors.New("duplicate active assignment")
	}
	a.ID = uuid.New()
	a.IsActive = true
	a.AssignedAt = m.tick()
	m.assignments = append(m.assignments, a)
	return nil
}

func (m *mockRepo) Assignments(_ context.Context, complaintID uuid.UUID) ([]*Assignment, error) {
	var out []*Assignment
	for i := len(m.assignments) - 1; i >= 0; i-- {
		if a := m.assignments[i]; a.ComplaintID == complaintID {
			cp := *a
			if u, ok := m.users[a.AssignedToID]; ok {
				ref := u.Ref()
				cp.AssignedTo = &ref
			}
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) HasActiveAssignment(_ context.Context, complaintID, userID uuid.UUID) (bool, error) {
	a := m.activeFor(complaintID)
	return a != nil && a.AssignedToID == userID, nil
}

// --- fixture -----------------------------------------------------------------

type fixture struct {
	svc      *Service
	repo     *mockRepo
	notifier *recordingNotifier
	files    *blobstore.InMemoryStore
	logs     *bytes.Buffer

	facility   *facility.Facility
	resident   *identity.User
	other      *identity.User
	manager    *identity.User
	manager2   *identity.User
	staff      *identity.User
	otherStaff *identity.User
}

func addUser(users fakeDirectory, name string, role auth.Role) *identity.User {
	u := &identity.User{ID: uuid.New(), Name: name, Email: strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@medical.com", Role: role}
	users[u.ID] = u
	return u
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fac := &facility.Facility{ID: uuid.New(), Name: "Block A Washrooms", Type: facility.TypeGeneral, IsActive: true}
	facilities := fakeFacilities{fac.ID: fac}
	users := fakeDirectory{}
	f := &fixture{
		facility:   fac,
		resident:   addUser(users, "Rita Resident", auth.RoleResident),
		other:      addUser(users, "Omar Other", auth.RoleResident),
		manager:    addUser(users, "Mia Manager", auth.RoleFacilityManager),
		manager2:   addUser(users, "Max Manager", auth.RoleFacilityManager),
		staff:      addUser(users, "Sam Staff", auth.RoleMedicalStaff),
		otherStaff: addUser(users, "Sara Staff", auth.RoleMedicalStaff),
		notifier:   &recordingNotifier{},
		files:      blobstore.NewInMemoryStore(1024),
		logs:       &bytes.Buffer{},
	}
	f.repo = newMockRepo(facilities, users)
	f.svc = NewService(f.repo, fakeTx{repo: f.repo}, facilities, users, f.notifier, f.files, nil, zerolog.New(f.logs))
	return f
}

func as(u *identity.User) Requester {
	return Requester{ID: u.ID, Role: u.Role}
}

func (f *fixture) create(t *testing.T, by *identity.User, title string) *Complaint {
	t.Helper()
	c, err := f.svc.Create(context.Background(), as(by), CreateRequest{
		Title:       title,
		Description: "Water dripping all night",
		FacilityID:  f.facility.ID.String(),
	}, nil)
	if err != nil {
		t.Fatalf("create %q: %v", title, err)
	}
	return c
}

func (f *fixture) assign(t *testing.T, c *Complaint, to *identity.User) *Complaint {
	t.Helper()
	out, err := f.svc.Assign(context.Background(), c.ID, AssignRequest{AssignedToID: to.ID.String()})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	return out
}

func (f *fixture) move(t *testing.T, c *Complaint, to Status) *Complaint {
	t.Helper()
	out, err := f.svc.UpdateStatus(context.Background(), c.ID, StatusRequest{Status: string(to)})
	if err != nil {
		t.Fatalf("move to %s: %v", to, err)
	}
	return out
}

// --- lifecycle table ----------------------------------------------------------

func TestCanTransition(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusNew, StatusAssigned}:        true,
		{StatusAssigned, StatusInProgress}: true,
		{StatusInProgress, StatusResolved}: true,
		{StatusResolved, StatusClosed}:     true,
	}
	for _, from := range Statuses {
		for _, to := range Statuses {
			if got := CanTransition(from, to); got != allowed[[2]Status{from, to}] {
				t.Errorf("CanTransition(%s, %s) = %v", from, to, got)
			}
		}
	}
}

func TestParseStatusAndPriority(t *testing.T) {
	if s, ok := ParseStatus("in_progress"); !ok || s != StatusInProgress {
		t.Errorf("expected in_progress, got %q %v", s, ok)
	}
	if _, ok := ParseStatus("done"); ok {
		t.Error("expected unknown status to be rejected")
	}
	if _, ok := ParsePriority("urgent"); ok {
		t.Error("expected unknown priority to be rejected")
	}
	if StatusClosed.IsOpen() || !StatusResolved.IsOpen() {
		t.Error("only closed complaints count as closed")
	}
}

// --- create ----------------------------------------------------------------

func TestCreate_LeakyFaucet(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.resident, "Leaky faucet")

	if c.Status != StatusNew || c.Priority != PriorityMedium {
		t.Errorf("expected new/medium, got %s/%s", c.Status, c.Priority)
	}
	if c.Facility == nil || c.Facility.Name != f.facility.Name {
		t.Errorf("expected facility in response, got %+v", c.Facility)
	}
	if c.CreatedBy == nil || c.CreatedBy.ID != f.resident.ID {
		t.Errorf("expected creator in response, got %+v", c.CreatedBy)
	}

	history, _ := f.repo.History(context.Background(), c.ID)
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history))
	}
	if history[0].FromStatus != nil || history[0].ToStatus != StatusNew || *history[0].Notes != "Complaint created" {
		t.Errorf("unexpected history entry %+v", history[0])
	}

	for _, m := range []*identity.User{f.manager, f.manager2} {
		got := f.notifier.to(m.ID)
		if len(got) != 1 {
			t.Fatalf("expected manager %s to be notified once, got %d", m.Name, len(got))
		}
		if got[0].title != "New Complaint" || got[0].message != "New complaint: Leaky faucet at Block A Washrooms" {
			t.Errorf("unexpected notification %+v", got[0])
		}
	}
	if len(f.notifier.to(f.staff.ID)) != 0 {
		t.Error("medical staff must not be notified of new complaints")
	}
}

func TestCreate_UnknownFacilityPersistsNothing(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), as(f.resident), CreateRequest{
		Title:       "Broken window",
		Description: "Glass cracked",
		FacilityID:  uuid.NewString(),
	}, &Upload{FileName: "crack.png", ContentType: "image/png", Content: bytes.NewReader(pngBytes())})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if len(f.repo.complaints) != 0 || len(f.repo.history) != 0 {
		t.Error("expected nothing persisted")
	}
	if f.files.Len() != 0 {
		t.Error("expected no attachment stored")
	}
	if len(f.notifier.sent) != 0 {
		t.Error("expected no notifications")
	}
}

func TestCreate_ValidatesPriority(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), as(f.resident), CreateRequest{
		Title:       "Noise",
		Description: "Loud music",
		FacilityID:  f.facility.ID.String(),
		Priority:    "urgent",
	}, nil)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreate_SanitisesText(t *testing.T) {
	f := newFixture(t)
	c, err := f.svc.Create(context.Background(), as(f.resident), CreateRequest{
		Title:       "<b>Leaky</b> faucet<script>alert(1)</script>",
		Description: "Drips",
		FacilityID:  f.facility.ID.String(),
		Priority:    "high",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Title != "Leaky faucet" || c.Priority != PriorityHigh {
		t.Errorf("unexpected complaint %q/%s", c.Title, c.Priority)
	}
}

func pngBytes() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
}

func TestCreate_WithAttachment(t *testing.T) {
	f := newFixture(t)
	c, err := f.svc.Create(context.Background(), as(f.resident), CreateRequest{
		Title:       "Mould",
		Description: "On the ceiling",
		FacilityID:  f.facility.ID.String(),
	}, &Upload{FileName: "mould.png", ContentType: "image/png", Content: bytes.NewReader(pngBytes())})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Attachment == nil || !strings.HasPrefix(*c.Attachment, "/uploads/") || !strings.HasSuffix(*c.Attachment, ".png") {
		t.Errorf("unexpected attachment path %v", c.Attachment)
	}
	if f.files.Len() != 1 {
		t.Errorf("expected 1 stored file, got %d", f.files.Len())
	}
}

func TestCreate_RejectsAttachmentType(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), as(f.resident), CreateRequest{
		Title:       "Mould",
		Description: "On the ceiling",
		FacilityID:  f.facility.ID.String(),
	}, &Upload{FileName: "run.exe", ContentType: "application/octet-stream", Content: strings.NewReader("MZ")})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.repo.complaints) != 0 {
		t.Error("expected nothing persisted")
	}
}

func TestCreate_RollsBackAndRemovesAttachment(t *testing.T) {
	f := newFixture(t)
	f.repo.historyErr = errors.New("disk full")
	_, err := f.svc.Create(context.Background(), as(f.resident), CreateRequest{
		Title:       "Mould",
		Description: "On the ceiling",
		FacilityID:  f.facility.ID.String(),
	}, &Upload{FileName: "mould.png", ContentType: "image/png", Content: bytes.NewReader(pngBytes())})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(f.repo.complaints) != 0 {
		t.Error("expected complaint row rolled back")
	}
	if f.files.Len() != 0 {
		t.Error("expected orphaned attachment removed")
	}
	if len(f.notifier.sent) != 0 {
		t.Error("expected no notifications on failure")
	}
}

// --- assign ----------------------------------------------------------------

func TestAssign_AdvancesNewComplaint(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.resident, "Leaky faucet")

	out := f.assign(t, c, f.staff)
	if out.Status != StatusAssigned {
		t.Fatalf("expected assigned, got %s", out.Status)
	}
	active := out.ActiveAssignment()
	if active == nil || active.AssignedToID != f.staff.ID {
		t.Fatalf("expected active assignment for staff, got %+v", active)
	}
	if len(out.StatusHistory) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(out.StatusHistory))
	}
	last := out.StatusHistory[1]
	if *last.FromStatus != StatusNew || last.ToStatus != StatusAssigned || *last.Notes != "Assigned to Sam Staff" {
		t.Errorf("unexpected history entry %+v", last)
	}
	got := f.notifier.to(f.staff.ID)
	if len(got) != 1 || got[0].title != "Complaint Assigned" || got[0].message != "You have been assigned to: Leaky faucet" {
		t.Errorf("unexpected assignee notifications %+v", got)
	}
}

func TestAssign_ReassignKeepsOneActive(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.resident, "Leaky faucet")
	f.assign(t, c, f.staff)
	f.move(t, c, StatusInProgress)

	out := f.assign(t, c, f.otherStaff)
	if out.Status != StatusInProgress {
		t.Errorf("reassignment must not change status, got %s", out.Status)
	}
	active := 0
	for _, a := range out.Assignments {
		if a.IsActive {
			active++
			if a.AssignedToID != f.otherStaff.ID {
				t.Errorf("expected the new assignee to be active")
			}
		}
	}
	if active != 1 || len(out.Assignments) != 2 {
		t.Errorf("expected 2 assignments with 1 active, got %d/%d", len(out.Assignments), active)
	}
	if out.Assignments[0].AssignedToID != f.otherStaff.ID {
		t.Error("expected newest assignment first")
	}
	if len(out.StatusHistory) != 3 {
		t.Errorf("reassignment must not add history, got %d entries", len(out.StatusHistory))
	}
	if len(f.notifier.to(f.otherStaff.ID)) != 1 {
		t.Error("expected the new assignee to be notified")
	}
}

func TestAssign_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Assign(context.Background(), uuid.New(), AssignRequest{AssignedToID: f.staff.ID.String()})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected NotFound for unknown complaint, got %v", err)
	}

	c := f.create(t, f.resident, "Leaky faucet")
	_, err = f.svc.Assign(context.Background(), c.ID, AssignRequest{AssignedToID: uuid.NewString()})
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind != apperr.KindNotFound || ae.Message != "Assigned user not found" {
		t.Errorf("expected assignee NotFound, got %v", err)
	}
	if len(f.repo.assignments) != 0 {
		t.Error("expected no assignment persisted")
	}
}

// --- status ------------------------------------------------------------------

func TestUpdateStatus_RejectsSkippingStates(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.resident, "Leaky faucet")

	_, err := f.svc.UpdateStatus(context.Background(), c.ID, StatusRequest{Status: "resolved"})
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind != apperr.KindInvalidTransition {
		t.Fatalf("expected InvalidTransition, got %v", err)
	}
	if ae.Message != "Invalid status transition from new to resolved" {
		t.Errorf("unexpected message %q", ae.Message)
	}
	stored, _ := f.repo.GetByID(context.Background(), c.ID)
	if stored.Status != StatusNew {
		t.Errorf("status must remain new, got %s", stored.Status)
	}
	if len(f.repo.history) != 1 {
		t.Error("expected no history for a rejected transition")
	}
}

func TestUpdateStatus_UnknownTarget(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.resident, "Leaky faucet")
	_, err := f.svc.UpdateStatus(context.Background(), c.ID, StatusRequest{Status: "done"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdateStatus_FullLifecycle(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.resident, "Leaky faucet")
	f.assign(t, c, f.staff)
	f.move(t, c, StatusInProgress)

	resolved := f.move(t, c, StatusResolved)
	if resolved.ResolvedAt == nil || resolved.ClosedAt != nil {
		t.Fatalf("expected resolvedAt only, got %v/%v", resolved.ResolvedAt, resolved.ClosedAt)
	}
	resolvedAt := *resolved.ResolvedAt

	closed := f.move(t, c, StatusClosed)
	if closed.ClosedAt == nil {
		t.Fatal("expected closedAt")
	}
	if !closed.ResolvedAt.Equal(resolvedAt) {
		t.Error("resolvedAt must not change after it is set")
	}

	for _, target := range Statuses {
		if _, err := f.svc.UpdateStatus(context.Background(), c.ID, StatusRequest{Status: string(target)}); !apperr.Is(err, apperr.KindInvalidTransition) {
			t.Errorf("closed -> %s: expected InvalidTransition, got %v", target, err)
		}
	}

	if len(closed.StatusHistory) != 5 {
		t.Fatalf("expected 5 history entries, got %d", len(closed.StatusHistory))
	}
	for i := 1; i < len(closed.StatusHistory); i++ {
		if closed.StatusHistory[i].ChangedAt.Before(closed.StatusHistory[i-1].ChangedAt) {
			t.Error("expected history oldest first")
		}
	}

	updates := 0
	for _, n := range f.notifier.to(f.resident.ID) {
		if n.title == "Complaint Status Updated" {
			updates++
		}
	}
	if updates != 3 {
		t.Errorf("expected creator notified for 3 status updates, got %d", updates)
	}
	last := f.notifier.to(f.resident.ID)
	if msg := last[len(last)-1].message; msg != `Your complaint "Leaky faucet" status changed to closed` {
		t.Errorf("unexpected message %q", msg)
	}
}

// racingRepo lets another writer move the complaint between the read and
// the guarded update.
type racingRepo struct {
	*mockRepo
}

func (r racingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Complaint, error) {
	r.complaints[id].Status = to
	return r.mockRepo.UpdateStatus(ctx, id, from, to)
}

func TestUpdateStatus_StaleWriteIsRejected(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.resident, "Leaky faucet")
	f.assign(t, c, f.staff)

	svc := NewService(racingRepo{f.repo}, fakeTx{repo: f.repo}, f.repo.facilities, f.repo.users, f.notifier, f.files, nil, zerolog.Nop())
	_, err := svc.UpdateStatus(context.Background(), c.ID, StatusRequest{Status: "in_progress"})
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected InvalidTransition on a stale write, got %v", err)
	}
}

// --- queries -----------------------------------------------------------------

func TestList_ResidentSeesOnlyOwn(t *testing.T) {
	f := newFixture(t)
	mine := f.create(t, f.resident, "Leaky faucet")
	f.create(t, f.other, "Broken fan")

	items, err := f.svc.List(context.Background(), as(f.resident), Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ID != mine.ID {
		t.Fatalf("expected only own complaint, got %d", len(items))
	}

	// a smuggled filter cannot widen the scope
	other := f.other.ID
	items, _ = f.svc.List(context.Background(), as(f.resident), Filter{CreatedByID: &other})
	for _, c := range items {
		if c.CreatedByID != f.resident.ID {
			t.Error("resident saw another user's complaint")
		}
	}
}

func TestList_StaffSeesActiveAssignments(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, f.resident, "Leaky faucet")
	b := f.create(t, f.other, "Broken fan")
	f.assign(t, a, f.staff)
	f.assign(t, b, f.staff)
	f.assign(t, b, f.otherStaff)

	items, _ := f.svc.List(context.Background(), as(f.staff), Filter{})
	if len(items) != 1 || items[0].ID != a.ID {
		t.Fatalf("expected only the actively assigned complaint, got %d", len(items))
	}
	if items[0].ActiveAssignment() == nil || items[0].ActiveAssignment().AssignedTo.Name != "Sam Staff" {
		t.Error("expected active assignment with assignee in list")
	}
}

func TestList_ManagerSeesAllNewestFirst(t *testing.T) {
	f := newFixture(t)
	f.create(t, f.resident, "First")
	f.create(t, f.other, "Second")

	items, _ := f.svc.List(context.Background(), as(f.manager), Filter{})
	if len(items) != 2 || items[0].Title != "Second" {
		t.Fatalf("expected both complaints newest first, got %d", len(items))
	}

	items, _ = f.svc.List(context.Background(), as(f.manager), Filter{Status: StatusAssigned})
	if len(items) != 0 {
		t.Errorf("expected status filter to apply, got %d", len(items))
	}
	if _, err := f.svc.List(context.Background(), as(f.manager), Filter{Status: "done"}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for bad status filter, got %v", err)
	}
}

func TestGet_Scoping(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.resident, "Leaky faucet")

	if _, err := f.svc.Get(context.Background(), as(f.other), c.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected NotFound for another resident, got %v", err)
	}
	if _, err := f.svc.Get(context.Background(), as(f.staff), c.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected NotFound for unassigned staff, got %v", err)
	}
	f.assign(t, c, f.staff)
	got, err := f.svc.Get(context.Background(), as(f.staff), c.ID)
	if err != nil {
		t.Fatalf("expected assigned staff to see complaint: %v", err)
	}
	if got.Facility == nil || got.CreatedBy == nil || len(got.Assignments) != 1 || len(got.StatusHistory) != 2 {
		t.Errorf("expected full detail, got %+v", got)
	}
	if _, err := f.svc.Get(context.Background(), as(f.resident), c.ID); err != nil {
		t.Errorf("expected creator to see complaint: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), as(f.manager), c.ID); err != nil {
		t.Errorf("expected manager to see complaint: %v", err)
	}
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, f.resident, "Leaky faucet")
	f.assign(t, c, f.staff)

	data, err := f.svc.Export(context.Background(), as(f.manager), Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Error("expected a zip-based workbook")
	}

	items, _ := f.svc.List(context.Background(), as(f.manager), Filter{})
	sheet := exportSheet(items)
	if len(sheet.Rows) != 1 || sheet.Rows[0][1] != "Leaky faucet" || sheet.Rows[0][6] != "Sam Staff" {
		t.Errorf("unexpected export rows %v", sheet.Rows)
	}
}
