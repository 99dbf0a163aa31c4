package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/focused-api/internal/models"
	appErrors "github.com/noah-isme/focused-api/pkg/errors"
)

// memoryObservationRepo joins references at read time like the SQL repository.
type memoryObservationRepo struct {
	nextID      int64
	rows        map[int64]models.Observation
	teachers    map[int64]models.Teacher
	departments map[int64]models.Department
	focusAreas  map[int64]models.FocusArea
	clock       time.Time
}

func newMemoryObservationRepo() *memoryObservationRepo {
	return &memoryObservationRepo{
		rows: map[int64]models.Observation{},
		teachers: map[int64]models.Teacher{
			1: {ID: 1, Forename: "Chloe", Surname: "Chen", Email: "chloe@example.com"},
			2: {ID: 2, Forename: "Peter", Surname: "Robinson", Email: "peter@example.com"},
		},
		departments: map[int64]models.Department{1: {ID: 1, Name: "Computing"}, 2: {ID: 2, Name: "French"}},
		focusAreas:  map[int64]models.FocusArea{1: {ID: 1, Name: "Feedback"}, 2: {ID: 2, Name: "Memory"}},
		clock:       time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memoryObservationRepo) resolve(obs models.Observation) models.Observation {
	if t, ok := m.teachers[obs.TeacherID]; ok {
		obs.Teacher = &t
	}
	if d, ok := m.departments[obs.DepartmentID]; ok {
		obs.Department = &d
	}
	if f, ok := m.focusAreas[obs.FocusAreaID]; ok {
		obs.FocusArea = &f
	}
	return obs
}

func (m *memoryObservationRepo) checkRefs(teacherID, departmentID, focusAreaID int64) error {
	if _, ok := m.teachers[teacherID]; !ok {
		return &models.MissingReferenceError{Kind: "teacher"}
	}
	if _, ok := m.departments[departmentID]; !ok {
		return &models.MissingReferenceError{Kind: "department"}
	}
	if _, ok := m.focusAreas[focusAreaID]; !ok {
		return &models.MissingReferenceError{Kind: "focus area"}
	}
	return nil
}

func (m *memoryObservationRepo) List(_ context.Context, filter models.ObservationFilter) ([]models.Observation, error) {
	out := []models.Observation{}
	for _, row := range m.rows {
		if filter.TeacherID != nil && row.TeacherID != *filter.TeacherID {
			continue
		}
		if filter.DepartmentID != nil && row.DepartmentID != *filter.DepartmentID {
			continue
		}
		if filter.FocusAreaID != nil && row.FocusAreaID != *filter.FocusAreaID {
			continue
		}
		out = append(out, m.resolve(row))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memoryObservationRepo) FindByID(_ context.Context, id int64) (*models.Observation, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	obs := m.resolve(row)
	return &obs, nil
}

func (m *memoryObservationRepo) Create(_ context.Context, obs models.NewObservation) (int64, error) {
	if err := m.checkRefs(obs.TeacherID, obs.DepartmentID, obs.FocusAreaID); err != nil {
		return 0, err
	}
	m.nextID++
	m.clock = m.clock.Add(time.Minute)
	m.rows[m.nextID] = models.Observation{
		ID: m.nextID, ObservedAt: m.clock,
		TeacherID: obs.TeacherID, DepartmentID: obs.DepartmentID, FocusAreaID: obs.FocusAreaID,
		ClassName: obs.ClassName, Strengths: obs.Strengths, Weaknesses: obs.Weaknesses, Comments: obs.Comments,
	}
	return m.nextID, nil
}

func (m *memoryObservationRepo) Update(_ context.Context, id int64, changes models.ObservationChanges) error {
	row, ok := m.rows[id]
	if !ok {
		return sql.ErrNoRows
	}
	if changes.TeacherID != nil {
		row.TeacherID = *changes.TeacherID
	}
	if changes.DepartmentID != nil {
		row.DepartmentID = *changes.DepartmentID
	}
	if changes.FocusAreaID != nil {
		row.FocusAreaID = *changes.FocusAreaID
	}
	if err := m.checkRefs(row.TeacherID, row.DepartmentID, row.FocusAreaID); err != nil {
		return err
	}
	if changes.ClassName != nil {
		row.ClassName = *changes.ClassName
	}
	if changes.Strengths != nil {
		row.Strengths = changes.Strengths
	}
	if changes.Weaknesses != nil {
		row.Weaknesses = changes.Weaknesses
	}
	if changes.Comments != nil {
		row.Comments = changes.Comments
	}
	m.rows[id] = row
	return nil
}

func (m *memoryObservationRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.rows, id)
	return nil
}

type recordingNotifier struct {
	dispatched []models.Observation
	baseURLs   []string
	err        error
}

func (n *recordingNotifier) Dispatch(_ context.Context, obs *models.Observation, baseURL string) error {
	if n.err != nil {
		return n.err
	}
	n.dispatched = append(n.dispatched, *obs)
	n.baseURLs = append(n.baseURLs, baseURL)
	return nil
}

func strRef(v string) *string { return &v }
func idRef(v int64) *int64    { return &v }

func newObservationServiceForTest() (*ObservationService, *memoryObservationRepo, *recordingNotifier) {
	repo := newMemoryObservationRepo()
	notifier := &recordingNotifier{}
	return NewObservationService(repo, notifier, nil, nil), repo, notifier
}

func validCreate(teacherID int64) CreateObservationRequest {
	return CreateObservationRequest{
		TeacherID: teacherID, DepartmentID: 1, FocusAreaID: 1, ClassName: "10B",
		Strengths: strRef("clear modelling"), Weaknesses: strRef("pace"),
	}
}

func assertErrorStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, status, appErrors.FromError(err).Status)
}

func TestObservationServiceCreateAssignsIncreasingIDs(t *testing.T) {
	svc, _, notifier := newObservationServiceForTest()

	var last int64
	for i := 0; i < 3; i++ {
		id, err := svc.Create(context.Background(), validCreate(1), NotifyOptions{})
		require.NoError(t, err)
		assert.Greater(t, id, last)
		last = id
	}
	assert.Empty(t, notifier.dispatched)
}

func TestObservationServiceCreateValidation(t *testing.T) {
	svc, repo, _ := newObservationServiceForTest()

	req := validCreate(1)
	req.ClassName = "   "
	_, err := svc.Create(context.Background(), req, NotifyOptions{})
	assertErrorStatus(t, err, http.StatusBadRequest)

	req = validCreate(0)
	_, err = svc.Create(context.Background(), req, NotifyOptions{})
	assertErrorStatus(t, err, http.StatusBadRequest)

	assert.Empty(t, repo.rows)
}

func TestObservationServiceCreateMissingReference(t *testing.T) {
	svc, _, _ := newObservationServiceForTest()

	req := validCreate(1)
	req.DepartmentID = 99
	_, err := svc.Create(context.Background(), req, NotifyOptions{})
	assertErrorStatus(t, err, http.StatusBadRequest)
	assert.Contains(t, err.Error(), "department does not exist")
}

func TestObservationServiceCreateWithNotify(t *testing.T) {
	svc, _, notifier := newObservationServiceForTest()

	id, err := svc.Create(context.Background(), validCreate(2), NotifyOptions{Notify: true, BaseURL: "https://x.test"})
	require.NoError(t, err)
	require.Len(t, notifier.dispatched, 1)
	assert.Equal(t, id, notifier.dispatched[0].ID)
	require.NotNil(t, notifier.dispatched[0].Teacher)
	assert.Equal(t, "Peter", notifier.dispatched[0].Teacher.Forename)
	assert.Equal(t, "https://x.test", notifier.baseURLs[0])
}

func TestObservationServiceCreateNotifyFailureKeepsRow(t *testing.T) {
	svc, repo, notifier := newObservationServiceForTest()
	notifier.err = appErrors.Clone(appErrors.ErrUpstream, "mailer call failed")

	id, err := svc.Create(context.Background(), validCreate(1), NotifyOptions{Notify: true})
	assertErrorStatus(t, err, http.StatusBadGateway)
	assert.NotZero(t, id)
	_, exists := repo.rows[id]
	assert.True(t, exists)
}

func TestObservationServiceListFiltersByTeacher(t *testing.T) {
	svc, _, _ := newObservationServiceForTest()
	ctx := context.Background()
	for _, teacherID := range []int64{1, 2, 1, 2, 1} {
		_, err := svc.Create(ctx, validCreate(teacherID), NotifyOptions{})
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, models.ObservationFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.True(t, all[0].ObservationDate.After(all[len(all)-1].ObservationDate))

	mine, err := svc.List(ctx, models.ObservationFilter{TeacherID: idRef(1)})
	require.NoError(t, err)
	require.Len(t, mine, 3)
	for _, summary := range mine {
		require.NotNil(t, summary.TeacherSurname)
		assert.Equal(t, "Chen", *summary.TeacherSurname)
	}
}

func TestObservationServiceListEmptyIsNotAnError(t *testing.T) {
	svc, _, _ := newObservationServiceForTest()

	list, err := svc.List(context.Background(), models.ObservationFilter{TeacherID: idRef(2)})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestObservationServiceListToleratesDanglingReference(t *testing.T) {
	svc, repo, _ := newObservationServiceForTest()
	id, err := svc.Create(context.Background(), validCreate(1), NotifyOptions{})
	require.NoError(t, err)
	delete(repo.departments, 1)

	list, err := svc.List(context.Background(), models.ObservationFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Nil(t, list[0].DepartmentName)
	assert.NotNil(t, list[0].FocusAreaName)
}

func TestObservationServiceUpdateOnlyComments(t *testing.T) {
	svc, _, _ := newObservationServiceForTest()
	ctx := context.Background()
	id, err := svc.Create(ctx, validCreate(1), NotifyOptions{})
	require.NoError(t, err)
	before, err := svc.Get(ctx, id)
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, id, UpdateObservationRequest{Comments: strRef("strong plenary")}, NotifyOptions{}))

	after, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, after.Comments)
	assert.Equal(t, "strong plenary", *after.Comments)

	after.Comments = before.Comments
	assert.Equal(t, before, after)
}

func TestObservationServiceUpdateTeacherAloneIsAChange(t *testing.T) {
	svc, _, _ := newObservationServiceForTest()
	ctx := context.Background()
	id, err := svc.Create(ctx, validCreate(1), NotifyOptions{})
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, id, UpdateObservationRequest{TeacherID: idRef(2)}, NotifyOptions{}))
	detail, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), detail.TeacherID)
}

func TestObservationServiceUpdateNothingToUpdate(t *testing.T) {
	svc, _, notifier := newObservationServiceForTest()
	ctx := context.Background()
	id, err := svc.Create(ctx, validCreate(1), NotifyOptions{})
	require.NoError(t, err)

	err = svc.Update(ctx, id, UpdateObservationRequest{}, NotifyOptions{})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNothingToUpdate.Code))

	err = svc.Update(ctx, id, UpdateObservationRequest{}, NotifyOptions{Notify: true, BaseURL: "http://localhost:8080"})
	require.NoError(t, err)
	assert.Len(t, notifier.dispatched, 1)
}

func TestObservationServiceUpdateResendUsesFreshRow(t *testing.T) {
	svc, _, notifier := newObservationServiceForTest()
	ctx := context.Background()
	id, err := svc.Create(ctx, validCreate(1), NotifyOptions{})
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, id, UpdateObservationRequest{ClassName: strRef("11C")}, NotifyOptions{Notify: true}))
	require.Len(t, notifier.dispatched, 1)
	assert.Equal(t, "11C", notifier.dispatched[0].ClassName)
}

func TestObservationServiceUpdateRejectsEmptyClass(t *testing.T) {
	svc, _, _ := newObservationServiceForTest()
	id, err := svc.Create(context.Background(), validCreate(1), NotifyOptions{})
	require.NoError(t, err)

	err = svc.Update(context.Background(), id, UpdateObservationRequest{ClassName: strRef(" ")}, NotifyOptions{})
	assertErrorStatus(t, err, http.StatusBadRequest)
}

func TestObservationServiceTrimsBeforeValidating(t *testing.T) {
	svc, _, _ := newObservationServiceForTest()
	ctx := context.Background()
	padded := "  " + strings.Repeat("X", 16) + "  "

	req := validCreate(1)
	req.ClassName = padded
	req.Comments = strRef("   ")
	id, err := svc.Create(ctx, req, NotifyOptions{})
	require.NoError(t, err)
	created, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("X", 16), created.ClassName)
	assert.Nil(t, created.Comments)

	err = svc.Update(ctx, id, UpdateObservationRequest{ClassName: strRef(padded), Weaknesses: strRef("  pace of starter  ")}, NotifyOptions{})
	require.NoError(t, err)
	updated, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("X", 16), updated.ClassName)
	require.NotNil(t, updated.Weaknesses)
	assert.Equal(t, "pace of starter", *updated.Weaknesses)

	err = svc.Update(ctx, id, UpdateObservationRequest{ClassName: strRef(strings.Repeat("X", 17))}, NotifyOptions{})
	assertErrorStatus(t, err, http.StatusBadRequest)
}

func TestObservationServiceUpdateMissing(t *testing.T) {
	svc, _, _ := newObservationServiceForTest()

	err := svc.Update(context.Background(), 404, UpdateObservationRequest{Comments: strRef("x")}, NotifyOptions{})
	assertErrorStatus(t, err, http.StatusNotFound)

	err = svc.Update(context.Background(), 404, UpdateObservationRequest{}, NotifyOptions{})
	assertErrorStatus(t, err, http.StatusNotFound)
}

func TestObservationServiceDeleteTwice(t *testing.T) {
	svc, _, _ := newObservationServiceForTest()
	ctx := context.Background()
	id, err := svc.Create(ctx, validCreate(1), NotifyOptions{})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, id))
	assertErrorStatus(t, svc.Delete(ctx, id), http.StatusNotFound)
	assertErrorStatus(t, svc.Delete(ctx, 999), http.StatusNotFound)
}

func TestObservationServiceGetReflectsRenamedReference(t *testing.T) {
	svc, repo, _ := newObservationServiceForTest()
	ctx := context.Background()
	id, err := svc.Create(ctx, validCreate(1), NotifyOptions{})
	require.NoError(t, err)

	repo.departments[1] = models.Department{ID: 1, Name: "Computer Science"}

	detail, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, detail.DepartmentName)
	assert.Equal(t, "Computer Science", *detail.DepartmentName)
	assert.Equal(t, int64(1), detail.DepartmentID)
	require.NotNil(t, detail.TeacherEmail)
	assert.Equal(t, "chloe@example.com", *detail.TeacherEmail)
}

func TestObservationServiceSendEmailMissing(t *testing.T) {
	svc, _, notifier := newObservationServiceForTest()

	err := svc.SendEmail(context.Background(), 12, "http://localhost")
	assertErrorStatus(t, err, http.StatusNotFound)
	assert.Empty(t, notifier.dispatched)
}

func TestObservationServiceInternalErrors(t *testing.T) {
	svc := NewObservationService(failingObservationRepo{}, nil, nil, nil)

	_, err := svc.List(context.Background(), models.ObservationFilter{})
	assertErrorStatus(t, err, http.StatusInternalServerError)
	_, err = svc.Get(context.Background(), 1)
	assertErrorStatus(t, err, http.StatusInternalServerError)
}

type failingObservationRepo struct{}

var errStoreDown = errors.New("connection refused")

func (failingObservationRepo) List(context.Context, models.ObservationFilter) ([]models.Observation, error) {
	return nil, errStoreDown
}
func (failingObservationRepo) FindByID(context.Context, int64) (*models.Observation, error) {
	return nil, errStoreDown
}
func (failingObservationRepo) Create(context.Context, models.NewObservation) (int64, error) {
	return 0, errStoreDown
}
func (failingObservationRepo) Update(context.Context, int64, models.ObservationChanges) error {
	return errStoreDown
}
func (failingObservationRepo) Delete(context.Context, int64) error { return errStoreDown }
