package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-shift-api/internal/dto"
	"github.com/noah-isme/tutor-shift-api/internal/models"
	"github.com/noah-isme/tutor-shift-api/pkg/fiscal"
)

// memDB is an in-memory stand-in for the postgres schema. Every store view shares the same
// tables so services see each other's writes.
type memDB struct {
	nextID             int64
	persons            map[int64]models.Person
	teachers           map[int64]models.Teacher
	lessonAssignments  map[int64]models.WeeklyLessonAssignment
	teacherAssignments map[int64]models.WeeklyTeacherAssignment
	temporaries        map[int64]models.TemporaryTeacherAssignment
	lessons            map[int64]models.LessonOccurrence
	shifts             map[int64]models.TeacherShiftOccurrence
	templates          map[int64]models.GridTemplateCell
	cells              map[int64]models.DailyShiftCell
	events             map[int64]models.CalendarEvent
	periods            map[int64]models.IntensivePeriod
	intensives         map[int64]models.IntensiveAssignment
	personRequests     map[int64]models.IntensivePersonRequest
	teacherRequests    map[int64]models.IntensiveTeacherRequest
	vocabulary         map[int64]models.VocabularyTestRecord
	runs               map[int64]models.RolloverRun

	failOn string
}

func newMemDB() *memDB {
	return &memDB{
		persons:            map[int64]models.Person{},
		teachers:           map[int64]models.Teacher{},
		lessonAssignments:  map[int64]models.WeeklyLessonAssignment{},
		teacherAssignments: map[int64]models.WeeklyTeacherAssignment{},
		temporaries:        map[int64]models.TemporaryTeacherAssignment{},
		lessons:            map[int64]models.LessonOccurrence{},
		shifts:             map[int64]models.TeacherShiftOccurrence{},
		templates:          map[int64]models.GridTemplateCell{},
		cells:              map[int64]models.DailyShiftCell{},
		events:             map[int64]models.CalendarEvent{},
		periods:            map[int64]models.IntensivePeriod{},
		intensives:         map[int64]models.IntensiveAssignment{},
		personRequests:     map[int64]models.IntensivePersonRequest{},
		teacherRequests:    map[int64]models.IntensiveTeacherRequest{},
		vocabulary:         map[int64]models.VocabularyTestRecord{},
		runs:               map[int64]models.RolloverRun{},
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (db *memDB) snapshot() *memDB {
	return &memDB{
		nextID:             db.nextID,
		persons:            copyMap(db.persons),
		teachers:           copyMap(db.teachers),
		lessonAssignments:  copyMap(db.lessonAssignments),
		teacherAssignments: copyMap(db.teacherAssignments),
		temporaries:        copyMap(db.temporaries),
		lessons:            copyMap(db.lessons),
		shifts:             copyMap(db.shifts),
		templates:          copyMap(db.templates),
		cells:              copyMap(db.cells),
		events:             copyMap(db.events),
		periods:            copyMap(db.periods),
		intensives:         copyMap(db.intensives),
		personRequests:     copyMap(db.personRequests),
		teacherRequests:    copyMap(db.teacherRequests),
		vocabulary:         copyMap(db.vocabulary),
		runs:               copyMap(db.runs),
		failOn:             db.failOn,
	}
}

func (db *memDB) restore(s *memDB) {
	*db = *s
}

// WithinTx rolls every table back when fn fails.
func (db *memDB) WithinTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error {
	saved := db.snapshot()
	if err := fn(nil); err != nil {
		db.restore(saved)
		return err
	}
	return nil
}

func (db *memDB) fail(op string) error {
	if db.failOn == op {
		return errInjected
	}
	return nil
}

type injectedError struct{}

func (injectedError) Error() string { return "injected failure" }

var errInjected error = injectedError{}

func (db *memDB) stores() Stores {
	return Stores{
		Persons:            memPersons{db},
		Teachers:           memTeachers{db},
		LessonAssignments:  memLessonAssignments{db},
		TeacherAssignments: memTeacherAssignments{db},
		Lessons:            memLessons{db},
		TeacherShifts:      memShifts{db},
		Templates:          memTemplates{db},
		DailyCells:         memCells{db},
		Calendar:           memCalendar{db},
		Intensive:          memIntensive{db},
		Vocabulary:         memVocabulary{db},
		RolloverRuns:       memRuns{db},
	}
}

func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func between(d, start, end time.Time) bool {
	return !d.Before(start) && !d.After(end)
}

// seeding helpers

func (db *memDB) addPerson(p models.Person) models.Person {
	if p.ID == 0 {
		p.ID = db.id()
	}
	db.persons[p.ID] = p
	return p
}

func (db *memDB) addTeacher(t models.Teacher) models.Teacher {
	if t.ID == 0 {
		t.ID = db.id()
	}
	db.teachers[t.ID] = t
	return t
}

func (db *memDB) initTemplate(tag models.YearTag, layout GridLayout) {
	_, _ = memTemplates{db}.CreateEmpty(context.Background(), nil, tag, layout.Weekdays, layout.RegularTimeslots, layout.Rooms)
}

func (db *memDB) lessonsOf(assignmentID int64) []models.LessonOccurrence {
	var out []models.LessonOccurrence
	for _, id := range sortedIDs(db.lessons) {
		o := db.lessons[id]
		if o.AssignmentID != nil && *o.AssignmentID == assignmentID {
			out = append(out, o)
		}
	}
	return out
}

func (db *memDB) cellsOn(date time.Time) []models.DailyShiftCell {
	cells, _ := memCells{db}.ListByDate(context.Background(), nil, date)
	return cells
}

// persons

type memPersons struct{ db *memDB }

func (s memPersons) Get(_ context.Context, _ sqlx.ExtContext, id int64) (*models.Person, error) {
	p, ok := s.db.persons[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (s memPersons) ListEnrolled(_ context.Context, _ sqlx.ExtContext) ([]models.Person, error) {
	var out []models.Person
	for _, id := range sortedIDs(s.db.persons) {
		if p := s.db.persons[id]; !p.Withdrawn {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s memPersons) Update(_ context.Context, _ sqlx.ExtContext, person *models.Person) error {
	if err := s.db.fail("persons.update"); err != nil {
		return err
	}
	if _, ok := s.db.persons[person.ID]; !ok {
		return sql.ErrNoRows
	}
	s.db.persons[person.ID] = *person
	return nil
}

// teachers

type memTeachers struct{ db *memDB }

func (s memTeachers) Get(_ context.Context, _ sqlx.ExtContext, id int64) (*models.Teacher, error) {
	t, ok := s.db.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

func (s memTeachers) ListActive(_ context.Context, _ sqlx.ExtContext) ([]models.Teacher, error) {
	var out []models.Teacher
	for _, id := range sortedIDs(s.db.teachers) {
		if t := s.db.teachers[id]; t.Active {
			out = append(out, t)
		}
	}
	return out, nil
}

// lesson assignments

type memLessonAssignments struct{ db *memDB }

func (s memLessonAssignments) Create(_ context.Context, _ sqlx.ExtContext, a *models.WeeklyLessonAssignment) error {
	a.ID = s.db.id()
	s.db.lessonAssignments[a.ID] = *a
	return nil
}

func (s memLessonAssignments) Get(_ context.Context, _ sqlx.ExtContext, id int64) (*models.WeeklyLessonAssignment, error) {
	a, ok := s.db.lessonAssignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &a, nil
}

func (s memLessonAssignments) Update(_ context.Context, _ sqlx.ExtContext, a *models.WeeklyLessonAssignment) error {
	if _, ok := s.db.lessonAssignments[a.ID]; !ok {
		return sql.ErrNoRows
	}
	s.db.lessonAssignments[a.ID] = *a
	return nil
}

func (s memLessonAssignments) Delete(_ context.Context, _ sqlx.ExtContext, id int64) error {
	if _, ok := s.db.lessonAssignments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.db.lessonAssignments, id)
	return nil
}

func (s memLessonAssignments) List(_ context.Context, _ sqlx.ExtContext, filter models.LessonAssignmentFilter) ([]models.WeeklyLessonAssignment, int, error) {
	var out []models.WeeklyLessonAssignment
	for _, id := range sortedIDs(s.db.lessonAssignments) {
		a := s.db.lessonAssignments[id]
		if filter.PersonID != nil && a.PersonID != *filter.PersonID {
			continue
		}
		if filter.ActiveOn != nil && !a.ActiveOn(*filter.ActiveOn) {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

func (s memLessonAssignments) ListOverlapping(_ context.Context, _ sqlx.ExtContext, personID int64, start, end time.Time) ([]models.WeeklyLessonAssignment, error) {
	var out []models.WeeklyLessonAssignment
	for _, id := range sortedIDs(s.db.lessonAssignments) {
		a := s.db.lessonAssignments[id]
		if a.PersonID == personID && !a.StartDate.After(end) && !a.EndDate.Before(start) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s memLessonAssignments) ListEndingOn(_ context.Context, _ sqlx.ExtContext, date time.Time) ([]models.WeeklyLessonAssignment, error) {
	var out []models.WeeklyLessonAssignment
	for _, id := range sortedIDs(s.db.lessonAssignments) {
		if a := s.db.lessonAssignments[id]; a.EndDate.Equal(date) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s memLessonAssignments) ListActiveOn(_ context.Context, _ sqlx.ExtContext, weekday int, date time.Time) ([]models.WeeklyLessonAssignment, error) {
	var out []models.WeeklyLessonAssignment
	for _, id := range sortedIDs(s.db.lessonAssignments) {
		if a := s.db.lessonAssignments[id]; a.Weekday == weekday && a.ActiveOn(date) {
			out = append(out, a)
		}
	}
	return out, nil
}

// teacher assignments

type memTeacherAssignments struct{ db *memDB }

func (s memTeacherAssignments) Create(_ context.Context, _ sqlx.ExtContext, a *models.WeeklyTeacherAssignment) error {
	a.ID = s.db.id()
	s.db.teacherAssignments[a.ID] = *a
	return nil
}

func (s memTeacherAssignments) Get(_ context.Context, _ sqlx.ExtContext, id int64) (*models.WeeklyTeacherAssignment, error) {
	a, ok := s.db.teacherAssignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &a, nil
}

func (s memTeacherAssignments) Update(_ context.Context, _ sqlx.ExtContext, a *models.WeeklyTeacherAssignment) error {
	if _, ok := s.db.teacherAssignments[a.ID]; !ok {
		return sql.ErrNoRows
	}
	s.db.teacherAssignments[a.ID] = *a
	return nil
}

func (s memTeacherAssignments) Delete(_ context.Context, _ sqlx.ExtContext, id int64) error {
	if _, ok := s.db.teacherAssignments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.db.teacherAssignments, id)
	return nil
}

func (s memTeacherAssignments) List(_ context.Context, _ sqlx.ExtContext, filter models.TeacherAssignmentFilter) ([]models.WeeklyTeacherAssignment, int, error) {
	var out []models.WeeklyTeacherAssignment
	for _, id := range sortedIDs(s.db.teacherAssignments) {
		a := s.db.teacherAssignments[id]
		if filter.TeacherID != nil && a.TeacherID != *filter.TeacherID {
			continue
		}
		if filter.ActiveOn != nil && !a.ActiveOn(*filter.ActiveOn) {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

func (s memTeacherAssignments) ListOverlapping(_ context.Context, _ sqlx.ExtContext, teacherID int64, start, end time.Time) ([]models.WeeklyTeacherAssignment, error) {
	var out []models.WeeklyTeacherAssignment
	for _, id := range sortedIDs(s.db.teacherAssignments) {
		a := s.db.teacherAssignments[id]
		if a.TeacherID == teacherID && !a.StartDate.After(end) && !a.EndDate.Before(start) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s memTeacherAssignments) ListEndingOn(_ context.Context, _ sqlx.ExtContext, date time.Time) ([]models.WeeklyTeacherAssignment, error) {
	var out []models.WeeklyTeacherAssignment
	for _, id := range sortedIDs(s.db.teacherAssignments) {
		if a := s.db.teacherAssignments[id]; a.EndDate.Equal(date) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s memTeacherAssignments) ListActiveOn(_ context.Context, _ sqlx.ExtContext, weekday int, date time.Time) ([]models.WeeklyTeacherAssignment, error) {
	var out []models.WeeklyTeacherAssignment
	for _, id := range sortedIDs(s.db.teacherAssignments) {
		if a := s.db.teacherAssignments[id]; a.Weekday == weekday && a.ActiveOn(date) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s memTeacherAssignments) CreateTemporary(_ context.Context, _ sqlx.ExtContext, a *models.TemporaryTeacherAssignment) error {
	a.ID = s.db.id()
	s.db.temporaries[a.ID] = *a
	return nil
}

func (s memTeacherAssignments) DeleteTemporary(_ context.Context, _ sqlx.ExtContext, id int64) error {
	delete(s.db.temporaries, id)
	return nil
}

func (s memTeacherAssignments) DeleteTemporaryByDate(_ context.Context, _ sqlx.ExtContext, date time.Time) (int64, error) {
	var n int64
	for id, a := range s.db.temporaries {
		if a.Date.Equal(date) {
			delete(s.db.temporaries, id)
			n++
		}
	}
	return n, nil
}

// lesson occurrences

type memLessons struct{ db *memDB }

func (s memLessons) Create(_ context.Context, _ sqlx.ExtContext, o *models.LessonOccurrence) error {
	if err := s.db.fail("lessons.create"); err != nil {
		return err
	}
	o.ID = s.db.id()
	s.db.lessons[o.ID] = *o
	return nil
}

func (s memLessons) Get(_ context.Context, _ sqlx.ExtContext, id int64) (*models.LessonOccurrence, error) {
	o, ok := s.db.lessons[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &o, nil
}

func (s memLessons) Update(_ context.Context, _ sqlx.ExtContext, o *models.LessonOccurrence) error {
	if _, ok := s.db.lessons[o.ID]; !ok {
		return sql.ErrNoRows
	}
	s.db.lessons[o.ID] = *o
	return nil
}

func (s memLessons) Delete(_ context.Context, _ sqlx.ExtContext, id int64) error {
	delete(s.db.lessons, id)
	return nil
}

func (s memLessons) ListByIDs(_ context.Context, _ sqlx.ExtContext, ids []int64) ([]models.LessonOccurrence, error) {
	var out []models.LessonOccurrence
	for _, id := range ids {
		if o, ok := s.db.lessons[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s memLessons) ListDatesForAssignment(_ context.Context, _ sqlx.ExtContext, assignmentID int64, start, end time.Time) ([]time.Time, error) {
	var out []time.Time
	for _, o := range s.db.lessonsOf(assignmentID) {
		if between(o.Date, start, end) {
			out = append(out, o.Date)
		}
	}
	return out, nil
}

func (s memLessons) FindBindable(_ context.Context, _ sqlx.ExtContext, assignmentID int64, date time.Time) (*models.LessonOccurrence, error) {
	for _, o := range s.db.lessonsOf(assignmentID) {
		if o.Date.Equal(date) && !o.IsRescheduled && !o.IsAbsent {
			return &o, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s memLessons) ListUnbound(_ context.Context, _ sqlx.ExtContext, date time.Time, includeRegular bool) ([]models.LessonOccurrence, error) {
	bound := map[int64]bool{}
	for _, c := range s.db.cells {
		if c.Date.Equal(date) {
			for _, id := range c.OccurrenceSlots.IDs() {
				bound[id] = true
			}
		}
	}
	var out []models.LessonOccurrence
	for _, id := range sortedIDs(s.db.lessons) {
		o := s.db.lessons[id]
		if o.IsAbsent || bound[o.ID] || !o.EffectiveDate().Equal(date) {
			continue
		}
		if !includeRegular && o.IsRegular && !o.IsRescheduled {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (s memLessons) DeleteForAssignmentFrom(_ context.Context, _ sqlx.ExtContext, assignmentID int64, from time.Time) ([]int64, error) {
	var ids []int64
	for _, o := range s.db.lessonsOf(assignmentID) {
		if !o.Date.Before(from) {
			delete(s.db.lessons, o.ID)
			ids = append(ids, o.ID)
		}
	}
	return ids, nil
}

func (s memLessons) DeleteByDate(_ context.Context, _ sqlx.ExtContext, date time.Time) ([]int64, error) {
	var ids []int64
	for _, id := range sortedIDs(s.db.lessons) {
		if s.db.lessons[id].Date.Equal(date) {
			delete(s.db.lessons, id)
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s memLessons) CountForIntensive(_ context.Context, _ sqlx.ExtContext, intensiveAssignmentID int64) (int, error) {
	n := 0
	for _, o := range s.db.lessons {
		if o.IntensiveAssignmentID != nil && *o.IntensiveAssignmentID == intensiveAssignmentID {
			n++
		}
	}
	return n, nil
}

func (s memLessons) ListByPerson(_ context.Context, _ sqlx.ExtContext, personID int64, start, end time.Time) ([]models.LessonOccurrence, error) {
	var out []models.LessonOccurrence
	for _, id := range sortedIDs(s.db.lessons) {
		o := s.db.lessons[id]
		if o.PersonID == personID && between(o.EffectiveDate(), start, end) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s memLessons) SetReported(_ context.Context, _ sqlx.ExtContext, id int64, reported bool) error {
	o, ok := s.db.lessons[id]
	if !ok {
		return sql.ErrNoRows
	}
	o.IsReported = reported
	s.db.lessons[id] = o
	return nil
}

// teacher shifts

type memShifts struct{ db *memDB }

func (s memShifts) Create(_ context.Context, _ sqlx.ExtContext, shift *models.TeacherShiftOccurrence) error {
	shift.ID = s.db.id()
	s.db.shifts[shift.ID] = *shift
	return nil
}

func (s memShifts) Get(_ context.Context, _ sqlx.ExtContext, id int64) (*models.TeacherShiftOccurrence, error) {
	shift, ok := s.db.shifts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &shift, nil
}

func (s memShifts) Delete(_ context.Context, _ sqlx.ExtContext, id int64) error {
	delete(s.db.shifts, id)
	return nil
}

func (s memShifts) ListByIDs(_ context.Context, _ sqlx.ExtContext, ids []int64) ([]models.TeacherShiftOccurrence, error) {
	var out []models.TeacherShiftOccurrence
	for _, id := range ids {
		if shift, ok := s.db.shifts[id]; ok {
			out = append(out, shift)
		}
	}
	return out, nil
}

func (s memShifts) ofAssignment(assignmentID int64) []models.TeacherShiftOccurrence {
	var out []models.TeacherShiftOccurrence
	for _, id := range sortedIDs(s.db.shifts) {
		shift := s.db.shifts[id]
		if shift.AssignmentID != nil && *shift.AssignmentID == assignmentID {
			out = append(out, shift)
		}
	}
	return out
}

func (s memShifts) ListDatesForAssignment(_ context.Context, _ sqlx.ExtContext, assignmentID int64, start, end time.Time) ([]time.Time, error) {
	var out []time.Time
	for _, shift := range s.ofAssignment(assignmentID) {
		if between(shift.Date, start, end) {
			out = append(out, shift.Date)
		}
	}
	return out, nil
}

func (s memShifts) FindFixed(_ context.Context, _ sqlx.ExtContext, assignmentID int64, date time.Time) (*models.TeacherShiftOccurrence, error) {
	for _, shift := range s.ofAssignment(assignmentID) {
		if shift.Date.Equal(date) && shift.IsFixed {
			return &shift, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s memShifts) ListUnbound(_ context.Context, _ sqlx.ExtContext, date time.Time) ([]models.TeacherShiftOccurrence, error) {
	bound := map[int64]bool{}
	for _, c := range s.db.cells {
		if c.Date.Equal(date) && c.TeacherSlot != nil {
			bound[*c.TeacherSlot] = true
		}
	}
	var out []models.TeacherShiftOccurrence
	for _, id := range sortedIDs(s.db.shifts) {
		shift := s.db.shifts[id]
		if shift.Date.Equal(date) && !shift.IsFixed && !bound[shift.ID] {
			out = append(out, shift)
		}
	}
	return out, nil
}

func (s memShifts) DeleteForAssignmentFrom(_ context.Context, _ sqlx.ExtContext, assignmentID int64, from time.Time) ([]int64, error) {
	var ids []int64
	for _, shift := range s.ofAssignment(assignmentID) {
		if !shift.Date.Before(from) {
			delete(s.db.shifts, shift.ID)
			ids = append(ids, shift.ID)
		}
	}
	return ids, nil
}

func (s memShifts) DeleteByDate(_ context.Context, _ sqlx.ExtContext, date time.Time) ([]int64, error) {
	var ids []int64
	for _, id := range sortedIDs(s.db.shifts) {
		if s.db.shifts[id].Date.Equal(date) {
			delete(s.db.shifts, id)
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s memShifts) ListByTeacher(_ context.Context, _ sqlx.ExtContext, teacherID int64, start, end time.Time) ([]models.TeacherShiftOccurrence, error) {
	var out []models.TeacherShiftOccurrence
	for _, id := range sortedIDs(s.db.shifts) {
		shift := s.db.shifts[id]
		if shift.TeacherID == teacherID && between(shift.Date, start, end) {
			out = append(out, shift)
		}
	}
	return out, nil
}

// grid templates

type memTemplates struct{ db *memDB }

func (s memTemplates) CreateEmpty(_ context.Context, _ sqlx.ExtContext, tag models.YearTag, weekdays, timeslots, rooms []int) (int, error) {
	existing := map[[3]int]bool{}
	for _, c := range s.db.templates {
		if c.YearTag == tag {
			existing[[3]int{c.Weekday, c.Timeslot, c.Room}] = true
		}
	}
	created := 0
	for _, w := range weekdays {
		for _, t := range timeslots {
			for _, r := range rooms {
				if existing[[3]int{w, t, r}] {
					continue
				}
				id := s.db.id()
				s.db.templates[id] = models.GridTemplateCell{ID: id, YearTag: tag, Weekday: w, Timeslot: t, Room: r}
				created++
			}
		}
	}
	return created, nil
}

func (s memTemplates) List(_ context.Context, _ sqlx.ExtContext, tag models.YearTag, weekday *int) ([]models.GridTemplateCell, error) {
	var out []models.GridTemplateCell
	for _, id := range sortedIDs(s.db.templates) {
		c := s.db.templates[id]
		if c.YearTag == tag && (weekday == nil || c.Weekday == *weekday) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s memTemplates) ListSlot(_ context.Context, _ sqlx.ExtContext, tag models.YearTag, weekday, timeslot int) ([]models.GridTemplateCell, error) {
	var out []models.GridTemplateCell
	for _, id := range sortedIDs(s.db.templates) {
		c := s.db.templates[id]
		if c.YearTag == tag && c.Weekday == weekday && c.Timeslot == timeslot {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s memTemplates) Get(_ context.Context, _ sqlx.ExtContext, id int64) (*models.GridTemplateCell, error) {
	c, ok := s.db.templates[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (s memTemplates) FindByLessonAssignment(_ context.Context, _ sqlx.ExtContext, assignmentID int64) (*models.GridTemplateCell, error) {
	for _, id := range sortedIDs(s.db.templates) {
		if c := s.db.templates[id]; c.LessonSlots.IndexOf(assignmentID) >= 0 {
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s memTemplates) FindByTeacherAssignment(_ context.Context, _ sqlx.ExtContext, assignmentID int64) (*models.GridTemplateCell, error) {
	for _, id := range sortedIDs(s.db.templates) {
		if c := s.db.templates[id]; c.TeacherSlot != nil && *c.TeacherSlot == assignmentID {
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s memTemplates) SaveSlots(_ context.Context, _ sqlx.ExtContext, cell *models.GridTemplateCell) error {
	c, ok := s.db.templates[cell.ID]
	if !ok {
		return sql.ErrNoRows
	}
	c.LessonSlots = cell.LessonSlots
	c.TeacherSlot = cell.TeacherSlot
	s.db.templates[cell.ID] = c
	return nil
}

func (s memTemplates) DeleteByYear(_ context.Context, _ sqlx.ExtContext, tag models.YearTag) (int, error) {
	n := 0
	for id, c := range s.db.templates {
		if c.YearTag == tag {
			delete(s.db.templates, id)
			n++
		}
	}
	return n, nil
}

func (s memTemplates) Retag(_ context.Context, _ sqlx.ExtContext, from, to models.YearTag) (int, error) {
	n := 0
	for id, c := range s.db.templates {
		if c.YearTag == from {
			c.YearTag = to
			s.db.templates[id] = c
			n++
		}
	}
	return n, nil
}

// daily cells

type memCells struct{ db *memDB }

func (s memCells) Create(_ context.Context, _ sqlx.ExtContext, cell *models.DailyShiftCell) (bool, error) {
	for _, c := range s.db.cells {
		if c.Date.Equal(cell.Date) && c.Timeslot == cell.Timeslot && c.Room == cell.Room {
			return false, nil
		}
	}
	cell.ID = s.db.id()
	s.db.cells[cell.ID] = *cell
	return true, nil
}

func (s memCells) ListByDate(_ context.Context, _ sqlx.ExtContext, date time.Time) ([]models.DailyShiftCell, error) {
	var out []models.DailyShiftCell
	for _, id := range sortedIDs(s.db.cells) {
		if c := s.db.cells[id]; c.Date.Equal(date) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timeslot != out[j].Timeslot {
			return out[i].Timeslot < out[j].Timeslot
		}
		return out[i].Room < out[j].Room
	})
	return out, nil
}

func (s memCells) Get(_ context.Context, _ sqlx.ExtContext, id int64) (*models.DailyShiftCell, error) {
	c, ok := s.db.cells[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (s memCells) Find(_ context.Context, _ sqlx.ExtContext, date time.Time, timeslot, room int) (*models.DailyShiftCell, error) {
	for _, id := range sortedIDs(s.db.cells) {
		if c := s.db.cells[id]; c.Date.Equal(date) && c.Timeslot == timeslot && c.Room == room {
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s memCells) FindByOccurrence(_ context.Context, _ sqlx.ExtContext, occurrenceID int64) (*models.DailyShiftCell, error) {
	for _, id := range sortedIDs(s.db.cells) {
		if c := s.db.cells[id]; c.OccurrenceSlots.IndexOf(occurrenceID) >= 0 {
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s memCells) SaveSlots(_ context.Context, _ sqlx.ExtContext, cell *models.DailyShiftCell) error {
	c, ok := s.db.cells[cell.ID]
	if !ok {
		return sql.ErrNoRows
	}
	c.OccurrenceSlots = cell.OccurrenceSlots
	c.TeacherSlot = cell.TeacherSlot
	s.db.cells[cell.ID] = c
	return nil
}

func (s memCells) DetachOccurrences(_ context.Context, _ sqlx.ExtContext, ids []int64) error {
	for cid, c := range s.db.cells {
		changed := false
		for _, id := range ids {
			if c.OccurrenceSlots.Clear(id) {
				changed = true
			}
		}
		if changed {
			s.db.cells[cid] = c
		}
	}
	return nil
}

func (s memCells) DetachTeacherShifts(_ context.Context, _ sqlx.ExtContext, ids []int64) error {
	for cid, c := range s.db.cells {
		for _, id := range ids {
			if c.TeacherSlot != nil && *c.TeacherSlot == id {
				c.TeacherSlot = nil
				s.db.cells[cid] = c
			}
		}
	}
	return nil
}

func (s memCells) DeleteByDate(_ context.Context, _ sqlx.ExtContext, date time.Time) (int, error) {
	n := 0
	for id, c := range s.db.cells {
		if c.Date.Equal(date) {
			delete(s.db.cells, id)
			n++
		}
	}
	return n, nil
}

func (s memCells) DeleteTimeslotsInRange(_ context.Context, _ sqlx.ExtContext, start, end time.Time, timeslots []int) (int, error) {
	n := 0
	for id, c := range s.db.cells {
		if between(c.Date, start, end) && containsInt(timeslots, c.Timeslot) {
			delete(s.db.cells, id)
			n++
		}
	}
	return n, nil
}

// calendar

type memCalendar struct{ db *memDB }

func (s memCalendar) List(_ context.Context, _ sqlx.ExtContext, filter models.CalendarFilter) ([]models.CalendarEvent, error) {
	var out []models.CalendarEvent
	for _, id := range sortedIDs(s.db.events) {
		e := s.db.events[id]
		if filter.StartDate != nil && e.Date.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && e.Date.After(*filter.EndDate) {
			continue
		}
		if filter.Closures != nil && e.IsClosure != *filter.Closures {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s memCalendar) Get(_ context.Context, _ sqlx.ExtContext, id int64) (*models.CalendarEvent, error) {
	e, ok := s.db.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &e, nil
}

func (s memCalendar) Create(_ context.Context, _ sqlx.ExtContext, event *models.CalendarEvent) error {
	event.ID = s.db.id()
	s.db.events[event.ID] = *event
	return nil
}

func (s memCalendar) Delete(_ context.Context, _ sqlx.ExtContext, id int64) error {
	delete(s.db.events, id)
	return nil
}

func (s memCalendar) IsClosure(_ context.Context, _ sqlx.ExtContext, date time.Time) (bool, error) {
	for _, e := range s.db.events {
		if e.IsClosure && e.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (s memCalendar) ListClosureDates(_ context.Context, _ sqlx.ExtContext, start, end time.Time) ([]time.Time, error) {
	var out []time.Time
	for _, id := range sortedIDs(s.db.events) {
		if e := s.db.events[id]; e.IsClosure && between(e.Date, start, end) {
			out = append(out, e.Date)
		}
	}
	return out, nil
}

func (s memCalendar) DeleteNonClosureOn(_ context.Context, _ sqlx.ExtContext, date time.Time) (int64, error) {
	var n int64
	for id, e := range s.db.events {
		if !e.IsClosure && e.Date.Equal(date) {
			delete(s.db.events, id)
			n++
		}
	}
	return n, nil
}

func (s memCalendar) DeleteFixedInRange(_ context.Context, _ sqlx.ExtContext, start, end time.Time) (int64, error) {
	var n int64
	for id, e := range s.db.events {
		if e.IsFixed && between(e.Date, start, end) {
			delete(s.db.events, id)
			n++
		}
	}
	return n, nil
}

// intensive

type memIntensive struct{ db *memDB }

func (s memIntensive) CreatePeriod(_ context.Context, _ sqlx.ExtContext, period *models.IntensivePeriod) error {
	period.ID = s.db.id()
	s.db.periods[period.ID] = *period
	return nil
}

func (s memIntensive) GetPeriod(_ context.Context, _ sqlx.ExtContext, id int64) (*models.IntensivePeriod, error) {
	p, ok := s.db.periods[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (s memIntensive) DeletePeriod(_ context.Context, _ sqlx.ExtContext, id int64) error {
	delete(s.db.periods, id)
	return nil
}

func (s memIntensive) ListOverlapping(_ context.Context, _ sqlx.ExtContext, start, end time.Time) ([]models.IntensivePeriod, error) {
	var out []models.IntensivePeriod
	for _, id := range sortedIDs(s.db.periods) {
		if p := s.db.periods[id]; !p.StartDate.After(end) && !p.EndDate.Before(start) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s memIntensive) FindPeriodOn(_ context.Context, _ sqlx.ExtContext, date time.Time) (*models.IntensivePeriod, error) {
	for _, id := range sortedIDs(s.db.periods) {
		if p := s.db.periods[id]; p.Contains(date) {
			return &p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s memIntensive) CreateAssignment(_ context.Context, _ sqlx.ExtContext, a *models.IntensiveAssignment) error {
	a.ID = s.db.id()
	s.db.intensives[a.ID] = *a
	return nil
}

func (s memIntensive) GetAssignment(_ context.Context, _ sqlx.ExtContext, id int64) (*models.IntensiveAssignment, error) {
	a, ok := s.db.intensives[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &a, nil
}

func (s memIntensive) findPersonRequest(r models.IntensivePersonRequest) (int64, bool) {
	for id, row := range s.db.personRequests {
		if row.PersonID == r.PersonID && row.PeriodID == r.PeriodID && row.Date.Equal(r.Date) && row.Timeslot == r.Timeslot {
			return id, true
		}
	}
	return 0, false
}

func (s memIntensive) EnsurePersonRequest(_ context.Context, _ sqlx.ExtContext, r models.IntensivePersonRequest) (bool, error) {
	if _, ok := s.findPersonRequest(r); ok {
		return false, nil
	}
	r.ID = s.db.id()
	s.db.personRequests[r.ID] = r
	return true, nil
}

func (s memIntensive) SetPersonAvailability(_ context.Context, _ sqlx.ExtContext, r models.IntensivePersonRequest) (bool, error) {
	id, ok := s.findPersonRequest(r)
	if !ok {
		return false, nil
	}
	row := s.db.personRequests[id]
	row.Available = r.Available
	s.db.personRequests[id] = row
	return true, nil
}

func (s memIntensive) findTeacherRequest(r models.IntensiveTeacherRequest) (int64, bool) {
	for id, row := range s.db.teacherRequests {
		if row.TeacherID == r.TeacherID && row.Date.Equal(r.Date) && row.Timeslot == r.Timeslot {
			return id, true
		}
	}
	return 0, false
}

func (s memIntensive) EnsureTeacherRequest(_ context.Context, _ sqlx.ExtContext, r models.IntensiveTeacherRequest) (bool, error) {
	if _, ok := s.findTeacherRequest(r); ok {
		return false, nil
	}
	r.ID = s.db.id()
	s.db.teacherRequests[r.ID] = r
	return true, nil
}

func (s memIntensive) SetTeacherAvailability(_ context.Context, _ sqlx.ExtContext, r models.IntensiveTeacherRequest) (bool, error) {
	id, ok := s.findTeacherRequest(r)
	if !ok {
		return false, nil
	}
	row := s.db.teacherRequests[id]
	row.Available = r.Available
	s.db.teacherRequests[id] = row
	return true, nil
}

// vocabulary

type memVocabulary struct{ db *memDB }

func (s memVocabulary) ResetAll(_ context.Context, _ sqlx.ExtContext) (int, error) {
	if err := s.db.fail("vocabulary.reset"); err != nil {
		return 0, err
	}
	n := 0
	for id, r := range s.db.vocabulary {
		if r.TestDate == nil && r.Score == nil && r.FullScore == nil {
			continue
		}
		r.TestDate, r.Score, r.FullScore = nil, nil, nil
		s.db.vocabulary[id] = r
		n++
	}
	return n, nil
}

// rollover runs

type memRuns struct{ db *memDB }

func (s memRuns) Create(_ context.Context, _ sqlx.ExtContext, run *models.RolloverRun) error {
	run.ID = s.db.id()
	s.db.runs[run.ID] = *run
	return nil
}

func (s memRuns) Finish(_ context.Context, _ sqlx.ExtContext, run *models.RolloverRun) error {
	s.db.runs[run.ID] = *run
	return nil
}

func (s memRuns) HasCompleted(_ context.Context, _ sqlx.ExtContext, fiscalYear int) (bool, error) {
	for _, r := range s.db.runs {
		if r.FiscalYear == fiscalYear && r.Status == models.RolloverStatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (s memRuns) List(_ context.Context, _ sqlx.ExtContext, limit int) ([]models.RolloverRun, error) {
	var out []models.RolloverRun
	for _, id := range sortedIDs(s.db.runs) {
		out = append(out, s.db.runs[id])
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// engine bundles the services under test around one memDB.
type engine struct {
	db           *memDB
	clock        FixedClock
	layout       GridLayout
	materializer *Materializer
	grids        *DailyGridService
	lessons      *LessonAssignmentService
	teachers     *TeacherAssignmentService
	reschedule   *RescheduleService
	calendar     *CalendarService
	intensive    *IntensiveService
	rollover     *RolloverService
	templates    *GridTemplateService
	counts       *LessonCountService
}

func newEngine(now time.Time) *engine {
	db := newMemDB()
	layout := DefaultGridLayout()
	clock := FixedClock{At: now}
	stores := db.stores()
	logger := zap.NewNop()
	validate := dto.NewValidator()
	m := NewMaterializer(stores, layout, nil, logger)
	grids := NewDailyGridService(stores, db, layout, clock, nil, nil, validate, logger)
	return &engine{
		db:           db,
		clock:        clock,
		layout:       layout,
		materializer: m,
		grids:        grids,
		lessons:      NewLessonAssignmentService(stores, db, m, layout, clock, nil, nil, validate, logger),
		teachers:     NewTeacherAssignmentService(stores, db, m, layout, clock, nil, validate, logger),
		reschedule:   NewRescheduleService(stores, db, grids, clock, nil, nil, validate, logger),
		calendar:     NewCalendarService(stores, db, m, grids, nil, validate, logger),
		intensive:    NewIntensiveService(stores, db, grids, layout, nil, validate, logger),
		rollover:     NewRolloverService(stores, db, m, layout, clock, nil, nil, logger),
		templates:    NewGridTemplateService(stores, db, layout, validate, logger),
		counts:       NewLessonCountService(stores, logger),
	}
}

func day(raw string) time.Time {
	d, err := fiscal.ParseDay(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func newSeededEngine(now time.Time) *engine {
	e := newEngine(now)
	e.db.initTemplate(models.YearCurrent, e.layout)
	e.db.initTemplate(models.YearNext, e.layout)
	return e
}

func (e *engine) addClosure(date time.Time) models.CalendarEvent {
	event := models.CalendarEvent{Date: date, Title: "closed", IsClosure: true}
	_ = memCalendar{e.db}.Create(context.Background(), nil, &event)
	return event
}

func (e *engine) addLessonAssignment(a models.WeeklyLessonAssignment) *models.WeeklyLessonAssignment {
	_ = memLessonAssignments{e.db}.Create(context.Background(), nil, &a)
	return &a
}

func (e *engine) addOccurrence(o models.LessonOccurrence) models.LessonOccurrence {
	_ = memLessons{e.db}.Create(context.Background(), nil, &o)
	return o
}

func (e *engine) cell(date time.Time, timeslot, room int) models.DailyShiftCell {
	c, err := memCells{e.db}.Find(context.Background(), nil, date, timeslot, room)
	if err != nil {
		panic(err)
	}
	return *c
}

func (e *engine) templateCell(tag models.YearTag, weekday, timeslot, room int) models.GridTemplateCell {
	for _, c := range e.db.templates {
		if c.YearTag == tag && c.Weekday == weekday && c.Timeslot == timeslot && c.Room == room {
			return c
		}
	}
	panic("template cell not found")
}

// weekdayDates lists the dates in [start, end] falling on weekday, minus skip.
func weekdayDates(start, end time.Time, weekday int, skip ...time.Time) []time.Time {
	skipped := map[time.Time]bool{}
	for _, d := range skip {
		skipped[d] = true
	}
	var out []time.Time
	_ = fiscal.EachDay(start, end, func(d time.Time) error {
		if fiscal.Weekday(d) == weekday && !skipped[d] {
			out = append(out, d)
		}
		return nil
	})
	return out
}

func occurrenceDates(occurrences []models.LessonOccurrence) []time.Time {
	out := make([]time.Time, 0, len(occurrences))
	for _, o := range occurrences {
		out = append(out, o.Date)
	}
	return out
}

func int64Ptr(v int64) *int64 { return &v }
