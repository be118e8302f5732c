package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-shift-api/internal/dto"
	appErrors "github.com/noah-isme/tutor-shift-api/pkg/errors"
	"github.com/noah-isme/tutor-shift-api/pkg/fiscal"
)

// Feed kinds.
const (
	FeedKindPerson  = "person"
	FeedKindTeacher = "teacher"
)

type feedSigner interface {
	Sign(resource string) (int64, string, error)
	Verify(resource, rawExpires, signature string) error
}

// FeedConfig tunes calendar feed rendering.
type FeedConfig struct {
	BaseURL        string
	APIPrefix      string
	HorizonDays    int
	TimeslotStarts map[int]string
	LessonDuration time.Duration
	Location       *time.Location
}

// FeedService publishes upcoming lessons and shifts as signed iCalendar feeds.
type FeedService struct {
	stores   Stores
	signer   feedSigner
	clock    Clock
	cfg      FeedConfig
	validate *validator.Validate
	logger   *zap.Logger
}

// NewFeedService constructs the feed service.
func NewFeedService(stores Stores, signer feedSigner, clock Clock, cfg FeedConfig, validate *validator.Validate, logger *zap.Logger) *FeedService {
	if clock == nil {
		clock = SystemClock{}
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 60
	}
	if cfg.LessonDuration <= 0 {
		cfg.LessonDuration = 70 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &FeedService{stores: stores, signer: signer, clock: clock, cfg: cfg, validate: validate, logger: logger}
}

func feedResource(kind string, id int64) string {
	return kind + "/" + strconv.FormatInt(id, 10)
}

// CreateURL issues a signed feed link for a person or teacher.
func (s *FeedService) CreateURL(ctx context.Context, req dto.CreateFeedRequest) (*dto.FeedURLResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err, "invalid feed request")
	}
	if _, err := s.subjectName(ctx, req.Kind, req.ID); err != nil {
		return nil, err
	}
	expires, signature, err := s.signer.Sign(feedResource(req.Kind, req.ID))
	if err != nil {
		return nil, internalError(err, "failed to sign feed url")
	}
	query := url.Values{}
	query.Set("expires", strconv.FormatInt(expires, 10))
	query.Set("signature", signature)
	link := fmt.Sprintf("%s%s/feeds/%s/%d.ics?%s", strings.TrimRight(s.cfg.BaseURL, "/"), s.cfg.APIPrefix, req.Kind, req.ID, query.Encode())
	return &dto.FeedURLResponse{
		URL:       link,
		ExpiresAt: time.Unix(expires, 0).UTC().Format(time.RFC3339),
	}, nil
}

// Render verifies the signature and returns the feed body and a download file name.
func (s *FeedService) Render(ctx context.Context, kind string, id int64, expires, signature string) ([]byte, string, error) {
	if err := s.signer.Verify(feedResource(kind, id), expires, signature); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid feed signature")
	}
	name, err := s.subjectName(ctx, kind, id)
	if err != nil {
		return nil, "", err
	}

	start := today(s.clock)
	end := start.AddDate(0, 0, s.cfg.HorizonDays)
	now := s.clock.Now().UTC()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//tutor-shift-api//feeds//EN")
	cal.SetXWRCalName(name)

	switch kind {
	case FeedKindPerson:
		err = s.addLessons(ctx, cal, id, start, end, now)
	default:
		err = s.addShifts(ctx, cal, id, start, end, now)
	}
	if err != nil {
		return nil, "", err
	}

	s.logger.Debug("calendar feed rendered", zap.String("kind", kind), zap.Int64("id", id), zap.Int("events", len(cal.Events())))
	return []byte(cal.Serialize()), slug.Make(name) + ".ics", nil
}

func (s *FeedService) subjectName(ctx context.Context, kind string, id int64) (string, error) {
	switch kind {
	case FeedKindPerson:
		person, err := s.stores.Persons.Get(ctx, nil, id)
		if err != nil {
			return "", lookupError(err, "person")
		}
		return person.Name, nil
	case FeedKindTeacher:
		teacher, err := s.stores.Teachers.Get(ctx, nil, id)
		if err != nil {
			return "", lookupError(err, "teacher")
		}
		return teacher.Name, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "unknown feed kind "+kind)
	}
}

func (s *FeedService) addLessons(ctx context.Context, cal *ics.Calendar, personID int64, start, end, stamp time.Time) error {
	occurrences, err := s.stores.Lessons.ListByPerson(ctx, nil, personID, start, end)
	if err != nil {
		return internalError(err, "failed to load lesson occurrences")
	}
	for _, o := range occurrences {
		if o.IsAbsent {
			continue
		}
		from, to, ok := s.window(o.EffectiveDate(), o.EffectiveTimeslot())
		if !ok {
			continue
		}
		event := cal.AddEvent(fmt.Sprintf("lesson-%d@tutor-shift", o.ID))
		event.SetDtStampTime(stamp)
		event.SetModifiedAt(o.UpdatedAt.UTC())
		event.SetStartAt(from)
		event.SetEndAt(to)
		event.SetSummary(fmt.Sprintf("%s lesson", o.Subject))
		if cell, err := s.stores.DailyCells.FindByOccurrence(ctx, nil, o.ID); err == nil {
			event.SetLocation(fmt.Sprintf("Room %d", cell.Room))
		} else if !isNoRows(err) {
			return internalError(err, "failed to load daily grid")
		}
		if o.IsRescheduled {
			event.SetDescription("Rescheduled from " + o.Date.Format(fiscal.DateLayout))
		}
	}
	return nil
}

func (s *FeedService) addShifts(ctx context.Context, cal *ics.Calendar, teacherID int64, start, end, stamp time.Time) error {
	shifts, err := s.stores.TeacherShifts.ListByTeacher(ctx, nil, teacherID, start, end)
	if err != nil {
		return internalError(err, "failed to load teacher shifts")
	}
	for _, shift := range shifts {
		from, to, ok := s.window(shift.Date, shift.Timeslot)
		if !ok {
			continue
		}
		event := cal.AddEvent(fmt.Sprintf("shift-%d@tutor-shift", shift.ID))
		event.SetDtStampTime(stamp)
		event.SetStartAt(from)
		event.SetEndAt(to)
		event.SetSummary(fmt.Sprintf("Teaching shift (timeslot %d)", shift.Timeslot))
	}
	return nil
}

// window resolves a date and timeslot to wall-clock start and end. Timeslots without a
// configured start time are left out of the feed.
func (s *FeedService) window(date time.Time, timeslot int) (time.Time, time.Time, bool) {
	raw, ok := s.cfg.TimeslotStarts[timeslot]
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	clock, err := time.Parse("15:04", raw)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	from := time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, s.cfg.Location)
	return from, from.Add(s.cfg.LessonDuration), true
}
