package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-shift-api/internal/dto"
	"github.com/noah-isme/tutor-shift-api/pkg/export"
	"github.com/noah-isme/tutor-shift-api/pkg/fiscal"
)

type dayViewer interface {
	GetDay(ctx context.Context, date time.Time) (*dto.DailyGridView, error)
}

type lessonCounter interface {
	Count(ctx context.Context, personID int64, month time.Time) (*dto.LessonCountResponse, error)
	CountAll(ctx context.Context, month time.Time) ([]dto.LessonCountResponse, error)
}

type datasetRenderer interface {
	Render(format export.Format, data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered document ready to be streamed.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ExportService renders daily rosters and monthly lesson counts as documents.
type ExportService struct {
	stores     Stores
	grids      dayViewer
	counts     lessonCounter
	renderer   datasetRenderer
	schoolName string
	logger     *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(stores Stores, grids dayViewer, counts lessonCounter, renderer datasetRenderer, schoolName string, logger *zap.Logger) *ExportService {
	if renderer == nil {
		renderer = export.DefaultRenderers()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		stores:     stores,
		grids:      grids,
		counts:     counts,
		renderer:   renderer,
		schoolName: schoolName,
		logger:     logger,
	}
}

// DailyRoster exports one row per bound lesson of the date, plus teacher-only cells.
func (s *ExportService) DailyRoster(ctx context.Context, date time.Time, rawFormat string) (*ExportFile, error) {
	format, err := parseExportFormat(rawFormat)
	if err != nil {
		return nil, err
	}
	view, err := s.grids.GetDay(ctx, date)
	if err != nil {
		return nil, err
	}

	names := newNameResolver(s.stores)
	data := export.Dataset{
		Title:    s.title("Daily roster"),
		Subtitle: date.Format("Monday, 2 January 2006"),
		Headers:  []string{"Timeslot", "Room", "Seat", "Person", "Subject", "Grade", "Kind", "Teacher"},
		Rows:     [][]string{},
	}
	if view.Closed {
		data.Subtitle += " (closed)"
	}
	for _, cell := range view.Cells {
		teacher := ""
		if cell.Teacher != nil {
			if teacher, err = names.teacher(ctx, cell.Teacher.TeacherID); err != nil {
				return nil, err
			}
		}
		bound := false
		for seat, lesson := range cell.Lessons {
			if lesson == nil {
				continue
			}
			bound = true
			person, err := names.person(ctx, lesson.PersonID)
			if err != nil {
				return nil, err
			}
			data.Rows = append(data.Rows, []string{
				strconv.Itoa(cell.Timeslot),
				strconv.Itoa(cell.Room),
				strconv.Itoa(seat + 1),
				person,
				lesson.Subject,
				lesson.GradeLabel,
				lessonKind(lesson),
				teacher,
			})
		}
		if !bound && teacher != "" {
			data.Rows = append(data.Rows, []string{strconv.Itoa(cell.Timeslot), strconv.Itoa(cell.Room), "", "", "", "", "", teacher})
		}
	}
	return s.render(format, data, "roster-"+date.Format(fiscal.DateLayout))
}

// LessonCounts exports monthly actual and theoretical lesson counts for one or all persons.
func (s *ExportService) LessonCounts(ctx context.Context, month time.Time, personID *int64, rawFormat string) (*ExportFile, error) {
	format, err := parseExportFormat(rawFormat)
	if err != nil {
		return nil, err
	}
	var counts []dto.LessonCountResponse
	if personID != nil {
		count, err := s.counts.Count(ctx, *personID, month)
		if err != nil {
			return nil, err
		}
		counts = []dto.LessonCountResponse{*count}
	} else if counts, err = s.counts.CountAll(ctx, month); err != nil {
		return nil, err
	}

	label := month.Format(MonthLayout)
	data := export.Dataset{
		Title:    s.title("Lesson counts"),
		Subtitle: month.Format("January 2006"),
		Headers:  []string{"Person ID", "Person", "Month", "Actual", "Theoretical max", "Dates"},
		Rows:     make([][]string, 0, len(counts)),
	}
	total := 0
	for _, c := range counts {
		total += c.Actual
		data.Rows = append(data.Rows, []string{
			strconv.FormatInt(c.PersonID, 10),
			c.PersonName,
			c.Month,
			humanize.Comma(int64(c.Actual)),
			humanize.Comma(int64(c.TheoreticalMax)),
			strings.Join(c.Dates, " "),
		})
	}
	s.logger.Info("lesson counts exported", zap.String("month", label), zap.Int("persons", len(counts)), zap.Int("lessons", total))
	return s.render(format, data, "lesson-counts-"+label)
}

func (s *ExportService) title(report string) string {
	if s.schoolName == "" {
		return report
	}
	return fmt.Sprintf("%s: %s", s.schoolName, report)
}

func (s *ExportService) render(format export.Format, data export.Dataset, name string) (*ExportFile, error) {
	body, err := s.renderer.Render(format, data)
	if err != nil {
		return nil, internalError(err, "failed to render export")
	}
	return &ExportFile{
		Name:        slug.Make(name) + "." + string(format),
		ContentType: format.ContentType(),
		Data:        body,
	}, nil
}

func parseExportFormat(raw string) (export.Format, error) {
	if raw == "" {
		return export.FormatCSV, nil
	}
	format, err := export.ParseFormat(raw)
	if err != nil {
		return "", validationError(err, "unsupported export format")
	}
	return format, nil
}

func lessonKind(l *dto.LessonView) string {
	switch {
	case l.Intensive:
		return "intensive"
	case l.Temporary:
		return "temporary"
	case l.Rescheduled:
		return "makeup"
	default:
		return "regular"
	}
}

// nameResolver memoises person and teacher names for one export.
type nameResolver struct {
	stores   Stores
	persons  map[int64]string
	teachers map[int64]string
}

func newNameResolver(stores Stores) *nameResolver {
	return &nameResolver{stores: stores, persons: map[int64]string{}, teachers: map[int64]string{}}
}

func (r *nameResolver) person(ctx context.Context, id int64) (string, error) {
	if name, ok := r.persons[id]; ok {
		return name, nil
	}
	person, err := r.stores.Persons.Get(ctx, nil, id)
	if err != nil {
		return "", lookupError(err, "person")
	}
	r.persons[id] = person.Name
	return person.Name, nil
}

func (r *nameResolver) teacher(ctx context.Context, id int64) (string, error) {
	if name, ok := r.teachers[id]; ok {
		return name, nil
	}
	teacher, err := r.stores.Teachers.Get(ctx, nil, id)
	if err != nil {
		return "", lookupError(err, "teacher")
	}
	r.teachers[id] = teacher.Name
	return teacher.Name, nil
}
