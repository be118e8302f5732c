package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-shift-api/internal/models"
	appErrors "github.com/noah-isme/tutor-shift-api/pkg/errors"
	"github.com/noah-isme/tutor-shift-api/pkg/fiscal"
	"github.com/noah-isme/tutor-shift-api/pkg/jobs"
)

// RolloverJobType identifies fiscal rollover jobs on the queue.
const RolloverJobType = "fiscal_rollover"

type rolloverQueue interface {
	Enqueue(job jobs.Job) error
}

// rolloverPlan holds the dates a rollover run works with.
type rolloverPlan struct {
	today    time.Time
	start    time.Time
	end      time.Time
	priorEnd time.Time
}

type rolloverStep struct {
	name string
	run  func(ctx context.Context, exec sqlx.ExtContext, plan rolloverPlan, summary *models.RolloverSummary) error
}

// RolloverService advances templates, assignments and persons into a new fiscal year.
type RolloverService struct {
	stores       Stores
	tx           transactor
	materializer *Materializer
	layout       GridLayout
	clock        Clock
	cache        *CacheService
	metrics      *MetricsService
	queue        rolloverQueue
	logger       *zap.Logger
}

// NewRolloverService constructs the service.
func NewRolloverService(stores Stores, tx transactor, materializer *Materializer, layout GridLayout, clock Clock, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *RolloverService {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RolloverService{
		stores:       stores,
		tx:           tx,
		materializer: materializer,
		layout:       layout,
		clock:        clock,
		cache:        cache,
		metrics:      metrics,
		logger:       logger,
	}
}

// SetQueue wires the job queue used by Enqueue. The queue's handler is HandleJob, so the
// queue is built after the service.
func (s *RolloverService) SetQueue(queue rolloverQueue) {
	s.queue = queue
}

// Enqueue schedules a rollover run on the job queue and returns the job id.
func (s *RolloverService) Enqueue(ctx context.Context) (string, error) {
	if s.queue == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "rollover queue not configured")
	}
	fiscalYear := fiscal.ShiftYear(s.clock.Now())
	done, err := s.stores.RolloverRuns.HasCompleted(ctx, nil, fiscalYear)
	if err != nil {
		return "", internalError(err, "failed to check rollover runs")
	}
	if done {
		return "", appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("rollover for %d already completed", fiscalYear))
	}
	job := jobs.Job{ID: uuid.NewString(), Type: RolloverJobType, Key: strconv.Itoa(fiscalYear), Payload: fiscalYear}
	if err := s.queue.Enqueue(job); err != nil {
		if errors.Is(err, jobs.ErrDuplicate) {
			return "", appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("rollover for %d is already queued", fiscalYear))
		}
		return "", internalError(err, "failed to enqueue rollover")
	}
	s.logger.Info("rollover enqueued", zap.String("job_id", job.ID), zap.Int("fiscal_year", fiscalYear))
	return job.ID, nil
}

// HandleJob runs a queued rollover. A run for a year already completed is not retried.
func (s *RolloverService) HandleJob(ctx context.Context, job jobs.Job) error {
	_, err := s.Run(ctx)
	if appErrors.Is(err, appErrors.ErrConflict) {
		return jobs.Permanent(err)
	}
	return err
}

// ListRuns returns the most recent rollover runs.
func (s *RolloverService) ListRuns(ctx context.Context, limit int) ([]models.RolloverRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	runs, err := s.stores.RolloverRuns.List(ctx, nil, limit)
	if err != nil {
		return nil, internalError(err, "failed to list rollover runs")
	}
	return runs, nil
}

// Run performs the yearly rollover for the fiscal year containing today in one transaction.
// Any failing step aborts the whole run.
func (s *RolloverService) Run(ctx context.Context) (*models.RolloverSummary, error) {
	startedAt := time.Now()
	now := today(s.clock)
	start, end := fiscal.ShiftYearBounds(now)
	plan := rolloverPlan{today: now, start: start, end: end, priorEnd: start.AddDate(0, 0, -1)}
	summary := &models.RolloverSummary{FiscalYear: start.Year()}

	done, err := s.stores.RolloverRuns.HasCompleted(ctx, nil, summary.FiscalYear)
	if err != nil {
		return nil, internalError(err, "failed to check rollover runs")
	}
	if done {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("rollover for %d already completed", summary.FiscalYear))
	}

	run := &models.RolloverRun{FiscalYear: summary.FiscalYear, Status: models.RolloverStatusRunning}
	if err := s.stores.RolloverRuns.Create(ctx, nil, run); err != nil {
		return nil, internalError(err, "failed to record rollover run")
	}

	steps := []rolloverStep{
		{name: "deleteExpiringTemplate", run: s.deleteExpiringTemplate},
		{name: "promoteNextTemplate", run: s.promoteNextTemplate},
		{name: "createNextTemplate", run: s.createNextTemplate},
		{name: "rollLessonAssignments", run: s.rollLessonAssignments},
		{name: "rollTeacherAssignments", run: s.rollTeacherAssignments},
		{name: "advancePersons", run: s.advancePersons},
		{name: "resetVocabularyTests", run: s.resetVocabularyTests},
	}

	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		for _, step := range steps {
			if err := step.run(ctx, exec, plan, summary); err != nil {
				s.logger.Error("rollover step failed", zap.String("step", step.name), zap.Error(err))
				return fmt.Errorf("%s: %w", step.name, err)
			}
			s.logger.Info("rollover step completed", zap.String("step", step.name))
		}
		payload, err := json.Marshal(summary)
		if err != nil {
			return fmt.Errorf("encode rollover summary: %w", err)
		}
		run.Status = models.RolloverStatusCompleted
		run.Summary = payload
		if err := s.stores.RolloverRuns.Finish(ctx, exec, run); err != nil {
			return internalError(err, "failed to complete rollover run")
		}
		return nil
	})
	if err != nil {
		message := err.Error()
		run.Status = models.RolloverStatusFailed
		run.Summary = nil
		run.Error = &message
		if finishErr := s.stores.RolloverRuns.Finish(ctx, nil, run); finishErr != nil {
			s.logger.Error("failed to record rollover failure", zap.Error(finishErr))
		}
		s.metrics.ObserveRollover(string(models.RolloverStatusFailed), time.Since(startedAt))
		return nil, err
	}

	s.metrics.ObserveRollover(string(models.RolloverStatusCompleted), time.Since(startedAt))
	s.cache.InvalidateAllDays(ctx)
	s.logger.Info("rollover completed",
		zap.Int("fiscal_year", summary.FiscalYear),
		zap.Int("lesson_assignments_cloned", summary.LessonAssignmentsCloned),
		zap.Int("teacher_assignments_cloned", summary.TeacherAssignmentsCloned),
		zap.Int("occurrences_created", summary.OccurrencesCreated),
	)
	return summary, nil
}

func (s *RolloverService) deleteExpiringTemplate(ctx context.Context, exec sqlx.ExtContext, _ rolloverPlan, summary *models.RolloverSummary) error {
	n, err := s.stores.Templates.DeleteByYear(ctx, exec, models.YearCurrent)
	if err != nil {
		return internalError(err, "failed to delete expiring template")
	}
	summary.TemplateCellsDeleted = n
	return nil
}

// promoteNextTemplate retags next year's template as current and fills any cells that were
// never created.
func (s *RolloverService) promoteNextTemplate(ctx context.Context, exec sqlx.ExtContext, _ rolloverPlan, summary *models.RolloverSummary) error {
	if _, err := s.stores.Templates.Retag(ctx, exec, models.YearNext, models.YearCurrent); err != nil {
		return internalError(err, "failed to promote next template")
	}
	n, err := s.stores.Templates.CreateEmpty(ctx, exec, models.YearCurrent, s.layout.Weekdays, s.layout.RegularTimeslots, s.layout.Rooms)
	if err != nil {
		return internalError(err, "failed to complete current template")
	}
	summary.TemplateCellsCreated += n
	return nil
}

func (s *RolloverService) createNextTemplate(ctx context.Context, exec sqlx.ExtContext, _ rolloverPlan, summary *models.RolloverSummary) error {
	n, err := s.stores.Templates.CreateEmpty(ctx, exec, models.YearNext, s.layout.Weekdays, s.layout.RegularTimeslots, s.layout.Rooms)
	if err != nil {
		return internalError(err, "failed to create next template")
	}
	summary.TemplateCellsCreated += n
	return nil
}

// rollLessonAssignments clones lessons that ended with the prior fiscal year into the new
// one with the tier advanced. Assignments with a year-end decision already applied are only
// reset.
func (s *RolloverService) rollLessonAssignments(ctx context.Context, exec sqlx.ExtContext, plan rolloverPlan, summary *models.RolloverSummary) error {
	ending, err := s.stores.LessonAssignments.ListEndingOn(ctx, exec, plan.priorEnd)
	if err != nil {
		return internalError(err, "failed to load ending lesson assignments")
	}
	for i := range ending {
		a := &ending[i]
		if a.RolledForward {
			a.RolledForward = false
			if err := s.stores.LessonAssignments.Update(ctx, exec, a); err != nil {
				return internalError(err, "failed to reset lesson assignment")
			}
			summary.LessonAssignmentsReset++
			continue
		}
		clone := &models.WeeklyLessonAssignment{
			PersonID:  a.PersonID,
			Subject:   a.Subject,
			Weekday:   a.Weekday,
			Timeslot:  a.Timeslot,
			Grade:     fiscal.NextTier(a.Grade),
			StartDate: plan.start,
			EndDate:   plan.end,
		}
		if err := s.stores.LessonAssignments.Create(ctx, exec, clone); err != nil {
			return internalError(err, "failed to clone lesson assignment")
		}
		created, err := s.materializer.MaterializeLessons(ctx, exec, clone, plan.start, plan.end, models.YearCurrent)
		if err != nil {
			return err
		}
		summary.LessonAssignmentsCloned++
		summary.OccurrencesCreated += created
	}
	return nil
}

func (s *RolloverService) rollTeacherAssignments(ctx context.Context, exec sqlx.ExtContext, plan rolloverPlan, summary *models.RolloverSummary) error {
	ending, err := s.stores.TeacherAssignments.ListEndingOn(ctx, exec, plan.priorEnd)
	if err != nil {
		return internalError(err, "failed to load ending teacher assignments")
	}
	for i := range ending {
		a := &ending[i]
		if a.RolledForward {
			a.RolledForward = false
			if err := s.stores.TeacherAssignments.Update(ctx, exec, a); err != nil {
				return internalError(err, "failed to reset teacher assignment")
			}
			summary.TeacherAssignmentsReset++
			continue
		}
		clone := &models.WeeklyTeacherAssignment{
			TeacherID: a.TeacherID,
			Weekday:   a.Weekday,
			Timeslot:  a.Timeslot,
			StartDate: plan.start,
			EndDate:   plan.end,
		}
		if err := s.stores.TeacherAssignments.Create(ctx, exec, clone); err != nil {
			return internalError(err, "failed to clone teacher assignment")
		}
		created, err := s.materializer.MaterializeTeacherShifts(ctx, exec, clone, plan.start, plan.end, models.YearCurrent)
		if err != nil {
			return err
		}
		summary.TeacherAssignmentsCloned++
		summary.OccurrencesCreated += created
	}
	return nil
}

// advancePersons applies planned withdrawals, recomputes grades from birth dates and clears
// the year-end decision flag.
func (s *RolloverService) advancePersons(ctx context.Context, exec sqlx.ExtContext, plan rolloverPlan, summary *models.RolloverSummary) error {
	persons, err := s.stores.Persons.ListEnrolled(ctx, exec)
	if err != nil {
		return internalError(err, "failed to load persons")
	}
	for i := range persons {
		p := &persons[i]
		changed := false
		if p.PlanningToWithdraw {
			p.Withdrawn = true
			p.PlanningToWithdraw = false
			summary.PersonsWithdrawn++
			changed = true
		} else if p.BirthDate != nil {
			if grade, ok := fiscal.GradeFromBirthDate(*p.BirthDate, plan.today); ok && grade != p.Grade {
				p.Grade = grade
				summary.PersonsRegraded++
				changed = true
			}
		}
		if p.RolledForward {
			p.RolledForward = false
			changed = true
		}
		if !changed {
			continue
		}
		if err := s.stores.Persons.Update(ctx, exec, p); err != nil {
			return internalError(err, "failed to update person")
		}
	}
	return nil
}

func (s *RolloverService) resetVocabularyTests(ctx context.Context, exec sqlx.ExtContext, _ rolloverPlan, summary *models.RolloverSummary) error {
	n, err := s.stores.Vocabulary.ResetAll(ctx, exec)
	if err != nil {
		return internalError(err, "failed to reset vocabulary tests")
	}
	summary.VocabularyTestsReset = n
	return nil
}
