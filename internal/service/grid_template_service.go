package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-shift-api/internal/dto"
	"github.com/noah-isme/tutor-shift-api/internal/models"
	appErrors "github.com/noah-isme/tutor-shift-api/pkg/errors"
)

// GridTemplateService manages the two weekly templates (current and next year).
type GridTemplateService struct {
	stores    Stores
	tx        transactor
	layout    GridLayout
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGridTemplateService constructs the service.
func NewGridTemplateService(stores Stores, tx transactor, layout GridLayout, validate *validator.Validate, logger *zap.Logger) *GridTemplateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GridTemplateService{stores: stores, tx: tx, layout: layout, validator: validate, logger: logger}
}

// Initialize creates every (weekday, timeslot, room) cell of tag that does not exist yet.
func (s *GridTemplateService) Initialize(ctx context.Context, tag models.YearTag) (int, error) {
	if !tag.Valid() {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown year tag %q", tag))
	}
	var created int
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		n, err := s.stores.Templates.CreateEmpty(ctx, exec, tag, s.layout.Weekdays, s.layout.RegularTimeslots, s.layout.Rooms)
		if err != nil {
			return internalError(err, "failed to initialize grid template")
		}
		created = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("grid template initialized", zap.String("year_tag", string(tag)), zap.Int("created", created))
	return created, nil
}

// List returns the template cells of tag, optionally for one weekday.
func (s *GridTemplateService) List(ctx context.Context, tag models.YearTag, weekday *int) ([]models.GridTemplateCell, error) {
	if !tag.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown year tag %q", tag))
	}
	cells, err := s.stores.Templates.List(ctx, nil, tag, weekday)
	if err != nil {
		return nil, internalError(err, "failed to list grid template")
	}
	return cells, nil
}

// Save applies cell-id + slot pairs to the template of req.YearTag. Slot 4 addresses the
// teacher slot. Every referenced assignment must match the cell's weekday and timeslot and
// appear at most once in the template.
func (s *GridTemplateService) Save(ctx context.Context, req dto.SaveTemplateRequest) ([]models.GridTemplateCell, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid template payload")
	}

	var result []models.GridTemplateCell
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		cells, err := s.stores.Templates.List(ctx, exec, req.YearTag, nil)
		if err != nil {
			return internalError(err, "failed to load grid template")
		}
		index := make(map[int64]int, len(cells))
		for i := range cells {
			index[cells[i].ID] = i
		}

		dirty := make(map[int]bool)
		for _, pair := range req.Pairs {
			idx, ok := index[pair.CellID]
			if !ok {
				return appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("cell %d is not part of the %s template", pair.CellID, req.YearTag))
			}
			var ref *int64
			if pair.RefID != nil {
				v := *pair.RefID
				ref = &v
				if err := s.checkAssignment(ctx, exec, &cells[idx], pair.Slot, v); err != nil {
					return err
				}
			}
			if pair.Slot == models.TeacherSlotIndex {
				cells[idx].TeacherSlot = ref
			} else {
				cells[idx].LessonSlots[pair.Slot] = ref
			}
			dirty[idx] = true
		}

		if err := checkTemplateUnique(cells); err != nil {
			return err
		}
		for idx := range dirty {
			if err := s.stores.Templates.SaveSlots(ctx, exec, &cells[idx]); err != nil {
				return internalError(err, "failed to save template cell")
			}
			result = append(result, cells[idx])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("grid template saved", zap.String("year_tag", string(req.YearTag)), zap.Int("cells", len(result)))
	return result, nil
}

// checkAssignment verifies the assignment runs in the cell's weekday and timeslot and is not
// already placed in the other year's template. An assignment never spans a fiscal year end,
// so it belongs to exactly one template.
func (s *GridTemplateService) checkAssignment(ctx context.Context, exec sqlx.ExtContext, cell *models.GridTemplateCell, slot int, id int64) error {
	var weekday, timeslot int
	var placed *models.GridTemplateCell
	var findErr error
	if slot == models.TeacherSlotIndex {
		a, err := s.stores.TeacherAssignments.Get(ctx, exec, id)
		if err != nil {
			return lookupError(err, "teacher assignment")
		}
		weekday, timeslot = a.Weekday, a.Timeslot
		placed, findErr = s.stores.Templates.FindByTeacherAssignment(ctx, exec, id)
	} else {
		a, err := s.stores.LessonAssignments.Get(ctx, exec, id)
		if err != nil {
			return lookupError(err, "lesson assignment")
		}
		weekday, timeslot = a.Weekday, a.Timeslot
		placed, findErr = s.stores.Templates.FindByLessonAssignment(ctx, exec, id)
	}
	if weekday != cell.Weekday || timeslot != cell.Timeslot {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("assignment %d runs on weekday %d timeslot %d, not in cell %d", id, weekday, timeslot, cell.ID))
	}
	if findErr != nil && !isNoRows(findErr) {
		return internalError(findErr, "failed to look up template placement")
	}
	if placed != nil && placed.YearTag != cell.YearTag {
		return appErrors.Clone(appErrors.ErrDuplicateSlot,
			fmt.Sprintf("assignment %d is already placed in the %s template on weekday %d timeslot %d",
				id, placed.YearTag, placed.Weekday, placed.Timeslot))
	}
	return nil
}

func checkTemplateUnique(cells []models.GridTemplateCell) error {
	lessons := make(map[int64]bool)
	teachers := make(map[int64]bool)
	for _, cell := range cells {
		for _, id := range cell.LessonSlots.IDs() {
			if lessons[id] {
				return appErrors.Clone(appErrors.ErrDuplicateSlot,
					fmt.Sprintf("lesson assignment %d is placed twice on weekday %d timeslot %d", id, cell.Weekday, cell.Timeslot))
			}
			lessons[id] = true
		}
		if cell.TeacherSlot != nil {
			if teachers[*cell.TeacherSlot] {
				return appErrors.Clone(appErrors.ErrDuplicateSlot,
					fmt.Sprintf("teacher assignment %d is placed twice on weekday %d timeslot %d", *cell.TeacherSlot, cell.Weekday, cell.Timeslot))
			}
			teachers[*cell.TeacherSlot] = true
		}
	}
	return nil
}
