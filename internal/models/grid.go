package models

import "time"

// YearTag distinguishes the two parallel template stores.
type YearTag string

const (
	YearCurrent YearTag = "current"
	YearNext    YearTag = "next"
)

// Valid reports whether the tag is known.
func (y YearTag) Valid() bool {
	return y == YearCurrent || y == YearNext
}

// SlotCount is the lesson capacity of a single grid cell.
const SlotCount = 4

// TeacherSlotIndex addresses the teacher slot in cell-id + slot pairs.
const TeacherSlotIndex = SlotCount

// SlotRefs holds the nullable lesson references of a cell.
type SlotRefs [SlotCount]*int64

// FirstFree returns the index of the first empty slot, or -1 when the cell is full.
func (s SlotRefs) FirstFree() int {
	for i, ref := range s {
		if ref == nil {
			return i
		}
	}
	return -1
}

// IndexOf returns the slot holding id, or -1.
func (s SlotRefs) IndexOf(id int64) int {
	for i, ref := range s {
		if ref != nil && *ref == id {
			return i
		}
	}
	return -1
}

// Clear empties every slot holding id and reports whether one was found.
func (s *SlotRefs) Clear(id int64) bool {
	found := false
	for i, ref := range s {
		if ref != nil && *ref == id {
			s[i] = nil
			found = true
		}
	}
	return found
}

// IDs returns the non-nil references in slot order.
func (s SlotRefs) IDs() []int64 {
	ids := make([]int64, 0, SlotCount)
	for _, ref := range s {
		if ref != nil {
			ids = append(ids, *ref)
		}
	}
	return ids
}

// GridTemplateCell is the weekly (weekday, timeslot, room) holder of assignment references.
type GridTemplateCell struct {
	ID          int64     `json:"id"`
	YearTag     YearTag   `json:"year_tag"`
	Weekday     int       `json:"weekday"`
	Timeslot    int       `json:"timeslot"`
	Room        int       `json:"room"`
	LessonSlots SlotRefs  `json:"lesson_slots"`
	TeacherSlot *int64    `json:"teacher_slot"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DailyShiftCell is the per-date realization of a template cell holding occurrence references.
type DailyShiftCell struct {
	ID              int64     `json:"id"`
	Date            time.Time `json:"date"`
	Timeslot        int       `json:"timeslot"`
	Room            int       `json:"room"`
	OccurrenceSlots SlotRefs  `json:"occurrence_slots"`
	TeacherSlot     *int64    `json:"teacher_slot"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SlotPair assigns a reference (or nil to clear) to a cell slot. Slot TeacherSlotIndex
// addresses the teacher slot.
type SlotPair struct {
	CellID int64  `json:"cell_id" validate:"required"`
	Slot   int    `json:"slot" validate:"min=0,max=4"`
	RefID  *int64 `json:"ref_id"`
}
