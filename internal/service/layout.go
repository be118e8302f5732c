package service

import (
	"sort"

	"github.com/noah-isme/tutor-shift-api/internal/models"
	"github.com/noah-isme/tutor-shift-api/pkg/config"
)

// GridLayout is the physical shape of the school week.
type GridLayout struct {
	Weekdays          []int
	Rooms             []int
	RegularTimeslots  []int
	ExtendedTimeslots []int
	MaxConcurrent     int
}

// DefaultGridLayout matches the stock configuration: three rooms, five regular timeslots.
func DefaultGridLayout() GridLayout {
	return GridLayout{
		Weekdays:          []int{1, 2, 3, 4, 5},
		Rooms:             []int{1, 2, 3},
		RegularTimeslots:  []int{1, 2, 3, 4, 5},
		ExtendedTimeslots: []int{101, 102},
		MaxConcurrent:     5,
	}
}

// LayoutFromConfig builds the layout from configuration, keeping defaults for empty lists.
func LayoutFromConfig(cfg config.ScheduleConfig) GridLayout {
	layout := DefaultGridLayout()
	if len(cfg.Rooms) > 0 {
		layout.Rooms = append([]int(nil), cfg.Rooms...)
	}
	if len(cfg.RegularTimeslots) > 0 {
		layout.RegularTimeslots = append([]int(nil), cfg.RegularTimeslots...)
	}
	if cfg.ExtendedTimeslots != nil {
		layout.ExtendedTimeslots = append([]int(nil), cfg.ExtendedTimeslots...)
	}
	if cfg.MaxConcurrentLessons > 0 {
		layout.MaxConcurrent = cfg.MaxConcurrentLessons
	}
	return layout
}

func (l GridLayout) isRegularTimeslot(slot int) bool {
	return containsInt(l.RegularTimeslots, slot)
}

func (l GridLayout) isKnownTimeslot(slot int) bool {
	return containsInt(l.RegularTimeslots, slot) || containsInt(l.ExtendedTimeslots, slot)
}

func (l GridLayout) roomRank(room int) int {
	for i, r := range l.Rooms {
		if r == room {
			return i
		}
	}
	return len(l.Rooms) + room
}

func (l GridLayout) sortTemplateCells(cells []models.GridTemplateCell) {
	sort.SliceStable(cells, func(i, j int) bool {
		return l.roomRank(cells[i].Room) < l.roomRank(cells[j].Room)
	})
}

func (l GridLayout) sortDailyCells(cells []models.DailyShiftCell) {
	sort.SliceStable(cells, func(i, j int) bool {
		if cells[i].Timeslot != cells[j].Timeslot {
			return cells[i].Timeslot < cells[j].Timeslot
		}
		return l.roomRank(cells[i].Room) < l.roomRank(cells[j].Room)
	})
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
