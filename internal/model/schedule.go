package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of appointment dates.
const DateLayout = "2006-01-02"

// Weekday is a day-of-week name such as "Monday".
type Weekday string

// Weekdays in calendar order starting Monday.
var Weekdays = []Weekday{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ParseWeekday accepts full day names in any case.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.TrimSpace(s)
	for _, d := range Weekdays {
		if strings.EqualFold(string(d), s) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown day of week %q", s)
}

// WeekdayOf returns the weekday a calendar date falls on.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(t.Weekday().String())
}

func (d Weekday) index() int {
	for i, w := range Weekdays {
		if w == d {
			return i
		}
	}
	return len(Weekdays)
}

// TimeSlot is one of the clinic's appointment start times, e.g. "09:00 AM".
type TimeSlot string

// ClinicTimeSlots is the canonical, ordered set of bookable start times.
var ClinicTimeSlots = []TimeSlot{
	"08:00 AM", "09:00 AM", "10:00 AM", "11:00 AM",
	"01:00 PM", "02:00 PM", "03:00 PM", "04:00 PM",
}

// ParseTimeSlot normalises labels like "9:00 am" and checks them against
// ClinicTimeSlots.
func ParseTimeSlot(s string) (TimeSlot, error) {
	raw := strings.ToUpper(strings.TrimSpace(s))
	t, err := time.Parse("3:04 PM", raw)
	if err != nil {
		return "", fmt.Errorf("invalid time slot %q", s)
	}
	slot := TimeSlot(t.Format("03:04 PM"))
	if slot.index() == len(ClinicTimeSlots) {
		return "", fmt.Errorf("time slot %q is not a clinic hour", s)
	}
	return slot, nil
}

func (s TimeSlot) index() int {
	for i, c := range ClinicTimeSlots {
		if c == s {
			return i
		}
	}
	return len(ClinicTimeSlots)
}

// Before reports whether s comes earlier in the clinic day than o.
func (s TimeSlot) Before(o TimeSlot) bool {
	return s.index() < o.index()
}

// SortTimeSlots orders slots by clinic hour.
func SortTimeSlots(slots []TimeSlot) {
	sort.Slice(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })
}

// ScheduleEntry is one recurring weekly availability pair.
type ScheduleEntry struct {
	Day  Weekday  `json:"dayOfWeek" db:"day_of_week"`
	Slot TimeSlot `json:"timeSlot" db:"time_slot"`
}

// String renders the legacy "<Day> - <Time>" form.
func (e ScheduleEntry) String() string {
	return fmt.Sprintf("%s - %s", e.Day, e.Slot)
}

// ParseScheduleEntry reads the legacy "<Day> - <Time>" form.
func ParseScheduleEntry(s string) (ScheduleEntry, error) {
	day, slot, ok := strings.Cut(s, " - ")
	if !ok {
		return ScheduleEntry{}, fmt.Errorf("malformed schedule entry %q", s)
	}
	d, err := ParseWeekday(day)
	if err != nil {
		return ScheduleEntry{}, err
	}
	t, err := ParseTimeSlot(slot)
	if err != nil {
		return ScheduleEntry{}, err
	}
	return ScheduleEntry{Day: d, Slot: t}, nil
}

// DaySchedule is the structured form clients send for one weekday.
type DaySchedule struct {
	DayOfWeek string   `json:"dayOfWeek" binding:"required,weekday"`
	TimeSlots []string `json:"timeSlots" binding:"dive,timeslot"`
}

// WeeklySchedule is a doctor's full recurring availability.
type WeeklySchedule []DaySchedule

// Flatten validates every day and slot and returns the entries in calendar
// order with duplicates removed.
func (w WeeklySchedule) Flatten() ([]ScheduleEntry, error) {
	seen := make(map[ScheduleEntry]bool)
	var entries []ScheduleEntry
	for _, ds := range w {
		day, err := ParseWeekday(ds.DayOfWeek)
		if err != nil {
			return nil, err
		}
		for _, raw := range ds.TimeSlots {
			slot, err := ParseTimeSlot(raw)
			if err != nil {
				return nil, err
			}
			e := ScheduleEntry{Day: day, Slot: slot}
			if seen[e] {
				continue
			}
			seen[e] = true
			entries = append(entries, e)
		}
	}
	SortScheduleEntries(entries)
	return entries, nil
}

// SortScheduleEntries orders entries by weekday then slot.
func SortScheduleEntries(entries []ScheduleEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Day != entries[j].Day {
			return entries[i].Day.index() < entries[j].Day.index()
		}
		return entries[i].Slot.index() < entries[j].Slot.index()
	})
}

// GroupSchedule returns the weekly template as day -> ordered slots.
func GroupSchedule(entries []ScheduleEntry) map[Weekday][]TimeSlot {
	sorted := append([]ScheduleEntry(nil), entries...)
	SortScheduleEntries(sorted)

	out := make(map[Weekday][]TimeSlot)
	for _, e := range sorted {
		out[e.Day] = append(out[e.Day], e.Slot)
	}
	return out
}

// SlotsOn returns the template slots for day, in clinic order.
func SlotsOn(entries []ScheduleEntry, day Weekday) []TimeSlot {
	return GroupSchedule(entries)[day]
}

// SetScheduleRequest is the body of a full schedule overwrite.
type SetScheduleRequest struct {
	Schedules WeeklySchedule `json:"schedules" binding:"dive"`
}
