package task

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// NextRunCalculator computes when a cron expression fires next.
type NextRunCalculator interface {
	Validate(expr string) error
	// Next returns the first firing time strictly after from.
	Next(expr string, from time.Time) (time.Time, error)
}

// NewCalculator returns the calculator for a dialect name ("reduced" or "standard").
func NewCalculator(dialect string) (NextRunCalculator, error) {
	switch dialect {
	case "", "reduced":
		return ReducedCalculator{}, nil
	case "standard":
		return StandardCalculator{}, nil
	default:
		return nil, fmt.Errorf("unknown cron dialect %q", dialect)
	}
}

// ReducedCalculator honours only the minute and hour fields of a five field
// expression. Day-of-month, month and weekday are parsed for syntax but always
// behave as "*", so "0 2 * * 1" fires every day at 02:00, not only on Mondays.
type ReducedCalculator struct{}

type fieldBounds struct {
	name     string
	min, max int
	names    map[string]int
}

var reducedFields = []fieldBounds{
	{name: "minute", min: 0, max: 59},
	{name: "hour", min: 0, max: 23},
	{name: "day-of-month", min: 1, max: 31},
	{name: "month", min: 1, max: 12, names: map[string]int{
		"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
		"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
	}},
	{name: "day-of-week", min: 0, max: 7, names: map[string]int{
		"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
	}},
}

func (ReducedCalculator) Validate(expr string) error {
	_, _, err := parseReduced(expr)
	return err
}

func (ReducedCalculator) Next(expr string, from time.Time) (time.Time, error) {
	minutes, hours, err := parseReduced(expr)
	if err != nil {
		return time.Time{}, err
	}

	hourList := slices.Sorted(maps.Keys(hours))
	minuteList := slices.Sorted(maps.Keys(minutes))
	y, m, d := from.Date()
	// Candidates are built from the wall clock, so a DST shift moves the
	// firing instant but never drops a day.
	for day := 0; day <= 2; day++ {
		for _, h := range hourList {
			for _, mi := range minuteList {
				candidate := wallClock(y, m, d+day, h, mi, from.Location())
				if candidate.After(from) {
					return candidate, nil
				}
			}
		}
	}
	return time.Time{}, fmt.Errorf("cron expression %q never fires", expr)
}

// wallClock returns h:mi local time on the given date. A wall time that
// falls in a spring-forward gap resolves to the first minute after the gap.
func wallClock(y int, m time.Month, d, h, mi int, loc *time.Location) time.Time {
	candidate := time.Date(y, m, d, h, mi, 0, 0, loc)
	if candidate.Hour() == h && candidate.Minute() == mi {
		return candidate
	}

	noon := time.Date(y, m, d, 12, 0, 0, 0, loc)
	wantY, wantM, wantD := noon.Date()
	target := h*60 + mi
	for i := 0; i < 24*60; i++ {
		cy, cm, cd := candidate.Date()
		sameDay := cy == wantY && cm == wantM && cd == wantD
		if !sameDay && candidate.After(noon) {
			return candidate
		}
		if sameDay && candidate.Hour()*60+candidate.Minute() >= target {
			return candidate
		}
		candidate = candidate.Add(time.Minute)
	}
	return candidate
}

func parseReduced(expr string) (minutes, hours map[int]bool, err error) {
	fields := strings.Fields(expr)
	if len(fields) != len(reducedFields) {
		return nil, nil, fmt.Errorf("cron expression %q: expected %d fields, got %d", expr, len(reducedFields), len(fields))
	}

	sets := make([]map[int]bool, len(fields))
	for i, field := range fields {
		set, err := parseField(field, reducedFields[i])
		if err != nil {
			return nil, nil, fmt.Errorf("cron expression %q: %w", expr, err)
		}
		sets[i] = set
	}
	return sets[0], sets[1], nil
}

// parseField expands a comma separated list of "*", "a", "a-b" with an
// optional "/step" suffix into the set of matching values.
func parseField(field string, bounds fieldBounds) (map[int]bool, error) {
	set := make(map[int]bool)
	for _, part := range strings.Split(field, ",") {
		if part == "" {
			return nil, fmt.Errorf("%s: empty list element", bounds.name)
		}

		rangePart, step := part, 1
		if base, stepRaw, ok := strings.Cut(part, "/"); ok {
			n, err := strconv.Atoi(stepRaw)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("%s: invalid step %q", bounds.name, stepRaw)
			}
			rangePart, step = base, n
		}

		lo, hi := bounds.min, bounds.max
		if rangePart != "*" {
			startRaw, endRaw, isRange := strings.Cut(rangePart, "-")
			start, err := parseValue(startRaw, bounds)
			if err != nil {
				return nil, err
			}
			lo, hi = start, start
			if isRange {
				end, err := parseValue(endRaw, bounds)
				if err != nil {
					return nil, err
				}
				if end < start {
					return nil, fmt.Errorf("%s: range %q is reversed", bounds.name, rangePart)
				}
				hi = end
			} else if step > 1 {
				hi = bounds.max
			}
		}

		for v := lo; v <= hi; v += step {
			set[v] = true
		}
	}
	return set, nil
}

func parseValue(raw string, bounds fieldBounds) (int, error) {
	if v, ok := bounds.names[strings.ToLower(raw)]; ok {
		return v, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid value %q", bounds.name, raw)
	}
	if v < bounds.min || v > bounds.max {
		return 0, fmt.Errorf("%s: value %d out of range %d-%d", bounds.name, v, bounds.min, bounds.max)
	}
	return v, nil
}

// StandardCalculator evaluates every field using robfig/cron's standard parser.
type StandardCalculator struct{}

func (StandardCalculator) Validate(expr string) error {
	_, err := cron.ParseStandard(expr)
	return err
}

func (StandardCalculator) Next(expr string, from time.Time) (time.Time, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("cron expression %q: %w", expr, err)
	}
	next := schedule.Next(from)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("cron expression %q never fires", expr)
	}
	return next, nil
}
