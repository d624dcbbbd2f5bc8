// Package stats aggregates flights into per-route statistics and compares the
// average Hobbs time of each route against the best matching target.
package stats

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// FlightSample is the part of a flight the aggregation needs.
type FlightSample struct {
	Route     string
	HobbsTime float64
}

// Target is a route target time. Nil qualifiers are wildcards.
type Target struct {
	ID         string
	Route      string
	TargetTime float64
	AircraftID *string
	PilotID    *string
	Month      *int
	Year       *int
	UpdatedAt  time.Time
}

// Scope is the context the statistics are computed for. A nil dimension is
// unset, and only wildcard targets match it.
type Scope struct {
	AircraftID *string
	PilotID    *string
	Month      *int
	Year       *int
}

type RouteStat struct {
	Route                      string   `json:"route"`
	FlightCount                int      `json:"flight_count"`
	TotalHobbs                 float64  `json:"total_hobbs"`
	AverageHobbs               float64  `json:"average_hobbs"`
	TargetTime                 *float64 `json:"target_time,omitempty"`
	TargetID                   string   `json:"target_id,omitempty"`
	VarianceFromTarget         float64  `json:"variance_from_target"`
	FormattedPercentFromTarget string   `json:"formatted_percent_from_target"`
}

// ComputeRouteStats groups flights by route and compares each route's average
// Hobbs time with its target. Output is sorted by route.
func ComputeRouteStats(flights []FlightSample, targets []Target, scope Scope) []RouteStat {
	type acc struct {
		count int
		total float64
	}

	byRoute := make(map[string]*acc)
	for _, f := range flights {
		a, ok := byRoute[f.Route]
		if !ok {
			a = &acc{}
			byRoute[f.Route] = a
		}
		a.count++
		a.total += f.HobbsTime
	}

	out := make([]RouteStat, 0, len(byRoute))
	for route, a := range byRoute {
		avg := a.total / float64(a.count)
		rs := RouteStat{
			Route:                      route,
			FlightCount:                a.count,
			TotalHobbs:                 a.total,
			AverageHobbs:               avg,
			FormattedPercentFromTarget: FormatPercent(0, false),
		}

		if t := SelectTarget(route, targets, scope); t != nil {
			target := t.TargetTime
			rs.TargetTime = &target
			rs.TargetID = t.ID
			if target != 0 {
				rs.VarianceFromTarget = avg - target
				rs.FormattedPercentFromTarget = FormatPercent(PercentFromTarget(avg, target), target > avg)
			}
		}
		out = append(out, rs)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Route < out[j].Route })
	return out
}

// SelectTarget picks the most specific target for route that matches scope.
// Ties go to the most recently updated target, then the lowest ID.
func SelectTarget(route string, targets []Target, scope Scope) *Target {
	var (
		best      *Target
		bestScore = -1
	)

	for i := range targets {
		t := &targets[i]
		if t.Route != route || !matches(t, scope) {
			continue
		}

		score := specificity(t)
		switch {
		case score > bestScore:
		case score < bestScore:
			continue
		case t.UpdatedAt.After(best.UpdatedAt):
		case t.UpdatedAt.Before(best.UpdatedAt):
			continue
		case t.ID < best.ID:
		default:
			continue
		}
		best, bestScore = t, score
	}
	return best
}

// PercentFromTarget is abs(round(avg/target*100 - 100)), rounding half up.
func PercentFromTarget(avg, target float64) int {
	return int(math.Abs(math.Floor(avg/target*100 - 100 + 0.5)))
}

// FormatPercent renders "<n>% under" or "<n>% over".
func FormatPercent(percent int, under bool) string {
	if under {
		return fmt.Sprintf("%d%% under", percent)
	}
	return fmt.Sprintf("%d%% over", percent)
}

func matches(t *Target, s Scope) bool {
	return qualifierMatches(t.AircraftID, s.AircraftID) &&
		qualifierMatches(t.PilotID, s.PilotID) &&
		qualifierMatches(t.Month, s.Month) &&
		qualifierMatches(t.Year, s.Year)
}

func qualifierMatches[T comparable](target, scope *T) bool {
	if target == nil {
		return true
	}
	return scope != nil && *target == *scope
}

func specificity(t *Target) int {
	n := 0
	if t.AircraftID != nil {
		n++
	}
	if t.PilotID != nil {
		n++
	}
	if t.Month != nil {
		n++
	}
	if t.Year != nil {
		n++
	}
	return n
}
