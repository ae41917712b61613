// burndown.go
//
// A scalable, high performance drop-in replacement for the scrumflow nodejs data layer
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of scrumdb.
// scrumdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// scrumdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with scrumdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package scrum

import (
	"context"
	"math"
	"time"

	"github.com/localnerve/scrumdb/internal/models"
	"github.com/localnerve/scrumdb/internal/services"
	"github.com/localnerve/scrumdb/internal/types"
	"gorm.io/gorm"
)

const (
	// defaultWindowDays is the series length when a project has no sprints.
	defaultWindowDays = 21
	// minTimeframeDays is the floor on a computed sprint-range timeframe.
	minTimeframeDays = 7
	// placeholderPoints seeds the flat default series when the project has
	// sprints but no estimated work.
	placeholderPoints = 100
)

// GenerateSeries derives the daily ideal/actual remaining story-point series
// for one project from its sprints and tasks. It is a pure function of its
// inputs: calling it twice without intervening mutations yields identical
// output.
//
// The timeframe spans min(sprint start) through max(sprint end), at least
// minTimeframeDays; with no sprints a defaultWindowDays window starts today.
// The ideal line decays linearly from the total estimated points to zero.
// The actual line subtracts the points of tasks marked done, day by day up to
// today, then holds flat; completions dated outside the timeframe are ignored.
func GenerateSeries(sprints []models.Sprint, tasks []models.Task, today time.Time) []models.BurndownPoint {
	today = types.DateOnly(today)

	var start time.Time
	var length int

	if len(sprints) == 0 {
		start = today
		length = defaultWindowDays
	} else {
		earliest := types.DateOnly(sprints[0].StartDate)
		latest := types.DateOnly(sprints[0].EndDate)
		for _, s := range sprints[1:] {
			if d := types.DateOnly(s.StartDate); d.Before(earliest) {
				earliest = d
			}
			if d := types.DateOnly(s.EndDate); d.After(latest) {
				latest = d
			}
		}
		start = earliest
		length = daysBetween(earliest, latest) + 1
		if length < minTimeframeDays {
			length = minTimeframeDays
		}
	}

	inSprint := make(map[string]bool, len(sprints))
	for _, s := range sprints {
		inSprint[s.ID] = true
	}

	total := 0
	for _, t := range tasks {
		if inSprint[t.SprintID] {
			total += t.StoryPoints
		}
	}

	points := make([]models.BurndownPoint, length)

	if total == 0 {
		// Nothing estimated yet: emit a decaying placeholder so the chart is
		// never empty or all-zero, with ideal and actual overlapping.
		for i := 0; i < length; i++ {
			v := linearDecay(placeholderPoints, i, length)
			points[i] = models.BurndownPoint{
				Date:         start.AddDate(0, 0, i),
				IdealPoints:  v,
				ActualPoints: v,
			}
		}
		return points
	}

	// Story points completed per calendar day, keyed by the task's last
	// update date.
	completed := make(map[time.Time]int)
	for _, t := range tasks {
		if inSprint[t.SprintID] && t.Status == models.TaskStatusDone {
			completed[types.DateOnly(t.UpdatedAt)] += t.StoryPoints
		}
	}

	remaining := total
	for i := 0; i < length; i++ {
		date := start.AddDate(0, 0, i)

		if !date.After(today) {
			remaining -= completed[date]
			if remaining < 0 {
				remaining = 0
			}
		}

		points[i] = models.BurndownPoint{
			Date:         date,
			IdealPoints:  linearDecay(total, i, length),
			ActualPoints: remaining,
		}
	}

	return points
}

// RecomputeBurndown regenerates the full series for one project from current
// sprint/task state and persists it wholesale for the viewing user. Not
// incremental: correctness by reconstruction.
func RecomputeBurndown(ctx context.Context, db *gorm.DB, projectID, viewerID string, sprints []models.Sprint, tasks []models.Task) ([]models.BurndownPoint, error) {
	points := GenerateSeries(sprints, tasks, time.Now())

	if err := services.UpsertBurndown(ctx, db, projectID, viewerID, points); err != nil {
		return nil, err
	}

	return points, nil
}

// linearDecay is the straight-line decay from total to zero across length
// days, clamped at zero and rounded to nearest.
func linearDecay(total, i, length int) int {
	v := math.Round(float64(total) - float64(i)*float64(total)/float64(length))
	if v < 0 {
		return 0
	}
	return int(v)
}

// daysBetween counts whole days from a to b, both taken as calendar dates.
func daysBetween(a, b time.Time) int {
	return int(types.DateOnly(b).Sub(types.DateOnly(a)).Hours() / 24)
}
