package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vnykmshr/stealpool/pkg/common/validation"
)

// Cron expressions take a leading seconds field:
//
//	"0 */5 * * * *"    - every 5 minutes
//	"30 0 14 * * 1-5"  - 2:00:30 PM on weekdays
//	"@hourly"          - every hour
//	"@every 90s"       - every 90 seconds
func newCronParser() cron.Parser {
	return cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// CronDescription provides human-readable information about a cron expression.
type CronDescription struct {
	Expression  string
	Description string
	NextRuns    []time.Time
	TimeZone    string
}

// ValidateCronExpression reports whether cronExpr can be scheduled.
func ValidateCronExpression(cronExpr string) error {
	if _, err := newCronParser().Parse(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}

// DescribeCron parses cronExpr and lists its next n run times after from,
// evaluated in loc. A nil loc means time.Local.
func DescribeCron(cronExpr string, from time.Time, loc *time.Location, n int) (CronDescription, error) {
	if err := validation.ValidatePositive(moduleName, "n", n); err != nil {
		return CronDescription{}, err
	}
	schedule, err := newCronParser().Parse(cronExpr)
	if err != nil {
		return CronDescription{}, fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	if loc == nil {
		loc = time.Local
	}

	nextRuns := make([]time.Time, 0, n)
	current := from.In(loc)
	for i := 0; i < n; i++ {
		current = schedule.Next(current)
		if current.IsZero() {
			break
		}
		nextRuns = append(nextRuns, current)
	}

	return CronDescription{
		Expression:  cronExpr,
		Description: describeCron(cronExpr),
		NextRuns:    nextRuns,
		TimeZone:    loc.String(),
	}, nil
}

func describeCron(cronExpr string) string {
	switch cronExpr {
	case "@yearly", "@annually":
		return "Once a year (January 1st at midnight)"
	case "@monthly":
		return "Once a month (1st day at midnight)"
	case "@weekly":
		return "Once a week (Sunday at midnight)"
	case "@daily", "@midnight":
		return "Once a day (at midnight)"
	case "@hourly":
		return "Once an hour (at minute 0)"
	}
	return fmt.Sprintf("Custom schedule: %s", cronExpr)
}
