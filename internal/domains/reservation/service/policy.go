package service

import (
	"fmt"
	"strings"
	"time"

	"bistro/config"
	"bistro/shared/constant"
	"bistro/shared/failure"
	"bistro/shared/timezone"
)

var weekdays = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

// validateSchedule enforces the booking policy: the requested moment must be
// strictly in the future, on a day the restaurant is open, and inside the
// configured opening window.
func validateSchedule(cfg *config.Config, date time.Time, clock string) error {
	hour, minute := 0, 0
	fmt.Sscanf(clock, "%d:%d", &hour, &minute)

	target := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, timezone.GetLocation())

	if !target.After(timezone.Now()) {
		return failure.BadRequestFromString("reservation must be in the future") //nolint:wrapcheck
	}

	for _, day := range cfg.Restaurant.ClosedDays {
		if weekday, ok := weekdays[day]; ok && target.Weekday() == weekday {
			return failure.BadRequestFromString(fmt.Sprintf("the restaurant is closed on %s.", closedDaysPhrase(cfg.Restaurant.ClosedDays))) //nolint:wrapcheck
		}
	}

	if clock < cfg.Restaurant.OpenTime || clock > cfg.Restaurant.CloseTime {
		return failure.BadRequestFromString(fmt.Sprintf("reservation time must be between %s and %s", cfg.Restaurant.OpenTime, cfg.Restaurant.CloseTime)) //nolint:wrapcheck
	}

	return nil
}

// closedDaysPhrase renders the closed-day set as an English list:
// "Tuesdays", "Tuesdays and Wednesdays", "Tuesdays, Wednesdays and Fridays".
func closedDaysPhrase(days []string) string {
	plural := make([]string, len(days))
	for i, day := range days {
		plural[i] = day + "s"
	}

	switch len(plural) {
	case 0:
		return constant.Empty
	case 1:
		return plural[0]
	case 2:
		return plural[0] + " and " + plural[1]
	default:
		return strings.Join(plural[:len(plural)-1], ", ") + " and " + plural[len(plural)-1]
	}
}
