// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 The Gopa Authors

package sched

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Friendly schedule forms. Each normalizes to standard five-field cron
// syntax, so "every day at 9:00" and "0 9 * * *" are the same schedule
// and compute the same trigger times.
var (
	dailyRe  = regexp.MustCompile(`^every day at (\d{1,2}):(\d{2})$`)
	weeklyRe = regexp.MustCompile(`^every (monday|tuesday|wednesday|thursday|friday|saturday|sunday) at (\d{1,2}):(\d{2})$`)
)

// Standard cron weekday numbering, Sunday first.
var weekdays = map[string]int{
	"sunday": 0, "monday": 1, "tuesday": 2, "wednesday": 3,
	"thursday": 4, "friday": 5, "saturday": 6,
}

// NormalizeCron turns a friendly schedule into five-field cron syntax.
// A five-field schedule passes through unchanged; anything else fails.
func NormalizeCron(schedule string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(schedule))

	switch s {
	case "every minute":
		return "* * * * *", nil
	case "every hour":
		return "0 * * * *", nil
	}
	if m := dailyRe.FindStringSubmatch(s); m != nil {
		hh, mm := clockFields(m[1], m[2])
		return fmt.Sprintf("%d %d * * *", mm, hh), nil
	}
	if m := weeklyRe.FindStringSubmatch(s); m != nil {
		hh, mm := clockFields(m[2], m[3])
		return fmt.Sprintf("%d %d * * %d", mm, hh, weekdays[m[1]]), nil
	}

	if len(strings.Fields(s)) == 5 {
		return s, nil
	}
	return "", fmt.Errorf("invalid cron schedule %q", schedule)
}

// clockFields parses the hour and minute captures, dropping any leading
// zero ("09:05" means 9:05, not octal or a "09" cron field).
func clockFields(hour, minute string) (int, int) {
	hh, _ := strconv.Atoi(hour)
	mm, _ := strconv.Atoi(minute)
	return hh, mm
}
