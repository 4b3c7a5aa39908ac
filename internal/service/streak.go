package service

import (
	"sort"
	"time"

	"oink_ledger/internal/domain"
)

// dayUTC truncates t to the start of its UTC calendar day.
func dayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayKey(t time.Time) string {
	return dayUTC(t).Format(domain.DateLayout)
}

// streakFrom counts consecutive check-in days ending today, or yesterday
// when today has no record yet. chain holds the counted days oldest first.
// dates may be in any order and contain duplicates.
func streakFrom(dates []time.Time, now time.Time) (streak int, chain []time.Time, hasToday bool) {
	if len(dates) == 0 {
		return 0, nil, false
	}

	days := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		days[dayKey(d)] = struct{}{}
	}

	today := dayUTC(now)
	_, hasToday = days[dayKey(today)]

	anchor := today
	if !hasToday {
		anchor = today.AddDate(0, 0, -1)
	}

	for d := anchor; ; d = d.AddDate(0, 0, -1) {
		if _, ok := days[dayKey(d)]; !ok {
			break
		}
		chain = append(chain, d)
	}

	// walked backwards; calendar wants chronological order
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return len(chain), chain, hasToday
}

func hasDay(dates []time.Time, day time.Time) bool {
	key := dayKey(day)
	for _, d := range dates {
		if dayKey(d) == key {
			return true
		}
	}
	return false
}

// statusFrom builds the read model for GET /daily-checkin.
func statusFrom(dates []time.Time, now time.Time) *domain.CheckinStatus {
	streak, chain, hasToday := streakFrom(dates, now)

	status := &domain.CheckinStatus{
		HasCheckedInToday: hasToday,
		CurrentStreak:     streak,
		TotalCheckins:     countDistinctDays(dates),
		StreakDates:       chain,
	}
	if status.StreakDates == nil {
		status.StreakDates = []time.Time{}
	}

	if len(dates) > 0 {
		latest := latestDay(dates)
		status.LastCheckinDate = &latest
	}
	return status
}

func countDistinctDays(dates []time.Time) int {
	seen := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		seen[dayKey(d)] = struct{}{}
	}
	return len(seen)
}

func latestDay(dates []time.Time) time.Time {
	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].After(sorted[j]) })
	return dayUTC(sorted[0])
}

// StreakBonusTier grants Bonus on the day a streak reaches Days.
type StreakBonusTier struct {
	Days  int
	Bonus int64
}

// DefaultStreakBonusTiers are the milestone bonuses shown by the check-in UI.
var DefaultStreakBonusTiers = []StreakBonusTier{
	{Days: 3, Bonus: 25},
	{Days: 7, Bonus: 50},
	{Days: 14, Bonus: 100},
	{Days: 30, Bonus: 200},
	{Days: 100, Bonus: 500},
}

func bonusFor(tiers []StreakBonusTier, streak int) int64 {
	for _, tier := range tiers {
		if tier.Days == streak {
			return tier.Bonus
		}
	}
	return 0
}
