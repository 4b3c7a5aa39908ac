package domain

import "time"

// CheckinRecord is the single check-in of an fid on one UTC calendar day.
type CheckinRecord struct {
	ID        int64     `db:"id" json:"id"`
	FID       string    `db:"fid" json:"fid"`
	Date      time.Time `db:"checkin_date" json:"date"`
	Streak    int       `db:"streak" json:"streak"`
	Reward    int64     `db:"reward" json:"reward"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// CheckinStatus is derived from check-in history on every read.
type CheckinStatus struct {
	HasCheckedInToday bool
	CurrentStreak     int
	TotalCheckins     int
	LastCheckinDate   *time.Time
	StreakDates       []time.Time
}

// CheckinResult describes a successful check-in.
type CheckinResult struct {
	Date        time.Time
	Streak      int
	Reward      int64
	Bonus       int64
	Balance     int64
	StreakDates []time.Time
}

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"
