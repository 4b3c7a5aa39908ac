package domain

import "time"

// Account is one fid's OINK balance. Balance is never negative.
type Account struct {
	FID       string    `db:"fid" json:"fid"`
	Username  string    `db:"username" json:"username"`
	Balance   int64     `db:"balance" json:"balance"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// BalanceChange is the authoritative post-operation state of an account.
type BalanceChange struct {
	FID     string `json:"fid"`
	Balance int64  `json:"balance"`
	Change  int64  `json:"change"`
	Reason  string `json:"reason"`
}

// BalanceEvent is published after a balance mutation commits.
type BalanceEvent struct {
	FID     string    `json:"fid"`
	Balance int64     `json:"balance"`
	Change  int64     `json:"change"`
	Reason  string    `json:"reason"`
	At      time.Time `json:"at"`
}
