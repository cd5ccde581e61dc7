package domain

import "time"

// RoundData 外部價格來源回報的一輪價格
type RoundData struct {
	// Answer 原始價格，精度為 Decimals
	Answer          int64
	Decimals        uint8
	UpdatedAt       time.Time
	RoundID         uint64
	AnsweredInRound uint64
}
