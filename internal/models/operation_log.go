package models

import "gorm.io/gorm"

// OperationLog is one entry of the capped buy/sell operation log.
type OperationLog struct {
	gorm.Model
	Type             string  `json:"type"` // "buy" or "sell"
	Price            float64 `json:"price"`
	Quantity         float64 `json:"quantity"`
	Timestamp        int64   `json:"timestamp"`
	FromSymbol       string  `json:"fromSymbol"`
	ToSymbol         string  `json:"toSymbol"`
	CumulativeAmount float64 `json:"cumulativeAmount"`
	DryRun           bool    `json:"dryRun"`
}
