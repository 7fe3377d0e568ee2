package model

import (
	"errors"
	"math"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// ErrAmountOutOfRange 金额换算成分后超出 int64
var ErrAmountOutOfRange = errors.New("amount out of range")

// AmountToCents 将货币金额换算为整数分，四舍五入（half-up）。
// 调用方需保证 amount 非负；decimal.Round 对非负数即为 half-up。
func AmountToCents(amount decimal.Decimal) (int64, error) {
	cents := amount.Mul(hundred).Round(0)
	if cents.GreaterThan(maxCents) {
		return 0, ErrAmountOutOfRange
	}
	return cents.IntPart(), nil
}

// CentsToAmount 将整数分精确还原为两位小数的货币金额
func CentsToAmount(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// addCents 非负累加，溢出时停在 math.MaxInt64，保证总额只增不减
func addCents(total *atomic.Int64, cents int64) {
	for {
		old := total.Load()
		next := old + cents
		if next < old {
			next = math.MaxInt64
		}
		if total.CompareAndSwap(old, next) {
			return
		}
	}
}
