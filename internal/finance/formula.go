package finance

import (
	"errors"
	"math"
)

// Timing selects when the periodic cash flow occurs within a period.
type Timing int

const (
	// EndOfPeriod means payments fall due at the end of each period.
	EndOfPeriod Timing = iota
	// BeginningOfPeriod means payments fall due at the start of each period.
	BeginningOfPeriod
)

var (
	// ErrInvalidRate is returned when the per-period rate is -100%,
	// which makes the discount factor undefined.
	ErrInvalidRate = errors.New("rate cannot be -100%")
	// ErrInvalidPeriods is returned when the number of periods is not positive.
	ErrInvalidPeriods = errors.New("number of periods must be positive")
)

// PV returns the present value of an annuity.
//
// rate is the per-period interest rate as a fraction (annual/12 for monthly
// payments), periods the number of periods, payment the per-period cash flow
// (outflows negative) and futureValue the residual value at term end.
func PV(rate float64, periods int, payment, futureValue float64, timing Timing) (float64, error) {
	if rate == -1 {
		return 0, ErrInvalidRate
	}
	if periods <= 0 {
		return 0, ErrInvalidPeriods
	}

	if rate == 0 {
		return -payment*float64(periods) - futureValue, nil
	}

	// Discount factor
	pvif := math.Pow(1+rate, -float64(periods))

	if timing == BeginningOfPeriod {
		return -payment*(1+rate)*(1-pvif)/rate - futureValue*pvif, nil
	}
	return -payment*(1-pvif)/rate - futureValue*pvif, nil
}

// PMT returns the periodic payment that amortizes presentValue to
// futureValue over the given number of periods at the given per-period
// rate. The result is a cash flow from the payer's perspective: financing
// a positive present value yields a negative payment.
func PMT(rate float64, periods int, presentValue, futureValue float64, timing Timing) (float64, error) {
	if rate == -1 {
		return 0, ErrInvalidRate
	}
	if periods <= 0 {
		return 0, ErrInvalidPeriods
	}

	if rate == 0 {
		return -(presentValue + futureValue) / float64(periods), nil
	}

	pvif := math.Pow(1+rate, -float64(periods))

	if timing == BeginningOfPeriod {
		return -rate*presentValue/((1+rate)*(1-pvif)) - futureValue*rate/((1+rate)*(pvif-1)), nil
	}
	return -rate*presentValue/(1-pvif) - futureValue*rate/(pvif-1), nil
}
