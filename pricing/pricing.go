// Package pricing computes rental quotes for marketplace bookings. A quote
// prices the requested period at the listing's hourly, daily or weekly rate,
// adds weekend and special date surges, applies the best long term discount
// tier and computes the platform fee on the result.
package pricing

import (
	"fmt"
	"math"
	"time"
)

// dateLayout is the wire format for booking dates and surge dates.
const dateLayout = "2006-01-02"

// DefaultFeePercent is the platform cut applied when the configuration does
// not override it.
const DefaultFeePercent = 5.0

// Duration selects how a rental period is priced.
type Duration string

const (
	DurationHourly Duration = "hourly"
	DurationDaily  Duration = "daily"
	DurationWeekly Duration = "weekly"
)

// QuoteError reports a rental request the listing's pricing cannot satisfy.
// Its text is the caller facing explanation.
type QuoteError string

func (e QuoteError) Error() string { return string(e) }

const (
	ErrHourlyUnavailable QuoteError = "Hourly rental not available for this listing"
	ErrDailyUnavailable  QuoteError = "Daily rental not available for this listing"
	ErrWeeklyUnavailable QuoteError = "Weekly rental not available for this listing"
	ErrHoursRequired     QuoteError = "Number of hours required for hourly rental"
	ErrEndBeforeStart    QuoteError = "End date must be after start date"
	ErrWeekTooShort      QuoteError = "Weekly rental requires at least 7 days"
)

// Rates carries the pricing configuration of a single listing. A nil rate
// means the listing cannot be rented for that duration.
type Rates struct {
	HourRate *float64
	DayRate  *float64
	WeekRate *float64

	MinHours int
	MinDays  int

	SurgeEnabled    bool
	SurgePercentage float64
	SurgeWeekends   bool
	SurgeDates      []string

	DiscountWeekly    float64
	DiscountMonthly   float64
	DiscountQuarterly float64
}

// Request describes the rental period to quote. Start and End are calendar
// dates, End exclusive, so a Friday to Monday rental covers three days.
// Hours only matters for hourly requests, where Start may equal End.
type Request struct {
	Start    time.Time
	End      time.Time
	Duration Duration
	Hours    int
}

// Quote is the full price breakdown for a request.
type Quote struct {
	Duration  Duration
	Days      int
	Weeks     int
	ExtraDays int
	Hours     int

	Base        float64
	SurgeDays   int
	SurgeAmount float64
	Subtotal    float64

	DiscountPercent float64
	DiscountLabel   string
	DiscountAmount  float64

	Total       float64
	PlatformFee float64
}

// Calculate prices the requested period against the listing rates. The
// duration kind defaults to daily when unset. feePercent is the platform fee
// in percent of the discounted total.
func Calculate(rates Rates, req Request, feePercent float64) (Quote, error) {
	duration := req.Duration
	if duration == "" {
		duration = DurationDaily
	}

	quote := Quote{Duration: duration}
	var err error
	switch duration {
	case DurationHourly:
		err = priceHourly(rates, req, &quote)
	case DurationDaily:
		err = priceDaily(rates, req, &quote)
	case DurationWeekly:
		err = priceWeekly(rates, req, &quote)
	default:
		err = QuoteError(fmt.Sprintf("Unknown duration type: %s", duration))
	}
	if err != nil {
		return Quote{}, err
	}

	quote.Subtotal = round2(quote.Base + quote.SurgeAmount)

	if quote.DiscountPercent > 0 {
		quote.DiscountAmount = round2(quote.Subtotal * quote.DiscountPercent / 100)
	}
	quote.Total = round2(quote.Subtotal - quote.DiscountAmount)
	quote.PlatformFee = round2(quote.Total * feePercent / 100)

	return quote, nil
}

func priceHourly(rates Rates, req Request, quote *Quote) error {
	if rates.HourRate == nil {
		return ErrHourlyUnavailable
	}
	if midnight(req.End).Before(midnight(req.Start)) {
		return ErrEndBeforeStart
	}
	if req.Hours <= 0 {
		return ErrHoursRequired
	}
	if rates.MinHours > 0 && req.Hours < rates.MinHours {
		return QuoteError(fmt.Sprintf("Minimum rental is %d hours", rates.MinHours))
	}

	quote.Hours = req.Hours
	quote.Base = *rates.HourRate * float64(req.Hours)
	return nil
}

func priceDaily(rates Rates, req Request, quote *Quote) error {
	if rates.DayRate == nil {
		return ErrDailyUnavailable
	}

	days, err := rentalDays(req)
	if err != nil {
		return err
	}
	if rates.MinDays > 0 && days < rates.MinDays {
		return QuoteError(fmt.Sprintf("Minimum rental is %d days", rates.MinDays))
	}

	quote.Days = days
	quote.Base = *rates.DayRate * float64(days)
	quote.SurgeDays, quote.SurgeAmount = surgeFor(rates, midnight(req.Start), days)
	quote.DiscountPercent, quote.DiscountLabel = discountTier(rates, days)
	return nil
}

func priceWeekly(rates Rates, req Request, quote *Quote) error {
	if rates.WeekRate == nil {
		return ErrWeeklyUnavailable
	}

	days, err := rentalDays(req)
	if err != nil {
		return err
	}
	if days < 7 {
		return ErrWeekTooShort
	}

	// Extra days beyond full weeks are charged at the daily rate when the
	// listing has one, otherwise at a seventh of the weekly rate.
	extraRate := *rates.WeekRate / 7
	if rates.DayRate != nil {
		extraRate = *rates.DayRate
	}

	quote.Days = days
	quote.Weeks = days / 7
	quote.ExtraDays = days % 7
	quote.Base = *rates.WeekRate*float64(quote.Weeks) + extraRate*float64(quote.ExtraDays)
	quote.DiscountPercent, quote.DiscountLabel = discountTier(rates, days)
	return nil
}

// rentalDays is the number of calendar days between the request dates, end
// exclusive. The end date must come strictly after the start date.
func rentalDays(req Request) (int, error) {
	start := midnight(req.Start)
	end := midnight(req.End)

	days := int(end.Sub(start) / (24 * time.Hour))
	if days < 1 {
		return 0, ErrEndBeforeStart
	}
	return days, nil
}

// surgeFor counts the booked days that fall on a surge day and prices the
// total surcharge. Each surge day adds SurgePercentage percent of the daily
// rate on top of the base.
func surgeFor(rates Rates, start time.Time, days int) (int, float64) {
	if !rates.SurgeEnabled || rates.SurgePercentage <= 0 || rates.DayRate == nil {
		return 0, 0
	}

	special := make(map[string]struct{}, len(rates.SurgeDates))
	for _, date := range rates.SurgeDates {
		special[date] = struct{}{}
	}

	surgeDays := 0
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)

		weekend := day.Weekday() == time.Saturday || day.Weekday() == time.Sunday
		if rates.SurgeWeekends && weekend {
			surgeDays++
			continue
		}
		if _, ok := special[day.Format(dateLayout)]; ok {
			surgeDays++
		}
	}

	amount := float64(surgeDays) * *rates.DayRate * rates.SurgePercentage / 100
	return surgeDays, amount
}

// discountTier picks the best discount the rental length qualifies for. A
// tier with a zero percentage is skipped so a quarter long rental can still
// use the monthly tier.
func discountTier(rates Rates, days int) (float64, string) {
	switch {
	case days >= 90 && rates.DiscountQuarterly > 0:
		return rates.DiscountQuarterly, "quarterly"
	case days >= 30 && rates.DiscountMonthly > 0:
		return rates.DiscountMonthly, "monthly"
	case days >= 7 && rates.DiscountWeekly > 0:
		return rates.DiscountWeekly, "weekly"
	}
	return 0, ""
}

// midnight normalizes a timestamp to its calendar date in UTC so day math
// is exact regardless of the location the caller parsed dates in.
func midnight(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// round2 rounds to cents, halves away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
