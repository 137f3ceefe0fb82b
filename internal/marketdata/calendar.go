package marketdata

import (
	"time"
)

// B3Calendar answers trading-day questions for the São Paulo exchange.
// Weekends plus fixed and movable national holidays close the market.
type B3Calendar struct {
	location *time.Location
}

// NewB3Calendar creates the calendar in the exchange's timezone.
func NewB3Calendar() *B3Calendar {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		loc = time.FixedZone("BRT", -3*60*60)
	}
	return &B3Calendar{location: loc}
}

// Location returns the exchange's timezone.
func (c *B3Calendar) Location() *time.Location {
	return c.location
}

// Today returns the current date at midnight in the exchange's timezone.
func (c *B3Calendar) Today() time.Time {
	now := time.Now().In(c.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// WasMarketOpen reports whether B3 traded on the given date.
func (c *B3Calendar) WasMarketOpen(date time.Time) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !c.isHoliday(date)
}

func (c *B3Calendar) isHoliday(date time.Time) bool {
	day := date.Day()
	month := date.Month()
	year := date.Year()

	// Fixed holidays
	switch {
	case month == time.January && day == 1: // Confraternização Universal
		return true
	case month == time.April && day == 21: // Tiradentes
		return true
	case month == time.May && day == 1: // Dia do Trabalho
		return true
	case month == time.September && day == 7: // Independência
		return true
	case month == time.October && day == 12: // Nossa Senhora Aparecida
		return true
	case month == time.November && day == 2: // Finados
		return true
	case month == time.November && day == 15: // Proclamação da República
		return true
	case month == time.November && day == 20 && year >= 2024: // Consciência Negra
		return true
	case month == time.December && (day == 24 || day == 25 || day == 31): // Christmas eve/day, year end
		return true
	}

	// Movable holidays anchored on Easter
	easter := easterSunday(year)
	movable := []time.Time{
		easter.AddDate(0, 0, -48), // Carnival Monday
		easter.AddDate(0, 0, -47), // Carnival Tuesday
		easter.AddDate(0, 0, -2),  // Good Friday
		easter.AddDate(0, 0, 60),  // Corpus Christi
	}
	for _, h := range movable {
		if h.Month() == month && h.Day() == day {
			return true
		}
	}

	return false
}

// easterSunday computes Easter for a year (Anonymous Gregorian algorithm).
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	g := (8*b + 13) / 25
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 19*l) / 433
	month := (h + l - 7*m + 90) / 25
	day := (h + l - 7*m + 33*month + 19) % 32
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
