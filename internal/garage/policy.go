package garage

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// SetBlacklist replaces the keys removed by Clean. A nil or empty slice
// makes Clean remove everything.
func (g *Garage) SetBlacklist(keys []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.blacklist = append([]string(nil), keys...)
}

// AddToBlacklist appends keys in order. Duplicates are kept.
func (g *Garage) AddToBlacklist(keys ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.blacklist = append(g.blacklist, keys...)
}

func (g *Garage) Blacklist() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.blacklist...)
}

// SetExpirationDays accepts any integer or float type (floats are truncated)
// or a numeric string such as "4".
func (g *Garage) SetExpirationDays(v any) error {
	days, err := coerceDays(v)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.days = days
	g.mu.Unlock()
	return nil
}

func (g *Garage) ExpirationDays() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.days
}

// maxDays keeps days*dayMillis inside int64.
const maxDays = math.MaxInt64 / dayMillis

func coerceDays(v any) (int, error) {
	var (
		days int
		err  error
	)
	switch t := v.(type) {
	case nil, bool:
		return 0, fmt.Errorf("%w: %v", ErrInvalidExpiration, v)
	case string:
		days, err = parseDays(t)
	default:
		days, err = cast.ToIntE(v)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidExpiration, err)
	}
	if int64(days) > maxDays || int64(days) < -maxDays {
		return 0, fmt.Errorf("%w: %d days out of range", ErrInvalidExpiration, days)
	}
	return days, nil
}

// parseDays reads s as a base 10 number, so "010" is ten. Fractions are
// truncated.
func parseDays(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}
	if n, err := strconv.ParseInt(s, 10, 0); err == nil {
		return int(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || strings.ContainsAny(s, "xXpP_") {
		return 0, fmt.Errorf("not a decimal number: %q", s)
	}
	if f > float64(maxDays) || f < -float64(maxDays) {
		return 0, fmt.Errorf("%q out of range", s)
	}
	return int(f), nil
}
