// Package descriptor parses the text form of stake templates used by
// configuration books and HTTP requests.
//
// Directional stakes are written SIDE@STRIKE, e.g. "LONG@55" or "short@-3".
// Category stakes are the outcome name itself, e.g. "no_default".
package descriptor

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/trustpooler/pool-engine/internal/pool"
)

// Pool kinds.
const (
	KindCategory    = "category"
	KindDirectional = "directional"
)

var validKinds = map[string]bool{
	KindCategory:    true,
	KindDirectional: true,
}

// directionalRegex matches: {LONG|SHORT}@{strike}
var directionalRegex = regexp.MustCompile(`^(?i)(long|short)@(-?[0-9]+)$`)

// outcomeRegex matches category outcome names: letters, digits, '_', '-', '.'.
var outcomeRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.\-]{0,63}$`)

// Strikes and closing prices are limited to integers exactly representable
// as a JSON number.
const (
	MaxPrice = 1<<53 - 1
	MinPrice = -MaxPrice
)

var (
	ErrInvalidDescriptor = errors.New("descriptor: invalid stake descriptor")
	ErrInvalidKind       = errors.New("descriptor: unsupported pool kind")
)

// ValidateKind checks that kind names a supported pool kind.
func ValidateKind(kind string) error {
	if !validKinds[kind] {
		return fmt.Errorf("%w: %q (expected %s or %s)", ErrInvalidKind, kind, KindCategory, KindDirectional)
	}
	return nil
}

// ParseDirectional parses a SIDE@STRIKE descriptor.
func ParseDirectional(s string) (pool.DirectionalEvent, error) {
	matches := directionalRegex.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return pool.DirectionalEvent{}, fmt.Errorf("%w: %q (expected LONG@{strike} or SHORT@{strike})",
			ErrInvalidDescriptor, s)
	}

	side, err := ParseSide(matches[1])
	if err != nil {
		return pool.DirectionalEvent{}, err
	}
	strike, err := parseLevel(matches[2])
	if err != nil {
		return pool.DirectionalEvent{}, fmt.Errorf("%w: strike %q", ErrInvalidDescriptor, matches[2])
	}
	return pool.NewDirectionalEvent(side, strike), nil
}

// ParseSide parses "long" or "short" in any case.
func ParseSide(s string) (pool.Side, error) {
	var side pool.Side
	if err := side.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return side, nil
}

// ParseCategory validates an outcome name.
func ParseCategory(s string) (pool.CategoryEvent, error) {
	s = strings.TrimSpace(s)
	if !outcomeRegex.MatchString(s) {
		return pool.CategoryEvent{}, fmt.Errorf("%w: outcome %q", ErrInvalidDescriptor, s)
	}
	return pool.NewCategoryEvent(s), nil
}

// ParsePrice parses a directional closing level.
func ParsePrice(s string) (int, error) {
	price, err := parseLevel(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: price %q", ErrInvalidDescriptor, s)
	}
	return price, nil
}

func parseLevel(s string) (int, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < MinPrice || n > MaxPrice {
		return 0, strconv.ErrRange
	}
	return int(n), nil
}

// FormatDirectional is the inverse of ParseDirectional.
func FormatDirectional(e pool.DirectionalEvent) string {
	return fmt.Sprintf("%s@%d", strings.ToUpper(e.Side.String()), e.Strike)
}
