package entity

import (
	"fmt"
	"strconv"
	"time"

	"candle_catalog/internal/feature/candles/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// candleNamespace scopes the deterministic candle IDs.
var candleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("candle_catalog/candle"))

// CandleID returns the stable identifier of a (pair, timeframe, openTime) triple.
func CandleID(pair, timeframe string, openTime time.Time) string {
	key := pair + "|" + timeframe + "|" + strconv.FormatInt(openTime.UnixMilli(), 10)
	return uuid.NewSHA1(candleNamespace, []byte(key)).String()
}

// NormalizeKline converts a raw exchange record into the canonical candle shape.
// It is pure: the same input always yields the same candle, ID included.
// Parse failures and OHLC inconsistencies are reported as domain.ErrNormalization.
func NormalizeKline(raw RawKline, pair, timeframe string) (Candle, error) {
	open, err := parseField("open", raw.Open)
	if err != nil {
		return Candle{}, err
	}
	high, err := parseField("high", raw.High)
	if err != nil {
		return Candle{}, err
	}
	low, err := parseField("low", raw.Low)
	if err != nil {
		return Candle{}, err
	}
	cls, err := parseField("close", raw.Close)
	if err != nil {
		return Candle{}, err
	}
	vol, err := parseField("volume", raw.Volume)
	if err != nil {
		return Candle{}, err
	}

	if err := validateOHLCV(open, high, low, cls, vol); err != nil {
		return Candle{}, fmt.Errorf("%w: %s %s at %d: %v", domain.ErrNormalization, pair, timeframe, raw.OpenTime, err)
	}

	ts := time.UnixMilli(raw.OpenTime).UTC()
	date := ts.Format("2006-01-02")

	return Candle{
		ID:        CandleID(pair, timeframe, ts),
		Pair:      pair,
		Timeframe: timeframe,
		Timestamp: ts,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     cls,
		Volume:    vol,
		Color:     ColorOf(open, cls),
		Hour:      ts.Hour(),
		Minute:    ts.Minute(),
		Day:       ts.Day(),
		Month:     int(ts.Month()),
		Year:      ts.Year(),
		FullDate:  date,
		TimeKey:   ts.Format("15:04"),
		DateKey:   date,
	}, nil
}

func parseField(name, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q: %v", domain.ErrNormalization, name, s, err)
	}
	return d, nil
}

func validateOHLCV(open, high, low, cls, vol decimal.Decimal) error {
	for _, p := range []decimal.Decimal{open, high, low, cls} {
		if !p.IsPositive() {
			return fmt.Errorf("non-positive price %s", p)
		}
	}
	if vol.IsNegative() {
		return fmt.Errorf("negative volume %s", vol)
	}
	if high.LessThan(decimal.Max(open, cls)) {
		return fmt.Errorf("high %s below body", high)
	}
	if low.GreaterThan(decimal.Min(open, cls)) {
		return fmt.Errorf("low %s above body", low)
	}
	return nil
}
