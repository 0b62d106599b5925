package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDayBoundariesFollowLocation(t *testing.T) {
	karachi := time.FixedZone("PKT", 5*60*60)
	// 20:30 UTC on the 1st is already the 2nd in Karachi.
	ts := time.Date(2025, 3, 1, 20, 30, 0, 0, time.UTC)

	require.Equal(t, "2025-03-02", DayKey(ts, karachi))
	require.Equal(t, "2025-03-01", DayKey(ts, time.UTC))

	start := StartOfDay(ts, karachi)
	end := EndOfDay(ts, karachi)
	require.Equal(t, "2025-03-01T19:00:00.000Z", FormatTimestamp(start))
	require.Equal(t, "2025-03-02T18:59:59.999Z", FormatTimestamp(end))
}

func TestParseTimestampAcceptsStoredForms(t *testing.T) {
	for _, value := range []string{"2025-03-01T10:00:00.000Z", "2025-03-01T10:00:00Z", "2025-03-01 10:00:00"} {
		ts, err := ParseTimestamp(value)
		require.NoError(t, err, value)
		require.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), ts)
	}
	_, err := ParseTimestamp("yesterday")
	require.Error(t, err)
}

func TestEnumerateDaysInclusive(t *testing.T) {
	start := time.Date(2025, 2, 27, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 2, 23, 0, 0, 0, time.UTC)
	require.Equal(t, []string{"2025-02-27", "2025-02-28", "2025-03-01", "2025-03-02"}, EnumerateDays(start, end, time.UTC))
}

func TestMoneyFormat(t *testing.T) {
	m := NewMoney("pkr")
	require.Equal(t, "PKR", m.Code())
	require.Equal(t, "PKR 1,250", m.Format(1250))
	require.Equal(t, "PKR 0", m.Format(0))
}

func TestParseBound(t *testing.T) {
	loc := time.FixedZone("PKT", 5*60*60)

	start, err := ParseBound("2025-03-02", loc, false)
	require.NoError(t, err)
	require.Equal(t, "2025-03-01T19:00:00.000Z", FormatTimestamp(start))

	end, err := ParseBound("2025-03-02", loc, true)
	require.NoError(t, err)
	require.Equal(t, "2025-03-02T18:59:59.999Z", FormatTimestamp(end))

	exact, err := ParseBound("2025-03-02T08:00:00Z", loc, true)
	require.NoError(t, err)
	require.Equal(t, "2025-03-02T08:00:00.000Z", FormatTimestamp(exact))

	_, err = ParseBound("03/02/2025", loc, false)
	require.Error(t, err)
}
func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Zinger Burger":          "zinger-burger",
		"  Pizza   Deals ":       "pizza-deals",
		"1/2 Family Pack":        "12-family-pack",
		"Chicken Biryani (Full)": "chicken-biryani-full",
		"آئسکریم":                "",
	}
	for in, want := range cases {
		require.Equal(t, want, Slug(in), in)
	}
}
