package query

import (
	"testing"
	"time"
)

func TestBuilderEmitsOnlyPresentParameters(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	got := New().
		String("product_id", "").
		Joined("order_status", []string{"OPEN", "FILLED"}).
		Int("limit", 0).
		Date("start_date", start).
		Date("end_date", time.Time{}).
		String("cursor", "abc").
		Encode()
	want := "?order_status=OPEN,FILLED&start_date=2023-01-01T00:00:00Z&cursor=abc"
	if got != want {
		t.Fatalf("Encode() = %q, want %q", got, want)
	}
}

func TestBuilderEscapesSeparators(t *testing.T) {
	got := New().String("cursor", "a&b=c d").Encode()
	if got != "?cursor=a%26b%3Dc+d" {
		t.Fatalf("unexpected escaping %q", got)
	}
}

func TestBuilderEmptyIsBlank(t *testing.T) {
	if got := New().String("cursor", "").Repeated("product_ids", nil).Encode(); got != "" {
		t.Fatalf("expected empty query, got %q", got)
	}
}

func TestBuilderRepeatedValues(t *testing.T) {
	got := New().Repeated("product_ids", []string{"BTC-USD", "ETH-USD"}).Int("limit", 5).Encode()
	want := "?product_ids=BTC-USD&product_ids=ETH-USD&limit=5"
	if got != want {
		t.Fatalf("Encode() = %q, want %q", got, want)
	}
}

func TestBuilderUnixSeconds(t *testing.T) {
	ts := time.Unix(1672531200, 0)
	got := New().Unix("start", ts).Unix("end", ts.Add(time.Hour)).String("granularity", "ONE_HOUR").Encode()
	want := "?start=1672531200&end=1672534800&granularity=ONE_HOUR"
	if got != want {
		t.Fatalf("Encode() = %q, want %q", got, want)
	}
}
