package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/coachpo/coinbase-advanced/errs"
)

func TestParseTimeFractionDigits(t *testing.T) {
	cases := map[string]int{
		"2023-01-01T00:00:00Z":                0,
		"2023-01-01T00:00:00.5Z":              500000000,
		"2023-01-01T00:00:00.123456Z":         123456000,
		"2023-01-01T00:00:00.123456789Z":      123456789,
		"2023-01-01T00:00:00.12345678912345Z": 123456789,
	}
	for in, nanos := range cases {
		got, err := ParseTime(in)
		if err != nil {
			t.Fatalf("ParseTime(%q): %v", in, err)
		}
		if got.Nanosecond() != nanos {
			t.Fatalf("ParseTime(%q) nanos = %d, want %d", in, got.Nanosecond(), nanos)
		}
	}
	if _, err := ParseTime("yesterday"); err == nil {
		t.Fatalf("expected error for malformed time")
	}
}

func TestTimeJSON(t *testing.T) {
	var v struct {
		A Time `json:"a"`
		B Time `json:"b"`
		C Time `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"2023-06-01T12:00:00.000001Z","b":"","c":null}`), &v))
	require.Equal(t, time.Date(2023, 6, 1, 12, 0, 0, 1000, time.UTC), v.A.UTC())
	require.True(t, v.B.IsZero())
	require.True(t, v.C.IsZero())

	out, err := json.Marshal(NewTime(time.Date(2023, 6, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))))
	require.NoError(t, err)
	require.Equal(t, `"2023-06-01T11:00:00Z"`, string(out))
}

func TestTimeRoundTripKeepsFraction(t *testing.T) {
	var v struct {
		Created Time `json:"created_time"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"created_time":"2023-05-01T10:00:00.123456Z"}`), &v))
	out, err := json.Marshal(v)
	require.NoError(t, err)
	require.JSONEq(t, `{"created_time":"2023-05-01T10:00:00.123456Z"}`, string(out))
}

func TestNumberJSON(t *testing.T) {
	var v struct {
		Quoted Number `json:"quoted"`
		Bare   Number `json:"bare"`
		Empty  Number `json:"empty"`
		Null   Number `json:"null"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"quoted":"0.19","bare":42.5,"empty":"","null":null}`), &v))
	require.True(t, v.Quoted.Valid)
	require.Equal(t, "0.19", v.Quoted.String())
	require.Equal(t, "42.5", v.Bare.String())
	require.False(t, v.Empty.Valid)
	require.False(t, v.Null.Valid)

	out, err := json.Marshal(MustNumber("5.000"))
	require.NoError(t, err)
	require.Equal(t, `"5"`, string(out))

	var bad Number
	require.Error(t, json.Unmarshal([]byte(`"abc"`), &bad))
}

func TestSecondsAcceptsQuotedAndBare(t *testing.T) {
	var v struct {
		Quoted Seconds `json:"quoted"`
		Bare   Seconds `json:"bare"`
		Empty  Seconds `json:"empty"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"quoted":"1700000000","bare":1700000000,"empty":""}`), &v))
	require.Equal(t, Seconds(1700000000), v.Quoted)
	require.Equal(t, Seconds(1700000000), v.Bare)
	require.Zero(t, v.Empty)
	require.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), v.Bare.Time())

	var candle Candle
	require.NoError(t, json.Unmarshal([]byte(`{"start":1700000000,"low":"1","high":"2","open":"1","close":"2","volume":"3"}`), &candle))
	require.Equal(t, Seconds(1700000000), candle.Start)

	var bad Seconds
	require.Error(t, json.Unmarshal([]byte(`"soon"`), &bad))
}

func TestEnumsRejectUnknownValues(t *testing.T) {
	var side Side
	require.NoError(t, json.Unmarshal([]byte(`"SELL"`), &side))
	require.Equal(t, SideSell, side)
	require.NoError(t, json.Unmarshal([]byte(`""`), &side))
	require.Equal(t, Side(""), side)

	err := json.Unmarshal([]byte(`"HOLD"`), &side)
	var e *errs.E
	require.ErrorAs(t, err, &e)
	require.Equal(t, errs.CodeDecode, e.Code)
	require.Equal(t, "side", e.Field)

	var pt ProductType
	require.Error(t, json.Unmarshal([]byte(`"OPTION"`), &pt))
	require.True(t, PortfolioTypeINTX.Valid())
	require.False(t, Granularity("TEN_MINUTE").Valid())
}

func TestGranularityMinutes(t *testing.T) {
	cases := map[Granularity]int{
		GranularityOneMinute:     1,
		GranularityFiveMinute:    5,
		GranularityFifteenMinute: 15,
		GranularityThirtyMinute:  30,
		GranularityOneHour:       60,
		GranularityTwoHour:       120,
		GranularitySixHour:       360,
		GranularityOneDay:        1440,
		GranularityUnknown:       0,
	}
	for g, want := range cases {
		if got := g.Minutes(); got != want {
			t.Fatalf("%s minutes = %d, want %d", g, got, want)
		}
	}
	require.Equal(t, 24*time.Hour, GranularityOneDay.Duration())
}

func TestChannelInbound(t *testing.T) {
	require.Equal(t, ChannelL2Data, ChannelLevel2.Inbound())
	require.Equal(t, ChannelTicker, ChannelTicker.Inbound())
	require.True(t, ChannelSubscriptions.Valid())
	require.False(t, Channel("futures_balance_summary").Valid())
}
