package models

import "time"

// UnixTime is the exchange clock as returned by GetUnixTime.
type UnixTime struct {
	ISO          Time   `json:"iso"`
	EpochSeconds Number `json:"epochSeconds"`
	EpochMillis  Number `json:"epochMillis"`

	Extra Extra `json:"-"`
}

func (u *UnixTime) UnmarshalJSON(data []byte) error {
	type alias UnixTime
	return decodeObject(data, "UnixTime", (*alias)(u), &u.Extra, "iso")
}

// Skew returns how far the local clock at now is behind the exchange clock.
func (u UnixTime) Skew(now time.Time) time.Duration {
	return u.ISO.Sub(now)
}

// EmptyResponse is returned by calls whose 2xx body carries no data. Success
// is always true; any keys the body did carry are kept in Extra.
type EmptyResponse struct {
	Success bool `json:"success"`

	Extra Extra `json:"-"`
}

func (r *EmptyResponse) UnmarshalJSON(data []byte) error {
	type alias EmptyResponse
	if err := decodeObject(data, "EmptyResponse", (*alias)(r), &r.Extra); err != nil {
		return err
	}
	r.Success = true
	return nil
}
