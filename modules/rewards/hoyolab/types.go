package hoyolab

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/flemzord/dailyclaim/internal/checkin"
)

// Retcodes with a meaning for the workflow.
const (
	retcodeNotLoggedIn    = -100
	retcodeInvalidCookie  = 10001
	retcodeAlreadyClaimed = -5003
)

// envelope wraps every API response.
type envelope[T any] struct {
	Retcode int    `json:"retcode"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// APIError is a non-zero retcode.
type APIError struct {
	Retcode int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("hoyolab: retcode %d: %s", e.Retcode, e.Message)
}

// Unwrap maps the retcode onto the check-in sentinels.
func (e *APIError) Unwrap() error {
	switch e.Retcode {
	case retcodeNotLoggedIn, retcodeInvalidCookie:
		return checkin.ErrInvalidCredential
	case retcodeAlreadyClaimed:
		return checkin.ErrAlreadyClaimed
	}
	return nil
}

// signInfo is the monthly sign-in state.
type signInfo struct {
	TotalSignDay int    `json:"total_sign_day"`
	Today        string `json:"today"`
	IsSign       bool   `json:"is_sign"`
}

// award is one entry of the monthly reward calendar.
type award struct {
	Icon  string `json:"icon"`
	Name  string `json:"name"`
	Count int    `json:"cnt"`
}

type awardList struct {
	Month  int     `json:"month"`
	Awards []award `json:"awards"`
}

// seconds decodes the API's durations, sent as decimal strings.
type seconds int64

func (s *seconds) UnmarshalJSON(b []byte) error {
	var raw json.RawMessage = b
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if str == "" {
			*s = 0
			return nil
		}
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return fmt.Errorf("hoyolab: duration %q: %w", str, err)
		}
		*s = seconds(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return fmt.Errorf("hoyolab: duration %s: %w", b, err)
	}
	*s = seconds(n)
	return nil
}

type expedition struct {
	Status       string  `json:"status"`
	RemainedTime seconds `json:"remained_time"`
}

// dailyNote is the real-time notes payload.
type dailyNote struct {
	CurrentResin      int          `json:"current_resin"`
	MaxResin          int          `json:"max_resin"`
	ResinRecoveryTime seconds      `json:"resin_recovery_time"`
	MaxExpeditionNum  int          `json:"max_expedition_num"`
	Expeditions       []expedition `json:"expeditions"`
}
