package hoyolab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/flemzord/dailyclaim/internal/checkin"
)

// session is a per-account handle carrying the cookie.
type session struct {
	client *Client
	cookie string
	closed atomic.Bool
}

var _ checkin.Session = (*session)(nil)

func (s *session) rewardQuery() url.Values {
	return url.Values{"act_id": {s.client.cfg.ActID}, "lang": {s.client.cfg.Lang}}
}

func (s *session) info(ctx context.Context) (signInfo, error) {
	return call[signInfo](ctx, s.client, http.MethodGet, s.client.cfg.RewardURL+"/info", s.rewardQuery(), s.cookie, nil, nil)
}

// CheckStatus implements checkin.Session: reading the sign-in state fails
// with an invalid-credential retcode when the cookie is dead.
func (s *session) CheckStatus(ctx context.Context) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	_, err := s.info(ctx)
	return err
}

// ClaimDailyReward implements checkin.Session. The reward is looked up in
// the monthly calendar at the new sign-in count.
func (s *session) ClaimDailyReward(ctx context.Context) (checkin.Reward, error) {
	if s.closed.Load() {
		return checkin.Reward{}, ErrSessionClosed
	}
	c := s.client

	body := map[string]string{"act_id": c.cfg.ActID}
	if _, err := call[json.RawMessage](ctx, c, http.MethodPost, c.cfg.RewardURL+"/sign", url.Values{"lang": {c.cfg.Lang}}, s.cookie, body, nil); err != nil {
		return checkin.Reward{}, err
	}

	info, err := s.info(ctx)
	if err != nil {
		return checkin.Reward{}, err
	}
	list, err := call[awardList](ctx, c, http.MethodGet, c.cfg.RewardURL+"/home", s.rewardQuery(), s.cookie, nil, nil)
	if err != nil {
		return checkin.Reward{}, err
	}

	idx := info.TotalSignDay - 1
	if idx < 0 || idx >= len(list.Awards) {
		return checkin.Reward{}, fmt.Errorf("hoyolab: sign-in day %d outside the %d-day calendar", info.TotalSignDay, len(list.Awards))
	}
	a := list.Awards[idx]
	return checkin.Reward{Amount: a.Count, Name: a.Name, Icon: a.Icon}, nil
}

// GetStatus implements checkin.Session.
func (s *session) GetStatus(ctx context.Context, subProfileID string) (checkin.Notes, error) {
	if s.closed.Load() {
		return checkin.Notes{}, ErrSessionClosed
	}
	c := s.client

	server, err := serverForProfile(subProfileID)
	if err != nil {
		return checkin.Notes{}, err
	}

	header := http.Header{}
	header.Set("DS", c.dynamicSecret())
	header.Set("x-rpc-app_version", appVersion)
	header.Set("x-rpc-client_type", "5")

	q := url.Values{"server": {server}, "role_id": {subProfileID}}
	note, err := call[dailyNote](ctx, c, http.MethodGet, c.cfg.RecordURL+"/dailyNote", q, s.cookie, nil, header)
	if err != nil {
		return checkin.Notes{}, err
	}
	return note.toNotes(c.now()), nil
}

// Close implements checkin.Session. The connection pool is shared, so
// there is nothing to release beyond refusing further calls.
func (s *session) Close() error {
	s.closed.Store(true)
	return nil
}

func (n dailyNote) toNotes(now time.Time) checkin.Notes {
	out := checkin.Notes{
		ResourceCurrent:     n.CurrentResin,
		ResourceMax:         n.MaxResin,
		ResourceRecoveredAt: now.Add(time.Duration(n.ResinRecoveryTime) * time.Second),
		MaxExpeditions:      n.MaxExpeditionNum,
	}
	for _, e := range n.Expeditions {
		out.Expeditions = append(out.Expeditions, checkin.Expedition{
			CompletedAt: now.Add(time.Duration(e.RemainedTime) * time.Second),
		})
	}
	return out
}
