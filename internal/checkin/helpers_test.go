package checkin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/flemzord/dailyclaim/pkg/message"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memRepo is an in-memory Repository.
type memRepo struct {
	mu       sync.Mutex
	accounts map[string]Account
	order    []string
	markers  map[string]Marker

	listOwnersErr error
	// listOwnersFailures, when positive, limits listOwnersErr to the first
	// that many calls.
	listOwnersFailures int
	listOwnersCalls    int
	upserts            int
}

func newMemRepo(accounts ...Account) *memRepo {
	r := &memRepo{accounts: make(map[string]Account), markers: make(map[string]Marker)}
	for _, a := range accounts {
		r.accounts[a.AccountID] = a
		r.order = append(r.order, a.AccountID)
	}
	return r
}

func markerKey(id string, kind TaskKind) string { return id + "/" + string(kind) }

func (r *memRepo) ListOwners(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listOwnersCalls++
	if r.listOwnersErr != nil && (r.listOwnersFailures == 0 || r.listOwnersCalls <= r.listOwnersFailures) {
		return nil, r.listOwnersErr
	}
	seen := make(map[string]bool)
	var owners []string
	for _, id := range r.order {
		o := r.accounts[id].OwnerID
		if !seen[o] {
			seen[o] = true
			owners = append(owners, o)
		}
	}
	return owners, nil
}

func (r *memRepo) ListAccounts(_ context.Context, owner string) ([]Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Account
	for _, id := range r.order {
		if a := r.accounts[id]; a.OwnerID == owner {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memRepo) GetAccount(_ context.Context, id string) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *memRepo) UpsertAccount(_ context.Context, a Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[a.AccountID]; !ok {
		r.order = append(r.order, a.AccountID)
	}
	r.accounts[a.AccountID] = a
	r.upserts++
	return nil
}

func (r *memRepo) DeleteAccount(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, id)
	return nil
}

func (r *memRepo) GetMarker(_ context.Context, id string, kind TaskKind) (*Marker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.markers[markerKey(id, kind)]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *memRepo) UpsertMarker(_ context.Context, m Marker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers[markerKey(m.AccountID, m.Kind)] = m
	return nil
}

func (r *memRepo) PruneMarkers(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, m := range r.markers {
		if m.ScheduledAt.Before(before) {
			delete(r.markers, k)
			n++
		}
	}
	return n, nil
}

func (r *memRepo) marker(id string) (Marker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.markers[markerKey(id, KindDailyCheckin)]
	return m, ok
}

func (r *memRepo) ownerListings() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listOwnersCalls
}

func (r *memRepo) account(id string) Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[id]
}

// fakeSession scripts the rewards service for one account.
type fakeSession struct {
	checkErr  error
	claims    []error // consumed per ClaimDailyReward call; last one repeats
	reward    Reward
	notes     map[string]Notes
	statusErr error

	claimCalls int
	closed     bool
}

func (s *fakeSession) CheckStatus(context.Context) error { return s.checkErr }

func (s *fakeSession) ClaimDailyReward(context.Context) (Reward, error) {
	s.claimCalls++
	if len(s.claims) == 0 {
		return s.reward, nil
	}
	i := s.claimCalls - 1
	if i >= len(s.claims) {
		i = len(s.claims) - 1
	}
	if err := s.claims[i]; err != nil {
		return Reward{}, err
	}
	return s.reward, nil
}

func (s *fakeSession) GetStatus(_ context.Context, sub string) (Notes, error) {
	if s.statusErr != nil {
		return Notes{}, s.statusErr
	}
	return s.notes[sub], nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

// fakeClient hands out a scripted session per account id.
type fakeClient struct {
	mu       sync.Mutex
	sessions map[string]*fakeSession
	openErr  map[string]error
}

func (c *fakeClient) Open(_ context.Context, a Account) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.openErr[a.AccountID]; err != nil {
		return nil, err
	}
	s, ok := c.sessions[a.AccountID]
	if !ok {
		s = &fakeSession{}
		if c.sessions == nil {
			c.sessions = make(map[string]*fakeSession)
		}
		c.sessions[a.AccountID] = s
	}
	return s, nil
}

// fakeNotifier records delivered messages per owner.
type fakeNotifier struct {
	mu         sync.Mutex
	sent       []message.OutboundMessage
	resolveErr map[string]error
	sendErr    error
}

func (n *fakeNotifier) ResolveDestination(_ context.Context, owner string) (message.Chat, error) {
	if err := n.resolveErr[owner]; err != nil {
		return message.Chat{}, err
	}
	return message.Chat{ID: owner, Type: message.ChatDM}, nil
}

func (n *fakeNotifier) Send(_ context.Context, msg message.OutboundMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return n.sendErr
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *fakeNotifier) chats() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var ids []string
	for _, m := range n.sent {
		ids = append(ids, m.Chat.ID)
	}
	sort.Strings(ids)
	return ids
}

// noSleep records backoff delays without waiting.
type noSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *noSleep) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

var errTransient = errors.New("connection reset by peer")

// fixedNow is 10:00 in UTC+8 on 2026-03-10.
var fixedNow = time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)

func newWorkflow(repo *memRepo, client *fakeClient, sleeper *noSleep) *Workflow {
	policy := DefaultRetryPolicy()
	policy.Sleep = sleeper.sleep
	return &Workflow{
		Repo:   repo,
		Client: client,
		Retry:  policy,
		Region: RegionAsia,
		Kind:   KindDailyCheckin,
		Logger: discardLogger(),
		Now:    func() time.Time { return fixedNow },
	}
}
