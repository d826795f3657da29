// Package repotest provides an in-memory repository.Tx for tests. Transactions
// are serialized and roll back on error, mirroring the row locks the
// postgres store takes.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Injamhossan/contest-arena/internal/domain"
	"github.com/Injamhossan/contest-arena/internal/repository"
)

var _ repository.Tx = (*Store)(nil)

type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	lastID         uint
	users          map[uint]domain.User
	contests       map[uint]domain.Contest
	participations map[uint]domain.Participation
	payments       map[uint]domain.Payment
	deleted        map[string]bool
}

func NewStore() *Store {
	return &Store{
		users:          map[uint]domain.User{},
		contests:       map[uint]domain.Contest{},
		participations: map[uint]domain.Participation{},
		payments:       map[uint]domain.Payment{},
		deleted:        map[string]bool{},
	}
}

type snapshot struct {
	lastID         uint
	users          map[uint]domain.User
	contests       map[uint]domain.Contest
	participations map[uint]domain.Participation
	payments       map[uint]domain.Payment
	deleted        map[string]bool
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return snapshot{
		lastID:         s.lastID,
		users:          cloneMap(s.users),
		contests:       cloneMap(s.contests),
		participations: cloneMap(s.participations),
		payments:       cloneMap(s.payments),
		deleted:        cloneMap(s.deleted),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID = snap.lastID
	s.users = snap.users
	s.contests = snap.contests
	s.participations = snap.participations
	s.payments = snap.payments
	s.deleted = snap.deleted
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}

	return nil
}

func (s *Store) nextID() uint {
	s.lastID++
	return s.lastID
}

func key(kind string, id uint) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

func notFound(kind string, id any) error {
	return fmt.Errorf("%w: %s %v", domain.ErrNotFound, kind, id)
}

// Users

func (s *Store) CreateUser(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.User{}, domain.ErrEmailExists
		}
	}

	now := time.Now()
	user.ID = s.nextID()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	s.users[user.ID] = user

	return user, nil
}

func (s *Store) FindUser(_ context.Context, id uint) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || s.deleted[key("user", id)] {
		return domain.User{}, notFound("user", id)
	}

	return u, nil
}

func (s *Store) FindUsers(_ context.Context, ids []uint) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := []domain.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok && !s.deleted[key("user", id)] {
			users = append(users, u)
		}
	}

	return users, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) && !s.deleted[key("user", u.ID)] {
			return u, nil
		}
	}

	return domain.User{}, notFound("user", email)
}

func (s *Store) UpdateUser(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return domain.User{}, notFound("user", user.ID)
	}
	user.UpdatedAt = time.Now()
	s.users[user.ID] = user

	return user, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := []domain.User{}
	for _, u := range s.users {
		if !s.deleted[key("user", u.ID)] {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })

	return users, nil
}

func (s *Store) DeleteUser(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok || s.deleted[key("user", id)] {
		return notFound("user", id)
	}
	s.deleted[key("user", id)] = true

	return nil
}

// Contests

func (s *Store) CreateContest(_ context.Context, c domain.Contest) (domain.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	c.ID = s.nextID()
	c.CreatedAt, c.UpdatedAt = now, now
	s.contests[c.ID] = c

	return c, nil
}

func (s *Store) FindContest(_ context.Context, id uint) (domain.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.contest(id)
}

func (s *Store) contest(id uint) (domain.Contest, error) {
	c, ok := s.contests[id]
	if !ok || s.deleted[key("contest", id)] {
		return domain.Contest{}, notFound("contest", id)
	}

	return c, nil
}

func (s *Store) LockContest(ctx context.Context, id uint) (domain.Contest, error) {
	return s.FindContest(ctx, id)
}

func (s *Store) UpdateContest(_ context.Context, c domain.Contest) (domain.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.contest(c.ID); err != nil {
		return domain.Contest{}, err
	}
	c.UpdatedAt = time.Now()
	s.contests[c.ID] = c

	return c, nil
}

func (s *Store) DeleteContest(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.contest(id); err != nil {
		return err
	}
	s.deleted[key("contest", id)] = true

	return nil
}

func (s *Store) ListContests(_ context.Context, f domain.ContestFilter) ([]domain.Contest, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contests := []domain.Contest{}
	for id, c := range s.contests {
		if s.deleted[key("contest", id)] || !matchContest(c, f) {
			continue
		}
		contests = append(contests, c)
	}

	sort.Slice(contests, func(i, j int) bool {
		a, b := contests[i], contests[j]
		switch f.Sort {
		case domain.SortByPopular:
			if a.ParticipantsCount != b.ParticipantsCount {
				return a.ParticipantsCount > b.ParticipantsCount
			}
		case domain.SortByNewest:
			return a.ID > b.ID
		}
		if !a.Deadline.Equal(b.Deadline) {
			return a.Deadline.Before(b.Deadline)
		}
		return a.ID < b.ID
	})

	total := int64(len(contests))
	if f.Offset > 0 {
		if f.Offset >= len(contests) {
			contests = contests[:0]
		} else {
			contests = contests[f.Offset:]
		}
	}
	if f.Limit > 0 && len(contests) > f.Limit {
		contests = contests[:f.Limit]
	}

	return contests, total, nil
}

func matchContest(c domain.Contest, f domain.ContestFilter) bool {
	if f.CreatorID != 0 && c.CreatorID != f.CreatorID {
		return false
	}
	if f.ContestType != "" && c.ContestType != f.ContestType {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Search)) {
		return false
	}
	if len(f.Statuses) > 0 {
		for _, st := range f.Statuses {
			if c.Status == st {
				return true
			}
		}
		return false
	}

	return true
}

func (s *Store) CountWins(_ context.Context, userID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var wins int64
	for id, c := range s.contests {
		if !s.deleted[key("contest", id)] && c.WinnerUserID != nil && *c.WinnerUserID == userID {
			wins++
		}
	}

	return wins, nil
}

func (s *Store) TopWinners(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wins := map[uint]int64{}
	for id, c := range s.contests {
		if !s.deleted[key("contest", id)] && c.WinnerUserID != nil {
			wins[*c.WinnerUserID]++
		}
	}

	entries := []domain.LeaderboardEntry{}
	for userID, n := range wins {
		u := s.users[userID]
		entries = append(entries, domain.LeaderboardEntry{UserID: userID, Name: u.Name, PhotoURL: u.PhotoURL, Wins: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		return entries[i].UserID < entries[j].UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}

// Participations

func (s *Store) CreateParticipation(_ context.Context, p domain.Participation) (domain.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.participations {
		if existing.ContestID == p.ContestID && existing.UserID == p.UserID {
			return domain.Participation{}, domain.ErrAlreadyRegistered
		}
	}

	p.ID = s.nextID()
	p.CreatedAt = time.Now()
	p.Contest, p.User = nil, nil
	s.participations[p.ID] = p

	return p, nil
}

func (s *Store) FindParticipation(_ context.Context, id uint) (domain.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participations[id]
	if !ok {
		return domain.Participation{}, notFound("participation", id)
	}

	return p, nil
}

func (s *Store) FindParticipationByContestAndUser(_ context.Context, contestID, userID uint) (domain.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.participations {
		if p.ContestID == contestID && p.UserID == userID {
			return p, nil
		}
	}

	return domain.Participation{}, notFound("participation", fmt.Sprintf("%d/%d", contestID, userID))
}

func (s *Store) UpdateParticipation(_ context.Context, p domain.Participation) (domain.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participations[p.ID]; !ok {
		return domain.Participation{}, notFound("participation", p.ID)
	}
	p.Contest, p.User = nil, nil
	s.participations[p.ID] = p

	return p, nil
}

func (s *Store) ListParticipations(_ context.Context, f domain.ParticipationFilter) ([]domain.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.Participation{}
	for _, p := range s.participations {
		if f.ContestID != 0 && p.ContestID != f.ContestID {
			continue
		}
		if f.UserID != 0 && p.UserID != f.UserID {
			continue
		}
		if f.Submitted && !p.HasSubmitted() {
			continue
		}

		c, err := s.contest(p.ContestID)
		if f.CreatorID != 0 && (err != nil || c.CreatorID != f.CreatorID) {
			continue
		}
		if err == nil {
			p.Contest = &c
		}
		if u, ok := s.users[p.UserID]; ok {
			p.User = &u
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	return out, nil
}

func (s *Store) CountParticipations(_ context.Context, userID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, p := range s.participations {
		if p.UserID == userID {
			n++
		}
	}

	return n, nil
}

// Payments

func (s *Store) CreatePayment(_ context.Context, p domain.Payment) (domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.payments {
		if existing.IdempotencyKey == p.IdempotencyKey {
			return domain.Payment{}, fmt.Errorf("idempotency key %q already used", p.IdempotencyKey)
		}
	}

	now := time.Now()
	p.ID = s.nextID()
	p.CreatedAt, p.UpdatedAt = now, now
	s.payments[p.ID] = p

	return p, nil
}

func (s *Store) FindPayment(_ context.Context, id uint) (domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return domain.Payment{}, notFound("payment", id)
	}

	return p, nil
}

func (s *Store) LockPayment(ctx context.Context, id uint) (domain.Payment, error) {
	return s.FindPayment(ctx, id)
}

func (s *Store) FindOpenPayment(_ context.Context, userID, contestID uint, typ domain.PaymentType) (domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		found domain.Payment
		ok    bool
	)
	for _, p := range s.payments {
		if p.UserID != userID || p.ContestID != contestID || p.Type != typ {
			continue
		}
		open := p.Status == domain.PaymentPending ||
			(p.Status == domain.PaymentCompleted && !p.IsRedeemed() && !p.NeedsRefund)
		if open && (!ok || p.ID > found.ID) {
			found, ok = p, true
		}
	}
	if !ok {
		return domain.Payment{}, notFound("payment", fmt.Sprintf("%d/%d/%s", userID, contestID, typ))
	}

	return found, nil
}

func (s *Store) UpdatePayment(_ context.Context, p domain.Payment) (domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.payments[p.ID]; !ok {
		return domain.Payment{}, notFound("payment", p.ID)
	}
	p.UpdatedAt = time.Now()
	s.payments[p.ID] = p

	return p, nil
}

func (s *Store) ListPayments(_ context.Context, f domain.PaymentFilter) ([]domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.Payment{}
	for _, p := range s.payments {
		if !matchPayment(p, f) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	return out, nil
}

func matchPayment(p domain.Payment, f domain.PaymentFilter) bool {
	if f.UserID != 0 && p.UserID != f.UserID {
		return false
	}
	if f.ContestID != 0 && p.ContestID != f.ContestID {
		return false
	}
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	if f.Unredeemed && p.IsRedeemed() {
		return false
	}
	if f.NeedsRefund != nil && p.NeedsRefund != *f.NeedsRefund {
		return false
	}
	if !f.CreatedBefore.IsZero() && !p.CreatedAt.Before(f.CreatedBefore) {
		return false
	}
	if len(f.Statuses) > 0 {
		for _, st := range f.Statuses {
			if p.Status == st {
				return true
			}
		}
		return false
	}

	return true
}

// Backdate shifts a payment's creation time, for tests of age based jobs.
func (s *Store) Backdate(paymentID uint, age time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.payments[paymentID]
	p.CreatedAt = p.CreatedAt.Add(-age)
	s.payments[paymentID] = p
}
