package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/realtyhub/marketplace-api/internal/core/domain"
)

type userRecord struct {
	user domain.User
	seq  int
}

// UserRepository keeps principals in process memory. It backs local runs
// with STORAGE_BACKEND=memory and the HTTP tests.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*userRecord
	byEmail map[string]string
	seq     int
	now     func() time.Time
}

func NewUserRepository(now func() time.Time) *UserRepository {
	if now == nil {
		now = time.Now
	}
	return &UserRepository{
		byID:    make(map[string]*userRecord),
		byEmail: make(map[string]string),
		now:     now,
	}
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := rec.user
	return &u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[user.Email]; taken {
		return nil, domain.ErrUserExists
	}

	now := r.now().UTC()
	u := *user
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now

	r.seq++
	r.byID[u.ID] = &userRecord{user: u, seq: r.seq}
	r.byEmail[u.Email] = u.ID
	return &u, nil
}

func (r *UserRepository) update(id string, apply func(u *domain.User)) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	apply(&rec.user)
	rec.user.UpdatedAt = r.now().UTC()
	u := rec.user
	return &u, nil
}

func (r *UserRepository) UpdateProfile(_ context.Context, id string, profile domain.Profile) (*domain.User, error) {
	return r.update(id, func(u *domain.User) { u.Profile = profile })
}

func (r *UserRepository) UpdatePreferences(_ context.Context, id string, prefs domain.Preferences) (*domain.User, error) {
	return r.update(id, func(u *domain.User) { u.Preferences = prefs })
}

func (r *UserRepository) UpdatePassword(_ context.Context, id, passwordHash string) error {
	_, err := r.update(id, func(u *domain.User) { u.PasswordHash = passwordHash })
	return err
}

func (r *UserRepository) UpdateTier(_ context.Context, id string, tier domain.Tier) (*domain.User, error) {
	return r.update(id, func(u *domain.User) { u.Tier = tier })
}

func (r *UserRepository) UpdateVerified(_ context.Context, id string, verified bool) (*domain.User, error) {
	return r.update(id, func(u *domain.User) { u.Verified = verified })
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byEmail, rec.user.Email)
	delete(r.byID, id)
	return nil
}

func (r *UserRepository) List(_ context.Context, page, limit int) ([]*domain.User, int64, error) {
	r.mu.RLock()
	recs := make([]*userRecord, 0, len(r.byID))
	for _, rec := range r.byID {
		recs = append(recs, rec)
	}
	r.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })

	total := int64(len(recs))
	start := (page - 1) * limit
	if start >= len(recs) {
		return []*domain.User{}, total, nil
	}
	end := min(start+limit, len(recs))

	out := make([]*domain.User, 0, end-start)
	for _, rec := range recs[start:end] {
		u := rec.user
		out = append(out, &u)
	}
	return out, total, nil
}
