package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/workdeck/workdeck-api/internal/config"
	"github.com/workdeck/workdeck-api/internal/model"
	"github.com/workdeck/workdeck-api/internal/repository"
)

func testConfig() *config.Config {
	return &config.Config{
		Token: config.TokenConfig{
			Secret:    "test-secret",
			ExpiresIn: time.Hour,
			Issuer:    "workdeck-test",
		},
		OTP: config.OTPConfig{TTL: 10 * time.Minute},
	}
}

// duplicateKeyError mimics the error Mongo raises when the unique
// email index rejects an insert.
func duplicateKeyError() error {
	return mongo.WriteException{
		WriteErrors: []mongo.WriteError{{Code: 11000, Message: "duplicate key error"}},
	}
}

type fakeUserRepo struct {
	mu    sync.RWMutex
	users map[string]model.User // keyed by hex id
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]model.User)}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return nil, duplicateKeyError()
		}
	}

	user.ID = bson.NewObjectID()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	r.users[user.ID.Hex()] = *user
	stored := *user
	return &stored, nil
}

func (r *fakeUserRepo) GetUser(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &user, nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) UpdateUser(
	_ context.Context,
	id string,
	params repository.UpdateUserParams,
) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	if params.Name != nil {
		user.Name = *params.Name
	}
	if params.Location != nil {
		user.Location = *params.Location
	}
	if params.Roles != nil {
		user.Roles = *params.Roles
	}
	if params.PrimaryRole != nil {
		user.PrimaryRole = *params.PrimaryRole
	}
	if params.GoogleID != nil {
		user.GoogleID = *params.GoogleID
	}
	if params.GitHubID != nil {
		user.GitHubID = *params.GitHubID
	}
	if params.CompanySize != nil {
		user.CompanySize = *params.CompanySize
	}
	if params.Industry != nil {
		user.Industry = *params.Industry
	}
	if params.Skills != nil {
		user.Skills = *params.Skills
	}
	if params.Experience != nil {
		user.Experience = *params.Experience
	}
	if params.HourlyRate != nil {
		user.HourlyRate = params.HourlyRate
	}
	if params.Title != nil {
		user.Title = *params.Title
	}
	if params.Bio != nil {
		user.Bio = *params.Bio
	}
	if params.Avatar != nil {
		user.Avatar = *params.Avatar
	}
	user.UpdatedAt = time.Now()

	r.users[id] = user
	updated := user
	return &updated, nil
}

// seed stores a user directly, assigning an id if absent.
func (r *fakeUserRepo) seed(user model.User) model.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	r.users[user.ID.Hex()] = user
	return user
}

type fakePendingRepo struct {
	mu      sync.RWMutex
	pending map[string]model.PendingRegistration // keyed by email
}

func newFakePendingRepo() *fakePendingRepo {
	return &fakePendingRepo{pending: make(map[string]model.PendingRegistration)}
}

func (r *fakePendingRepo) Upsert(
	_ context.Context,
	p *model.PendingRegistration,
) (*model.PendingRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.pending[p.Email]; ok {
		p.ID = existing.ID
	} else {
		p.ID = bson.NewObjectID()
	}
	p.CreatedAt = time.Now()

	r.pending[p.Email] = *p
	stored := *p
	return &stored, nil
}

func (r *fakePendingRepo) GetByEmail(_ context.Context, email string) (*model.PendingRegistration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pending[email]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &p, nil
}

func (r *fakePendingRepo) RefreshOTP(
	_ context.Context,
	email, otp string,
	expiresAt time.Time,
) (*model.PendingRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[email]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	p.OTP = otp
	p.OTPExpiresAt = expiresAt
	r.pending[email] = p
	return &p, nil
}

func (r *fakePendingRepo) Consume(
	_ context.Context,
	email, otp string,
) (*model.PendingRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[email]
	if !ok || p.OTP != otp {
		return nil, mongo.ErrNoDocuments
	}

	delete(r.pending, email)
	return &p, nil
}

func (r *fakePendingRepo) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pending)
}

// expire rewinds the OTP expiry of a stored record.
func (r *fakePendingRepo) expire(email string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pending[email]; ok {
		p.OTPExpiresAt = time.Now().Add(-time.Minute)
		r.pending[email] = p
	}
}

type sentEmail struct {
	to      []string
	subject string
	body    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	fail bool
}

func (m *fakeMailer) SendHTML(to []string, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail {
		return errSMTPDown
	}
	m.sent = append(m.sent, sentEmail{to: to, subject: subject, body: htmlBody})
	return nil
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

var errSMTPDown = errors.New("smtp: connection refused")
