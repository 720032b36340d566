package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	autherrors "github.com/pk2025teslead/smartlogx-app/internal/auth/errors"
	"github.com/pk2025teslead/smartlogx-app/internal/user"
)

type fakeUserRepo struct {
	byEmail map[string]*user.User
	byID    map[uuid.UUID]*user.User
	created []*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail: map[string]*user.User{},
		byID:    map[uuid.UUID]*user.User{},
	}
}

func (f *fakeUserRepo) add(u *user.User) {
	f.byEmail[u.Email] = u
	f.byID[u.ID] = u
}

func (f *fakeUserRepo) Create(ctx context.Context, u *user.User) error {
	f.created = append(f.created, u)
	f.add(u)
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByEmpID(ctx context.Context, empID string) (*user.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) ListAdmins(ctx context.Context) ([]user.User, error) { return nil, nil }

func seedUser(t *testing.T, repo *fakeUserRepo, password, role string) *user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &user.User{
		ID:       uuid.New(),
		EmpID:    "EMP042",
		Name:     "Asha Verma",
		Email:    "asha@smartlogx.test",
		Password: string(hash),
		Role:     role,
		IsActive: true,
	}
	repo.add(u)
	return u
}

func TestService_Login(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	repo := newFakeUserRepo()
	seedUser(t, repo, "s3cret", user.RoleUser)

	svc := NewService(repo)

	access, refresh, resp, err := svc.Login(context.Background(), "asha@smartlogx.test", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)
	assert.Equal(t, "EMP042", resp.EmpID)
	assert.Equal(t, "USER", resp.Role)
}

func TestService_Login_BadCredentials(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	repo := newFakeUserRepo()
	seedUser(t, repo, "s3cret", user.RoleUser)

	svc := NewService(repo)

	_, _, _, err := svc.Login(context.Background(), "asha@smartlogx.test", "wrong")
	assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)

	_, _, _, err = svc.Login(context.Background(), "nobody@smartlogx.test", "s3cret")
	assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
}

func TestService_RefreshToken_RoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	repo := newFakeUserRepo()
	u := seedUser(t, repo, "s3cret", user.RoleAdmin)

	svc := NewService(repo)

	_, refresh, _, err := svc.Login(context.Background(), u.Email, "s3cret")
	require.NoError(t, err)

	access, newRefresh, resp, err := svc.RefreshToken(context.Background(), refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, newRefresh)
	assert.Equal(t, u.ID.String(), resp.ID)
	assert.Equal(t, "ADMIN", resp.Role)
}

func TestService_RefreshToken_Invalid(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	svc := NewService(newFakeUserRepo())

	_, _, _, err := svc.RefreshToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, autherrors.ErrInvalidRefreshToken)
}

func TestService_GetMe(t *testing.T) {
	repo := newFakeUserRepo()
	u := seedUser(t, repo, "s3cret", user.RoleUser)

	svc := NewService(repo)

	resp, err := svc.GetMe(context.Background(), u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, u.Email, resp.Email)

	_, err = svc.GetMe(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, autherrors.ErrUserNotFound)

	_, err = svc.GetMe(context.Background(), "garbage")
	assert.ErrorIs(t, err, autherrors.ErrInvalidUserID)
}

func TestService_Register(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		EmpID:    "emp077",
		Name:     "Ravi",
		Email:    "ravi@smartlogx.test",
		Password: "changeme",
	})
	require.NoError(t, err)
	assert.Equal(t, "EMP077", resp.EmpID)

	require.Len(t, repo.created, 1)
	stored := repo.created[0]
	assert.NotEqual(t, "changeme", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("changeme")))
}
