package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/geoviet/surveyid-api/internal/models"
	appErrors "github.com/geoviet/surveyid-api/pkg/errors"
)

type authRepoStub struct {
	users     map[string]*models.User
	lastLogin map[string]time.Time
	logs      []*models.AuditLog
}

func newAuthRepoStub(users ...*models.User) *authRepoStub {
	stub := &authRepoStub{users: make(map[string]*models.User), lastLogin: make(map[string]time.Time)}
	for _, u := range users {
		stub.users[u.Email] = u
	}
	return stub
}

func (a *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := a.users[email]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (a *authRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	a.lastLogin[id] = ts
	return nil
}

func (a *authRepoStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func testUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        "officer@phuonghue.gov.vn",
		PasswordHash: string(hash),
		FullName:     "Nguyễn Văn An",
		Role:         models.RoleCommuneOfficer,
		ProvinceCode: "01",
		WardCode:     "00190",
		Active:       true,
	}
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret: "test_secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "surveyid-api",
	}
}

func TestAuthServiceLoginIssuesJurisdictionClaims(t *testing.T) {
	repo := newAuthRepoStub(testUser(t, "mat-khau-1"))
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "officer@phuonghue.gov.vn",
		Password: "mat-khau-1",
		IP:       "10.0.0.5",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, models.RoleCommuneOfficer, resp.User.Role)
	require.Equal(t, "00190", resp.User.WardCode)
	require.Len(t, repo.logs, 1)
	require.Equal(t, models.AuditActionLogin, repo.logs[0].Action)
	require.Contains(t, repo.lastLogin, "user-1")

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, models.RoleCommuneOfficer, claims.Role)
	require.Equal(t, "01", claims.ProvinceCode)
	require.Equal(t, "00190", claims.WardCode)
	require.Equal(t, "surveyid-api", claims.Issuer)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newAuthRepoStub(testUser(t, "mat-khau-1"))
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "officer@phuonghue.gov.vn",
		Password: "sai-mat-khau",
	})
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrInvalidCredentials))
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(newAuthRepoStub(), nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@example.gov.vn",
		Password: "mat-khau-1",
	})
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrInvalidCredentials))
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	user := testUser(t, "mat-khau-1")
	user.Active = false
	svc := NewAuthService(newAuthRepoStub(user), nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "officer@phuonghue.gov.vn",
		Password: "mat-khau-1",
	})
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrInactiveAccount))
}

func TestAuthServiceLoginValidatesPayload(t *testing.T) {
	svc := NewAuthService(newAuthRepoStub(), nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email"})
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestAuthServiceValidateTokenRejectsForeignSecret(t *testing.T) {
	repo := newAuthRepoStub(testUser(t, "mat-khau-1"))
	issuing := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := issuing.Login(context.Background(), models.LoginRequest{
		Email:    "officer@phuonghue.gov.vn",
		Password: "mat-khau-1",
	})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret: "different_secret",
		AccessTokenExpiry: time.Hour,
	})
	_, err = other.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))
}
