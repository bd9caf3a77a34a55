package service

import (
	"context"
	"errors"
	"testing"

	"ctchen222/BigTicTacToe/internal/api/models"
	"ctchen222/BigTicTacToe/internal/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key"

func TestRegister(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(repo *mocks.MockUserRepository)
		wantErr error
	}{
		{
			name: "new user",
			setup: func(repo *mocks.MockUserRepository) {
				repo.EXPECT().GetUserByUsername(gomock.Any(), "alice").Return(nil, nil)
				repo.EXPECT().CreateUser(gomock.Any(), &models.User{Username: "alice"}, "secret1").Return(nil)
			},
		},
		{
			name: "username taken",
			setup: func(repo *mocks.MockUserRepository) {
				repo.EXPECT().GetUserByUsername(gomock.Any(), "alice").Return(&models.User{ID: 1, Username: "alice"}, nil)
			},
			wantErr: ErrUsernameTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockUserRepository(gomock.NewController(t))
			tt.setup(repo)

			err := NewUserService(repo, testSecret).Register(context.Background(), &models.RegisterRequest{Username: "alice", Password: "secret1"})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &models.User{ID: 7, Username: "alice", PasswordHash: string(hash)}

	t.Run("valid credentials", func(t *testing.T) {
		repo := mocks.NewMockUserRepository(gomock.NewController(t))
		repo.EXPECT().GetUserByUsername(gomock.Any(), "alice").Return(stored, nil)

		resp, err := NewUserService(repo, testSecret).Login(context.Background(), &models.LoginRequest{Username: "alice", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, "user-7", resp.PlayerID)

		playerID, err := ParseToken(resp.Token, testSecret)
		require.NoError(t, err)
		assert.Equal(t, "user-7", playerID)

		_, err = ParseToken(resp.Token, "another-secret")
		assert.Error(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := mocks.NewMockUserRepository(gomock.NewController(t))
		repo.EXPECT().GetUserByUsername(gomock.Any(), "alice").Return(stored, nil)

		_, err := NewUserService(repo, testSecret).Login(context.Background(), &models.LoginRequest{Username: "alice", Password: "nope"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := mocks.NewMockUserRepository(gomock.NewController(t))
		repo.EXPECT().GetUserByUsername(gomock.Any(), "bob").Return(nil, nil)

		_, err := NewUserService(repo, testSecret).Login(context.Background(), &models.LoginRequest{Username: "bob", Password: "secret1"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("repository failure", func(t *testing.T) {
		boom := errors.New("db down")
		repo := mocks.NewMockUserRepository(gomock.NewController(t))
		repo.EXPECT().GetUserByUsername(gomock.Any(), "alice").Return(nil, boom)

		_, err := NewUserService(repo, testSecret).Login(context.Background(), &models.LoginRequest{Username: "alice", Password: "secret1"})
		assert.ErrorIs(t, err, boom)
	})
}

func TestGuestLogin(t *testing.T) {
	svc := NewUserService(nil, testSecret)
	a, err := svc.GuestLogin(context.Background())
	require.NoError(t, err)
	b, err := svc.GuestLogin(context.Background())
	require.NoError(t, err)
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
