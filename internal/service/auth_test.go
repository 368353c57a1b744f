package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/savemate/auth-service/internal/models"
	"github.com/savemate/auth-service/internal/storage"
)

func mustHashPW(t *testing.T, pw string) string {
	t.Helper()
	h, err := hashPassword(pw)
	require.NoError(t, err)
	return h
}

func activeUser(t *testing.T, pw string) *models.User {
	t.Helper()
	now := time.Now().UTC()
	return &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		Username:     "user",
		PasswordHash: mustHashPW(t, pw),
		FullName:     "User Example",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestRegisterUser_OK(t *testing.T) {
	svc, st, ctrl := newServiceWithMock(t)
	defer ctrl.Finish()

	ctx := context.Background()

	var saved *models.User
	st.EXPECT().
		SaveUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *models.User) error {
			saved = u
			return nil
		})

	pair, user, err := svc.RegisterUser(ctx, RegisterInput{
		Email:    "User@Example.com",
		Username: "john_doe99",
		Password: "Abcdef1!",
		FullName: "John Doe",
	})
	require.NoError(t, err)
	require.NotNil(t, saved)

	// e-mail нормализуется к нижнему регистру, пароль не хранится открытым.
	require.Equal(t, "user@example.com", user.Email)
	require.NotEqual(t, "Abcdef1!", user.PasswordHash)
	require.True(t, user.IsActive)
	require.False(t, user.IsAdmin)

	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.WithinDuration(t, time.Now().Add(svc.cfg.AccessTokenTTL), pair.AccessExpiresAt, 2*time.Second)

	// Subject обоих токенов — ID нового пользователя.
	uid, err := svc.decodeToken(pair.AccessToken, TokenKindAccess)
	require.NoError(t, err)
	require.Equal(t, user.ID, uid)

	uid, err = svc.decodeToken(pair.RefreshToken, TokenKindRefresh)
	require.NoError(t, err)
	require.Equal(t, user.ID, uid)
}

func TestRegisterUser_InvalidInput(t *testing.T) {
	svc, _, ctrl := newServiceWithMock(t)
	defer ctrl.Finish()

	ctx := context.Background()

	tests := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{name: "invalid_email", in: RegisterInput{Email: "not-an-email", Username: "johndoe", Password: "Abcdef1!"}, want: ErrInvalidEmail},
		{name: "empty_email", in: RegisterInput{Email: "", Username: "johndoe", Password: "Abcdef1!"}, want: ErrInvalidEmail},
		{name: "short_username", in: RegisterInput{Email: "a@b.cd", Username: "ab", Password: "Abcdef1!"}, want: ErrInvalidUsername},
		// username в форме email запрещён: иначе чужой адрес можно занять
		// как username и сделать вход жертвы по email неоднозначным.
		{name: "email_shaped_username", in: RegisterInput{Email: "a@b.cd", Username: "victim@x.com", Password: "Abcdef1!"}, want: ErrInvalidUsername},
		{name: "username_with_space", in: RegisterInput{Email: "a@b.cd", Username: "john doe", Password: "Abcdef1!"}, want: ErrInvalidUsername},
		{name: "username_with_dash", in: RegisterInput{Email: "a@b.cd", Username: "john-doe", Password: "Abcdef1!"}, want: ErrInvalidUsername},
		{name: "empty_password", in: RegisterInput{Email: "a@b.cd", Username: "johndoe", Password: ""}, want: ErrEmptyPassword},
		{name: "weak_password", in: RegisterInput{Email: "a@b.cd", Username: "johndoe", Password: "short1!"}, want: ErrWeakPassword},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.RegisterUser(ctx, tt.in)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRegisterUser_DuplicateEmailAndUsername(t *testing.T) {
	svc, st, ctrl := newServiceWithMock(t)
	defer ctrl.Finish()

	ctx := context.Background()
	in := RegisterInput{Email: "a@b.cd", Username: "johndoe", Password: "Abcdef1!"}

	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(fmtWrap(storage.ErrEmailExists))
	_, _, err := svc.RegisterUser(ctx, in)
	require.ErrorIs(t, err, ErrEmailTaken)

	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(fmtWrap(storage.ErrUsernameExists))
	_, _, err = svc.RegisterUser(ctx, in)
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLoginUser_OK_ThenSubjectStable(t *testing.T) {
	svc, st, ctrl := newServiceWithMock(t)
	defer ctrl.Finish()

	ctx := context.Background()
	pw := "Abcdef1!"
	user := activeUser(t, pw)

	st.EXPECT().UserByIdentifier(gomock.Any(), "user@example.com").Return(user, nil).Times(2)

	pair1, got, err := svc.LoginUser(ctx, "user@example.com", pw)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	pair2, _, err := svc.LoginUser(ctx, "user@example.com", pw)
	require.NoError(t, err)

	// Subject стабилен между входами.
	uid1, err := svc.decodeToken(pair1.AccessToken, TokenKindAccess)
	require.NoError(t, err)
	uid2, err := svc.decodeToken(pair2.AccessToken, TokenKindAccess)
	require.NoError(t, err)
	require.Equal(t, uid1, uid2)
	require.Equal(t, user.ID, uid1)
}

func TestLoginUser_InvalidCredentials(t *testing.T) {
	svc, st, ctrl := newServiceWithMock(t)
	defer ctrl.Finish()

	ctx := context.Background()
	user := activeUser(t, "Abcdef1!")

	t.Run("not_found", func(t *testing.T) {
		st.EXPECT().UserByIdentifier(gomock.Any(), "ghost").Return(nil, fmtWrap(storage.ErrNotFound))

		_, _, err := svc.LoginUser(ctx, "ghost", "whatever1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong_password", func(t *testing.T) {
		st.EXPECT().UserByIdentifier(gomock.Any(), "user@example.com").Return(user, nil)

		_, _, err := svc.LoginUser(ctx, "user@example.com", "wrong-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("empty_identifier", func(t *testing.T) {
		_, _, err := svc.LoginUser(ctx, "   ", "whatever1")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("empty_password", func(t *testing.T) {
		_, _, err := svc.LoginUser(ctx, "user@example.com", "")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLoginUser_InactiveAccount(t *testing.T) {
	svc, st, ctrl := newServiceWithMock(t)
	defer ctrl.Finish()

	pw := "Abcdef1!"
	user := activeUser(t, pw)
	user.IsActive = false

	st.EXPECT().UserByIdentifier(gomock.Any(), "user@example.com").Return(user, nil)

	// Верный пароль + деактивированная учётка — 403-вариант, не 401.
	_, _, err := svc.LoginUser(context.Background(), "user@example.com", pw)
	require.ErrorIs(t, err, ErrAccountInactive)
}

func TestRefreshToken_OK_NoRotation(t *testing.T) {
	svc, st, ctrl := newServiceWithMock(t)
	defer ctrl.Finish()

	ctx := context.Background()
	user := activeUser(t, "Abcdef1!")

	refresh, _, err := svc.issueToken(ctx, user.ID, TokenKindRefresh, time.Now().UTC())
	require.NoError(t, err)

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil).Times(2)

	// Один и тот же refresh работает повторно: ротации нет.
	grant1, uid, err := svc.RefreshToken(ctx, refresh)
	require.NoError(t, err)
	require.Equal(t, user.ID, uid)
	require.NotEmpty(t, grant1.AccessToken)
	require.WithinDuration(t, time.Now().Add(svc.cfg.AccessTokenTTL), grant1.AccessExpiresAt, 2*time.Second)

	grant2, _, err := svc.RefreshToken(ctx, refresh)
	require.NoError(t, err)
	require.NotEmpty(t, grant2.AccessToken)

	// Выданный access — действительно access-токен того же subject.
	gotUID, err := svc.decodeToken(grant1.AccessToken, TokenKindAccess)
	require.NoError(t, err)
	require.Equal(t, user.ID, gotUID)
}

func TestRefreshToken_AccessTokenRejected(t *testing.T) {
	svc, _, ctrl := newServiceWithMock(t)
	defer ctrl.Finish()

	ctx := context.Background()
	access, _, err := svc.issueToken(ctx, uuid.New(), TokenKindAccess, time.Now().UTC())
	require.NoError(t, err)

	_, _, err = svc.RefreshToken(ctx, access)
	require.ErrorIs(t, err, ErrWrongTokenKind)
}

func TestRefreshToken_UnknownOrInactiveSubject(t *testing.T) {
	svc, st, ctrl := newServiceWithMock(t)
	defer ctrl.Finish()

	ctx := context.Background()
	uid := uuid.New()

	refresh, _, err := svc.issueToken(ctx, uid, TokenKindRefresh, time.Now().UTC())
	require.NoError(t, err)

	t.Run("subject_gone", func(t *testing.T) {
		st.EXPECT().UserByID(gomock.Any(), uid).Return(nil, fmtWrap(storage.ErrNotFound))

		_, _, err := svc.RefreshToken(ctx, refresh)
		require.ErrorIs(t, err, ErrUnknownSubject)
	})

	t.Run("subject_inactive", func(t *testing.T) {
		inactive := activeUser(t, "Abcdef1!")
		inactive.ID = uid
		inactive.IsActive = false
		st.EXPECT().UserByID(gomock.Any(), uid).Return(inactive, nil)

		_, _, err := svc.RefreshToken(ctx, refresh)
		require.ErrorIs(t, err, ErrUnknownSubject)
	})
}

func TestAuthenticate_OK(t *testing.T) {
	svc, st, ctrl := newServiceWithMock(t)
	defer ctrl.Finish()

	ctx := context.Background()
	user := activeUser(t, "Abcdef1!")

	access, _, err := svc.issueToken(ctx, user.ID, TokenKindAccess, time.Now().UTC())
	require.NoError(t, err)

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)

	got, err := svc.Authenticate(ctx, access)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Equal(t, user.Email, got.Email)
}

func TestAuthenticate_RefreshTokenRejected(t *testing.T) {
	svc, _, ctrl := newServiceWithMock(t)
	defer ctrl.Finish()

	ctx := context.Background()
	refresh, _, err := svc.issueToken(ctx, uuid.New(), TokenKindRefresh, time.Now().UTC())
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, refresh)
	require.ErrorIs(t, err, ErrWrongTokenKind)
}

func TestAuthenticate_UnknownOrInactiveSubject(t *testing.T) {
	svc, st, ctrl := newServiceWithMock(t)
	defer ctrl.Finish()

	ctx := context.Background()
	uid := uuid.New()

	access, _, err := svc.issueToken(ctx, uid, TokenKindAccess, time.Now().UTC())
	require.NoError(t, err)

	t.Run("subject_gone", func(t *testing.T) {
		st.EXPECT().UserByID(gomock.Any(), uid).Return(nil, fmtWrap(storage.ErrNotFound))

		_, err := svc.Authenticate(ctx, access)
		require.ErrorIs(t, err, ErrUnknownSubject)
	})

	// Деактивированная учётка неотличима от исчезнувшей: валидный access-токен
	// на неё даёт тот же ErrUnknownSubject, а не ErrAccountInactive.
	t.Run("subject_inactive", func(t *testing.T) {
		inactive := activeUser(t, "Abcdef1!")
		inactive.ID = uid
		inactive.IsActive = false
		st.EXPECT().UserByID(gomock.Any(), uid).Return(inactive, nil)

		_, err := svc.Authenticate(ctx, access)
		require.ErrorIs(t, err, ErrUnknownSubject)
		require.NotErrorIs(t, err, ErrAccountInactive)
	})
}

func TestAuthenticate_StorageErrorPropagated(t *testing.T) {
	svc, st, ctrl := newServiceWithMock(t)
	defer ctrl.Finish()

	ctx := context.Background()
	uid := uuid.New()

	access, _, err := svc.issueToken(ctx, uid, TokenKindAccess, time.Now().UTC())
	require.NoError(t, err)

	st.EXPECT().UserByID(gomock.Any(), uid).Return(nil, errors.New("db down"))

	_, err = svc.Authenticate(ctx, access)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnknownSubject)
}

func TestDeactivateActivateUser(t *testing.T) {
	svc, st, ctrl := newServiceWithMock(t)
	defer ctrl.Finish()

	ctx := context.Background()
	uid := uuid.New()

	st.EXPECT().SetActive(gomock.Any(), uid, false).Return(nil)
	require.NoError(t, svc.DeactivateUser(ctx, uid))

	st.EXPECT().SetActive(gomock.Any(), uid, true).Return(nil)
	require.NoError(t, svc.ActivateUser(ctx, uid))

	st.EXPECT().SetActive(gomock.Any(), uid, false).Return(fmtWrap(storage.ErrNotFound))
	require.ErrorIs(t, svc.DeactivateUser(ctx, uid), ErrUnknownSubject)
}

// fmtWrap - оборачивает ошибку из storage, имитируя fmt.Errorf("%w").
func fmtWrap(err error) error { return fmt.Errorf("wrapped: %w", err) }
