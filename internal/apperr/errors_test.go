package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestHTTPStatus エラー種別とステータス
func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", ValidationError{Op: "send", Field: "sender"}, http.StatusBadRequest},
		{"conflict", ConflictError{Op: "register", Field: "login"}, http.StatusBadRequest},
		{"not found", NotFoundError{Op: "profile", Resource: "user"}, http.StatusNotFound},
		{"credentials", ErrInvalidCredentials, http.StatusNotFound},
		{"store", StoreError{Op: "append", Err: errors.New("boom")}, http.StatusInternalServerError},
		{"unknown", errors.New("other"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

// TestStoreErrorUnwrapsBothWays ストアエラーのラップ
func TestStoreErrorUnwrapsBothWays(t *testing.T) {
	req := require.New(t)
	driverErr := errors.New("connection reset")

	err := Store("messages.append", driverErr)

	req.ErrorIs(err, ErrStore)
	req.ErrorIs(err, driverErr)

	var se StoreError
	req.True(errors.As(err, &se))
	req.Equal("messages.append", se.Op)
}

// TestStoreKeepsKnownKinds 既知の種別は保持
func TestStoreKeepsKnownKinds(t *testing.T) {
	req := require.New(t)
	nf := NotFoundError{Op: "users.get", Resource: "user"}

	err := Store("users.get", nf)

	req.True(IsNotFound(err))
	req.False(errors.Is(err, ErrStore))
}

// TestValidationErrorMessage バリデーションエラー文言
func TestValidationErrorMessage(t *testing.T) {
	err := ValidationError{Op: "send-message", Field: "receiver"}
	require.Equal(t, "send-message: validation failed: receiver is required", err.Error())
	require.True(t, IsValidation(err))
}

// TestPublicMessage クライアント向けメッセージ
func TestPublicMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ValidationError{Op: "x", Field: "login"}, "login is required"},
		{ValidationError{Op: "x", Msg: "file is not an image"}, "file is not an image"},
		{NotFoundError{Op: "x", Resource: "user"}, "user not found"},
		{ConflictError{Op: "x", Field: "login"}, "login already exists"},
		{fmt.Errorf("wrapped: %w", ErrInvalidCredentials), "invalid credentials"},
		{StoreError{Op: "x", Err: errors.New("dial tcp 10.0.0.1:3306: refused")}, "internal server error"},
		{errors.New("boom"), "internal server error"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, PublicMessage(tc.err), "%v", tc.err)
	}
}
