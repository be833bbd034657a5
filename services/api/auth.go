package apisvc

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/trezcool/gradeportal/core/session"
	"github.com/trezcool/gradeportal/core/user"
)

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token    string    `json:"token" validate:"required"`
		Username string    `json:"username" validate:"required"`
		Role     user.Role `json:"role" validate:"required,oneof=STUDENT TEACHER ADMIN"`
		RealName string    `json:"realName"`
		UserID   int       `json:"userId" validate:"gt=0"`
	}

	RegisterResponse struct {
		Message string `json:"message"`
		UserID  int    `json:"userId"`
		Email   string `json:"email"`
	}

	// MessageResponse is the acknowledgement body of most mutations.
	MessageResponse struct {
		Message  string `json:"message"`
		Username string `json:"username,omitempty"`
	}

	resendRequest struct {
		Email string `json:"email" validate:"required,email"`
	}
)

// Session returns the session described by a login response.
func (lr LoginResponse) Session() session.Session {
	return session.Session{
		Token:    lr.Token,
		UserID:   lr.UserID,
		Username: lr.Username,
		RealName: lr.RealName,
		Role:     lr.Role,
	}
}

func (c *Client) Login(ctx context.Context, username, password string) Result[LoginResponse] {
	req := LoginRequest{Username: username, Password: password}
	if err := c.validate.Struct(req); err != nil {
		return invalid[LoginResponse](c, err)
	}
	return call[LoginResponse](ctx, c, "login", http.MethodPost, "/auth/login", req)
}

// Authenticate logs in and returns the new session; the error carries the failure message.
func (c *Client) Authenticate(ctx context.Context, username, password string) (session.Session, error) {
	res := c.Login(ctx, username, password)
	if !res.Success {
		return session.Session{}, res.Err()
	}
	return res.Data.Session(), nil
}

func (c *Client) Register(ctx context.Context, reg user.Registration) Result[RegisterResponse] {
	if err := reg.Validate(c.validate); err != nil {
		return invalid[RegisterResponse](c, err)
	}
	body := struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		RealName string `json:"realName"`
	}{reg.Username, reg.Email, reg.Password, reg.RealName}
	return call[RegisterResponse](ctx, c, "register", http.MethodPost, "/auth/register", body)
}

func (c *Client) VerifyEmail(ctx context.Context, token string) Result[MessageResponse] {
	if token == "" {
		return invalid[MessageResponse](c, errors.New("verification token is required"))
	}
	q := url.Values{"token": {token}}
	return call[MessageResponse](ctx, c, "verify_email", http.MethodGet, "/auth/verify-email?"+q.Encode(), nil)
}

func (c *Client) ResendVerification(ctx context.Context, email string) Result[MessageResponse] {
	req := resendRequest{Email: email}
	if err := c.validate.Struct(req); err != nil {
		return invalid[MessageResponse](c, err)
	}
	return call[MessageResponse](ctx, c, "resend_verification", http.MethodPost, "/auth/resend-verification", req)
}
