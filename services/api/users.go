package apisvc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/trezcool/gradeportal/core/user"
)

// backendUser is a user record as the backend sends it; unknown fields are dropped.
type backendUser struct {
	ID        int     `json:"id" validate:"gt=0"`
	Username  string  `json:"username" validate:"required"`
	RealName  string  `json:"realName"`
	Role      string  `json:"role" validate:"required,oneof=STUDENT TEACHER ADMIN"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	StudentID *string `json:"studentId"`
	IsActive  *bool   `json:"isActive"`
}

func (bu backendUser) toUser() user.User {
	u := user.User{
		ID:        bu.ID,
		Username:  bu.Username,
		RealName:  bu.RealName,
		Role:      user.Role(bu.Role),
		Email:     bu.Email,
		Phone:     bu.Phone,
		StudentID: bu.StudentID,
	}
	if bu.IsActive != nil {
		u.IsActive = *bu.IsActive
	}
	return u
}

type createUserRequest struct {
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	RealName  string  `json:"realName"`
	Role      string  `json:"role"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	StudentID *string `json:"studentId,omitempty"`
}

func (c *Client) AllUsers(ctx context.Context) Result[[]user.User] {
	res := call[[]backendUser](ctx, c, "all_users", http.MethodGet, "/admin/users", nil)
	return mapResult(res, func(bus []backendUser) []user.User {
		users := make([]user.User, 0, len(bus))
		for _, bu := range bus {
			users = append(users, bu.toUser())
		}
		return users
	})
}

func (c *Client) CreateUser(ctx context.Context, nu user.NewUser) Result[user.User] {
	if err := nu.Validate(c.validate); err != nil {
		return invalid[user.User](c, err)
	}
	req := createUserRequest{
		Username:  nu.Username,
		Password:  nu.Password,
		RealName:  nu.RealName,
		Role:      string(nu.Role),
		Email:     nu.Email,
		Phone:     nu.Phone,
		StudentID: nu.StudentID,
	}
	res := call[backendUser](ctx, c, "create_user", http.MethodPost, "/admin/users", req)
	return mapResult(res, backendUser.toUser)
}

func (c *Client) UpdateUserStatus(ctx context.Context, id int, isActive bool) Result[MessageResponse] {
	path := fmt.Sprintf("/admin/users/%d/status", id)
	return call[MessageResponse](ctx, c, "update_user_status", http.MethodPut, path, user.UpdateStatus{IsActive: isActive})
}

func (c *Client) DeleteUser(ctx context.Context, id int) Result[MessageResponse] {
	return call[MessageResponse](ctx, c, "delete_user", http.MethodDelete, fmt.Sprintf("/admin/users/%d", id), nil)
}

// mapResult converts the data of a successful Result, keeping failures as they are.
func mapResult[T, U any](res Result[T], fn func(T) U) Result[U] {
	out := Result[U]{Success: res.Success, Error: res.Error, Kind: res.Kind, Status: res.Status, Fields: res.Fields}
	if res.Success {
		out.Data = fn(res.Data)
	}
	return out
}
