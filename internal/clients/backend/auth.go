package backend

import (
	"context"
	"fmt"
	"net/http"

	"estatemetrics/internal/domain/models"
)

func (c *Client) Login(ctx context.Context, email, password string) (models.TokenResponse, error) {
	var resp models.TokenResponse
	err := c.do(ctx, http.MethodPost, "/login", "", models.LoginRequest{Email: email, Password: password}, &resp)
	return resp, err
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResponse, error) {
	var resp models.RegisterResponse
	err := c.do(ctx, http.MethodPost, "/register", "", req, &resp)
	return resp, err
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (models.TokenResponse, error) {
	var resp models.TokenResponse
	err := c.do(ctx, http.MethodPost, "/refresh-token", "", models.RefreshRequest{RefreshToken: refreshToken}, &resp)
	return resp, err
}

func (c *Client) Users(ctx context.Context, token string) ([]models.User, error) {
	var users []models.User
	err := c.do(ctx, http.MethodGet, "/users", token, nil, &users)
	return users, err
}

func (c *Client) User(ctx context.Context, token string, id int64) (models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), token, nil, &user)
	return user, err
}

func (c *Client) UpdateProfile(ctx context.Context, token string, id int64, req models.UpdateProfileRequest) (models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/users/%d/profile", id), token, req, &user)
	return user, err
}

func (c *Client) ChangePassword(ctx context.Context, token string, id int64, req models.ChangePasswordRequest) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/users/%d/change-password", id), token, req, nil)
}
