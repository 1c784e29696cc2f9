package admin

import (
	"context"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	appauth "staycal/internal/app/services/auth"
)

const (
	LoginKey  = "admin.login"
	LogoutKey = "admin.logout"
)

type LoginCommand struct {
	Secret string
}

func (LoginCommand) Key() string { return LoginKey }

type LogoutCommand struct {
	Token string
}

func (LogoutCommand) Key() string { return LogoutKey }

type LoginHandler struct {
	Auth *appauth.Service
}

func (h *LoginHandler) Handle(ctx context.Context, cmd LoginCommand) (dto.AdminLogin, error) {
	res, err := h.Auth.Login(ctx, cmd.Secret)
	if err != nil {
		return dto.AdminLogin{}, err
	}
	return dto.AdminLogin{Token: res.Token, ExpiresAt: res.ExpiresAt}, nil
}

type LogoutHandler struct {
	Auth *appauth.Service
}

func (h *LogoutHandler) Handle(ctx context.Context, cmd LogoutCommand) (struct{}, error) {
	return struct{}{}, h.Auth.Logout(ctx, cmd.Token)
}

var (
	_ commands.Handler[LoginCommand, dto.AdminLogin] = (*LoginHandler)(nil)
	_ commands.Handler[LogoutCommand, struct{}]      = (*LogoutHandler)(nil)
)
