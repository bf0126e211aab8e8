package service

import (
	"github.com/remi/auth-api/internal/config"
	"github.com/remi/auth-api/internal/repository"
	"go.uber.org/zap"
)

type Services struct {
	Auth *AuthService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, log *zap.Logger) *Services {
	return &Services{
		Auth: NewAuthService(repos.User, repos.RefreshToken, cfg, log),
	}
}
