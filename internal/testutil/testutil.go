package testutil

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/remi/auth-api/internal/api"
	"github.com/remi/auth-api/internal/config"
	"github.com/remi/auth-api/internal/repository"
	"github.com/remi/auth-api/internal/service"
	"go.uber.org/zap"
)

func TestConfig() *config.Config {
	return &config.Config{
		Port:          "0",
		Environment:   "test",
		AccessSecret:  "test-access-secret-0123456789abcdef0123",
		RefreshSecret: "test-refresh-secret-0123456789abcdef012",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    14 * 24 * time.Hour,
	}
}

// TestServer wires the real router, middleware and auth service against
// in-memory stores.
type TestServer struct {
	Server   *httptest.Server
	Services *service.Services
	Users    *UserRepo
	Tokens   *RefreshTokenRepo
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	users := NewUserRepo()
	tokens := NewRefreshTokenRepo()
	repos := &repository.Repositories{User: users, RefreshToken: tokens}
	services := service.NewServices(repos, TestConfig(), zap.NewNop())

	srv := httptest.NewServer(api.NewRouter(services, zap.NewNop()))
	t.Cleanup(srv.Close)

	return &TestServer{
		Server:   srv,
		Services: services,
		Users:    users,
		Tokens:   tokens,
	}
}

// APIURL builds a URL for a path under /api/v1.
func (ts *TestServer) APIURL(path string) string {
	return ts.Server.URL + "/api/v1" + path
}
