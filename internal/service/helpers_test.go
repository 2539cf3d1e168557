package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"powerfolio/internal/access"
	"powerfolio/internal/core/auth"
	"powerfolio/internal/core/cache"
	"powerfolio/internal/core/database"
	"powerfolio/internal/domain"
	"powerfolio/internal/repo"
)

type testEnv struct {
	users     *repo.UserRepo
	projects  *repo.ProjectRepo
	jwt       *auth.JWTer
	auth      *AuthService
	userSvc   *UserService
	projSvc   *ProjectService
	analytics *AnalyticsService
}

func newEnv(t *testing.T, c *cache.Cache) *testEnv {
	t.Helper()
	db, err := database.NewGorm(database.Opts{
		Driver:   "sqlite",
		DSN:      filepath.Join(t.TempDir(), "svc.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(db))

	j, err := auth.NewJWTer(auth.TokenConfig{Secret: []byte("test-secret-0123456789"), Issuer: "powerfolio"})
	require.NoError(t, err)

	users, projects := repo.NewUserRepo(db), repo.NewProjectRepo(db)
	return &testEnv{
		users:     users,
		projects:  projects,
		jwt:       j,
		auth:      NewAuthService(users, j, nil),
		userSvc:   NewUserService(users, projects, nil),
		projSvc:   NewProjectService(projects, users, c, nil),
		analytics: NewAnalyticsService(users, projects, c),
	}
}

// register 注册并返回身份
func (e *testEnv) register(t *testing.T, name, email string) access.Identity {
	t.Helper()
	s, err := e.auth.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: "secret123"})
	require.NoError(t, err)
	return access.IdentityOf(s.User)
}

func (e *testEnv) admin(t *testing.T, email string) access.Identity {
	t.Helper()
	e.register(t, "admin", email)
	u, err := e.userSvc.Promote(context.Background(), email)
	require.NoError(t, err)
	return access.IdentityOf(u)
}

func (e *testEnv) submit(t *testing.T, id access.Identity, title string, stack ...string) *domain.Project {
	t.Helper()
	p, err := e.projSvc.Create(context.Background(), id, CreateProjectInput{
		Title: title, Description: "about " + title, TechStack: stack,
		Github: "https://github.com/x/" + title, Thumbnail: "https://img/" + title,
	})
	require.NoError(t, err)
	return p
}
