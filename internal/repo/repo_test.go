package repo

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"powerfolio/internal/core/database"
	"powerfolio/internal/domain"
	"powerfolio/pkg/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewGorm(database.Opts{
		Driver:   "sqlite",
		DSN:      filepath.Join(t.TempDir(), "repo.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func seedUser(t *testing.T, r *UserRepo, email string) *domain.UserWithSecret {
	t.Helper()
	u := &domain.UserWithSecret{
		User: domain.User{
			ID: utils.NewID(), Email: email, Name: "n-" + email,
			Role: domain.RoleUser, IsActive: true,
		},
		PasswordHash: "$2a$10$hash-" + email,
	}
	require.NoError(t, r.Create(context.Background(), u))
	return u
}

func seedProject(t *testing.T, r *ProjectRepo, author string, status domain.ProjectStatus, title string, stack ...string) *domain.Project {
	t.Helper()
	p := &domain.Project{
		ID: utils.NewID(), AuthorID: author, Title: title, Description: "d " + title,
		TechStack: stack, Github: "https://github.com/x/" + title, Thumbnail: "thumb",
		Category: domain.CategoryWeb, Status: status,
	}
	require.NoError(t, r.Create(context.Background(), p))
	return p
}

func TestUserRepo_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(newTestDB(t))
	u := seedUser(t, r, "a@example.com")

	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a@example.com", got.Email)
	assert.True(t, got.IsActive)
	assert.Equal(t, domain.RoleUser, got.Role)

	byEmail, err := r.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)

	// 邮箱大小写敏感存储
	none, err := r.FindByEmail(ctx, "A@example.com")
	require.NoError(t, err)
	assert.Nil(t, none)

	missing, err := r.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepo_DuplicateEmail(t *testing.T) {
	r := NewUserRepo(newTestDB(t))
	seedUser(t, r, "dup@example.com")

	err := r.Create(context.Background(), &domain.UserWithSecret{
		User:         domain.User{ID: utils.NewID(), Email: "dup@example.com", Name: "x", Role: domain.RoleUser, IsActive: true},
		PasswordHash: "h",
	})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	_, total, err := r.List(context.Background(), domain.UserFilter{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestUserRepo_SecretOnlyOnExplicitPath(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(newTestDB(t))
	u := seedUser(t, r, "s@example.com")

	withSecret, err := r.FindByEmailWithSecret(ctx, "s@example.com")
	require.NoError(t, err)
	require.NotNil(t, withSecret)
	assert.Equal(t, u.PasswordHash, withSecret.PasswordHash)

	pub, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	b, err := json.Marshal(pub)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "hash-s@example.com")

	b, err = json.Marshal(withSecret)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "hash-s@example.com")
}

func TestUserRepo_Mutations(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(newTestDB(t))
	u := seedUser(t, r, "m@example.com")

	off, err := r.SetActive(ctx, u.ID, false)
	require.NoError(t, err)
	assert.False(t, off.IsActive)

	admin, err := r.SetRole(ctx, u.ID, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	bio := "gopher"
	p, err := r.UpdateProfile(ctx, u.ID, domain.ProfilePatch{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "gopher", p.Bio)
	assert.Equal(t, "n-m@example.com", p.Name)

	require.NoError(t, r.IncProjectCount(ctx, u.ID))
	require.NoError(t, r.IncProjectCount(ctx, u.ID))
	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ProjectCount)

	gone, err := r.SetActive(ctx, "missing", false)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestUserRepo_ListSearch(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(newTestDB(t))
	seedUser(t, r, "alice@example.com")
	seedUser(t, r, "bob@example.com")

	items, total, err := r.List(ctx, domain.UserFilter{Q: "ALICE", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "alice@example.com", items[0].Email)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestProjectRepo_ListFilters(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users, projects := NewUserRepo(db), NewProjectRepo(db)
	a := seedUser(t, users, "a@example.com")

	seedProject(t, projects, a.ID, domain.StatusApproved, "Blog", "Go", "React")
	seedProject(t, projects, a.ID, domain.StatusPending, "Draft", "Rust")
	seedProject(t, projects, a.ID, domain.StatusRejected, "Spam")

	approved, total, err := projects.List(ctx, domain.ProjectFilter{Status: domain.StatusApproved, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, approved, 1)
	assert.Equal(t, "Blog", approved[0].Title)
	require.NotNil(t, approved[0].Author)
	assert.Equal(t, "n-a@example.com", approved[0].Author.Name)
	assert.Empty(t, approved[0].Author.Email)
	assert.Equal(t, domain.StringSet{"Go", "React"}, approved[0].TechStack)

	all, total, err := projects.List(ctx, domain.ProjectFilter{AuthorEmail: true})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)
	assert.Equal(t, "a@example.com", all[0].Author.Email)

	found, _, err := projects.List(ctx, domain.ProjectFilter{Search: "react", Limit: 20})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Blog", found[0].Title)
}

func TestProjectRepo_TransitionIsConditional(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users, projects := NewUserRepo(db), NewProjectRepo(db)
	a := seedUser(t, users, "a@example.com")
	p := seedProject(t, projects, a.ID, domain.StatusPending, "P")

	now := time.Now().UTC().Truncate(time.Second)
	got, ok, err := projects.Transition(ctx, p.ID, domain.Reject("admin", "low quality", now))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.StatusRejected, got.Status)
	require.NotNil(t, got.RejectionReason)
	assert.Equal(t, "low quality", *got.RejectionReason)
	assert.Nil(t, got.ApprovedAt)

	// rejected → rejected 不允许
	_, ok, err = projects.Transition(ctx, p.ID, domain.Reject("admin", "again", now))
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err = projects.Transition(ctx, p.ID, domain.Approve("admin", now))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.StatusApproved, got.Status)
	assert.Nil(t, got.RejectionReason)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, "admin", *got.ApprovedBy)
	require.NotNil(t, got.ApprovedAt)

	_, ok, err = projects.Transition(ctx, "missing", domain.Approve("admin", now))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProjectRepo_UpdateLeavesStatus(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users, projects := NewUserRepo(db), NewProjectRepo(db)
	a := seedUser(t, users, "a@example.com")
	p := seedProject(t, projects, a.ID, domain.StatusPending, "P")

	title := "Renamed"
	tags := []string{"x", "x", " y "}
	got, err := projects.Update(ctx, p.ID, domain.ProjectPatch{Title: &title, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, domain.StringSet{"x", "y"}, got.Tags)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, a.ID, got.AuthorID)
}

func TestProjectRepo_ViewsAndDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users, projects := NewUserRepo(db), NewProjectRepo(db)
	a := seedUser(t, users, "a@example.com")
	pending := seedProject(t, projects, a.ID, domain.StatusPending, "Pending")
	live := seedProject(t, projects, a.ID, domain.StatusApproved, "Live")

	ok, err := projects.IncViews(ctx, pending.ID, domain.StatusApproved)
	require.NoError(t, err)
	assert.False(t, ok)

	for i := 0; i < 3; i++ {
		ok, err = projects.IncViews(ctx, live.ID, domain.StatusApproved)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	got, err := projects.FindByID(ctx, live.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.Views)

	deleted, err := projects.Delete(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = projects.Delete(ctx, pending.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestProjectRepo_Aggregates(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users, projects := NewUserRepo(db), NewProjectRepo(db)
	a := seedUser(t, users, "a@example.com")
	one := seedProject(t, projects, a.ID, domain.StatusApproved, "One", "Go", "React")
	seedProject(t, projects, a.ID, domain.StatusApproved, "Two", "Go")
	seedProject(t, projects, a.ID, domain.StatusPending, "Three", "Go")
	_, err := projects.IncViews(ctx, one.ID, domain.StatusApproved)
	require.NoError(t, err)

	counts, err := projects.CountByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts[domain.StatusApproved])
	assert.EqualValues(t, 1, counts[domain.StatusPending])
	assert.EqualValues(t, 0, counts[domain.StatusRejected])

	stacks, err := projects.TechStacks(ctx, domain.StatusApproved)
	require.NoError(t, err)
	assert.Len(t, stacks, 2)

	since, err := projects.CreatedSince(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, since, 3)

	top, err := projects.TopViewed(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "One", top[0].Title)
	require.NotNil(t, top[0].Author)
}
