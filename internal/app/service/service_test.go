package service

import (
	"context"
	"testing"

	"expense_tracker/internal/common"
	"expense_tracker/internal/common/security"
	"expense_tracker/internal/domain/model"
	"expense_tracker/internal/domain/repository"
	"expense_tracker/internal/platform/events"
	"expense_tracker/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func ptr[T any](v T) *T { return &v }

type ServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	recorder *testutil.Recorder
	auth     *AuthService
	users    *UserService
	entries  *EntryService

	manager security.Claims
	alice   security.Claims
	bob     security.Claims
}

func (s *ServiceTestSuite) SetupTest() {
	db := testutil.OpenInMemoryDB(s.T())
	s.ctx = context.Background()
	s.recorder = &testutil.Recorder{}

	userRepo := repository.NewUserRepository(db)
	s.auth = NewAuthService(userRepo, testutil.TokenService(s.T()), s.recorder)
	s.users = NewUserService(userRepo, s.recorder)
	s.entries = NewEntryService(repository.NewEntryRepository(db), s.recorder)

	s.manager = s.register("boss@example.com", model.RoleManager)
	s.alice = s.register("alice@example.com", model.RoleUser)
	s.bob = s.register("bob@example.com", "")
}

func (s *ServiceTestSuite) register(email string, role model.Role) security.Claims {
	u, err := s.auth.Register(s.ctx, RegisterRequest{Email: email, Password: "secret1", Role: role})
	require.NoError(s.T(), err)
	return security.Claims{ID: u.ID, Role: u.Role}
}

func (s *ServiceTestSuite) createEntry(actor security.Claims, title string, amount float64) *model.Entry {
	e, err := s.entries.Create(s.ctx, actor, CreateEntryRequest{Title: title, Amount: &amount})
	require.NoError(s.T(), err)
	return e
}

func (s *ServiceTestSuite) TestRegister() {
	assert.Equal(s.T(), model.RoleUser, s.bob.Role, "role defaults to user")

	u, err := s.auth.Register(s.ctx, RegisterRequest{Email: "  New@Example.COM ", Password: "secret1"})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "new@example.com", u.Email)
	assert.Empty(s.T(), u.HashedPassword)

	_, err = s.auth.Register(s.ctx, RegisterRequest{Email: "alice@example.com", Password: "secret1"})
	assert.ErrorIs(s.T(), err, common.ErrConflict)
	assert.Equal(s.T(), "User already exists", common.PublicMessage(err))

	_, err = s.auth.Register(s.ctx, RegisterRequest{Email: "bad", Password: "secret1"})
	assert.ErrorIs(s.T(), err, common.ErrValidation)
	assert.Equal(s.T(), "Invalid email address", common.PublicMessage(err))

	_, err = s.auth.Register(s.ctx, RegisterRequest{Email: "short@example.com", Password: "123"})
	assert.Equal(s.T(), "Password must be at least 6 characters", common.PublicMessage(err))

	_, err = s.auth.Register(s.ctx, RegisterRequest{Email: "admin@example.com", Password: "secret1", Role: "admin"})
	assert.ErrorIs(s.T(), err, common.ErrValidation)

	assert.Contains(s.T(), s.recorder.Types(), events.UserRegistered)
}

func (s *ServiceTestSuite) TestLogin() {
	res, err := s.auth.Login(s.ctx, LoginRequest{Email: "BOSS@example.com", Password: "secret1"})
	require.NoError(s.T(), err)
	assert.NotEmpty(s.T(), res.Token)
	assert.Equal(s.T(), "/dashboard/manager", res.Redirect)
	assert.Equal(s.T(), model.RoleManager, res.User.Role)

	claims, ok := testutil.TokenService(s.T()).Verify(res.Token)
	require.True(s.T(), ok)
	assert.Equal(s.T(), s.manager, claims)

	res, err = s.auth.Login(s.ctx, LoginRequest{Email: "alice@example.com", Password: "secret1"})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "/dashboard/user", res.Redirect)
}

func (s *ServiceTestSuite) TestLoginFailuresAreIndistinguishable() {
	_, wrongPassword := s.auth.Login(s.ctx, LoginRequest{Email: "alice@example.com", Password: "nope-nope"})
	_, unknownEmail := s.auth.Login(s.ctx, LoginRequest{Email: "ghost@example.com", Password: "secret1"})

	for _, err := range []error{wrongPassword, unknownEmail} {
		assert.ErrorIs(s.T(), err, common.ErrUnauthorized)
		assert.Equal(s.T(), "Invalid credentials", common.PublicMessage(err))
	}

	_, err := s.auth.Login(s.ctx, LoginRequest{Email: "alice@example.com"})
	assert.ErrorIs(s.T(), err, common.ErrValidation)
	assert.Equal(s.T(), "Email and password required", common.PublicMessage(err))
}

func (s *ServiceTestSuite) TestEntryLifecycle() {
	e := s.createEntry(s.alice, "Travel", 120)
	assert.Equal(s.T(), model.StatusPending, e.Status)
	assert.Equal(s.T(), s.alice.ID, e.CreatedByID)
	require.NotNil(s.T(), e.CreatedBy)
	assert.Equal(s.T(), "alice@example.com", e.CreatedBy.Email)

	approved, err := s.entries.UpdateStatus(s.ctx, s.manager, e.ID, UpdateStatusRequest{Status: model.StatusApproved})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), model.StatusApproved, approved.Status)

	page, err := s.entries.List(s.ctx, s.alice, ListEntriesRequest{Pagination: common.Pagination{Page: 1, Limit: 10}})
	require.NoError(s.T(), err)
	require.Len(s.T(), page.Data, 1)
	assert.Equal(s.T(), model.StatusApproved, page.Data[0].Status)

	assert.Equal(s.T(), []events.Type{
		events.UserRegistered, events.UserRegistered, events.UserRegistered,
		events.EntryCreated, events.EntryStatusChanged,
	}, s.recorder.Types())
}

func (s *ServiceTestSuite) TestCreateEntryRules() {
	amount := 10.0
	_, err := s.entries.Create(s.ctx, s.manager, CreateEntryRequest{Title: "Chairs", Amount: &amount})
	assert.ErrorIs(s.T(), err, common.ErrForbidden)
	assert.Equal(s.T(), "Only users can create entries", common.PublicMessage(err))

	_, err = s.entries.Create(s.ctx, s.alice, CreateEntryRequest{Title: "ab", Amount: &amount})
	assert.Equal(s.T(), "Title must be at least 3 characters", common.PublicMessage(err))

	zero := 0.0
	_, err = s.entries.Create(s.ctx, s.alice, CreateEntryRequest{Title: "Chairs", Amount: &zero})
	assert.Equal(s.T(), "Amount must be positive", common.PublicMessage(err))

	negative := -5.0
	_, err = s.entries.Create(s.ctx, s.alice, CreateEntryRequest{Title: "Chairs", Amount: &negative})
	assert.Equal(s.T(), "Amount must be positive", common.PublicMessage(err))

	_, err = s.entries.Create(s.ctx, s.alice, CreateEntryRequest{Title: "Chairs"})
	assert.ErrorIs(s.T(), err, common.ErrValidation)
	assert.Equal(s.T(), "Amount is required", common.PublicMessage(err))
}

func (s *ServiceTestSuite) TestListEntriesScoping() {
	s.createEntry(s.alice, "Alice lunch", 10)
	b := s.createEntry(s.bob, "Bob lunch", 20)
	s.createEntry(s.bob, "Bob taxi", 30)
	_, err := s.entries.UpdateStatus(s.ctx, s.manager, b.ID, UpdateStatusRequest{Status: model.StatusRejected})
	require.NoError(s.T(), err)

	p := common.Pagination{Page: 1, Limit: 10}

	mine, err := s.entries.List(s.ctx, s.alice, ListEntriesRequest{Pagination: p})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, mine.Pagination.Total)
	for _, e := range mine.Data {
		assert.Equal(s.T(), s.alice.ID, e.CreatedByID)
	}

	// Status filter is ignored for users.
	mine, err = s.entries.List(s.ctx, s.alice, ListEntriesRequest{Status: model.StatusRejected, Pagination: p})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, mine.Pagination.Total)

	all, err := s.entries.List(s.ctx, s.manager, ListEntriesRequest{Pagination: p})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 3, all.Pagination.Total)

	rejected, err := s.entries.List(s.ctx, s.manager, ListEntriesRequest{Status: model.StatusRejected, Pagination: p})
	require.NoError(s.T(), err)
	require.Len(s.T(), rejected.Data, 1)
	assert.Equal(s.T(), b.ID, rejected.Data[0].ID)

	lunch, err := s.entries.List(s.ctx, s.manager, ListEntriesRequest{Search: " LUNCH ", Pagination: p})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, lunch.Pagination.Total)

	paged, err := s.entries.List(s.ctx, s.manager, ListEntriesRequest{Pagination: common.Pagination{Page: 2, Limit: 2}})
	require.NoError(s.T(), err)
	assert.Len(s.T(), paged.Data, 1)
	assert.Equal(s.T(), 2, paged.Pagination.TotalPages)
}

func (s *ServiceTestSuite) TestEntryOwnership() {
	e := s.createEntry(s.alice, "Alice only", 10)

	_, err := s.entries.Get(s.ctx, s.bob, e.ID)
	assert.ErrorIs(s.T(), err, common.ErrForbidden)

	got, err := s.entries.Get(s.ctx, s.manager, e.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), e.ID, got.ID)

	_, err = s.entries.Update(s.ctx, s.bob, e.ID, UpdateEntryRequest{Title: ptr("Hijacked")})
	assert.ErrorIs(s.T(), err, common.ErrForbidden)
	assert.Equal(s.T(), "You can only update your own entries", common.PublicMessage(err))

	err = s.entries.Delete(s.ctx, s.bob, e.ID)
	assert.ErrorIs(s.T(), err, common.ErrForbidden)

	updated, err := s.entries.Update(s.ctx, s.manager, e.ID, UpdateEntryRequest{Amount: ptr(55.5)})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 55.5, updated.Amount)
	assert.Equal(s.T(), s.alice.ID, updated.CreatedByID, "creator never changes")
}

func (s *ServiceTestSuite) TestUpdateEntryCheckOrder() {
	// 404 before 403 before 400.
	_, err := s.entries.Update(s.ctx, s.bob, "missing", UpdateEntryRequest{Title: ptr("x")})
	assert.ErrorIs(s.T(), err, common.ErrNotFound)

	e := s.createEntry(s.alice, "Alice only", 10)
	_, err = s.entries.Update(s.ctx, s.bob, e.ID, UpdateEntryRequest{Title: ptr("x")})
	assert.ErrorIs(s.T(), err, common.ErrForbidden)

	_, err = s.entries.Update(s.ctx, s.alice, e.ID, UpdateEntryRequest{Title: ptr("x")})
	assert.ErrorIs(s.T(), err, common.ErrValidation)

	_, err = s.entries.Update(s.ctx, s.alice, e.ID, UpdateEntryRequest{Amount: ptr(0.0)})
	assert.Equal(s.T(), "Amount must be positive", common.PublicMessage(err))

	same, err := s.entries.Update(s.ctx, s.alice, e.ID, UpdateEntryRequest{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Alice only", same.Title)
}

func (s *ServiceTestSuite) TestUpdateStatusCheckOrder() {
	// 403 before 400 before 404.
	_, err := s.entries.UpdateStatus(s.ctx, s.alice, "missing", UpdateStatusRequest{Status: "bogus"})
	assert.ErrorIs(s.T(), err, common.ErrForbidden)
	assert.Equal(s.T(), "Only managers can update status", common.PublicMessage(err))

	_, err = s.entries.UpdateStatus(s.ctx, s.manager, "missing", UpdateStatusRequest{Status: "bogus"})
	assert.ErrorIs(s.T(), err, common.ErrValidation)

	_, err = s.entries.UpdateStatus(s.ctx, s.manager, "missing", UpdateStatusRequest{Status: model.StatusApproved})
	assert.ErrorIs(s.T(), err, common.ErrNotFound)
	assert.Equal(s.T(), "Entry not found", common.PublicMessage(err))
}

func (s *ServiceTestSuite) TestDeleteEntry() {
	e := s.createEntry(s.alice, "Disposable", 1)
	require.NoError(s.T(), s.entries.Delete(s.ctx, s.alice, e.ID))
	assert.ErrorIs(s.T(), s.entries.Delete(s.ctx, s.alice, e.ID), common.ErrNotFound)
	assert.Contains(s.T(), s.recorder.Types(), events.EntryDeleted)
}

func (s *ServiceTestSuite) TestUsersAreManagerOnly() {
	p := common.Pagination{Page: 1, Limit: 10}

	_, err := s.users.List(s.ctx, s.alice, model.UserFilter{}, p)
	assert.ErrorIs(s.T(), err, common.ErrForbidden)
	_, err = s.users.Get(s.ctx, s.alice, s.bob.ID)
	assert.ErrorIs(s.T(), err, common.ErrForbidden)
	_, err = s.users.Create(s.ctx, s.alice, CreateUserRequest{Email: "x@example.com", Password: "secret1"})
	assert.ErrorIs(s.T(), err, common.ErrForbidden)
	_, err = s.users.Update(s.ctx, s.alice, s.bob.ID, UpdateUserRequest{Role: ptr(model.RoleManager)})
	assert.ErrorIs(s.T(), err, common.ErrForbidden)
	assert.ErrorIs(s.T(), s.users.Delete(s.ctx, s.alice, s.bob.ID), common.ErrForbidden)
}

func (s *ServiceTestSuite) TestUserAdministration() {
	p := common.Pagination{Page: 1, Limit: 10}

	created, err := s.users.Create(s.ctx, s.manager, CreateUserRequest{Email: "Carol@Example.com", Password: "secret1", Role: model.RoleManager})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "carol@example.com", created.Email)

	_, err = s.users.Create(s.ctx, s.manager, CreateUserRequest{Email: "carol@example.com", Password: "secret1"})
	assert.ErrorIs(s.T(), err, common.ErrConflict)

	all, err := s.users.List(s.ctx, s.manager, model.UserFilter{}, p)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 4, all.Pagination.Total)

	managers, err := s.users.List(s.ctx, s.manager, model.UserFilter{Role: model.RoleManager}, p)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, managers.Pagination.Total)

	got, err := s.users.Get(s.ctx, s.manager, s.alice.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "alice@example.com", got.Email)

	_, err = s.users.Get(s.ctx, s.manager, "missing")
	assert.Equal(s.T(), "User not found", common.PublicMessage(err))

	_, err = s.users.Update(s.ctx, s.manager, s.alice.ID, UpdateUserRequest{Email: ptr("bob@example.com")})
	assert.ErrorIs(s.T(), err, common.ErrConflict)
	assert.Equal(s.T(), "Email already in use", common.PublicMessage(err))

	_, err = s.users.Update(s.ctx, s.manager, s.alice.ID, UpdateUserRequest{Password: ptr("123")})
	assert.Equal(s.T(), "Password must be at least 6 characters", common.PublicMessage(err))

	updated, err := s.users.Update(s.ctx, s.manager, s.alice.ID, UpdateUserRequest{Password: ptr("newsecret"), Role: ptr(model.RoleManager)})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), model.RoleManager, updated.Role)

	_, err = s.auth.Login(s.ctx, LoginRequest{Email: "alice@example.com", Password: "newsecret"})
	assert.NoError(s.T(), err)
}

func (s *ServiceTestSuite) TestDeleteUser() {
	s.createEntry(s.bob, "Bob entry", 5)

	err := s.users.Delete(s.ctx, s.manager, s.manager.ID)
	assert.ErrorIs(s.T(), err, common.ErrBadRequest)
	assert.Equal(s.T(), "You cannot delete your own account", common.PublicMessage(err))

	require.NoError(s.T(), s.users.Delete(s.ctx, s.manager, s.bob.ID))
	err = s.users.Delete(s.ctx, s.manager, s.bob.ID)
	assert.ErrorIs(s.T(), err, common.ErrNotFound)

	all, err := s.entries.List(s.ctx, s.manager, ListEntriesRequest{Pagination: common.Pagination{Page: 1, Limit: 10}})
	require.NoError(s.T(), err)
	assert.Zero(s.T(), all.Pagination.Total, "entries of a deleted user are removed")
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
