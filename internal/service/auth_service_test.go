package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
)

func TestRegisterDefaultsAndApproval(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	student, err := e.auth.Register(ctx, RegisterInput{Name: "Ann", Email: " Ann@Campus.test ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, student.Role)
	assert.True(t, student.IsApproved)
	assert.Equal(t, "ann@campus.test", student.Email)
	assert.NotEqual(t, "secret1", student.Password)

	admin, err := e.auth.Register(ctx, RegisterInput{Name: "Bo", Email: "bo@campus.test", Password: "secret1", Role: model.RoleCollegeAdmin})
	require.NoError(t, err)
	assert.False(t, admin.IsApproved)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "not-an-email", Password: "secret1"})
	assert.ErrorIs(t, err, pkg.ErrValidation)

	_, err = e.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "a@campus.test", Password: "123"})
	assert.ErrorIs(t, err, pkg.ErrValidation)

	_, err = e.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "a@campus.test", Password: "secret1", Role: "teacher"})
	assert.ErrorIs(t, err, pkg.ErrValidation)

	_, err = e.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "a@campus.test", Password: "secret1", Role: model.RoleSuperadmin})
	assert.ErrorIs(t, err, pkg.ErrForbidden)
}

func TestPasswordLengthBounds(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	long := strings.Repeat("p", 73)

	_, err := e.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@campus.test", Password: long})
	assert.ErrorIs(t, err, pkg.ErrValidation)

	// 72 字节是 bcrypt 的上限，恰好可用
	u, err := e.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@campus.test", Password: long[:72]})
	require.NoError(t, err)

	err = e.auth.ChangePassword(ctx, u.ID, long[:72], long)
	assert.ErrorIs(t, err, pkg.ErrValidation)
	var verr *pkg.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "newPassword", verr.Field)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@campus.test", Password: "secret1"})
	require.NoError(t, err)
	_, err = e.auth.Register(ctx, RegisterInput{Name: "Ann 2", Email: "ANN@campus.test", Password: "secret2"})
	assert.ErrorIs(t, err, pkg.ErrDuplicate)
	assert.Equal(t, "email already registered", err.Error())
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u, err := e.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@campus.test", Password: "secret1"})
	require.NoError(t, err)

	_, err = e.auth.Login(ctx, "nobody@campus.test", "secret1")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	_, err = e.auth.Login(ctx, "ann@campus.test", "wrong-password")
	assert.ErrorIs(t, err, pkg.ErrUnauthenticated)

	res, err := e.auth.Login(ctx, "ann@campus.test", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)

	stored, err := e.tokens.GetUserToken(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Pair.AccessToken, stored)

	claims, err := e.issuer.ParseAccess(res.Pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, string(model.RoleStudent), claims.Role)
}

func TestLoginUnapprovedAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.auth.Register(ctx, RegisterInput{Name: "Bo", Email: "bo@campus.test", Password: "secret1", Role: model.RoleCollegeAdmin})
	require.NoError(t, err)

	_, err = e.auth.Login(ctx, "bo@campus.test", "secret1")
	assert.ErrorIs(t, err, pkg.ErrForbidden)
}

func TestRefreshAndLogout(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u, err := e.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@campus.test", Password: "secret1"})
	require.NoError(t, err)
	res, err := e.auth.Login(ctx, "ann@campus.test", "secret1")
	require.NoError(t, err)

	pair, err := e.auth.Refresh(ctx, res.Pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	_, err = e.auth.Refresh(ctx, res.Pair.AccessToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthenticated)

	require.NoError(t, e.auth.Logout(ctx, u.ID))
	_, err = e.tokens.GetUserToken(ctx, u.ID)
	assert.Error(t, err)

	require.NoError(t, e.mem.Stores().Users.Delete(ctx, u.ID))
	_, err = e.auth.Refresh(ctx, res.Pair.RefreshToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthenticated)
}

func TestUpdateProfileSanitizes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.user(t, "ann", model.RoleStudent, true)

	u, err := e.auth.UpdateProfile(ctx, a.ID, "<b>Ann</b>", "MIT<script>x</script>")
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, "MIT", u.College)

	_, err = e.auth.UpdateProfile(ctx, a.ID, "  ", "")
	assert.ErrorIs(t, err, pkg.ErrValidation)
}

func TestCreateSuperadminBypassesSignupSwitch(t *testing.T) {
	e := newEnv(t)
	u, err := e.auth.CreateSuperadmin(context.Background(), "Root", "root@campus.test", "secret1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleSuperadmin, u.Role)
	assert.True(t, u.IsApproved)
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u, err := e.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@campus.test", Password: "secret1"})
	require.NoError(t, err)
	_, err = e.auth.Login(ctx, "ann@campus.test", "secret1")
	require.NoError(t, err)

	err = e.auth.ChangePassword(ctx, u.ID, "wrong", "secret2")
	assert.ErrorIs(t, err, pkg.ErrUnauthenticated)
	err = e.auth.ChangePassword(ctx, u.ID, "secret1", "123")
	assert.ErrorIs(t, err, pkg.ErrValidation)

	require.NoError(t, e.auth.ChangePassword(ctx, u.ID, "secret1", "secret2"))
	_, err = e.tokens.GetUserToken(ctx, u.ID)
	assert.Error(t, err)

	_, err = e.auth.Login(ctx, "ann@campus.test", "secret1")
	assert.ErrorIs(t, err, pkg.ErrUnauthenticated)
	_, err = e.auth.Login(ctx, "ann@campus.test", "secret2")
	assert.NoError(t, err)
}
