package service

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleantrack/cleantrack-api/internal/domain"
	apperrors "github.com/cleantrack/cleantrack-api/pkg/util/errorutil"
)

var sixDigits = regexp.MustCompile(`^\d{6}$`)

func assertDomainError(t *testing.T, err error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, status, de.HTTPStatus)
	if message != "" {
		assert.Equal(t, message, de.Message)
	}
}

func lastCode(t *testing.T, env *testEnv) string {
	t.Helper()
	msgs := env.mailer.messages()
	require.NotEmpty(t, msgs)
	body := msgs[len(msgs)-1].body
	code := strings.TrimSpace(body[strings.LastIndex(body, ":")+1:])
	require.Regexp(t, sixDigits, code)
	return code
}

func studentSignup(email string) SignupInput {
	return SignupInput{Name: "Asha", Email: email, Password: "pa55word", RoomNumber: "214"}
}

func TestSignupRejectsForeignDomain(t *testing.T) {
	env := newTestEnv(t, nil)

	err := env.authSvc.SignupStudent(context.Background(), studentSignup("asha@gmail.com"))

	assertDomainError(t, err, 400, "Email must end with @iitrpr.ac.in")
	assert.Empty(t, env.mailer.messages())
}

func TestSignupVerifyLoginFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	email := "asha@iitrpr.ac.in"

	require.NoError(t, env.authSvc.SignupStudent(ctx, studentSignup(email)))
	code := lastCode(t, env)
	assert.Equal(t, verificationSubject, env.mailer.messages()[0].subject)

	_, err := env.authSvc.Login(ctx, email, "pa55word", domain.RoleStudent)
	assertDomainError(t, err, 400, "Please verify your email first.")

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	err = env.authSvc.Verify(ctx, email, wrong, domain.RoleStudent)
	assertDomainError(t, err, 400, "Invalid verification code")

	require.NoError(t, env.authSvc.Verify(ctx, email, code, domain.RoleStudent))
	err = env.authSvc.Verify(ctx, email, code, domain.RoleStudent)
	assertDomainError(t, err, 400, "Already verified")

	_, err = env.authSvc.Login(ctx, email, "wrong", domain.RoleStudent)
	assertDomainError(t, err, 400, "Invalid credentials")

	res, err := env.authSvc.Login(ctx, email, "pa55word", domain.RoleStudent)
	require.NoError(t, err)
	principal, err := env.tokens.VerifyToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, principal.UserID)
	assert.Equal(t, domain.RoleStudent, principal.Role)

	me, err := env.authSvc.Me(ctx, principal.UserID)
	require.NoError(t, err)
	assert.Nil(t, me.VerificationCode)
	assert.True(t, me.IsVerified)
}

func TestSignupExistingAccounts(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	email := "ravi@iitrpr.ac.in"

	require.NoError(t, env.authSvc.SignupStudent(ctx, studentSignup(email)))
	// Unverified accounts are replaced on re-signup.
	require.NoError(t, env.authSvc.SignupStudent(ctx, studentSignup(email)))
	require.Len(t, env.users.users, 1)
	require.NoError(t, env.authSvc.Verify(ctx, email, lastCode(t, env), domain.RoleStudent))

	err := env.authSvc.SignupStudent(ctx, studentSignup(email))
	assertDomainError(t, err, 400, "User already exists")
}

func TestLoginUnknownUserOrRole(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.users.addVerified(t, "Asha", "asha@iitrpr.ac.in", domain.RoleStudent, "101", nil)

	_, err := env.authSvc.Login(ctx, "nobody@iitrpr.ac.in", "secret123", domain.RoleStudent)
	assertDomainError(t, err, 400, "User not found")

	_, err = env.authSvc.Login(ctx, "asha@iitrpr.ac.in", "secret123", domain.RoleCaretaker)
	assertDomainError(t, err, 400, "User not found")

	err = env.authSvc.Verify(ctx, "nobody@iitrpr.ac.in", "123456", domain.RoleStudent)
	assertDomainError(t, err, 400, "User not found")
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	err := env.authSvc.SignupStudent(ctx, SignupInput{Name: "A", Email: "a@iitrpr.ac.in", Password: "x"})
	assertDomainError(t, err, 400, "Room number is required")

	err = env.authSvc.SignupStudent(ctx, SignupInput{Email: "a@iitrpr.ac.in", Password: "x", RoomNumber: "101"})
	assertDomainError(t, err, 400, "Name, email and password are required")
}

func TestCaretakerVerifySyncsFloorRooms(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	student := env.users.addVerified(t, "Asha", "asha@iitrpr.ac.in", domain.RoleStudent, "204", nil)
	_, err := env.roomSvc.EnsureForStudent(ctx, student)
	require.NoError(t, err)

	email := "kamla@iitrpr.ac.in"
	require.NoError(t, env.authSvc.SignupCaretaker(ctx, SignupInput{Name: "Kamla", Email: email, Password: "pw", Floor: intPtr(2)}))
	require.NoError(t, env.authSvc.Verify(ctx, email, lastCode(t, env), domain.RoleCaretaker))

	room := env.rooms.room("204")
	require.NotNil(t, room)
	require.NotNil(t, room.Caretaker)
	assert.Equal(t, "Kamla", *room.Caretaker)

	res, err := env.authSvc.Login(ctx, email, "pw", domain.RoleCaretaker)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCaretaker, res.User.Role)
}

func TestVerificationCodeIsSixDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := verificationCode()
		require.NoError(t, err)
		assert.Regexp(t, sixDigits, code)
	}
}

func TestMeRejectsMalformedID(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.authSvc.Me(context.Background(), "not-a-uuid")
	assertDomainError(t, err, 404, "User not found")
}
