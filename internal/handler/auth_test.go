package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renewalhub/renewalhub/internal/config"
	"github.com/renewalhub/renewalhub/internal/repository"
	"github.com/renewalhub/renewalhub/internal/utils"
)

func testConfig() config.Config {
	return config.Config{JWTSecret: "test-secret", TokenTTLHours: 1, BcryptCost: 4}
}

func jsonRequest(method, target, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

var userCols = []string{"id", "email", "password_hash", "name", "role", "created_at", "updated_at"}

func TestRegisterFirstUserBecomesAdmin(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO users").
		WithArgs("admin@example.com", sqlmock.AnyArg(), "Admin", "admin").
		WillReturnResult(sqlmock.NewResult(1, 1))

	h := NewAuthHandler(testConfig(), repository.NewUserRepo(db))
	e := echo.New()
	req, rec := jsonRequest(http.MethodPost, "/api/auth/register",
		`{"email":"Admin@Example.com","password":"secret","name":"Admin"}`)

	require.NoError(t, h.Register(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"admin"`)
	assert.Contains(t, rec.Body.String(), `"token"`)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))

	h := NewAuthHandler(testConfig(), repository.NewUserRepo(db))
	e := echo.New()
	req, rec := jsonRequest(http.MethodPost, "/api/auth/register",
		`{"email":"a@example.com","password":"secret","name":"A"}`)

	require.NoError(t, h.Register(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "email already registered")
}

func TestRegisterMissingFields(t *testing.T) {
	h := NewAuthHandler(testConfig(), nil)
	e := echo.New()
	req, rec := jsonRequest(http.MethodPost, "/api/auth/register", `{"email":"a@example.com"}`)

	require.NoError(t, h.Register(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginUnknownEmailAndWrongPasswordAreIndistinguishable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	hash, err := utils.HashPassword("correct-password", 4)
	require.NoError(t, err)

	// Unknown email: no row.
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))
	// Known email, wrong password.
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WithArgs("real@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(2, "real@example.com", hash, "Real", "user", now, now))

	h := NewAuthHandler(testConfig(), repository.NewUserRepo(db))
	e := echo.New()

	var bodies []string
	for _, payload := range []string{
		`{"email":"ghost@example.com","password":"whatever"}`,
		`{"email":"real@example.com","password":"wrong"}`,
	} {
		req, rec := jsonRequest(http.MethodPost, "/api/auth/login", payload)
		require.NoError(t, h.Login(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		bodies = append(bodies, rec.Body.String())
	}
	assert.Equal(t, bodies[0], bodies[1], "responses must not leak which accounts exist")
}

func TestLoginSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	hash, err := utils.HashPassword("correct-password", 4)
	require.NoError(t, err)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WithArgs("real@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(2, "real@example.com", hash, "Real", "user", now, now))

	h := NewAuthHandler(testConfig(), repository.NewUserRepo(db))
	e := echo.New()
	req, rec := jsonRequest(http.MethodPost, "/api/auth/login",
		`{"email":"real@example.com","password":"correct-password"}`)

	require.NoError(t, h.Login(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token"`)

	// The issued token parses back to the same user.
	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	claims, err := utils.ParseToken("test-secret", resp.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), claims.UserID)
}
