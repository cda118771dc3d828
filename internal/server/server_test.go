package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"interndesk/internal/config"
	"interndesk/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testAdminPassword = "admin123"

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF")

type testEnv struct {
	app *fiber.App
	srv *Server
	cfg *config.Config
}

// newTestEnv wires a full server against sqlite and no Redis. The Prometheus
// middleware registers global collectors, so build it at most once per test
// binary.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:              "0",
		Env:               "test",
		JWTSecret:         "test-secret-for-handler-tests-0123456789",
		AdminUsername:     "admin",
		AdminPasswordHash: string(hash),
		UploadRoot:        t.TempDir(),
		GeneratedRoot:     t.TempDir(),
		FeatureFlags:      "demo_banner=on",
		MaxUploadSizeMB:   10,
	}
	require.NoError(t, cfg.Validate())

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.InternshipRequest{}))

	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{
		AppName:   "InternDesk API",
		BodyLimit: (cfg.MaxUploadSizeMB + 1) * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)

	return &testEnv{app: app, srv: srv, cfg: cfg}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func submitForm(t *testing.T, fields map[string]string, filename string, fileContent []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		fw, err := w.CreateFormFile("permission_letter", filename)
		require.NoError(t, err)
		_, err = fw.Write(fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/requests/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func validFields() map[string]string {
	return map[string]string{
		"student_name":    "Asha Verma",
		"college_name":    "National Institute of Technology",
		"college_address": "12 College Road, Surat",
		"email":           "asha@example.edu",
		"student_year":    "3rd",
		"branch":          "Computer Science",
		"start_date":      "01-06-2026",
		"end_date":        "31-07-2026",
		"duration":        "8 weeks",
	}
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	body, err := json.Marshal(fiber.Map{"username": "admin", "password": testAdminPassword})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp := e.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Token string `json:"token"`
	}
	decodeJSON(t, resp, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestAPI(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	env := newTestEnv(t)

	t.Run("liveness probe", func(t *testing.T) {
		resp := env.do(t, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("readiness reports degraded cache but stays ready", func(t *testing.T) {
		resp := env.do(t, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out struct {
			Status string `json:"status"`
			Checks struct {
				Database string `json:"database"`
				Redis    string `json:"redis"`
			} `json:"checks"`
		}
		decodeJSON(t, resp, &out)
		assert.Equal(t, "healthy", out.Status)
		assert.Equal(t, "healthy", out.Checks.Database)
		assert.Equal(t, "unavailable", out.Checks.Redis)
	})

	t.Run("public flags snapshot", func(t *testing.T) {
		resp := env.do(t, httptest.NewRequest(http.MethodGet, "/api/flags", nil))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out map[string]bool
		decodeJSON(t, resp, &out)
		assert.True(t, out["demo_banner"])
	})

	t.Run("submission validation", func(t *testing.T) {
		t.Run("missing file", func(t *testing.T) {
			resp := env.do(t, submitForm(t, validFields(), "", nil))
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})

		t.Run("missing required field", func(t *testing.T) {
			fields := validFields()
			delete(fields, "student_name")
			resp := env.do(t, submitForm(t, fields, "permission.pdf", pdfBytes))
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})

		t.Run("non-pdf upload", func(t *testing.T) {
			resp := env.do(t, submitForm(t, validFields(), "permission.txt", []byte("plain text")))
			assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
		})

		t.Run("pdf content under a wrong extension", func(t *testing.T) {
			resp := env.do(t, submitForm(t, validFields(), "resume.docx", pdfBytes))
			assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
		})
	})

	t.Run("admin endpoints require a token", func(t *testing.T) {
		for _, path := range []string{
			"/api/admin/requests/",
			"/api/admin/requests/some-id/letter",
			"/api/admin/feature-flags",
		} {
			resp := env.do(t, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		}
	})

	t.Run("login rejects bad credentials", func(t *testing.T) {
		body, _ := json.Marshal(fiber.Map{"username": "admin", "password": "wrong"})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp := env.do(t, req)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		body, _ = json.Marshal(fiber.Map{"username": "someone", "password": testAdminPassword})
		req = httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp = env.do(t, req)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("non-admin subject is forbidden even with a valid signature", func(t *testing.T) {
		now := time.Now()
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "eve",
			"iss": "interndesk-api",
			"aud": "interndesk-admin",
			"exp": now.Add(time.Hour).Unix(),
			"iat": now.Unix(),
			"nbf": now.Unix(),
			"jti": "test-jti",
		})
		signed, err := token.SignedString([]byte(env.cfg.JWTSecret))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/admin/requests/", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		resp := env.do(t, req)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/requests/", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		resp := env.do(t, req)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("full application lifecycle", func(t *testing.T) {
		resp := env.do(t, submitForm(t, validFields(), "permission.pdf", pdfBytes))
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var rec models.InternshipRequest
		decodeJSON(t, resp, &rec)
		require.NotEmpty(t, rec.ID)
		assert.Equal(t, models.RequestStatusPending, rec.Status)

		token := env.login(t)
		auth := func(req *http.Request) *http.Request {
			req.Header.Set("Authorization", "Bearer "+token)
			return req
		}

		t.Run("letter is forbidden while pending", func(t *testing.T) {
			resp := env.do(t, auth(httptest.NewRequest(http.MethodGet,
				fmt.Sprintf("/api/admin/requests/%s/letter", rec.ID), nil)))
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})

		t.Run("admin reviews the uploaded document", func(t *testing.T) {
			resp := env.do(t, auth(httptest.NewRequest(http.MethodGet,
				fmt.Sprintf("/api/admin/requests/%s/permission", rec.ID), nil)))
			require.Equal(t, http.StatusOK, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
		})

		t.Run("approve generates the letter", func(t *testing.T) {
			resp := env.do(t, auth(httptest.NewRequest(http.MethodPost,
				fmt.Sprintf("/api/admin/requests/%s/approve", rec.ID), nil)))
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var approved models.InternshipRequest
			decodeJSON(t, resp, &approved)
			assert.Equal(t, models.RequestStatusApproved, approved.Status)
			require.NotNil(t, approved.GeneratedLetterFilename)
			assert.Equal(t, "offer_"+rec.ID+".pdf", *approved.GeneratedLetterFilename)
			require.NotNil(t, approved.IssuedDate)

			_, err := os.Stat(filepath.Join(env.cfg.GeneratedRoot, "offer_"+rec.ID+".pdf"))
			assert.NoError(t, err, "letter file exists on disk")
		})

		t.Run("approve again is idempotent", func(t *testing.T) {
			resp := env.do(t, auth(httptest.NewRequest(http.MethodPost,
				fmt.Sprintf("/api/admin/requests/%s/approve", rec.ID), nil)))
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})

		t.Run("preview streams the letter inline", func(t *testing.T) {
			resp := env.do(t, auth(httptest.NewRequest(http.MethodGet,
				fmt.Sprintf("/api/admin/requests/%s/letter", rec.ID), nil)))
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, resp.Header.Get("Content-Disposition"), "inline")

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
		})

		t.Run("download sets attachment disposition", func(t *testing.T) {
			resp := env.do(t, auth(httptest.NewRequest(http.MethodGet,
				fmt.Sprintf("/api/admin/requests/%s/letter/download", rec.ID), nil)))
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
		})

		t.Run("admin list includes the request", func(t *testing.T) {
			resp := env.do(t, auth(httptest.NewRequest(http.MethodGet, "/api/admin/requests/", nil)))
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var out struct {
				Requests []models.InternshipRequest `json:"requests"`
			}
			decodeJSON(t, resp, &out)
			require.NotEmpty(t, out.Requests)

			found := false
			for _, r := range out.Requests {
				if r.ID == rec.ID {
					found = true
				}
			}
			assert.True(t, found)
		})

		t.Run("reject clears letter state", func(t *testing.T) {
			resp := env.do(t, auth(httptest.NewRequest(http.MethodPost,
				fmt.Sprintf("/api/admin/requests/%s/reject", rec.ID), nil)))
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var rejected models.InternshipRequest
			decodeJSON(t, resp, &rejected)
			assert.Equal(t, models.RequestStatusRejected, rejected.Status)
			assert.Nil(t, rejected.GeneratedLetterFilename)
			assert.Nil(t, rejected.IssuedDate)

			_, err := os.Stat(filepath.Join(env.cfg.GeneratedRoot, "offer_"+rec.ID+".pdf"))
			assert.True(t, os.IsNotExist(err), "letter file deleted on rejection")
		})

		t.Run("letter is forbidden after rejection", func(t *testing.T) {
			resp := env.do(t, auth(httptest.NewRequest(http.MethodGet,
				fmt.Sprintf("/api/admin/requests/%s/letter", rec.ID), nil)))
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})

		t.Run("unknown request id is not found", func(t *testing.T) {
			resp := env.do(t, auth(httptest.NewRequest(http.MethodGet, "/api/admin/requests/no-such-id", nil)))
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		})
	})

	t.Run("admin feature flags", func(t *testing.T) {
		token := env.login(t)
		req := httptest.NewRequest(http.MethodGet, "/api/admin/feature-flags", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := env.do(t, req)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out struct {
			Raw      map[string]string `json:"raw"`
			Snapshot map[string]bool   `json:"snapshot"`
		}
		decodeJSON(t, resp, &out)
		assert.Equal(t, "on", out.Raw["demo_banner"])
		assert.True(t, out.Snapshot["demo_banner"])
	})

	t.Run("logout without cache is accepted", func(t *testing.T) {
		token := env.login(t)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := env.do(t, req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
