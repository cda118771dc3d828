package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"interndesk/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapServiceError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", models.NewValidationError("bad input"), fiber.StatusBadRequest},
		{"invalid artifact", models.NewInvalidArtifactError("not a pdf"), fiber.StatusUnsupportedMediaType},
		{"not found", models.NewNotFoundError("Request", "r1"), fiber.StatusNotFound},
		{"forbidden", models.NewForbiddenError("no"), fiber.StatusForbidden},
		{"unauthorized", models.NewUnauthorizedError("no token"), fiber.StatusUnauthorized},
		{"storage", models.NewStorageError("write", errors.New("disk full")), fiber.StatusInternalServerError},
		{"generation", models.NewGenerationError(errors.New("render failed")), fiber.StatusInternalServerError},
		{"internal", models.NewInternalError(errors.New("boom")), fiber.StatusInternalServerError},
		{"plain error", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, mapServiceError(tc.err))
		})
	}
}

func TestParsePagination(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 50, 0},
		{"explicit values", "?limit=20&offset=40", 20, 40},
		{"limit capped", "?limit=500", 100, 0},
		{"negative values normalized", "?limit=-1&offset=-5", 50, 0},
		{"non-numeric ignored", "?limit=abc&offset=xyz", 50, 0},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			app := fiber.New()
			var got Pagination
			app.Get("/test", func(c *fiber.Ctx) error {
				got = parsePagination(c, 50)
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test"+tc.query, nil), -1)
			require.NoError(t, err)
			_ = resp.Body.Close()

			assert.Equal(t, tc.wantLimit, got.Limit)
			assert.Equal(t, tc.wantOffset, got.Offset)
		})
	}
}
