package server

import (
	"path/filepath"

	"github.com/gofiber/fiber/v2"
)

// ListRequests handles GET /api/admin/requests
func (s *Server) ListRequests(c *fiber.Ctx) error {
	p := parsePagination(c, 50)

	requests, err := s.requestService.List(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"requests": requests,
		"limit":    p.Limit,
		"offset":   p.Offset,
	})
}

// GetRequestAdmin handles GET /api/admin/requests/:id
func (s *Server) GetRequestAdmin(c *fiber.Ctx) error {
	rec, err := s.requestService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(rec)
}

// ApproveRequest handles POST /api/admin/requests/:id/approve
func (s *Server) ApproveRequest(c *fiber.Ctx) error {
	rec, err := s.requestService.Approve(c.Context(), c.Params("id"), s.requestActor(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(rec)
}

// RejectRequest handles POST /api/admin/requests/:id/reject
func (s *Server) RejectRequest(c *fiber.Ctx) error {
	rec, err := s.requestService.Reject(c.Context(), c.Params("id"), s.requestActor(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(rec)
}

// OpenPermission handles GET /api/admin/requests/:id/permission, streaming the
// applicant's uploaded document for review.
func (s *Server) OpenPermission(c *fiber.Ctx) error {
	absPath, err := s.requestService.OpenUpload(c.Context(), c.Params("id"), s.requestActor(c))
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filepath.Base(absPath)+`"`)
	return c.SendFile(absPath)
}

// GetFeatureFlags handles GET /api/admin/feature-flags
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	name, _ := c.Locals("adminName").(string)
	return c.JSON(fiber.Map{
		"raw":      s.featureFlags.Raw(),
		"snapshot": s.featureFlags.Snapshot(name),
	})
}
