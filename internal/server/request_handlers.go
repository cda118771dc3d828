package server

import (
	"io"

	"interndesk/internal/models"
	"interndesk/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SubmitRequest handles POST /api/requests. Applicants submit the form fields
// along with their permission document as multipart form data.
func (s *Server) SubmitRequest(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("permission_letter")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Permission document is required"))
	}

	f, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded file"))
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	in := service.SubmitInput{
		StudentName:    c.FormValue("student_name"),
		CollegeName:    c.FormValue("college_name"),
		CollegeAddress: c.FormValue("college_address"),
		Email:          c.FormValue("email"),
		StudentYear:    c.FormValue("student_year"),
		Branch:         c.FormValue("branch"),
		BranchOther:    c.FormValue("branch_other"),
		StartDate:      c.FormValue("start_date"),
		EndDate:        c.FormValue("end_date"),
		Duration:       c.FormValue("duration"),
		Filename:       fileHeader.Filename,
		ContentType:    fileHeader.Header.Get("Content-Type"),
		Content:        content,
	}

	rec, err := s.requestService.Submit(c.Context(), in)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(rec)
}

// PreviewLetter handles GET /api/admin/requests/:id/letter. The letter is
// streamed inline for viewing; unapproved requests get 403.
func (s *Server) PreviewLetter(c *fiber.Ctx) error {
	ref, err := s.requestService.PreviewLetter(c.Context(), c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+ref.Filename+`"`)
	return c.SendFile(ref.AbsPath)
}

// DownloadLetter handles GET /api/admin/requests/:id/letter/download
func (s *Server) DownloadLetter(c *fiber.Ctx) error {
	ref, err := s.requestService.DownloadLetter(c.Context(), c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+ref.Filename+`"`)
	return c.SendFile(ref.AbsPath)
}

// GetPublicFlags handles GET /api/flags. Only presentation flags are exposed
// to unauthenticated clients.
func (s *Server) GetPublicFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"demo_banner": s.featureFlags.Enabled("demo_banner", c.IP()),
	})
}
