package controller

import (
	"log/slog"
	"net/http"

	"service-marketplace-api/internal/entity"
	"service-marketplace-api/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo"
	"github.com/shopspring/decimal"
)

type projectRoutesHandler struct {
	projectService service.Project
	invoiceService service.Invoice
	validate       *validator.Validate
	logger         *slog.Logger
}

func newProjectRoutesHandler(outer *echo.Group, opts Options, v *validator.Validate) *projectRoutesHandler {
	h := &projectRoutesHandler{
		projectService: opts.Services.Project,
		invoiceService: opts.Services.Invoice,
		validate:       v,
		logger:         opts.Logger,
	}

	outer.GET("/projects/my", h.GetUserProjects)
	outer.GET("/projects/:projectId", h.GetProject)
	outer.PUT("/projects/:projectId/progress", h.UpdateProgress)
	outer.POST("/projects/:projectId/comments", h.PostComment)
	outer.POST("/projects/:projectId/photos", h.PostPhoto)
	outer.POST("/projects/:projectId/invoice", h.PostInvoice)

	return h
}

// /projects/my
func (h *projectRoutesHandler) GetUserProjects(c echo.Context) error {
	var input = newPaginationInput()
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	projects, err := h.projectService.ListUserProjects(c.Request().Context(), input.toEntity())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, projects)
}

// /projects/:projectId
func (h *projectRoutesHandler) GetProject(c echo.Context) error {
	project, err := h.projectService.GetProjectById(c.Request().Context(), c.Param("projectId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, project)
}

type photoInput struct {
	Url  string `json:"url" validate:"required,url"`
	Name string `json:"name" validate:"max=200"`
}

type progressInput struct {
	// out of range values are clamped by the service
	Progress *int        `json:"progress" validate:"required"`
	Status   *string     `json:"status" validate:"omitempty,oneof=active completed"`
	Comment  *string     `json:"comment" validate:"omitempty,max=2000"`
	Photo    *photoInput `json:"photo"`
}

// /projects/:projectId/progress
func (h *projectRoutesHandler) UpdateProgress(c echo.Context) error {
	var input progressInput
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	updates := &entity.ProjectUpdatesInput{Status: input.Status, Comment: input.Comment}
	if input.Photo != nil {
		updates.Photo = &entity.Photo{Url: input.Photo.Url, Name: input.Photo.Name}
	}

	project, err := h.projectService.UpdateProjectProgress(c.Request().Context(), c.Param("projectId"), *input.Progress, updates)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, project)
}

type commentInput struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// /projects/:projectId/comments
func (h *projectRoutesHandler) PostComment(c echo.Context) error {
	var input commentInput
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	project, err := h.projectService.AddProjectComment(c.Request().Context(), c.Param("projectId"), input.Text)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, project)
}

// /projects/:projectId/photos
func (h *projectRoutesHandler) PostPhoto(c echo.Context) error {
	var input photoInput
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	photo := entity.Photo{Url: input.Url, Name: input.Name}
	project, err := h.projectService.AddProjectPhoto(c.Request().Context(), c.Param("projectId"), photo)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, project)
}

type invoiceInput struct {
	Amount   *decimal.Decimal `json:"amount"`
	Currency *string          `json:"currency" validate:"omitempty,len=3"`
	Note     *string          `json:"note" validate:"omitempty,max=2000"`
}

// /projects/:projectId/invoice
func (h *projectRoutesHandler) PostInvoice(c echo.Context) error {
	var input invoiceInput
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	overrides := &entity.InvoiceOverridesInput{Amount: input.Amount, Currency: input.Currency, Note: input.Note}
	invoice, err := h.invoiceService.GenerateInvoice(c.Request().Context(), c.Param("projectId"), overrides)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, invoice)
}
