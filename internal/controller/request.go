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

type requestRoutesHandler struct {
	requestService  service.Request
	quoteService    service.Quote
	matchingService service.Matching
	validate        *validator.Validate
	logger          *slog.Logger
}

func newRequestRoutesHandler(outer *echo.Group, opts Options, v *validator.Validate) *requestRoutesHandler {
	h := &requestRoutesHandler{
		requestService:  opts.Services.Request,
		quoteService:    opts.Services.Quote,
		matchingService: opts.Services.Matching,
		validate:        v,
		logger:          opts.Logger,
	}

	outer.POST("/requests/new", h.PostRequest)
	outer.GET("/requests/my", h.GetUserRequests)
	outer.GET("/requests/open", h.GetOpenRequests)
	outer.GET("/requests/:requestId", h.GetRequest)
	outer.PATCH("/requests/:requestId/edit", h.EditRequest)
	outer.PUT("/requests/:requestId/cancel", h.CancelRequest)
	outer.PUT("/requests/:requestId/complete", h.CompleteRequest)
	outer.PUT("/requests/:requestId/rate", h.RateRequest)
	outer.GET("/requests/:requestId/quotes", h.GetRequestQuotes)
	outer.POST("/requests/:requestId/broadcast", h.BroadcastRequest)
	outer.GET("/providers", h.GetMatchingProviders)

	return h
}

type locationInput struct {
	Address string   `json:"address" validate:"required,max=300"`
	Lat     *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng     *float64 `json:"lng" validate:"omitempty,longitude"`
}

func (l *locationInput) toEntity() entity.Location {
	return entity.Location{Address: l.Address, Lat: l.Lat, Lng: l.Lng}
}

type contactInput struct {
	Person string `json:"person" validate:"max=100"`
	Phone  string `json:"phone" validate:"max=30"`
	Email  string `json:"email" validate:"omitempty,email"`
}

func (c *contactInput) toEntity() entity.Contact {
	return entity.Contact{Person: c.Person, Phone: c.Phone, Email: c.Email}
}

type budgetInput struct {
	Amount   *decimal.Decimal `json:"amount"`
	Currency string           `json:"currency" validate:"omitempty,len=3"`
}

type postRequestInput struct {
	Title       string        `json:"title" validate:"required,max=200"`
	Description string        `json:"description" validate:"max=5000"`
	ServiceType string        `json:"serviceType" validate:"required,max=100"`
	Priority    string        `json:"priority" validate:"omitempty,oneof=urgence_depannage urgent_sur_devis travaux_importants"`
	Location    locationInput `json:"location"`
	Budget      budgetInput   `json:"budget"`
	Contact     contactInput  `json:"contact"`
	Files       []string      `json:"files" validate:"max=20,dive,url"`
	// Area, when set, also announces the request to the providers serving it.
	Area string `json:"area" validate:"max=100"`
}

type postRequestOutput struct {
	Request           *entity.RequestOutputModel `json:"request"`
	NotifiedProviders int                        `json:"notifiedProviders"`
}

// /requests/new
func (h *requestRoutesHandler) PostRequest(c echo.Context) error {
	var input postRequestInput
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	model := &entity.CreateRequestInput{
		Title: input.Title, Description: input.Description, ServiceType: input.ServiceType,
		Priority: input.Priority, Location: input.Location.toEntity(), Contact: input.Contact.toEntity(),
		BudgetAmount: input.Budget.Amount, BudgetCurrency: input.Budget.Currency, Files: input.Files,
	}

	ctx := c.Request().Context()
	request, err := h.requestService.CreateRequest(ctx, model)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	out := postRequestOutput{Request: request}
	if input.Area != "" {
		out.NotifiedProviders, err = h.matchingService.BroadcastRequest(ctx, request.Id, input.Area)
		if err != nil {
			h.logger.Warn("broadcast after create failed", "requestId", request.Id, "error", err)
		}
	}

	return c.JSON(http.StatusOK, out)
}

// /requests/my
func (h *requestRoutesHandler) GetUserRequests(c echo.Context) error {
	var input = newPaginationInput()
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	requests, err := h.requestService.ListUserRequests(c.Request().Context(), input.toEntity())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, requests)
}

type getOpenRequestsInput struct {
	Limit       int32  `query:"limit" validate:"gte=0,lte=100"`
	Offset      int32  `query:"offset" validate:"gte=0"`
	ServiceType string `query:"serviceType" validate:"max=100"`
}

// /requests/open
func (h *requestRoutesHandler) GetOpenRequests(c echo.Context) error {
	var input = getOpenRequestsInput{Limit: defaultLimit, Offset: defaultOffset}
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	requests, err := h.requestService.ListOpenRequests(c.Request().Context(), input.ServiceType, entity.NewPaginationInput(int(input.Limit), int(input.Offset)))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, requests)
}

// /requests/:requestId
func (h *requestRoutesHandler) GetRequest(c echo.Context) error {
	request, err := h.requestService.GetRequestById(c.Request().Context(), c.Param("requestId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, request)
}

type editRequestInput struct {
	Title       *string        `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string        `json:"description" validate:"omitempty,max=5000"`
	ServiceType *string        `json:"serviceType" validate:"omitempty,min=1,max=100"`
	Priority    *string        `json:"priority" validate:"omitempty,oneof=urgence_depannage urgent_sur_devis travaux_importants"`
	Location    *locationInput `json:"location"`
	Budget      *budgetInput   `json:"budget"`
	Contact     *contactInput  `json:"contact"`
	Files       *[]string      `json:"files" validate:"omitempty,max=20,dive,url"`
}

// /requests/:requestId/edit
func (h *requestRoutesHandler) EditRequest(c echo.Context) error {
	var input editRequestInput
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	model := &entity.UpdateRequestInput{
		Title: input.Title, Description: input.Description, ServiceType: input.ServiceType,
		Priority: input.Priority, Files: input.Files,
	}
	if input.Location != nil {
		l := input.Location.toEntity()
		model.Location = &l
	}
	if input.Contact != nil {
		contact := input.Contact.toEntity()
		model.Contact = &contact
	}
	if input.Budget != nil {
		model.BudgetAmount = input.Budget.Amount
		if input.Budget.Currency != "" {
			model.BudgetCurrency = &input.Budget.Currency
		}
	}

	request, err := h.requestService.UpdateRequest(c.Request().Context(), c.Param("requestId"), model)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, request)
}

// /requests/:requestId/cancel
func (h *requestRoutesHandler) CancelRequest(c echo.Context) error {
	request, err := h.requestService.CancelRequest(c.Request().Context(), c.Param("requestId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, request)
}

// /requests/:requestId/complete
func (h *requestRoutesHandler) CompleteRequest(c echo.Context) error {
	request, err := h.requestService.CompleteRequest(c.Request().Context(), c.Param("requestId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, request)
}

type rateRequestInput struct {
	Rating int    `json:"rating" validate:"required,gte=1,lte=5"`
	Review string `json:"review" validate:"max=2000"`
}

// /requests/:requestId/rate
func (h *requestRoutesHandler) RateRequest(c echo.Context) error {
	var input rateRequestInput
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	request, err := h.requestService.RateRequest(c.Request().Context(), c.Param("requestId"), input.Rating, input.Review)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, request)
}

// /requests/:requestId/quotes
func (h *requestRoutesHandler) GetRequestQuotes(c echo.Context) error {
	var input = newPaginationInput()
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	quotes, err := h.quoteService.ListRequestQuotes(c.Request().Context(), c.Param("requestId"), input.toEntity())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, quotes)
}

type broadcastInput struct {
	Area string `json:"area" validate:"max=100"`
}

type broadcastOutput struct {
	NotifiedProviders int `json:"notifiedProviders"`
}

// /requests/:requestId/broadcast
func (h *requestRoutesHandler) BroadcastRequest(c echo.Context) error {
	var input broadcastInput
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	notified, err := h.matchingService.BroadcastRequest(c.Request().Context(), c.Param("requestId"), input.Area)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, broadcastOutput{notified})
}

type getProvidersInput struct {
	ServiceType string `query:"serviceType" validate:"required,max=100"`
	Area        string `query:"area" validate:"max=100"`
}

// /providers
func (h *requestRoutesHandler) GetMatchingProviders(c echo.Context) error {
	var input getProvidersInput
	if ok, err := bindAndValidate(c, h.validate, &input); !ok {
		return err
	}

	providers := h.matchingService.GetMatchingProviders(c.Request().Context(), input.ServiceType, input.Area)

	return c.JSON(http.StatusOK, providers)
}
