package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"service-marketplace-api/internal/auth"
	"service-marketplace-api/internal/common"
	"service-marketplace-api/internal/dashboard"
	"service-marketplace-api/internal/service"

	"github.com/labstack/echo"
)

const streamKeepAlive = 25 * time.Second

type dashboardRoutesHandler struct {
	services *service.Services
	streams  context.Context
	logger   *slog.Logger
}

func newDashboardRoutesHandler(outer *echo.Group, opts Options) *dashboardRoutesHandler {
	h := &dashboardRoutesHandler{services: opts.Services, streams: opts.Streams, logger: opts.Logger}

	outer.GET("/dashboard", h.GetDashboard)
	outer.GET("/dashboard/stream", h.StreamDashboard)

	return h
}

type dashboardOutput struct {
	Role  string `json:"role"`
	Stats any    `json:"stats"`
}

// openView starts the dashboard context matching the actor's role.
// onStats may be nil.
func (h *dashboardRoutesHandler) openView(ctx context.Context, onStats func(any)) (func() any, func(), error) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		return nil, nil, service.ErrNoActor
	}

	if common.IsProviderRole(actor.Role) {
		var cb func(dashboard.ProviderStats)
		if onStats != nil {
			cb = func(s dashboard.ProviderStats) { onStats(s) }
		}
		view, err := dashboard.NewProviderContext(ctx, h.services, cb)
		if err != nil {
			return nil, nil, err
		}
		return func() any { return view.Stats() }, view.Close, nil
	}

	var cb func(dashboard.OrderGiverStats)
	if onStats != nil {
		cb = func(s dashboard.OrderGiverStats) { onStats(s) }
	}
	view, err := dashboard.NewOrderGiverContext(ctx, h.services, cb)
	if err != nil {
		return nil, nil, err
	}

	return func() any { return view.Stats() }, view.Close, nil
}

// /dashboard
func (h *dashboardRoutesHandler) GetDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	stats, closeView, err := h.openView(ctx, nil)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	defer closeView()

	actor, _ := auth.ActorFromContext(ctx)

	return c.JSON(http.StatusOK, dashboardOutput{Role: actor.Role, Stats: stats()})
}

// /dashboard/stream pushes fresh stats as server-sent events until the client goes away.
func (h *dashboardRoutesHandler) StreamDashboard(c echo.Context) error {
	ctx := c.Request().Context()

	// only the latest stats matter, older pending ones are replaced
	updates := make(chan any, 1)
	push := func(s any) {
		for {
			select {
			case updates <- s:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	}

	_, closeView, err := h.openView(ctx, push)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	defer closeView()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.streams.Done():
			return nil
		case <-keepAlive.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case stats := <-updates:
			data, err := json.Marshal(stats)
			if err != nil {
				h.logger.Error("encode dashboard stats", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(res, "event: stats\ndata: %s\n\n", data); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
