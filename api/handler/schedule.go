package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/planner/api/transport"
	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/clock"
	sched "github.com/fastygo/planner/internal/schedule"
	"github.com/fastygo/planner/pkg/httpcontext"
	scheduleUC "github.com/fastygo/planner/usecase/schedule"
)

const defaultKeepAlive = 15 * time.Second

type ScheduleHandler struct {
	baseHandler
	svc       *scheduleUC.Service
	clock     clock.Clock
	root      context.Context
	keepAlive time.Duration
}

// NewScheduleHandler builds the schedule endpoints. Open streams end when
// root is cancelled.
func NewScheduleHandler(
	root context.Context,
	svc *scheduleUC.Service,
	clk clock.Clock,
	adapter *httpcontext.Adapter,
	logger *zap.Logger,
) *ScheduleHandler {
	if root == nil {
		root = context.Background()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &ScheduleHandler{
		baseHandler: newBaseHandler(adapter, logger),
		svc:         svc,
		clock:       clk,
		root:        root,
		keepAlive:   defaultKeepAlive,
	}
}

// @Summary Schedule board
// @Tags schedule
// @Param owner query string false "owner id, defaults to the caller"
// @Param mode query string false "day or week"
// @Param date query string false "anchor date YYYY-MM-DD, defaults to today"
// @Router /api/v1/schedule [get]
func (h *ScheduleHandler) GetBoard(ctx *fasthttp.RequestCtx) {
	viewerID := h.userID(ctx)
	if viewerID == "" {
		return
	}
	sel, err := h.selector(ctx, viewerID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	board, err := h.svc.Snapshot(stdCtx, viewerID, sel)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, board)
}

// @Summary Live schedule board stream
// @Description Server-sent events; one "board" event per change.
// @Tags schedule
// @Router /api/v1/schedule/stream [get]
func (h *ScheduleHandler) Stream(ctx *fasthttp.RequestCtx) {
	viewerID := h.userID(ctx)
	if viewerID == "" {
		return
	}
	sel, err := h.selector(ctx, viewerID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.adapter.AttachStream(ctx)
	sess, err := h.svc.Open(stdCtx, viewerID, sel)
	if err != nil {
		cancel()
		h.respondError(ctx, err)
		return
	}

	log := h.requestLogger(stdCtx).With(zap.String("owner_id", sel.OwnerID), zap.String("mode", string(sel.Mode)))
	log.Debug("schedule stream opened")

	ctx.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")
	ctx.Response.Header.Set("X-Accel-Buffering", "no")

	root := h.root
	keepAlive := h.keepAlive
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer sess.Close()
		defer log.Debug("schedule stream closed")

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		if err := writeEvent(w, "board", sess.Board()); err != nil {
			return
		}
		for {
			select {
			case board := <-sess.Updates():
				if err := writeEvent(w, "board", board); err != nil {
					return
				}
			case <-ticker.C:
				// Comment lines keep proxies open and reveal a gone client.
				if _, err := w.WriteString(": keep-alive\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-root.Done():
				return
			case <-stdCtx.Done():
				return
			}
		}
	})
}

func (h *ScheduleHandler) selector(ctx *fasthttp.RequestCtx, viewerID string) (domain.Selector, error) {
	args := ctx.QueryArgs()

	owner := strings.TrimSpace(string(args.Peek("owner")))
	if owner == "" {
		owner = viewerID
	}
	mode, err := domain.ParseMode(string(args.Peek("mode")))
	if err != nil {
		return domain.Selector{}, err
	}
	anchor := sched.Today(h.clock.Now())
	if raw := string(args.Peek("date")); raw != "" {
		if anchor, err = domain.ParseDate(raw); err != nil {
			return domain.Selector{}, err
		}
	}

	sel := domain.Selector{OwnerID: owner, Mode: mode, Anchor: anchor}
	return sel, sel.Validate()
}

func writeEvent(w *bufio.Writer, event string, payload interface{}) error {
	body, err := json.Marshal(transport.NewSuccess(payload, nil))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, body); err != nil {
		return err
	}
	return w.Flush()
}
