package http

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-qr/internal/constants"
	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/logger"
	appvalidation "github.com/IgorGrieder/encurtador-qr/internal/infrastructure/validation"
	"github.com/IgorGrieder/encurtador-qr/internal/processing/analytics"
	"github.com/IgorGrieder/encurtador-qr/internal/processing/links"
	"github.com/IgorGrieder/encurtador-qr/internal/transport/http/middleware"
	"github.com/IgorGrieder/encurtador-qr/pkg/httputils"
)

//go:embed static/not_found.html
var notFoundPage []byte

type LinksHandler struct {
	svc LinkService

	redirectStatus int
	asyncVisit     bool
	visitTimeout   time.Duration
	pending        *sync.WaitGroup
}

type LinksHandlerOptions struct {
	RedirectStatus int
	AsyncVisit     bool
	VisitTimeout   time.Duration
	// PendingVisits tracks async visit writes so shutdown can drain them
	// before closing storage.
	PendingVisits *sync.WaitGroup
}

func NewLinksHandler(svc LinkService, opts LinksHandlerOptions) *LinksHandler {
	if opts.VisitTimeout <= 0 {
		opts.VisitTimeout = 5 * time.Second
	}
	if opts.RedirectStatus == 0 {
		opts.RedirectStatus = http.StatusMovedPermanently
	}
	if opts.PendingVisits == nil {
		opts.PendingVisits = &sync.WaitGroup{}
	}

	return &LinksHandler{
		svc:            svc,
		redirectStatus: opts.RedirectStatus,
		asyncVisit:     opts.AsyncVisit,
		visitTimeout:   opts.VisitTimeout,
		pending:        opts.PendingVisits,
	}
}

type createLinkRequest struct {
	LongURL    string `json:"long_url" validate:"required,notblank,http_url"`
	Title      string `json:"title,omitempty" validate:"max=200"`
	Alias      string `json:"custom_back_half,omitempty" validate:"omitempty,max=32,alias"`
	GenerateQR bool   `json:"generate_qr,omitempty"`
}

type createLinkResponse struct {
	linkResponse
	QRCode *qrResponse `json:"qr_code,omitempty"`
}

func (h *LinksHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
		return
	}

	var req createLinkRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.svc.CreateLink(r.Context(), links.CreateLinkInput{
		Owner:      id.UserID,
		ClientIP:   httputils.ClientIP(r),
		LongURL:    req.LongURL,
		Title:      req.Title,
		Alias:      req.Alias,
		GenerateQR: req.GenerateQR,
	})
	if err != nil {
		writeServiceError(w, r, err, "create link")
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLinkCreated, createLinkResponse{
		linkResponse: toLinkResponse(h.svc, res.Link),
		QRCode:       toQRResponse(res.QRCode),
	})
}

func (h *LinksHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
		return
	}

	found, err := h.svc.ListLinks(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err, "list links", zap.Int64("owner", id.UserID))
		return
	}

	out := make([]linkResponse, 0, len(found))
	for i := range found {
		out = append(out, toLinkResponse(h.svc, &found[i]))
	}
	httputils.WriteAPISuccess(w, r, constants.SuccessLinksFound, out)
}

func (h *LinksHandler) Details(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
		return
	}
	key := r.PathValue("id")

	details, err := h.svc.LinkDetails(r.Context(), id.UserID, key)
	if err != nil {
		writeServiceError(w, r, err, "load link details", zap.String("key", key))
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessDetailsFound, detailsResponse{
		Link:    toLinkResponse(h.svc, details.Link),
		QRCode:  toQRResponse(details.QRCode),
		Summary: details.Summary,
	})
}

type updateLinkRequest struct {
	Alias *string `json:"custom_back_half,omitempty" validate:"omitempty,max=32,alias"`
	Title *string `json:"title,omitempty" validate:"omitempty,max=200"`
}

func (h *LinksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
		return
	}
	key := r.PathValue("id")

	var req updateLinkRequest
	if !decodeBody(w, r, &req) {
		return
	}

	link, err := h.svc.UpdateLink(r.Context(), id.UserID, key, links.UpdateLinkInput{
		Alias: req.Alias,
		Title: req.Title,
	})
	if err != nil {
		writeServiceError(w, r, err, "update link", zap.String("key", key))
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLinkUpdated, toLinkResponse(h.svc, link))
}

func (h *LinksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
		return
	}
	key := r.PathValue("id")

	if err := h.svc.DeleteLink(r.Context(), id.UserID, key); err != nil {
		writeServiceError(w, r, err, "delete link", zap.String("key", key))
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessLinkDeleted, nil)
}

func (h *LinksHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("id")

	link, err := h.svc.Resolve(r.Context(), key)
	if err != nil {
		if errors.Is(err, links.ErrNotFound) {
			writeNotFoundPage(w)
			return
		}
		logger.Error("failed to resolve link", zap.Error(err), zap.String("key", key))
		httputils.WriteAPIError(w, r, constants.ErrInternalError)
		return
	}

	kind := analytics.KindLink
	if r.URL.Query().Get("r") == "qr" {
		kind = analytics.KindQR
	}
	visit := links.VisitInput{
		Link:      link,
		Kind:      kind,
		ClientIP:  httputils.ClientIP(r),
		UserAgent: r.UserAgent(),
	}

	if h.asyncVisit {
		// The request context is cancelled once the redirect is written.
		ctx := trace.ContextWithSpanContext(context.Background(), trace.SpanContextFromContext(r.Context()))
		h.pending.Add(1)
		go func() {
			defer h.pending.Done()
			h.recordVisit(ctx, visit)
		}()
	} else {
		h.recordVisit(r.Context(), visit)
	}

	redirectsTotal.WithLabelValues(string(kind)).Inc()
	http.Redirect(w, r, link.TargetURL, h.redirectStatus)
}

func (h *LinksHandler) recordVisit(ctx context.Context, visit links.VisitInput) {
	ctx, cancel := context.WithTimeout(ctx, h.visitTimeout)
	defer cancel()

	if err := h.svc.RecordVisit(ctx, visit); err != nil {
		visitRecordFailures.WithLabelValues(string(visit.Kind)).Inc()
		logger.Warn("failed to record visit",
			zap.Error(err),
			zap.String("code", visit.Link.Code),
			zap.String("kind", string(visit.Kind)),
		)
	}
}

type statsResponse struct {
	Key   string             `json:"key"`
	From  string             `json:"from"`
	To    string             `json:"to"`
	Daily []links.DailyCount `json:"daily"`
}

type statsQueryParams struct {
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`
}

func (h *LinksHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
		return
	}
	key := r.PathValue("id")

	params := statsQueryParams{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}
	if err := appvalidation.Validate(params); err != nil {
		apiErr := constants.ErrInvalidRequestBody
		if msg, ok := appvalidation.FirstMessage(err); ok {
			apiErr = apiErr.WithMessage(msg)
		}
		httputils.WriteAPIError(w, r, apiErr)
		return
	}

	from, err := time.Parse(time.DateOnly, params.From)
	if err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("invalid from (YYYY-MM-DD)"))
		return
	}
	to, err := time.Parse(time.DateOnly, params.To)
	if err != nil {
		httputils.WriteAPIError(w, r, constants.ErrInvalidRequestBody.WithMessage("invalid to (YYYY-MM-DD)"))
		return
	}

	daily, err := h.svc.GetStats(r.Context(), id.UserID, key, from, to)
	if err != nil {
		writeServiceError(w, r, err, "fetch stats", zap.String("key", key))
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessStatsFound, statsResponse{
		Key:   key,
		From:  from.Format(time.DateOnly),
		To:    to.Format(time.DateOnly),
		Daily: daily,
	})
}

func writeNotFoundPage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if _, err := w.Write(notFoundPage); err != nil {
		logger.Debug("failed to write not found page", zap.Error(err))
	}
}
