package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-qr/internal/constants"
	"github.com/IgorGrieder/encurtador-qr/internal/transport/http/middleware"
	"github.com/IgorGrieder/encurtador-qr/pkg/httputils"
)

type QRHandler struct {
	svc LinkService
}

func NewQRHandler(svc LinkService) *QRHandler {
	return &QRHandler{svc: svc}
}

func (h *QRHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
		return
	}

	listings, err := h.svc.ListQRCodes(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err, "list qr codes", zap.Int64("owner", id.UserID))
		return
	}

	out := make([]qrListingResponse, 0, len(listings))
	for i := range listings {
		l := &listings[i]
		out = append(out, qrListingResponse{
			qrResponse: *toQRResponse(&l.QRCode),
			URL:        l.Link.TargetURL,
			ShortURL:   h.svc.ShortURL(&l.Link),
			Title:      l.Link.Title,
			Alias:      l.Link.Alias,
		})
	}
	httputils.WriteAPISuccess(w, r, constants.SuccessQRCodesFound, out)
}

func (h *QRHandler) Details(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
		return
	}
	qrID := r.PathValue("id")

	details, err := h.svc.QRDetails(r.Context(), id.UserID, qrID)
	if err != nil {
		writeServiceError(w, r, err, "load qr details", zap.String("qr_id", qrID))
		return
	}

	httputils.WriteAPISuccess(w, r, constants.SuccessDetailsFound, detailsResponse{
		Link:    toLinkResponse(h.svc, details.Link),
		QRCode:  toQRResponse(details.QRCode),
		Summary: details.Summary,
	})
}
