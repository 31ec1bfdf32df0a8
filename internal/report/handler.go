package report

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/core/identity"
	"github.com/frahmantamala/expense-approval/internal/expense"
	"github.com/frahmantamala/expense-approval/internal/transport"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ServiceAPI interface {
	ApprovalRows(ctx context.Context, caller *identity.Identity, status expense.Status) ([]*Row, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) ExportApprovals(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, internal.ErrUnauthenticated)
		return
	}

	rows, err := h.Service.ApprovalRows(r.Context(), caller, expense.Status(r.URL.Query().Get("status")))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, rows); err != nil {
		h.HandleServiceError(w, r, internal.NewInternalError("failed to render report", err))
		return
	}

	filename := fmt.Sprintf("approvals-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.Logger.Error("failed to stream report", "error", err)
	}
}
