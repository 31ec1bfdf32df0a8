package approval

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/core/identity"
	"github.com/frahmantamala/expense-approval/internal/transport"
)

type ServiceAPI interface {
	Approve(ctx context.Context, caller *identity.Identity, approvalID int64, dto DecisionDTO) (*DecisionResult, error)
	Reject(ctx context.Context, caller *identity.Identity, approvalID int64, dto DecisionDTO) (*DecisionResult, error)
	GetApprovalStatus(ctx context.Context, caller *identity.Identity, expenseID int64) (*ApprovalStatus, error)
	ListApprovals(ctx context.Context, caller *identity.Identity, filter ListFilter) ([]*Approval, error)
	GetApproval(ctx context.Context, caller *identity.Identity, id int64) (*Approval, error)
	Inbox(ctx context.Context, caller *identity.Identity, limit, offset int) ([]*InboxItem, error)
	History(ctx context.Context, caller *identity.Identity, expenseID int64) ([]*AuditEntry, error)
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

func (h *Handler) ListApprovals(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, internal.ErrUnauthenticated)
		return
	}

	limit, offset := h.Pagination(r)
	filter := ListFilter{
		Status: Status(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	}
	if raw := r.URL.Query().Get("expense_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.HandleServiceError(w, r, internal.NewValidationFieldError("expense_id", "expense_id must be a positive id", internal.ErrCodeValidationFailed))
			return
		}
		filter.ExpenseID = &id
	}

	approvals, err := h.Service.ListApprovals(r.Context(), caller, filter)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ApprovalsResponse{Approvals: approvals, Limit: limit, Offset: offset})
}

func (h *Handler) Inbox(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, internal.ErrUnauthenticated)
		return
	}

	limit, offset := h.Pagination(r)
	items, err := h.Service.Inbox(r.Context(), caller, limit, offset)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, InboxResponse{Items: items, Limit: limit, Offset: offset})
}

func (h *Handler) GetApproval(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, internal.ErrUnauthenticated)
		return
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	a, err := h.Service.GetApproval(r.Context(), caller, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Approve)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Reject)
}

type decisionFunc func(ctx context.Context, caller *identity.Identity, approvalID int64, dto DecisionDTO) (*DecisionResult, error)

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn decisionFunc) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, internal.ErrUnauthenticated)
		return
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	var dto DecisionDTO
	if r.ContentLength != 0 {
		if err := h.DecodeJSON(r, &dto); err != nil {
			h.HandleServiceError(w, r, err)
			return
		}
	}

	result, err := fn(r.Context(), caller, id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) GetApprovalStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, internal.ErrUnauthenticated)
		return
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	status, err := h.Service.GetApprovalStatus(r.Context(), caller, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, internal.ErrUnauthenticated)
		return
	}
	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	entries, err := h.Service.History(r.Context(), caller, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, HistoryResponse{ExpenseID: id, Entries: entries})
}
