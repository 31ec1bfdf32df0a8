package currency

import (
	"context"
	"net/http"
	"strings"

	"github.com/frahmantamala/expense-approval/internal/core/common/validation"
	"github.com/frahmantamala/expense-approval/internal/transport"
	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
)

type ServiceAPI interface {
	Rates(ctx context.Context, base string) (*RateTable, error)
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*Conversion, error)
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

func (h *Handler) GetExchangeRates(w http.ResponseWriter, r *http.Request) {
	base := strings.ToUpper(chi.URLParam(r, "base"))
	if verr := validation.ValidateCurrencyCode(base); verr != nil {
		h.HandleServiceError(w, r, verr)
		return
	}

	table, err := h.Service.Rates(r.Context(), base)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, table)
}

func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	var dto ConvertDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if verr := dto.Validate(); verr != nil {
		h.HandleServiceError(w, r, verr)
		return
	}

	conv, err := h.Service.Convert(r.Context(), dto.Amount, dto.From, dto.To)
	if err != nil {
		h.Logger.Warn("Convert: conversion failed", "from", dto.From, "to", dto.To, "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ConvertResponse{
		OriginalAmount:   dto.Amount,
		OriginalCurrency: dto.From,
		ConvertedAmount:  conv.Amount,
		TargetCurrency:   dto.To,
		ExchangeRate:     conv.Rate,
		RateDate:         conv.Date,
	})
}
