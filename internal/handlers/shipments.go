package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/veldpost/api/internal/domain"
	"github.com/veldpost/api/internal/platform/httpx"
	"github.com/veldpost/api/internal/repositories"
	"github.com/veldpost/api/internal/services"
)

const maxConvertRequestBody = 32 * 1024

// OrderConverter builds and publishes consignments for orders.
type OrderConverter interface {
	Convert(ctx context.Context, cmd services.ConvertOrderCommand) (services.ConvertOrderResult, error)
}

// ShipmentHandlers exposes the order-to-consignment conversion endpoint.
type ShipmentHandlers struct {
	converter OrderConverter
}

// NewShipmentHandlers constructs a shipment handler set.
func NewShipmentHandlers(converter OrderConverter) *ShipmentHandlers {
	return &ShipmentHandlers{converter: converter}
}

// Routes registers the shipment endpoints at the API root.
func (h *ShipmentHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/orders/{orderId}/shipments:convert", h.convert)
}

type convertShipmentRequest struct {
	Options convertShipmentOptions `json:"options"`
}

// convertShipmentOptions mirrors the shipment form. Pointer fields distinguish
// "left untouched" from an explicit false.
type convertShipmentOptions struct {
	PackageType        string `json:"packageType,omitempty"`
	Carrier            string `json:"carrier,omitempty"`
	Insurance          *int   `json:"insurance,omitempty"`
	Signature          *bool  `json:"signature,omitempty"`
	OnlyRecipient      *bool  `json:"onlyRecipient,omitempty"`
	SameDayDelivery    *bool  `json:"sameDayDelivery,omitempty"`
	Return             *bool  `json:"return,omitempty"`
	AgeCheck           *bool  `json:"ageCheck,omitempty"`
	LargeFormat        *bool  `json:"largeFormat,omitempty"`
	DigitalStampWeight *int   `json:"digitalStampWeight,omitempty"`
}

type consignmentPayload struct {
	ReferenceID         string     `json:"referenceId"`
	Carrier             string     `json:"carrier"`
	PackageType         string     `json:"packageType"`
	PackageTypeID       int        `json:"packageTypeId"`
	DeliveryDate        *time.Time `json:"deliveryDate,omitempty"`
	DropOffDelayDays    int        `json:"dropOffDelayDays,omitempty"`
	PhysicalWeightGrams int        `json:"physicalWeightGrams,omitempty"`
	LabelDescription    string     `json:"labelDescription,omitempty"`
	CustomsItemCount    int        `json:"customsItemCount,omitempty"`
	MessageID           string     `json:"messageId,omitempty"`
}

func (h *ShipmentHandlers) convert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.converter == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "consignment service not available", http.StatusServiceUnavailable))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order_id is required", http.StatusBadRequest))
		return
	}

	var req convertShipmentRequest
	body, err := readLimitedBody(r, maxConvertRequestBody)
	switch {
	case errors.Is(err, errEmptyBody):
		// A bare conversion uses checkout choices and configuration only.
	case err != nil:
		writeBodyError(ctx, w, err)
		return
	default:
		if err := json.Unmarshal(body, &req); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
			return
		}
	}

	cmd := services.ConvertOrderCommand{
		OrderID: orderID,
		Options: domain.ExplicitOptions{
			PackageType:        req.Options.PackageType,
			Carrier:            req.Options.Carrier,
			Insurance:          req.Options.Insurance,
			Signature:          req.Options.Signature,
			OnlyRecipient:      req.Options.OnlyRecipient,
			SameDayDelivery:    req.Options.SameDayDelivery,
			Return:             req.Options.Return,
			AgeCheck:           req.Options.AgeCheck,
			LargeFormat:        req.Options.LargeFormat,
			DigitalStampWeight: req.Options.DigitalStampWeight,
		},
	}

	result, err := h.converter.Convert(ctx, cmd)
	if err != nil {
		writeConvertError(ctx, w, err)
		return
	}

	consignment := result.Consignment
	payload := consignmentPayload{
		ReferenceID:         consignment.ReferenceID,
		Carrier:             consignment.Carrier,
		PackageType:         string(consignment.PackageType),
		PackageTypeID:       consignment.PackageTypeID,
		DeliveryDate:        consignment.DeliveryDate,
		DropOffDelayDays:    consignment.DropOffDelayDays,
		PhysicalWeightGrams: consignment.PhysicalWeightGrams,
		LabelDescription:    consignment.Options.LabelDescription,
		CustomsItemCount:    len(consignment.CustomsItems),
		MessageID:           result.MessageID,
	}
	writeJSONResponse(w, http.StatusCreated, map[string]any{"consignment": payload})
}

func writeConvertError(ctx context.Context, w http.ResponseWriter, err error) {
	var validation *domain.ConsignmentValidationError
	var repoErr repositories.RepositoryError

	switch {
	case errors.Is(err, services.ErrUnknownCarrier),
		errors.Is(err, services.ErrUnknownPackageType):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrDigitalStampWeight):
		httpx.WriteError(ctx, w, httpx.NewError("digital_stamp_weight_missing", err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrConsignmentInvalid):
		e := httpx.NewError("consignment_invalid", err.Error(), http.StatusUnprocessableEntity)
		if errors.As(err, &validation) {
			e = e.WithDetails(map[string]any{"problems": validation.Problems()})
		}
		httpx.WriteError(ctx, w, e)
	case errors.As(err, &repoErr) && repoErr.IsNotFound():
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.As(err, &repoErr) && repoErr.IsUnavailable():
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "storage unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "failed to convert order", http.StatusInternalServerError))
	}
}
