package handler

import (
	"time"

	"github.com/MayderC/zayrel-be/internal/models"
)

type orderItemResponse struct {
	VariantID uint64 `json:"variant_id"`
	Quantity  int32  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type proofResponse struct {
	StorageRef   string `json:"storage_ref,omitempty"`
	Method       string `json:"method,omitempty"`
	Reference    string `json:"reference,omitempty"`
	ReviewStatus string `json:"review_status,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

type orderResponse struct {
	ID               string              `json:"id"`
	Status           string              `json:"status"`
	Type             string              `json:"type"`
	Currency         string              `json:"currency"`
	Subtotal         int64               `json:"subtotal"`
	ShippingAddress  string              `json:"shipping_address,omitempty"`
	TrackingNumber   string              `json:"tracking_number,omitempty"`
	ShippingProvider string              `json:"shipping_provider,omitempty"`
	Items            []orderItemResponse `json:"items,omitempty"`
	Proof            *proofResponse      `json:"payment_proof,omitempty"`
	CreatedAt        string              `json:"created_at"`
}

func toOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		ID:               order.ID.String(),
		Status:           order.Status,
		Type:             order.Type,
		Currency:         order.Currency,
		Subtotal:         order.Subtotal(),
		ShippingAddress:  order.ShippingAddress,
		TrackingNumber:   order.TrackingNumber,
		ShippingProvider: order.ShippingProvider,
		CreatedAt:        order.CreatedAt.Format(time.RFC3339),
	}

	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	if order.Proof != nil {
		resp.Proof = &proofResponse{
			StorageRef:   order.Proof.StorageRef,
			Method:       order.Proof.Method,
			Reference:    order.Proof.Reference,
			ReviewStatus: order.Proof.ReviewStatus,
			Reason:       order.Proof.Reason,
		}
	}

	return resp
}
