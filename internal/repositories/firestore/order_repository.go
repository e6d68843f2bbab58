package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/veldpost/api/internal/domain"
	pfirestore "github.com/veldpost/api/internal/platform/firestore"
)

const ordersCollection = "orders"

// OrderRepository reads shipment order projections and writes back workflow
// status transitions.
type OrderRepository struct {
	provider *pfirestore.Provider
	now      func() time.Time
}

// OrderRepositoryOption customises the repository behaviour.
type OrderRepositoryOption func(*OrderRepository)

// WithOrderClock injects a custom clock primarily for tests.
func WithOrderClock(clock func() time.Time) OrderRepositoryOption {
	return func(repo *OrderRepository) {
		if clock != nil {
			repo.now = clock
		}
	}
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider, opts ...OrderRepositoryOption) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository: firestore provider is required")
	}
	repo := &OrderRepository{provider: provider, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo, nil
}

// GetOrder fetches the order projection by document id.
func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (domain.ShipmentOrder, error) {
	docRef, err := r.document(ctx, orderID)
	if err != nil {
		return domain.ShipmentOrder{}, err
	}
	snap, err := docRef.Get(ctx)
	if err != nil {
		return domain.ShipmentOrder{}, pfirestore.WrapError("orders.get", err)
	}
	var doc orderDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.ShipmentOrder{}, fmt.Errorf("order repository: decode document %s: %w", snap.Ref.ID, err)
	}
	return decodeOrderDocument(snap.Ref.ID, doc), nil
}

// SetOrderStatus transitions the order status inside a transaction so a
// concurrent fulfilment update cannot be overwritten blindly.
func (r *OrderRepository) SetOrderStatus(ctx context.Context, orderID string, status string) error {
	docRef, err := r.document(ctx, orderID)
	if err != nil {
		return err
	}
	status = strings.TrimSpace(status)
	if status == "" {
		return errors.New("order repository: status is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}

	return pfirestore.RunTransaction(ctx, client, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(docRef); err != nil {
			return err
		}
		return tx.Update(docRef, []firestore.Update{
			{Path: "status", Value: status},
			{Path: "updatedAt", Value: r.now().UTC()},
		})
	})
}

func (r *OrderRepository) document(ctx context.Context, orderID string) (*firestore.DocumentRef, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("order repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, errors.New("order repository: order id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(ordersCollection).Doc(orderID), nil
}

type orderDocument struct {
	IncrementID string                `firestore:"incrementId"`
	Status      string                `firestore:"status"`
	Address     *orderAddressDocument `firestore:"shippingAddress,omitempty"`
	Items       []orderItemDocument   `firestore:"items"`
	Delivery    *deliveryDocument     `firestore:"delivery,omitempty"`
	UpdatedAt   time.Time             `firestore:"updatedAt"`
}

type orderAddressDocument struct {
	Recipient  string `firestore:"recipient"`
	Company    string `firestore:"company,omitempty"`
	Street     string `firestore:"street"`
	City       string `firestore:"city"`
	PostalCode string `firestore:"postalCode"`
	Country    string `firestore:"country"`
	Phone      string `firestore:"phone,omitempty"`
	Email      string `firestore:"email,omitempty"`
}

type orderItemDocument struct {
	ProductID       string  `firestore:"productId"`
	SKU             string  `firestore:"sku"`
	Name            string  `firestore:"name"`
	Quantity        int     `firestore:"quantity"`
	UnitWeightGrams float64 `firestore:"unitWeightGrams"`
	UnitPrice       float64 `firestore:"unitPrice"`
}

type deliveryDocument struct {
	Carrier      string          `firestore:"carrier,omitempty"`
	Date         *time.Time      `firestore:"date,omitempty"`
	DeliveryType string          `firestore:"deliveryType,omitempty"`
	PackageType  string          `firestore:"packageType,omitempty"`
	Pickup       *pickupDocument `firestore:"pickup,omitempty"`
}

type pickupDocument struct {
	LocationName    string `firestore:"locationName"`
	LocationCode    string `firestore:"locationCode"`
	RetailNetworkID string `firestore:"retailNetworkId,omitempty"`
	Street          string `firestore:"street"`
	Number          string `firestore:"number"`
	PostalCode      string `firestore:"postalCode"`
	City            string `firestore:"city"`
	Country         string `firestore:"country"`
}

func decodeOrderDocument(orderID string, doc orderDocument) domain.ShipmentOrder {
	order := domain.ShipmentOrder{
		ID:          orderID,
		IncrementID: strings.TrimSpace(doc.IncrementID),
	}

	if doc.Address != nil {
		order.ShippingAddress = &domain.Address{
			Recipient:  strings.TrimSpace(doc.Address.Recipient),
			Company:    strings.TrimSpace(doc.Address.Company),
			Street:     strings.TrimSpace(doc.Address.Street),
			City:       strings.TrimSpace(doc.Address.City),
			PostalCode: strings.TrimSpace(doc.Address.PostalCode),
			Country:    strings.ToUpper(strings.TrimSpace(doc.Address.Country)),
			Phone:      strings.TrimSpace(doc.Address.Phone),
			Email:      strings.TrimSpace(doc.Address.Email),
		}
	}

	if len(doc.Items) > 0 {
		order.Items = make([]domain.LineItem, 0, len(doc.Items))
		for _, item := range doc.Items {
			order.Items = append(order.Items, domain.LineItem{
				ProductID:       strings.TrimSpace(item.ProductID),
				SKU:             strings.TrimSpace(item.SKU),
				Name:            strings.TrimSpace(item.Name),
				Quantity:        item.Quantity,
				UnitWeightGrams: item.UnitWeightGrams,
				UnitPrice:       item.UnitPrice,
			})
		}
	}

	if doc.Delivery != nil {
		delivery := &domain.DeliveryDetails{
			Carrier:      strings.ToLower(strings.TrimSpace(doc.Delivery.Carrier)),
			DeliveryType: strings.TrimSpace(doc.Delivery.DeliveryType),
			PackageType:  strings.TrimSpace(doc.Delivery.PackageType),
		}
		if doc.Delivery.Date != nil && !doc.Delivery.Date.IsZero() {
			date := doc.Delivery.Date.UTC()
			delivery.Date = &date
		}
		if doc.Delivery.Pickup != nil {
			delivery.Pickup = &domain.PickupLocation{
				LocationName:    strings.TrimSpace(doc.Delivery.Pickup.LocationName),
				LocationCode:    strings.TrimSpace(doc.Delivery.Pickup.LocationCode),
				RetailNetworkID: strings.TrimSpace(doc.Delivery.Pickup.RetailNetworkID),
				Street:          strings.TrimSpace(doc.Delivery.Pickup.Street),
				Number:          strings.TrimSpace(doc.Delivery.Pickup.Number),
				PostalCode:      strings.TrimSpace(doc.Delivery.Pickup.PostalCode),
				City:            strings.TrimSpace(doc.Delivery.Pickup.City),
				Country:         strings.ToUpper(strings.TrimSpace(doc.Delivery.Pickup.Country)),
			}
		}
		order.Delivery = delivery
	}

	return order
}
