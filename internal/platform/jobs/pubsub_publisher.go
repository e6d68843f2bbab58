package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/veldpost/api/internal/domain"
	"github.com/veldpost/api/internal/platform/textutil"
)

// PubSubConsignmentPublisher hands validated consignments to the asynchronous
// carrier registration pipeline via a Pub/Sub topic.
type PubSubConsignmentPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubConsignmentPublisher constructs a Pub/Sub backed consignment publisher.
func NewPubSubConsignmentPublisher(topic *pubsub.Topic) (*PubSubConsignmentPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub consignment publisher: topic is required")
	}
	return &PubSubConsignmentPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishConsignmentRegistered enqueues the consignment on the configured
// topic. The carrier API key never leaves the process; the registration worker
// resolves its own credentials.
func (p *PubSubConsignmentPublisher) PublishConsignmentRegistered(ctx context.Context, consignment domain.Consignment) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub consignment publisher: not initialised")
	}

	data, err := p.marshal(encodeConsignmentMessage(consignment))
	if err != nil {
		return "", fmt.Errorf("marshal consignment: %w", err)
	}

	attrs := textutil.NormalizeStringMap(map[string]string{
		"reference":   consignment.ReferenceID,
		"carrier":     consignment.Carrier,
		"packageType": string(consignment.PackageType),
	})

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish consignment: %w", err)
	}
	return id, nil
}

// consignmentMessage is the wire payload for the registration pipeline.
type consignmentMessage struct {
	ReferenceID         string                  `json:"referenceId"`
	Carrier             string                  `json:"carrier"`
	PackageType         string                  `json:"packageType"`
	PackageTypeID       int                     `json:"packageTypeId"`
	Recipient           consignmentAddress      `json:"recipient"`
	DeliveryDate        *time.Time              `json:"deliveryDate,omitempty"`
	DropOffDelayDays    int                     `json:"dropOffDelayDays,omitempty"`
	Options             consignmentOptions      `json:"options"`
	PhysicalWeightGrams int                     `json:"physicalWeightGrams,omitempty"`
	Pickup              *domain.PickupLocation  `json:"pickup,omitempty"`
	CustomsItems        []consignmentCustomItem `json:"customsItems,omitempty"`
	InvoiceNumber       string                  `json:"invoiceNumber,omitempty"`
}

type consignmentAddress struct {
	Recipient  string `json:"recipient"`
	Company    string `json:"company,omitempty"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

type consignmentOptions struct {
	Insurance        int    `json:"insurance,omitempty"`
	OnlyRecipient    bool   `json:"onlyRecipient"`
	Signature        bool   `json:"signature"`
	SameDayDelivery  bool   `json:"sameDayDelivery"`
	Return           bool   `json:"return"`
	AgeCheck         bool   `json:"ageCheck"`
	LargeFormat      bool   `json:"largeFormat"`
	LabelDescription string `json:"labelDescription,omitempty"`
}

type consignmentCustomItem struct {
	Description     string `json:"description"`
	Amount          int    `json:"amount"`
	WeightGrams     int    `json:"weightGrams"`
	ItemValueCents  int64  `json:"itemValueCents"`
	Classification  int    `json:"classification"`
	CountryOfOrigin string `json:"countryOfOrigin"`
}

func encodeConsignmentMessage(c domain.Consignment) consignmentMessage {
	msg := consignmentMessage{
		ReferenceID:   c.ReferenceID,
		Carrier:       c.Carrier,
		PackageType:   string(c.PackageType),
		PackageTypeID: c.PackageTypeID,
		Recipient: consignmentAddress{
			Recipient:  c.Recipient.Recipient,
			Company:    c.Recipient.Company,
			Street:     c.Recipient.Street,
			City:       c.Recipient.City,
			PostalCode: c.Recipient.PostalCode,
			Country:    c.Recipient.Country,
			Phone:      c.Recipient.Phone,
			Email:      c.Recipient.Email,
		},
		DeliveryDate:     c.DeliveryDate,
		DropOffDelayDays: c.DropOffDelayDays,
		Options: consignmentOptions{
			Insurance:        c.Options.Insurance,
			OnlyRecipient:    c.Options.OnlyRecipient,
			Signature:        c.Options.Signature,
			SameDayDelivery:  c.Options.SameDayDelivery,
			Return:           c.Options.Return,
			AgeCheck:         c.Options.AgeCheck,
			LargeFormat:      c.Options.LargeFormat,
			LabelDescription: c.Options.LabelDescription,
		},
		PhysicalWeightGrams: c.PhysicalWeightGrams,
		Pickup:              c.Pickup,
		InvoiceNumber:       c.InvoiceNumber,
	}
	for _, item := range c.CustomsItems {
		msg.CustomsItems = append(msg.CustomsItems, consignmentCustomItem{
			Description:     item.Description,
			Amount:          item.Amount,
			WeightGrams:     item.WeightGrams,
			ItemValueCents:  item.ItemValueCents,
			Classification:  item.Classification,
			CountryOfOrigin: item.CountryOfOrigin,
		})
	}
	return msg
}
