package firestore

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/veldpost/api/internal/domain"
	pfirestore "github.com/veldpost/api/internal/platform/firestore"
)

const productProfileCollection = "product_profiles"

// ProductProfileRepository loads per-product shipping attribute snapshots.
type ProductProfileRepository struct {
	provider *pfirestore.Provider
}

// NewProductProfileRepository constructs a Firestore-backed profile repository.
func NewProductProfileRepository(provider *pfirestore.Provider) (*ProductProfileRepository, error) {
	if provider == nil {
		return nil, errors.New("product profile repository: firestore provider is required")
	}
	return &ProductProfileRepository{provider: provider}, nil
}

// GetProfiles fetches the shipping profiles for the given product ids in a
// single batched read. Products without a stored document map to a zero-value
// profile; a missing attribute is a valid state, never an error.
func (r *ProductProfileRepository) GetProfiles(ctx context.Context, productIDs []string) (map[string]domain.ProductShippingProfile, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("product profile repository not initialised")
	}

	out := make(map[string]domain.ProductShippingProfile, len(productIDs))
	refs := make([]*firestore.DocumentRef, 0, len(productIDs))
	order := make([]string, 0, len(productIDs))

	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	coll := client.Collection(productProfileCollection)

	for _, id := range productIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, seen := out[id]; seen {
			continue
		}
		out[id] = domain.ProductShippingProfile{ProductID: id}
		refs = append(refs, coll.Doc(id))
		order = append(order, id)
	}
	if len(refs) == 0 {
		return out, nil
	}

	snaps, err := client.GetAll(ctx, refs)
	if err != nil {
		return nil, pfirestore.WrapError("product_profiles.get_all", err)
	}

	for i, snap := range snaps {
		if snap == nil || !snap.Exists() {
			continue
		}
		out[order[i]] = decodeProductProfile(order[i], snap.Data())
	}
	return out, nil
}

func decodeProductProfile(productID string, data map[string]any) domain.ProductShippingProfile {
	profile := domain.ProductShippingProfile{ProductID: productID}
	if data == nil {
		return profile
	}

	profile.MailboxFit = attributeInt(data["mailboxFit"])
	profile.DigitalStampEligible = attributeBool(data["digitalStampEligible"])
	profile.CheckoutDisabled = attributeBool(data["checkoutDisabled"])
	profile.HSClassification = attributeInt(data["hsClassification"])
	profile.CountryOfOrigin = strings.ToUpper(strings.TrimSpace(attributeString(data["countryOfOrigin"])))

	if raw, ok := data["ageCheck"]; ok && raw != nil {
		v := attributeBool(raw)
		profile.AgeCheck = &v
	}
	if raw, ok := data["dropOffDelayDays"]; ok && raw != nil {
		v := attributeInt(raw)
		profile.DropOffDelayDays = &v
	}
	return profile
}

// attributeInt coerces the loosely typed attribute values the import pipeline
// writes. Booleans are checked before numerics so a stored flag never parses
// as a count.
func attributeInt(raw any) int {
	switch v := raw.(type) {
	case nil:
		return 0
	case bool:
		if v {
			return 1
		}
		return 0
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func attributeBool(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes":
			return true
		}
		return false
	default:
		return false
	}
}

func attributeString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
