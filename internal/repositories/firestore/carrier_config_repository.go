package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	domain "github.com/veldpost/api/internal/domain"
	pfirestore "github.com/veldpost/api/internal/platform/firestore"
)

const carrierSettingsCollection = "carrier_settings"

// CarrierConfigRepository materialises the merchant's hierarchical settings
// snapshot from the carrier_settings collection. Each document holds one root
// group (postnl_settings, shipping_methods, print, ...) whose nested maps are
// flattened into slash-delimited paths.
type CarrierConfigRepository struct {
	base *pfirestore.BaseRepository[map[string]any]
}

// NewCarrierConfigRepository constructs a Firestore-backed config repository.
func NewCarrierConfigRepository(provider *pfirestore.Provider) (*CarrierConfigRepository, error) {
	if provider == nil {
		return nil, errors.New("carrier config repository: firestore provider is required")
	}
	base := pfirestore.NewBaseRepository(provider, carrierSettingsCollection, pfirestore.MapDecoder())
	return &CarrierConfigRepository{base: base}, nil
}

// ConfigTree loads every settings group and returns the flattened snapshot.
func (r *CarrierConfigRepository) ConfigTree(ctx context.Context) (domain.ConfigTree, error) {
	if r == nil || r.base == nil {
		return domain.ConfigTree{}, errors.New("carrier config repository not initialised")
	}

	docs, err := r.base.Query(ctx, nil)
	if err != nil {
		return domain.ConfigTree{}, err
	}

	values := make(map[string]string)
	for _, doc := range docs {
		flattenSettings(doc.ID, doc.Data, values)
	}
	return domain.NewConfigTree(values), nil
}

func flattenSettings(prefix string, data map[string]any, out map[string]string) {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		path := prefix + "/" + key
		switch value := data[key].(type) {
		case map[string]any:
			flattenSettings(path, value, out)
		default:
			if s, ok := settingString(value); ok {
				out[path] = s
			}
		}
	}
}

// settingString renders scalar settings the way the ConfigTree parsers expect:
// flags as "1"/"0", numbers without exponent notation.
func settingString(raw any) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case bool:
		if v {
			return "1", true
		}
		return "0", true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}
