package services

import (
	"testing"

	domain "github.com/veldpost/api/internal/domain"
)

func TestRateBuilder_Build_TableOrderAndActivation(t *testing.T) {
	builder := NewRateBuilder()
	tree := domain.NewConfigTree(map[string]string{
		"postnl_settings/pickup/active":             "1",
		"postnl_settings/delivery/active":           "1",
		"postnl_settings/delivery/signature_active": "1",
	})
	base := BaseRate{Carrier: "flatrate", Method: "flatrate_flatrate", Price: 5}

	got := builder.Build(base, tree, postnl(t), domain.PackageTypePackage, false)

	wantMethods := []string{
		"postnl_settings/pickup",
		"postnl_settings/delivery",
		"postnl_settings/delivery/signature",
	}
	if len(got) != len(wantMethods) {
		t.Fatalf("expected %d candidates, got %d: %+v", len(wantMethods), len(got), got)
	}
	for i, want := range wantMethods {
		if got[i].Method != want {
			t.Fatalf("candidate %d: expected method %q, got %q", i, want, got[i].Method)
		}
		if got[i].BaseMethod != base.Method {
			t.Fatalf("candidate %d: expected base method carried, got %q", i, got[i].BaseMethod)
		}
	}
	if got[2].Title != "Delivery Signature" {
		t.Fatalf("expected humanised title, got %q", got[2].Title)
	}
}

func TestRateBuilder_Build_NestedOptionNeedsAllFlagsActive(t *testing.T) {
	builder := NewRateBuilder()

	// only_recipient is enabled but signature is not: the combined path stays
	// out while the single-option path is produced.
	tree := domain.NewConfigTree(map[string]string{
		"postnl_settings/delivery/active":                "1",
		"postnl_settings/delivery/only_recipient_active": "1",
	})
	base := BaseRate{Method: "flatrate_flatrate", Price: 5}

	got := builder.Build(base, tree, postnl(t), domain.PackageTypePackage, false)

	methods := make(map[string]bool, len(got))
	for _, c := range got {
		methods[c.Method] = true
	}
	if !methods["postnl_settings/delivery/only_recipient"] {
		t.Fatalf("expected only_recipient candidate, got %+v", got)
	}
	if methods["postnl_settings/delivery/only_recipient/signature"] {
		t.Fatal("expected combined candidate to require the signature flag too")
	}
}

func TestRateBuilder_Build_DeliveryFeeAddsToBase(t *testing.T) {
	builder := NewRateBuilder()
	tree := domain.NewConfigTree(map[string]string{
		"postnl_settings/delivery/active": "1",
		"postnl_settings/delivery/fee":    "0,75",
	})
	base := BaseRate{Method: "flatrate_flatrate", Price: 5}

	got := builder.Build(base, tree, postnl(t), domain.PackageTypePackage, false)
	if len(got) != 1 {
		t.Fatalf("expected one candidate, got %d", len(got))
	}
	if got[0].Price != 5.75 {
		t.Fatalf("expected 5.75, got %v", got[0].Price)
	}
}

func TestRateBuilder_Build_CombinedSubOptionFees(t *testing.T) {
	builder := NewRateBuilder()
	tree := domain.NewConfigTree(map[string]string{
		"postnl_settings/delivery/active":                "1",
		"postnl_settings/delivery/only_recipient_active": "1",
		"postnl_settings/delivery/signature_active":      "1",
		"postnl_settings/delivery/only_recipient_fee":    "1.00",
		"postnl_settings/delivery/signature_fee":         "0.50",
	})
	base := BaseRate{Method: "flatrate_flatrate", Price: 5}

	got := builder.Build(base, tree, postnl(t), domain.PackageTypePackage, false)

	var combined *RateCandidate
	for i := range got {
		if got[i].Method == "postnl_settings/delivery/only_recipient/signature" {
			combined = &got[i]
		}
	}
	if combined == nil {
		t.Fatalf("combined candidate missing: %+v", got)
	}
	if combined.Price != 6.50 {
		t.Fatalf("expected 5.00 + 1.00 + 0.50 = 6.50, got %v", combined.Price)
	}
}

func TestRateBuilder_Build_MorningSignatureBorrowsDeliveryFee(t *testing.T) {
	builder := NewRateBuilder()
	tree := domain.NewConfigTree(map[string]string{
		"postnl_settings/morning/active":                 "1",
		"postnl_settings/morning/fee":                    "2.00",
		"postnl_settings/delivery/only_recipient_active": "1",
		"postnl_settings/delivery/signature_active":      "1",
		"postnl_settings/delivery/signature_fee":         "0.50",
	})
	base := BaseRate{Method: "flatrate_flatrate", Price: 5}

	got := builder.Build(base, tree, postnl(t), domain.PackageTypePackage, false)

	prices := make(map[string]float64, len(got))
	for _, c := range got {
		prices[c.Method] = c.Price
	}

	if price, ok := prices["postnl_settings/morning"]; !ok || price != 7 {
		t.Fatalf("expected plain morning at 5 + 2 = 7, got %v (present=%v)", price, ok)
	}
	if price, ok := prices["postnl_settings/morning/only_recipient/signature"]; !ok || price != 7.5 {
		t.Fatalf("expected morning + signature at 5 + 2 + 0.50 = 7.50, got %v (present=%v)", price, ok)
	}
}

func TestRateBuilder_Build_MailboxCappedAtBase(t *testing.T) {
	builder := NewRateBuilder()
	base := BaseRate{Method: "flatrate_flatrate", Price: 5}

	tree := domain.NewConfigTree(map[string]string{
		"postnl_settings/mailbox/active": "1",
		"postnl_settings/mailbox/fee":    "0.75",
	})
	got := builder.Build(base, tree, postnl(t), domain.PackageTypeMailbox, false)
	if len(got) != 1 || got[0].Price != 0.75 {
		t.Fatalf("expected single mailbox candidate at 0.75, got %+v", got)
	}

	tree = domain.NewConfigTree(map[string]string{
		"postnl_settings/mailbox/active": "1",
		"postnl_settings/mailbox/fee":    "9.95",
	})
	got = builder.Build(base, tree, postnl(t), domain.PackageTypeMailbox, false)
	if len(got) != 1 || got[0].Price != 5 {
		t.Fatalf("expected mailbox fee capped at base 5, got %+v", got)
	}
}

func TestRateBuilder_Build_PackageTypeRelevance(t *testing.T) {
	builder := NewRateBuilder()
	tree := domain.NewConfigTree(map[string]string{
		"postnl_settings/pickup/active":        "1",
		"postnl_settings/delivery/active":      "1",
		"postnl_settings/mailbox/active":       "1",
		"postnl_settings/digital_stamp/active": "1",
	})
	base := BaseRate{Method: "flatrate_flatrate", Price: 5}

	for _, tc := range []struct {
		packageType   PackageType
		pickupMailbox bool
		wantMethods   []string
	}{
		{
			packageType: domain.PackageTypePackage,
			wantMethods: []string{"postnl_settings/pickup", "postnl_settings/delivery"},
		},
		{
			packageType: domain.PackageTypeMailbox,
			wantMethods: []string{"postnl_settings/mailbox"},
		},
		{
			packageType:   domain.PackageTypeMailbox,
			pickupMailbox: true,
			wantMethods:   []string{"postnl_settings/pickup", "postnl_settings/mailbox"},
		},
		{
			packageType: domain.PackageTypeDigitalStamp,
			wantMethods: []string{"postnl_settings/digital_stamp"},
		},
		{
			packageType: domain.PackageTypeLetter,
			wantMethods: nil,
		},
	} {
		got := builder.Build(base, tree, postnl(t), tc.packageType, tc.pickupMailbox)
		if len(got) != len(tc.wantMethods) {
			t.Fatalf("%s: expected %d candidates, got %+v", tc.packageType, len(tc.wantMethods), got)
		}
		for i, want := range tc.wantMethods {
			if got[i].Method != want {
				t.Fatalf("%s: candidate %d: expected %q, got %q", tc.packageType, i, want, got[i].Method)
			}
		}
	}
}
