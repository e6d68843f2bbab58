package services

import (
	"context"
	"testing"

	domain "github.com/veldpost/api/internal/domain"
)

func TestCarrierSettingsLoader_Load_DefaultOptions(t *testing.T) {
	tree := domain.NewConfigTree(map[string]string{
		"postnl_settings/default_options/signature_active":      "1",
		"postnl_settings/default_options/only_recipient_active": "0",
		"postnl_settings/default_options/age_check_active":      "1",
		"postnl_settings/default_options/insurance_active":      "1",
		"postnl_settings/default_options/insurance_amount":      "250",
	})

	loader := NewCarrierSettingsLoader(nil)
	defaults := loader.Load(context.Background(), tree, postnl(t))

	if !defaults.Signature {
		t.Fatal("expected signature default on")
	}
	if defaults.OnlyRecipient {
		t.Fatal("expected only-recipient default off")
	}
	if !defaults.AgeCheckActive {
		t.Fatal("expected age check default on")
	}
	if defaults.InsuranceAmount != 250 {
		t.Fatalf("expected insurance 250, got %d", defaults.InsuranceAmount)
	}
}

func TestCarrierSettingsLoader_Load_InsuranceInactiveIgnoresAmount(t *testing.T) {
	tree := domain.NewConfigTree(map[string]string{
		"postnl_settings/default_options/insurance_active": "0",
		"postnl_settings/default_options/insurance_amount": "500",
	})

	defaults := NewCarrierSettingsLoader(nil).Load(context.Background(), tree, postnl(t))
	if defaults.InsuranceAmount != 0 {
		t.Fatalf("expected insurance 0 while inactive, got %d", defaults.InsuranceAmount)
	}
}

func TestCarrierSettingsLoader_Load_MailboxWeightInKilos(t *testing.T) {
	tree := domain.NewConfigTree(map[string]string{
		"postnl_settings/mailbox/active": "1",
		"postnl_settings/mailbox/weight": "1,5",
		"print/weight_indication":        "kilo",
	})

	defaults := NewCarrierSettingsLoader(nil).Load(context.Background(), tree, postnl(t))
	if !defaults.MailboxActive {
		t.Fatal("expected mailbox active")
	}
	if defaults.MaxMailboxWeightGrams != 1500 {
		t.Fatalf("expected 1500g, got %v", defaults.MaxMailboxWeightGrams)
	}
}

func TestCarrierSettingsLoader_Load_MailboxWeightDefault(t *testing.T) {
	tree := domain.NewConfigTree(map[string]string{
		"postnl_settings/mailbox/active":         "1",
		"postnl_settings/mailbox/pickup_mailbox": "1",
	})

	defaults := NewCarrierSettingsLoader(nil).Load(context.Background(), tree, postnl(t))
	if defaults.MaxMailboxWeightGrams != 2000 {
		t.Fatalf("expected default 2000g, got %v", defaults.MaxMailboxWeightGrams)
	}
	if !defaults.PickupMailboxActive {
		t.Fatal("expected pickup-from-mailbox on")
	}
}

func TestCarrierSettingsLoader_Load_MissingGroupsLogged(t *testing.T) {
	var warnings []string
	logger := func(_ context.Context, msg string, fields map[string]any) {
		warnings = append(warnings, fields["path"].(string))
	}

	tree := domain.NewConfigTree(map[string]string{
		"postnl_settings/default_options/signature_active": "1",
	})

	defaults := NewCarrierSettingsLoader(logger).Load(context.Background(), tree, postnl(t))

	if defaults.MailboxActive || defaults.DigitalStampActive {
		t.Fatal("expected missing groups to stay inactive")
	}
	if len(warnings) != 2 {
		t.Fatalf("expected two missing-group warnings, got %v", warnings)
	}
}

func TestCarrierSettingsLoader_Load_DigitalStamp(t *testing.T) {
	tree := domain.NewConfigTree(map[string]string{
		"postnl_settings/digital_stamp/active":         "1",
		"postnl_settings/digital_stamp/default_weight": "350",
	})

	defaults := NewCarrierSettingsLoader(nil).Load(context.Background(), tree, postnl(t))
	if !defaults.DigitalStampActive {
		t.Fatal("expected digital stamp active")
	}
	if defaults.MaxDigitalStampWeightGrams != 2000 {
		t.Fatalf("expected fixed 2000g limit, got %v", defaults.MaxDigitalStampWeightGrams)
	}
	if defaults.DigitalStampDefaultWeightGrams != 350 {
		t.Fatalf("expected default weight 350, got %d", defaults.DigitalStampDefaultWeightGrams)
	}
}
