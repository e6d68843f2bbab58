package services

import (
	"context"
	"math"
	"strings"
)

const (
	defaultMaxMailboxWeightGrams      = 2000
	maxDigitalStampWeightGrams        = 2000
	weightIndicationPath              = "print/weight_indication"
	weightIndicationKilo              = "kilo"
)

// CarrierSettingsLoader builds a fresh CarrierDefaults snapshot from the
// configuration tree for every call. The snapshot is never cached across
// orders; missing settings groups degrade to safe defaults with a logged
// warning instead of failing the order.
type CarrierSettingsLoader struct {
	logger func(context.Context, string, map[string]any)
}

// NewCarrierSettingsLoader constructs a loader. A nil logger is replaced with
// a no-op.
func NewCarrierSettingsLoader(logger func(context.Context, string, map[string]any)) *CarrierSettingsLoader {
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &CarrierSettingsLoader{logger: logger}
}

// Load reads the carrier's default options, mailbox settings and digital-stamp
// settings out of the tree. Weights are normalised to grams regardless of the
// merchant's configured weight indication.
func (l *CarrierSettingsLoader) Load(ctx context.Context, tree ConfigTree, carrier Carrier) CarrierDefaults {
	root := carrier.SettingsRoot

	defaults := CarrierDefaults{
		Carrier:         carrier.Name,
		Signature:       tree.Bool(root + "default_options/signature_active"),
		OnlyRecipient:   tree.Bool(root + "default_options/only_recipient_active"),
		SameDayDelivery: tree.Bool(root + "default_options/same_day_delivery_active"),
		ReturnShipment:  tree.Bool(root + "default_options/return_active"),
		AgeCheckActive:  tree.Bool(root + "default_options/age_check_active"),
		LargeFormat:     tree.Bool(root + "default_options/large_format_active"),
	}

	if tree.Bool(root + "default_options/insurance_active") {
		defaults.InsuranceAmount = tree.Int(root + "default_options/insurance_amount")
	}

	l.loadMailbox(ctx, tree, root, &defaults)
	l.loadDigitalStamp(ctx, tree, root, &defaults)

	return defaults
}

func (l *CarrierSettingsLoader) loadMailbox(ctx context.Context, tree ConfigTree, root string, defaults *CarrierDefaults) {
	group, ok := tree.Group(root + "mailbox")
	if !ok || !hasKey(group, "active") {
		l.logger(ctx, "carrier settings group missing", map[string]any{"path": root + "mailbox"})
	}

	defaults.MailboxActive = group["active"] == "1"
	if !defaults.MailboxActive {
		return
	}

	weight := math.Abs(tree.Float(root + "mailbox/weight"))
	if unit, _ := tree.Value(weightIndicationPath); strings.EqualFold(unit, weightIndicationKilo) {
		weight *= 1000
	}
	if weight < 1 {
		weight = defaultMaxMailboxWeightGrams
	}
	defaults.MaxMailboxWeightGrams = weight

	defaults.PickupMailboxActive = tree.Bool(root + "mailbox/pickup_mailbox")
}

func (l *CarrierSettingsLoader) loadDigitalStamp(ctx context.Context, tree ConfigTree, root string, defaults *CarrierDefaults) {
	group, ok := tree.Group(root + "digital_stamp")
	if !ok || !hasKey(group, "active") {
		l.logger(ctx, "carrier settings group missing", map[string]any{"path": root + "digital_stamp"})
		return
	}

	defaults.DigitalStampActive = group["active"] == "1"
	if defaults.DigitalStampActive {
		defaults.MaxDigitalStampWeightGrams = maxDigitalStampWeightGrams
		defaults.DigitalStampDefaultWeightGrams = tree.Int(root + "digital_stamp/default_weight")
	}
}

func hasKey(group map[string]string, key string) bool {
	_, ok := group[key]
	return ok
}
