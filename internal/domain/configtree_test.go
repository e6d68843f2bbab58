package domain

import "testing"

func TestConfigTree_Value_TrimsSlashes(t *testing.T) {
	tree := NewConfigTree(map[string]string{
		"/postnl_settings/mailbox/weight/": "1500",
		"shipping_methods/methods":         "flatrate,tablerate",
	})

	if v, ok := tree.Value("postnl_settings/mailbox/weight"); !ok || v != "1500" {
		t.Fatalf("expected 1500 present, got %q present=%v", v, ok)
	}
	if v, ok := tree.Value("/shipping_methods/methods/"); !ok || v != "flatrate,tablerate" {
		t.Fatalf("expected lookup to tolerate surrounding slashes, got %q present=%v", v, ok)
	}
	if _, ok := tree.Value("postnl_settings/missing"); ok {
		t.Fatal("expected absent key to report not present")
	}
}

func TestConfigTree_Bool(t *testing.T) {
	tree := NewConfigTree(map[string]string{
		"a": "1",
		"b": "true",
		"c": "Yes",
		"d": "on",
		"e": "0",
		"f": "banana",
	})

	for _, key := range []string{"a", "b", "c", "d"} {
		if !tree.Bool(key) {
			t.Fatalf("expected %q to be true", key)
		}
	}
	for _, key := range []string{"e", "f", "missing"} {
		if tree.Bool(key) {
			t.Fatalf("expected %q to be false", key)
		}
	}
}

func TestConfigTree_Float_CommaSeparator(t *testing.T) {
	tree := NewConfigTree(map[string]string{
		"fee":    "1,25",
		"weight": " 2.5 ",
		"junk":   "abc",
	})

	if got := tree.Float("fee"); got != 1.25 {
		t.Fatalf("expected 1.25, got %v", got)
	}
	if got := tree.Float("weight"); got != 2.5 {
		t.Fatalf("expected 2.5, got %v", got)
	}
	if got := tree.Float("junk"); got != 0 {
		t.Fatalf("expected unparsable value to yield 0, got %v", got)
	}
	if got := tree.Float("missing"); got != 0 {
		t.Fatalf("expected absent key to yield 0, got %v", got)
	}
}

func TestConfigTree_Group(t *testing.T) {
	tree := NewConfigTree(map[string]string{
		"postnl_settings/mailbox/active": "1",
		"postnl_settings/mailbox/weight": "2000",
		"postnl_settings/delivery/fee":   "0,50",
	})

	group, ok := tree.Group("postnl_settings/mailbox")
	if !ok {
		t.Fatal("expected mailbox group to exist")
	}
	if group["active"] != "1" || group["weight"] != "2000" {
		t.Fatalf("unexpected group contents: %v", group)
	}

	if _, ok := tree.Group("postnl_settings/digital_stamp"); ok {
		t.Fatal("expected absent group to report not present")
	}
}

func TestConfigTree_Values_ReturnsCopy(t *testing.T) {
	tree := NewConfigTree(map[string]string{
		"postnl_settings/mailbox/weight": "1500",
	})

	values := tree.Values()
	if values["postnl_settings/mailbox/weight"] != "1500" {
		t.Fatalf("expected snapshot to carry stored value, got %#v", values)
	}

	values["postnl_settings/mailbox/weight"] = "9999"
	if v, _ := tree.Value("postnl_settings/mailbox/weight"); v != "1500" {
		t.Fatalf("expected tree unchanged after snapshot mutation, got %q", v)
	}
}
