package source

import "testing"

func TestNormalizeHeader(t *testing.T) {
	tests := map[string]string{
		"Resource Group":      "resourcegroup",
		"resource_group_name": "resourcegroupname",
		"Cost (USD)":          "costusd",
		"  UsageDateTime ":    "usagedatetime",
	}
	for in, want := range tests {
		if got := NormalizeHeader(in); got != want {
			t.Errorf("NormalizeHeader(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatchColumns_PrefersEarlierAlias(t *testing.T) {
	headers := []string{"CostInUsd", "CostInBillingCurrency", "MeterCategory", "ServiceName"}
	cm := MatchColumns(headers, nil)

	if got := cm.Header(RoleCost); got != "CostInBillingCurrency" {
		t.Errorf("cost = %q, want CostInBillingCurrency", got)
	}
	if got := cm.Header(RoleService); got != "ServiceName" {
		t.Errorf("service = %q, want ServiceName", got)
	}
	if cm.Has(RoleDate) {
		t.Error("date should be unmatched")
	}
	if cm.Index(RoleDate) != -1 {
		t.Errorf("Index(date) = %d, want -1", cm.Index(RoleDate))
	}
}

func TestMatchColumns_ConfiguredAliasWins(t *testing.T) {
	headers := []string{"Cost", "Charge Amount"}
	cm := MatchColumns(headers, map[Role][]string{RoleCost: {"charge_amount"}})

	if got := cm.Header(RoleCost); got != "Charge Amount" {
		t.Errorf("cost = %q, want Charge Amount", got)
	}
}

func TestMatchColumns_HeaderUsedOnce(t *testing.T) {
	// "amount" is a cost alias; configuring it for service must not
	// also claim it for cost.
	headers := []string{"Amount"}
	cm := MatchColumns(headers, map[Role][]string{RoleService: {"amount"}})

	if !cm.Has(RoleCost) {
		t.Fatal("cost should claim Amount first")
	}
	if cm.Has(RoleService) {
		t.Error("Amount claimed by two roles")
	}
}

func TestColumnMap_ZeroValue(t *testing.T) {
	var cm ColumnMap
	for _, r := range Roles {
		if cm.Has(r) {
			t.Errorf("zero ColumnMap reports %s present", r)
		}
	}
}
