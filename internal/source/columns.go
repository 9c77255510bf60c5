package source

import (
	"strings"
	"unicode"
)

// Built-in header names seen in Azure Cost Management, EA and legacy
// usage exports, already normalized. Earlier entries win.
var defaultAliases = map[Role][]string{
	RoleDate:          {"date", "usagedate", "usagedatetime", "billingdate", "day"},
	RoleService:       {"servicename", "metercategory", "consumedservice", "service", "servicefamily"},
	RoleResourceGroup: {"resourcegroup", "resourcegroupname", "rg"},
	RoleCost: {
		"cost", "costinbillingcurrency", "pretaxcost", "costinusd",
		"costusd", "extendedcost", "amount",
	},
}

// NormalizeHeader lowercases a header and drops everything but letters
// and digits, so "Resource Group", "resource_group" and "ResourceGroup"
// compare equal.
func NormalizeHeader(h string) string {
	var b strings.Builder
	b.Grow(len(h))
	for _, r := range h {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// MatchColumns maps headers onto dashboard roles. Configured aliases are
// tried before the built-in ones, and a header is never assigned to more
// than one role.
func MatchColumns(headers []string, extra map[Role][]string) ColumnMap {
	cm := ColumnMap{headers: headers}
	for i := range cm.index {
		cm.index[i] = -1
	}

	normalized := make(map[string]int, len(headers))
	for i, h := range headers {
		n := NormalizeHeader(h)
		if _, dup := normalized[n]; !dup && n != "" {
			normalized[n] = i
		}
	}

	taken := make(map[int]bool)
	for _, role := range Roles {
		candidates := make([]string, 0, len(extra[role])+len(defaultAliases[role]))
		for _, a := range extra[role] {
			candidates = append(candidates, NormalizeHeader(a))
		}
		candidates = append(candidates, defaultAliases[role]...)

		for _, name := range candidates {
			idx, ok := normalized[name]
			if !ok || taken[idx] {
				continue
			}
			cm.index[role] = idx
			taken[idx] = true
			break
		}
	}
	return cm
}
