package game

import "fmt"

// UpgradeCategory is one of the shop's stat upgrades.
type UpgradeCategory uint8

const (
	UpgradeDamage UpgradeCategory = iota
	UpgradeHealth
	UpgradeDefense
	numUpgradeCategories
)

// UpgradeCategories lists categories in shop order.
var UpgradeCategories = [...]UpgradeCategory{UpgradeDamage, UpgradeHealth, UpgradeDefense}

// String returns the wire name of the category.
func (c UpgradeCategory) String() string {
	switch c {
	case UpgradeDamage:
		return "damage"
	case UpgradeHealth:
		return "health"
	case UpgradeDefense:
		return "defense"
	default:
		return "unknown"
	}
}

// ParseUpgradeCategory maps a wire name back to a category.
func ParseUpgradeCategory(s string) (UpgradeCategory, error) {
	for _, c := range UpgradeCategories {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown upgrade category %q", s)
}

// Economy is the coin balance plus the per-category price ladder.
type Economy struct {
	Coins int `json:"coins"`

	costs [numUpgradeCategories]int
	step  int
	delta [numUpgradeCategories]int
}

// NewEconomy creates an empty wallet with base prices.
func NewEconomy(b Balance) Economy {
	e := Economy{step: b.UpgradeCostStep}
	for _, c := range UpgradeCategories {
		e.costs[c] = b.UpgradeBaseCost
	}
	e.delta[UpgradeDamage] = b.DamageUpgrade
	e.delta[UpgradeHealth] = b.HealthUpgrade
	e.delta[UpgradeDefense] = b.DefenseUpgrade
	return e
}

// Earn adds coins.
func (e *Economy) Earn(amount int) {
	if amount > 0 {
		e.Coins += amount
	}
}

// Cost returns the current price of a category.
func (e *Economy) Cost(c UpgradeCategory) int {
	if c >= numUpgradeCategories {
		return 0
	}
	return e.costs[c]
}

// Prices returns all current prices keyed by wire name.
func (e *Economy) Prices() map[string]int {
	prices := make(map[string]int, len(UpgradeCategories))
	for _, c := range UpgradeCategories {
		prices[c.String()] = e.costs[c]
	}
	return prices
}

// CanAfford reports whether the wallet covers the category's price.
func (e *Economy) CanAfford(c UpgradeCategory) bool {
	return c < numUpgradeCategories && e.Coins >= e.costs[c]
}

// Purchase buys one upgrade for stats. All-or-nothing: on insufficient
// coins nothing changes and false is returned.
func (e *Economy) Purchase(c UpgradeCategory, stats *StatBlock) bool {
	if !e.CanAfford(c) {
		return false
	}

	e.Coins -= e.costs[c]
	switch c {
	case UpgradeDamage:
		stats.Damage += e.delta[c]
	case UpgradeHealth:
		stats.MaxHealth += e.delta[c]
		stats.Restore()
	case UpgradeDefense:
		stats.Defense += e.delta[c]
	}
	e.costs[c] += e.step
	return true
}
