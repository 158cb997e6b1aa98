package game

import (
	"fmt"
	"strings"
)

// IntentKind is an abstract, edge-triggered player command. Mapping keys
// or buttons to intents happens outside the core.
type IntentKind uint8

const (
	IntentStart IntentKind = iota
	IntentMoveStart
	IntentMoveStop
	IntentBlockStart
	IntentBlockStop
	IntentAttack
	IntentUltimate
	IntentOpenShop
	IntentCloseShop
	IntentPurchase
	IntentQuit
	numIntentKinds
)

var intentNames = [numIntentKinds]string{
	IntentStart:      "start",
	IntentMoveStart:  "move_start",
	IntentMoveStop:   "move_stop",
	IntentBlockStart: "block_start",
	IntentBlockStop:  "block_stop",
	IntentAttack:     "attack",
	IntentUltimate:   "ultimate",
	IntentOpenShop:   "open_shop",
	IntentCloseShop:  "close_shop",
	IntentPurchase:   "purchase",
	IntentQuit:       "quit",
}

// String returns the wire name.
func (k IntentKind) String() string {
	if k < numIntentKinds {
		return intentNames[k]
	}
	return "unknown"
}

// Intent is one command for the next tick. Category is only read for
// IntentPurchase.
type Intent struct {
	Kind     IntentKind
	Category UpgradeCategory
}

// Purchase builds a purchase intent.
func Purchase(c UpgradeCategory) Intent {
	return Intent{Kind: IntentPurchase, Category: c}
}

// String returns the wire form, e.g. "attack" or "purchase:health".
func (in Intent) String() string {
	if in.Kind == IntentPurchase {
		return in.Kind.String() + ":" + in.Category.String()
	}
	return in.Kind.String()
}

// ParseIntent reads the wire form produced by Intent.String.
func ParseIntent(s string) (Intent, error) {
	name, category, hasCategory := strings.Cut(strings.TrimSpace(strings.ToLower(s)), ":")
	for k := IntentKind(0); k < numIntentKinds; k++ {
		if intentNames[k] != name {
			continue
		}
		if k != IntentPurchase {
			if hasCategory {
				return Intent{}, fmt.Errorf("intent %q takes no category", name)
			}
			return Intent{Kind: k}, nil
		}
		c, err := ParseUpgradeCategory(category)
		if err != nil {
			return Intent{}, fmt.Errorf("purchase intent: %w", err)
		}
		return Purchase(c), nil
	}
	return Intent{}, fmt.Errorf("unknown intent %q", s)
}
