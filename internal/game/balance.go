package game

import (
	"errors"
	"fmt"
)

// Animation timing shared by every actor. One cycle is one full loop of an
// idle/run animation or one complete swing.
const (
	ClockCycle     = 120 // Frames per cycle / swing
	HitWindowStart = 60  // First frame a swing can connect
	HitWindowEnd   = 80  // Last frame a swing can connect (inclusive)
	DownFrameCap   = 110 // Knock-down animation holds here
)

// Balance holds every tunable number of the fight.
// Values are server-authoritative; a YAML file may override them at startup.
type Balance struct {
	// Player base stats
	PlayerMaxHealth int `yaml:"playerMaxHealth" json:"playerMaxHealth"`
	PlayerDamage    int `yaml:"playerDamage" json:"playerDamage"`
	PlayerDefense   int `yaml:"playerDefense" json:"playerDefense"`

	// Geometry (world units, x grows to the right)
	PlayerX        int `yaml:"playerX" json:"playerX"`
	EnemyStartX    int `yaml:"enemyStartX" json:"enemyStartX"`
	EnemySpawnX    int `yaml:"enemySpawnX" json:"enemySpawnX"`
	DespawnX       int `yaml:"despawnX" json:"despawnX"`             // Dead enemy past this is replaced
	ApproachStopX  int `yaml:"approachStopX" json:"approachStopX"`   // World stops scrolling for a living enemy here
	Reach          int `yaml:"reach" json:"reach"`                   // Fist offset from the player's x
	MeleeRange     int `yaml:"meleeRange" json:"meleeRange"`         // Strict distance for a connect
	ScrollSpeed    int `yaml:"scrollSpeed" json:"scrollSpeed"`       // Units per running tick
	BackgroundWrap int `yaml:"backgroundWrap" json:"backgroundWrap"` // Scroll offset wraps to 0 here

	// Enemy tiers
	EnemyMaxHealth  int   `yaml:"enemyMaxHealth" json:"enemyMaxHealth"`
	BossMaxHealth   int   `yaml:"bossMaxHealth" json:"bossMaxHealth"`
	EnemyDamage     int   `yaml:"enemyDamage" json:"enemyDamage"`
	BossDamage      int   `yaml:"bossDamage" json:"bossDamage"`
	MinDamage       int   `yaml:"minDamage" json:"minDamage"` // Floor after defense
	EnemyCooldownMs int64 `yaml:"enemyCooldownMs" json:"enemyCooldownMs"`
	BossEvery       int   `yaml:"bossEvery" json:"bossEvery"`

	// Clock rates (frames per tick)
	IdleRate       int `yaml:"idleRate" json:"idleRate"`
	RunRate        int `yaml:"runRate" json:"runRate"`
	PunchRate      int `yaml:"punchRate" json:"punchRate"`
	UltimateRate   int `yaml:"ultimateRate" json:"ultimateRate"`
	EnemyPunchRate int `yaml:"enemyPunchRate" json:"enemyPunchRate"`
	DownRate       int `yaml:"downRate" json:"downRate"`

	// Combo and power
	ComboTimeoutMs int64 `yaml:"comboTimeoutMs" json:"comboTimeoutMs"`
	ComboBonus     int   `yaml:"comboBonus" json:"comboBonus"` // Score per combo hit on a kill
	PowerPerHit    int   `yaml:"powerPerHit" json:"powerPerHit"`
	PowerMax       int   `yaml:"powerMax" json:"powerMax"`
	UltimateDamage int   `yaml:"ultimateDamage" json:"ultimateDamage"`

	// Rewards
	Reward     int `yaml:"reward" json:"reward"`
	BossReward int `yaml:"bossReward" json:"bossReward"`

	// Upgrade shop
	UpgradeBaseCost int `yaml:"upgradeBaseCost" json:"upgradeBaseCost"`
	UpgradeCostStep int `yaml:"upgradeCostStep" json:"upgradeCostStep"`
	DamageUpgrade   int `yaml:"damageUpgrade" json:"damageUpgrade"`
	HealthUpgrade   int `yaml:"healthUpgrade" json:"healthUpgrade"`
	DefenseUpgrade  int `yaml:"defenseUpgrade" json:"defenseUpgrade"`

	// Screen shake handed to the renderer
	ShakeHit      int `yaml:"shakeHit" json:"shakeHit"`
	ShakeUltimate int `yaml:"shakeUltimate" json:"shakeUltimate"`
	ShakeTaken    int `yaml:"shakeTaken" json:"shakeTaken"`
}

// DefaultBalance returns the stock tuning.
func DefaultBalance() Balance {
	return Balance{
		PlayerMaxHealth: 100,
		PlayerDamage:    25,
		PlayerDefense:   0,

		PlayerX:        300,
		EnemyStartX:    700,
		EnemySpawnX:    900,
		DespawnX:       -200,
		ApproachStopX:  360,
		Reach:          60,
		MeleeRange:     50,
		ScrollSpeed:    5,
		BackgroundWrap: -1800,

		EnemyMaxHealth:  100,
		BossMaxHealth:   300,
		EnemyDamage:     15,
		BossDamage:      30,
		MinDamage:       5,
		EnemyCooldownMs: 1500,
		BossEvery:       5,

		IdleRate:       1,
		RunRate:        3,
		PunchRate:      3,
		UltimateRate:   5,
		EnemyPunchRate: 2,
		DownRate:       2,

		ComboTimeoutMs: 2000,
		ComboBonus:     2,
		PowerPerHit:    10,
		PowerMax:       100,
		UltimateDamage: 60,

		Reward:     10,
		BossReward: 50,

		UpgradeBaseCost: 50,
		UpgradeCostStep: 25,
		DamageUpgrade:   5,
		HealthUpgrade:   20,
		DefenseUpgrade:  2,

		ShakeHit:      5,
		ShakeUltimate: 20,
		ShakeTaken:    5,
	}
}

// Validate rejects tunings the simulation cannot run with.
func (b Balance) Validate() error {
	var errs []error
	positive := []struct {
		name  string
		value int
	}{
		{"playerMaxHealth", b.PlayerMaxHealth},
		{"playerDamage", b.PlayerDamage},
		{"enemyMaxHealth", b.EnemyMaxHealth},
		{"bossMaxHealth", b.BossMaxHealth},
		{"enemyDamage", b.EnemyDamage},
		{"bossDamage", b.BossDamage},
		{"meleeRange", b.MeleeRange},
		{"bossEvery", b.BossEvery},
		{"idleRate", b.IdleRate},
		{"runRate", b.RunRate},
		{"punchRate", b.PunchRate},
		{"ultimateRate", b.UltimateRate},
		{"enemyPunchRate", b.EnemyPunchRate},
		{"downRate", b.DownRate},
		{"scrollSpeed", b.ScrollSpeed},
		{"powerMax", b.PowerMax},
		{"ultimateDamage", b.UltimateDamage},
	}
	for _, f := range positive {
		if f.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0, got %d", f.name, f.value))
		}
	}
	for _, f := range []struct {
		name string
		rate int
	}{
		{"punchRate", b.PunchRate},
		{"ultimateRate", b.UltimateRate},
		{"enemyPunchRate", b.EnemyPunchRate},
	} {
		if f.rate > 0 && !swingLandsInWindow(f.rate) {
			errs = append(errs, fmt.Errorf("%s %d never lands a frame in [%d, %d]", f.name, f.rate, HitWindowStart, HitWindowEnd))
		}
	}
	if b.PlayerDefense < 0 {
		errs = append(errs, fmt.Errorf("playerDefense must be >= 0, got %d", b.PlayerDefense))
	}
	if b.MinDamage < 0 {
		errs = append(errs, fmt.Errorf("minDamage must be >= 0, got %d", b.MinDamage))
	}
	if b.UpgradeBaseCost < 0 || b.UpgradeCostStep < 0 {
		errs = append(errs, errors.New("upgrade costs must be >= 0"))
	}
	if b.DespawnX >= b.EnemySpawnX {
		errs = append(errs, fmt.Errorf("despawnX (%d) must be left of enemySpawnX (%d)", b.DespawnX, b.EnemySpawnX))
	}
	return errors.Join(errs...)
}

// swingLandsInWindow reports whether a swing clock advancing by rate from
// frame 0 stops on at least one frame inside the hit window.
func swingLandsInWindow(rate int) bool {
	for f := rate; f <= HitWindowEnd; f += rate {
		if f >= HitWindowStart {
			return true
		}
	}
	return false
}

// Tier describes one enemy toughness level.
type Tier struct {
	Boss      bool
	MaxHealth int
	Damage    int
}

// TierFor returns the normal or boss tier. Values are fixed, so consecutive
// boss rounds never compound.
func (b Balance) TierFor(boss bool) Tier {
	if boss {
		return Tier{Boss: true, MaxHealth: b.BossMaxHealth, Damage: b.BossDamage}
	}
	return Tier{MaxHealth: b.EnemyMaxHealth, Damage: b.EnemyDamage}
}

// RewardFor returns the base coin reward for defeating an enemy of the tier.
func (b Balance) RewardFor(boss bool) int {
	if boss {
		return b.BossReward
	}
	return b.Reward
}
