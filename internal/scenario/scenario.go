// Package scenario drives a Simulation from a scripted list of intents.
// Runs are deterministic: time comes from the script, not the wall clock.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"boxer-arena/internal/config"
	"boxer-arena/internal/game"
)

// DefaultTickMs is used when a script omits tickMs (about 60 TPS).
const DefaultTickMs = 16

// Step queues intents for one tick.
type Step struct {
	Tick    int      `yaml:"tick"`
	Intents []string `yaml:"intents"`

	parsed []game.Intent
}

// Expect holds optional checks on the final state. Nil fields are skipped.
type Expect struct {
	Phase         string `yaml:"phase"`
	PlayerState   string `yaml:"playerState"`
	EnemiesKilled *int   `yaml:"enemiesKilled"`
	MinScore      *int   `yaml:"minScore"`
	Coins         *int   `yaml:"coins"`
	ScrollX       *int   `yaml:"scrollX"`
	EnemyX        *int   `yaml:"enemyX"`
}

// Scenario is a parsed script.
type Scenario struct {
	Name    string    `yaml:"name"`
	Ticks   int       `yaml:"ticks"`
	TickMs  int64     `yaml:"tickMs"`
	Balance yaml.Node `yaml:"balance"` // Optional overlay on the default balance
	Steps   []Step    `yaml:"steps"`
	Expect  *Expect   `yaml:"expect"`

	balance game.Balance
}

// Result is the outcome of a run.
type Result struct {
	Name     string
	Ticks    int // Ticks actually stepped; fewer than scripted if the session quit
	Final    game.Snapshot
	Events   []game.Event
	Failures []string // Unmet expectations
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// Count returns how many events of a type fired.
func (r *Result) Count(t game.EventType) int {
	n := 0
	for _, ev := range r.Events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a scenario.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		if err == io.EOF {
			return nil, errors.New("empty scenario")
		}
		return nil, fmt.Errorf("decode: %w", err)
	}

	if sc.TickMs == 0 {
		sc.TickMs = DefaultTickMs
	}

	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// validate checks bounds, parses intents and resolves the balance.
func (sc *Scenario) validate() error {
	var errs []error

	if sc.Ticks <= 0 {
		errs = append(errs, fmt.Errorf("ticks must be positive, got %d", sc.Ticks))
	}
	if sc.TickMs < 0 {
		errs = append(errs, fmt.Errorf("tickMs must be positive, got %d", sc.TickMs))
	}

	for i := range sc.Steps {
		st := &sc.Steps[i]
		if st.Tick < 0 || (sc.Ticks > 0 && st.Tick >= sc.Ticks) {
			errs = append(errs, fmt.Errorf("step %d: tick %d outside [0, %d)", i, st.Tick, sc.Ticks))
		}
		st.parsed = st.parsed[:0]
		for _, s := range st.Intents {
			in, err := game.ParseIntent(s)
			if err != nil {
				errs = append(errs, fmt.Errorf("step %d: %w", i, err))
				continue
			}
			st.parsed = append(st.parsed, in)
		}
	}

	b, err := sc.resolveBalance()
	if err != nil {
		errs = append(errs, err)
	}
	sc.balance = b

	return errors.Join(errs...)
}

func (sc *Scenario) resolveBalance() (game.Balance, error) {
	if sc.Balance.Kind == 0 {
		return game.DefaultBalance(), nil
	}
	overlay, err := yaml.Marshal(&sc.Balance)
	if err != nil {
		return game.Balance{}, fmt.Errorf("balance: %w", err)
	}
	b, err := config.ParseBalance(overlay)
	if err != nil {
		return game.Balance{}, fmt.Errorf("balance: %w", err)
	}
	return b, nil
}

// EffectiveBalance returns the balance the scenario runs with.
func (sc *Scenario) EffectiveBalance() game.Balance {
	return sc.balance
}

// Run steps a fresh simulation through the script. Tick t is stepped at
// t*tickMs, with the intents of every step scheduled for t.
func (sc *Scenario) Run() *Result {
	sim := game.NewSimulation(sc.balance)

	schedule := make(map[int][]game.Intent, len(sc.Steps))
	for _, st := range sc.Steps {
		schedule[st.Tick] = append(schedule[st.Tick], st.parsed...)
	}

	res := &Result{Name: sc.Name}
	for t := 0; t < sc.Ticks; t++ {
		events := sim.Step(int64(t)*sc.TickMs, schedule[t]...)
		res.Events = append(res.Events, events...)
		res.Ticks = t + 1

		if sim.Phase == game.PhaseQuit {
			break
		}
	}

	res.Final = sim.Snapshot()
	res.Failures = sc.check(&res.Final)
	return res
}

// check compares the final snapshot against Expect.
func (sc *Scenario) check(snap *game.Snapshot) []string {
	e := sc.Expect
	if e == nil {
		return nil
	}

	var failures []string
	fail := func(format string, args ...interface{}) {
		failures = append(failures, fmt.Sprintf(format, args...))
	}

	if e.Phase != "" && snap.Phase.String() != e.Phase {
		fail("phase: want %s, got %s", e.Phase, snap.Phase)
	}
	if e.PlayerState != "" && snap.Player.State.String() != e.PlayerState {
		fail("player state: want %s, got %s", e.PlayerState, snap.Player.State)
	}
	if e.EnemiesKilled != nil && snap.EnemiesKilled != *e.EnemiesKilled {
		fail("enemies killed: want %d, got %d", *e.EnemiesKilled, snap.EnemiesKilled)
	}
	if e.MinScore != nil && snap.Score < *e.MinScore {
		fail("score: want at least %d, got %d", *e.MinScore, snap.Score)
	}
	if e.Coins != nil && snap.Coins != *e.Coins {
		fail("coins: want %d, got %d", *e.Coins, snap.Coins)
	}
	if e.ScrollX != nil && snap.ScrollX != *e.ScrollX {
		fail("scrollX: want %d, got %d", *e.ScrollX, snap.ScrollX)
	}
	if e.EnemyX != nil && snap.Enemy.X != *e.EnemyX {
		fail("enemy x: want %d, got %d", *e.EnemyX, snap.Enemy.X)
	}
	return failures
}

// EventCounts tallies events by type name, sorted by name.
func (r *Result) EventCounts() []EventCount {
	counts := make(map[string]int)
	for _, ev := range r.Events {
		counts[ev.Type.String()]++
	}

	out := make([]EventCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, EventCount{Type: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// EventCount is one row of EventCounts.
type EventCount struct {
	Type  string
	Count int
}
