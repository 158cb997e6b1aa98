package game

// InRange is the melee connect test along the x axis. Strictly less than
// rng, so a target exactly rng away is a miss.
func InRange(strikeX, targetX, rng int) bool {
	d := strikeX - targetX
	if d < 0 {
		d = -d
	}
	return d < rng
}

// PlayerStrikeDamage is a flat ultimate hit, or the player's damage stat.
func PlayerStrikeDamage(p *Player, b Balance) int {
	if p.Ultimate {
		return b.UltimateDamage
	}
	return p.Stats.Damage
}

// EnemyStrikeDamage mitigates the enemy's damage by defense, never below floor.
func EnemyStrikeDamage(base, defense, floor int) int {
	dmg := base - defense
	if dmg < floor {
		return floor
	}
	return dmg
}

// resolvePlayerSwing runs the player's hit test for this tick. The caller
// has already checked the hit window.
func (s *Simulation) resolvePlayerSwing() {
	p, e := s.Player, s.Enemy
	if p.HitLanded || e.State == EnemyDown {
		return
	}
	if !InRange(p.ReachX(s.Balance), e.X, s.Balance.MeleeRange) {
		return
	}

	dmg := PlayerStrikeDamage(p, s.Balance)
	e.Stats.TakeDamage(dmg)
	p.HitLanded = true

	if p.Ultimate {
		s.Shake = s.Balance.ShakeUltimate
	} else {
		s.Shake = s.Balance.ShakeHit
	}
	s.Combo.RegisterHit(s.now, p.Ultimate)

	s.emit(Event{
		Type:     EventPlayerHitLanded,
		Damage:   dmg,
		Health:   e.Stats.Health,
		Combo:    s.Combo.Count,
		Boss:     e.Boss,
		Ultimate: p.Ultimate,
	})
}

// resolveEnemySwing runs the enemy's hit test for this tick. A guarding
// player voids the hit without consuming the swing.
func (s *Simulation) resolveEnemySwing() {
	p, e := s.Player, s.Enemy
	if e.HitLanded || p.State == PlayerDown {
		return
	}
	if !InRange(p.ReachX(s.Balance), e.X, s.Balance.MeleeRange) {
		return
	}
	if p.State == PlayerBlock {
		return
	}

	dmg := EnemyStrikeDamage(e.Stats.Damage, p.Stats.Defense, s.Balance.MinDamage)
	p.Stats.TakeDamage(dmg)
	e.HitLanded = true
	s.Shake = s.Balance.ShakeTaken
	s.Combo.Break()

	s.emit(Event{
		Type:   EventEnemyHitLanded,
		Damage: dmg,
		Health: p.Stats.Health,
		Boss:   e.Boss,
	})

	if p.Stats.IsDead() {
		p.knockDown()
		s.emit(Event{Type: EventPlayerDefeated})
	}
}

// defeatEnemy pays the kill reward once, using the combo at this instant.
func (s *Simulation) defeatEnemy() {
	e := s.Enemy
	if !e.defeat() {
		return
	}

	base := s.Balance.RewardFor(e.Boss)
	reward := base + s.Combo.Count*s.Balance.ComboBonus
	s.Score += reward
	s.Economy.Earn(base)

	s.emit(Event{
		Type:   EventEnemyDefeated,
		Reward: reward,
		Combo:  s.Combo.Count,
		Boss:   e.Boss,
	})
}

// spawnEnemy replaces the defeated enemy with the next one in line.
func (s *Simulation) spawnEnemy() {
	boss := s.Encounter.Advance()
	s.Enemy.Respawn(s.Balance.TierFor(boss), s.Balance.EnemySpawnX)
	s.emit(Event{Type: EventEnemySpawned, Boss: boss})
}
