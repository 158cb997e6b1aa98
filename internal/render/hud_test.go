package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxer-arena/internal/game"
)

func newSnapshot() *game.Snapshot {
	sim := game.NewSimulation(game.DefaultBalance())
	snap := sim.Snapshot()
	return &snap
}

// bitmapHUD skips system fonts so results don't depend on the host.
func bitmapHUD() *HUD {
	return NewHUD(HUDConfig{Width: 480, Height: 270})
}

func TestNewHUDDefaultsSize(t *testing.T) {
	h := NewHUD(HUDConfig{})
	w, ht := h.Size()
	assert.Equal(t, 960, w)
	assert.Equal(t, 540, ht)
}

func TestEncodePNG(t *testing.T) {
	h := bitmapHUD()

	var buf bytes.Buffer
	require.NoError(t, h.EncodePNG(&buf, newSnapshot()))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 480, img.Bounds().Dx())
	assert.Equal(t, 270, img.Bounds().Dy())
}

func TestRenderStates(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *game.Snapshot)
	}{
		{"menu", func(s *game.Snapshot) {}},
		{"playing", func(s *game.Snapshot) { s.Phase = game.PhasePlaying }},
		{"player swinging in window", func(s *game.Snapshot) {
			s.Phase = game.PhasePlaying
			s.Player.State = game.PlayerAttack
			s.Player.Frame = game.HitWindowStart
		}},
		{"ultimate", func(s *game.Snapshot) {
			s.Phase = game.PhasePlaying
			s.Player.State = game.PlayerAttack
			s.Player.Ultimate = true
			s.UltimateReady = true
			s.Power = s.PowerMax
		}},
		{"boss swinging", func(s *game.Snapshot) {
			s.Phase = game.PhasePlaying
			s.Enemy.Boss = true
			s.Enemy.State = game.EnemyAttack
			s.Enemy.Frame = 70
		}},
		{"both down", func(s *game.Snapshot) {
			s.Phase = game.PhasePlaying
			s.Player.State = game.PlayerDown
			s.Enemy.State = game.EnemyDown
			s.Player.Health = 0
		}},
		{"shop", func(s *game.Snapshot) {
			s.Phase = game.PhaseShop
			s.ShopOpen = true
			s.Coins = 60
		}},
		{"shake and scroll", func(s *game.Snapshot) {
			s.Phase = game.PhasePlaying
			s.Shake = 20
			s.ScrollX = -345
			s.Combo = 4
		}},
		{"quit", func(s *game.Snapshot) { s.Phase = game.PhaseQuit }},
	}

	h := bitmapHUD()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := newSnapshot()
			tt.mutate(snap)

			img := h.Render(snap)
			require.NotNil(t, img)
			assert.Equal(t, 480, img.Bounds().Dx())
		})
	}
}

func TestRenderShowsHealthBar(t *testing.T) {
	h := bitmapHUD()
	snap := newSnapshot()
	snap.Phase = game.PhasePlaying

	// Sample inside the player bar, left end
	full := h.Render(snap).At(30, 30)
	assert.Equal(t, colorHealth, color.RGBAModel.Convert(full))

	snap.Player.Health = 0
	empty := h.Render(snap).At(30, 30)
	assert.Equal(t, colorBarBack, color.RGBAModel.Convert(empty))
}

func TestShakeOffset(t *testing.T) {
	dx, dy := shakeOffset(0, 7)
	assert.Zero(t, dx)
	assert.Zero(t, dy)

	dx0, _ := shakeOffset(10, 2)
	dx1, _ := shakeOffset(10, 3)
	assert.Equal(t, 5.0, dx0)
	assert.Equal(t, -5.0, dx1)
}
