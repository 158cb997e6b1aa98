// Package render draws a published combat snapshot as a still frame.
// It reads snapshots only and never touches the live simulation.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"boxer-arena/internal/game"
)

// HUDConfig sizes the frame.
type HUDConfig struct {
	Width    int
	Height   int
	FontPath string // Empty falls back to gg's built-in bitmap face
}

// DefaultHUDConfig returns a 960x540 frame with the first system font found.
func DefaultHUDConfig() HUDConfig {
	return HUDConfig{
		Width:    960,
		Height:   540,
		FontPath: getFontPath(),
	}
}

// Palette
var (
	colorSky       = color.RGBA{24, 26, 48, 255}
	colorGround    = color.RGBA{52, 40, 36, 255}
	colorStripe    = color.RGBA{70, 56, 50, 255}
	colorPanel     = color.RGBA{0, 0, 0, 178}
	colorHealth    = color.RGBA{83, 255, 69, 255}
	colorEnemyHP   = color.RGBA{255, 62, 62, 255}
	colorBarBack   = color.RGBA{60, 60, 60, 255}
	colorPower     = color.RGBA{80, 160, 255, 255}
	colorUltimate  = color.RGBA{255, 215, 0, 255}
	colorCoins     = color.RGBA{255, 120, 0, 255}
	colorPlayer    = color.RGBA{66, 135, 245, 255}
	colorBlock     = color.RGBA{140, 200, 255, 255}
	colorEnemy     = color.RGBA{200, 70, 70, 255}
	colorBoss      = color.RGBA{150, 30, 160, 255}
	colorDown      = color.RGBA{110, 110, 110, 255}
	colorFist      = color.RGBA{255, 230, 200, 255}
	colorHitWindow = color.RGBA{255, 255, 255, 200}
)

const (
	groundY     = 420.0
	actorWidth  = 60.0
	actorHeight = 140.0
	bossScale   = 1.3
	barWidth    = 300.0
	barHeight   = 18.0
	stripeEvery = 120 // Background stripe spacing in world units
)

// HUD renders snapshots. Safe for concurrent use.
type HUD struct {
	cfg HUDConfig

	mu        sync.Mutex // font faces are not safe for concurrent use
	fontLarge font.Face
	fontSmall font.Face
}

// NewHUD loads fonts once. A missing font is logged and the bitmap face used.
func NewHUD(cfg HUDConfig) *HUD {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		def := DefaultHUDConfig()
		cfg.Width, cfg.Height = def.Width, def.Height
	}

	h := &HUD{cfg: cfg}
	if cfg.FontPath == "" {
		return h
	}

	var err error
	if h.fontLarge, err = gg.LoadFontFace(cfg.FontPath, 36); err != nil {
		log.Printf("⚠️ Failed to load HUD font: %v", err)
		h.fontLarge = nil
		return h
	}
	if h.fontSmall, err = gg.LoadFontFace(cfg.FontPath, 18); err != nil {
		log.Printf("⚠️ Failed to load HUD font: %v", err)
		h.fontLarge, h.fontSmall = nil, nil
	}
	return h
}

// Size returns the frame dimensions.
func (h *HUD) Size() (int, int) {
	return h.cfg.Width, h.cfg.Height
}

// Render draws one frame.
func (h *HUD) Render(snap *game.Snapshot) image.Image {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.draw(snap).Image()
}

// EncodePNG draws one frame and writes it as PNG.
func (h *HUD) EncodePNG(w io.Writer, snap *game.Snapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.draw(snap).EncodePNG(w)
}

func (h *HUD) draw(snap *game.Snapshot) *gg.Context {
	dc := gg.NewContext(h.cfg.Width, h.cfg.Height)
	w, ht := float64(h.cfg.Width), float64(h.cfg.Height)

	dc.SetColor(colorSky)
	dc.Clear()

	// World layer shakes; the HUD layer does not
	dc.Push()
	dx, dy := shakeOffset(snap.Shake, snap.Tick)
	dc.Translate(dx, dy)
	h.drawWorld(dc, snap, w, ht)
	h.drawEnemy(dc, snap)
	h.drawPlayer(dc, snap)
	dc.Pop()

	h.drawBars(dc, snap, w)
	h.drawScore(dc, snap, w)

	switch {
	case snap.Phase == game.PhaseMenu:
		h.drawBanner(dc, w, ht, "PRESS START", colorHealth)
	case snap.Player.State == game.PlayerDown:
		h.drawBanner(dc, w, ht, "KNOCKED OUT", colorEnemyHP)
	case snap.Phase == game.PhaseQuit:
		h.drawBanner(dc, w, ht, "GOOD FIGHT", colorUltimate)
	}
	if snap.ShopOpen {
		h.drawShop(dc, snap, w, ht)
	}

	return dc
}

// shakeOffset alternates direction each tick so the frame jitters.
func shakeOffset(shake int, tick uint64) (float64, float64) {
	if shake <= 0 {
		return 0, 0
	}
	d := float64(shake) / 2
	if tick%2 == 0 {
		return d, -d / 2
	}
	return -d, d / 2
}

func (h *HUD) drawWorld(dc *gg.Context, snap *game.Snapshot, w, ht float64) {
	dc.SetColor(colorGround)
	dc.DrawRectangle(-20, groundY, w+40, ht-groundY+20)
	dc.Fill()

	// Stripes scroll with the world
	offset := snap.ScrollX % stripeEvery
	dc.SetColor(colorStripe)
	for x := offset; x < int(w)+stripeEvery; x += stripeEvery {
		dc.DrawRectangle(float64(x), groundY+10, 40, 8)
		dc.Fill()
	}
}

func (h *HUD) drawPlayer(dc *gg.Context, snap *game.Snapshot) {
	p := snap.Player
	x := float64(p.X)

	body := colorPlayer
	switch p.State {
	case game.PlayerBlock:
		body = colorBlock
	case game.PlayerDown:
		body = colorDown
	}

	if p.State == game.PlayerDown {
		// Lying flat
		dc.SetColor(body)
		dc.DrawRoundedRectangle(x-actorHeight/2, groundY-actorWidth/2, actorHeight, actorWidth/2, 8)
		dc.Fill()
		return
	}

	dc.SetColor(body)
	dc.DrawRoundedRectangle(x-actorWidth/2, groundY-actorHeight, actorWidth, actorHeight, 10)
	dc.Fill()

	if p.State == game.PlayerAttack {
		// Fist extends through the swing, brightest inside the hit window
		reach := 60 * float64(p.Frame) / float64(game.ClockCycle)
		fist := colorFist
		if p.Frame >= game.HitWindowStart && p.Frame <= game.HitWindowEnd {
			fist = colorHitWindow
		}
		if p.Ultimate {
			fist = colorUltimate
		}
		dc.SetColor(fist)
		dc.DrawCircle(x+actorWidth/2+reach, groundY-actorHeight*0.7, 14)
		dc.Fill()
	}
}

func (h *HUD) drawEnemy(dc *gg.Context, snap *game.Snapshot) {
	e := snap.Enemy
	x := float64(e.X)

	scale := 1.0
	body := colorEnemy
	if e.Boss {
		scale = bossScale
		body = colorBoss
	}
	width, height := actorWidth*scale, actorHeight*scale

	if e.State == game.EnemyDown {
		dc.SetColor(colorDown)
		dc.DrawRoundedRectangle(x-height/2, groundY-width/2, height, width/2, 8)
		dc.Fill()
		return
	}

	dc.SetColor(body)
	dc.DrawRoundedRectangle(x-width/2, groundY-height, width, height, 10)
	dc.Fill()

	if e.State == game.EnemyAttack {
		reach := 60 * float64(e.Frame) / float64(game.ClockCycle)
		dc.SetColor(colorFist)
		dc.DrawCircle(x-width/2-reach, groundY-height*0.7, 14*scale)
		dc.Fill()
	}
}

func (h *HUD) drawBars(dc *gg.Context, snap *game.Snapshot, w float64) {
	dc.SetColor(colorPanel)
	dc.DrawRoundedRectangle(10, 10, w-20, 90, 8)
	dc.Fill()

	// Player health, left
	drawBar(dc, 24, 24, barWidth, barHeight, snap.Player.Health, snap.Player.MaxHealth, colorHealth)

	// Power, under player health
	power := colorPower
	if snap.UltimateReady {
		power = colorUltimate
	}
	drawBar(dc, 24, 50, barWidth, barHeight/2, snap.Power, snap.PowerMax, power)

	// Enemy health, right
	enemyHP := colorEnemyHP
	if snap.Enemy.Boss {
		enemyHP = colorBoss
	}
	drawBar(dc, w-24-barWidth, 24, barWidth, barHeight, snap.Enemy.Health, snap.Enemy.MaxHealth, enemyHP)

	h.useSmall(dc)
	dc.SetColor(color.White)
	dc.DrawString(fmt.Sprintf("HP %d/%d", snap.Player.Health, snap.Player.MaxHealth), 24, 82)
	if snap.UltimateReady {
		dc.SetColor(colorUltimate)
		dc.DrawString("ULTIMATE READY", 160, 82)
	}

	label := "ENEMY"
	if snap.Enemy.Boss {
		label = "BOSS"
	}
	dc.SetColor(color.White)
	dc.DrawStringAnchored(fmt.Sprintf("%s %d/%d", label, snap.Enemy.Health, snap.Enemy.MaxHealth), w-24, 82, 1, 0)
}

func drawBar(dc *gg.Context, x, y, width, height float64, value, max int, fill color.Color) {
	dc.SetColor(colorBarBack)
	dc.DrawRectangle(x, y, width, height)
	dc.Fill()

	if max <= 0 || value <= 0 {
		return
	}
	frac := float64(value) / float64(max)
	if frac > 1 {
		frac = 1
	}
	dc.SetColor(fill)
	dc.DrawRectangle(x, y, width*frac, height)
	dc.Fill()
}

func (h *HUD) drawScore(dc *gg.Context, snap *game.Snapshot, w float64) {
	h.useLarge(dc)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(fmt.Sprintf("%d", snap.Score), w/2, 40, 0.5, 0.5)

	h.useSmall(dc)
	dc.SetColor(colorCoins)
	dc.DrawStringAnchored(fmt.Sprintf("$%d", snap.Coins), w/2, 74, 0.5, 0.5)

	if snap.Combo > 1 {
		h.useLarge(dc)
		dc.SetColor(colorUltimate)
		dc.DrawStringAnchored(fmt.Sprintf("x%d COMBO", snap.Combo), w/2, 150, 0.5, 0.5)
	}
}

func (h *HUD) drawBanner(dc *gg.Context, w, ht float64, text string, c color.Color) {
	dc.SetColor(colorPanel)
	dc.DrawRectangle(0, ht/2-50, w, 100)
	dc.Fill()

	h.useLarge(dc)
	dc.SetColor(c)
	dc.DrawStringAnchored(text, w/2, ht/2, 0.5, 0.5)
}

func (h *HUD) drawShop(dc *gg.Context, snap *game.Snapshot, w, ht float64) {
	pw, ph := 420.0, 240.0
	x, y := (w-pw)/2, (ht-ph)/2

	dc.SetColor(colorPanel)
	dc.DrawRoundedRectangle(x, y, pw, ph, 12)
	dc.Fill()

	h.useLarge(dc)
	dc.SetColor(colorCoins)
	dc.DrawStringAnchored("SHOP", w/2, y+40, 0.5, 0.5)

	h.useSmall(dc)
	prices := snap.Prices()
	for i, c := range game.UpgradeCategories {
		cost := prices[c.String()]
		row := y + 100 + float64(i)*40

		if snap.Coins >= cost {
			dc.SetColor(color.White)
		} else {
			dc.SetColor(colorDown)
		}
		dc.DrawString(c.String(), x+40, row)
		dc.DrawStringAnchored(fmt.Sprintf("$%d", cost), x+pw-40, row, 1, 0)
	}
}

func (h *HUD) useLarge(dc *gg.Context) {
	if h.fontLarge != nil {
		dc.SetFontFace(h.fontLarge)
	}
}

func (h *HUD) useSmall(dc *gg.Context) {
	if h.fontSmall != nil {
		dc.SetFontFace(h.fontSmall)
	}
}

func getFontPath() string {
	// Try common font locations
	paths := []string{
		"C:\\Windows\\Fonts\\arial.ttf",
		"C:\\Windows\\Fonts\\segoeui.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/System/Library/Fonts/Helvetica.ttc",
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	// Try to find any ttf in current directory
	matches, _ := filepath.Glob("*.ttf")
	if len(matches) > 0 {
		return matches[0]
	}

	return ""
}
