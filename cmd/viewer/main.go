// Command viewer renders the drone-swarm contingency simulator live: a
// painter's-algorithm depth-sorted point cloud, one circle per drone/bullet
// pixel, with the current RNG seed copyable to the clipboard for bug
// reports, mirroring cmd/game's ebiten.Game loop.
package main

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"math"
	"sort"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/chiuau/spicomp/internal/config"
	"github.com/chiuau/spicomp/internal/rng"
	"github.com/chiuau/spicomp/internal/sim"
	"github.com/chiuau/spicomp/internal/spicomplog"
)

// ErrQuit cleanly exits the viewer when returned from Viewer.Update.
var ErrQuit = errors.New("quit viewer")

// ErrRestart requests a fresh simulator with a new seed.
var ErrRestart = errors.New("restart viewer")

const (
	pixelRadius      = 4
	bulletRadius     = 6
	clipboardFlashTicks = 30
)

// Viewer is the ebiten.Game driving a Simulator: it steps the simulator
// once per Update and projects its current micro-frame onto the screen with
// a simple orthographic top-down projection plus a Z-based depth sort.
type Viewer struct {
	width, height int
	settings      config.Settings
	seed          uint64
	sim           *sim.Simulator
	pendingExit   error
	paused        bool
	clipboardMsg  string
	clipboardTTL  int
	prevKeys      map[ebiten.Key]bool
}

// New builds a Viewer from settings, seeding its RNG from settings.RandSeed
// (0 means "derive from OS entropy", matching internal/rng.New).
func New(settings config.Settings) *Viewer {
	v := &Viewer{
		width:    settings.WindowSizeX,
		height:   settings.WindowSizeY,
		settings: settings,
		prevKeys: make(map[ebiten.Key]bool),
	}
	v.reset(settings.RandSeed)
	return v
}

func (v *Viewer) reset(seed uint64) {
	if seed == 0 {
		// Resolve the OS-entropy seed here, so the seed printed and copied
		// is the one this run actually uses.
		seed = uint64(rng.New(0).Intn(math.MaxInt32)) + 1
	}
	r := rng.New(seed)
	v.seed = seed
	s, err := sim.NewSimulator(v.settings.SceneSizeX, v.settings.SceneSizeY, v.settings.SceneSizeZ, r, nil)
	if err != nil {
		log.Fatalf("building simulator: %v", err)
	}
	v.sim = s
	if v.settings.IsShowRandSeed {
		fmt.Printf("RAND SEED: %d\n", seed)
	}
}

func (v *Viewer) Update() error {
	if v.pendingExit != nil {
		err := v.pendingExit
		v.pendingExit = nil
		return err
	}

	v.handleInput()
	if v.clipboardTTL > 0 {
		v.clipboardTTL--
	}
	if v.paused {
		return nil
	}

	if err := v.sim.NextStep(); err != nil {
		return err
	}
	return nil
}

func (v *Viewer) handleInput() {
	down := func(k ebiten.Key) bool { return ebiten.IsKeyPressed(k) }
	pressed := func(k ebiten.Key) bool { return down(k) && !v.prevKeys[k] }

	if pressed(ebiten.KeyEscape) {
		v.pendingExit = ErrQuit
	}
	if pressed(ebiten.KeySpace) {
		v.paused = !v.paused
	}
	if pressed(ebiten.KeyR) {
		v.pendingExit = ErrRestart
	}
	if pressed(ebiten.KeyC) {
		if err := clipboard.WriteAll(fmt.Sprintf("%d", v.seed)); err == nil {
			v.clipboardMsg = fmt.Sprintf("copied seed %d to clipboard", v.seed)
			v.clipboardTTL = clipboardFlashTicks
		}
	}

	for _, k := range []ebiten.Key{ebiten.KeyEscape, ebiten.KeySpace, ebiten.KeyR, ebiten.KeyC} {
		v.prevKeys[k] = down(k)
	}
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 8, G: 8, B: 12, A: 255})

	frame, err := v.sim.GetCurrentMicroFrame()
	if err != nil {
		ebitenutil.DebugPrintAt(screen, err.Error(), 10, 10)
		return
	}

	type projected struct {
		x, y, z float64
		radius  float32
		c       color.Color
	}
	pts := make([]projected, 0, len(frame.Pixels))
	cx, cy := float64(v.width)/2, float64(v.height)/2
	for _, p := range frame.Pixels {
		if p.Color == sim.ColorHidden {
			continue
		}
		radius := float32(pixelRadius)
		if p.Color == sim.ColorOrangeRed {
			radius = bulletRadius
		}
		pts = append(pts, projected{
			x: cx + p.Pos.X*0.5,
			y: cy - p.Pos.Y*0.5 - p.Pos.Z*0.3,
			z: p.Pos.Z,
			c: color.RGBA{R: p.Color.R, G: p.Color.G, B: p.Color.B, A: 255},
			radius: radius,
		})
	}
	// Painter's algorithm: farthest (lowest z) first, so nearer drones occlude.
	sort.Slice(pts, func(i, j int) bool { return pts[i].z < pts[j].z })
	for _, pt := range pts {
		vector.FillCircle(screen, float32(pt.x), float32(pt.y), pt.radius, pt.c, false)
	}

	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("sim_step=%d tree_size=%d", v.sim.SimStepCount(), v.sim.CurrentFrameTree().Size()), 10, 10)
	ebitenutil.DebugPrintAt(screen, "SPACE: pause  R: restart  C: copy seed  ESC: quit", 10, v.height-20)
	if v.clipboardTTL > 0 {
		ebitenutil.DebugPrintAt(screen, v.clipboardMsg, 10, 28)
	}
}

func (v *Viewer) Layout(_, _ int) (int, int) {
	return v.width, v.height
}

func main() {
	settings := config.Default()
	logger := spicomplog.New(false)
	defer logger.Sync() //nolint:errcheck

	ebiten.SetWindowTitle("Drone Swarm Contingency Viewer")
	ebiten.SetWindowSize(settings.WindowSizeX, settings.WindowSizeY)

	v := New(settings)
	for {
		err := ebiten.RunGame(v)
		switch {
		case err == nil:
			return
		case errors.Is(err, ErrQuit):
			return
		case errors.Is(err, ErrRestart):
			v.reset(0) // draw a fresh seed from OS entropy on restart
			continue
		default:
			logger.Errorw("viewer exited with error", "error", err)
			log.Fatal(err)
		}
	}
}
