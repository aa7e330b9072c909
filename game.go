package main

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/rigidsync/render"
	"github.com/milk9111/rigidsync/specs"
	"github.com/milk9111/rigidsync/stage"
	"github.com/milk9111/rigidsync/ticker"
)

const (
	baseWidth  = 1280
	baseHeight = 720

	// width of the solver overlay in metres
	debugSpan = 120
)

type Game struct {
	frames int
	debug  bool

	specPath string
	spec     specs.Scene
	ticker   *ticker.Ticker
	screen   *screenRenderer
	owner    *stage.Owner
	watcher  *specs.Watcher
	pauseUI  *ebitenui.UI
}

// screenRenderer keeps the projected display list until Draw consumes it.
type screenRenderer struct {
	*render.Projector
}

func NewGame(specPath string, watch, debug bool) (*Game, error) {
	spec, err := loadSpec(specPath)
	if err != nil {
		return nil, err
	}

	g := &Game{specPath: specPath, debug: debug}
	g.start(spec)
	g.pauseUI = NewPauseUI(g)

	if watch {
		dir := filepath.Dir(specs.DiskPath(specs.DefaultScene))
		if specPath != "" {
			dir = filepath.Dir(specPath)
		}
		w, err := specs.NewWatcher(dir)
		if err != nil {
			log.Printf("Game: spec watcher disabled: %v", err)
		} else {
			g.watcher = w
		}
	}
	return g, nil
}

func loadSpec(path string) (specs.Scene, error) {
	if path == "" {
		return specs.LoadScene(specs.DefaultScene)
	}
	return specs.LoadSceneFile(path)
}

// start builds a fresh ticker, renderer and scene owner for spec. An init
// failure leaves the scene empty and the ticker paused.
func (g *Game) start(spec specs.Scene) {
	g.spec = spec
	g.ticker = ticker.New()
	g.screen = &screenRenderer{Projector: render.NewProjector(baseWidth, baseHeight)}
	g.owner = stage.New(spec, g.screen, g.ticker)
	if err := g.owner.Init(); err != nil {
		log.Printf("Game: %v", err)
	}
}

func (g *Game) reload() {
	spec, err := loadSpec(g.specPath)
	if err != nil {
		log.Printf("Game: reload failed, keeping current scene: %v", err)
		return
	}
	log.Printf("Game: reloading scene %q", spec.Name)
	g.owner.Dispose()
	g.start(spec)
}

func (g *Game) pollWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case name, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			log.Printf("Game: spec changed: %s", name)
			g.reload()
		case err, ok := <-g.watcher.Errors:
			if ok {
				log.Printf("Game: spec watcher: %v", err)
			}
			return
		default:
			return
		}
	}
}

func (g *Game) Update() error {
	g.frames++

	g.pollWatcher()

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.debug = !g.debug
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.owner.Drop()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) && g.owner.Ready() {
		if g.ticker.Paused() {
			g.ticker.Resume()
		} else {
			g.ticker.Pause()
		}
	}

	if g.owner.Ready() && g.ticker.Paused() {
		g.pauseUI.Update()
	}

	g.ticker.Tick(time.Now())
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(g.spec.Background.NRGBA)
	for _, s := range g.screen.Segments() {
		vector.StrokeLine(screen, s.X0, s.Y0, s.X1, s.Y1, 1, s.Color, true)
	}

	if g.debug && g.owner.Ready() {
		focus := g.owner.World().Transform(g.owner.SphereBody()).Col(3)
		g.owner.World().DebugDraw(newSolverDrawer(screen, cp.Vector{Y: float64(focus.Y())}, debugSpan))
	}

	status := fmt.Sprintf("FPS: %.2f  TPS: %.2f  bodies: %d  frames: %d",
		ebiten.ActualFPS(), ebiten.ActualTPS(), g.owner.World().BodyCount(), g.ticker.Frames())
	if err := g.owner.Err(); err != nil {
		status = fmt.Sprintf("physics failed to start: %v", err)
	} else if g.ticker.Paused() {
		status += "  [paused]"
	}
	ebitenutil.DebugPrint(screen, status+"\nspace: drop sphere  p: pause  f1: solver view  esc: quit")

	if g.owner.Ready() && g.ticker.Paused() {
		g.pauseUI.Draw(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return baseWidth, baseHeight
}

func (g *Game) Close() {
	if g.owner != nil {
		g.owner.Dispose()
	}
	if g.watcher != nil {
		if err := g.watcher.Close(); err != nil {
			log.Printf("Game: close watcher: %v", err)
		}
	}
}
