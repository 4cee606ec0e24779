package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/mpm2d/grid"
	"github.com/pthm-cable/mpm2d/vmath"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < maxStepsPerUpdate {
		g.stepsPerUpdate++
	}

	// Single step while paused
	if g.paused && rl.IsKeyPressed(rl.KeyN) {
		g.step()
	}

	if rl.IsKeyPressed(rl.KeyR) {
		g.Reset()
	}
	if rl.IsKeyPressed(rl.KeyB) {
		g.cycleBoundary()
	}
	if rl.IsKeyPressed(rl.KeyC) {
		g.toggleConstraints()
	}
	if rl.IsKeyPressed(rl.KeyS) {
		g.SaveSnapshot()
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		g.showPanel = !g.showPanel
	}

	// Paint fluid with the left mouse button outside the panel
	if rl.IsMouseButtonDown(rl.MouseButtonLeft) && !g.overPanel(rl.GetMousePosition()) {
		mouse := rl.GetMousePosition()
		wx, wy := g.camera.ScreenToWorld(mouse.X, mouse.Y)
		g.SpawnDisc(vmath.V2(wx, wy), g.brushRadius)
	}
	// Right click drops a static obstacle
	if rl.IsMouseButtonPressed(rl.MouseButtonRight) && !g.overPanel(rl.GetMousePosition()) {
		mouse := rl.GetMousePosition()
		wx, wy := g.camera.ScreenToWorld(mouse.X, mouse.Y)
		n := g.SpawnObstacle(vmath.V2(wx, wy), g.brushRadius)
		slog.Debug("obstacle placed", "x", wx, "y", wy, "particles", n)
	}

	g.handleCameraInput()
}

// cycleBoundary switches stick, slip and open in turn.
func (g *Game) cycleBoundary() {
	next := (g.state.BoundaryMode() + 1) % (grid.Open + 1)
	g.state.SetBoundaryMode(next)
	slog.Info("boundary mode", "mode", next.String())
}

func (g *Game) toggleConstraints() {
	cp := g.state.Constraints()
	cp.Enabled = !cp.Enabled
	g.state.SetConstraints(cp)
	slog.Info("constraints", "enabled", cp.Enabled)
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h
	g.camera.Resize(w, h)
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	// Pan speed is in screen pixels
	const panSpeed = 8.0

	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(0, -panSpeed)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomBy(1 + wheel*0.1)
	}

	// Keyboard zoom with +/- (= and - keys)
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}
