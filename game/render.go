package game

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/mpm2d/proxy"
	"github.com/pthm-cable/mpm2d/scene"
	"github.com/pthm-cable/mpm2d/vmath"
)

// Panel layout in screen pixels.
const (
	panelX     = 10
	panelY     = 110
	panelWidth = 260
	rowHeight  = 34
)

var (
	colorBackground = rl.Color{R: 14, G: 18, B: 28, A: 255}
	colorDomain     = rl.Color{R: 70, G: 80, B: 100, A: 255}
	colorSparse     = rl.Color{R: 40, G: 90, B: 200, A: 255}
	colorDense      = rl.Color{R: 210, G: 240, B: 255, A: 255}
	colorStatic     = rl.Color{R: 150, G: 150, B: 150, A: 255}
	colorPanel      = rl.Color{R: 245, G: 245, B: 245, A: 230}
)

// Draw renders the current frame.
func (g *Game) Draw() {
	rl.BeginDrawing()
	defer rl.EndDrawing()

	rl.ClearBackground(colorBackground)
	g.drawDomain()
	g.drawParticles()
	g.drawUI()
	if g.showPanel {
		g.drawPanel()
	}
}

// drawDomain outlines the valid cell range.
func (g *Game) drawDomain() {
	b := g.cfg.Derived.Bounds
	cw := g.cfg.Derived.CellWidth32
	x0, y1 := g.camera.WorldToScreen(float32(b.Min.X)*cw, float32(b.Min.Y)*cw)
	x1, y0 := g.camera.WorldToScreen(float32(b.Max.X)*cw, float32(b.Max.Y)*cw)
	rl.DrawRectangleLinesEx(rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, 2, colorDomain)
}

// drawParticles draws every proxy coloured by gathered density.
func (g *Game) drawParticles() {
	rest := g.state.Params().RestDensity
	spacing := scene.Spacing(g.cfg)
	radius := max(1, spacing*0.5*g.camera.Zoom)

	g.proxies.Each(func(_ *proxy.ParticleRef, pos *proxy.Position, _ *proxy.Velocity, shade *proxy.Shade) {
		if !g.camera.IsVisible(pos.X, pos.Y, spacing) {
			return
		}
		sx, sy := g.camera.WorldToScreen(pos.X, pos.Y)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, radius, densityColor(shade, rest))
	})
}

// densityColor maps density/rest in [0.5, 1.5] onto the sparse-dense ramp.
func densityColor(shade *proxy.Shade, rest float32) rl.Color {
	if shade.Static {
		return colorStatic
	}
	t := min(1, max(0, shade.Density*vmath.SafeInverse(rest)-0.5))
	return rl.Color{
		R: lerpByte(colorSparse.R, colorDense.R, t),
		G: lerpByte(colorSparse.G, colorDense.G, t),
		B: lerpByte(colorSparse.B, colorDense.B, t),
		A: 255,
	}
}

func lerpByte(a, b uint8, t float32) uint8 {
	return uint8(vmath.Lerp(float32(a), float32(b), t))
}

// drawUI draws the status lines.
func (g *Game) drawUI() {
	status := "running"
	if g.paused {
		status = "paused"
	}
	perf := g.perfCollector.Stats()
	lines := []string{
		fmt.Sprintf("tick %d  %s  x%d", g.tick, status, g.stepsPerUpdate),
		fmt.Sprintf("particles %d  cells %d", g.state.ParticleCount(), g.state.GridActiveCellCount()),
		fmt.Sprintf("fps %d  step %dus", rl.GetFPS(), perf.AvgTickDuration.Microseconds()),
		fmt.Sprintf("boundary %s  constraints %v", g.state.BoundaryMode(), g.state.Constraints().Enabled),
		"LMB fluid  RMB obstacle",
	}
	for i, line := range lines {
		rl.DrawText(line, 10, int32(10+i*22), 18, rl.RayWhite)
	}
}

// overPanel reports whether a screen point is inside the control panel.
func (g *Game) overPanel(p rl.Vector2) bool {
	if !g.showPanel {
		return false
	}
	return p.X >= panelX && p.X <= panelX+panelWidth && p.Y >= panelY && p.Y <= panelY+rowHeight*9
}

// drawPanel draws the raygui control panel and applies its edits.
func (g *Game) drawPanel() {
	rl.DrawRectangle(panelX-5, panelY-5, panelWidth+10, rowHeight*9+10, colorPanel)

	y := float32(panelY)
	slider := func(label string, value, lo, hi float32) float32 {
		rl.DrawText(fmt.Sprintf("%s %.3g", label, value), panelX, int32(y), 14, rl.DarkGray)
		v := gui.SliderBar(rl.Rectangle{X: panelX, Y: y + 14, Width: panelWidth - 40, Height: 14},
			"", "", value, lo, hi)
		y += rowHeight
		return v
	}

	gravity := g.state.Gravity()
	if gy := slider("gravity", gravity.Y, -200, 0); gy != gravity.Y {
		g.state.SetGravity(vmath.V2(gravity.X, gy))
	}

	params := g.state.Params()
	if mu := slider("viscosity", params.DynamicViscosity, 0, 1); mu != params.DynamicViscosity {
		params.DynamicViscosity = mu
		g.state.SetParams(params)
	}
	if k := slider("stiffness", params.EOSStiffness, 1, 50); k != params.EOSStiffness {
		params.EOSStiffness = k
		g.state.SetParams(params)
	}

	cp := g.state.Constraints()
	if r := slider("relaxation", cp.Relaxation, 0, 1); r != cp.Relaxation {
		cp.Relaxation = r
		g.state.SetConstraints(cp)
	}

	g.brushRadius = slider("brush", g.brushRadius, 1, 10)

	button := func(label string) bool {
		hit := gui.Button(rl.Rectangle{X: panelX, Y: y, Width: panelWidth - 40, Height: 26}, label)
		y += rowHeight
		return hit
	}
	if button("boundary: " + g.state.BoundaryMode().String()) {
		g.cycleBoundary()
	}
	if button(fmt.Sprintf("constraints: %v", cp.Enabled)) {
		g.toggleConstraints()
	}
	if button("reset") {
		g.Reset()
	}
	if button("snapshot") {
		g.SaveSnapshot()
	}
}
