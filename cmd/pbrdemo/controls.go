package main

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

type action int

const (
	actionForward action = iota
	actionBackward
	actionLeft
	actionRight
	actionUp
	actionDown
	actionLook
	actionTogglePanel
	actionToggleWireframe
	actionQuit
	actionCount
)

// binding is a key, or a mouse button when mouse is set
type binding struct {
	key    glfw.Key
	button glfw.MouseButton
	mouse  bool
}

func keyBinding(key glfw.Key) binding {
	return binding{key: key}
}

func mouseBinding(button glfw.MouseButton) binding {
	return binding{button: button, mouse: true}
}

var defaultBindings = [actionCount]binding{
	actionForward:         keyBinding(glfw.KeyW),
	actionBackward:        keyBinding(glfw.KeyS),
	actionLeft:            keyBinding(glfw.KeyA),
	actionRight:           keyBinding(glfw.KeyD),
	actionUp:              keyBinding(glfw.KeySpace),
	actionDown:            keyBinding(glfw.KeyLeftControl),
	actionLook:            mouseBinding(glfw.MouseButtonRight),
	actionTogglePanel:     keyBinding(glfw.KeyF1),
	actionToggleWireframe: keyBinding(glfw.KeyF2),
	actionQuit:            keyBinding(glfw.KeyEscape),
}

// inputSource is the part of *glfw.Window the controls poll
type inputSource interface {
	GetKey(key glfw.Key) glfw.Action
	GetMouseButton(button glfw.MouseButton) glfw.Action
	GetCursorPos() (x, y float64)
}

type controlState struct {
	time   float64
	cursor mgl32.Vec2
	active [actionCount]bool
}

// controls keeps the bound actions of this and the previous frame so presses can be told apart from holds
type controls struct {
	bindings [actionCount]binding
	clock    func() float64
	curr     controlState
	prev     controlState
}

func newControls(src inputSource, clock func() float64) *controls {
	c := &controls{bindings: defaultBindings, clock: clock}
	c.poll(src)
	c.prev = c.curr
	// keep the first time delta above zero
	c.prev.time -= 1. / 60.
	return c
}

// poll is called once per frame after the events were processed
func (c *controls) poll(src inputSource) {
	c.prev = c.curr
	x, y := src.GetCursorPos()
	c.curr.time = c.clock()
	c.curr.cursor = mgl32.Vec2{float32(x), float32(y)}
	for a, b := range c.bindings {
		if b.mouse {
			c.curr.active[a] = src.GetMouseButton(b.button) != glfw.Release
		} else {
			c.curr.active[a] = src.GetKey(b.key) != glfw.Release
		}
	}
}

func (c *controls) Held(a action) bool {
	return c.curr.active[a]
}

func (c *controls) Pressed(a action) bool {
	return c.curr.active[a] && !c.prev.active[a]
}

// Delta is the time between the last two polls in seconds
func (c *controls) Delta() float32 {
	return float32(c.curr.time - c.prev.time)
}

// Movement returns the unnormalized view space direction of the held movement actions
func (c *controls) Movement() mgl32.Vec3 {
	axis := func(neg, pos action) float32 {
		var v float32
		if c.Held(neg) {
			v -= 1
		}
		if c.Held(pos) {
			v += 1
		}
		return v
	}
	return mgl32.Vec3{
		axis(actionLeft, actionRight),
		axis(actionDown, actionUp),
		axis(actionForward, actionBackward),
	}
}

// Look returns the cursor movement while the look action is held
func (c *controls) Look() mgl32.Vec2 {
	if !c.Held(actionLook) {
		return mgl32.Vec2{}
	}
	return c.curr.cursor.Sub(c.prev.cursor)
}
