package platform

import (
	"fmt"
	"image"
	"math"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// GLFWBackend drives real OS windows through GLFW. Windows are created with
// no client API; rendering is expected to go through Vulkan surfaces.
type GLFWBackend struct {
	// SuspendOnIconify reports suspend and resume edges when every window
	// is minimized, matching how the engine idles a minimized game.
	SuspendOnIconify bool

	initialized bool
	started     bool
	suspended   bool
	queue       []Event
	windows     map[*glfw.Window]*glfwWindow
	byID        map[WindowID]*glfwWindow
}

func NewGLFWBackend() *GLFWBackend {
	return &GLFWBackend{
		SuspendOnIconify: true,
		windows:          make(map[*glfw.Window]*glfwWindow),
		byID:             make(map[WindowID]*glfwWindow),
	}
}

func (b *GLFWBackend) Init() error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("initializing glfw: %w", err)
	}
	b.initialized = true
	return nil
}

func (b *GLFWBackend) Shutdown() {
	if b.initialized {
		glfw.Terminate()
		b.initialized = false
	}
}

func hintBool(v bool) int {
	if v {
		return glfw.True
	}
	return glfw.False
}

func (b *GLFWBackend) CreateWindow(id WindowID, w *Window) (NativeWindow, error) {
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, hintBool(w.Resizable))
	glfw.WindowHint(glfw.Decorated, hintBool(w.Decorated))
	glfw.WindowHint(glfw.Floating, hintBool(w.AlwaysOnTop))
	glfw.WindowHint(glfw.TransparentFramebuffer, hintBool(w.Transparent))
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	width := int(math.Round(float64(w.Resolution.Width())))
	height := int(math.Round(float64(w.Resolution.Height())))

	var monitor *glfw.Monitor
	switch w.Mode {
	case Fullscreen:
		monitor = glfw.GetPrimaryMonitor()
	case BorderlessFullscreen:
		monitor = glfw.GetPrimaryMonitor()
		if vid := monitor.GetVideoMode(); vid != nil {
			glfw.WindowHint(glfw.RedBits, vid.RedBits)
			glfw.WindowHint(glfw.GreenBits, vid.GreenBits)
			glfw.WindowHint(glfw.BlueBits, vid.BlueBits)
			glfw.WindowHint(glfw.RefreshRate, vid.RefreshRate)
			width, height = vid.Width, vid.Height
		}
	}

	handle, err := glfw.CreateWindow(width, height, w.Title, monitor, nil)
	if err != nil {
		return nil, fmt.Errorf("creating glfw window: %w", err)
	}

	gw := &glfwWindow{backend: b, handle: handle, id: id}
	b.windows[handle] = gw
	b.byID[id] = gw

	if w.Mode == Windowed {
		switch w.Position.Kind {
		case PositionAt:
			handle.SetPos(w.Position.X, w.Position.Y)
		case PositionCentered:
			if m := glfw.GetPrimaryMonitor(); m != nil {
				if vid := m.GetVideoMode(); vid != nil {
					mx, my := m.GetPos()
					handle.SetPos(mx+(vid.Width-width)/2, my+(vid.Height-height)/2)
				}
			}
		}
	}

	cc := w.ResizeConstraints.check()
	handle.SetSizeLimits(
		int(cc.MinWidth), int(cc.MinHeight),
		sizeLimit(cc.MaxWidth), sizeLimit(cc.MaxHeight),
	)
	gw.SetCursorMode(w.CursorMode)

	handle.SetKeyCallback(b.keyCallback)
	handle.SetCharCallback(b.charCallback)
	handle.SetMouseButtonCallback(b.mouseButtonCallback)
	handle.SetCursorPosCallback(b.cursorPosCallback)
	handle.SetCursorEnterCallback(b.cursorEnterCallback)
	handle.SetScrollCallback(b.scrollCallback)
	handle.SetFramebufferSizeCallback(b.framebufferSizeCallback)
	handle.SetContentScaleCallback(b.contentScaleCallback)
	handle.SetPosCallback(b.posCallback)
	handle.SetFocusCallback(b.focusCallback)
	handle.SetCloseCallback(b.closeCallback)
	handle.SetDropCallback(b.dropCallback)
	handle.SetIconifyCallback(b.iconifyCallback)

	if w.Visible {
		handle.Show()
	}

	return gw, nil
}

// Pump maps the armed control flow onto GLFW's event waiting primitives.
// The first pump reports the resume edge: a desktop platform is ready to
// create surfaces as soon as the loop runs.
func (b *GLFWBackend) Pump(dst []Event, flow ControlFlow) ([]Event, error) {
	if !b.started {
		b.started = true
		dst = append(dst, ResumeEvent{})
	}

	switch flow.Kind {
	case FlowPoll:
		glfw.PollEvents()
	case FlowWait:
		glfw.WaitEvents()
	case FlowWaitUntil:
		if d := time.Until(flow.Deadline); d > 0 {
			glfw.WaitEventsTimeout(d.Seconds())
		} else {
			glfw.PollEvents()
		}
	}

	dst = append(dst, b.queue...)
	b.queue = b.queue[:0]
	return dst, nil
}

func (b *GLFWBackend) Wake() {
	glfw.PostEmptyEvent()
}

// AnyWindowVisible reports whether at least one window is shown and not
// minimized.
func (b *GLFWBackend) AnyWindowVisible() bool {
	for _, gw := range b.byID {
		if gw.IsVisible() {
			return true
		}
	}
	return false
}

// InstanceExtensions lists the Vulkan instance extensions GLFW needs for
// surface creation.
func (b *GLFWBackend) InstanceExtensions() []string {
	return glfw.GetRequiredInstanceExtensions()
}

func (b *GLFWBackend) push(ev Event) {
	b.queue = append(b.queue, ev)
}

func (b *GLFWBackend) lookup(w *glfw.Window) (*glfwWindow, bool) {
	gw, ok := b.windows[w]
	return gw, ok
}

func (b *GLFWBackend) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if gw, ok := b.lookup(w); ok {
		b.push(KeyEvent{
			Window:   gw.id,
			Key:      convertKey(key),
			Scancode: scancode,
			Action:   convertAction(action),
			Mods:     convertMods(mods),
		})
	}
}

func (b *GLFWBackend) charCallback(w *glfw.Window, char rune) {
	if gw, ok := b.lookup(w); ok {
		b.push(CharEvent{Window: gw.id, Char: char})
	}
}

func (b *GLFWBackend) mouseButtonCallback(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	if gw, ok := b.lookup(w); ok {
		b.push(ButtonEvent{
			Window: gw.id,
			Button: convertButton(button),
			Action: convertAction(action),
			Mods:   convertMods(mods),
		})
	}
}

func (b *GLFWBackend) cursorPosCallback(w *glfw.Window, xpos, ypos float64) {
	gw, ok := b.lookup(w)
	if !ok {
		return
	}
	b.push(CursorPosEvent{Window: gw.id, X: xpos, Y: ypos})
	// GLFW exposes raw motion only for a disabled cursor, so device-level
	// motion is synthesized from cursor deltas.
	if gw.hasCursor {
		b.push(MotionEvent{DX: xpos - gw.lastCursorX, DY: ypos - gw.lastCursorY})
	}
	gw.lastCursorX, gw.lastCursorY = xpos, ypos
	gw.hasCursor = true
}

func (b *GLFWBackend) cursorEnterCallback(w *glfw.Window, entered bool) {
	if gw, ok := b.lookup(w); ok {
		if !entered {
			gw.hasCursor = false
		}
		b.push(CursorEnterEvent{Window: gw.id, Entered: entered})
	}
}

func (b *GLFWBackend) scrollCallback(w *glfw.Window, xoff, yoff float64) {
	if gw, ok := b.lookup(w); ok {
		b.push(ScrollEvent{Window: gw.id, X: xoff, Y: yoff})
	}
}

func (b *GLFWBackend) framebufferSizeCallback(w *glfw.Window, width, height int) {
	if gw, ok := b.lookup(w); ok {
		b.push(SizeEvent{Window: gw.id, Width: width, Height: height})
	}
}

func (b *GLFWBackend) contentScaleCallback(w *glfw.Window, x float32, y float32) {
	if gw, ok := b.lookup(w); ok {
		b.push(ScaleEvent{Window: gw.id, Scale: float64(x)})
	}
}

func (b *GLFWBackend) posCallback(w *glfw.Window, xpos, ypos int) {
	if gw, ok := b.lookup(w); ok {
		b.push(PosEvent{Window: gw.id, X: xpos, Y: ypos})
	}
}

func (b *GLFWBackend) focusCallback(w *glfw.Window, focused bool) {
	if gw, ok := b.lookup(w); ok {
		b.push(FocusEvent{Window: gw.id, Focused: focused})
	}
}

func (b *GLFWBackend) closeCallback(w *glfw.Window) {
	if gw, ok := b.lookup(w); ok {
		b.push(CloseEvent{Window: gw.id})
	}
}

func (b *GLFWBackend) dropCallback(w *glfw.Window, names []string) {
	if gw, ok := b.lookup(w); ok {
		paths := make([]string, len(names))
		copy(paths, names)
		b.push(DropEvent{Window: gw.id, Paths: paths})
	}
}

func (b *GLFWBackend) iconifyCallback(w *glfw.Window, iconified bool) {
	if !b.SuspendOnIconify {
		return
	}
	if _, ok := b.lookup(w); !ok {
		return
	}
	if iconified {
		if !b.suspended && b.allIconified() {
			b.suspended = true
			b.push(SuspendEvent{})
		}
	} else if b.suspended {
		b.suspended = false
		b.push(ResumeEvent{})
	}
}

func (b *GLFWBackend) allIconified() bool {
	for _, gw := range b.byID {
		if gw.handle.GetAttrib(glfw.Iconified) == glfw.False {
			return false
		}
	}
	return len(b.byID) > 0
}

// glfwWindow adapts one GLFW window to the NativeWindow interface.
type glfwWindow struct {
	backend *GLFWBackend
	handle  *glfw.Window
	id      WindowID

	lastCursorX, lastCursorY float64
	hasCursor                bool

	// restore rect for leaving fullscreen
	windowedX, windowedY int
	windowedW, windowedH int
}

// RequestRedraw queues a redraw wake so even a waiting loop runs another
// iteration with window activity, which is what keeps continuous mode
// spinning while the loop control flow is Wait.
func (gw *glfwWindow) RequestRedraw() {
	gw.backend.push(RedrawEvent{Window: gw.id})
	glfw.PostEmptyEvent()
}

func (gw *glfwWindow) PhysicalSize() (int, int) {
	return gw.handle.GetFramebufferSize()
}

func (gw *glfwWindow) ScaleFactor() float64 {
	x, _ := gw.handle.GetContentScale()
	if x <= 0 {
		return 1
	}
	return float64(x)
}

func (gw *glfwWindow) IsVisible() bool {
	return gw.handle.GetAttrib(glfw.Visible) == glfw.True &&
		gw.handle.GetAttrib(glfw.Iconified) == glfw.False
}

func (gw *glfwWindow) SetTitle(title string) {
	gw.handle.SetTitle(title)
}

func (gw *glfwWindow) SetSize(width, height int) {
	gw.handle.SetSize(width, height)
}

func (gw *glfwWindow) SetPosition(x, y int) {
	gw.handle.SetPos(x, y)
}

func (gw *glfwWindow) SetSizeLimits(minW, minH, maxW, maxH int) {
	gw.handle.SetSizeLimits(minW, minH, maxW, maxH)
}

func (gw *glfwWindow) SetVisible(visible bool) {
	if visible {
		gw.handle.Show()
	} else {
		gw.handle.Hide()
	}
}

func (gw *glfwWindow) SetResizable(resizable bool) {
	gw.handle.SetAttrib(glfw.Resizable, hintBool(resizable))
}

func (gw *glfwWindow) SetDecorated(decorated bool) {
	gw.handle.SetAttrib(glfw.Decorated, hintBool(decorated))
}

func (gw *glfwWindow) SetAlwaysOnTop(onTop bool) {
	gw.handle.SetAttrib(glfw.Floating, hintBool(onTop))
}

func (gw *glfwWindow) SetCursorMode(mode CursorMode) {
	switch mode {
	case CursorHidden:
		gw.handle.SetInputMode(glfw.CursorMode, glfw.CursorHidden)
	case CursorDisabled:
		gw.handle.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	default:
		gw.handle.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
}

func (gw *glfwWindow) SetMode(mode WindowMode) error {
	monitor := glfw.GetPrimaryMonitor()
	switch mode {
	case Windowed:
		if gw.handle.GetMonitor() == nil {
			return nil
		}
		gw.handle.SetMonitor(nil, gw.windowedX, gw.windowedY, gw.windowedW, gw.windowedH, 0)
		return nil

	case Fullscreen, BorderlessFullscreen:
		if monitor == nil {
			return fmt.Errorf("no monitor available for fullscreen")
		}
		vid := monitor.GetVideoMode()
		if vid == nil {
			return fmt.Errorf("no video mode available for fullscreen")
		}
		if gw.handle.GetMonitor() == nil {
			gw.windowedX, gw.windowedY = gw.handle.GetPos()
			gw.windowedW, gw.windowedH = gw.handle.GetSize()
		}
		gw.handle.SetMonitor(monitor, 0, 0, vid.Width, vid.Height, vid.RefreshRate)
		return nil
	}
	return fmt.Errorf("unknown window mode %d", mode)
}

func (gw *glfwWindow) SetIcon(images []image.Image) {
	gw.handle.SetIcon(images)
}

func (gw *glfwWindow) Focus() {
	gw.handle.Focus()
}

func (gw *glfwWindow) Destroy() {
	delete(gw.backend.windows, gw.handle)
	delete(gw.backend.byID, gw.id)
	gw.handle.Destroy()
}
