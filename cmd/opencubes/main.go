package main

import (
	"runtime"
	"strconv"
	"unsafe"

	"github.com/gobuffalo/envy"
	"github.com/gobuffalo/packr"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"golang.org/x/exp/mmap"

	"github.com/Q4LEX/opencubes/core"
	"github.com/Q4LEX/opencubes/pak"
)

func init() {
	runtime.LockOSThread()
}

// Essential globals
var (
	vkInstance core.Instance
	vkRenderer core.Renderer
	sdlWindow  *sdl.Window
	sdlSurface unsafe.Pointer

	shaderBox = packr.NewBox("../../shaders")
)

func envInt(key string, fallback int) int {
	value, err := strconv.Atoi(envy.Get(key, strconv.Itoa(fallback)))
	if err != nil {
		log.Warnf("%s is not a number, using %d", key, fallback)
		return fallback
	}
	return value
}

func envBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(envy.Get(key, strconv.FormatBool(fallback)))
	if err != nil {
		log.Warnf("%s is not a boolean, using %t", key, fallback)
		return fallback
	}
	return value
}

// loadShader takes bytecode from the pak bundle when one is
// configured, otherwise from the embedded box. The bundle is memory
// mapped, pak archives are laid out for random access
func loadShader(name string) []byte {
	if bundle := envy.Get("OPENCUBES_PAK", ""); bundle != "" {
		r, err := mmap.Open(bundle)
		if err != nil {
			log.Fatalf("open shader bundle: %s", err)
		}
		defer r.Close()
		archive, err := pak.Open(r, int64(r.Len()))
		if err != nil {
			log.Fatalf("read shader bundle: %s", err)
		}
		contents, err := archive.ReadAll(name)
		if err != nil {
			log.Fatalf("shader %s missing from bundle: %s", name, err)
		}
		return contents
	}

	contents, err := shaderBox.MustBytes(name)
	if err != nil {
		log.Fatalf("embedded shader %s missing, run shaders/compile.sh: %s", name, err)
	}
	return contents
}

func buildConfiguration() core.Configuration {
	return core.Configuration{
		Time: core.TimeConfiguration{
			FramesPerSecond: envInt("OPENCUBES_FPS", 60),
			EventPollDelay:  envInt("OPENCUBES_EVENT_POLL_MS", 2),
		},
		Instance: core.InstanceConfiguration{
			AppName:           "OpenCubes",
			AppVersion:        core.ApiVersion{Major: 0, Minor: 1},
			MinimumAPIVersion: core.ApiVersion{Major: 1, Minor: 1},
			DebugMode:         envBool("OPENCUBES_DEBUG", false),
		},
		Renderer: core.RendererConfiguration{
			ScreenWidth:  uint32(envInt("OPENCUBES_WIDTH", 800)),
			ScreenHeight: uint32(envInt("OPENCUBES_HEIGHT", 600)),
			DeviceExtensions: []string{
				"VK_KHR_swapchain",
			},
			VertexShader:   loadShader("base.vert.spv"),
			FragmentShader: loadShader("base.frag.spv"),
		},
	}
}

func newWindow(cfg core.RendererConfiguration) *sdl.Window {
	window, err := sdl.CreateWindow("OpenCubes",
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.ScreenWidth),
		int32(cfg.ScreenHeight),
		sdl.WINDOW_VULKAN)
	if err != nil {
		log.Fatalf("sdl.CreateWindow(): %s", err)
	}
	return window
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %s", err)
	}

	if level, err := log.ParseLevel(envy.Get("OPENCUBES_LOG_LEVEL", "info")); err == nil {
		log.SetLevel(level)
	}

	configuration := buildConfiguration()

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		log.Fatalf("sdl.Init(): %s", err)
	}
	defer sdl.Quit()

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		log.Fatalf("sdl.VulkanLoadLibrary(): %s", err)
	}
	defer sdl.VulkanUnloadLibrary()

	sdlWindow = newWindow(configuration.Renderer)
	defer sdlWindow.Destroy()

	configuration.Instance.Extensions = sdlWindow.VulkanGetInstanceExtensions()

	instance, err := core.NewVulkanInstance(configuration.Instance, sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		log.Fatalf("core.NewVulkanInstance(): %s", err)
	}
	vkInstance = instance

	srf, err := sdlWindow.VulkanCreateSurface(vkInstance.Inner())
	if err != nil {
		log.Fatalf("sdlWindow.VulkanCreateSurface(): %s", err)
	}
	sdlSurface = srf
	vkInstance.SetSurface(sdlSurface)

	renderer, err := core.NewVulkanRenderer(vkInstance, configuration)
	if err != nil {
		log.Fatalf("core.NewVulkanRenderer(): %s", err)
	}
	vkRenderer = renderer

	if err := vkRenderer.Initialise(); err != nil {
		log.Fatalf("renderer initialise: %s", err)
	}

	time := core.NewTime(configuration.Time)
	defer time.Stop()

	err = runLoop(&time, vkRenderer.DrawFrame, pollEvents)

	vkRenderer.Destroy()
	vkInstance.Destroy()

	if err != nil {
		log.Fatalf("draw frame: %s", err)
	}
}

// runLoop drives frame and event ticks until an exit is requested or
// a frame fails. A frame error ends the loop immediately: after a
// failed submit the in-flight fence stays unsignaled and another
// DrawFrame would block on it forever
func runLoop(time *core.Time, draw func() error, poll func() bool) error {
	exitC := make(chan struct{}, 2)
	for {
		select {
		case <-exitC:
			log.Info("event loop exited")
			return nil
		case <-time.FpsTicker().C:
			if err := draw(); err != nil {
				return err
			}
		case <-time.EventTicker().C:
			if poll() {
				exitC <- struct{}{}
			}
		}
	}
}

// pollEvents drains the SDL event queue, reporting whether an exit
// was requested
func pollEvents() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch et := event.(type) {
		case *sdl.KeyboardEvent:
			if et.Keysym.Sym == sdl.K_ESCAPE {
				return true
			}
		case *sdl.QuitEvent:
			return true
		}
	}
	return false
}
