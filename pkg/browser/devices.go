package browser

import (
	"sort"

	"github.com/go-rod/rod/lib/devices"
)

// Device is a named bundle of emulation parameters.
type Device struct {
	Name              string
	Viewport          Viewport
	DeviceScaleFactor float64
	UserAgent         string
	IsMobile          bool
	HasTouch          bool
}

// catalogue from go-rod, keyed by the device title ("iPhone X", "Pixel 2", ...)
var rodCatalogue = []devices.Device{
	devices.IPhone5orSE,
	devices.IPhone6or7or8,
	devices.IPhone6or7or8Plus,
	devices.IPhoneX,
	devices.IPad,
	devices.IPadMini,
	devices.IPadPro,
	devices.Pixel2,
	devices.Pixel2XL,
	devices.GalaxySIII,
	devices.GalaxyS5,
	devices.Nexus5,
	devices.Nexus7,
	devices.Nexus10,
	devices.MotoG4,
	devices.KindleFireHDX,
	devices.LaptopWithTouch,
	devices.LaptopWithHiDPIScreen,
	devices.LaptopWithMDPIScreen,
}

const (
	uaIPhone15 = "Mozilla/5.0 (iPhone; CPU iPhone OS 15_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.0 Mobile/15E148 Safari/604.1"
	uaPixel5   = "Mozilla/5.0 (Linux; Android 11; Pixel 5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	uaGalaxyS9 = "Mozilla/5.0 (Linux; Android 8.0.0; SM-G965U Build/R16NW) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	uaDesktop  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// newer devices that rod's list predates
var extraDevices = []Device{
	{Name: "iPhone 13", Viewport: Viewport{390, 664}, DeviceScaleFactor: 3, UserAgent: uaIPhone15, IsMobile: true, HasTouch: true},
	{Name: "iPhone 13 Pro Max", Viewport: Viewport{428, 746}, DeviceScaleFactor: 3, UserAgent: uaIPhone15, IsMobile: true, HasTouch: true},
	{Name: "Pixel 5", Viewport: Viewport{393, 727}, DeviceScaleFactor: 2.75, UserAgent: uaPixel5, IsMobile: true, HasTouch: true},
	{Name: "Galaxy S9+", Viewport: Viewport{320, 658}, DeviceScaleFactor: 4.5, UserAgent: uaGalaxyS9, IsMobile: true, HasTouch: true},
	{Name: "Desktop Chrome", Viewport: Viewport{1280, 720}, DeviceScaleFactor: 1, UserAgent: uaDesktop},
}

var registry = buildRegistry()

func buildRegistry() map[string]Device {
	reg := make(map[string]Device, len(rodCatalogue)+len(extraDevices))
	for _, d := range rodCatalogue {
		reg[d.Title] = fromRod(d)
	}
	for _, d := range extraDevices {
		reg[d.Name] = d
	}
	return reg
}

// fromRod converts a rod device in portrait orientation.
func fromRod(d devices.Device) Device {
	return Device{
		Name: d.Title,
		Viewport: Viewport{
			Width:  d.Screen.Vertical.Width,
			Height: d.Screen.Vertical.Height,
		},
		DeviceScaleFactor: d.Screen.DevicePixelRatio,
		UserAgent:         d.UserAgent,
		IsMobile:          hasCapability(d, "mobile"),
		HasTouch:          hasCapability(d, "touch"),
	}
}

// toRod is the inverse of fromRod, used by the rod driver to emulate a context.
func toRod(o ContextOptions) devices.Device {
	var caps []string
	if o.IsMobile {
		caps = append(caps, "mobile")
	}
	if o.HasTouch {
		caps = append(caps, "touch")
	}
	return devices.Device{
		Title:        "custom",
		Capabilities: caps,
		UserAgent:    o.UserAgent,
		Screen: devices.Screen{
			DevicePixelRatio: o.scale(),
			Horizontal:       devices.ScreenSize{Width: o.Viewport.Height, Height: o.Viewport.Width},
			Vertical:         devices.ScreenSize{Width: o.Viewport.Width, Height: o.Viewport.Height},
		},
	}
}

func hasCapability(d devices.Device, name string) bool {
	for _, c := range d.Capabilities {
		if c == name {
			return true
		}
	}
	return false
}

// LookupDevice returns the profile registered under the exact name.
func LookupDevice(name string) (Device, bool) {
	d, ok := registry[name]
	return d, ok
}

// DeviceNames lists every registered profile name, sorted.
func DeviceNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
