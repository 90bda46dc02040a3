/*
This is an example application that uses the platform package to open a
window and drive it with the testbed systems.
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/finestra/engine/app"
	"github.com/spaghettifunk/finestra/engine/core"
	"github.com/spaghettifunk/finestra/engine/platform"
	"github.com/spaghettifunk/finestra/testbed"
)

func main() {
	core.SetLogLevel(core.DebugLevel)

	a := app.New()

	window := platform.NewWindow("Finestra Testbed", 1280, 720)
	window.Position = platform.At(100, 100)

	plugin := &platform.DefaultPlugin{PrimaryWindow: &window}
	if _, err := os.Stat("platform.toml"); err == nil {
		plugin.SettingsPath = "platform.toml"
		plugin.WatchSettings = true
	}

	if err := a.AddPlugin(plugin); err != nil {
		panic(err)
	}
	if err := a.AddPlugin(testbed.New()); err != nil {
		panic(err)
	}

	proxy := app.Resource[platform.EventLoop[platform.WakeUp]](a).Proxy()

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// start shutdown goroutine; the testbed turns the wake into an app exit
	go func() {
		// capture sigterm and other system call here
		<-sigCh
		_ = proxy.Send(platform.WakeUp{})
	}()

	// run the event loop
	if err := a.Run(); err != nil {
		panic(err)
	}
}
