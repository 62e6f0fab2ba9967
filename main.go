package main

import (
	"embed"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"

	wbApp "whiteboard/internal/app"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	// `whiteboard --mcp` runs headless as an MCP stdio server.
	for _, arg := range os.Args[1:] {
		if arg == "--mcp" {
			wbApp.ServeMCP()
			return
		}
	}

	app := wbApp.New()

	// macOS needs an Edit menu for Cmd+C/V/X/A to reach the WebView
	appMenu := menu.NewMenu()
	appMenu.Append(menu.EditMenu())

	err := wails.Run(&options.App{
		Title:     "Whiteboard",
		Width:     1440,
		Height:    900,
		MinWidth:  800,
		MinHeight: 600,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 245, G: 245, B: 245, A: 1},
		Menu:             appMenu,
		OnStartup:        app.Startup,
		OnShutdown:       app.Shutdown,
		Bind: []interface{}{
			app,
		},
		Mac: &mac.Options{
			TitleBar: &mac.TitleBar{
				TitlebarAppearsTransparent: true,
				HideTitle:                  true,
				HideTitleBar:               false,
				FullSizeContent:            true,
				UseToolbar:                 true,
				HideToolbarSeparator:       true,
			},
			WebviewIsTransparent: false,
			WindowIsTranslucent:  false,
			About: &mac.AboutInfo{
				Title:   "Whiteboard",
				Message: "Multi-page diagram editor",
			},
		},
	})

	if err != nil {
		println("Error:", err.Error())
	}
}
