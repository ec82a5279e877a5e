package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/mediavault/mediavault/internal/server"
	"github.com/mediavault/mediavault/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	// The master key never lives in a config file. When the environment
	// does not provide it, ask on the terminal without echo.
	if cfg.MasterKey == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Print("Master key: ")
		key, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			log.Printf("%v", err)
			return
		}
		cfg.MasterKey = string(key)
	}

	app, err := server.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
