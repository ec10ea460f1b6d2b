package main

import (
	"fmt"
	"os"

	"manhwahub/internal/config"
	"manhwahub/internal/devserver"
	"manhwahub/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat, "dev-server")

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := devserver.New([]byte(cfg.SessionSecret), log)

	// demo accounts, password is the username
	for _, name := range []string{"reader", "writer"} {
		if err := srv.Sessions.Register(name, name); err != nil {
			log.Fatal().Err(err).Str("user", name).Msg("could not register demo account")
		}
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.DevServerPort)
	log.Info().Str("addr", addr).Msg("dev server running")
	if err := srv.Router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("dev server stopped")
	}
}
