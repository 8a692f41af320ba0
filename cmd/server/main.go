package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/snipsd/snipsd/internal/server"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg("no .env file found, using environment as-is")
	}

	srv := server.NewFromEnv()
	defer srv.Store.Close()

	r := srv.SetupRouter()

	addr := ":" + srv.Cfg.Server.Port
	logger.Info().Str("addr", addr).Msg("starting snipsd server")
	if err := r.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
