package main

import (
	"os"
	"strings"

	"github.com/cameroncuttingedge/dots_and_boxes/api"
	"github.com/cameroncuttingedge/dots_and_boxes/events"
	"github.com/cameroncuttingedge/dots_and_boxes/utils"
	"github.com/cameroncuttingedge/dots_and_boxes/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port           string
	Logging        bool
	LogLevel       zerolog.Level
	AllowedOrigins []string
}

// LoadConfig reads configuration from the environment.
func LoadConfig() Config {
	cfg := Config{
		Port:           os.Getenv("PORT"),
		Logging:        os.Getenv("LOGGING") == "true",
		LogLevel:       zerolog.InfoLevel,
		AllowedOrigins: []string{"*"},
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		cfg.LogLevel = lvl
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = nil
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}
	return cfg
}

func main() {
	cfg := LoadConfig()
	InitializeLogger(cfg)

	games := utils.NewStore()
	hub := websocket.NewHub(games, websocket.OriginChecker(cfg.AllowedOrigins))
	hub.StartEventListening(events.EventChannel)

	log.Info().Msg("Starting App")
	srv := api.NewServer(games, hub)
	if err := api.StartAPI(":"+cfg.Port, srv.Handler(cfg.AllowedOrigins)); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func InitializeLogger(cfg Config) {
	if !cfg.Logging {
		log.Logger = log.Output(os.Stdout)
	} else {
		runLogFile, err := os.OpenFile(
			"myapp.log",
			os.O_APPEND|os.O_CREATE|os.O_WRONLY,
			0664,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open log file")
		}
		multi := zerolog.MultiLevelWriter(runLogFile, os.Stdout)
		log.Logger = zerolog.New(multi).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(cfg.LogLevel)
}
