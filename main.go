package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/oh-hell/judgment/internal/config"
	"github.com/oh-hell/judgment/internal/game"
	"github.com/oh-hell/judgment/internal/handlers"
	"github.com/oh-hell/judgment/internal/middleware"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	engine := game.NewEngine(game.NewRoomStore(), cfg.Delays(), logger)
	gs := handlers.NewGameServer(engine, logger)

	logHTTP := middleware.LogMiddleware(logger)

	mux := http.NewServeMux()
	mux.Handle("/", logHTTP(http.HandlerFunc(handlers.PingHandler)))
	// The websocket route skips LogMiddleware: the upgrade needs the raw
	// http.ResponseWriter to hijack the connection.
	mux.Handle("/ws", handlers.WSHandler(logger, gs))

	server := &http.Server{
		Handler:     mux,
		ReadTimeout: time.Second * 10,
	}

	l, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Port))
	if err != nil {
		logger.Fatalf("failed to listen: %v", err)
	}
	logger.Infof("listening on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		logger.Errorf("failed to serve: %v", err)
	case sig := <-sigs:
		logger.Infof("terminating: %v", sig)
	}
}
