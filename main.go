package main

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chitchat/api"
	"chitchat/chat"
	"chitchat/config"
	"chitchat/presence"
	"chitchat/server"
	"chitchat/store"
)

func main() {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	st, err := store.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer st.Close()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("failed to create upload dir")
	}

	registry := presence.NewRegistry()
	svc := chat.NewService(st, st, st, registry)

	ws := server.New(svc, &server.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	})

	router := api.New(st, svc, ws, cfg.JWTSecret, cfg.UploadDir).Router(cfg.AllowedOrigin)

	httpSrv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Port),
		Handler: router,
	}

	go startControlSocket(cfg.ControlSocket, ws, httpSrv)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info().Stringer("signal", sig).Msg("shutting down")
		shutdown(cfg.ControlSocket, ws, httpSrv)
	}()

	log.Info().Int("port", cfg.Port).Msg("chitchat server started")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func shutdown(socketPath string, ws *server.Server, httpSrv *http.Server) {
	ws.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}

	os.Remove(socketPath)
}

// startControlSocket serves management commands on a unix socket:
// "stats" reports connection counts and online users, "shutdown" stops
// the server.
func startControlSocket(socketPath string, ws *server.Server, httpSrv *http.Server) {
	os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		log.Warn().Err(err).Msg("failed to create control socket")
		return
	}
	defer listener.Close()
	defer os.Remove(socketPath)

	log.Info().Str("path", socketPath).Msg("control socket listening")

	for {
		conn, err := listener.Accept()
		if err != nil {
			continue
		}

		go handleControlCommand(socketPath, conn, ws, httpSrv)
	}
}

func handleControlCommand(socketPath string, conn net.Conn, ws *server.Server, httpSrv *http.Server) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		return
	}

	switch strings.TrimSpace(line) {
	case "stats":
		conn.Write([]byte("OK|" + ws.Stats() + "\n"))

	case "shutdown":
		conn.Write([]byte("OK|Shutting down\n"))
		conn.Close()

		log.Info().Msg("shutdown requested via control socket")
		shutdown(socketPath, ws, httpSrv)
		os.Exit(0)

	default:
		conn.Write([]byte("ERROR|Unknown command\n"))
	}
}
