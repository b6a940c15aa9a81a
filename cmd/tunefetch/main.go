package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruizlenato/tunefetch/internal/config"
	"github.com/ruizlenato/tunefetch/internal/database/cache"
	"github.com/ruizlenato/tunefetch/internal/server"
)

func main() {
	logger := slog.New(NewColorHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     config.LogLevel,
	}))
	slog.SetDefault(logger)

	services, err := initializeServices()
	if err != nil {
		log.Fatal(err)
	}

	defer func() {
		fmt.Println("[!] — Received stop signal")
		cache.Close()
	}()

	srv := server.New(server.Handler(server.NewRouter(services, config.DownloadsDir)))

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe(config.ListenAddr)
	}()

	fmt.Println("\033[0;32m\U0001F680 Server Started\033[0m")
	fmt.Printf("\033[0;36mListening on:\033[0m %s\n", config.ListenAddr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errs:
		if err != nil {
			slog.Error("Server stopped",
				"error", err.Error())
		}
	case <-stop:
		if err := srv.Shutdown(); err != nil {
			slog.Error("Could not shut down cleanly",
				"error", err.Error())
		}
	}
}
