package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dcluna/elnode"
	"github.com/dcluna/elnode/logging"
	"github.com/dcluna/elnode/router"
	"github.com/dcluna/elnode/webserver"
	"github.com/spf13/cobra"
)

var (
	port      uint16
	docroot   string
	logLevel  string
	logFormat string
)

func main() {
	root := &cobra.Command{
		Use:           "elnode",
		Short:         "Embeddable asynchronous HTTP server engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve a docroot over HTTP",
		RunE:  runServe,
	}
	serve.Flags().Uint16Var(&port, "port", 8000, "port to listen on")
	serve.Flags().StringVar(&docroot, "docroot", ".", "directory to serve")
	serve.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	serve.Flags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	root.AddCommand(serve)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "elnode:", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.New(logging.Config{
		Level:  parseLevel(logLevel),
		Format: logging.Format(logFormat),
	})

	registry := elnode.NewRegistry(elnode.WithLogger(log))

	ws := webserver.New(docroot, log)
	dispatcher := router.New(router.Table{
		{Pattern: "(.*)", Handler: ws.Handler()},
	})

	srv, err := registry.Start(port, dispatcher.Dispatch)
	if err != nil {
		return err
	}

	log.Info("serving", "docroot", docroot, "port", srv.Port())

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-interrupt
		log.Info("shutting down")
		registry.StopAll()
	}()

	return srv.Wait()
}

func parseLevel(level string) logging.Level {
	switch level {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}
