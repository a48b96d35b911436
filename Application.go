package main

import (
	"PongOnline/client"
	"PongOnline/config"
	"PongOnline/core"
	"PongOnline/logger"
	"PongOnline/server"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("pong", pflag.ExitOnError)
	env := flags.String("env", os.Getenv("PONG_ENV"), "properties environment (PONG_ENV)")
	dir := flags.String("config", config.DefaultDir, "properties directory")
	connect := flags.String("connect", "", "play in the terminal against the server at this websocket url")
	config.BindFlags(flags)
	_ = flags.Parse(os.Args[1:])

	if *connect != "" {
		if err := playInTerminal(*connect); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	logProps, err := logger.ReadLoggerProperties(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	logger.Log.Init(logProps)
	defer logger.Log.Close()

	props, err := config.ReadProperties(*dir, *env, flags)
	if err != nil {
		logger.Log.Fatal(err.Error())
	}

	startService(props)
}

func startService(props config.Properties) {
	matchmaker := core.NewMatchmaker(
		core.WithRoomTickInterval(props.TickInterval),
		core.WithEvictInterval(props.EvictInterval),
	)
	gateway := server.NewGateway(matchmaker,
		server.WithSendBuffer(props.SendBuffer),
		server.WithStaticDir(props.StaticDir),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- gateway.ListenAndServe(props.Addr())
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Log.WithError(err).Error("server stopped")
		}
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := gateway.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("shutdown error")
	}
}

func playInTerminal(url string) error {
	ws, err := client.Dial(url)
	if err != nil {
		return err
	}
	defer ws.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	return client.New(screen, ws).Run()
}
