package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campushub/src-server/coordinator"
	"campushub/src-server/metric"
	"campushub/src-server/model"
	"campushub/src-server/notify"
	"campushub/src-server/render"
	"campushub/src-server/route"
	"campushub/src-server/utils"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	if err := godotenv.Load(); err != nil {
		slog.Info(err.Error())
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC1123Z,
		}),
	))
}

func main() {
	as := utils.NewAppState()

	if err := model.CreateSchema(as.BunDB); err != nil {
		slog.Error("can't create database schema", "error", err)
		os.Exit(1)
	}

	renderer := render.NewHTTPRenderer(as.Config.GetRendererURL())

	announcer, err := notify.NewAnnouncer(
		as.Config.GetDiscordAppToken(),
		as.Config.GetDiscordChannelID(),
	)
	if err != nil {
		slog.Error("can't create Discord announcer", "error", err)
		os.Exit(1)
	}

	c := coordinator.New(as.BunDB, renderer, announcer)

	go metric.Init(as)

	// http server
	go func() {
		muxer := http.NewServeMux()
		muxer.Handle("GET /metrics", promhttp.Handler())
		route.Auth(muxer, as)
		route.Events(muxer, as, c)
		route.Participation(muxer, as, c)
		route.Surveys(muxer, as, c)
		route.Certificates(muxer, as, c)
		if err := http.ListenAndServe(":"+as.Config.GetPort(), muxer); err != nil {
			slog.Error("cannot start HTTP server", "error", err)
			as.AppCloseSignalChan <- syscall.SIGTERM
		}
	}()

	slog.Info("app is now running, press Ctrl+C to exit")

	signal.Notify(as.AppCloseSignalChan, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-as.AppCloseSignalChan
	as.GracefulShutdown()

	slog.Info("Gracefully shutting down...")
}
