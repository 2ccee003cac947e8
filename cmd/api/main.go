package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
	"github.com/satchelfiles/satchel/pkg/config"
	"github.com/satchelfiles/satchel/pkg/entry"
	"github.com/satchelfiles/satchel/pkg/listing"
	"github.com/satchelfiles/satchel/pkg/server"
	"github.com/satchelfiles/satchel/pkg/storage"
	"github.com/satchelfiles/satchel/pkg/thumbnail"
	"github.com/satchelfiles/satchel/pkg/version"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting satchel", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	store, err := storage.NewLocal(storage.LocalOptions{
		Root:       cfg.RootDir,
		ShowHidden: cfg.ShowHidden,
	})
	if err != nil {
		log.Err(err).Fatal("storage error")
	}
	log.Info("storage provider initialized", logger.Data{"root": cfg.RootDir})

	pipeline := thumbnail.New(store, thumbnail.Options{
		Concurrency:     cfg.ThumbnailConcurrency,
		RequestTimeout:  cfg.ThumbnailTimeout,
		SnippetLines:    cfg.SnippetLines,
		SnippetMaxChars: cfg.SnippetMaxChars,
		OnReady: func(key entry.Key, payload thumbnail.Payload) {
			data := logger.Data{"key": string(key), "negative": payload == nil}
			log.Debug("thumbnail ready", data)
		},
	})

	cache := listing.NewCache(store, listing.Options{
		ChunkSize: cfg.ListingChunkSize,
		ChunkWait: cfg.ListingChunkWait,
		TTL:       cfg.ListingTTL,
		Evictor:   pipeline,
	})

	srv, err := server.New(cfg, cache, pipeline)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		lc := net.ListenConfig{}
		listener, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			log.Err(err).Fatal("failed to bind port")
		}

		actualPort := listener.Addr().(*net.TCPAddr).Port
		log.Info("server started", logger.Data{"port": actualPort})

		err = srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	<-graceful
	log.Info("starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	pipeline.Close()
	log.Info("pipeline shutdown")
}
