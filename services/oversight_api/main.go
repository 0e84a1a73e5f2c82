// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Oversight API exposes the CCRB concentration, group-risk, and precinct
// analyses over HTTP. Officer snapshots are pulled from the NYC open data
// API, cached locally, and analyzed on demand; results are returned as
// render-ready views so clients never recompute statistics.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/CivicLens/pkg/telemetry"
	"github.com/AleutianAI/CivicLens/services/history"
	"github.com/AleutianAI/CivicLens/services/snapshot"
	"github.com/AleutianAI/CivicLens/services/socrata"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8002"
	}
	cacheDir := os.Getenv("SNAPSHOT_CACHE_DIR")
	if cacheDir == "" {
		cacheDir = "./data/snapshot-cache"
	}
	appToken := os.Getenv("SOCRATA_APP_TOKEN")
	if appToken == "" {
		slog.Warn("SOCRATA_APP_TOKEN not set, open data requests run throttled")
	}

	telemetryCfg := telemetry.DefaultConfig()
	telemetryCfg.ServiceName = "oversight-api"
	telemetryCfg.ServiceVersion = ServiceVersion
	shutdown, err := telemetry.Init(context.Background(), telemetryCfg)
	if err != nil {
		slog.Error("Failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Error("Telemetry shutdown failed", "error", err)
		}
	}()

	client := socrata.NewClient(socrata.Config{
		AppToken: appToken,
		HTTPClient: &countingHTTPClient{
			inner: &http.Client{Timeout: 90 * time.Second},
		},
	})

	cache, err := snapshot.OpenCache(snapshot.DefaultCacheConfig(cacheDir))
	if err != nil {
		slog.Warn("Snapshot cache unavailable, loads will not be cached",
			"dir", cacheDir, "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	loader, err := snapshot.NewLoader(snapshot.LoaderConfig{
		Fetcher: client,
		Cache:   cache,
	})
	if err != nil {
		slog.Error("Failed to build snapshot loader", "error", err)
		os.Exit(1)
	}

	server := &Server{
		Loader: loader,
		Counts: client,
		Logger: slog.Default(),
	}

	historyCfg := history.ConfigFromEnv()
	if historyCfg.Enabled() {
		store, err := history.NewStore(historyCfg)
		if err != nil {
			slog.Warn("History store unavailable, trend endpoints disabled", "error", err)
		} else {
			defer store.Close()
			server.History = store
		}
	} else {
		slog.Info("History not configured, trend endpoints disabled")
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("oversight-api"))
	router.Use(requestIDMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "oversight-api",
			"version": ServiceVersion,
		})
	})

	metricsHandler := telemetry.MetricsHandler()
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	router.GET("/metrics", gin.WrapH(metricsHandler))

	v1 := router.Group("/v1")
	{
		v1.POST("/analysis/concentration", server.handleConcentration)
		v1.POST("/analysis/groups", server.handleGroups)
		v1.POST("/analysis/precinct", server.handlePrecinct)
		v1.GET("/snapshot/latest", server.handleSnapshotLatest)
		v1.POST("/snapshot/refresh", server.handleSnapshotRefresh)
		v1.GET("/snapshot/ws", server.handleSnapshotWS)
		v1.GET("/trend", server.handleTrend)
	}

	slog.Info("Starting oversight API", "port", port)
	if err := router.Run(":" + port); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}
