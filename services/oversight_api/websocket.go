// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/CivicLens/pkg/validation"
	"github.com/AleutianAI/CivicLens/services/snapshot"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// wsMessage is one frame on the snapshot progress socket. Type is
// "progress" while the load runs, then a single "complete" or "error".
type wsMessage struct {
	Type         string `json:"type"`
	Stage        string `json:"stage,omitempty"`
	PagesFetched int    `json:"pages_fetched,omitempty"`
	TotalPages   int    `json:"total_pages,omitempty"`
	RowsLoaded   int    `json:"rows_loaded,omitempty"`
	SnapshotID   string `json:"snapshot_id,omitempty"`
	AsOfDate     string `json:"as_of_date,omitempty"`
	Rows         int    `json:"rows,omitempty"`
	Error        string `json:"error,omitempty"`
	Code         string `json:"code,omitempty"`
}

// sendJSON sends a JSON message over the WebSocket connection.
func (s *Server) sendJSON(ws *websocket.Conn, v interface{}) error {
	if err := ws.WriteJSON(v); err != nil {
		s.logger().Warn("Failed to send WebSocket message", "error", err)
		return err
	}
	return nil
}

// handleSnapshotWS handles GET /v1/snapshot/ws.
//
// Description:
//
//	Upgrades to a WebSocket, runs a snapshot load, and streams progress
//	frames as the load moves through its stages. The final frame is
//	"complete" with the snapshot metadata, or "error" with the same
//	code taxonomy the REST endpoints use. Closing the socket cancels
//	the load.
//
// Query Parameters:
//
//	as_of_date - Snapshot day (YYYY-MM-DD). Empty means latest.
//	max_rows - Row cap. 0 means all rows.
//	refresh - "true" bypasses the cache.
func (s *Server) handleSnapshotWS(c *gin.Context) {
	requestID := requestIDFrom(c)
	logger := s.logger().With("request_id", requestID, "handler", "handleSnapshotWS")

	asOfDate := c.Query("as_of_date")
	if asOfDate != "" {
		if err := validation.ValidateDate(asOfDate); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid as_of_date",
				Code:    "INVALID_REQUEST",
				Details: err.Error(),
			})
			return
		}
	}
	maxRows := 0
	if raw := c.Query("max_rows"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "max_rows must be a non-negative integer",
				Code:  "INVALID_REQUEST",
			})
			return
		}
		maxRows = n
	}
	refresh := c.Query("refresh") == "true"

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("Failed to upgrade WebSocket", "error", err)
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// The client sends nothing; the read pump exists to notice the
	// socket closing so the load can be cancelled.
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	// Progress callbacks must stay fast, so frames go through a bounded
	// channel and the newest update wins when the writer falls behind.
	updates := make(chan snapshot.Progress, 64)
	type loadResult struct {
		snap *snapshot.Snapshot
		err  error
	}
	done := make(chan loadResult, 1)

	go func() {
		snap, err := s.loadSnapshot(ctx, snapshot.LoadOptions{
			AsOfDate: asOfDate,
			MaxRows:  maxRows,
			Refresh:  refresh,
			OnProgress: func(p snapshot.Progress) {
				select {
				case updates <- p:
				default:
				}
			},
		})
		close(updates)
		done <- loadResult{snap: snap, err: err}
	}()

	dead := false
	for p := range updates {
		if dead {
			continue
		}
		frame := wsMessage{
			Type:         "progress",
			Stage:        p.Stage,
			PagesFetched: p.PagesFetched,
			TotalPages:   p.TotalPages,
			RowsLoaded:   p.RowsLoaded,
		}
		if err := s.sendJSON(ws, frame); err != nil {
			// Client is gone; stop the load and drain the rest.
			cancel()
			dead = true
		}
	}

	res := <-done
	if dead {
		logger.Info("WebSocket client disconnected during load")
		return
	}
	if res.err != nil {
		logger.Error("Snapshot load failed", "error", res.err)
		s.sendJSON(ws, wsMessage{
			Type:  "error",
			Error: res.err.Error(),
			Code:  errorCode(res.err),
		})
		return
	}
	logger.Info("Snapshot load complete",
		"snapshot_id", res.snap.ID,
		"rows", res.snap.Rows)
	s.sendJSON(ws, wsMessage{
		Type:       "complete",
		SnapshotID: res.snap.ID,
		AsOfDate:   res.snap.AsOfDate,
		Rows:       res.snap.Rows,
	})
}
