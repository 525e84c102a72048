// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package models

import "time"

// SystemMetrics is a point-in-time server load snapshot. Each fetch or push
// replaces the previous one wholesale.
type SystemMetrics struct {
	CPUUsage            float64 `json:"cpuUsage"`
	MemoryUsage         float64 `json:"memoryUsage"`
	ActiveConnections   int     `json:"activeConnections"`
	CacheHitRatio       float64 `json:"cacheHitRatio"`
	ThreadPoolActive    int     `json:"threadPoolActive"`
	ThreadPoolMax       int     `json:"threadPoolMax"`
	RequestsPerSecond   float64 `json:"requestsPerSecond"`
	AverageResponseTime float64 `json:"averageResponseTime"`
}

// ServerState is the overall server health.
type ServerState string

const (
	ServerOnline   ServerState = "online"
	ServerOffline  ServerState = "offline"
	ServerDegraded ServerState = "degraded"
)

// SystemStatus reports server health and component connectivity.
type SystemStatus struct {
	Status            ServerState `json:"status"`
	Uptime            int64       `json:"uptime"`
	Version           string      `json:"version"`
	CUPSConnected     bool        `json:"cupsConnected"`
	DatabaseConnected bool        `json:"databaseConnected"`
}

// OfflineStatus is installed when the status endpoint cannot be reached.
func OfflineStatus() SystemStatus {
	return SystemStatus{
		Status:  ServerOffline,
		Version: "unknown",
	}
}

// DashboardStats aggregates counters for the overview screen.
type DashboardStats struct {
	PrintersOnline int     `json:"printersOnline"`
	PrintersTotal  int     `json:"printersTotal"`
	JobsPending    int     `json:"jobsPending"`
	JobsProcessing int     `json:"jobsProcessing"`
	JobsCompleted  int     `json:"jobsCompleted"`
	JobsFailed     int     `json:"jobsFailed"`
	PagesTotal     int64   `json:"pagesTotal"`
	PagesToday     int64   `json:"pagesToday"`
	EstimatedCost  float64 `json:"estimatedCost"`
}

// LogEntry is one line from GET /api/system/logs.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// ConnectionState is the push channel state as seen by the client.
type ConnectionState string

const (
	ConnDisconnected ConnectionState = "disconnected"
	ConnConnecting   ConnectionState = "connecting"
	ConnConnected    ConnectionState = "connected"
	ConnReconnecting ConnectionState = "reconnecting"
	// ConnLost means reconnect attempts are exhausted and no further
	// push events will arrive until Connect is called again.
	ConnLost ConnectionState = "lost"
)
