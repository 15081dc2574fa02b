// Package models holds the request and response bodies of the HTTP API.
package models

import (
	"github.com/smazurov/lightnode/internal/logging"
	"github.com/smazurov/lightnode/internal/netsup"
	"github.com/smazurov/lightnode/internal/node"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"1.2.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2026-01-27T10:30:00Z" doc:"Build date"`
	BuildID   string `json:"build_id" example:"a1b2c3d4" doc:"Unique build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.11" doc:"Go version used to build"`
	Compiler  string `json:"compiler" example:"gc" doc:"Go compiler used"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Target platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Configuration models

// ConfigData is the persisted protocol and network record without the
// client password.
type ConfigData struct {
	Universe int    `json:"universe" example:"0" doc:"Art-Net universe the strip listens to"`
	Netmode  string `json:"netmode" example:"client" doc:"Persisted Wi-Fi mode: client or ap"`
	SSID     string `json:"ssid" example:"studio" doc:"Client network name"`
	APSSID   string `json:"ap_ssid" example:"LightNode-3f9a2c" doc:"Fallback access point name"`
}

type ConfigResponse struct {
	Body ConfigData
}

// ConfigUpdateRequest changes the universe, the mode or both. Omitted
// fields keep their stored value.
type ConfigUpdateRequest struct {
	Body struct {
		Universe *int    `json:"universe,omitempty" minimum:"0" maximum:"511" example:"13" doc:"Art-Net universe"`
		Netmode  *string `json:"netmode,omitempty" enum:"client,ap" example:"client" doc:"Wi-Fi mode"`
	}
}

// WifiRequest stores client credentials and switches to client mode.
type WifiRequest struct {
	Body struct {
		SSID     string `json:"ssid" minLength:"1" maxLength:"31" example:"studio" doc:"Network to join"`
		Password string `json:"password,omitempty" maxLength:"63" doc:"Network password, empty for open networks"`
	}
}

type WifiNetworksData struct {
	Networks []netsup.Network `json:"networks" doc:"Networks seen by the radio"`
}

type WifiNetworksResponse struct {
	Body WifiNetworksData
}

// Strip models
type StripTestRequest struct {
	Body struct {
		Color string `json:"color" enum:"r,g,b,white,off" example:"r" doc:"Solid color to show on every pixel"`
	}
}

// AcceptedData acknowledges a request handed to the main loop.
type AcceptedData struct {
	Message string `json:"message" example:"Queued" doc:"Status message"`
}

type AcceptedResponse struct {
	Body AcceptedData
}

// Status models
type StatusResponse struct {
	Body node.Snapshot
}

// Log models
type LogsRequest struct {
	Since uint64 `query:"since" example:"0" doc:"Return entries with a sequence number above this one"`
}

type LogsData struct {
	Entries []logging.LogEntry `json:"entries" doc:"Buffered log entries, oldest first"`
	Next    uint64             `json:"next" example:"42" doc:"Pass as since to fetch only newer entries"`
}

type LogsResponse struct {
	Body LogsData
}
