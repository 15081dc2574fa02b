package models

import "github.com/smazurov/lightnode/internal/led"

// IdentifyRequest asks for an identify blink.
type IdentifyRequest struct {
	Body struct {
		Seconds int `json:"seconds" minimum:"1" maximum:"60" default:"10" example:"10" doc:"How long to blink"`
	}
}

// LEDStatusResponse wraps the status LED state.
type LEDStatusResponse struct {
	Body led.Status
}
