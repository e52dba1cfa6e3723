package model

// Configuration holds the network credentials the sensor device joins with.
// Exactly zero or one Configuration exists; setting it again overwrites the
// stored row in place.
type Configuration struct {
	SSID     string
	Password string
}
