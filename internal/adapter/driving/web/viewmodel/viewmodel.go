// Package viewmodel holds the display-ready structs rendered by the dashboard
// templates. Values are preformatted strings so templates carry no logic.
package viewmodel

// ReadingViewModel is one reading formatted for display.
type ReadingViewModel struct {
	ID               int64
	Time             string
	BodyTemp         string
	AmbientTemp      string
	Humidity         string
	IR               string
	BPM              string
	BPMAvg           string
	AbnormalBPM      bool
	AbnormalBodyTemp bool
}

// DashboardViewModel is everything the dashboard page shows.
type DashboardViewModel struct {
	Latest *ReadingViewModel

	// SSID is empty when no configuration has been stored. The password is
	// never part of the view model.
	SSID string

	Rows       []ReadingViewModel
	Total      int64
	Page       int
	TotalPages int64
	PrevURL    string
	NextURL    string
}
