package web

import (
	"fmt"
	"strconv"

	vm "github.com/ericfisherdev/sensorhub/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/sensorhub/internal/domain/model"
)

const timeLayout = "2006-01-02 15:04:05 MST"

// toReadingViewModel formats a reading for display.
func toReadingViewModel(r model.SensorReading) vm.ReadingViewModel {
	return vm.ReadingViewModel{
		ID:               r.ID,
		Time:             r.Timestamp.UTC().Format(timeLayout),
		BodyTemp:         fmt.Sprintf("%.1f °C", r.DS18B20Temp),
		AmbientTemp:      fmt.Sprintf("%.1f °C", r.DHT11Temp),
		Humidity:         fmt.Sprintf("%.1f %%", r.Humidity),
		IR:               strconv.FormatInt(r.IR, 10),
		BPM:              fmt.Sprintf("%.0f", r.BPM),
		BPMAvg:           fmt.Sprintf("%.0f", r.BPMAvg),
		AbnormalBPM:      r.AbnormalBPM(),
		AbnormalBodyTemp: r.AbnormalBodyTemp(),
	}
}

// toDashboardViewModel assembles the page. latest and cfg may be nil.
func toDashboardViewModel(latest *model.SensorReading, cfg *model.Configuration, page model.HistoryPage) vm.DashboardViewModel {
	out := vm.DashboardViewModel{
		Rows:       make([]vm.ReadingViewModel, 0, len(page.Readings)),
		Total:      page.Total,
		Page:       page.Page,
		TotalPages: page.TotalPages(),
	}

	if latest != nil {
		v := toReadingViewModel(*latest)
		out.Latest = &v
	}
	if cfg != nil {
		out.SSID = cfg.SSID
	}
	for _, r := range page.Readings {
		out.Rows = append(out.Rows, toReadingViewModel(r))
	}

	if page.Page > 1 {
		out.PrevURL = pageURL(page.Page - 1)
	}
	if int64(page.Page) < out.TotalPages {
		out.NextURL = pageURL(page.Page + 1)
	}

	return out
}

func pageURL(page int) string {
	return "/dashboard?page=" + strconv.Itoa(page)
}

// parsePage reads the page query value, falling back to 1 for anything that
// is not a positive integer.
func parsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
