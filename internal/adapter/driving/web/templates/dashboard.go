package templates

import (
	"strconv"

	"github.com/a-h/templ"

	vm "github.com/ericfisherdev/sensorhub/internal/adapter/driving/web/viewmodel"
)

// Dashboard renders the latest reading, the configured network and one page
// of history.
func Dashboard(d vm.DashboardViewModel) templ.Component {
	return fragment(
		el("h1", nil, text("Sensor dashboard")),
		network(d.SSID),
		latest(d.Latest),
		history(d),
	)
}

func network(ssid string) templ.Component {
	body := el("p", class("muted"), text("No configuration set."))
	if ssid != "" {
		body = el("p", nil, text("SSID: "), el("strong", nil, text(ssid)))
	}
	return el("section", []attr{{"id", "network"}}, el("h2", nil, text("Network")), body)
}

func latest(r *vm.ReadingViewModel) templ.Component {
	body := el("p", class("muted"), text("No data available."))
	if r != nil {
		body = el("dl", nil,
			el("dt", nil, text("Recorded")),
			el("dd", nil, text(r.Time)),
			el("dt", nil, text("Body temperature")),
			el("dd", class(flagClass(r.AbnormalBodyTemp)), text(r.BodyTemp+flagLabel(r.AbnormalBodyTemp))),
			el("dt", nil, text("Average pulse")),
			el("dd", class(flagClass(r.AbnormalBPM)), text(r.BPMAvg+" bpm"+flagLabel(r.AbnormalBPM))),
			el("dt", nil, text("Pulse")),
			el("dd", nil, text(r.BPM+" bpm")),
			el("dt", nil, text("Ambient")),
			el("dd", nil, text(r.AmbientTemp+", "+r.Humidity)),
		)
	}
	return el("section", []attr{{"id", "latest"}}, el("h2", nil, text("Latest reading")), body)
}

func history(d vm.DashboardViewModel) templ.Component {
	table := el("p", class("muted"), text("No readings on this page."))
	if len(d.Rows) > 0 {
		table = historyTable(d.Rows)
	}

	var prev, next templ.Component
	if d.PrevURL != "" {
		prev = el("a", []attr{{"rel", "prev"}, {"href", d.PrevURL}}, text("Previous"))
	}
	if d.NextURL != "" {
		next = el("a", []attr{{"rel", "next"}, {"href", d.NextURL}}, text("Next"))
	}

	return el("section", []attr{{"id", "history"}},
		el("h2", nil, text("History")),
		table,
		el("p", class("muted"), textf("Page %d of %d, %d readings.", d.Page, max(d.TotalPages, 1), d.Total)),
		el("nav", class("pager"), prev, next),
	)
}

func historyTable(rows []vm.ReadingViewModel) templ.Component {
	header := el("tr", nil,
		el("th", nil, text("Time")),
		el("th", nil, text("Body")),
		el("th", nil, text("Ambient")),
		el("th", nil, text("Humidity")),
		el("th", nil, text("IR")),
		el("th", nil, text("BPM")),
		el("th", nil, text("BPM avg")),
	)

	body := make([]templ.Component, 0, len(rows))
	for _, r := range rows {
		body = append(body, el("tr", []attr{{"data-id", strconv.FormatInt(r.ID, 10)}},
			el("td", nil, text(r.Time)),
			el("td", class(flagClass(r.AbnormalBodyTemp)), text(r.BodyTemp)),
			el("td", nil, text(r.AmbientTemp)),
			el("td", nil, text(r.Humidity)),
			el("td", nil, text(r.IR)),
			el("td", nil, text(r.BPM)),
			el("td", class(flagClass(r.AbnormalBPM)), text(r.BPMAvg)),
		))
	}

	return el("table", nil,
		el("thead", nil, header),
		el("tbody", nil, body...),
	)
}

func flagClass(abnormal bool) string {
	if abnormal {
		return "abnormal"
	}
	return "normal"
}

func flagLabel(abnormal bool) string {
	if abnormal {
		return " (abnormal)"
	}
	return ""
}
