package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/chute-monitor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"inches": func(v *float64) string {
		if v == nil {
			return "—"
		}
		return fmt.Sprintf("%.2f in", *v)
	},
	"statusClass": func(s string) string {
		switch s {
		case "FULL":
			return "full"
		case "EMPTY":
			return "empty"
		default:
			return "unknown"
		}
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Chute Monitor</title>
<style>
body { font-family: monospace; max-width: 640px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.full { color: red; font-weight: bold; }
.empty { color: green; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
button { font-family: monospace; padding: 4px 12px; margin-right: 8px; }
#msg { color: #555; min-height: 1.2em; }
</style>
</head>
<body>
<h1>Chute Monitor</h1>

<h2>Chute</h2>
<table>
<tr><th>Status</th><td id="chute-status" class="{{statusClass (printf "%s" .Status)}}">{{.Status}}</td></tr>
<tr><th>Distance</th><td id="chute-distance">{{inches .Distance}}</td></tr>
<tr><th>Confidence</th><td id="chute-confidence">{{printf "%.2f" .Confidence}}</td></tr>
<tr><th>Full readings</th><td id="chute-consecutive">{{.ConsecutiveFull}}</td></tr>
{{if .Reason}}<tr><th>Reason</th><td id="chute-reason">{{.Reason}}</td></tr>{{end}}
<tr><th>Monitoring</th><td id="chute-running">{{if .Running}}running{{else}}stopped{{end}}</td></tr>
</table>

<h2>Calibration</h2>
<table>
<tr><th>Empty reference</th><td>{{inches .Calibration.EmptyDistance}}</td></tr>
<tr><th>Full reference</th><td>{{inches .Calibration.FullDistance}}</td></tr>
<tr><th>Calibrated</th><td>{{if .Calibrated}}yes{{else}}no{{end}}{{if .CalibrationInvalid}} (invalid: bounds coincide){{end}}</td></tr>
</table>

<h2>Controls</h2>
<p>
<button onclick="post('/api/start')">Start</button>
<button onclick="post('/api/stop')">Stop</button>
<button onclick="get('/api/scan')">Scan once</button>
</p>
<p>
<button onclick="post('/api/calibrate/empty')">Calibrate empty</button>
<button onclick="post('/api/calibrate/full')">Calibrate full</button>
<button onclick="post('/api/clear-calibration')">Clear calibration</button>
</p>
<p id="msg"></p>

<h2>System</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Scan interval</th><td>{{.Config.ScanIntervalMs}}ms</td></tr>
<tr><th>Full confirmation</th><td>{{.Config.FullConfirmationCount}} readings</td></tr>
<tr><th>Full threshold</th><td>{{printf "%.2f" .Config.FullRatioThreshold}}</td></tr>
<tr><th>Sensor</th><td>{{.Config.SensorPort}}</td></tr>
<tr><th>Light</th><td>{{.Config.LightDriver}}</td></tr>
</table>

<p><a href="/api/status">JSON</a></p>
<script>
function msg(text) { document.getElementById("msg").textContent = text; }

function post(path) {
  fetch(path, { method: "POST" })
    .then(function(r) { return r.json(); })
    .then(function(body) {
      msg(body.error ? body.error : path + " ok");
      refresh();
    })
    .catch(function(e) { msg(String(e)); });
}

function get(path) {
  fetch(path)
    .then(function(r) { return r.json(); })
    .then(function(body) {
      msg(body.error ? body.error : path + " ok");
      refresh();
    })
    .catch(function(e) { msg(String(e)); });
}

function refresh() {
  fetch("/api/status")
    .then(function(r) { return r.json(); })
    .then(function(body) {
      var s = body.status;
      var el = document.getElementById("chute-status");
      el.textContent = s.status;
      el.className = s.status === "FULL" ? "full" : s.status === "EMPTY" ? "empty" : "unknown";
      document.getElementById("chute-distance").textContent =
        s.distance_inches == null ? "—" : s.distance_inches.toFixed(2) + " in";
      document.getElementById("chute-confidence").textContent = s.confidence.toFixed(2);
      document.getElementById("chute-consecutive").textContent = s.consecutive_full_readings;
      document.getElementById("chute-running").textContent = s.running ? "running" : "stopped";
      var reason = document.getElementById("chute-reason");
      if (reason) { reason.textContent = s.reason || ""; }
    })
    .catch(function() {});
}

setInterval(refresh, 2000);
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but the template needs a field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
