package graph

import (
	"log/slog"

	"github.com/acso/flowcanvas/pkg/schema"
)

// Sample builds the incident-response demo graph the console seeds new
// sessions with. All data is generated client-side; there is no backing
// service.
//
//	start -> triage -> severity? -> enrich -> merge -> cooldown -> end
//	                           \-> page    -/
func Sample(logger *slog.Logger) *Model {
	m := NewModel("Incident Response", logger)

	start := m.AddNode(schema.NodeTypeStart)
	triage := m.AddNode(schema.NodeTypeTask)
	severity := m.AddNode(schema.NodeTypeDecision)
	enrich := m.AddNode(schema.NodeTypeAPI)
	page := m.AddNode(schema.NodeTypeNotification)
	merge := m.AddNode(schema.NodeTypeMerge)
	cooldown := m.AddNode(schema.NodeTypeDelay)
	end := m.AddNode(schema.NodeTypeEnd)

	label := func(id, text string, x, y float64) {
		m.UpdateNode(id, NodeUpdate{Label: &text, Position: &schema.Position{X: x, Y: y}})
	}
	label(start.ID, "Alert Received", 40, 200)
	label(triage.ID, "Triage Alert", 220, 200)
	label(severity.ID, "Severity?", 400, 200)
	label(enrich.ID, "Enrich IOC", 580, 120)
	label(page.ID, "Page On-Call", 580, 280)
	label(merge.ID, "Join", 760, 200)
	label(cooldown.ID, "Cooldown", 940, 200)
	label(end.ID, "Resolved", 1120, 200)

	setConfig := func(id string, cfg any) {
		raw, _ := schema.EncodeConfig(cfg)
		m.UpdateNode(id, NodeUpdate{Config: raw})
	}
	setConfig(triage.ID, &schema.TaskConfig{Command: "acso-triage --alert latest", TimeoutSeconds: 30})
	setConfig(severity.ID, &schema.DecisionConfig{Condition: `vars.severity == "high"`})
	setConfig(enrich.ID, &schema.APIConfig{Method: schema.MethodGet, URL: "https://intel.acso.internal/ioc", Body: `{"indicator":"latest"}`})
	setConfig(page.ID, &schema.NotificationConfig{Channel: schema.ChannelSlack, Recipients: "#soc-oncall", Message: "High severity incident in progress"})
	setConfig(cooldown.ID, &schema.DelayConfig{DelaySeconds: 5})

	m.SetVariable("severity", "high")

	connect := func(a, b string, condition string) {
		c, _ := m.AddConnection(a, schema.PortOutput, b, schema.PortInput)
		if c != nil && condition != "" {
			m.UpdateConnection(c.ID, ConnectionUpdate{Condition: &condition})
		}
	}
	connect(start.ID, triage.ID, "")
	connect(triage.ID, severity.ID, "")
	connect(severity.ID, page.ID, `decision == true`)
	connect(severity.ID, enrich.ID, "")
	connect(enrich.ID, merge.ID, "")
	connect(page.ID, merge.ID, "")
	connect(merge.ID, cooldown.ID, "")
	connect(cooldown.ID, end.ID, "")

	return m
}
