package admin

import (
	"github.com/janisto/entra-playground/internal/platform/timeutil"
)

// StatsData models operational statistics for the greeting service.
type StatsData struct {
	GreetingsServed int64         `json:"greetingsServed" doc:"Greetings issued since process start" example:"42"`
	StartedAt       timeutil.Time `json:"startedAt"       doc:"Process start timestamp"              example:"2024-01-15T10:30:00.000Z"`
	Uptime          string        `json:"uptime"          doc:"Elapsed time since process start"     example:"1h23m45s"`
}
