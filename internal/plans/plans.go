package plans

import (
	_ "embed"
	"encoding/json"
	"log"
)

//go:embed plans.json
var plansJSON []byte

// Plan bounds how long a single playback session may run.
// A nil TimeLimitSeconds means unlimited viewing.
type Plan struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	TimeLimitSeconds *int   `json:"timeLimitSeconds"`
}

var catalog []Plan

func init() {
	if err := json.Unmarshal(plansJSON, &catalog); err != nil {
		log.Fatalf("failed to parse plans.json: %v", err)
	}
	if len(catalog) == 0 {
		log.Fatal("plans.json contains no plans")
	}
}

// All returns the plan catalog in declaration order.
func All() []Plan {
	out := make([]Plan, len(catalog))
	copy(out, catalog)
	return out
}

// ByID looks up a plan; ok is false for unknown ids.
func ByID(id string) (Plan, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// Default returns the plan new sessions start on.
func Default() Plan {
	return catalog[0]
}

// Unlimited reports whether the plan has no viewing limit.
func (p Plan) Unlimited() bool {
	return p.TimeLimitSeconds == nil
}
