package vehicle

import (
	"encoding/json"

	"github.com/WilliamArmst/testTwoStageRocket/internal/motor"
)

type mountDoc struct {
	Motor    motor.Params `json:"motor"`
	Position float64      `json:"position"`
}

type surfaceDoc struct {
	Type    string  `json:"type"`
	Surface Surface `json:"surface"`
}

type configurationDoc struct {
	Body
	Motors     []mountDoc   `json:"motors"`
	Surfaces   []surfaceDoc `json:"surfaces"`
	Parachutes []Parachute  `json:"parachutes"`
	TotalMass  float64      `json:"total_mass"`
}

// MarshalJSON renders the configuration with each mounted motor's
// parameters inlined.
func (c *Configuration) MarshalJSON() ([]byte, error) {
	doc := configurationDoc{
		Body:       c.body,
		Motors:     make([]mountDoc, 0, len(c.motors)),
		Surfaces:   make([]surfaceDoc, 0, len(c.surfaces)),
		Parachutes: c.parachutes,
		TotalMass:  c.TotalMass(),
	}
	if doc.Parachutes == nil {
		doc.Parachutes = []Parachute{}
	}
	for _, m := range c.motors {
		doc.Motors = append(doc.Motors, mountDoc{Motor: m.Motor.Params(), Position: m.Position})
	}
	for _, s := range c.surfaces {
		doc.Surfaces = append(doc.Surfaces, surfaceDoc{Type: s.Type(), Surface: s})
	}
	return json.Marshal(doc)
}
