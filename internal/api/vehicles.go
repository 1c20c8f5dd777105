package api

import (
	"encoding/json"
	"net/http"

	"github.com/WilliamArmst/testTwoStageRocket/internal/design"
	"github.com/WilliamArmst/testTwoStageRocket/internal/motor"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// listVehiclesHandler serves GET /api/v1/vehicles.
func listVehiclesHandler(fleet *design.Fleet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, fleet.Vehicles())
	}
}

// vehicleHandler serves GET /api/v1/vehicles/{name}.
func vehicleHandler(fleet *design.Fleet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		v, ok := fleet.Vehicle(name)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown vehicle "+name)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

type motorView struct {
	motor.Params
	PropellantMass float64 `json:"propellant_mass"`
	TotalMass      float64 `json:"total_mass"`
}

// listMotorsHandler serves GET /api/v1/motors.
func listMotorsHandler(fleet *design.Fleet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		motors := fleet.Motors()
		out := make([]motorView, 0, len(motors))
		for _, m := range motors {
			out = append(out, motorView{
				Params:         m.Params(),
				PropellantMass: m.PropellantMass(),
				TotalMass:      m.TotalMass(),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}
