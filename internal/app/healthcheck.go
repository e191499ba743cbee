package app

import (
	"net/http"

	"github.com/metinatakli/movie-booking-engine/internal/vcs"
)

func (app *application) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "UP"
	systemInfo := SystemInfo{
		Version:     vcs.Version(),
		Environment: app.config.env,
	}

	resp := HealthcheckResponse{
		Status:     status,
		SystemInfo: systemInfo,
	}

	app.writeJSON(w, http.StatusOK, resp, nil)
}
