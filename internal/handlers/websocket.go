package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"rewards-miniapp-backend/internal/models"
	"rewards-miniapp-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FlightHandler streams a CrashFlight round over a websocket. The round is
// settled by the outcome engine before the first tick; the climb the
// client sees is presentation only and always ends at the terminal crash
// point the engine drew.
type FlightHandler struct {
	engine *services.OutcomeEngine
}

func NewFlightHandler(engine *services.OutcomeEngine) *FlightHandler {
	return &FlightHandler{engine: engine}
}

type flightRequest struct {
	Stake      float64           `json:"stake"`
	Difficulty models.Difficulty `json:"difficulty"`
}

type flightTick struct {
	Type       string  `json:"type"` // tick, crashed, cashed_out, error
	Multiplier float64 `json:"multiplier,omitempty"`
	Outcome    any     `json:"outcome,omitempty"`
	Error      string  `json:"error,omitempty"`
}

func (h *FlightHandler) HandleFlight(c *gin.Context) {
	accountID := c.GetString("account_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Error("failed to upgrade to websocket")
		return
	}
	defer conn.Close()

	var req flightRequest
	if err := conn.ReadJSON(&req); err != nil {
		conn.WriteJSON(flightTick{Type: "error", Error: "invalid flight request"})
		return
	}
	if !req.Difficulty.Valid() {
		conn.WriteJSON(flightTick{Type: "error", Error: "unknown difficulty"})
		return
	}

	outcome, err := h.engine.Play(c.Request.Context(), accountID, models.GameTypeCrashFlight, req.Stake, req.Difficulty)
	if err != nil {
		conn.WriteJSON(flightTick{Type: "error", Error: err.Error()})
		return
	}

	// Replay the climb at 10 ticks per second up to the terminal point.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	multiplier := 1.0
	for range ticker.C {
		multiplier += 0.01

		if outcome.Won && multiplier >= outcome.Multiplier {
			conn.WriteJSON(flightTick{Type: "cashed_out", Multiplier: outcome.Multiplier, Outcome: outcome})
			return
		}
		if multiplier >= outcome.CrashPoint {
			conn.WriteJSON(flightTick{Type: "crashed", Multiplier: outcome.CrashPoint, Outcome: outcome})
			return
		}

		if err := conn.WriteJSON(flightTick{Type: "tick", Multiplier: multiplier}); err != nil {
			return
		}
	}
}
