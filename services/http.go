package services

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/flashbots/onionnet/onion"
	"github.com/flashbots/onionnet/transport"
)

// ResultResponse wraps the value of every observation route. A nil Result is
// encoded as null.
type ResultResponse struct {
	Result any `json:"result"`
}

// SuccessResponse acknowledges an accepted packet.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// StatusForClass maps an error class to the HTTP status a service answers with.
func StatusForClass(class onion.ErrorClass) int {
	switch class {
	case onion.ClassPrecondition:
		return http.StatusBadRequest
	case onion.ClassDelivery:
		return http.StatusBadGateway
	case onion.ClassDirectory:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("live"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError answers with the class of the hop where the failure started, so a
// crypto fault behind several relays still reaches the sender as crypto.
func writeError(w http.ResponseWriter, err error) {
	class := transport.OriginClass(err)
	writeJSON(w, StatusForClass(class), &transport.ErrorResponse{Error: err.Error(), Class: class})
}

func writeResult(w http.ResponseWriter, result any) {
	writeJSON(w, http.StatusOK, &ResultResponse{Result: result})
}

// decodeMessage reads a transport.MessageRequest. A malformed body or empty
// message is a precondition failure.
func decodeMessage(r *http.Request) ([]byte, error) {
	var body transport.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: invalid request body: %v", onion.ErrMissingMessage, err)
	}
	if len(body.Message) == 0 {
		return nil, onion.ErrMissingMessage
	}
	return body.Message, nil
}
