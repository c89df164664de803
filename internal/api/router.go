package api

import (
	"CANSpectra/internal/engine/classifier"
	"CANSpectra/internal/engine/protocol"
	"CANSpectra/internal/metrics"
	"CANSpectra/internal/model"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// HistorySource gives read access to the classifier state.
type HistorySource interface {
	History(id uint16) (classifier.IdentifierHistory, bool)
	Snapshot() map[uint16]classifier.IdentifierHistory
}

// IdentifierView is the JSON form of one identifier history.
type IdentifierView struct {
	Identifier string `json:"identifier"`
	classifier.IdentifierHistory
}

// APIHandler holds the dependencies for API handlers.
type APIHandler struct {
	stats     model.StatsSource
	histories HistorySource
}

// NewRouter wires the detector's HTTP endpoints. A nil metrics disables
// /metrics.
func NewRouter(stats model.StatsSource, histories HistorySource, m *metrics.Metrics) *mux.Router {
	h := &APIHandler{stats: stats, histories: histories}

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/stats", h.statsHandler).Methods("GET")
	r.HandleFunc("/api/v1/identifiers", h.identifiersHandler).Methods("GET")
	r.HandleFunc("/api/v1/identifiers/{id}", h.identifierHandler).Methods("GET")
	r.HandleFunc("/api/v1/decode", h.decodeHandler).Methods("POST")
	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods("GET")
	}
	return r
}

func (h *APIHandler) statsHandler(w http.ResponseWriter, r *http.Request) {
	snap := h.stats.Stats()
	ids := make(map[string]*model.IdentifierStats, len(snap.Identifiers))
	for id, s := range snap.Identifiers {
		ids[metrics.IdentifierLabel(id)] = s
	}
	writeJSON(w, http.StatusOK, struct {
		model.StatsSnapshot
		Identifiers map[string]*model.IdentifierStats `json:"identifiers"`
	}{snap, ids})
}

func (h *APIHandler) identifiersHandler(w http.ResponseWriter, r *http.Request) {
	snap := h.histories.Snapshot()
	ids := make([]uint16, 0, len(snap))
	for id := range snap {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	views := make([]IdentifierView, 0, len(ids))
	for _, id := range ids {
		views = append(views, IdentifierView{Identifier: metrics.IdentifierLabel(id), IdentifierHistory: snap[id]})
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *APIHandler) identifierHandler(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 0, 16)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid identifier '%s'", raw), http.StatusBadRequest)
		return
	}
	history, ok := h.histories.History(uint16(id))
	if !ok {
		http.Error(w, fmt.Sprintf("identifier '%s' not found", raw), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, IdentifierView{Identifier: metrics.IdentifierLabel(uint16(id)), IdentifierHistory: history})
}

// decodeHandler decodes a frame given as {"frame":"0x..."} without touching
// the classifier.
func (h *APIHandler) decodeHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read request body: %v", err), http.StatusBadRequest)
		return
	}
	var req structpb.Struct
	if err := protojson.Unmarshal(body, &req); err != nil {
		http.Error(w, fmt.Sprintf("failed to decode request: %v", err), http.StatusBadRequest)
		return
	}
	raw, err := protocol.ParseHex(req.GetFields()["frame"].GetStringValue())
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid frame: %v", err), http.StatusBadRequest)
		return
	}

	status := http.StatusOK
	fields := map[string]interface{}{"frame": raw.String()}
	frame, err := protocol.Decode(raw)
	var fe *protocol.FormatError
	switch {
	case errors.As(err, &fe):
		status = http.StatusUnprocessableEntity
		fields["error"] = fe.Kind.String()
		fields["detail"] = fe.Error()
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	default:
		fields["identifier"] = metrics.IdentifierLabel(frame.ID)
		fields["length"] = int(frame.Length)
		fields["payload"] = hex.EncodeToString(frame.Payload)
	}

	resp, err := structpb.NewStruct(fields)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to build response: %v", err), http.StatusInternalServerError)
		return
	}
	jsonBytes, err := protojson.Marshal(resp)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal response: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(jsonBytes)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(jsonBytes); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}
