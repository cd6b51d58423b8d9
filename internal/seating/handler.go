package seating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	engine      *Engine
	reapTimeout time.Duration
	logger      apt.Logger
	config      *apt.Config
	tlm         *telemetry.HTTP
}

func NewHandler(engine *Engine, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	reapTimeout := DefaultStaleCallTimeout
	if config != nil {
		reapTimeout = config.GetDurationOrDef("queue.reap.timeout", DefaultStaleCallTimeout)
	}
	return &Handler{
		engine:      engine,
		reapTimeout: reapTimeout,
		logger:      logger,
		config:      config,
		tlm:         telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tables", func(r chi.Router) {
		r.Post("/", h.CreateTable)
		r.Get("/", h.ListTables)
		r.Get("/stats", h.TableStats)
		r.Get("/{id}", h.GetTable)
		r.Delete("/{id}", h.DeleteTable)
		r.Put("/{id}/state", h.SetTableState)
		r.Patch("/{id}/state", h.SetTableState)
	})

	r.Route("/reservations", func(r chi.Router) {
		r.Post("/", h.CreateReservation)
		r.Get("/", h.ListReservations)
		r.Get("/availability", h.Availability)
		r.Post("/check", h.CheckReservation)
		r.Get("/stats", h.ReservationStats)
		r.Get("/{id}", h.GetReservation)
		r.Patch("/{id}", h.UpdateReservation)
		r.Put("/{id}/state", h.ChangeReservationState)
		r.Patch("/{id}/state", h.ChangeReservationState)
		r.Delete("/{id}", h.DeleteReservation)
	})

	r.Route("/queue", func(r chi.Router) {
		r.Post("/", h.JoinQueue)
		r.Get("/", h.ListQueue)
		r.Get("/stats", h.QueueStats)
		r.Get("/next-eligible", h.NextEligible)
		r.Post("/call-next", h.CallNext)
		r.Post("/reap-stale", h.ReapStale)
		r.Get("/{id}", h.GetQueueEntry)
		r.Post("/{id}/call", h.CallParty)
		r.Post("/{id}/confirm", h.ConfirmParty)
		r.Delete("/{id}", h.RemoveParty)
	})
}

// Table Handlers

func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateTable")
	defer finish()

	log := h.log(r)

	req, ok := decodePayload[TableCreateRequest](w, r, log)
	if !ok {
		return
	}

	table, err := h.engine.Tables.Create(r.Context(), req)
	if err != nil {
		h.respondEngineError(w, err, log, "Could not create table")
		return
	}

	apt.Respond(w, http.StatusCreated, table, nil)
}

func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetTable")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	table, err := h.engine.Tables.Get(r.Context(), id)
	if err != nil {
		h.respondEngineError(w, err, log, "Could not retrieve table")
		return
	}

	apt.RespondSuccess(w, table, selfLinks("tables", id)...)
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListTables")
	defer finish()

	log := h.log(r)

	tables, err := h.engine.Tables.List(r.Context(), r.URL.Query().Get("state"))
	if err != nil {
		h.respondEngineError(w, err, log, "Could not retrieve tables")
		return
	}

	apt.RespondCollection(w, tables, "table")
}

func (h *Handler) TableStats(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.TableStats")
	defer finish()

	stats, err := h.engine.Tables.Stats(r.Context())
	if err != nil {
		h.respondEngineError(w, err, h.log(r), "Could not compute table stats")
		return
	}

	apt.RespondSuccess(w, stats)
}

func (h *Handler) SetTableState(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetTableState")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	req, ok := decodePayload[TableStateRequest](w, r, log)
	if !ok {
		return
	}

	change, err := h.engine.Tables.SetState(r.Context(), id, req.State)
	if err != nil {
		h.respondEngineError(w, err, log, "Could not change table state")
		return
	}

	apt.RespondSuccess(w, change, selfLinks("tables", id)...)
}

func (h *Handler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteTable")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	if _, err := h.engine.Tables.Delete(r.Context(), id); err != nil {
		h.respondEngineError(w, err, log, "Could not delete table")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Reservation Handlers

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateReservation")
	defer finish()

	log := h.log(r)

	req, ok := decodePayload[ReservationCreateRequest](w, r, log)
	if !ok {
		return
	}

	reservation, err := h.engine.Reservations.Create(r.Context(), req)
	if err != nil {
		h.respondEngineError(w, err, log, "Could not create reservation")
		return
	}

	apt.Respond(w, http.StatusCreated, reservation, nil)
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetReservation")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	reservation, err := h.engine.Reservations.Get(r.Context(), id)
	if err != nil {
		h.respondEngineError(w, err, log, "Could not retrieve reservation")
		return
	}

	apt.RespondSuccess(w, reservation, selfLinks("reservations", id)...)
}

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListReservations")
	defer finish()

	log := h.log(r)
	query := r.URL.Query()

	tableID, ok := h.parseOptionalInt(w, query.Get("table_id"), "table_id", log)
	if !ok {
		return
	}

	filter := ReservationFilter{
		Date:    query.Get("date"),
		TableID: int64(tableID),
		State:   query.Get("state"),
	}

	reservations, err := h.engine.Reservations.List(r.Context(), filter)
	if err != nil {
		h.respondEngineError(w, err, log, "Could not retrieve reservations")
		return
	}

	apt.RespondCollection(w, reservations, "reservation")
}

func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateReservation")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	req, ok := decodePayload[ReservationUpdateRequest](w, r, log)
	if !ok {
		return
	}

	reservation, err := h.engine.Reservations.Update(r.Context(), id, req)
	if err != nil {
		h.respondEngineError(w, err, log, "Could not update reservation")
		return
	}

	apt.RespondSuccess(w, reservation, selfLinks("reservations", id)...)
}

func (h *Handler) ChangeReservationState(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ChangeReservationState")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	req, ok := decodePayload[ReservationStateRequest](w, r, log)
	if !ok {
		return
	}

	reservation, err := h.engine.Reservations.ChangeState(r.Context(), id, req.State)
	if err != nil {
		h.respondEngineError(w, err, log, "Could not change reservation state")
		return
	}

	apt.RespondSuccess(w, reservation, selfLinks("reservations", id)...)
}

func (h *Handler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteReservation")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	if _, err := h.engine.Reservations.Delete(r.Context(), id); err != nil {
		h.respondEngineError(w, err, log, "Could not delete reservation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Availability")
	defer finish()

	log := h.log(r)
	query := r.URL.Query()

	tableID, ok := h.parseOptionalInt(w, query.Get("table_id"), "table_id", log)
	if !ok {
		return
	}
	partySize, ok := h.parseOptionalInt(w, query.Get("party_size"), "party_size", log)
	if !ok {
		return
	}

	availability, err := h.engine.Reservations.Availability(r.Context(), AvailabilityQuery{
		TableID:   int64(tableID),
		Date:      query.Get("date"),
		PartySize: partySize,
	})
	if err != nil {
		h.respondEngineError(w, err, log, "Could not compute availability")
		return
	}

	apt.RespondSuccess(w, availability)
}

func (h *Handler) CheckReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CheckReservation")
	defer finish()

	log := h.log(r)

	req, ok := decodePayload[CheckRequest](w, r, log)
	if !ok {
		return
	}

	result, err := h.engine.Reservations.Check(r.Context(), req)
	if err != nil {
		h.respondEngineError(w, err, log, "Could not check availability")
		return
	}

	apt.RespondSuccess(w, result)
}

func (h *Handler) ReservationStats(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ReservationStats")
	defer finish()

	stats, err := h.engine.Reservations.Stats(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.respondEngineError(w, err, h.log(r), "Could not compute reservation stats")
		return
	}

	apt.RespondSuccess(w, stats)
}

// Queue Handlers

func (h *Handler) JoinQueue(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.JoinQueue")
	defer finish()

	log := h.log(r)

	req, ok := decodePayload[QueueJoinRequest](w, r, log)
	if !ok {
		return
	}

	entry, err := h.engine.Queue.Join(r.Context(), req)
	if err != nil {
		h.respondEngineError(w, err, log, "Could not join queue")
		return
	}

	apt.Respond(w, http.StatusCreated, entry, nil)
}

func (h *Handler) ListQueue(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListQueue")
	defer finish()

	entries, err := h.engine.Queue.List(r.Context())
	if err != nil {
		h.respondEngineError(w, err, h.log(r), "Could not retrieve queue")
		return
	}

	apt.RespondSuccess(w, entries)
}

func (h *Handler) QueueStats(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.QueueStats")
	defer finish()

	stats, err := h.engine.Queue.Stats(r.Context())
	if err != nil {
		h.respondEngineError(w, err, h.log(r), "Could not compute queue stats")
		return
	}

	apt.RespondSuccess(w, stats)
}

func (h *Handler) NextEligible(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.NextEligible")
	defer finish()

	log := h.log(r)

	capacity, ok := h.parseOptionalInt(w, r.URL.Query().Get("capacity"), "capacity", log)
	if !ok {
		return
	}
	if capacity <= 0 {
		apt.Error(w, http.StatusBadRequest, string(KindMissingField), "capacity is required",
			apt.ValidationError{Field: "capacity", Code: "required", Message: "capacity is required"})
		return
	}

	entry, err := h.engine.Queue.NextEligible(r.Context(), capacity)
	if err != nil {
		h.respondEngineError(w, err, log, "Could not look up queue")
		return
	}
	if entry == nil {
		apt.RespondError(w, http.StatusNotFound, fmt.Sprintf("No waiting party fits %d seats", capacity))
		return
	}

	apt.RespondSuccess(w, entry)
}

func (h *Handler) CallNext(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CallNext")
	defer finish()

	entry, err := h.engine.Queue.CallNext(r.Context())
	if err != nil {
		h.respondEngineError(w, err, h.log(r), "Could not call next party")
		return
	}

	apt.RespondSuccess(w, entry)
}

func (h *Handler) ReapStale(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ReapStale")
	defer finish()

	log := h.log(r)

	timeout := h.reapTimeout
	if raw := r.URL.Query().Get("timeout"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			log.Debug("invalid timeout parameter", "timeout", raw)
			apt.RespondError(w, http.StatusBadRequest, "Invalid timeout parameter")
			return
		}
		timeout = parsed
	}

	reaped, err := h.engine.Queue.ReapStale(r.Context(), timeout)
	if err != nil {
		h.respondEngineError(w, err, log, "Could not remove stale parties")
		return
	}

	apt.RespondSuccess(w, map[string]any{
		"removed": reaped,
		"count":   len(reaped),
	})
}

func (h *Handler) GetQueueEntry(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetQueueEntry")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	entry, err := h.engine.Queue.Get(r.Context(), id)
	if err != nil {
		h.respondEngineError(w, err, log, "Could not retrieve queue entry")
		return
	}

	apt.RespondSuccess(w, entry, selfLinks("queue", id)...)
}

func (h *Handler) CallParty(w http.ResponseWriter, r *http.Request) {
	h.queueTransition(w, r, "Handler.CallParty", h.engine.Queue.Call)
}

func (h *Handler) ConfirmParty(w http.ResponseWriter, r *http.Request) {
	h.queueTransition(w, r, "Handler.ConfirmParty", h.engine.Queue.Confirm)
}

func (h *Handler) RemoveParty(w http.ResponseWriter, r *http.Request) {
	h.queueTransition(w, r, "Handler.RemoveParty", h.engine.Queue.Remove)
}

func (h *Handler) queueTransition(w http.ResponseWriter, r *http.Request, span string, op func(ctx context.Context, id int64) (*QueueEntry, error)) {
	w, r, finish := h.tlm.Start(w, r, span)
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	entry, err := op(r.Context(), id)
	if err != nil {
		h.respondEngineError(w, err, log, "Could not update queue entry")
		return
	}

	apt.RespondSuccess(w, entry)
}

// Helper methods

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}

// respondEngineError maps engine error kinds to HTTP statuses. Anything that
// is not an *Error is treated as an internal failure.
func (h *Handler) respondEngineError(w http.ResponseWriter, err error, log apt.Logger, fallback string) {
	var e *Error
	if !errors.As(err, &e) {
		log.Error(strings.ToLower(fallback), "error", err)
		apt.RespondError(w, http.StatusInternalServerError, fallback)
		return
	}

	details := make([]apt.ValidationError, 0, len(e.Fields))
	for _, f := range e.Fields {
		details = append(details, apt.ValidationError{Field: f.Field, Code: f.Code, Message: f.Message})
	}
	if e.Conflict != nil {
		c := e.Conflict
		details = append(details,
			apt.ValidationError{Field: "reservation_id", Code: "conflict", Message: strconv.FormatInt(c.ReservationID, 10)},
			apt.ValidationError{Field: "start", Code: "conflict", Message: c.Start.String()},
			apt.ValidationError{Field: "end", Code: "conflict", Message: c.End.String()},
		)
	}

	status := http.StatusConflict
	switch e.Kind {
	case KindValidation, KindMissingField:
		status = http.StatusBadRequest
	case KindNotFound:
		status = http.StatusNotFound
	}

	log.Debug("request rejected", "kind", string(e.Kind), "message", e.Message)
	apt.Error(w, status, string(e.Kind), e.Message, details...)
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	if idStr == "" {
		log.Debug("missing id parameter")
		apt.RespondError(w, http.StatusBadRequest, "Missing id parameter")
		return 0, false
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		log.Debug("invalid id parameter", "id", idStr, "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return 0, false
	}

	return id, true
}

func (h *Handler) parseOptionalInt(w http.ResponseWriter, raw, name string, log apt.Logger) (int, bool) {
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		log.Debug("invalid query parameter", "name", name, "value", raw)
		apt.RespondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s parameter", name))
		return 0, false
	}
	return v, true
}

func decodePayload[T any](w http.ResponseWriter, r *http.Request, log apt.Logger) (T, bool) {
	var req T

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("error reading request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return req, false
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		apt.RespondError(w, http.StatusBadRequest, "Request body is empty")
		return req, false
	}

	if err := json.Unmarshal(body, &req); err != nil {
		log.Debug("error decoding JSON", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return req, false
	}

	return req, true
}

func selfLinks(collection string, id int64) []apt.Link {
	return apt.NewLinkBuilder().
		Custom(apt.RelSelf, fmt.Sprintf("/%s/%d", collection, id)).
		Custom(apt.RelCollection, "/"+collection).
		Build()
}
