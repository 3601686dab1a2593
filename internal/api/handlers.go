package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/BTreeMap/MoodPipe/internal/flow"
	"github.com/BTreeMap/MoodPipe/internal/models"
	"github.com/BTreeMap/MoodPipe/internal/reasons"
	"github.com/BTreeMap/MoodPipe/internal/store"
	"github.com/google/uuid"
)

// StepRequest is the body of a stateless step invocation.
type StepRequest struct {
	State   models.ConversationState `json:"state"`
	Message models.InboundMessage    `json:"message"`
}

// StepResponse carries a step's raw proposals plus their rendered text.
// State is the snapshot after Reset and Patch are applied; FollowUp is left
// for the caller to honour.
type StepResponse struct {
	Result  flow.Result              `json:"result"`
	Replies []string                 `json:"replies"`
	State   models.ConversationState `json:"state"`
}

// TurnRequest is the body of a stateless full turn.
type TurnRequest struct {
	ConversationID string                   `json:"conversation_id,omitempty"`
	State          models.ConversationState `json:"state"`
	Message        models.InboundMessage    `json:"message"`
}

// TurnResponse is the outcome of one routed turn.
type TurnResponse struct {
	ConversationID string                   `json:"conversation_id,omitempty"`
	Replies        []string                 `json:"replies"`
	Messages       []models.OutboundMessage `json:"messages"`
	Steps          []models.StepName        `json:"steps"`
	State          models.ConversationState `json:"state"`
}

// ConversationResponse describes a session.
type ConversationResponse struct {
	ConversationID string                   `json:"conversation_id"`
	State          models.ConversationState `json:"state"`
}

// ReasonOption is one entry of the reason pick list offered to hosts.
type ReasonOption struct {
	Code       string `json:"code"`
	Phrase     string `json:"phrase"`
	Suggestion string `json:"suggestion"`
}

// reasonsHandler lists the known reason codes for the host's pick list.
func (s *Server) reasonsHandler(w http.ResponseWriter, r *http.Request) {
	codes := reasons.Codes()
	out := make([]ReasonOption, 0, len(codes))
	for _, code := range codes {
		phrase := reasons.FriendlyReason(code)
		out = append(out, ReasonOption{
			Code:       code,
			Phrase:     phrase,
			Suggestion: reasons.SuggestActivity(phrase),
		})
	}
	writeJSONResponse(w, http.StatusOK, models.Success(out))
}

// healthHandler reports liveness.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"service": "moodpipe"}))
}

// stepHandler runs a single named step against a caller-supplied state.
func (s *Server) stepHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	name := models.StepName(r.PathValue("step"))
	fn, ok := s.orch.Steps().Lookup(name)
	if !ok {
		slog.Debug("Server.stepHandler: unknown step", "step", name)
		known := make([]string, 0)
		for _, n := range s.orch.Steps().Names() {
			known = append(known, string(n))
		}
		writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown step; known steps: "+strings.Join(known, ", ")))
		return
	}

	var req StepRequest
	if err := decodeJSON(w, r, &req); err != nil {
		slog.Warn("Server.stepHandler: invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	msg := req.Message.Normalize()
	if err := msg.Validate(); err != nil {
		slog.Warn("Server.stepHandler: invalid message", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	res := fn(r.Context(), req.State, msg)
	next := req.State
	if res.Reset {
		next = models.ConversationState{}
	}
	next, err := next.Apply(res.Patch)
	if err != nil {
		slog.Error("Server.stepHandler: step proposed invalid patch", "step", name, "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Step proposed an invalid patch"))
		return
	}
	if res.Messages == nil {
		res.Messages = []models.OutboundMessage{}
	}

	slog.Debug("Server.stepHandler: step ran", "step", name, "messages", len(res.Messages), "followUp", res.FollowUp)
	writeJSONResponse(w, http.StatusOK, models.Success(StepResponse{
		Result:  res,
		Replies: s.renderer.Render(r.Context(), res.Messages, next),
		State:   next,
	}))
}

// turnHandler routes one message against a caller-supplied state.
func (s *Server) turnHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req TurnRequest
	if err := decodeJSON(w, r, &req); err != nil {
		slog.Warn("Server.turnHandler: invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	turn, err := s.orch.HandleMessage(r.Context(), req.ConversationID, req.State, req.Message)
	if err != nil {
		s.writeTurnError(w, "Server.turnHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(s.turnResponse(r, req.ConversationID, turn)))
}

// createConversationHandler opens a new in-memory session.
func (s *Server) createConversationHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	id := uuid.NewString()
	s.sessions.Create(id)
	s.observeSessions()
	slog.Info("Server.createConversationHandler: conversation created", "conversationID", id)
	writeJSONResponse(w, http.StatusCreated, models.Success(ConversationResponse{ConversationID: id}))
}

// conversationMessageHandler runs one turn against a stored session.
func (s *Server) conversationMessageHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	id := r.PathValue("id")
	var msg models.InboundMessage
	if err := decodeJSON(w, r, &msg); err != nil {
		slog.Warn("Server.conversationMessageHandler: invalid JSON", "conversationID", id, "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	var turn flow.Turn
	err := s.sessions.Update(id, func(state models.ConversationState) (models.ConversationState, error) {
		t, err := s.orch.HandleMessage(r.Context(), id, state, msg)
		if err != nil {
			return state, err
		}
		turn = t
		return t.State, nil
	})
	if errors.Is(err, store.ErrSessionNotFound) {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Conversation not found"))
		return
	}
	if err != nil {
		s.writeTurnError(w, "Server.conversationMessageHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(s.turnResponse(r, id, turn)))
}

// conversationStateHandler returns the stored state of a session.
func (s *Server) conversationStateHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	state, err := s.sessions.Get(id)
	if err != nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Conversation not found"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(ConversationResponse{ConversationID: id, State: state}))
}

// deleteConversationHandler drops a session.
func (s *Server) deleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.sessions.Delete(id); err != nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Conversation not found"))
		return
	}
	s.observeSessions()
	slog.Info("Server.deleteConversationHandler: conversation deleted", "conversationID", id)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Conversation deleted", nil))
}

// diagnosticsHandler lists recent diagnostic entries, newest first.
func (s *Server) diagnosticsHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultDiagnosticsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("limit must be a positive integer"))
			return
		}
		limit = n
	}
	entries, err := s.diagnostics.Recent(r.Context(), limit)
	if err != nil {
		slog.Error("Server.diagnosticsHandler: read failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to read diagnostics"))
		return
	}
	if entries == nil {
		entries = []models.UserStateEntry{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(entries))
}

func (s *Server) turnResponse(r *http.Request, conversationID string, turn flow.Turn) TurnResponse {
	steps := turn.Steps
	if steps == nil {
		steps = []models.StepName{}
	}
	return TurnResponse{
		ConversationID: conversationID,
		Replies:        s.renderer.Render(r.Context(), turn.Messages, turn.State),
		Messages:       turn.Messages,
		Steps:          steps,
		State:          turn.State,
	}
}

func (s *Server) writeTurnError(w http.ResponseWriter, handler string, err error) {
	if isClientError(err) {
		slog.Warn(handler+": invalid message", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}
	slog.Error(handler+": turn failed", "error", err)
	writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process message"))
}

func (s *Server) observeSessions() {
	if s.metrics != nil {
		s.metrics.SetActiveConversations(s.sessions.Len())
	}
}
