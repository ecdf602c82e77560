package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/qforge/internal/api/shared"
	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/platform/logger"
	"github.com/phrazzld/qforge/internal/service"
)

// QuestionHandler handles question pipeline HTTP requests
type QuestionHandler struct {
	questionService service.QuestionService
	logger          *slog.Logger
}

// NewQuestionHandler creates a new QuestionHandler
func NewQuestionHandler(questionService service.QuestionService, logger *slog.Logger) *QuestionHandler {
	if questionService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("questionService cannot be nil for QuestionHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for QuestionHandler")
	}

	return &QuestionHandler{
		questionService: questionService,
		logger:          logger.With(slog.String("component", "question_handler")),
	}
}

// decodeAndValidate decodes the body into req and validates it. It writes
// the error response and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any, optional bool) bool {
	decode := shared.DecodeJSON
	if optional {
		decode = shared.DecodeOptionalJSON
	}
	if err := decode(w, r, req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, CodeValidation, SanitizeValidationError(err), err)
		return false
	}
	return true
}

// Generate handles POST /api/questions/generate requests.
// A fresh submission answers 202 with the request ID to poll; a cached
// outcome answers 200 with its preview.
func (h *QuestionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req GenerateQuestionRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	res, err := h.questionService.Submit(r.Context(), service.SubmitRequest{
		Type:           domain.QuestionType(req.Type),
		KnowledgePoint: req.KnowledgePoint,
		Difficulty:     req.Difficulty,
		CustomPrompt:   req.CustomPrompt,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit question request")
		return
	}

	body := GenerateQuestionResponse{RequestID: res.RequestID, Status: res.Status}
	if res.Cached {
		body.Preview = res.Preview
		log.Debug("served cached question", slog.String("request_id", res.RequestID))
		shared.RespondWithJSON(w, r, http.StatusOK, shared.SuccessResponse{
			Success: true,
			Data:    body,
			Cached:  true,
		})
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, shared.SuccessResponse{
		Success: true,
		Data:    body,
		Message: "Question generation started",
	})
}

// GetStatus handles GET /api/questions/status/{requestId} requests.
func (h *QuestionHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestId")
	if requestID == "" {
		HandleAPIError(w, r, domain.NewValidationError("requestId", "is required", domain.ErrValidation), "")
		return
	}

	view, err := h.questionService.GetStatus(r.Context(), requestID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get request status")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, view)
}

// ListRaw handles GET /api/questions/raw requests.
func (h *QuestionHandler) ListRaw(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pagination, err := queryPagination(q)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	difficulty, err := queryInt(q, "difficulty")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	page, err := h.questionService.ListRaw(r.Context(), service.RawQuestionQuery{
		Status:         domain.QuestionStatus(q.Get("status")),
		Type:           domain.QuestionType(q.Get("type")),
		KnowledgePoint: q.Get("knowledgePoint"),
		Difficulty:     difficulty,
		Pagination:     pagination,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list raw questions")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, pageToResponse(page, rawQuestionToResponse))
}

// GetRaw handles GET /api/questions/raw/{id} requests.
func (h *QuestionHandler) GetRaw(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	raw, err := h.questionService.GetRaw(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get raw question")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, rawQuestionToResponse(raw))
}

// Confirm handles POST /api/questions/{id}/confirm requests.
// The body is optional.
func (h *QuestionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req ConfirmRequest
	if !decodeAndValidate(w, r, &req, true) {
		return
	}

	questionID, err := h.questionService.Confirm(r.Context(), id, req.HumanFeedback)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to confirm question")
		return
	}

	log.Debug("question confirmed",
		slog.Int64("raw_question_id", id),
		slog.Int64("question_id", questionID))
	shared.RespondWithData(w, r, http.StatusOK, ConfirmResponse{QuestionID: questionID})
}

// Reject handles POST /api/questions/{id}/reject requests.
func (h *QuestionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req RejectRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	if err := h.questionService.Reject(r.Context(), id, req.HumanFeedback); err != nil {
		HandleAPIError(w, r, err, "Failed to reject question")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, shared.SuccessResponse{
		Success: true,
		Message: "Question rejected",
	})
}

// ListQuestions handles GET /api/questions requests.
func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pagination, err := queryPagination(q)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	difficulty, err := queryInt(q, "difficulty")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	page, err := h.questionService.ListQuestions(r.Context(), service.QuestionQuery{
		Type:           domain.QuestionType(q.Get("type")),
		KnowledgePoint: q.Get("knowledgePoint"),
		Difficulty:     difficulty,
		Pagination:     pagination,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list questions")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, pageToResponse(page, questionToResponse))
}

// Statistics handles GET /api/questions/statistics requests.
func (h *QuestionHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.questionService.Statistics(r.Context(), r.URL.Query().Get("range"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute statistics")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, stats)
}

// ReviewPending handles POST /api/questions/review-pending requests.
func (h *QuestionHandler) ReviewPending(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req ReviewPendingRequest
	if !decodeAndValidate(w, r, &req, true) {
		return
	}

	res, err := h.questionService.ReviewPending(r.Context(), req.Limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to review pending questions")
		return
	}

	log.Info("review-pending sweep finished",
		slog.Int("selected", res.Selected),
		slog.Int("passed", res.Passed),
		slog.Int("rejected", res.Rejected),
		slog.Int("failed", res.Failed))
	shared.RespondWithData(w, r, http.StatusOK, res)
}
