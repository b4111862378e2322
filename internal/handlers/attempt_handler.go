package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const maxAssignmentSize = 32 << 20

// AttemptHandler serves the answer paper lifecycle and answer grading.
type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	gradingService services.GradingService
	exportService  services.ExportService
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	gradingService services.GradingService,
	exportService services.ExportService,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		gradingService: gradingService,
		exportService:  exportService,
	}
}

type answerRequest struct {
	Answer json.RawMessage `json:"answer"`
}

func (h *AttemptHandler) respondStart(c *gin.Context, result *services.StartResult) {
	if result.Denied() {
		c.JSON(http.StatusOK, gin.H{"message": result.Message})
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result.View)
}

// StartQuiz resumes the caller's open attempt or starts the next one
// @Summary Start or resume a quiz
// @Tags attempts
// @Param course_id path uint true "Course ID"
// @Param quiz_id path uint true "Quiz ID"
// @Success 201 {object} services.AttemptView
// @Success 200 {object} services.AttemptView
// @Router /start_quiz/{course_id}/{quiz_id} [get]
func (h *AttemptHandler) StartQuiz(c *gin.Context) {
	courseID := h.parseIDParam(c, "course_id")
	if courseID == 0 {
		return
	}
	quizID := h.parseIDParam(c, "quiz_id")
	if quizID == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	h.LogRequest(c, "Starting quiz", "course_id", courseID, "quiz_id", quizID)

	result, err := h.attemptService.StartOrResume(c.Request.Context(), &services.StartAttemptRequest{
		UserID:    userID,
		QuizID:    quizID,
		CourseID:  courseID,
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.respondStart(c, result)
}

// CreateAnswerPaper starts or resumes an attempt by question paper
// @Router /answerpapers [post]
func (h *AttemptHandler) CreateAnswerPaper(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateAnswerPaperRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.UserID = userID
	req.IPAddress = c.ClientIP()

	result, err := h.attemptService.CreateAnswerPaper(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.respondStart(c, result)
}

// ListAnswerPapers lists attempts at quizzes the caller created
// @Router /answerpapers [get]
func (h *AttemptHandler) ListAnswerPapers(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	filters := repositories.AnswerPaperFilters{
		Limit:  h.parseIntQuery(c, "limit", 20),
		Offset: h.parseIntQuery(c, "offset", 0),
	}
	if v := h.parseIntQuery(c, "quiz_id", 0); v > 0 {
		quizID := uint(v)
		filters.QuizID = &quizID
	}
	if v := h.parseIntQuery(c, "user_id", 0); v > 0 {
		uid := uint(v)
		filters.UserID = &uid
	}
	if s := c.Query("status"); s != "" {
		status := models.AnswerPaperStatus(s)
		filters.Status = &status
	}

	papers, total, err := h.attemptService.ListAnswerPapers(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"answerpapers": papers,
		"total":        total,
		"limit":        filters.Limit,
		"offset":       filters.Offset,
	})
}

// GetAnswerPaper returns an attempt with its answers
// @Router /answerpapers/{id} [get]
func (h *AttemptHandler) GetAnswerPaper(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	view, err := h.attemptService.GetAnswerPaper(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ExportAnswerPapers streams an xlsx of every attempt at a quiz
// @Router /answerpapers/export [get]
func (h *AttemptHandler) ExportAnswerPapers(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	quizID := h.parseIntQuery(c, "quiz_id", 0)
	if quizID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid quiz_id", Details: "quiz_id query parameter is required"})
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="quiz-%d-answerpapers.xlsx"`, quizID))
	if err := h.exportService.ExportAnswerPapers(c.Request.Context(), uint(quizID), userID, c.Writer); err != nil {
		c.Header("Content-Type", "application/json; charset=utf-8")
		c.Header("Content-Disposition", "")
		h.handleServiceError(c, err)
		return
	}
}

// Quit ends the attempt early
// @Router /quit/{answerpaper_id} [get]
func (h *AttemptHandler) Quit(c *gin.Context) {
	id := h.parseIDParam(c, "answerpaper_id")
	if id == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	h.LogRequest(c, "Quitting attempt", "answerpaper_id", id)

	view, err := h.attemptService.Quit(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ValidateAnswer records an answer and grades it or hands it to the code server
// @Summary Submit an answer
// @Tags grading
// @Param answerpaper_id path uint true "Answer paper ID"
// @Param question_id path uint true "Question ID"
// @Router /validate/{answerpaper_id}/{question_id} [post]
func (h *AttemptHandler) ValidateAnswer(c *gin.Context) {
	paperID := h.parseIDParam(c, "answerpaper_id")
	if paperID == 0 {
		return
	}
	questionID := h.parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req answerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.attemptService.RecordAnswer(c.Request.Context(), &services.RecordAnswerRequest{
		UserID:        userID,
		AnswerPaperID: paperID,
		QuestionID:    questionID,
		Payload:       req.Answer,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PollResult reports the code server status for a dispatched answer
// @Router /validate/{uid} [get]
func (h *AttemptHandler) PollResult(c *gin.Context) {
	uid := h.parseIDParam(c, "uid")
	if uid == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	result, err := h.gradingService.PollResult(c.Request.Context(), uid, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UploadAssignment attaches a file to an upload question
// @Router /answerpapers/{id}/questions/{question_id}/uploads [post]
func (h *AttemptHandler) UploadAssignment(c *gin.Context) {
	paperID := h.parseIDParam(c, "id")
	if paperID == 0 {
		return
	}
	questionID := h.parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "A file is required", Details: err.Error()})
		return
	}
	if header.Size > maxAssignmentSize {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Message: "File is too large", Details: fmt.Sprintf("maximum size is %d bytes", maxAssignmentSize)})
		return
	}
	file, err := header.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Unable to read file", err)
		return
	}
	defer file.Close()

	upload, err := h.attemptService.UploadAssignment(c.Request.Context(), &services.UploadAssignmentRequest{
		UserID:        userID,
		AnswerPaperID: paperID,
		QuestionID:    questionID,
		FileName:      header.Filename,
		ContentType:   header.Header.Get("Content-Type"),
		Size:          header.Size,
		Reader:        file,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, upload)
}

// DownloadAssignment streams an uploaded file to its submitter or the quiz creator
// @Router /uploads/{id} [get]
func (h *AttemptHandler) DownloadAssignment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	upload, rc, err := h.attemptService.OpenAssignment(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, upload.Size, "application/octet-stream", rc, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename=%q`, upload.FileName),
	})
}
