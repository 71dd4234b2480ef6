package handlers

import (
	"net/http"
	"strconv"

	"schoolquiz-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// QuestionHandler exposes the read-only question bank for the host's setup
// screen. There is deliberately no write surface here.
type QuestionHandler struct {
	questions *services.QuestionService
}

func NewQuestionHandler(questions *services.QuestionService) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	grade, _ := strconv.Atoi(c.Query("grade"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	questions, err := h.questions.FetchQuestions(services.QuestionFilter{
		Subject:  c.Query("subject"),
		Grade:    grade,
		Language: c.Query("language"),
		Limit:    limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not load questions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

func (h *QuestionHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.questions.FetchSubjects()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not load subjects"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subjects": subjects})
}

func (h *QuestionHandler) ListLanguages(c *gin.Context) {
	languages, err := h.questions.FetchLanguages()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not load languages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"languages": languages})
}
