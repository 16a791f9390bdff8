package http

import (
	"errors"
	"net/http"
	"strings"

	"ai-quiz-service/internal/app"
	"ai-quiz-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// Handlers serves the REST endpoints on top of the application services.
type Handlers struct {
	auth      *app.AuthService
	generator app.Generator
	scores    *app.ScoreService
	notifier  *app.ReportNotifier
	attempts  *app.AttemptService
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type quizRequest struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}

type saveScoreRequest struct {
	Topic      string               `json:"topic"`
	Difficulty string               `json:"difficulty"`
	Score      *int                 `json:"score"`
	Total      *int                 `json:"total"`
	Report     []domain.ReportEntry `json:"report"`
}

type sendReportRequest struct {
	ScoreID string `json:"scoreId"`
}

func (h *Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}
	if err := h.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password); err != nil {
		if errors.Is(err, domain.ErrValidation) && (strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "") {
			c.JSON(http.StatusBadRequest, gin.H{"message": "All fields are required"})
			return
		}
		writeError(c, "message", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}
	token, user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, "message", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    gin.H{"username": user.Username},
	})
}

func (h *Handlers) CurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": currentUser(c)})
}

func (h *Handlers) GenerateQuiz(c *gin.Context) {
	const invalid = "Valid topic, difficulty, and count are required."
	var req quizRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Topic) == "" || req.Count <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid})
		return
	}
	difficulty, err := domain.ParseDifficulty(req.Difficulty)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid})
		return
	}

	quiz, err := h.generator.Generate(c.Request.Context(), req.Topic, difficulty, req.Count)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": invalid})
			return
		}
		writeError(c, "error", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quiz": quiz})
}

func (h *Handlers) SaveScore(c *gin.Context) {
	var req saveScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil ||
		req.Topic == "" || req.Difficulty == "" || req.Score == nil || req.Total == nil || req.Report == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields"})
		return
	}
	id, err := h.scores.Save(c.Request.Context(), currentUser(c), domain.Attempt{
		Topic:      req.Topic,
		Difficulty: domain.Difficulty(req.Difficulty),
		Score:      *req.Score,
		Total:      *req.Total,
		Report:     req.Report,
	})
	if err != nil {
		writeError(c, "message", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Score saved successfully", "scoreId": id})
}

func (h *Handlers) ListScores(c *gin.Context) {
	scores, err := h.scores.ListByUser(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		writeError(c, "message", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scores": scores})
}

func (h *Handlers) GetReport(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing scoreId parameter"})
		return
	}
	report, err := h.scores.GetReport(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		writeError(c, "message", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (h *Handlers) SendReport(c *gin.Context) {
	var req sendReportRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ScoreID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing scoreId"})
		return
	}
	if err := h.notifier.Send(c.Request.Context(), currentUser(c).ID, req.ScoreID); err != nil {
		writeError(c, "error", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": "Email sent successfully!"})
}

func (h *Handlers) GetAttempt(c *gin.Context) {
	session, err := h.attempts.Get(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Attempt not found"})
			return
		}
		writeError(c, "message", err)
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}
