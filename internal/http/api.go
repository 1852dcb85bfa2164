package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"meeting-tracker/internal/archive"
	"meeting-tracker/internal/auth"
	"meeting-tracker/internal/client/gemini"
	"meeting-tracker/internal/domain"
	"meeting-tracker/internal/export"
	"meeting-tracker/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	meetings  service.MeetingService
	insight   *gemini.Client
	archiver  archive.Archiver
	logger    *logrus.Logger
	jwtSecret string
	tokenTTL  time.Duration
}

func NewHandler(
	users service.UserService,
	meetings service.MeetingService,
	insight *gemini.Client,
	archiver archive.Archiver,
	logger *logrus.Logger,
	jwtSecret string,
	tokenTTL time.Duration,
) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:     users,
		meetings:  meetings,
		insight:   insight,
		archiver:  archiver,
		logger:    logger,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	router.POST("/register", h.register)
	router.POST("/login", h.login)

	meetings := router.Group("/meetings", authMiddleware(h.users, h.jwtSecret))
	{
		meetings.POST("/", h.createMeeting)
		meetings.GET("/", h.listMeetings)
		meetings.GET("/:id", h.getMeeting)
		meetings.POST("/:id/actions", h.addAction)
		meetings.GET("/:id/health", h.meetingHealth)
		meetings.GET("/:id/export", h.exportMeeting)
	}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type createMeetingRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

type createActionRequest struct {
	Task       string  `json:"task" binding:"required"`
	AssignedTo string  `json:"assigned_to" binding:"required"`
	Status     string  `json:"status"`
	DueDate    *string `json:"due_date"`
}

type UserResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type MeetingResponse struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Date        string           `json:"date"`
	OwnerID     int64            `json:"owner_id"`
	Actions     []ActionResponse `json:"actions"`
}

type ActionResponse struct {
	ID         int64   `json:"id"`
	MeetingID  int64   `json:"meeting_id"`
	Task       string  `json:"task"`
	AssignedTo string  `json:"assigned_to"`
	Status     string  `json:"status"`
	DueDate    *string `json:"due_date"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			return
		}
		h.logger.Warnf("register: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected error"})
		return
	}

	c.JSON(http.StatusOK, UserResponse{ID: user.ID, Email: user.Email})
}

// login takes the form-encoded fields username (the email) and password.
func (h *Handler) login(c *gin.Context) {
	email := c.PostForm("username")
	password := c.PostForm("password")

	user, err := h.users.Authenticate(c.Request.Context(), email, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credentials"})
			return
		}
		h.logger.Warnf("login: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected error"})
		return
	}

	token, err := auth.CreateAccessToken(user.Email, h.jwtSecret, h.tokenTTL)
	if err != nil {
		h.logger.Warnf("issue token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected error"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) createMeeting(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req createMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meeting, err := h.meetings.Create(c.Request.Context(), service.CreateMeetingInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
	}, user.ID)
	if err != nil {
		h.logger.Warnf("create meeting: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected error"})
		return
	}

	c.JSON(http.StatusOK, meetingToResponse(*meeting))
}

func (h *Handler) listMeetings(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	meetings, err := h.meetings.ListByOwner(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Warnf("list meetings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected error"})
		return
	}

	resp := make([]MeetingResponse, len(meetings))
	for i := range meetings {
		resp[i] = meetingToResponse(meetings[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getMeeting(c *gin.Context) {
	meeting, ok := h.ownedMeeting(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, meetingToResponse(*meeting))
}

func (h *Handler) addAction(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	id, err := meetingID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting id"})
		return
	}

	var req createActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, err := h.meetings.AddAction(c.Request.Context(), id, user.ID, service.CreateActionInput{
		Task:       req.Task,
		AssignedTo: req.AssignedTo,
		Status:     req.Status,
		DueDate:    req.DueDate,
	})
	if err != nil {
		if errors.Is(err, service.ErrMeetingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Meeting not found"})
			return
		}
		h.logger.Warnf("add action: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected error"})
		return
	}

	c.JSON(http.StatusOK, actionToResponse(*action))
}

func (h *Handler) meetingHealth(c *gin.Context) {
	meeting, ok := h.ownedMeeting(c)
	if !ok {
		return
	}

	report, raw, err := h.insight.AnalyzeSentiment(c.Request.Context(), meeting.Description)
	if err != nil {
		if errors.Is(err, gemini.ErrUnparsableResponse) {
			// degrade to a structured payload rather than failing the request
			c.JSON(http.StatusOK, gin.H{"error": "AI response parsing failed", "raw": raw})
			return
		}
		h.logger.Warnf("analyze meeting %d: %v", meeting.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "AI service unavailable"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *Handler) exportMeeting(c *gin.Context) {
	meeting, ok := h.ownedMeeting(c)
	if !ok {
		return
	}

	pdfBytes, err := export.Render(meeting, meeting.Actions)
	if err != nil {
		h.logger.Warnf("export meeting %d: %v", meeting.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected error"})
		return
	}

	if h.archiver != nil {
		h.archiver.Enqueue(archive.Job{MeetingID: meeting.ID, Data: pdfBytes})
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=meeting_%d.pdf", meeting.ID))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// ownedMeeting loads the meeting addressed by the :id param for the
// authenticated caller, writing the error response itself on failure.
func (h *Handler) ownedMeeting(c *gin.Context) (*domain.Meeting, bool) {
	user, ok := currentUser(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return nil, false
	}

	id, err := meetingID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting id"})
		return nil, false
	}

	meeting, err := h.meetings.Get(c.Request.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, service.ErrMeetingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Meeting not found"})
			return nil, false
		}
		h.logger.Warnf("get meeting %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected error"})
		return nil, false
	}
	return meeting, true
}

func meetingID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid meeting id")
	}
	return id, nil
}

func meetingToResponse(m domain.Meeting) MeetingResponse {
	actions := make([]ActionResponse, len(m.Actions))
	for i := range m.Actions {
		actions[i] = actionToResponse(m.Actions[i])
	}
	return MeetingResponse{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Date:        m.Date,
		OwnerID:     m.OwnerID,
		Actions:     actions,
	}
}

func actionToResponse(a domain.ActionItem) ActionResponse {
	return ActionResponse{
		ID:         a.ID,
		MeetingID:  a.MeetingID,
		Task:       a.Task,
		AssignedTo: a.AssignedTo,
		Status:     a.Status,
		DueDate:    a.DueDate,
	}
}
