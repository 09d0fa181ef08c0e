package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aozorasoft/renraku/backend/internal/auth"
	"github.com/aozorasoft/renraku/backend/internal/export"
	"github.com/aozorasoft/renraku/backend/internal/layout"
	"github.com/aozorasoft/renraku/backend/internal/notebook"
	"github.com/aozorasoft/renraku/backend/internal/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	principalEmailContextKey = "renraku_principal_email"
	notebookTitle            = "れんらくちょう"
)

var (
	errMissingVerifier        = errors.New("identity verifier dependency required")
	errMissingTokenManager    = errors.New("token manager dependency required")
	errMissingRoleGate        = errors.New("role gate dependency required")
	errMissingNotebookService = errors.New("notebook service dependency required")
	errInvalidAuthorization   = errors.New("authorization header missing or invalid")
)

// IdentityVerifier validates identity-provider tokens presented at sign-in.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (auth.GoogleClaims, error)
}

// BackendTokenManager issues and validates this service's own tokens.
type BackendTokenManager interface {
	IssueBackendToken(ctx context.Context, claims auth.GoogleClaims) (string, int64, error)
	ValidateToken(token string) (auth.Principal, error)
}

// IdentityRecorder persists identities seen at sign-in. Optional.
type IdentityRecorder interface {
	RecordSignIn(claims auth.GoogleClaims) (string, error)
}

// Dependencies wires the HTTP layer to its collaborators.
type Dependencies struct {
	Verifier     IdentityVerifier
	TokenManager BackendTokenManager
	RoleGate     *users.RoleGate
	Identities   IdentityRecorder
	Notebook     *notebook.Service
	Feed         *StampFeed
	Exporter     export.Renderer
	Logger       *zap.Logger
}

// NewHTTPHandler validates dependencies and builds the gin router.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Verifier == nil {
		return nil, errMissingVerifier
	}
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.RoleGate == nil {
		return nil, errMissingRoleGate
	}
	if deps.Notebook == nil {
		return nil, errMissingNotebookService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	feed := deps.Feed
	if feed == nil {
		feed = NewStampFeed()
	}
	exporter := deps.Exporter
	if exporter == nil {
		exporter = export.NewTextRenderer()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		verifier:   deps.Verifier,
		tokens:     deps.TokenManager,
		roleGate:   deps.RoleGate,
		identities: deps.Identities,
		notebook:   deps.Notebook,
		feed:       feed,
		exporter:   exporter,
		logger:     logger,
	}

	router.POST("/auth/google", handler.handleGoogleAuth)

	days := router.Group("/days/:date")
	days.GET("", handler.handleGetDay)
	days.GET("/layout", handler.handleGetLayout)
	days.GET("/export", handler.handleExport)
	days.GET("/stamps", handler.handleListStamps)
	days.POST("/stamps", handler.handleSubmitStamp)
	days.GET("/stamps/stream", handler.handleStampStream)

	authoring := days.Group("")
	authoring.Use(handler.authorizeAuthor)
	authoring.PUT("/records/:id/text", handler.handleSetText)
	authoring.PUT("/records/:id/category", handler.handleSetCategory)
	authoring.POST("/records/move", handler.handleMoveRecord)
	authoring.POST("/copy-previous", handler.handleCopyPrevious)

	return router, nil
}

type httpHandler struct {
	verifier   IdentityVerifier
	tokens     BackendTokenManager
	roleGate   *users.RoleGate
	identities IdentityRecorder
	notebook   *notebook.Service
	feed       *StampFeed
	exporter   export.Renderer
	logger     *zap.Logger
}

type authRequestPayload struct {
	IDToken string `json:"id_token"`
}

type authResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
}

func (h *httpHandler) handleGoogleAuth(c *gin.Context) {
	var request authRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.IDToken) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	claims, err := h.verifier.Verify(c.Request.Context(), request.IDToken)
	if err != nil {
		h.logger.Warn("identity token verification failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if h.identities != nil {
		if _, err := h.identities.RecordSignIn(claims); err != nil {
			h.logger.Warn("failed to record sign-in identity", zap.Error(err))
		}
	}

	token, expiresIn, err := h.tokens.IssueBackendToken(c.Request.Context(), claims)
	if err != nil {
		h.logger.Error("failed to issue backend token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, authResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
		Role:        string(h.roleGate.RoleFor(claims.Email)),
	})
}

type recordPayload struct {
	ID       int    `json:"id"`
	Category string `json:"category"`
	Text     string `json:"text"`
}

type dayResponsePayload struct {
	Date             string          `json:"date"`
	Records          []recordPayload `json:"records"`
	UpdatedBy        string          `json:"updated_by,omitempty"`
	UpdatedAtSeconds int64           `json:"updated_at_s,omitempty"`
	Stored           bool            `json:"stored"`
}

func dayResponse(day notebook.Day) dayResponsePayload {
	records := make([]recordPayload, 0, len(day.Records))
	for _, record := range day.Records {
		records = append(records, recordPayload{
			ID:       record.ID,
			Category: string(record.Category),
			Text:     record.Text,
		})
	}
	payload := dayResponsePayload{
		Date:    day.Date.String(),
		Records: records,
		Stored:  day.Stored,
	}
	if day.Stored {
		payload.UpdatedBy = day.UpdatedBy
		payload.UpdatedAtSeconds = day.UpdatedAt.Unix()
	}
	return payload
}

func (h *httpHandler) handleGetDay(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}
	day, err := h.notebook.LoadDay(c.Request.Context(), date)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dayResponse(day))
}

func (h *httpHandler) handleGetLayout(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}
	day, err := h.notebook.LoadDay(c.Request.Context(), date)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, composeDayPage(day))
}

func (h *httpHandler) handleExport(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}
	day, err := h.notebook.LoadDay(c.Request.Context(), date)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	document, err := h.exporter.Render(composeDayPage(day), date.String())
	if err != nil {
		h.logger.Error("export failed", zap.String("date", date.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export_failed"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", document.Filename))
	c.Data(http.StatusOK, document.ContentType, document.Body)
}

type stampPayload struct {
	StampID          string `json:"stamp_id"`
	Name             string `json:"name"`
	StampedAtSeconds int64  `json:"stamped_at_s"`
}

type stampListResponsePayload struct {
	Stamps  []stampPayload `json:"stamps"`
	Stamped *bool          `json:"stamped,omitempty"`
}

func (h *httpHandler) handleListStamps(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}
	stamps, err := h.notebook.ListAcknowledgements(c.Request.Context(), date)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	response := stampListResponsePayload{Stamps: make([]stampPayload, 0, len(stamps))}
	for _, stamp := range stamps {
		response.Stamps = append(response.Stamps, stampPayload{
			StampID:          stamp.StampID,
			Name:             stamp.Name,
			StampedAtSeconds: stamp.StampedAtSeconds,
		})
	}

	// The remembered-name check is best-effort: names are self-reported, so
	// this never proves identity, only that the name appears today.
	if rememberedName := strings.TrimSpace(c.Query("name")); rememberedName != "" {
		stamped := false
		for _, stamp := range stamps {
			if stamp.Name == rememberedName {
				stamped = true
				break
			}
		}
		response.Stamped = &stamped
	}

	c.JSON(http.StatusOK, response)
}

type submitStampPayload struct {
	Name string `json:"name"`
}

func (h *httpHandler) handleSubmitStamp(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}

	var request submitStampPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	name, err := notebook.NewStamperName(request.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_name"})
		return
	}

	stamp, err := h.notebook.SubmitAcknowledgement(c.Request.Context(), date, name)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.feed.Publish(StampEvent{
		DateKey:          stamp.DateKey,
		StampID:          stamp.StampID,
		Name:             stamp.Name,
		StampedAtSeconds: stamp.StampedAtSeconds,
	})

	c.JSON(http.StatusCreated, stampPayload{
		StampID:          stamp.StampID,
		Name:             stamp.Name,
		StampedAtSeconds: stamp.StampedAtSeconds,
	})
}

type setTextPayload struct {
	Text string `json:"text"`
}

func (h *httpHandler) handleSetText(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}
	recordID, ok := h.recordIDParam(c)
	if !ok {
		return
	}
	var request setTextPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	day, err := h.notebook.SetText(c.Request.Context(), date, recordID, request.Text, c.GetString(principalEmailContextKey))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dayResponse(day))
}

type setCategoryPayload struct {
	Category string `json:"category"`
}

func (h *httpHandler) handleSetCategory(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}
	recordID, ok := h.recordIDParam(c)
	if !ok {
		return
	}
	var request setCategoryPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	category, err := notebook.ParseCategory(request.Category)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_category"})
		return
	}

	day, err := h.notebook.SetCategory(c.Request.Context(), date, recordID, category, c.GetString(principalEmailContextKey))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dayResponse(day))
}

type moveRecordPayload struct {
	Index     int `json:"index"`
	Direction int `json:"direction"`
}

func (h *httpHandler) handleMoveRecord(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}
	var request moveRecordPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	day, moved, err := h.notebook.MoveRecord(c.Request.Context(), date, request.Index, request.Direction, c.GetString(principalEmailContextKey))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response := gin.H{"moved": moved, "day": dayResponse(day)}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) handleCopyPrevious(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}

	day, err := h.notebook.CopyFromPreviousDay(c.Request.Context(), date, c.GetString(principalEmailContextKey))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dayResponse(day))
}

func (h *httpHandler) authorizeAuthor(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	principal, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if !h.roleGate.IsAuthor(principal.Email) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.Set(principalEmailContextKey, principal.Email)
	c.Next()
}

func (h *httpHandler) dateParam(c *gin.Context) (notebook.DateKey, bool) {
	date, err := notebook.NewDateKey(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_date"})
		return "", false
	}
	return date, true
}

func (h *httpHandler) recordIDParam(c *gin.Context) (int, bool) {
	recordID, err := strconv.Atoi(c.Param("id"))
	if err != nil || recordID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_record_id"})
		return 0, false
	}
	return recordID, true
}

func (h *httpHandler) respondServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	label := "service_failed"
	switch {
	case errors.Is(err, notebook.ErrRecordNotFound):
		status = http.StatusNotFound
		label = "record_not_found"
	case errors.Is(err, notebook.ErrPreviousDayNotFound):
		status = http.StatusNotFound
		label = "not_found"
	case errors.Is(err, notebook.ErrUnknownCategory):
		status = http.StatusBadRequest
		label = "unknown_category"
	case errors.Is(err, notebook.ErrInvalidDirection):
		status = http.StatusBadRequest
		label = "invalid_direction"
	}

	body := gin.H{"error": label}
	var serviceErr *notebook.ServiceError
	if errors.As(err, &serviceErr) {
		body["code"] = serviceErr.Code()
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("notebook request failed", zap.Error(err))
	}
	c.JSON(status, body)
}

func composeDayPage(day notebook.Day) layout.Page {
	contentColumns := make([]layout.Column, 0, len(day.Records))
	for _, record := range day.Records {
		contentColumns = append(contentColumns, layout.BuildColumn(record.Category, record.Text))
	}
	dateColumn := layout.BuildDateColumn(day.Date.Time())
	return layout.ComposePage(notebookTitle, dateColumn, contentColumns, day.Date.String())
}
