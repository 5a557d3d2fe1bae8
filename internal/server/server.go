package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"aura/internal/domain/errors"
	"aura/internal/domain/models"
	"aura/internal/voice"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
	"github.com/rs/cors"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type TaskRepository interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTaskByID(ctx context.Context, userID, id string) (*models.Task, error)
	GetTasks(ctx context.Context, userID string) ([]models.Task, error)
	UpdateTask(ctx context.Context, userID, id string, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, userID, id string) error
}

type VoiceProcessor interface {
	Process(ctx context.Context, cmd voice.Command) (models.VoiceResult, error)
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) (io.ReadCloser, error)
}

type SpeechStore interface {
	Save(r io.Reader) (string, error)
	Dir() string
}

type Option func(*TaskAPI)

func WithVoice(p VoiceProcessor) Option {
	return func(a *TaskAPI) { a.voice = p }
}

func WithSpeech(synth SpeechSynthesizer, store SpeechStore) Option {
	return func(a *TaskAPI) {
		a.synth = synth
		a.speech = store
	}
}

type TaskAPI struct {
	httpSrv  *http.Server
	users    UserRepository
	tasks    TaskRepository
	voice    VoiceProcessor
	synth    SpeechSynthesizer
	speech   SpeechStore
	cfg      *Config
	validate *validator.Validate
	now      func() time.Time
}

func NewTaskAPI(users UserRepository, tasks TaskRepository, cfg *Config, opts ...Option) *TaskAPI {
	if users == nil || tasks == nil {
		return nil
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	a := &TaskAPI{
		httpSrv:  &http.Server{Addr: cfg.ListenAddr(), ReadHeaderTimeout: 10 * time.Second},
		users:    users,
		tasks:    tasks,
		cfg:      cfg,
		validate: validator.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.configRoutes()
	return a
}

// Start blocks serving HTTP until Shutdown is called.
func (a *TaskAPI) Start() error {
	if a.httpSrv == nil {
		return errors.ErrInternalServer
	}
	slog.Info("http server listening", "addr", a.httpSrv.Addr)
	if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *TaskAPI) Shutdown(ctx context.Context) error {
	return a.httpSrv.Shutdown(ctx)
}

func (a *TaskAPI) Handler() http.Handler {
	return a.httpSrv.Handler
}

func (a *TaskAPI) configRoutes() {
	if gin.Mode() == gin.DebugMode && strings.ToLower(a.cfg.LogLevel) != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery(), RequestLogger(), GzipRequestDecompress(), GzipResponseCompress())

	router.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	router.NoMethod(func(ctx *gin.Context) {
		ctx.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if a.speech != nil {
		router.Static("/static", a.speech.Dir())
	}

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", a.register)
		auth.POST("/login", a.login)
		auth.POST("/logout", a.logout)
		auth.GET("/me", a.authMiddleware(), a.me)
	}

	protected := api.Group("", a.authMiddleware())
	{
		protected.GET("/tasks", a.getTasks)
		protected.POST("/tasks", a.createTask)
		protected.GET("/tasks/:id", a.getTaskByID)
		protected.PATCH("/tasks/:id", a.updateTask)
		protected.DELETE("/tasks/:id", a.deleteTask)

		protected.POST("/voice-command", a.voiceCommand)
		protected.POST("/tts", a.textToSpeech)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   a.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Content-Encoding", "Accept-Encoding"},
		AllowCredentials: true,
	})
	a.httpSrv.Handler = c.Handler(router)
}

func (a *TaskAPI) register(ctx *gin.Context) {
	var req models.CredentialsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrBadRequest.Error()})
		return
	}
	req.Email = models.NormalizeEmail(req.Email)
	if err := a.validate.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErrorToErrorResponse(err).Error()})
		return
	}

	if existing, _ := a.users.GetUserByEmail(ctx.Request.Context(), req.Email); existing != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrUserAlreadyExists.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.internalError(ctx, "hash password", err)
		return
	}

	user := models.User{Email: req.Email, Password: string(hash)}
	if err := a.users.CreateUser(ctx.Request.Context(), &user); err != nil {
		if errors.Is(err, errors.ErrUserAlreadyExists) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrUserAlreadyExists.Error()})
			return
		}
		a.internalError(ctx, "create user", err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "User created successfully."})
}

func (a *TaskAPI) login(ctx *gin.Context) {
	var req models.CredentialsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrBadRequest.Error()})
		return
	}

	user, err := a.users.GetUserByEmail(ctx.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, errors.ErrUserNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrInvalidCredentials.Error()})
			return
		}
		a.internalError(ctx, "lookup user", err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrInvalidCredentials.Error()})
		return
	}

	token, err := a.issueToken(user, a.now())
	if err != nil {
		a.internalError(ctx, "issue token", err)
		return
	}
	a.setTokenCookie(ctx, token, int(a.cfg.TokenTTL.Seconds()))

	ctx.JSON(http.StatusOK, gin.H{"id": user.ID, "email": user.Email})
}

func (a *TaskAPI) logout(ctx *gin.Context) {
	a.clearTokenCookie(ctx)
	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully."})
}

func (a *TaskAPI) me(ctx *gin.Context) {
	user, err := a.users.GetUserByID(ctx.Request.Context(), ctx.GetString(ctxUserID))
	if err != nil {
		if errors.Is(err, errors.ErrUserNotFound) {
			a.clearTokenCookie(ctx)
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": errors.ErrUnauthorized.Error()})
			return
		}
		a.internalError(ctx, "lookup user", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"id": user.ID, "email": user.Email})
}

func (a *TaskAPI) getTasks(ctx *gin.Context) {
	tasks, err := a.tasks.GetTasks(ctx.Request.Context(), ctx.GetString(ctxUserID))
	if err != nil {
		a.internalError(ctx, "list tasks", err)
		return
	}
	ctx.JSON(http.StatusOK, tasks)
}

func (a *TaskAPI) getTaskByID(ctx *gin.Context) {
	task, err := a.tasks.GetTaskByID(ctx.Request.Context(), ctx.GetString(ctxUserID), ctx.Param("id"))
	if err != nil {
		a.taskError(ctx, "get task", err)
		return
	}
	ctx.JSON(http.StatusOK, task)
}

func (a *TaskAPI) createTask(ctx *gin.Context) {
	var req models.CreateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrBadRequest.Error()})
		return
	}
	if err := a.validate.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErrorToErrorResponse(err).Error()})
		return
	}

	task, err := req.ToTask(ctx.GetString(ctxUserID))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := a.tasks.CreateTask(ctx.Request.Context(), task); err != nil {
		a.internalError(ctx, "create task", err)
		return
	}
	ctx.JSON(http.StatusCreated, task)
}

func (a *TaskAPI) updateTask(ctx *gin.Context) {
	var req models.UpdateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrBadRequest.Error()})
		return
	}
	if err := a.validate.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErrorToErrorResponse(err).Error()})
		return
	}
	patch, err := req.ToPatch()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, id := ctx.GetString(ctxUserID), ctx.Param("id")
	var task *models.Task
	if patch.IsEmpty() {
		task, err = a.tasks.GetTaskByID(ctx.Request.Context(), userID, id)
	} else {
		task, err = a.tasks.UpdateTask(ctx.Request.Context(), userID, id, patch)
	}
	if err != nil {
		a.taskError(ctx, "update task", err)
		return
	}
	ctx.JSON(http.StatusOK, task)
}

func (a *TaskAPI) deleteTask(ctx *gin.Context) {
	if err := a.tasks.DeleteTask(ctx.Request.Context(), ctx.GetString(ctxUserID), ctx.Param("id")); err != nil {
		a.taskError(ctx, "delete task", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Task deleted."})
}

func (a *TaskAPI) taskError(ctx *gin.Context, op string, err error) {
	if errors.Is(err, errors.ErrNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": errors.ErrNotFound.Error()})
		return
	}
	a.internalError(ctx, op, err)
}

func (a *TaskAPI) internalError(ctx *gin.Context, op string, err error) {
	slog.Error(op, "err", err, "path", ctx.Request.URL.Path)
	_ = ctx.Error(err)
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": errors.ErrInternalServer.Error()})
}

func validationErrorToErrorResponse(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, verr := range verrs {
			switch verr.Field() {
			case "Email":
				return errors.ErrInvalidEmail
			case "Password":
				return errors.ErrInvalidPassword
			case "Title":
				return errors.ErrInvalidTitle
			case "Description":
				return errors.ErrInvalidDescription
			case "Priority":
				return errors.ErrInvalidPriority
			case "Status":
				return errors.ErrInvalidStatus
			case "Text":
				return errors.ErrEmptySpeechText
			}
		}
	}
	return errors.ErrValidationFailed
}
