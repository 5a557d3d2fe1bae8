package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"aura/internal/domain/errors"
	"aura/internal/domain/models"
	"aura/internal/voice"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const voiceFailure = "Failed to process voice command."

func (a *TaskAPI) voiceCommand(ctx *gin.Context) {
	if a.voice == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "voice commands are not configured"})
		return
	}

	limit := a.cfg.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUpload
	}
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, limit)

	file, err := ctx.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": errors.ErrUploadTooLarge.Error()})
			return
		}
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}
	state, err := models.ParseConversationState(ctx.PostForm("state"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := os.MkdirAll(a.cfg.UploadDir, 0o755); err != nil {
		a.internalError(ctx, "create upload dir", err)
		return
	}
	upload := filepath.Join(a.cfg.UploadDir, uuid.NewString()+filepath.Ext(file.Filename))
	if err := ctx.SaveUploadedFile(file, upload); err != nil {
		a.internalError(ctx, "save upload", err)
		return
	}

	result, err := a.voice.Process(ctx.Request.Context(), voice.Command{
		UserID:    ctx.GetString(ctxUserID),
		State:     state,
		TaskID:    ctx.PostForm("taskId"),
		AudioPath: upload,
	})
	if err != nil {
		var rejection *voice.Rejection
		if errors.As(err, &rejection) {
			status := http.StatusBadRequest
			if errors.Is(err, errors.ErrNotFound) {
				status = http.StatusNotFound
			}
			ctx.JSON(status, gin.H{"status": "error", "responseText": rejection.Text})
			return
		}
		slog.Error("voice command failed", "err", err, "user_id", ctx.GetString(ctxUserID))
		_ = ctx.Error(err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": voiceFailure})
		return
	}

	ctx.JSON(http.StatusOK, result)
}

func (a *TaskAPI) textToSpeech(ctx *gin.Context) {
	if a.synth == nil || a.speech == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "speech synthesis is not configured"})
		return
	}

	var req models.SpeechRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrEmptySpeechText.Error()})
		return
	}
	if err := a.validate.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErrorToErrorResponse(err).Error()})
		return
	}

	audio, err := a.synth.Synthesize(ctx.Request.Context(), req.Text)
	if err != nil {
		if errors.Is(err, errors.ErrEmptySpeechText) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		a.speechError(ctx, fmt.Errorf("synthesize: %w", err))
		return
	}
	defer audio.Close()

	url, err := a.speech.Save(audio)
	if err != nil {
		a.speechError(ctx, fmt.Errorf("store speech: %w", err))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"audioUrl": url})
}

func (a *TaskAPI) speechError(ctx *gin.Context, err error) {
	slog.Error("text to speech failed", "err", err)
	_ = ctx.Error(err)
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to synthesize speech."})
}
