// Package notes содержит HTTP-обработчики для управления заметками.
package notes

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"zametki/internal/notes/adapters/http/dto"
	"zametki/internal/notes/adapters/http/middleware"
	"zametki/internal/notes/app"
	"zametki/internal/notes/domain/entities"
	"zametki/pkg/logger"
)

// Константы ошибок и сообщений для логирования.
const (
	LogHandlerCreateNote   = "handling create note request"
	LogHandlerGetNote      = "handling get note request"
	LogHandlerListNotes    = "handling list notes request"
	LogHandlerUpdateNote   = "handling update note request"
	LogHandlerDeleteNote   = "handling delete note request"
	LogHandlerSearchNotes  = "handling search notes request"
	LogHandlerGetVersions  = "handling get versions request"
	LogHandlerRevertNote   = "handling revert note request"
	LogHandlerShareNote    = "handling share note request"

	ErrMsgInvalidNoteID      = "invalid note id"
	ErrMsgInvalidPagination  = "invalid pagination parameters"
	ErrMsgInvalidRequestBody = "invalid request body"
	ErrMsgInvalidMediaData   = "media data must be valid base64"
	ErrMsgUnauthorized       = "authentication required"
)

// Handler обработчик HTTP-запросов для работы с заметками.
type Handler struct {
	notes *app.NoteUseCase
}

// NewHandler создает новый экземпляр обработчика заметок.
func NewHandler(notes *app.NoteUseCase) *Handler {
	return &Handler{notes: notes}
}

// CreateNote обрабатывает запрос на создание новой заметки.
func (h *Handler) CreateNote(ctx fiber.Ctx) error {
	requestCtx, userID, err := h.begin(ctx, "Handler.CreateNote", LogHandlerCreateNote)
	if err != nil {
		return err
	}
	if userID == "" {
		return nil
	}

	var req dto.CreateNoteRequest
	if !bindAndValidate(ctx, requestCtx, &req) {
		return nil
	}

	media, ok := toMediaInput(ctx, req.Media)
	if !ok {
		return nil
	}

	note, err := h.notes.CreateNote(requestCtx, userID, app.CreateNoteInput{
		Title:   req.Title,
		Content: req.Content,
		Media:   media,
	})
	if err != nil {
		logger.Log(requestCtx).Error(requestCtx, "failed to create note", zap.Error(err))
		return handleError(ctx, err)
	}

	if err := ctx.Status(fiber.StatusCreated).JSON(note); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// GetNote обрабатывает запрос на получение заметки по ID.
func (h *Handler) GetNote(ctx fiber.Ctx) error {
	requestCtx, userID, err := h.begin(ctx, "Handler.GetNote", LogHandlerGetNote)
	if err != nil {
		return err
	}
	if userID == "" {
		return nil
	}

	noteID, ok := noteIDParam(ctx, requestCtx)
	if !ok {
		return nil
	}

	details, err := h.notes.GetNote(requestCtx, userID, noteID)
	if err != nil {
		logger.Log(requestCtx).Error(requestCtx, "failed to get note", zap.Error(err))
		return handleError(ctx, err)
	}

	if err := ctx.JSON(details); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// ListNotes обрабатывает запрос на получение списка заметок с пагинацией.
func (h *Handler) ListNotes(ctx fiber.Ctx) error {
	requestCtx, userID, err := h.begin(ctx, "Handler.ListNotes", LogHandlerListNotes)
	if err != nil {
		return err
	}
	if userID == "" {
		return nil
	}

	limit, err := strconv.Atoi(ctx.Query("limit", "10"))
	if err != nil || limit < 1 {
		return badRequest(ctx, ErrMsgInvalidPagination)
	}
	offset, err := strconv.Atoi(ctx.Query("offset", "0"))
	if err != nil || offset < 0 {
		return badRequest(ctx, ErrMsgInvalidPagination)
	}

	list, err := h.notes.ListNotes(requestCtx, userID, limit, offset)
	if err != nil {
		logger.Log(requestCtx).Error(requestCtx, "failed to list notes", zap.Error(err))
		return handleError(ctx, err)
	}

	if err := ctx.JSON(list); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// UpdateNote обрабатывает запрос на обновление заметки.
func (h *Handler) UpdateNote(ctx fiber.Ctx) error {
	requestCtx, userID, err := h.begin(ctx, "Handler.UpdateNote", LogHandlerUpdateNote)
	if err != nil {
		return err
	}
	if userID == "" {
		return nil
	}

	noteID, ok := noteIDParam(ctx, requestCtx)
	if !ok {
		return nil
	}

	var req dto.UpdateNoteRequest
	if !bindAndValidate(ctx, requestCtx, &req) {
		return nil
	}

	media, ok := toMediaInput(ctx, req.Media)
	if !ok {
		return nil
	}

	result, err := h.notes.UpdateNote(requestCtx, userID, noteID, app.UpdateNoteInput{
		Title:           req.Title,
		Content:         req.Content,
		ExpectedVersion: req.Version,
		Media:           media,
	})
	if err != nil {
		logger.Log(requestCtx).Error(requestCtx, "failed to update note", zap.Error(err))
		return handleError(ctx, err)
	}

	if err := ctx.JSON(result.Note); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// DeleteNote обрабатывает запрос на удаление заметки.
func (h *Handler) DeleteNote(ctx fiber.Ctx) error {
	requestCtx, userID, err := h.begin(ctx, "Handler.DeleteNote", LogHandlerDeleteNote)
	if err != nil {
		return err
	}
	if userID == "" {
		return nil
	}

	noteID, ok := noteIDParam(ctx, requestCtx)
	if !ok {
		return nil
	}

	if err := h.notes.DeleteNote(requestCtx, userID, noteID); err != nil {
		logger.Log(requestCtx).Error(requestCtx, "failed to delete note", zap.Error(err))
		return handleError(ctx, err)
	}

	if err := ctx.SendStatus(fiber.StatusNoContent); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// SearchNotes обрабатывает запрос на поиск заметок по ключевому слову.
func (h *Handler) SearchNotes(ctx fiber.Ctx) error {
	requestCtx, userID, err := h.begin(ctx, "Handler.SearchNotes", LogHandlerSearchNotes)
	if err != nil {
		return err
	}
	if userID == "" {
		return nil
	}

	result, err := h.notes.SearchNotes(requestCtx, userID, ctx.Query("keyword"))
	if err != nil {
		logger.Log(requestCtx).Error(requestCtx, "failed to search notes", zap.Error(err))
		return handleError(ctx, err)
	}

	if err := ctx.JSON(result); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// GetVersions обрабатывает запрос на получение истории версий заметки.
func (h *Handler) GetVersions(ctx fiber.Ctx) error {
	requestCtx, userID, err := h.begin(ctx, "Handler.GetVersions", LogHandlerGetVersions)
	if err != nil {
		return err
	}
	if userID == "" {
		return nil
	}

	noteID, ok := noteIDParam(ctx, requestCtx)
	if !ok {
		return nil
	}

	versions, err := h.notes.GetVersions(requestCtx, userID, noteID)
	if err != nil {
		logger.Log(requestCtx).Error(requestCtx, "failed to get versions", zap.Error(err))
		return handleError(ctx, err)
	}

	if err := ctx.JSON(fiber.Map{"versions": versions}); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// RevertNote обрабатывает запрос на откат заметки к версии.
func (h *Handler) RevertNote(ctx fiber.Ctx) error {
	requestCtx, userID, err := h.begin(ctx, "Handler.RevertNote", LogHandlerRevertNote)
	if err != nil {
		return err
	}
	if userID == "" {
		return nil
	}

	noteID, ok := noteIDParam(ctx, requestCtx)
	if !ok {
		return nil
	}

	var req dto.RevertNoteRequest
	if !bindAndValidate(ctx, requestCtx, &req) {
		return nil
	}

	note, err := h.notes.RevertNote(requestCtx, userID, noteID, req.Version)
	if err != nil {
		logger.Log(requestCtx).Error(requestCtx, "failed to revert note", zap.Error(err))
		return handleError(ctx, err)
	}

	if err := ctx.JSON(note); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// ShareNote обрабатывает запрос на выдачу права доступа к заметке.
func (h *Handler) ShareNote(ctx fiber.Ctx) error {
	requestCtx, userID, err := h.begin(ctx, "Handler.ShareNote", LogHandlerShareNote)
	if err != nil {
		return err
	}
	if userID == "" {
		return nil
	}

	noteID, ok := noteIDParam(ctx, requestCtx)
	if !ok {
		return nil
	}

	var req dto.ShareNoteRequest
	if !bindAndValidate(ctx, requestCtx, &req) {
		return nil
	}

	err = h.notes.ShareNote(requestCtx, userID, noteID, req.UserID, entities.Permission(req.Permission))
	if err != nil {
		logger.Log(requestCtx).Error(requestCtx, "failed to share note", zap.Error(err))
		return handleError(ctx, err)
	}

	if err := ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"note_id":    noteID,
		"user_id":    req.UserID,
		"permission": req.Permission,
	}); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// begin извлекает контекст запроса и личность вызывающей стороны.
// Пустой userID означает, что ответ 401 уже отправлен.
func (h *Handler) begin(ctx fiber.Ctx, handler, msg string) (context.Context, string, error) {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", handler))
	log.Debug(requestCtx, msg)

	identity, ok := middleware.Identity(ctx)
	if !ok {
		log.Error(requestCtx, ErrMsgUnauthorized)
		if err := ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": ErrMsgUnauthorized,
		}); err != nil {
			return requestCtx, "", fmt.Errorf("failed to send unauthorized response: %w", err)
		}
		return requestCtx, "", nil
	}

	return requestCtx, identity.UserID, nil
}

// noteIDParam читает параметр note_id. false означает, что 400 уже отправлен.
func noteIDParam(ctx fiber.Ctx, requestCtx context.Context) (string, bool) {
	noteID := ctx.Params("note_id")
	if noteID == "" {
		logger.Log(requestCtx).Error(requestCtx, ErrMsgInvalidNoteID)
		_ = badRequest(ctx, ErrMsgInvalidNoteID)
		return "", false
	}
	return noteID, true
}

// bindAndValidate разбирает и валидирует тело запроса.
// false означает, что ответ 400 уже отправлен.
func bindAndValidate(ctx fiber.Ctx, requestCtx context.Context, req any) bool {
	if err := ctx.Bind().Body(req); err != nil {
		logger.Log(requestCtx).Error(requestCtx, ErrMsgInvalidRequestBody, zap.Error(err))
		_ = badRequest(ctx, ErrMsgInvalidRequestBody)
		return false
	}
	if err := dto.Validate(req); err != nil {
		logger.Log(requestCtx).Debug(requestCtx, ErrMsgInvalidRequestBody, zap.Error(err))
		_ = badRequest(ctx, err.Error())
		return false
	}
	return true
}

// toMediaInput декодирует base64-содержимое вложения.
// false означает, что ответ 400 уже отправлен.
func toMediaInput(ctx fiber.Ctx, req *dto.MediaRequest) (*app.MediaInput, bool) {
	if req == nil {
		return nil, true
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		_ = badRequest(ctx, ErrMsgInvalidMediaData)
		return nil, false
	}

	return &app.MediaInput{
		Filename: req.Filename,
		MimeType: req.MimeType,
		Data:     data,
	}, true
}

func badRequest(ctx fiber.Ctx, message string) error {
	if err := ctx.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: message}); err != nil {
		return fmt.Errorf("failed to send bad request response: %w", err)
	}
	return nil
}

// handleError переводит ошибки слоя приложения в HTTP-статусы.
func handleError(ctx fiber.Ctx, err error) error {
	if conflict, ok := app.AsVersionConflict(err); ok {
		if sendErr := ctx.Status(fiber.StatusConflict).JSON(dto.VersionConflictResponse{
			Error:           "note has been modified by another request",
			CurrentVersion:  conflict.CurrentVersion,
			ProvidedVersion: conflict.ProvidedVersion,
		}); sendErr != nil {
			return fmt.Errorf("error sending conflict response: %w", sendErr)
		}
		return nil
	}

	status := fiber.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, app.ErrNotFound), errors.Is(err, app.ErrVersionNotFound):
		status = fiber.StatusNotFound
		message = err.Error()
	case errors.Is(err, app.ErrReadOnlyAccess), errors.Is(err, app.ErrOwnerOnly):
		status = fiber.StatusForbidden
		message = err.Error()
	case errors.Is(err, app.ErrMediaTooLarge):
		status = fiber.StatusRequestEntityTooLarge
		message = err.Error()
	case errors.Is(err, app.ErrEmptyUpdate),
		errors.Is(err, app.ErrKeywordTooShort),
		errors.Is(err, app.ErrInvalidVersion),
		errors.Is(err, entities.ErrEmptyTitle),
		errors.Is(err, entities.ErrTitleTooLong),
		errors.Is(err, entities.ErrEmptyContent),
		errors.Is(err, entities.ErrEmptyUserID),
		errors.Is(err, entities.ErrInvalidPermission):
		status = fiber.StatusBadRequest
		message = err.Error()
	}

	if sendErr := ctx.Status(status).JSON(dto.ErrorResponse{Error: message}); sendErr != nil {
		return fmt.Errorf("error sending error response: %w", sendErr)
	}
	return nil
}
