package handler

import (
	"errors"
	"io"
	"net/http"

	"bedrock-relay/internal/adapter/http/dto"
	"bedrock-relay/internal/adapter/http/middleware"
	"bedrock-relay/internal/core/ports"
	"bedrock-relay/pkg/apperror"
	"bedrock-relay/pkg/response"

	"github.com/gin-gonic/gin"
)

// NameHandler exposes subname registration, lookup and avatars.
type NameHandler struct {
	nameSvc ports.NameService
}

// NewNameHandler creates a new NameHandler.
func NewNameHandler(nameSvc ports.NameService) *NameHandler {
	return &NameHandler{nameSvc: nameSvc}
}

// Register handles POST /register.
func (h *NameHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(dto.ValidationMessage(err)))
		return
	}

	reg, err := h.nameSvc.Register(c.Request.Context(), req.Username, req.Address)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.MarkAudited(c, req.Username, map[string]interface{}{
		"owner":   req.Address,
		"tx_hash": reg.TxHash,
	})
	response.OK(c, reg)
}

// Username handles GET /username/:address.
func (h *NameHandler) Username(c *gin.Context) {
	rec, err := h.nameSvc.Username(c.Request.Context(), c.Param("address"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rec)
}

// Available handles GET /available?username=.
func (h *NameHandler) Available(c *gin.Context) {
	var q dto.AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.ErrInvalidUsername())
		return
	}

	avail, err := h.nameSvc.Available(c.Request.Context(), q.Username)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, avail)
}

// Resolve handles GET /resolve/:username.
func (h *NameHandler) Resolve(c *gin.Context) {
	res, err := h.nameSvc.Resolve(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// SetAvatar handles PUT /avatar/:username with a multipart "file" field.
func (h *NameHandler) SetAvatar(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Error(c, apperror.ErrBodyTooLarge())
			return
		}
		response.Error(c, apperror.Validation("file is required"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	username := c.Param("username")
	upd, err := h.nameSvc.SetAvatar(c.Request.Context(), username, data, contentType)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.MarkAudited(c, username, map[string]interface{}{
		"cid":     upd.CID,
		"tx_hash": upd.TxHash,
	})
	response.OK(c, upd)
}

// Avatar handles GET /avatar/:username.
func (h *NameHandler) Avatar(c *gin.Context) {
	rec, err := h.nameSvc.Avatar(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rec)
}
