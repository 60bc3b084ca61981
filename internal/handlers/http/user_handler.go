package http

import (
	errs "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rafabene/avantpro-accounts/internal/domain/errors"
	"github.com/rafabene/avantpro-accounts/internal/domain/ports"
	"github.com/rafabene/avantpro-accounts/internal/handlers/dto"
	"github.com/rafabene/avantpro-accounts/internal/services"
)

// ImageFormField é o campo multipart que carrega a imagem
const ImageFormField = "image"

// UserHandler lida com requisições HTTP relacionadas a usuários
type UserHandler struct {
	userService    *services.UserService
	logger         ports.Logger
	maxUploadBytes int64
}

// NewUserHandler cria um novo UserHandler
func NewUserHandler(userService *services.UserService, logger ports.Logger, maxUploadBytes int64) *UserHandler {
	return &UserHandler{
		userService:    userService,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes registra as rotas de usuários no grupo informado
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	{
		users.POST("", h.CreateUser)
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.PATCH("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
		users.PUT("/:id/image", h.SetImage)
		users.DELETE("/:id/image", h.ClearImage)
	}
}

// CreateUser cria um novo usuário
//
//	@Summary	Create user
//	@Tags		users
//	@Accept		json
//	@Produce	json
//	@Param		request	body		dto.CreateUserRequest	true	"User data"
//	@Success	201		{object}	dto.UserResponse
//	@Failure	400		{object}	dto.ErrorResponse
//	@Failure	409		{object}	dto.ErrorResponse
//	@Router		/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req.ToInput())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserResponse(user, h.userService.ImageURL(user)))
}

// GetUser busca um usuário por ID
//
//	@Summary	Get user
//	@Tags		users
//	@Produce	json
//	@Param		id	path		int	true	"User ID"
//	@Success	200	{object}	dto.UserResponse
//	@Failure	404	{object}	dto.ErrorResponse
//	@Router		/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(user, h.userService.ImageURL(user)))
}

// ListUsers lista usuários com paginação e filtros
//
//	@Summary	List users
//	@Tags		users
//	@Produce	json
//	@Param		page		query		int		false	"Page (starts at 1)"
//	@Param		page_size	query		int		false	"Page size (max 100)"
//	@Param		search		query		string	false	"Username or email fragment"
//	@Param		is_active	query		bool	false	"Active flag"
//	@Param		is_staff	query		bool	false	"Staff flag"
//	@Success	200			{object}	dto.ListUsersResponse
//	@Failure	400			{object}	dto.ErrorResponse
//	@Router		/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	var query dto.ListUsersQuery

	if err := c.ShouldBindQuery(&query); err != nil {
		h.bindError(c, err)
		return
	}

	filters := query.ToFilters()
	users, total, err := h.userService.ListUsers(c.Request.Context(), filters)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListUsersResponse{
		Items:    dto.ToUserResponses(users, h.userService.ImageURL),
		Total:    total,
		Page:     filters.Page,
		PageSize: filters.PageSize,
	})
}

// UpdateUser altera parcialmente um usuário
//
//	@Summary	Update user
//	@Tags		users
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int						true	"User ID"
//	@Param		request	body		dto.UpdateUserRequest	true	"Fields to change"
//	@Success	200		{object}	dto.UserResponse
//	@Failure	400		{object}	dto.ErrorResponse
//	@Failure	404		{object}	dto.ErrorResponse
//	@Failure	409		{object}	dto.ErrorResponse
//	@Router		/users/{id} [patch]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), id, req.ToInput())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(user, h.userService.ImageURL(user)))
}

// DeleteUser remove um usuário
//
//	@Summary	Delete user
//	@Tags		users
//	@Param		id	path	int	true	"User ID"
//	@Success	204
//	@Failure	404	{object}	dto.ErrorResponse
//	@Router		/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SetImage envia (ou substitui) a imagem do usuário
//
//	@Summary	Upload user image
//	@Tags		users
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		id		path		int		true	"User ID"
//	@Param		image	formData	file	true	"Image file"
//	@Success	200		{object}	dto.UserResponse
//	@Failure	400		{object}	dto.ErrorResponse
//	@Failure	404		{object}	dto.ErrorResponse
//	@Failure	413		{object}	dto.ErrorResponse
//	@Router		/users/{id}/image [put]
func (h *UserHandler) SetImage(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if h.maxUploadBytes > 0 {
		// folga para os cabeçalhos do multipart
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+(1<<20))
	}

	header, err := c.FormFile(ImageFormField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errs.As(err, &maxErr) {
			dto.WriteProblem(c, dto.PayloadTooLargeErrorResponseI18n(c, h.maxUploadMB()))
			return
		}
		dto.WriteProblem(c, dto.ValidationErrorResponseI18n(c, "error.image_required", []dto.ValidationError{{
			Field:   ImageFormField,
			Message: dto.T(c, "error.image_required"),
			Tag:     "required",
		}}))
		return
	}

	file, err := header.Open()
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer file.Close()

	user, err := h.userService.SetUserImage(c.Request.Context(), id, header.Filename, file)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(user, h.userService.ImageURL(user)))
}

// ClearImage remove a imagem do usuário
//
//	@Summary	Remove user image
//	@Tags		users
//	@Produce	json
//	@Param		id	path		int	true	"User ID"
//	@Success	200	{object}	dto.UserResponse
//	@Failure	404	{object}	dto.ErrorResponse
//	@Router		/users/{id}/image [delete]
func (h *UserHandler) ClearImage(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	user, err := h.userService.ClearUserImage(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(user, nil))
}

func (h *UserHandler) parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		dto.WriteProblem(c, dto.BadRequestErrorResponseI18n(c, "error.invalid_id"))
		return 0, false
	}
	return uint(id), true
}

func (h *UserHandler) maxUploadMB() int {
	return int(h.maxUploadBytes >> 20)
}

// bindError responde erros de binding (JSON malformado ou validação)
func (h *UserHandler) bindError(c *gin.Context, err error) {
	if fields := dto.ValidationErrors(c, err); fields != nil {
		dto.WriteProblem(c, dto.ValidationErrorResponseI18n(c, "", fields))
		return
	}
	dto.WriteProblem(c, dto.BadRequestErrorResponseI18n(c, "error.malformed_body"))
}

// handleError mapeia erros de domínio para respostas RFC 7807
func (h *UserHandler) handleError(c *gin.Context, err error) {
	switch {
	case errs.Is(err, errors.ErrUserNotFound):
		dto.WriteProblem(c, dto.NotFoundErrorResponseI18n(c, dto.T(c, "resource.user")))
	case errs.Is(err, errors.ErrUsernameAlreadyExists):
		dto.WriteProblem(c, dto.ConflictErrorResponseI18n(c, err.Error()))
	case errs.Is(err, errors.ErrImageTooLarge):
		dto.WriteProblem(c, dto.PayloadTooLargeErrorResponseI18n(c, h.maxUploadMB()))
	case errs.Is(err, errors.ErrInvalidUsername),
		errs.Is(err, errors.ErrInvalidEmail),
		errs.Is(err, errors.ErrInvalidName),
		errs.Is(err, errors.ErrInvalidPassword),
		errs.Is(err, errors.ErrInvalidImage):
		dto.WriteProblem(c, dto.ValidationErrorResponseI18n(c, validationKey(err), nil))
	default:
		h.logger.Error("unexpected error", "path", c.Request.URL.Path, "error", err)
		dto.WriteProblem(c, dto.InternalErrorResponseI18n(c))
	}
}

// validationKey extrai a chave i18n do erro de domínio (a mensagem do sentinel)
func validationKey(err error) string {
	for _, sentinel := range []error{
		errors.ErrInvalidUsername,
		errors.ErrInvalidEmail,
		errors.ErrInvalidName,
		errors.ErrInvalidPassword,
		errors.ErrInvalidImage,
	} {
		if errs.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "error.validation.detail"
}
