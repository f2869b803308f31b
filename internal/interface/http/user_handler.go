package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-service/internal/application"
	"github.com/oksasatya/user-service/internal/domain"
	"github.com/oksasatya/user-service/internal/domain/entity"
	"github.com/oksasatya/user-service/pkg/response"
	"github.com/oksasatya/user-service/pkg/validation"
)

// UserService is the part of application.Service the handlers need.
type UserService interface {
	CreateUser(ctx context.Context, in application.CreateUserInput) (*entity.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetAllUsers(ctx context.Context) ([]*entity.User, error)
}

type UserHandler struct {
	Svc    UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type addressRequest struct {
	Street  string `json:"street" binding:"max=255"`
	City    string `json:"city" binding:"max=100"`
	State   string `json:"state" binding:"max=100"`
	ZipCode string `json:"zipCode" binding:"max=20"`
	Country string `json:"country" binding:"max=100"`
}

type createUserRequest struct {
	FirstName string          `json:"firstName" binding:"required,name"`
	LastName  string          `json:"lastName" binding:"required,name"`
	Email     string          `json:"email" binding:"required,email,max=255"`
	Phone     string          `json:"phone" binding:"omitempty,phone"`
	Address   *addressRequest `json:"address" binding:"omitempty"`
}

func (r createUserRequest) input() application.CreateUserInput {
	in := application.CreateUserInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
	}
	if r.Address != nil {
		in.Street = r.Address.Street
		in.City = r.Address.City
		in.State = r.Address.State
		in.ZipCode = r.Address.ZipCode
		in.Country = r.Address.Country
	}
	return in
}

type addressResponse struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type userResponse struct {
	ID        uuid.UUID        `json:"id"`
	FirstName string           `json:"firstName"`
	LastName  string           `json:"lastName"`
	Email     string           `json:"email"`
	Phone     string           `json:"phone,omitempty"`
	Address   *addressResponse `json:"address,omitempty"`
	Status    entity.Status    `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func toUserResponse(u *entity.User) userResponse {
	res := userResponse{
		ID:        u.ID(),
		FirstName: u.FirstName(),
		LastName:  u.LastName(),
		Email:     u.Email().Value(),
		Phone:     u.Phone(),
		Status:    u.Status(),
		CreatedAt: u.CreatedAt(),
		UpdatedAt: u.UpdatedAt(),
	}
	if a := u.Address(); a != nil {
		res.Address = &addressResponse{
			Street:  a.Street(),
			City:    a.City(),
			State:   a.State(),
			ZipCode: a.ZipCode(),
			Country: a.Country(),
		}
	}
	return res
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.CreateUser(c.Request.Context(), req.input())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, toUserResponse(u), "User created successfully", nil)
}

func (h *UserHandler) GetByID(c *gin.Context) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "INVALID_ID", "invalid user id: "+raw, nil)
		return
	}

	u, err := h.Svc.GetUserByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if u == nil {
		response.Error[any](c, http.StatusNotFound, "USER_NOT_FOUND", "User not found with id: "+id.String(), nil)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "User retrieved successfully", nil)
}

func (h *UserHandler) GetByEmail(c *gin.Context) {
	email := c.Param("email")
	u, err := h.Svc.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if u == nil {
		response.Error[any](c, http.StatusNotFound, "USER_NOT_FOUND", "User not found with email: "+email, nil)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "User retrieved successfully", nil)
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.GetAllUsers(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	res := make([]userResponse, 0, len(users))
	for _, u := range users {
		res = append(res, toUserResponse(u))
	}
	response.Success(c, http.StatusOK, res, "Users retrieved successfully", map[string]any{"total": len(res)})
}

// writeError maps workflow errors onto HTTP statuses.
func (h *UserHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidEmailFormat):
		response.Error[any](c, http.StatusBadRequest, "INVALID_EMAIL", err.Error(), nil)
	case errors.Is(err, domain.ErrDuplicateUser), errors.Is(err, domain.ErrEmailConflict):
		response.Error[any](c, http.StatusConflict, "USER_ALREADY_EXISTS", "a user with this email already exists", nil)
	case errors.Is(err, domain.ErrPublish):
		h.Logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("user created but event not published")
		response.Error[any](c, http.StatusInternalServerError, "EVENT_PUBLISH_FAILED", "user was stored but the creation notification failed", nil)
	default:
		h.Logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("request failed")
		response.Error[any](c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
	}
}
