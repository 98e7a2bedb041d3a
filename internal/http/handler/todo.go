package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/jaekwang-park/serverless-todo/internal/middleware"
	"github.com/jaekwang-park/serverless-todo/internal/model"
)

// maxBodyBytes caps request bodies; todo payloads are a few hundred bytes.
const maxBodyBytes = 64 << 10

// TodoService is the business surface the handler drives.
type TodoService interface {
	GetTodos(ctx context.Context, userID string) ([]model.TodoItem, error)
	CreateTodo(ctx context.Context, req model.CreateTodoRequest, userID string) (model.TodoItem, error)
	DeleteTodo(ctx context.Context, todoID, userID string) error
	UpdateTodo(ctx context.Context, todoID string, req model.UpdateTodoRequest, userID string) error
	AddAttachment(ctx context.Context, todoID, userID string) (string, error)
}

type TodoHandler struct {
	svc      TodoService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewTodoHandler(svc TodoService, logger *slog.Logger) *TodoHandler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return &TodoHandler{svc: svc, validate: v, logger: logger}
}

type listResponse struct {
	Items []model.TodoItem `json:"items"`
}

type itemResponse struct {
	Item model.TodoItem `json:"item"`
}

type uploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
}

func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.GetTodos(r.Context(), middleware.GetUserID(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, listResponse{Items: items})
}

func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTodoRequest
	if !h.decode(w, r, &req) {
		return
	}

	item, err := h.svc.CreateTodo(r.Context(), req, middleware.GetUserID(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, itemResponse{Item: item})
}

func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateTodoRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.svc.UpdateTodo(r.Context(), chi.URLParam(r, "todoId"), req, middleware.GetUserID(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, struct{}{})
}

func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteTodo(r.Context(), chi.URLParam(r, "todoId"), middleware.GetUserID(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, struct{}{})
}

func (h *TodoHandler) AddAttachment(w http.ResponseWriter, r *http.Request) {
	uploadURL, err := h.svc.AddAttachment(r.Context(), chi.URLParam(r, "todoId"), middleware.GetUserID(r))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, uploadURLResponse{UploadURL: uploadURL})
}

// decode reads a JSON body into dst and validates it. On failure it writes
// the 400 response and returns false.
func (h *TodoHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			WriteError(w, http.StatusBadRequest, "INVALID_INPUT", validationMessage(verrs))
			return false
		}
		WriteError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request")
		return false
	}
	return true
}

func validationMessage(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, ", ")
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}
