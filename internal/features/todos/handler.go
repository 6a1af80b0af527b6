package todos

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/todoshare/internal/middleware"
	"github.com/xyz-asif/todoshare/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create godoc
// @Summary Create a new todo
// @Description Create a new todo for the authenticated user. Titles are unique across all users, ignoring case.
// @Tags todos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TodoRequest true "Todo creation data"
// @Success 201 {object} Todo
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /todos [post]
func (h *Handler) Create(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var req TodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindJSONError(c, err)
		return
	}

	todo, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	location := strings.TrimSuffix(c.Request.URL.Path, "/") + "/" + todo.ID.Hex()
	response.Created(c, location, todo, "Todo created")
}

// List godoc
// @Summary List todos
// @Description List the caller's todos, newest first. Optional title and completed filters.
// @Tags todos
// @Produce json
// @Security BearerAuth
// @Param title query string false "Case-insensitive title substring"
// @Param completed query bool false "Completion status"
// @Success 200 {array} Todo
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Router /todos [get]
func (h *Handler) List(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var completed *bool
	if raw, present := c.GetQuery("completed"); present {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(c, "completed must be true or false", "INVALID_QUERY")
			return
		}
		completed = &v
	}

	todos, err := h.service.Find(c.Request.Context(), actor, c.Query("title"), completed)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, todos)
}

// Search godoc
// @Summary Search todos by title
// @Tags todos
// @Produce json
// @Security BearerAuth
// @Param title query string true "Case-insensitive title substring"
// @Success 200 {array} Todo
// @Failure 401 {object} response.APIResponse
// @Router /todos/search [get]
func (h *Handler) Search(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	todos, err := h.service.ListByTitle(c.Request.Context(), actor, c.Query("title"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, todos)
}

// ListByCompleted godoc
// @Summary List todos by completion status
// @Tags todos
// @Produce json
// @Security BearerAuth
// @Param completed query bool true "Completion status"
// @Success 200 {array} Todo
// @Failure 400 {object} response.APIResponse
// @Router /todos/completed [get]
func (h *Handler) ListByCompleted(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	completed, err := strconv.ParseBool(c.Query("completed"))
	if err != nil {
		response.BadRequest(c, "completed must be true or false", "INVALID_QUERY")
		return
	}

	todos, err := h.service.ListByCompleted(c.Request.Context(), actor, completed)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, todos)
}

// Get godoc
// @Summary Get a todo by ID
// @Description Todos owned by someone else are reported as not found.
// @Tags todos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Todo ID"
// @Success 200 {object} Todo
// @Failure 400 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /todos/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	todo, err := h.service.Get(c.Request.Context(), id, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, todo)
}

// Update godoc
// @Summary Replace a todo
// @Tags todos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Todo ID"
// @Param request body TodoRequest true "New todo data"
// @Success 200 {object} Todo
// @Failure 400 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /todos/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	var req TodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindJSONError(c, err)
		return
	}

	todo, err := h.service.Update(c.Request.Context(), id, actor, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, todo, "Todo updated")
}

// ToggleComplete godoc
// @Summary Flip a todo's completed flag
// @Tags todos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Todo ID"
// @Success 200 {object} Todo
// @Failure 404 {object} response.APIResponse
// @Router /todos/{id}/complete [put]
func (h *Handler) ToggleComplete(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	todo, err := h.service.ToggleComplete(c.Request.Context(), id, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, todo)
}

// Delete godoc
// @Summary Delete a todo
// @Description Also removes the todo from every group it was shared with.
// @Tags todos
// @Security BearerAuth
// @Param id path string true "Todo ID"
// @Success 204
// @Failure 404 {object} response.APIResponse
// @Router /todos/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, actor); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

func actorAndID(c *gin.Context) (primitive.ObjectID, primitive.ObjectID, bool) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return actor, primitive.NilObjectID, false
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.InvalidID(c, "todo")
		return actor, primitive.NilObjectID, false
	}
	return actor, id, true
}
