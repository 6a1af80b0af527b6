package shares

import (
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

// List godoc
// @Summary List todos shared with a group
// @Tags shares
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param ownerId query string false "Only todos owned by this user"
// @Success 200 {array} todos.Todo
// @Failure 403 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /groups/{id}/shared-todos [get]
func (h *Handler) List(c *gin.Context) {
	actor, groupID, ok := actorAndGroup(c)
	if !ok {
		return
	}

	var ownerFilter *primitive.ObjectID
	if raw := c.Query("ownerId"); raw != "" {
		owner, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			response.InvalidID(c, "owner")
			return
		}
		ownerFilter = &owner
	}

	shared, err := h.service.ListSharedTodos(c.Request.Context(), groupID, actor, ownerFilter)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, shared)
}

// Share godoc
// @Summary Share a todo with a group
// @Description The caller must own the todo and belong to the group. Sharing twice is a no-op.
// @Tags shares
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param request body ShareTodoRequest true "Todo to share"
// @Success 200 {object} Share
// @Failure 403 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /groups/{id}/shared-todos [post]
func (h *Handler) Share(c *gin.Context) {
	actor, groupID, ok := actorAndGroup(c)
	if !ok {
		return
	}

	var req ShareTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindJSONError(c, err)
		return
	}
	todoID, err := primitive.ObjectIDFromHex(req.TodoID)
	if err != nil {
		response.InvalidID(c, "todo")
		return
	}

	share, err := h.service.ShareTodo(c.Request.Context(), groupID, todoID, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, share, "Todo shared")
}

// Unshare godoc
// @Summary Stop sharing a todo with a group
// @Tags shares
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param todoId path string true "Todo ID"
// @Success 204
// @Failure 403 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /groups/{id}/shared-todos/{todoId} [delete]
func (h *Handler) Unshare(c *gin.Context) {
	actor, groupID, ok := actorAndGroup(c)
	if !ok {
		return
	}
	todoID, err := primitive.ObjectIDFromHex(c.Param("todoId"))
	if err != nil {
		response.InvalidID(c, "todo")
		return
	}

	if err := h.service.UnshareTodo(c.Request.Context(), groupID, todoID, actor); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

func actorAndGroup(c *gin.Context) (primitive.ObjectID, primitive.ObjectID, bool) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return actor, primitive.NilObjectID, false
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.InvalidID(c, "group")
		return actor, primitive.NilObjectID, false
	}
	return actor, id, true
}
