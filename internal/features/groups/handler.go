package groups

import (
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

// List godoc
// @Summary List the caller's groups
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Success 200 {array} Group
// @Router /groups [get]
func (h *Handler) List(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	groups, err := h.service.ListGroupsForUser(c.Request.Context(), actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, groups)
}

// Create godoc
// @Summary Create a group
// @Description The caller becomes owner and first member. A join code is generated.
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateGroupRequest true "Group name"
// @Success 201 {object} Group
// @Failure 400 {object} response.APIResponse
// @Router /groups [post]
func (h *Handler) Create(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindJSONError(c, err)
		return
	}

	group, err := h.service.CreateGroup(c.Request.Context(), req.Name, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}

	location := strings.TrimSuffix(c.Request.URL.Path, "/") + "/" + group.ID.Hex()
	response.Created(c, location, group, "Group created")
}

// Join godoc
// @Summary Join a group by code
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body JoinGroupRequest true "Join code"
// @Success 200 {object} Membership
// @Failure 404 {object} response.APIResponse
// @Failure 429 {object} response.APIResponse
// @Router /groups/join [post]
func (h *Handler) Join(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var req JoinGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindJSONError(c, err)
		return
	}

	membership, err := h.service.JoinByCode(c.Request.Context(), req.JoinCode, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, membership, "Joined group")
}

// Get godoc
// @Summary Get group details
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} Group
// @Failure 403 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /groups/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	actor, groupID, ok := actorAndGroup(c)
	if !ok {
		return
	}

	group, err := h.service.GetGroupDetails(c.Request.Context(), groupID, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, group)
}

// Delete godoc
// @Summary Delete a group
// @Description Owner only. Memberships and shares go with it.
// @Tags groups
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 204
// @Failure 403 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /groups/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	actor, groupID, ok := actorAndGroup(c)
	if !ok {
		return
	}

	if err := h.service.DeleteGroup(c.Request.Context(), groupID, actor); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

// ListMembers godoc
// @Summary List group members
// @Tags groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {array} Membership
// @Failure 403 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /groups/{id}/members [get]
func (h *Handler) ListMembers(c *gin.Context) {
	actor, groupID, ok := actorAndGroup(c)
	if !ok {
		return
	}

	members, err := h.service.ListMembers(c.Request.Context(), groupID, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, members)
}

// AddMember godoc
// @Summary Add a member
// @Tags groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param request body AddMemberRequest true "User to add"
// @Success 200 {object} Membership
// @Failure 403 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /groups/{id}/members [post]
func (h *Handler) AddMember(c *gin.Context) {
	actor, groupID, ok := actorAndGroup(c)
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindJSONError(c, err)
		return
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		response.InvalidID(c, "user")
		return
	}

	membership, err := h.service.AddMember(c.Request.Context(), groupID, userID, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, membership)
}

// RemoveMember godoc
// @Summary Remove a member
// @Tags groups
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param userId path string true "User ID"
// @Success 204
// @Failure 403 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /groups/{id}/members/{userId} [delete]
func (h *Handler) RemoveMember(c *gin.Context) {
	actor, groupID, ok := actorAndGroup(c)
	if !ok {
		return
	}
	userID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		response.InvalidID(c, "user")
		return
	}

	if err := h.service.RemoveMember(c.Request.Context(), groupID, userID, actor); err != nil {
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
