package controller

import (
	"readhub_backend/internal/service"
	"readhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	SessionService *service.SessionService
}

func NewSessionController(sessionService *service.SessionService) *SessionController {
	return &SessionController{SessionService: sessionService}
}

// @Summary 开始阅读会话
// @Description 同一本书同一设备同时只允许一个进行中的会话
// @Tags 阅读会话
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.StartSessionRequest true "会话信息"
// @Success 201 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/reading/sessions [post]
func (c *SessionController) StartSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.SessionService.StartSession(claims.UserID, req)
	if err != nil {
		switch err {
		case util.ErrSessionConflict:
			util.Conflict(ctx, err.Error())
		case util.ErrInvalidBookType:
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{
		"sessionId": session.ID,
		"startedAt": session.StartedAt,
	})
}

// @Summary 阅读心跳
// @Description 上报进行中会话的心跳；超时重发会被静默吸收
// @Tags 阅读会话
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "会话ID"
// @Param body body service.HeartbeatRequest true "心跳信息"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/reading/sessions/{id}/heartbeat [post]
func (c *SessionController) Heartbeat(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.HeartbeatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.SessionService.Heartbeat(claims.UserID, ctx.Param("id"), req)
	if err != nil {
		if err == util.ErrSessionNotFound {
			util.NotFound(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 结束阅读会话
// @Description 提交最后一笔时长并返回本次新达成的里程碑
// @Tags 阅读会话
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "会话ID"
// @Param body body service.EndSessionRequest true "结束信息"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/reading/sessions/{id}/end [post]
func (c *SessionController) EndSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.EndSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.SessionService.EndSession(claims.UserID, ctx.Param("id"), req)
	if err != nil {
		if err == util.ErrSessionNotFound {
			util.NotFound(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 进行中的会话
// @Description 跨设备取最近一次心跳的进行中会话，用于"继续阅读"
// @Tags 阅读会话
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/reading/sessions/active [get]
func (c *SessionController) GetActiveSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.SessionService.GetActiveSession(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"session": session})
}
