package controller

import (
	"readhub_backend/internal/service"
	"readhub_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type LeaderboardController struct {
	LeaderboardService *service.LeaderboardService
}

func NewLeaderboardController(leaderboardService *service.LeaderboardService) *LeaderboardController {
	return &LeaderboardController{LeaderboardService: leaderboardService}
}

// @Summary 周排行榜
// @Description 不带 week 返回本周实时榜；带 week（周一日期）返回对应周，已结算周为不可变快照
// @Tags 排行榜
// @Produce json
// @Security ApiKeyAuth
// @Param week query string false "周起始日期 YYYY-MM-DD，必须是周一"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/leaderboard [get]
func (c *LeaderboardController) GetLeaderboard(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.LeaderboardService.GetLeaderboard(claims.UserID, ctx.Query("week"))
	if err != nil {
		if err == util.ErrInvalidWeek {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// @Summary 点赞排行榜条目
// @Description 同一周内对同一用户只能点一次
// @Tags 排行榜
// @Produce json
// @Security ApiKeyAuth
// @Param userId path int true "被点赞用户ID"
// @Param week query string false "周起始日期 YYYY-MM-DD，默认本周"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/leaderboard/{userId}/like [post]
func (c *LeaderboardController) LikeEntry(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	targetID, err := strconv.ParseUint(ctx.Param("userId"), 10, 64)
	if err != nil || targetID == 0 {
		util.BadRequest(ctx, "invalid user id")
		return
	}

	if err := c.LeaderboardService.LikeEntry(claims.UserID, uint(targetID), ctx.Query("week")); err != nil {
		switch err {
		case util.ErrAlreadyLiked:
			util.Conflict(ctx, err.Error())
		case util.ErrUserNotFound:
			util.NotFound(ctx, err.Error())
		case util.ErrInvalidWeek:
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"liked": true})
}
