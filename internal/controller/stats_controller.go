package controller

import (
	"readhub_backend/internal/service"
	"readhub_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type StatsController struct {
	StatsService *service.StatsService
}

func NewStatsController(statsService *service.StatsService) *StatsController {
	return &StatsController{StatsService: statsService}
}

// @Summary 阅读统计
// @Description 按维度查询：week / month / year / total / calendar
// @Tags 阅读统计
// @Produce json
// @Security ApiKeyAuth
// @Param dimension query string true "统计维度"
// @Param date query string false "week 维度的锚点日期 YYYY-MM-DD"
// @Param year query int false "年份"
// @Param month query int false "月份 1-12"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/reading/stats [get]
func (c *StatsController) GetStats(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	dim, err := service.ParseDimension(ctx.Query("dimension"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	year, _ := strconv.Atoi(ctx.Query("year"))
	month, _ := strconv.Atoi(ctx.Query("month"))

	result, err := c.StatsService.GetStats(claims.UserID, service.StatsQuery{
		Dimension: dim,
		Date:      ctx.Query("date"),
		Year:      year,
		Month:     month,
	})
	if err != nil {
		switch err {
		case util.ErrInvalidDimension:
			util.BadRequest(ctx, err.Error())
		case util.ErrUserNotFound:
			util.NotFound(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// @Summary 已达成里程碑
// @Tags 阅读统计
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "返回数量" default(20)
// @Param year query int false "按年过滤"
// @Success 200 {object} util.Response
// @Router /api/reading/milestones [get]
func (c *StatsController) GetMilestones(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	limit := 20
	if l, err := strconv.Atoi(ctx.Query("limit")); err == nil && l > 0 {
		limit = l
	}
	year, _ := strconv.Atoi(ctx.Query("year"))

	milestones, err := c.StatsService.BadgeRepo.ListEarned(claims.UserID, limit, year)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"milestones": milestones})
}
