package controller

import (
	"readhub_backend/internal/model"
	"readhub_backend/internal/service"
	"readhub_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type BadgeController struct {
	BadgeService *service.BadgeService
	DB           *gorm.DB
}

func NewBadgeController(badgeService *service.BadgeService, db *gorm.DB) *BadgeController {
	return &BadgeController{BadgeService: badgeService, DB: db}
}

// @Summary 我的徽章
// @Description 已获得的徽章与未获得徽章的进度
// @Tags 成就
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/badges [get]
func (c *BadgeController) GetBadges(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	earned, err := c.BadgeService.ListEarned(claims.UserID, 0, 0)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	inProgress, err := c.BadgeService.Progress(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"earned":     earned,
		"inProgress": inProgress,
	})
}

// @Summary 主动触发徽章评估
// @Description 幂等：指标没有新变化时返回空列表
// @Tags 成就
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/badges/check [post]
func (c *BadgeController) CheckBadges(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var newly []model.Badge
	err := c.DB.Transaction(func(tx *gorm.DB) error {
		badges, err := c.BadgeService.Evaluate(tx, claims.UserID, time.Now())
		if err != nil {
			return err
		}
		newly = badges
		return nil
	})
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"newlyEarned": newly})
}
