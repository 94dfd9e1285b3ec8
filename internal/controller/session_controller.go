package controller

import (
	"errors"

	"reading_coach_backend/internal/repository"
	"reading_coach_backend/internal/service"
	"reading_coach_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	CompletionService *service.CompletionService
	SessionRepo       *repository.SessionRepository
}

func NewSessionController(completionService *service.CompletionService, sessionRepo *repository.SessionRepository) *SessionController {
	return &SessionController{
		CompletionService: completionService,
		SessionRepo:       sessionRepo,
	}
}

// actorFromContext 从 JWT claims 构造业务层请求者身份
func actorFromContext(ctx *gin.Context) (service.Actor, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		return service.Actor{}, false
	}
	return service.Actor{
		AccountID: claims.AccountID,
		CoachID:   claims.CoachID,
		Admin:     claims.IsAdmin(),
	}, true
}

// completionError 完课两条路径共用的错误到状态码映射
func completionError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrSessionAlreadyCompleted):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrSessionNotScheduled),
		errors.Is(err, util.ErrOfflineNotApproved),
		errors.Is(err, util.ErrVoiceNoteRequired):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// CompleteOnline godoc
// @Summary 线上课完课
// @Description 伴学面板提交活动执行列表，记录日志、合并课次事实并评分
// @Tags 课次
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课次ID"
// @Param   body body service.OnlineCompletionReq true "完课报告"
// @Success 200 {object} util.Response{data=service.CompletionResult} "完课成功"
// @Failure 400 {object} util.Response "请求参数错误或课次状态不允许"
// @Failure 403 {object} util.Response "非本人课次"
// @Failure 404 {object} util.Response "课次不存在"
// @Failure 409 {object} util.Response "课次已完课"
// @Router /api/sessions/{id}/complete [post]
func (c *SessionController) CompleteOnline(ctx *gin.Context) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	var req service.OnlineCompletionReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.CompletionService.CompleteOnline(ctx.Request.Context(), actor, util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		completionError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// CompleteOffline godoc
// @Summary 线下课补报
// @Description 线下课结束后教练补交报告；要求语音留言已上传，转写与朗读分析尽力而为
// @Tags 课次
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课次ID"
// @Param   body body service.OfflineCompletionReq true "线下报告"
// @Success 200 {object} util.Response{data=service.CompletionResult} "报告已记录"
// @Failure 400 {object} util.Response "请求参数错误、未上传语音留言或课次状态不允许"
// @Failure 403 {object} util.Response "非本人课次"
// @Failure 404 {object} util.Response "课次不存在"
// @Failure 409 {object} util.Response "课次已完课"
// @Router /api/sessions/{id}/offline-report [post]
func (c *SessionController) CompleteOffline(ctx *gin.Context) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	var req service.OfflineCompletionReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.CompletionService.CompleteOffline(ctx.Request.Context(), actor, util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		completionError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// GetSession godoc
// @Summary 课次详情
// @Tags 课次
// @Produce json
// @Security ApiKeyAuth
// @Param   id path int true "课次ID"
// @Success 200 {object} util.Response{data=model.Session}
// @Failure 403 {object} util.Response "非本人课次"
// @Failure 404 {object} util.Response "课次不存在"
// @Router /api/sessions/{id} [get]
func (c *SessionController) GetSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.SessionRepo.FindByID(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.NotFound(ctx)
		return
	}

	if !claims.IsAdmin() && (session.CoachID == nil || !claims.OwnsCoach(*session.CoachID)) {
		util.Forbidden(ctx)
		return
	}

	util.Success(ctx, session)
}

// ListMySessions godoc
// @Summary 我的课次列表
// @Description 当前教练的课次，支持按状态过滤与分页
// @Tags 课次
// @Produce json
// @Security ApiKeyAuth
// @Param   status query string false "状态过滤" Enums(scheduled, completed, cancelled)
// @Param   page query int false "页码，默认1"
// @Param   limit query int false "每页数量，默认20"
// @Success 200 {object} util.Response{data=object}
// @Failure 401 {object} util.Response "未登录"
// @Router /api/sessions [get]
func (c *SessionController) ListMySessions(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil || claims.CoachID == nil {
		util.Unauthorized(ctx)
		return
	}

	page := util.MustParseUint(ctx.DefaultQuery("page", "1"))
	limit := util.MustParseUint(ctx.DefaultQuery("limit", "20"))
	if page == 0 {
		page = 1
	}
	if limit == 0 || limit > 100 {
		limit = 20
	}

	sessions, total, err := c.SessionRepo.ListByCoach(*claims.CoachID, ctx.Query("status"), int(page), int(limit))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"sessions": sessions,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}
