package controller

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"reading_coach_backend/internal/repository"
	"reading_coach_backend/internal/service"
	"reading_coach_backend/internal/util"
	"reading_coach_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OfflineController struct {
	OfflineService *service.OfflineService
	StorageService *service.StorageService
	SessionRepo    *repository.SessionRepository
}

func NewOfflineController(offlineService *service.OfflineService, storageService *service.StorageService, sessionRepo *repository.SessionRepository) *OfflineController {
	return &OfflineController{
		OfflineService: offlineService,
		StorageService: storageService,
		SessionRepo:    sessionRepo,
	}
}

// RequestConversion godoc
// @Summary 申请线上课转线下
// @Description 教练为某节待上课提交转线下申请；达标教练自动批准，否则进入待审批
// @Tags 线下转换
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课次ID"
// @Param   body body service.OfflineConversionReq true "转换申请"
// @Success 200 {object} util.Response{data=service.OfflineConversionResult} "申请结果"
// @Failure 400 {object} util.Response "请求参数错误或课次状态不允许"
// @Failure 403 {object} util.Response "非本人课次"
// @Failure 404 {object} util.Response "课次不存在"
// @Failure 409 {object} util.Response "已有申请或占比达上限"
// @Router /api/sessions/{id}/offline-request [post]
func (c *OfflineController) RequestConversion(ctx *gin.Context) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	var req service.OfflineConversionReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.OfflineService.RequestConversion(ctx.Request.Context(), actor, util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		var capErr *util.OfflineCapError
		switch {
		case errors.As(err, &capErr):
			util.ErrorWithData(ctx, http.StatusConflict, capErr.Error(), capErr)
		case errors.Is(err, util.ErrSessionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		case errors.Is(err, util.ErrAlreadyOffline),
			errors.Is(err, util.ErrOfflineAlreadyRequested):
			util.Conflict(ctx, err.Error())
		case errors.Is(err, util.ErrSessionNotScheduled),
			errors.Is(err, util.ErrEnrollmentNotFound):
			util.BadRequest(ctx, err.Error())
		default:
			if strings.HasPrefix(err.Error(), "invalid offline reason") {
				util.BadRequest(ctx, err.Error())
				return
			}
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// UploadAudio godoc
// @Summary 上传线下课音频
// @Description 上传语音留言或孩子朗读片段；仅限已批准的线下课，25MB 上限，音频格式白名单
// @Tags 线下转换
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课次ID"
// @Param   type formData string true "音频用途" Enums(voice_note, reading_clip)
// @Param   file formData file true "音频文件"
// @Success 200 {object} util.Response{data=object} "上传成功"
// @Failure 400 {object} util.Response "文件过大、格式不支持或课次状态不允许"
// @Failure 403 {object} util.Response "非本人课次"
// @Failure 404 {object} util.Response "课次不存在"
// @Router /api/sessions/{id}/audio [post]
func (c *OfflineController) UploadAudio(ctx *gin.Context) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	audioType := ctx.PostForm("type")
	if audioType != util.AudioTypeVoiceNote && audioType != util.AudioTypeReadingClip {
		util.BadRequest(ctx, "type must be voice_note or reading_clip")
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "File is required")
		return
	}
	if fileHeader.Size > util.MaxAudioFileSize {
		util.BadRequest(ctx, util.ErrFileTooLarge.Error())
		return
	}
	if !util.HasAllowedAudioExtension(fileHeader.Filename) {
		util.BadRequest(ctx, util.ErrInvalidAudioType.Error())
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	// 深度探测内容类型，扩展名白名单只是粗筛
	mimeType, _ := util.ValidateMimeType(src, []string{util.MimeAudio, util.MimeVideoWebm, util.MimeOggApp, util.MimeOctetStream})
	if !util.IsAudio(mimeType) && mimeType != util.MimeOctetStream {
		util.BadRequest(ctx, util.ErrInvalidAudioType.Error())
		return
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	// 先落临时文件，ffmpeg 探测确认是可解码音频再入存储
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	tmp, err := os.CreateTemp("", "audio-*"+ext)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	info, err := util.GetAudioInfo(tmp.Name())
	if err != nil {
		logger.Log.Warn("audio.probe_failed", zap.Error(err), zap.String("filename", fileHeader.Filename))
		util.BadRequest(ctx, util.ErrInvalidAudioType.Error())
		return
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	sessionID := util.MustParseUint(ctx.Param("id"))
	filename := fmt.Sprintf("sessions/%d/%s_%s%s", sessionID, audioType, uuid.New().String(), ext)
	if _, err := c.StorageService.Upload(ctx.Request.Context(), filename, tmp, fileHeader.Size, mimeType); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	if err := c.OfflineService.AttachAudio(actor, sessionID, audioType, filename); err != nil {
		// 课次校验失败时清掉刚传的文件，避免孤儿对象
		_ = c.StorageService.Delete(ctx.Request.Context(), filename)
		switch {
		case errors.Is(err, util.ErrSessionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		case errors.Is(err, util.ErrOfflineNotApproved):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	// 下载链接签发失败不影响上传结果，客户端可稍后重取
	audioURL, err := c.StorageService.GetURL(ctx.Request.Context(), filename)
	if err != nil {
		logger.Log.Warn("offline.audio_url_unavailable", zap.Error(err), zap.String("path", filename))
	}

	util.Success(ctx, gin.H{
		"path":     filename,
		"url":      audioURL,
		"duration": info.Duration,
		"format":   info.Format,
	})
}

// ListPendingRequests godoc
// @Summary 待审批的线下转换申请（管理员）
// @Tags 线下转换
// @Produce json
// @Security ApiKeyAuth
// @Param   page query int false "页码，默认1"
// @Param   limit query int false "每页数量，默认20"
// @Success 200 {object} util.Response{data=object}
// @Failure 403 {object} util.Response "需要管理员权限"
// @Router /api/admin/offline-requests [get]
func (c *OfflineController) ListPendingRequests(ctx *gin.Context) {
	page := util.MustParseUint(ctx.DefaultQuery("page", "1"))
	limit := util.MustParseUint(ctx.DefaultQuery("limit", "20"))
	if page == 0 {
		page = 1
	}
	if limit == 0 || limit > 100 {
		limit = 20
	}

	sessions, total, err := c.SessionRepo.ListPendingOffline(int(page), int(limit))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"requests": sessions,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// ApproveRequest godoc
// @Summary 批准线下转换申请（管理员）
// @Tags 线下转换
// @Produce json
// @Security ApiKeyAuth
// @Param   id path int true "课次ID"
// @Success 200 {object} util.Response{data=service.OfflineConversionResult} "已批准"
// @Failure 400 {object} util.Response "申请不在待审批状态"
// @Failure 404 {object} util.Response "课次不存在"
// @Router /api/admin/offline-requests/{id}/approve [post]
func (c *OfflineController) ApproveRequest(ctx *gin.Context) {
	result, err := c.OfflineService.Approve(ctx.Request.Context(), util.MustParseUint(ctx.Param("id")))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSessionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrOfflineRequestNotPending),
			errors.Is(err, util.ErrSessionNotScheduled):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// RejectRequest godoc
// @Summary 拒绝线下转换申请（管理员）
// @Tags 线下转换
// @Produce json
// @Security ApiKeyAuth
// @Param   id path int true "课次ID"
// @Success 200 {object} util.Response "已拒绝"
// @Failure 400 {object} util.Response "申请不在待审批状态"
// @Failure 404 {object} util.Response "课次不存在"
// @Router /api/admin/offline-requests/{id}/reject [post]
func (c *OfflineController) RejectRequest(ctx *gin.Context) {
	err := c.OfflineService.Reject(ctx.Request.Context(), util.MustParseUint(ctx.Param("id")))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSessionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrOfflineRequestNotPending):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"status": "rejected"})
}
