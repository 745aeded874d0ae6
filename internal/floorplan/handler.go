package floorplan

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dinefloor/backend/internal/realtime"
	"github.com/dinefloor/backend/pkg/response"
	"github.com/dinefloor/backend/pkg/storage"
)

// Handler maps the layout service operations to HTTP endpoints and broadcasts
// layout change events to the floor-plan feed after mutations.
type Handler struct {
	svc    *Service
	hub    *realtime.Hub
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates a floor-plan handler. hub and s3 may be nil.
func NewHandler(svc *Service, hub *realtime.Hub, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, hub: hub, s3: s3, logger: logger}
}

// Overview handles GET /layout/overview.
func (h *Handler) Overview(c *gin.Context) {
	overview, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		h.respondErr(c, err)
		return
	}
	response.OK(c, overview)
}

// CreateRoom handles POST /rooms.
func (h *Handler) CreateRoom(c *gin.Context) {
	var req RoomInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	room, err := h.svc.SaveRoom(c.Request.Context(), req, nil)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	h.broadcast("room_saved", room)
	response.Created(c, room)
}

// UpdateRoom handles PUT /rooms/:id.
func (h *Handler) UpdateRoom(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req RoomInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	room, err := h.svc.SaveRoom(c.Request.Context(), req, &id)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	h.broadcast("room_saved", room)
	response.OK(c, room)
}

// DeleteRoom handles DELETE /rooms/:id.
func (h *Handler) DeleteRoom(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteRoom(c.Request.Context(), id); err != nil {
		h.respondErr(c, err)
		return
	}
	h.broadcast("room_deleted", gin.H{"id": id})
	response.NoContent(c)
}

// CreateTable handles POST /tables.
func (h *Handler) CreateTable(c *gin.Context) {
	var req TableInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	table, err := h.svc.SaveTable(c.Request.Context(), req, nil)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	h.broadcast("table_saved", table)
	response.Created(c, table)
}

// UpdateTable handles PUT /tables/:id.
func (h *Handler) UpdateTable(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req TableInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	table, err := h.svc.SaveTable(c.Request.Context(), req, &id)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	h.broadcast("table_saved", table)
	response.OK(c, table)
}

// DeleteTable handles DELETE /tables/:id.
func (h *Handler) DeleteTable(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteTable(c.Request.Context(), id); err != nil {
		h.respondErr(c, err)
		return
	}
	h.broadcast("table_deleted", gin.H{"id": id})
	response.NoContent(c)
}

// BulkCreateTables handles POST /tables/bulk.
func (h *Handler) BulkCreateTables(c *gin.Context) {
	var req BulkCreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	result, err := h.svc.CreateTablesBulk(c.Request.Context(), req)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	h.broadcast("tables_bulk_created", gin.H{"room_id": req.RoomID, "created": len(result.Created)})
	response.Created(c, result)
}

// UpdatePositions handles PUT /tables/positions.
func (h *Handler) UpdatePositions(c *gin.Context) {
	var req struct {
		Positions []PositionUpdate `json:"positions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	applied, err := h.svc.UpdatePositions(c.Request.Context(), req.Positions)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	h.broadcast("positions_updated", gin.H{"applied": applied})
	response.OK(c, gin.H{"applied": applied})
}

// MergeTables handles POST /tables/merge.
func (h *Handler) MergeTables(c *gin.Context) {
	var req struct {
		TableIDs []int64 `json:"table_ids"`
		Code     string  `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	group, err := h.svc.MergeTables(c.Request.Context(), req.TableIDs, req.Code)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	h.broadcast("tables_merged", group)
	response.OK(c, group)
}

// SplitTables handles POST /tables/split.
func (h *Handler) SplitTables(c *gin.Context) {
	var req struct {
		TableIDs []int64 `json:"table_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.svc.SplitTables(c.Request.Context(), req.TableIDs); err != nil {
		h.respondErr(c, err)
		return
	}
	h.broadcast("tables_split", gin.H{"table_ids": req.TableIDs})
	response.OK(c, gin.H{"table_ids": req.TableIDs})
}

// Suggest handles POST /layout/suggest.
func (h *Handler) Suggest(c *gin.Context) {
	var req SuggestCriteria
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	result, err := h.svc.Suggest(c.Request.Context(), req)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	response.OK(c, result)
}

// UploadBackground handles POST /rooms/:id/background (multipart image).
func (h *Handler) UploadBackground(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "image storage not configured")
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	file, err := c.FormFile("image")
	if err != nil {
		response.BadRequest(c, "image file required")
		return
	}
	if file.Size > storage.MaxBackgroundFileSize {
		response.BadRequest(c, "image exceeds 10MB limit")
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !storage.ValidateImageFileType(contentType, file.Filename) {
		response.BadRequest(c, "unsupported image type")
		return
	}
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(file.Filename)
	}

	src, err := file.Open()
	if err != nil {
		response.Internal(c, "failed to read upload")
		return
	}
	defer src.Close()

	key := storage.BackgroundKey(strconv.FormatInt(id, 10), file.Filename)
	url, err := h.s3.Upload(c.Request.Context(), key, contentType, src, file.Size)
	if err != nil {
		h.logger.Error("background upload failed", zap.Error(err))
		response.Internal(c, "failed to upload image")
		return
	}
	if err := h.svc.SetRoomBackground(c.Request.Context(), id, key); err != nil {
		h.respondErr(c, err)
		return
	}
	h.broadcast("room_background_updated", gin.H{"room_id": id, "key": key})
	response.OK(c, gin.H{"room_id": id, "key": key, "url": url})
}

// BackgroundURL handles GET /rooms/:id/background-url.
func (h *Handler) BackgroundURL(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "image storage not configured")
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	room, err := h.svc.Room(c.Request.Context(), id)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	if room.BackgroundKey == "" {
		response.NotFound(c, "room has no background image")
		return
	}
	url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), room.BackgroundKey, h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign background url failed", zap.Error(err))
		response.Internal(c, "failed to generate download url")
		return
	}
	response.OK(c, gin.H{"room_id": id, "url": url})
}

func (h *Handler) broadcast(event string, payload interface{}) {
	if h.hub != nil {
		h.hub.Broadcast(event, payload)
	}
}

func (h *Handler) respondErr(c *gin.Context, err error) {
	switch {
	case IsValidation(err):
		response.BadRequest(c, err.Error())
	case IsNotFound(err):
		response.NotFound(c, err.Error())
	default:
		h.logger.Error("layout operation failed", zap.Error(err))
		response.Internal(c, "internal error")
	}
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}
