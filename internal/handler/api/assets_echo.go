package api

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Pulkit320/market-scope/internal/domain/models"
	"github.com/Pulkit320/market-scope/internal/services/export"
	xhttp "github.com/Pulkit320/market-scope/pkg/http"
	xlogger "github.com/Pulkit320/market-scope/pkg/logger"
)

// AssetsEchoHandler serves the exported document. The file is re-read on every request,
// so a fresh export is visible without a restart.
type AssetsEchoHandler struct {
	logger *xlogger.Logger
	path   string
}

func NewAssetsEchoHandler(logger *xlogger.Logger, path string) *AssetsEchoHandler {
	return &AssetsEchoHandler{logger: logger, path: path}
}

func (h *AssetsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/market_data.json", h.Document)

	g := e.Group("/api")
	g.GET("/assets", h.List)
	g.GET("/assets/:id", h.Get)
	g.GET("/assets/:id/history", h.History)
}

// Document serves the export file byte for byte.
func (h *AssetsEchoHandler) Document(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	return c.File(h.path)
}

func (h *AssetsEchoHandler) List(c echo.Context) error {
	records, err := h.read()
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, records, int64(len(records)))
}

func (h *AssetsEchoHandler) Get(c echo.Context) error {
	req := &models.AssetRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rec, err := h.find(req.ID)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, rec)
}

func (h *AssetsEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rec, err := h.find(req.ID)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	points := rec.History
	if len(points) > req.Days {
		points = points[len(points)-req.Days:]
	}
	return xhttp.ListResponse(c, points, int64(len(points)))
}

func (h *AssetsEchoHandler) find(id string) (export.RecordDTO, error) {
	records, err := h.read()
	if err != nil {
		return export.RecordDTO{}, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return export.RecordDTO{}, xhttp.NotFoundErrorf("asset '%s' not found", id)
}

func (h *AssetsEchoHandler) read() ([]export.RecordDTO, error) {
	records, err := export.ReadDocument(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, xhttp.NewAppError("ERR_NOT_READY", "", "export has not been written yet", http.StatusServiceUnavailable).WithError(err)
	}
	if err != nil {
		h.logger.Error("read export document", xlogger.String("path", h.path), xlogger.Error(err))
		return nil, xhttp.InternalError("export document unreadable").WithError(err)
	}
	return records, nil
}
