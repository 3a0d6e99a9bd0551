package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/c14220110/rekap-billing/internal/common/middlewares"
	"github.com/c14220110/rekap-billing/internal/laporan/models"
	"github.com/c14220110/rekap-billing/internal/laporan/services"
)

// maxMatchSetSize membatasi ukuran file match-set yang diunggah (10 MB).
const maxMatchSetSize = 10 << 20

// LaporanController menangani endpoint laporan rawat jalan dan rawat inap.
type LaporanController struct {
	Service *services.LaporanService
	Log     *zap.Logger
}

func NewLaporanController(service *services.LaporanService, log *zap.Logger) *LaporanController {
	if log == nil {
		log = zap.NewNop()
	}
	return &LaporanController{Service: service, Log: log}
}

func respond(c echo.Context, code int, message string, data interface{}) error {
	return c.JSON(code, map[string]interface{}{
		"status":  code,
		"message": message,
		"data":    data,
	})
}

// statusFor memetakan error domain ke kode HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrMatchSetNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrMalformedMatchSet):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrFetchFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (lc *LaporanController) fail(c echo.Context, err error) error {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		lc.Log.Error("request laporan gagal",
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err))
	}
	var detail interface{}
	var inv *models.InvalidFilterError
	var mal *models.MalformedMatchSetError
	switch {
	case errors.As(err, &inv):
		detail = map[string]interface{}{"field": inv.Field}
	case errors.As(err, &mal):
		detail = map[string]interface{}{"row": mal.Row, "column": mal.Column}
	}
	return respond(c, code, err.Error(), detail)
}

func (lc *LaporanController) params(c echo.Context, jr models.JenisRawat) (models.FilterParams, error) {
	var p models.FilterParams
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &p); err != nil {
		return p, &models.InvalidFilterError{Field: "query", Reason: err.Error()}
	}
	p.JenisRawat = jr
	return p, nil
}

// ListKunjungan handles GET /api/laporan/{ralan|ranap}/kunjungan
func (lc *LaporanController) ListKunjungan(jr models.JenisRawat) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := lc.params(c, jr)
		if err != nil {
			return lc.fail(c, err)
		}
		list, err := lc.Service.ListVisits(c.Request().Context(), p)
		if err != nil {
			return lc.fail(c, err)
		}
		return respond(c, http.StatusOK, "Data kunjungan berhasil diambil", list)
	}
}

// Rekap handles GET /api/laporan/{ralan|ranap}/rekap
func (lc *LaporanController) Rekap(jr models.JenisRawat) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := lc.params(c, jr)
		if err != nil {
			return lc.fail(c, err)
		}
		r, err := lc.Service.Summary(c.Request().Context(), p)
		if err != nil {
			return lc.fail(c, err)
		}
		return respond(c, http.StatusOK, "Rekap berhasil dihitung", r)
	}
}

// RekapDetail handles GET /api/laporan/{ralan|ranap}/rekap/detail
func (lc *LaporanController) RekapDetail(jr models.JenisRawat) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := lc.params(c, jr)
		if err != nil {
			return lc.fail(c, err)
		}
		r, err := lc.Service.Detail(c.Request().Context(), p)
		if err != nil {
			return lc.fail(c, err)
		}
		return respond(c, http.StatusOK, "Rekap rinci berhasil dihitung", r)
	}
}

// UploadMatchSet handles POST /api/laporan/matchset (multipart, field "file")
func (lc *LaporanController) UploadMatchSet(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return respond(c, http.StatusBadRequest, "file match-set wajib diisi", nil)
	}
	if fh.Size > maxMatchSetSize {
		return respond(c, http.StatusRequestEntityTooLarge, "file match-set terlalu besar", nil)
	}
	src, err := fh.Open()
	if err != nil {
		return respond(c, http.StatusBadRequest, "gagal membuka file: "+err.Error(), nil)
	}
	defer src.Close()

	content, err := io.ReadAll(io.LimitReader(src, maxMatchSetSize+1))
	if err != nil {
		return respond(c, http.StatusBadRequest, "gagal membaca file: "+err.Error(), nil)
	}

	name, count, err := lc.Service.UploadMatchSet(c.Request().Context(), fh.Filename, content)
	if err != nil {
		return lc.fail(c, err)
	}
	if claims := middlewares.ClaimsFrom(c); claims != nil {
		lc.Log.Info("match-set diunggah oleh", zap.String("username", claims.Username), zap.String("match_set", name))
	}
	return respond(c, http.StatusCreated, "Match-set berhasil diunggah", map[string]interface{}{
		"filename":   name,
		"jumlah_sep": count,
	})
}
