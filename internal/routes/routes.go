package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/c14220110/rekap-billing/internal/common/middlewares"
	"github.com/c14220110/rekap-billing/internal/laporan/controllers"
	"github.com/c14220110/rekap-billing/internal/laporan/models"
	"github.com/c14220110/rekap-billing/ws"
)

// Init menginisialisasi semua routes menggunakan Echo framework
func Init(e *echo.Echo, lc *controllers.LaporanController, hub *ws.Hub, jwtSecret string) {
	auth := middlewares.JWTMiddleware(jwtSecret)

	api := e.Group("/api")
	laporan := api.Group("/laporan", auth)

	// **Grup Rawat Jalan / Rawat Inap**
	for path, jr := range map[string]models.JenisRawat{"/ralan": models.Ralan, "/ranap": models.Ranap} {
		g := laporan.Group(path)
		g.GET("/kunjungan", lc.ListKunjungan(jr))
		g.GET("/rekap", lc.Rekap(jr))
		g.GET("/rekap/detail", lc.RekapDetail(jr))
	}

	laporan.POST("/matchset", lc.UploadMatchSet)

	if hub != nil {
		e.GET("/ws", ws.ServeWS(hub), auth)
	}
}
