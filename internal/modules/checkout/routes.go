package checkout

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	co := rg.Group("/checkout")
	{
		co.GET("/bookings", h.ListBookings)
		co.GET("/bookings/:bookingId/attempts", h.ListAttempts)
		co.GET("/services", h.ListServices)

		co.GET("/session", h.GetSession)
		co.POST("/session", h.OpenPanel)
		co.DELETE("/session", h.ClosePanel)
		co.PUT("/session/time", h.ChangeTime)
		co.PUT("/session/penalty", h.SetPenalty)
		co.POST("/session/services", h.AddService)
		co.DELETE("/session/services/:serviceId", h.RemoveService)

		co.POST("/session/invoice", h.OpenInvoice)
		co.DELETE("/session/invoice", h.CloseInvoice)
		co.GET("/session/invoice", h.GetInvoice)
		co.GET("/session/invoice.pdf", h.GetInvoicePDF)
		co.POST("/session/submit", h.Submit)
	}
}
