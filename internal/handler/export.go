package handler

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/library-seat-booking/internal/repository"
)

// Export handles GET /v1/admin/export?type=payments|bookings and streams a
// CSV attachment named <type>-YYYY-MM-DD.csv.
func (h *AdminHandler) Export(c echo.Context) error {
	typ := c.QueryParam("type")
	if typ != "payments" && typ != "bookings" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid type"})
	}

	ctx := c.Request().Context()
	var write func(io.Writer) error
	switch typ {
	case "payments":
		rows, err := h.Views.ListPaymentsForExport(ctx)
		if err != nil {
			h.Log.Error("export payments failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "details": "export failed"})
		}
		write = func(w io.Writer) error { return writePaymentsCSV(w, rows) }
	case "bookings":
		rows, err := h.Views.ListAll(ctx)
		if err != nil {
			h.Log.Error("export bookings failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "details": "export failed"})
		}
		write = func(w io.Writer) error { return writeBookingsCSV(w, rows) }
	}

	filename := fmt.Sprintf("%s-%s.csv", typ, h.now().Format("2006-01-02"))
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	res.WriteHeader(http.StatusOK)
	if err := write(res); err != nil {
		// headers are out; all that is left is to log
		h.Log.Error("export write failed", zap.String("type", typ), zap.Error(err))
	}
	return nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func writePaymentsCSV(w io.Writer, rows []repository.PaymentExportRow) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"ID", "Name", "Email", "Phone", "Amount", "Seat", "Status", "Date"})
	for _, p := range rows {
		_ = cw.Write([]string{
			strconv.FormatUint(p.ID, 10),
			p.FullName,
			p.Email,
			p.Phone,
			strconv.FormatUint(uint64(p.Amount), 10),
			orNA(p.SeatNumber),
			string(p.Status),
			p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
	return cw.Error()
}

func writeBookingsCSV(w io.Writer, rows []repository.AdminBooking) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"ID", "Name", "Email", "Phone", "Seat", "Status", "Start Date", "End Date", "Amount", "Created At"})
	for _, b := range rows {
		_ = cw.Write([]string{
			strconv.FormatUint(b.ID, 10),
			b.FullName,
			b.Email,
			b.Phone,
			orNA(b.SeatNumber),
			string(b.Status),
			b.StartDate.UTC().Format(time.RFC3339),
			b.EndDate.UTC().Format(time.RFC3339),
			strconv.FormatUint(uint64(b.Amount), 10),
			b.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
	return cw.Error()
}
