package summary

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/summary"
	"github.com/xuri/excelize/v2"
)

const (
	registerSheet = "Register"
	dailySheet    = "Daily"
)

var registerHeader = []interface{}{
	"Employee Code", "Employee Name", "Total Days", "Holidays", "Working Days",
	"Present Value", "Present", "Late", "Regularized", "Half Days",
	"Leaves", "Unpaid Leaves", "LOP", "Pending",
}

// statusCodes are the single-cell markers of the daily grid.
var statusCodes = map[attendance.Status]string{
	attendance.StatusPresent:     "P",
	attendance.StatusLate:        "L",
	attendance.StatusHalfDay:     "HD",
	attendance.StatusAbsent:      "A",
	attendance.StatusLeave:       "LV",
	attendance.StatusHoliday:     "H",
	attendance.StatusRegularized: "R",
}

// ExportRegister implements summary.SummaryService.
func (s *SummaryServiceImpl) ExportRegister(ctx context.Context, companyID string, req summary.MonthRequest, w io.Writer) error {
	reg, err := s.Register(ctx, companyID, req)
	if err != nil {
		return err
	}

	f, err := buildRegisterWorkbook(reg)
	if err != nil {
		return fmt.Errorf("failed to build register workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.WarnContext(ctx, "failed to close register workbook", "error", err)
		}
	}()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write register workbook: %w", err)
	}
	return nil
}

func buildRegisterWorkbook(reg summary.RegisterResponse) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", registerSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(dailySheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	if err := writeRow(f, registerSheet, 1, registerHeader); err != nil {
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(registerHeader))
	if err := f.SetCellStyle(registerSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, err
	}

	for i, row := range reg.Rows {
		ms := row.Summary
		values := []interface{}{
			row.EmployeeCode, row.EmployeeName, ms.TotalDays, ms.TotalHolidays, ms.WorkingDays,
			ms.TotalPresentValue, ms.PresentDays, ms.LateDays, ms.RegularizedDays, ms.TotalHalfDaysCount,
			ms.TotalLeaves, ms.UnpaidLeaves, ms.TotalLOP, ms.PendingDays,
		}
		if err := writeRow(f, registerSheet, i+2, values); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(registerSheet, "B", "B", 28); err != nil {
		return nil, err
	}

	first := time.Date(reg.Year, time.Month(reg.Month), 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	dailyHeader := []interface{}{"Employee Code", "Employee Name"}
	for d := 1; d <= daysInMonth; d++ {
		dailyHeader = append(dailyHeader, d)
	}
	if err := writeRow(f, dailySheet, 1, dailyHeader); err != nil {
		return nil, err
	}
	lastCol, _ = excelize.ColumnNumberToName(len(dailyHeader))
	if err := f.SetCellStyle(dailySheet, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, err
	}

	for i, row := range reg.Rows {
		values := []interface{}{row.EmployeeCode, row.EmployeeName}
		for _, day := range row.Summary.Days {
			values = append(values, statusCodes[day.Status])
		}
		if err := writeRow(f, dailySheet, i+2, values); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
