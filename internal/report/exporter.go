package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"wisefido-cardiac/internal/models"
)

// 工作表名称
const (
	SheetDecisions = "Decisions"
	SheetAnalyses  = "Analyses"
	SheetAlarms    = "Alarms"
)

// DecisionsHeader 心率决策表头
var DecisionsHeader = []string{
	"Time",
	"Heart Rate (BPM)",
	"Activity",
	"SMA (m/s²)",
	"In Cooldown",
	"Alert",
	"Reason",
	"Status",
}

// AnalysesHeader 节律分析表头
var AnalysesHeader = []string{
	"Time",
	"Result",
	"Conditions",
	"Critical",
	"Reason",
}

// AlarmsHeader 报警事件表头
var AlarmsHeader = []string{
	"Triggered At",
	"Event Type",
	"Level",
	"Category",
	"Status",
	"Event ID",
}

var (
	decisionsWidths = []float64{22, 16, 20, 12, 12, 8, 45, 35}
	analysesWidths  = []float64{22, 12, 50, 10, 35}
	alarmsWidths    = []float64{22, 14, 16, 12, 14, 38}
)

// Exporter 将设备结果时间线导出为 xlsx
type Exporter struct {
	location *time.Location
}

// NewExporter 创建导出器；loc 为 nil 时使用 UTC
func NewExporter(loc *time.Location) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	return &Exporter{location: loc}
}

// Export 写出工作簿：Decisions、Analyses 两张表，alarms 非空时追加 Alarms 表
func (e *Exporter) Export(w io.Writer, timeline *Timeline, alarms []*models.AlarmEvent) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := newHeaderStyle(f)
	if err != nil {
		return err
	}

	decisionRows := make([][]any, 0, len(timeline.Decisions))
	for _, d := range timeline.Decisions {
		decisionRows = append(decisionRows, []any{
			e.formatMillis(d.Timestamp),
			d.HeartRate,
			d.ActivityState.String(),
			d.SMAValue,
			yesNo(d.InCooldown),
			yesNo(d.ShouldAlert),
			d.Reason(),
			d.StatusText,
		})
	}
	if err := writeSheet(f, SheetDecisions, DecisionsHeader, decisionsWidths, decisionRows, headerStyle); err != nil {
		return err
	}

	// 删除默认的 Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to delete default sheet: %w", err)
	}
	index, err := f.GetSheetIndex(SheetDecisions)
	if err != nil {
		return fmt.Errorf("failed to locate sheet %s: %w", SheetDecisions, err)
	}
	f.SetActiveSheet(index)

	analysisRows := make([][]any, 0, len(timeline.Analyses))
	for _, a := range timeline.Analyses {
		analysisRows = append(analysisRows, []any{
			e.formatMillis(a.Timestamp),
			a.Kind,
			strings.Join(a.Conditions, ", "),
			yesNo(a.IsCritical),
			a.Reason,
		})
	}
	if err := writeSheet(f, SheetAnalyses, AnalysesHeader, analysesWidths, analysisRows, headerStyle); err != nil {
		return err
	}

	if len(alarms) > 0 {
		alarmRows := make([][]any, 0, len(alarms))
		for _, a := range alarms {
			alarmRows = append(alarmRows, []any{
				a.TriggeredAt.In(e.location).Format(time.DateTime),
				a.EventType,
				a.AlarmLevel,
				a.Category,
				a.AlarmStatus,
				a.EventID,
			})
		}
		if err := writeSheet(f, SheetAlarms, AlarmsHeader, alarmsWidths, alarmRows, headerStyle); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (e *Exporter) formatMillis(ms int64) string {
	return time.UnixMilli(ms).In(e.location).Format("2006-01-02 15:04:05.000")
}

func newHeaderStyle(f *excelize.File) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create header style: %w", err)
	}
	return style, nil
}

// writeSheet 创建工作表并写入表头和数据行
func writeSheet(f *excelize.File, name string, headers []string, widths []float64, rows [][]any, headerStyle int) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(name, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(name, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for i, width := range widths {
		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(name, colName, colName, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for rowIdx, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, rowIdx+2) // 第1行是表头
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", rowIdx+2, err)
		}
	}

	// 冻结表头
	if err := f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	return nil
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
