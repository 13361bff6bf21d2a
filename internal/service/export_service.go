package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/AcMongue/gestion-pfe-sub000/config"
	"github.com/AcMongue/gestion-pfe-sub000/internal/dto"
	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
	"github.com/AcMongue/gestion-pfe-sub000/internal/repository"
)

// ── export errors ──

var (
	ErrExportInvalidRange = errors.New("date_from must not be after date_to")
	ErrExportRangeTooLong = errors.New("the export range cannot exceed one year")
	ErrExportGenerateFail = errors.New("failed to generate the export file")
)

const maxExportDays = 366

// ExportService defense planning exports. Both formats are returned as
// buffers; the handler sets the download headers.
type ExportService interface {
	ExportPlanning(ctx context.Context, req *dto.ExportPlanningRequest) (*bytes.Buffer, string, error)
	ExportCalendar(ctx context.Context, req *dto.ExportPlanningRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	cfg    *config.DefenseConfig
	logger *zap.Logger
}

// NewExportService creates an ExportService.
func NewExportService(repo *repository.Repository, cfg *config.DefenseConfig, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, cfg: cfg, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportPlanning: one sheet, one row per defense
// ═══════════════════════════════════════════════════════════

var planningHeader = []string{
	"Date", "Start", "End", "Room", "Department", "Student", "Project",
	"President", "Rapporteurs", "Examiners", "Status", "Final grade",
}

func (s *exportService) ExportPlanning(ctx context.Context, req *dto.ExportPlanningRequest) (*bytes.Buffer, string, error) {
	from, to, defenses, err := s.load(ctx, req)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Planning"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	widths := []float64{12, 8, 8, 14, 12, 24, 40, 24, 36, 36, 14, 12}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// title row
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("Defense planning %s to %s", model.FormatDate(from), model.FormatDate(to)))
	f.MergeCell(sheetName, "A1", cell(colName(len(planningHeader)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	row := 2
	for i, h := range planningHeader {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(planningHeader)-1), row), headerStyle)

	for i := range defenses {
		row++
		for c, v := range planningRow(&defenses[i]) {
			f.SetCellValue(sheetName, cell(colName(c), row), v)
		}
	}
	if len(defenses) == 0 {
		f.SetCellValue(sheetName, cell("A", row+1), "no defense in this period")
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write planning workbook failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("defenses_%s_%s.xlsx", model.FormatDate(from), model.FormatDate(to))
	return buf, filename, nil
}

func planningRow(d *model.Defense) []interface{} {
	var president string
	var rapporteurs, examiners []string
	for i := range d.JuryMembers {
		m := &d.JuryMembers[i]
		switch m.Role {
		case model.JuryPresident:
			president = m.TeacherName()
		case model.JuryRapporteur:
			rapporteurs = append(rapporteurs, m.TeacherName())
		case model.JuryExaminer:
			examiners = append(examiners, m.TeacherName())
		}
	}

	var dept, student, project string
	if p := d.Project; p != nil {
		dept = p.DepartmentCode()
		project = p.Title
		if p.Student != nil {
			student = p.Student.Name
		}
	}
	grade := "-"
	if g := gradeString(d.FinalGrade); g != nil {
		grade = *g
	}

	return []interface{}{
		model.FormatDate(d.Date), d.StartTime, d.EndTime(), d.RoomName(), dept, student, project,
		president, strings.Join(rapporteurs, ", "), strings.Join(examiners, ", "), string(d.Status), grade,
	}
}

// ═══════════════════════════════════════════════════════════
// ExportCalendar: one VEVENT per defense
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportCalendar(ctx context.Context, req *dto.ExportPlanningRequest) (*bytes.Buffer, string, error) {
	from, to, defenses, err := s.load(ctx, req)
	if err != nil {
		return nil, "", err
	}
	loc := s.cfg.Location()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//pfe-defense//planning//EN")
	cal.SetXWRCalName("PFE defenses")
	cal.SetXWRTimezone(loc.String())

	stamp := time.Now().UTC()
	for i := range defenses {
		d := &defenses[i]
		slot, err := d.Slot()
		if err != nil {
			s.logger.Warn("skip defense with invalid slot", zap.String("id", d.DefenseID), zap.Error(err))
			continue
		}

		evt := cal.AddEvent(d.DefenseID + "@pfe-defense")
		evt.SetDtStampTime(stamp)
		evt.SetStartAt(inLocation(slot.StartsAt(), loc))
		evt.SetEndAt(inLocation(slot.EndsAt(), loc))
		evt.SetSummary(calendarSummary(d))
		if room := d.RoomName(); room != "" {
			evt.SetLocation(room)
		}
		evt.SetDescription(calendarDescription(d))
		if d.Status == model.DefenseCancelled {
			evt.SetStatus(ics.ObjectStatusCancelled)
		} else {
			evt.SetStatus(ics.ObjectStatusConfirmed)
		}
		for j := range d.JuryMembers {
			if t := d.JuryMembers[j].Teacher; t != nil && t.Email != "" {
				evt.AddAttendee(t.Email)
			}
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("defenses_%s_%s.ics", model.FormatDate(from), model.FormatDate(to))
	return buf, filename, nil
}

// inLocation reads a naive wall-clock value as a time in loc.
func inLocation(naive time.Time, loc *time.Location) time.Time {
	return time.Date(naive.Year(), naive.Month(), naive.Day(), naive.Hour(), naive.Minute(), 0, 0, loc)
}

func calendarSummary(d *model.Defense) string {
	if d.Project == nil {
		return "PFE defense"
	}
	if d.Project.Student != nil {
		return fmt.Sprintf("PFE defense: %s (%s)", d.Project.Title, d.Project.Student.Name)
	}
	return "PFE defense: " + d.Project.Title
}

func calendarDescription(d *model.Defense) string {
	var b strings.Builder
	if d.Project != nil {
		fmt.Fprintf(&b, "Department: %s\n", d.Project.DepartmentCode())
	}
	for i := range d.JuryMembers {
		m := &d.JuryMembers[i]
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.TeacherName())
	}
	if d.Status == model.DefenseCancelled && d.CancellationReason != "" {
		fmt.Fprintf(&b, "Cancelled: %s\n", d.CancellationReason)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ── helpers ──

func (s *exportService) load(ctx context.Context, req *dto.ExportPlanningRequest) (time.Time, time.Time, []model.Defense, error) {
	from, err := model.ParseDate(req.DateFrom)
	if err != nil {
		return time.Time{}, time.Time{}, nil, err
	}
	to, err := model.ParseDate(req.DateTo)
	if err != nil {
		return time.Time{}, time.Time{}, nil, err
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, nil, ErrExportInvalidRange
	}
	if to.Sub(from) > maxExportDays*24*time.Hour {
		return time.Time{}, time.Time{}, nil, ErrExportRangeTooLong
	}

	defenses, _, err := s.repo.Defense.List(ctx, repository.DefenseFilter{
		From:         &from,
		To:           &to,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		s.logger.Error("list defenses for export failed", zap.Error(err))
		return time.Time{}, time.Time{}, nil, err
	}
	return from, to, defenses, nil
}

// colName converts a 0-based column index to its letter.
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
