// Package report renders the weekly production report as an XLSX workbook.
package report

import (
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"bal-board/internal/hr"
	"bal-board/internal/metrics"
	"bal-board/internal/model"
)

const (
	SheetSummary  = "Synthese"
	SheetMachines = "Machines"
	SheetStaffing = "Effectifs"
	SheetInterim  = "Interim"
)

type Weekly struct {
	Label     string
	Kind      string
	Generated time.Time
	Summary   metrics.Summary
	Machines  []metrics.MachineDetail
	Roles     hr.RoleBreakdown
	Precise   hr.PreciseEstimate
	Interim   hr.InterimReport
}

// WriteWeekly writes the report workbook to w.
func WriteWeekly(w io.Writer, r Weekly) error {
	f := xlsx.NewFile()
	for _, build := range []struct {
		name string
		fill func(*xlsx.Sheet, Weekly)
	}{
		{SheetSummary, summarySheet},
		{SheetMachines, machinesSheet},
		{SheetStaffing, staffingSheet},
		{SheetInterim, interimSheet},
	} {
		sheet, err := f.AddSheet(build.name)
		if err != nil {
			return eris.Wrapf(err, "xlsx: add sheet %s", build.name)
		}
		build.fill(sheet, r)
	}
	return eris.Wrap(f.Write(w), "xlsx: write report")
}

func addRow(sheet *xlsx.Sheet, values ...any) {
	row := sheet.AddRow()
	for _, v := range values {
		cell := row.AddCell()
		switch x := v.(type) {
		case string:
			cell.SetString(x)
		case int:
			cell.SetInt(x)
		case float64:
			cell.SetFloatWithFormat(x, "0.00")
		default:
			cell.SetValue(x)
		}
	}
}

func summarySheet(sheet *xlsx.Sheet, r Weekly) {
	addRow(sheet, "Semaine", r.Label)
	addRow(sheet, "Contexte", r.Kind)
	addRow(sheet, "Genere le", r.Generated.Format("02/01/2006 15:04"))
	addRow(sheet, "")
	addRow(sheet, "Objectif BAL", r.Summary.TotalTargetBal)
	addRow(sheet, "BAL produits", r.Summary.TotalProducedBal)
	addRow(sheet, "Avancement %", r.Summary.ProgressPercent)
	addRow(sheet, "")
	addRow(sheet, "Equipe", "BAL", "Cadence moy.", "Heures", "Ecart (h)")
	for _, t := range []struct {
		team model.Team
		m    metrics.TeamMetrics
	}{
		{model.TeamMatin, r.Summary.Matin},
		{model.TeamSoir, r.Summary.Soir},
	} {
		addRow(sheet, string(t.team), t.m.ProducedBal, t.m.AvgCadence, t.m.Hours, t.m.GapHours)
	}
}

func machinesSheet(sheet *xlsx.Sheet, r Weekly) {
	header := []any{"Machine", "Equipe"}
	for _, d := range r.Summary.Days {
		header = append(header, d)
	}
	header = append(header, "Total BAL", "Heures", "Ecart (h)", "Objectif", "Avancement %")
	addRow(sheet, header...)

	for _, m := range r.Machines {
		for _, line := range []struct {
			team  string
			cells []metrics.Cell
			total metrics.Total
		}{
			{string(model.TeamMatin), m.MatinDays, m.MatinTotal},
			{string(model.TeamSoir), m.SoirDays, m.SoirTotal},
			{"TOTAL", m.TotalDays, m.GrandTotal},
		} {
			row := []any{m.Label, line.team}
			for _, c := range line.cells {
				row = append(row, c.Bal)
			}
			row = append(row, line.total.Bal, line.total.Hours, line.total.Gap)
			if line.team == "TOTAL" {
				row = append(row, m.TargetBal, m.ProgressBal)
			}
			addRow(sheet, row...)
		}
	}
}

func staffingSheet(sheet *xlsx.Sheet, r Weekly) {
	addRow(sheet, "Machine", "BAL", "Cadence", "Heures", "Effectif", "Heures-homme")
	for _, row := range r.Precise.Rows {
		addRow(sheet, row.Label, row.Bal, row.Cadence, row.Hours, row.Staff, row.ManHours)
	}
	addRow(sheet, "Total", "", "", r.Precise.MaxShiftDuration, "", r.Precise.TotalManHours)
	addRow(sheet, "Capacite salariee", r.Precise.SalaryCapacity)
	addRow(sheet, "Besoin interim (h)", r.Precise.InterimHours)
	addRow(sheet, "Interimaires estimes", r.Precise.InterimStaffEstimate)
	addRow(sheet, "")
	addRow(sheet, "Poste", "Salaries", "Heures salaries", "Interimaires", "Heures interim", "Part interim %")
	for _, s := range r.Roles.Roles {
		addRow(sheet, string(s.Role), len(s.SalariedNames), s.SalariedHours, len(s.InterimNames), s.InterimHours, s.InterimShare()*100)
	}
}

func interimSheet(sheet *xlsx.Sheet, r Weekly) {
	header := []any{"Nom", "Poste"}
	for _, d := range r.Interim.Days {
		header = append(header, d)
	}
	header = append(header, "Total")
	addRow(sheet, header...)
	for _, row := range r.Interim.Rows {
		line := []any{row.Name, string(row.Role)}
		for _, d := range row.Days {
			line = append(line, d.Hours)
		}
		line = append(line, row.Total)
		addRow(sheet, line...)
	}
	addRow(sheet, "Total", "", r.Interim.TotalInterimHours)
}
