package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"bal-board/internal/calendar"
	"bal-board/internal/hr"
	"bal-board/internal/metrics"
	"bal-board/internal/model"
)

func sampleWeekly(t *testing.T) Weekly {
	t.Helper()
	monday, err := calendar.ParseDate("2025-03-10")
	require.NoError(t, err)

	cfgs := model.DefaultConfigs()
	cfgs[model.MachineM1] = model.MachineConfig{ID: model.MachineM1, Active: true, TargetBal: 8000, TargetCadence: 1000}
	logs := []model.ProductionLog{
		{ID: "l1", Date: "2025-03-10", MachineID: model.MachineM1, Team: model.TeamMatin, BalProduced: 5000, Hours: 4},
	}
	staff := []model.StaffMember{{ID: "s1", Name: "Alice", Active: true, WeeklyHours: 35}}

	eng := metrics.New(cfgs, logs, monday)
	return Weekly{
		Label:     calendar.WeekLabel(monday),
		Kind:      string(model.WeekCurrent),
		Generated: time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC),
		Summary:   eng.Summary(),
		Machines:  eng.MachineTable(),
		Roles:     hr.Roles(nil, logs, monday),
		Precise:   hr.Precise(cfgs, staff),
		Interim:   hr.InterimHours(staff, nil, logs, monday),
	}
}

func TestWriteWeekly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWeekly(&buf, sampleWeekly(t)))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 4)
	assert.Equal(t, SheetSummary, f.Sheets[0].Name)
	assert.Equal(t, SheetMachines, f.Sheets[1].Name)
	assert.Equal(t, SheetStaffing, f.Sheets[2].Name)
	assert.Equal(t, SheetInterim, f.Sheets[3].Name)

	summary := f.Sheet[SheetSummary]
	assert.Equal(t, "Semaine", summary.Rows[0].Cells[0].String())
	assert.Equal(t, "S11 DU 10/03/2025 AU 16/03/2025", summary.Rows[0].Cells[1].String())
	assert.Equal(t, "12/03/2025 09:30", summary.Rows[2].Cells[1].String())

	produced, err := summary.Rows[5].Cells[1].Int()
	require.NoError(t, err)
	assert.Equal(t, 5000, produced)

	machines := f.Sheet[SheetMachines]
	// header + three lines for the single active machine
	require.Len(t, machines.Rows, 4)
	assert.Equal(t, "Machine 1", machines.Rows[1].Cells[0].String())
	assert.Equal(t, "MATIN", machines.Rows[1].Cells[1].String())
	assert.Equal(t, "TOTAL", machines.Rows[3].Cells[1].String())
	assert.Len(t, machines.Rows[0].Cells, 2+calendar.WindowDays+5)
}

func TestWriteWeekly_EmptyWeek(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWeekly(&buf, Weekly{Label: "S1"}))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	assert.Len(t, f.Sheet[SheetMachines].Rows, 1, "header only")
}
