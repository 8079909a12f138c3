package store

import (
	"context"
	"database/sql"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"bal-board/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite, for single-site
// installs without a MongoDB server.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS machine_configs (
	id             TEXT PRIMARY KEY,
	machine_id     TEXT NOT NULL,
	suffix         TEXT NOT NULL DEFAULT '',
	active         INTEGER NOT NULL DEFAULT 0,
	target_bal     REAL NOT NULL DEFAULT 0,
	target_volume  REAL NOT NULL DEFAULT 0,
	target_cadence REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS global_forecasts (
	id                     INTEGER PRIMARY KEY,
	total_volume           REAL NOT NULL DEFAULT 0,
	total_weight           REAL NOT NULL DEFAULT 0,
	predicted_bal          REAL NOT NULL DEFAULT 0,
	max_docs_per_handful   REAL NOT NULL DEFAULT 0,
	max_weight_per_handful REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS production_logs (
	id            TEXT PRIMARY KEY,
	date          TEXT NOT NULL,
	machine_id    TEXT NOT NULL,
	team          TEXT NOT NULL,
	bal_produced  INTEGER NOT NULL DEFAULT 0,
	docs_produced INTEGER NOT NULL DEFAULT 0,
	hours         REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS staff (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	default_role  TEXT NOT NULL DEFAULT '',
	is_interim    INTEGER NOT NULL DEFAULT 0,
	active        INTEGER NOT NULL DEFAULT 1,
	weekly_hours  REAL NOT NULL DEFAULT 35,
	assigned_team INTEGER NOT NULL DEFAULT 0,
	is_absent     INTEGER NOT NULL DEFAULT 0,
	is_secouriste INTEGER NOT NULL DEFAULT 0,
	is_guide_file INTEGER NOT NULL DEFAULT 0,
	is_serre_file INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS planning (
	date        TEXT NOT NULL,
	team        TEXT NOT NULL,
	assignments TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (date, team)
);

CREATE TABLE IF NOT EXISTS weekly_archives (
	id         TEXT PRIMARY KEY,
	week_label TEXT NOT NULL,
	start_date TEXT NOT NULL,
	created_at TEXT NOT NULL,
	data       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_machine_configs_suffix ON machine_configs(suffix);
CREATE INDEX IF NOT EXISTS idx_production_logs_date ON production_logs(date, team, machine_id);
CREATE INDEX IF NOT EXISTS idx_weekly_archives_created_at ON weekly_archives(created_at);
`

// createdAtLayout sorts lexically in time order.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

func (s *SQLiteStore) GetForecasts(ctx context.Context, id int) (model.GlobalForecasts, error) {
	var f model.GlobalForecasts
	err := s.db.QueryRowContext(ctx,
		`SELECT total_volume, total_weight, predicted_bal, max_docs_per_handful, max_weight_per_handful
		 FROM global_forecasts WHERE id = ?`, id,
	).Scan(&f.TotalVolume, &f.TotalWeight, &f.PredictedBal, &f.MaxDocsPerHandful, &f.MaxWeightPerHandful)
	if err == sql.ErrNoRows {
		return model.GlobalForecasts{}, nil
	}
	if err != nil {
		return model.GlobalForecasts{}, eris.Wrapf(err, "sqlite: get forecasts %d", id)
	}
	return f, nil
}

func (s *SQLiteStore) SaveForecasts(ctx context.Context, id int, f model.GlobalForecasts) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO global_forecasts (id, total_volume, total_weight, predicted_bal, max_docs_per_handful, max_weight_per_handful)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			total_volume = excluded.total_volume,
			total_weight = excluded.total_weight,
			predicted_bal = excluded.predicted_bal,
			max_docs_per_handful = excluded.max_docs_per_handful,
			max_weight_per_handful = excluded.max_weight_per_handful`,
		id, f.TotalVolume, f.TotalWeight, f.PredictedBal, f.MaxDocsPerHandful, f.MaxWeightPerHandful,
	)
	return eris.Wrapf(err, "sqlite: save forecasts %d", id)
}

func (s *SQLiteStore) ListConfigs(ctx context.Context, suffix string) (model.Configs, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT machine_id, active, target_bal, target_volume, target_cadence
		 FROM machine_configs WHERE suffix = ?`, suffix,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list machine configs")
	}
	defer rows.Close()

	out := make(model.Configs)
	for rows.Next() {
		var c model.MachineConfig
		if err := rows.Scan(&c.ID, &c.Active, &c.TargetBal, &c.TargetVolume, &c.TargetCadence); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan machine config")
		}
		out[c.ID] = c
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate machine configs")
}

func (s *SQLiteStore) SaveConfigs(ctx context.Context, suffix string, cfgs model.Configs) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save machine configs")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, id := range model.MachineIDs {
		c, ok := cfgs[id]
		if !ok {
			continue
		}
		c.ID = id
		doc := toConfigDoc(suffix, c)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO machine_configs (id, machine_id, suffix, active, target_bal, target_volume, target_cadence)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				active = excluded.active,
				target_bal = excluded.target_bal,
				target_volume = excluded.target_volume,
				target_cadence = excluded.target_cadence`,
			doc.ID, string(doc.Machine), doc.Suffix, doc.Active, doc.TargetBal, doc.TargetVolume, doc.TargetCadence,
		); err != nil {
			return eris.Wrapf(err, "sqlite: save machine config %s", doc.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit machine configs")
}

func (s *SQLiteStore) ListLogs(ctx context.Context) ([]model.ProductionLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, machine_id, team, bal_produced, docs_produced, hours
		 FROM production_logs ORDER BY date, team, machine_id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list production logs")
	}
	defer rows.Close()

	var out []model.ProductionLog
	for rows.Next() {
		var l model.ProductionLog
		if err := rows.Scan(&l.ID, &l.Date, &l.MachineID, &l.Team, &l.BalProduced, &l.DocsProduced, &l.Hours); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan production log")
		}
		out = append(out, l)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate production logs")
}

func (s *SQLiteStore) SaveLog(ctx context.Context, l model.ProductionLog) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO production_logs (id, date, machine_id, team, bal_produced, docs_produced, hours)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			machine_id = excluded.machine_id,
			team = excluded.team,
			bal_produced = excluded.bal_produced,
			docs_produced = excluded.docs_produced,
			hours = excluded.hours`,
		l.ID, l.Date, string(l.MachineID), string(l.Team), l.BalProduced, l.DocsProduced, l.Hours,
	)
	return eris.Wrapf(err, "sqlite: save production log %s", l.ID)
}

func (s *SQLiteStore) DeleteLog(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM production_logs WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete production log %s", id)
	}
	return checkRowsAffected(res, "production log", id)
}

func (s *SQLiteStore) DeleteAllLogs(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM production_logs`)
	return eris.Wrap(err, "sqlite: delete production logs")
}

func (s *SQLiteStore) ListStaff(ctx context.Context) ([]model.StaffMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, default_role, is_interim, active, weekly_hours, assigned_team,
			is_absent, is_secouriste, is_guide_file, is_serre_file
		 FROM staff ORDER BY name COLLATE NOCASE`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list staff")
	}
	defer rows.Close()

	var out []model.StaffMember
	for rows.Next() {
		var m model.StaffMember
		if err := rows.Scan(&m.ID, &m.Name, &m.DefaultRole, &m.IsInterim, &m.Active, &m.WeeklyHours, &m.AssignedTeam,
			&m.IsAbsent, &m.IsSecouriste, &m.IsGuideFile, &m.IsSerreFile); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan staff")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate staff")
}

func (s *SQLiteStore) SaveStaff(ctx context.Context, m model.StaffMember) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO staff (id, name, default_role, is_interim, active, weekly_hours, assigned_team,
			is_absent, is_secouriste, is_guide_file, is_serre_file)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			default_role = excluded.default_role,
			is_interim = excluded.is_interim,
			active = excluded.active,
			weekly_hours = excluded.weekly_hours,
			assigned_team = excluded.assigned_team,
			is_absent = excluded.is_absent,
			is_secouriste = excluded.is_secouriste,
			is_guide_file = excluded.is_guide_file,
			is_serre_file = excluded.is_serre_file`,
		m.ID, m.Name, string(m.DefaultRole), m.IsInterim, m.Active, m.WeeklyHours, int(m.AssignedTeam),
		m.IsAbsent, m.IsSecouriste, m.IsGuideFile, m.IsSerreFile,
	)
	return eris.Wrapf(err, "sqlite: save staff %s", m.ID)
}

func (s *SQLiteStore) DeleteStaff(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM staff WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete staff %s", id)
	}
	return checkRowsAffected(res, "staff", id)
}

func (s *SQLiteStore) SetStaffInterim(ctx context.Context, id string, interim bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE staff SET is_interim = ? WHERE id = ?`, interim, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update staff %s", id)
	}
	return checkRowsAffected(res, "staff", id)
}

func (s *SQLiteStore) ListPlanning(ctx context.Context) ([]model.PlanningAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date, team, assignments FROM planning ORDER BY date, team`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list planning")
	}
	defer rows.Close()

	var docs []planningDoc
	for rows.Next() {
		var (
			d   planningDoc
			raw string
		)
		if err := rows.Scan(&d.Date, &d.Team, &raw); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan planning")
		}
		if err := json.Unmarshal([]byte(raw), &d.Assignments); err != nil {
			return nil, eris.Wrapf(err, "sqlite: decode assignments %s %s", d.Date, d.Team)
		}
		d.ID = planningID(d.Date, d.Team)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate planning")
	}
	return planningRecords(docs), nil
}

// UpsertPlanning replaces each record by (date, team) in one transaction.
func (s *SQLiteStore) UpsertPlanning(ctx context.Context, records []model.PlanningAssignment) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin upsert planning")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, r := range records {
		doc := toPlanningDoc(r)
		raw, err := json.Marshal(doc.Assignments)
		if err != nil {
			return eris.Wrapf(err, "sqlite: encode assignments %s", doc.ID)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO planning (date, team, assignments) VALUES (?, ?, ?)
			 ON CONFLICT(date, team) DO UPDATE SET assignments = excluded.assignments`,
			doc.Date, string(doc.Team), string(raw),
		); err != nil {
			return eris.Wrapf(err, "sqlite: upsert planning %s", doc.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit planning")
}

func (s *SQLiteStore) ListArchives(ctx context.Context) ([]model.WeeklyArchive, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, week_label, start_date, created_at, data
		 FROM weekly_archives ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list weekly archives")
	}
	defer rows.Close()

	var out []model.WeeklyArchive
	for rows.Next() {
		var (
			d            archiveDoc
			created, raw string
		)
		if err := rows.Scan(&d.ID, &d.WeekLabel, &d.StartDate, &created, &raw); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan weekly archive")
		}
		if d.CreatedAt, err = time.Parse(createdAtLayout, created); err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse created_at of archive %s", d.ID)
		}
		if err := json.Unmarshal([]byte(raw), &d.Data); err != nil {
			return nil, eris.Wrapf(err, "sqlite: decode archive %s", d.ID)
		}
		out = append(out, d.archive())
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate weekly archives")
}

func (s *SQLiteStore) CreateArchive(ctx context.Context, a model.WeeklyArchive) error {
	doc := toArchiveDoc(a)
	raw, err := json.Marshal(doc.Data)
	if err != nil {
		return eris.Wrapf(err, "sqlite: encode archive %s", a.ID)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO weekly_archives (id, week_label, start_date, created_at, data) VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.WeekLabel, doc.StartDate, doc.CreatedAt.Format(createdAtLayout), string(raw),
	)
	return eris.Wrapf(err, "sqlite: insert weekly archive %s", a.ID)
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}
