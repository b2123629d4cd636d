package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries bundles the hand-written SQL for the controller's tables. One
// instance per pool; methods are safe for concurrent use.
type Queries struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// --- Users ---

type User struct {
	ID        string
	Username  string
	Password  string
	Role      string
	APIKey    string
	IsActive  bool
	CreatedAt time.Time
}

const userColumns = "id, username, password, role, api_key, is_active, created_at"

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.APIKey, &u.IsActive, &u.CreatedAt)
	return u, err
}

type CreateUserParams struct {
	Username string
	Password string
	Role     string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.pool.QueryRow(ctx, `
		INSERT INTO users (username, password, role)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		arg.Username, arg.Password, arg.Role)
	return scanUser(row)
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	return scanUser(row)
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE username = $1", username)
	return scanUser(row)
}

func (q *Queries) GetUserByAPIKey(ctx context.Context, apiKey string) (User, error) {
	row := q.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE api_key = $1", apiKey)
	return scanUser(row)
}

func (q *Queries) GetUserCount(ctx context.Context) (int64, error) {
	var count int64
	err := q.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

type ListUsersParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error) {
	rows, err := q.pool.Query(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at LIMIT $1 OFFSET $2",
		arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (q *Queries) DeleteUser(ctx context.Context, id string) error {
	_, err := q.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	return err
}

func (q *Queries) RegenerateAPIKey(ctx context.Context, id string) (User, error) {
	row := q.pool.QueryRow(ctx, `
		UPDATE users
		SET api_key = replace(gen_random_uuid()::text, '-', '')
		WHERE id = $1
		RETURNING `+userColumns,
		id)
	return scanUser(row)
}

// --- Settings ---

type Setting struct {
	Key         string
	Value       string
	Description string
	UpdatedAt   time.Time
}

func (q *Queries) GetSetting(ctx context.Context, key string) (Setting, error) {
	var s Setting
	err := q.pool.QueryRow(ctx,
		"SELECT key, value, description, updated_at FROM settings WHERE key = $1", key).
		Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedAt)
	return s, err
}

type UpsertSettingParams struct {
	Key   string
	Value string
}

func (q *Queries) UpsertSetting(ctx context.Context, arg UpsertSettingParams) error {
	_, err := q.pool.Exec(ctx, `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		arg.Key, arg.Value)
	return err
}

func (q *Queries) ListSettings(ctx context.Context) ([]Setting, error) {
	rows, err := q.pool.Query(ctx,
		"SELECT key, value, description, updated_at FROM settings ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// --- Presets ---

type Preset struct {
	ID             string
	Name           string
	Codec          string
	Container      string
	NamingTemplate string
	Delivery       string
	OutputDir      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const presetColumns = "id, name, codec, container, naming_template, delivery, output_dir, created_at, updated_at"

func scanPreset(row pgx.Row) (Preset, error) {
	var p Preset
	err := row.Scan(&p.ID, &p.Name, &p.Codec, &p.Container, &p.NamingTemplate,
		&p.Delivery, &p.OutputDir, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

type CreatePresetParams struct {
	Name           string
	Codec          string
	Container      string
	NamingTemplate string
	Delivery       string
	OutputDir      string
}

func (q *Queries) CreatePreset(ctx context.Context, arg CreatePresetParams) (Preset, error) {
	row := q.pool.QueryRow(ctx, `
		INSERT INTO presets (name, codec, container, naming_template, delivery, output_dir)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+presetColumns,
		arg.Name, arg.Codec, arg.Container, arg.NamingTemplate, arg.Delivery, arg.OutputDir)
	return scanPreset(row)
}

func (q *Queries) GetPreset(ctx context.Context, id string) (Preset, error) {
	row := q.pool.QueryRow(ctx, "SELECT "+presetColumns+" FROM presets WHERE id = $1", id)
	return scanPreset(row)
}

func (q *Queries) ListPresets(ctx context.Context) ([]Preset, error) {
	rows, err := q.pool.Query(ctx, "SELECT "+presetColumns+" FROM presets ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var presets []Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	return presets, rows.Err()
}

type UpdatePresetParams struct {
	ID             string
	Name           string
	Codec          string
	Container      string
	NamingTemplate string
	Delivery       string
	OutputDir      string
}

func (q *Queries) UpdatePreset(ctx context.Context, arg UpdatePresetParams) (Preset, error) {
	row := q.pool.QueryRow(ctx, `
		UPDATE presets
		SET name = $2, codec = $3, container = $4, naming_template = $5,
		    delivery = $6, output_dir = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+presetColumns,
		arg.ID, arg.Name, arg.Codec, arg.Container, arg.NamingTemplate, arg.Delivery, arg.OutputDir)
	return scanPreset(row)
}

func (q *Queries) DeletePreset(ctx context.Context, id string) error {
	_, err := q.pool.Exec(ctx, "DELETE FROM presets WHERE id = $1", id)
	return err
}

// --- Job archive ---

type ArchivedJob struct {
	JobID       string
	Name        string
	Status      string
	TasksTotal  int
	TasksDone   int
	TasksFailed int
	Error       string
	CreatedAt   *time.Time
	StartedAt   *time.Time
	EndedAt     *time.Time
	ArchivedAt  time.Time
}

const archiveColumns = "job_id, name, status, tasks_total, tasks_done, tasks_failed, error, created_at, started_at, ended_at, archived_at"

func scanArchivedJob(row pgx.Row) (ArchivedJob, error) {
	var j ArchivedJob
	err := row.Scan(&j.JobID, &j.Name, &j.Status, &j.TasksTotal, &j.TasksDone,
		&j.TasksFailed, &j.Error, &j.CreatedAt, &j.StartedAt, &j.EndedAt, &j.ArchivedAt)
	return j, err
}

type InsertArchivedJobParams struct {
	JobID       string
	Name        string
	Status      string
	TasksTotal  int
	TasksDone   int
	TasksFailed int
	Error       string
	CreatedAt   *time.Time
	StartedAt   *time.Time
	EndedAt     *time.Time
}

// InsertArchivedJob records the first terminal status observed for a job.
// A second insert for the same id is a no-op: the archive keeps the status
// the job terminated with.
func (q *Queries) InsertArchivedJob(ctx context.Context, arg InsertArchivedJobParams) error {
	_, err := q.pool.Exec(ctx, `
		INSERT INTO job_archive (job_id, name, status, tasks_total, tasks_done, tasks_failed, error, created_at, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (job_id) DO NOTHING`,
		arg.JobID, arg.Name, arg.Status, arg.TasksTotal, arg.TasksDone,
		arg.TasksFailed, arg.Error, arg.CreatedAt, arg.StartedAt, arg.EndedAt)
	return err
}

type ListArchivedJobsParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListArchivedJobs(ctx context.Context, arg ListArchivedJobsParams) ([]ArchivedJob, error) {
	rows, err := q.pool.Query(ctx,
		"SELECT "+archiveColumns+" FROM job_archive ORDER BY archived_at DESC LIMIT $1 OFFSET $2",
		arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []ArchivedJob
	for rows.Next() {
		j, err := scanArchivedJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (q *Queries) GetArchivedJob(ctx context.Context, jobID string) (ArchivedJob, error) {
	row := q.pool.QueryRow(ctx, "SELECT "+archiveColumns+" FROM job_archive WHERE job_id = $1", jobID)
	return scanArchivedJob(row)
}

func (q *Queries) CountArchivedJobs(ctx context.Context) (int64, error) {
	var count int64
	err := q.pool.QueryRow(ctx, "SELECT COUNT(*) FROM job_archive").Scan(&count)
	return count, err
}
