package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"hireline/internal/db"
	"hireline/internal/domain"
)

// SQL is the relational Store backed by database/sql (sqlite or postgres).
type SQL struct {
	DB      *sql.DB
	Dialect db.Dialect
}

var _ Store = SQL{}

func (r SQL) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.DB.ExecContext(ctx, db.Rebind(r.Dialect, query), args...)
}

func (r SQL) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.DB.QueryContext(ctx, db.Rebind(r.Dialect, query), args...)
}

func (r SQL) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.DB.QueryRowContext(ctx, db.Rebind(r.Dialect, query), args...)
}

func (r SQL) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := r.queryRow(ctx, query+` RETURNING id`, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r SQL) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

func (r SQL) Close() error {
	return r.DB.Close()
}

const jobColumns = `id,title,department,hiring_manager,location,status,open_date,close_date`

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (domain.Job, error) {
	var j domain.Job
	var openDate string
	var closeDate sql.NullString
	if err := row.Scan(&j.ID, &j.Title, &j.Department, &j.HiringManager, &j.Location, &j.Status, &openDate, &closeDate); err != nil {
		if err == sql.ErrNoRows {
			return j, ErrNotFound
		}
		return j, err
	}
	var err error
	if j.OpenDate, err = parseTime(openDate); err != nil {
		return j, err
	}
	if j.CloseDate, err = parseNullTime(closeDate); err != nil {
		return j, err
	}
	return j, nil
}

func (r SQL) CreateJob(ctx context.Context, j domain.Job) (domain.Job, error) {
	id, err := r.insert(ctx, `INSERT INTO jobs(title,department,hiring_manager,location,status,open_date,close_date) VALUES (?,?,?,?,?,?,?)`,
		j.Title, j.Department, j.HiringManager, j.Location, string(j.Status), formatTime(j.OpenDate), nullableTime(j.CloseDate))
	if err != nil {
		return domain.Job{}, fmt.Errorf("insert job: %w", err)
	}
	j.ID = id
	return j, nil
}

func (r SQL) GetJob(ctx context.Context, id int64) (domain.Job, error) {
	return scanJob(r.queryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id=?`, id))
}

func (r SQL) ListJobs(ctx context.Context, f JobFilter) ([]domain.Job, error) {
	var (
		clauses []string
		args    []any
	)
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, string(f.Status))
	}
	if f.Department != "" {
		clauses = append(clauses, "department=?")
		args = append(args, f.Department)
	}
	rows, err := r.query(ctx, `SELECT `+jobColumns+` FROM jobs`+where(clauses)+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, j)
	}
	return res, rows.Err()
}

func (r SQL) ReplaceJob(ctx context.Context, j domain.Job) (domain.Job, error) {
	res, err := r.exec(ctx, `UPDATE jobs SET title=?, department=?, hiring_manager=?, location=?, status=?, open_date=?, close_date=? WHERE id=?`,
		j.Title, j.Department, j.HiringManager, j.Location, string(j.Status), formatTime(j.OpenDate), nullableTime(j.CloseDate), j.ID)
	if err != nil {
		return domain.Job{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Job{}, ErrNotFound
	}
	return j, nil
}

func (r SQL) DeleteJob(ctx context.Context, id int64) error {
	res, err := r.exec(ctx, `DELETE FROM jobs WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const candidateColumns = `id,name,email,job_id,stage,source,notes,applied_date,updated_date`

func scanCandidate(row scanner) (domain.Candidate, error) {
	var c domain.Candidate
	var source, notes sql.NullString
	var applied, updated string
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.JobID, &c.Stage, &source, &notes, &applied, &updated); err != nil {
		if err == sql.ErrNoRows {
			return c, ErrNotFound
		}
		return c, err
	}
	c.Source = optionalString(source)
	c.Notes = optionalString(notes)
	var err error
	if c.AppliedDate, err = parseTime(applied); err != nil {
		return c, err
	}
	if c.UpdatedDate, err = parseTime(updated); err != nil {
		return c, err
	}
	return c, nil
}

func (r SQL) CreateCandidate(ctx context.Context, c domain.Candidate) (domain.Candidate, error) {
	id, err := r.insert(ctx, `INSERT INTO candidates(name,email,job_id,stage,source,notes,applied_date,updated_date) VALUES (?,?,?,?,?,?,?,?)`,
		c.Name, c.Email, c.JobID, string(c.Stage), nullableStringPtr(c.Source), nullableStringPtr(c.Notes), formatTime(c.AppliedDate), formatTime(c.UpdatedDate))
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("insert candidate: %w", err)
	}
	c.ID = id
	return c, nil
}

func (r SQL) GetCandidate(ctx context.Context, id int64) (domain.Candidate, error) {
	return scanCandidate(r.queryRow(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id=?`, id))
}

func (r SQL) ListCandidates(ctx context.Context, f CandidateFilter) ([]domain.Candidate, error) {
	var (
		clauses []string
		args    []any
	)
	if f.Stage != "" {
		clauses = append(clauses, "stage=?")
		args = append(args, string(f.Stage))
	}
	if f.JobID != 0 {
		clauses = append(clauses, "job_id=?")
		args = append(args, f.JobID)
	}
	rows, err := r.query(ctx, `SELECT `+candidateColumns+` FROM candidates`+where(clauses)+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r SQL) ReplaceCandidate(ctx context.Context, c domain.Candidate) (domain.Candidate, error) {
	res, err := r.exec(ctx, `UPDATE candidates SET name=?, email=?, job_id=?, stage=?, source=?, notes=?, applied_date=?, updated_date=? WHERE id=?`,
		c.Name, c.Email, c.JobID, string(c.Stage), nullableStringPtr(c.Source), nullableStringPtr(c.Notes), formatTime(c.AppliedDate), formatTime(c.UpdatedDate), c.ID)
	if err != nil {
		return domain.Candidate{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Candidate{}, ErrNotFound
	}
	return c, nil
}

const messageColumns = `id,candidate_id,to_name,to_email,subject,body,trigger_kind,related_stage,ts,status`

func scanMessage(row scanner) (domain.Message, error) {
	var m domain.Message
	var related sql.NullString
	var ts string
	if err := row.Scan(&m.ID, &m.CandidateID, &m.ToName, &m.ToEmail, &m.Subject, &m.Body, &m.Trigger, &related, &ts, &m.Status); err != nil {
		if err == sql.ErrNoRows {
			return m, ErrNotFound
		}
		return m, err
	}
	if related.Valid {
		stage := domain.Stage(related.String)
		m.RelatedStage = &stage
	}
	var err error
	m.Timestamp, err = parseTime(ts)
	return m, err
}

func (r SQL) CreateMessage(ctx context.Context, m domain.Message) (domain.Message, error) {
	var related any
	if m.RelatedStage != nil {
		related = string(*m.RelatedStage)
	}
	id, err := r.insert(ctx, `INSERT INTO messages(candidate_id,to_name,to_email,subject,body,trigger_kind,related_stage,ts,status) VALUES (?,?,?,?,?,?,?,?,?)`,
		m.CandidateID, m.ToName, m.ToEmail, m.Subject, m.Body, string(m.Trigger), related, formatTime(m.Timestamp), string(m.Status))
	if err != nil {
		return domain.Message{}, fmt.Errorf("insert message: %w", err)
	}
	m.ID = id
	return m, nil
}

func (r SQL) GetMessage(ctx context.Context, id int64) (domain.Message, error) {
	return scanMessage(r.queryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id=?`, id))
}

func (r SQL) ListMessages(ctx context.Context, f MessageFilter) ([]domain.Message, error) {
	var (
		clauses []string
		args    []any
	)
	if f.CandidateID != 0 {
		clauses = append(clauses, "candidate_id=?")
		args = append(args, f.CandidateID)
	}
	rows, err := r.query(ctx, `SELECT `+messageColumns+` FROM messages`+where(clauses)+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func scanJobBoard(row scanner) (domain.JobBoard, error) {
	var b domain.JobBoard
	var logo sql.NullString
	if err := row.Scan(&b.ID, &b.Slug, &logo); err != nil {
		if err == sql.ErrNoRows {
			return b, ErrNotFound
		}
		return b, err
	}
	b.LogoURL = optionalString(logo)
	return b, nil
}

func (r SQL) CreateJobBoard(ctx context.Context, b domain.JobBoard) (domain.JobBoard, error) {
	id, err := r.insert(ctx, `INSERT INTO job_boards(slug,logo_url) VALUES (?,?)`, b.Slug, nullableStringPtr(b.LogoURL))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.JobBoard{}, fmt.Errorf("job board slug %q already exists: %w", b.Slug, ErrConflict)
		}
		return domain.JobBoard{}, fmt.Errorf("insert job board: %w", err)
	}
	b.ID = id
	return b, nil
}

func (r SQL) GetJobBoard(ctx context.Context, id int64) (domain.JobBoard, error) {
	return scanJobBoard(r.queryRow(ctx, `SELECT id,slug,logo_url FROM job_boards WHERE id=?`, id))
}

func (r SQL) GetJobBoardBySlug(ctx context.Context, slug string) (domain.JobBoard, error) {
	return scanJobBoard(r.queryRow(ctx, `SELECT id,slug,logo_url FROM job_boards WHERE slug=?`, slug))
}

func (r SQL) ListJobBoards(ctx context.Context) ([]domain.JobBoard, error) {
	rows, err := r.query(ctx, `SELECT id,slug,logo_url FROM job_boards ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.JobBoard{}
	for rows.Next() {
		b, err := scanJobBoard(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

func (r SQL) CreateJobPost(ctx context.Context, p domain.JobPost) (domain.JobPost, error) {
	id, err := r.insert(ctx, `INSERT INTO posts(title,salary,job_board_id) VALUES (?,?,?)`, p.Title, p.Salary, p.JobBoardID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.JobPost{}, fmt.Errorf("job board %d: %w", p.JobBoardID, ErrNotFound)
		}
		return domain.JobPost{}, fmt.Errorf("insert job post: %w", err)
	}
	p.ID = id
	return p, nil
}

func (r SQL) ListJobPosts(ctx context.Context, f JobPostFilter) ([]domain.JobPost, error) {
	var (
		clauses []string
		args    []any
	)
	if f.JobBoardID != 0 {
		clauses = append(clauses, "job_board_id=?")
		args = append(args, f.JobBoardID)
	}
	rows, err := r.query(ctx, `SELECT id,title,salary,job_board_id FROM posts`+where(clauses)+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.JobPost{}
	for rows.Next() {
		var p domain.JobPost
		if err := rows.Scan(&p.ID, &p.Title, &p.Salary, &p.JobBoardID); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r SQL) AppendEvent(ctx context.Context, e domain.Event) (domain.Event, error) {
	if e.Payload == "" {
		e.Payload = "{}"
	}
	id, err := r.insert(ctx, `INSERT INTO events(ts,type,entity_kind,entity_id,payload_json) VALUES (?,?,?,?,?)`,
		formatTime(e.TS), e.Type, e.EntityKind, e.EntityID, e.Payload)
	if err != nil {
		return domain.Event{}, fmt.Errorf("insert event: %w", err)
	}
	e.ID = id
	return e, nil
}

func (r SQL) ListEvents(ctx context.Context, f EventFilter) ([]domain.Event, error) {
	var (
		clauses []string
		args    []any
	)
	if f.Type != "" {
		clauses = append(clauses, "type=?")
		args = append(args, f.Type)
	}
	if f.EntityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, f.EntityKind)
	}
	if f.EntityID != 0 {
		clauses = append(clauses, "entity_id=?")
		args = append(args, f.EntityID)
	}
	rows, err := r.query(ctx, `SELECT id,ts,type,entity_kind,entity_id,payload_json FROM events`+where(clauses)+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Event{}
	for rows.Next() {
		var e domain.Event
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.Type, &e.EntityKind, &e.EntityID, &e.Payload); err != nil {
			return nil, err
		}
		if e.TS, err = parseTime(ts); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func where(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := parseTime(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func optionalString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
