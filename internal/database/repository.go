package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-applyflow-automation/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// IMPORTANT: Supabase connection pooler (PgBouncer in Transaction mode)
	// does not support prepared statements easily. We MUST disable the statement cache.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Repository{db: pool}, nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// Statuses a finalizer must never overwrite. Guarded in SQL so a slow
// worker finishing after a user action cannot clobber the row.
const notTerminalGuard = `status NOT IN ('success', 'cancelled', 'manual_success', 'rejected')`

// ---------------- TASK CLAIMING ----------------

// ClaimNext atomically claims the next pending application: the selected row
// is locked and flipped to processing in one statement, so two workers can
// never claim the same task. Returns pgx.ErrNoRows when the queue is empty.
func (r *Repository) ClaimNext(ctx context.Context, randomOrder bool) (*models.ApplicationTask, error) {
	order := "created_at"
	if randomOrder {
		order = "RANDOM()"
	}

	query := fmt.Sprintf(`
		WITH next_task AS (
			SELECT id FROM applications
			WHERE status = 'pending'
			ORDER BY %s
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE applications
		SET status = 'processing', updated_at = now()
		WHERE id = (SELECT id FROM next_task)
		RETURNING id, user_id, job_id, job_url, status, COALESCE(cv_url, ''),
		          COALESCE(error_message, ''), manual_started, created_at, updated_at`, order)

	var task models.ApplicationTask
	err := r.db.QueryRow(ctx, query).Scan(
		&task.ID, &task.UserID, &task.JobID, &task.JobURL, &task.Status,
		&task.ResumeURL, &task.ErrorMessage, &task.ManualStarted,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to claim next task: %w", err)
	}
	return &task, nil
}

// ---------------- JOB AND PROFILE READS ----------------

func (r *Repository) GetJob(ctx context.Context, jobID int64) (*models.JobPosting, error) {
	query := `
		SELECT id, job_url, COALESCE(apply_url, ''), COALESCE(title, ''), COALESCE(company, ''),
		       COALESCE(city, ''), COALESCE(country, ''), COALESCE(is_remote, false),
		       COALESCE(description, ''), COALESCE(source_ats, ''), COALESCE(source_job_id, '')
		FROM jobs WHERE id = $1`

	var job models.JobPosting
	err := r.db.QueryRow(ctx, query, jobID).Scan(
		&job.ID, &job.JobURL, &job.ApplyURL, &job.Title, &job.Company,
		&job.City, &job.Country, &job.IsRemote,
		&job.Description, &job.SourceATS, &job.SourceJobID,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load job %d: %w", jobID, err)
	}
	return &job, nil
}

func (r *Repository) GetProfile(ctx context.Context, userID int64) (*models.CandidateProfile, error) {
	query := `
		SELECT user_id, COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(email, ''),
		       COALESCE(phone, ''), COALESCE(city, ''), COALESCE(state, ''), COALESCE(country, ''),
		       COALESCE(country_code, ''), COALESCE(remote_preference, false),
		       COALESCE(cover_letter_text, ''), COALESCE(base_resume_json, '{}'),
		       COALESCE(application_data, '{}')
		FROM profiles WHERE user_id = $1`

	var profile models.CandidateProfile
	var resumeJSON, answersJSON []byte
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID, &profile.FirstName, &profile.LastName, &profile.Email,
		&profile.Phone, &profile.City, &profile.State, &profile.Country,
		&profile.CountryCode, &profile.RemotePreference,
		&profile.CoverLetter, &resumeJSON, &answersJSON,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load profile %d: %w", userID, err)
	}

	if err := json.Unmarshal(resumeJSON, &profile.BaseResume); err != nil {
		return nil, fmt.Errorf("profile %d has malformed resume json: %w", userID, err)
	}
	if err := json.Unmarshal(answersJSON, &profile.Answers); err != nil {
		return nil, fmt.Errorf("profile %d has malformed application data: %w", userID, err)
	}
	return &profile, nil
}

// SaveJobDescription persists a description scraped during the run so later
// attempts skip the scrape.
func (r *Repository) SaveJobDescription(ctx context.Context, jobID int64, description string) error {
	_, err := r.db.Exec(ctx,
		"UPDATE jobs SET description = $1, updated_at = now() WHERE id = $2", description, jobID)
	if err != nil {
		return fmt.Errorf("failed to save job description: %w", err)
	}
	return nil
}

// ---------------- TASK ARTIFACTS ----------------

func (r *Repository) SaveResumeVariant(ctx context.Context, taskID int64, variantJSON []byte, cvURL string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE applications
		SET resume_variant_json = $1, cv_url = $2, updated_at = now()
		WHERE id = $3`, variantJSON, cvURL, taskID)
	if err != nil {
		return fmt.Errorf("failed to save resume variant: %w", err)
	}
	return nil
}

func (r *Repository) SaveScreenshotURL(ctx context.Context, taskID int64, url string) error {
	_, err := r.db.Exec(ctx,
		"UPDATE applications SET screenshot_url = $1, updated_at = now() WHERE id = $2", url, taskID)
	if err != nil {
		return fmt.Errorf("failed to save screenshot url: %w", err)
	}
	return nil
}

// ---------------- FINALIZERS ----------------

// Finalizers only move rows that are still live. Error text is truncated so
// a stack trace cannot blow up the column.

func (r *Repository) MarkSuccess(ctx context.Context, taskID int64, message string) error {
	return r.finalize(ctx, taskID, models.StatusSuccess, message, "")
}

func (r *Repository) MarkFailed(ctx context.Context, taskID int64, message string) error {
	return r.finalize(ctx, taskID, models.StatusFailed, message, "")
}

func (r *Repository) MarkRetry(ctx context.Context, taskID int64, message string) error {
	return r.finalize(ctx, taskID, models.StatusRetry, message, "")
}

// MarkManualRequired carries cv_url along so the human who picks the task up
// still has the generated resume.
func (r *Repository) MarkManualRequired(ctx context.Context, taskID int64, message, cvURL string) error {
	return r.finalize(ctx, taskID, models.StatusManualRequired, message, cvURL)
}

func (r *Repository) finalize(ctx context.Context, taskID int64, status models.Status, message, cvURL string) error {
	query := fmt.Sprintf(`
		UPDATE applications
		SET status = $1, error_message = left($2, 500),
		    cv_url = COALESCE(NULLIF($3, ''), cv_url), updated_at = now()
		WHERE id = $4 AND %s`, notTerminalGuard)

	tag, err := r.db.Exec(ctx, query, string(status), message, cvURL, taskID)
	if err != nil {
		return fmt.Errorf("failed to mark task %d %s: %w", taskID, status, err)
	}
	if tag.RowsAffected() == 0 {
		// Task reached a terminal state while we were working; leave it be.
		return nil
	}
	return nil
}

// ---------------- USER-DRIVEN TRANSITIONS ----------------

// Transition applies a user-initiated status change, enforcing the task
// state machine both in Go and in the statement itself.
func (r *Repository) Transition(ctx context.Context, taskID int64, from, to models.Status) error {
	if !models.CanTransition(from, to) {
		return fmt.Errorf("transition %s -> %s is not allowed", from, to)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE applications
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`, string(to), taskID, string(from))
	if err != nil {
		return fmt.Errorf("failed to transition task %d: %w", taskID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %d is no longer in status %s", taskID, from)
	}
	return nil
}

// GetTask loads one application row for the API.
func (r *Repository) GetTask(ctx context.Context, taskID int64) (*models.ApplicationTask, error) {
	query := `
		SELECT id, user_id, job_id, job_url, status, COALESCE(cv_url, ''),
		       COALESCE(screenshot_url, ''), COALESCE(error_message, ''),
		       manual_started, created_at, updated_at
		FROM applications WHERE id = $1`

	var task models.ApplicationTask
	err := r.db.QueryRow(ctx, query, taskID).Scan(
		&task.ID, &task.UserID, &task.JobID, &task.JobURL, &task.Status,
		&task.ResumeURL, &task.ScreenshotURL, &task.ErrorMessage,
		&task.ManualStarted, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load task %d: %w", taskID, err)
	}
	return &task, nil
}

// SetManualStarted flags that a human has picked the task up in the manual
// review queue.
func (r *Repository) SetManualStarted(ctx context.Context, taskID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE applications
		SET manual_started = true, updated_at = now()
		WHERE id = $1 AND status = 'manual_required'`, taskID)
	if err != nil {
		return fmt.Errorf("failed to flag manual start: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %d is not awaiting manual review", taskID)
	}
	return nil
}
