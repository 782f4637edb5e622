package hirelinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a minimal Hireline HTTP API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults. baseURL includes the API base
// path, e.g. http://localhost:8000/api.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

type Job struct {
	ID            int64      `json:"job_id"`
	Title         string     `json:"title"`
	Department    string     `json:"department"`
	HiringManager string     `json:"hiring_manager"`
	Location      string     `json:"location"`
	Status        string     `json:"status"`
	OpenDate      time.Time  `json:"open_date"`
	CloseDate     *time.Time `json:"close_date,omitempty"`
}

// JobInput is the body for create and replace. Status defaults to Open.
type JobInput struct {
	Title         string `json:"title"`
	Department    string `json:"department"`
	HiringManager string `json:"hiring_manager"`
	Location      string `json:"location"`
	Status        string `json:"status,omitempty"`
}

type Candidate struct {
	ID          int64     `json:"candidate_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	JobID       int64     `json:"job_id"`
	Stage       string    `json:"stage"`
	Source      *string   `json:"source,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	AppliedDate time.Time `json:"applied_date"`
	UpdatedDate time.Time `json:"updated_date"`
}

type CandidateInput struct {
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	JobID  int64   `json:"job_id"`
	Stage  string  `json:"stage,omitempty"`
	Source *string `json:"source,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

// CandidatePatch sets only the non-nil fields.
type CandidatePatch struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	JobID  *int64  `json:"job_id,omitempty"`
	Stage  *string `json:"stage,omitempty"`
	Source *string `json:"source,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

type Message struct {
	ID           int64     `json:"message_id"`
	CandidateID  int64     `json:"candidate_id"`
	ToName       string    `json:"to_name"`
	ToEmail      string    `json:"to_email"`
	Subject      string    `json:"subject"`
	Body         string    `json:"body"`
	Trigger      string    `json:"trigger"`
	RelatedStage *string   `json:"related_stage,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Status       string    `json:"status"`
}

type JobBoard struct {
	ID      int64   `json:"id"`
	Slug    string  `json:"slug"`
	LogoURL *string `json:"logo_url,omitempty"`
}

type JobPost struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Salary     float64 `json:"salary"`
	JobBoardID int64   `json:"job_board_id"`
}

// Event represents an audit log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   int64          `json:"entity_id"`
	Payload    map[string]any `json:"payload"`
}

// PaginatedEvents wraps list responses with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

func (c *Client) CreateJob(ctx context.Context, in JobInput) (Job, error) {
	var resp Job
	err := c.do(ctx, http.MethodPost, "jobs", in, &resp)
	return resp, err
}

func (c *Client) GetJob(ctx context.Context, id int64) (Job, error) {
	var resp Job
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("jobs/%d", id), nil, &resp)
	return resp, err
}

// ListJobs filters by status and department when non-empty.
func (c *Client) ListJobs(ctx context.Context, status, department string) ([]Job, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if department != "" {
		q.Set("department", department)
	}
	var resp []Job
	err := c.do(ctx, http.MethodGet, withQuery("jobs", q), nil, &resp)
	return resp, err
}

func (c *Client) ReplaceJob(ctx context.Context, id int64, in JobInput) (Job, error) {
	var resp Job
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("jobs/%d", id), in, &resp)
	return resp, err
}

func (c *Client) DeleteJob(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("jobs/%d", id), nil, nil)
}

func (c *Client) CreateCandidate(ctx context.Context, in CandidateInput) (Candidate, error) {
	var resp Candidate
	err := c.do(ctx, http.MethodPost, "candidates", in, &resp)
	return resp, err
}

func (c *Client) GetCandidate(ctx context.Context, id int64) (Candidate, error) {
	var resp Candidate
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("candidates/%d", id), nil, &resp)
	return resp, err
}

// ListCandidates filters by stage and job when set.
func (c *Client) ListCandidates(ctx context.Context, stage string, jobID int64) ([]Candidate, error) {
	q := url.Values{}
	if stage != "" {
		q.Set("stage", stage)
	}
	if jobID != 0 {
		q.Set("job_id", strconv.FormatInt(jobID, 10))
	}
	var resp []Candidate
	err := c.do(ctx, http.MethodGet, withQuery("candidates", q), nil, &resp)
	return resp, err
}

// UpdateCandidate patches a candidate. Moving it to a new stage may send a message.
func (c *Client) UpdateCandidate(ctx context.Context, id int64, patch CandidatePatch) (Candidate, error) {
	var resp Candidate
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("candidates/%d", id), patch, &resp)
	return resp, err
}

func (c *Client) CandidateMessages(ctx context.Context, id int64) ([]Message, error) {
	var resp []Message
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("candidates/%d/messages", id), nil, &resp)
	return resp, err
}

func (c *Client) ListMessages(ctx context.Context, candidateID int64) ([]Message, error) {
	q := url.Values{}
	if candidateID != 0 {
		q.Set("candidate_id", strconv.FormatInt(candidateID, 10))
	}
	var resp []Message
	err := c.do(ctx, http.MethodGet, withQuery("messages", q), nil, &resp)
	return resp, err
}

func (c *Client) GetMessage(ctx context.Context, id int64) (Message, error) {
	var resp Message
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("messages/%d", id), nil, &resp)
	return resp, err
}

func (c *Client) ListJobBoards(ctx context.Context) ([]JobBoard, error) {
	var resp []JobBoard
	err := c.do(ctx, http.MethodGet, "job-boards", nil, &resp)
	return resp, err
}

// CreateJobBoard uploads the form; logo may be nil.
func (c *Client) CreateJobBoard(ctx context.Context, slug, logoName string, logo []byte) (JobBoard, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("slug", slug); err != nil {
		return JobBoard{}, err
	}
	if logo != nil {
		fw, err := mw.CreateFormFile("logo", logoName)
		if err != nil {
			return JobBoard{}, err
		}
		if _, err := fw.Write(logo); err != nil {
			return JobBoard{}, err
		}
	}
	if err := mw.Close(); err != nil {
		return JobBoard{}, err
	}
	var resp JobBoard
	err := c.send(ctx, http.MethodPost, "job-boards", &buf, mw.FormDataContentType(), &resp)
	return resp, err
}

// GetJobBoard accepts an id or a slug.
func (c *Client) GetJobBoard(ctx context.Context, board string) (JobBoard, error) {
	var resp JobBoard
	err := c.do(ctx, http.MethodGet, "job-boards/"+url.PathEscape(board), nil, &resp)
	return resp, err
}

func (c *Client) CreateJobPost(ctx context.Context, board, title string, salary float64) (JobPost, error) {
	body := map[string]any{"title": title, "salary": salary}
	var resp JobPost
	err := c.do(ctx, http.MethodPost, "job-boards/"+url.PathEscape(board)+"/posts", body, &resp)
	return resp, err
}

func (c *Client) ListJobPosts(ctx context.Context, board string) ([]JobPost, error) {
	var resp []JobPost
	err := c.do(ctx, http.MethodGet, "job-boards/"+url.PathEscape(board)+"/posts", nil, &resp)
	return resp, err
}

// EventsPage returns a paginated event listing.
func (c *Client) EventsPage(ctx context.Context, entityKind string, entityID int64, limit int, cursor string) (PaginatedEvents, error) {
	q := url.Values{}
	if entityKind != "" {
		q.Set("entity_kind", entityKind)
	}
	if entityID != 0 {
		q.Set("entity_id", strconv.FormatInt(entityID, 10))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, withQuery("events", q), nil, &resp)
	return resp, err
}

func withQuery(endpoint string, q url.Values) string {
	if len(q) == 0 {
		return endpoint
	}
	return endpoint + "?" + q.Encode()
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	return c.send(ctx, method, endpoint, &buf, "application/json", out)
}

func (c *Client) send(ctx context.Context, method, endpoint string, body io.Reader, contentType string, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	u := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
