package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"hireline/internal/domain"
)

const (
	kindJob       = "job"
	kindCandidate = "candidate"
	kindMessage   = "message"
	kindBoard     = "job_board"
	kindPost      = "job_post"
	kindEvent     = "event"
)

// Redis is a Store keeping each record as a JSON string under
// <prefix>:<kind>:<id>, with ids drawn from INCR <prefix>:<kind>:seq and
// indexed in the sorted set <prefix>:<kind>:ids.
type Redis struct {
	Client *redis.Client
	Prefix string
}

var _ Store = Redis{}

func NewRedis(client *redis.Client, prefix string) Redis {
	if prefix == "" {
		prefix = "hireline"
	}
	return Redis{Client: client, Prefix: prefix}
}

func (r Redis) key(parts ...string) string {
	k := r.Prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (r Redis) recordKey(kind string, id int64) string {
	return r.key(kind, strconv.FormatInt(id, 10))
}

func (r Redis) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

func (r Redis) Close() error {
	return r.Client.Close()
}

func (r Redis) nextID(ctx context.Context, kind string) (int64, error) {
	id, err := r.Client.Incr(ctx, r.key(kind, "seq")).Result()
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", kind, err)
	}
	return id, nil
}

func redisPut[T any](ctx context.Context, r Redis, kind string, id int64, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = r.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.recordKey(kind, id), data, 0)
		p.ZAdd(ctx, r.key(kind, "ids"), redis.Z{Score: float64(id), Member: id})
		return nil
	})
	if err != nil {
		return fmt.Errorf("store %s %d: %w", kind, id, err)
	}
	return nil
}

func redisGet[T any](ctx context.Context, r Redis, kind string, id int64) (T, error) {
	var v T
	data, err := r.Client.Get(ctx, r.recordKey(kind, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return v, ErrNotFound
	}
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %s %d: %w", kind, id, err)
	}
	return v, nil
}

func redisList[T any](ctx context.Context, r Redis, kind string, keep func(T) bool) ([]T, error) {
	ids, err := r.Client.ZRange(ctx, r.key(kind, "ids"), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	res := make([]T, 0, len(ids))
	if len(ids) == 0 {
		return res, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(kind, id)
	}
	vals, err := r.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, raw := range vals {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		var v T
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		if keep(v) {
			res = append(res, v)
		}
	}
	return res, nil
}

func redisReplace[T any](ctx context.Context, r Redis, kind string, id int64, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ok, err := r.Client.SetXX(ctx, r.recordKey(kind, id), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (r Redis) CreateJob(ctx context.Context, j domain.Job) (domain.Job, error) {
	id, err := r.nextID(ctx, kindJob)
	if err != nil {
		return domain.Job{}, err
	}
	j.ID = id
	return j, redisPut(ctx, r, kindJob, id, j)
}

func (r Redis) GetJob(ctx context.Context, id int64) (domain.Job, error) {
	return redisGet[domain.Job](ctx, r, kindJob, id)
}

func (r Redis) ListJobs(ctx context.Context, f JobFilter) ([]domain.Job, error) {
	return redisList(ctx, r, kindJob, f.match)
}

func (r Redis) ReplaceJob(ctx context.Context, j domain.Job) (domain.Job, error) {
	return j, redisReplace(ctx, r, kindJob, j.ID, j)
}

func (r Redis) DeleteJob(ctx context.Context, id int64) error {
	var del *redis.IntCmd
	_, err := r.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, r.recordKey(kindJob, id))
		p.ZRem(ctx, r.key(kindJob, "ids"), id)
		return nil
	})
	if err != nil {
		return err
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Redis) CreateCandidate(ctx context.Context, c domain.Candidate) (domain.Candidate, error) {
	id, err := r.nextID(ctx, kindCandidate)
	if err != nil {
		return domain.Candidate{}, err
	}
	c.ID = id
	return c, redisPut(ctx, r, kindCandidate, id, c)
}

func (r Redis) GetCandidate(ctx context.Context, id int64) (domain.Candidate, error) {
	return redisGet[domain.Candidate](ctx, r, kindCandidate, id)
}

func (r Redis) ListCandidates(ctx context.Context, f CandidateFilter) ([]domain.Candidate, error) {
	return redisList(ctx, r, kindCandidate, f.match)
}

func (r Redis) ReplaceCandidate(ctx context.Context, c domain.Candidate) (domain.Candidate, error) {
	return c, redisReplace(ctx, r, kindCandidate, c.ID, c)
}

func (r Redis) CreateMessage(ctx context.Context, m domain.Message) (domain.Message, error) {
	id, err := r.nextID(ctx, kindMessage)
	if err != nil {
		return domain.Message{}, err
	}
	m.ID = id
	return m, redisPut(ctx, r, kindMessage, id, m)
}

func (r Redis) GetMessage(ctx context.Context, id int64) (domain.Message, error) {
	return redisGet[domain.Message](ctx, r, kindMessage, id)
}

func (r Redis) ListMessages(ctx context.Context, f MessageFilter) ([]domain.Message, error) {
	return redisList(ctx, r, kindMessage, f.match)
}

func (r Redis) CreateJobBoard(ctx context.Context, b domain.JobBoard) (domain.JobBoard, error) {
	id, err := r.nextID(ctx, kindBoard)
	if err != nil {
		return domain.JobBoard{}, err
	}
	claimed, err := r.Client.SetNX(ctx, r.key(kindBoard, "slug", b.Slug), id, 0).Result()
	if err != nil {
		return domain.JobBoard{}, err
	}
	if !claimed {
		return domain.JobBoard{}, fmt.Errorf("job board slug %q already exists: %w", b.Slug, ErrConflict)
	}
	b.ID = id
	return b, redisPut(ctx, r, kindBoard, id, b)
}

func (r Redis) GetJobBoard(ctx context.Context, id int64) (domain.JobBoard, error) {
	return redisGet[domain.JobBoard](ctx, r, kindBoard, id)
}

func (r Redis) GetJobBoardBySlug(ctx context.Context, slug string) (domain.JobBoard, error) {
	id, err := r.Client.Get(ctx, r.key(kindBoard, "slug", slug)).Int64()
	if errors.Is(err, redis.Nil) {
		return domain.JobBoard{}, ErrNotFound
	}
	if err != nil {
		return domain.JobBoard{}, err
	}
	return r.GetJobBoard(ctx, id)
}

func (r Redis) ListJobBoards(ctx context.Context) ([]domain.JobBoard, error) {
	return redisList(ctx, r, kindBoard, func(domain.JobBoard) bool { return true })
}

func (r Redis) CreateJobPost(ctx context.Context, p domain.JobPost) (domain.JobPost, error) {
	n, err := r.Client.Exists(ctx, r.recordKey(kindBoard, p.JobBoardID)).Result()
	if err != nil {
		return domain.JobPost{}, err
	}
	if n == 0 {
		return domain.JobPost{}, fmt.Errorf("job board %d: %w", p.JobBoardID, ErrNotFound)
	}
	id, err := r.nextID(ctx, kindPost)
	if err != nil {
		return domain.JobPost{}, err
	}
	p.ID = id
	return p, redisPut(ctx, r, kindPost, id, p)
}

func (r Redis) ListJobPosts(ctx context.Context, f JobPostFilter) ([]domain.JobPost, error) {
	return redisList(ctx, r, kindPost, f.match)
}

func (r Redis) AppendEvent(ctx context.Context, e domain.Event) (domain.Event, error) {
	if e.Payload == "" {
		e.Payload = "{}"
	}
	id, err := r.nextID(ctx, kindEvent)
	if err != nil {
		return domain.Event{}, err
	}
	e.ID = id
	return e, redisPut(ctx, r, kindEvent, id, e)
}

func (r Redis) ListEvents(ctx context.Context, f EventFilter) ([]domain.Event, error) {
	return redisList(ctx, r, kindEvent, f.match)
}
