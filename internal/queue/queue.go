package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	QueueSynthesize = "queue:synthesize"
	QueueCloneVoice = "queue:clone_voice"
)

type Queue struct {
	client *redis.Client
}

type Job struct {
	ID        uuid.UUID              `json:"id"`
	Type      string                 `json:"type"`
	JobID     *uuid.UUID             `json:"job_id,omitempty"`   // synthesis job
	CloneID   *uuid.UUID             `json:"clone_id,omitempty"` // voice clone
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func New(redisURL string) (*Queue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Queue{client: client}, nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}

func (q *Queue) Enqueue(ctx context.Context, queueName string, job *Job) error {
	job.CreatedAt = time.Now()

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return q.client.RPush(ctx, queueName, data).Err()
}

func (q *Queue) Dequeue(ctx context.Context, queueName string, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, queueName).Result()
	if err == redis.Nil {
		return nil, nil // No job available
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue: %w", err)
	}

	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected redis response")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

func (q *Queue) GetQueueLength(ctx context.Context, queueName string) (int64, error) {
	return q.client.LLen(ctx, queueName).Result()
}

// EnqueueSynthesize enqueues a text-to-speech synthesis job
func (q *Queue) EnqueueSynthesize(ctx context.Context, jobID uuid.UUID) error {
	job := &Job{
		ID:    uuid.New(),
		Type:  "synthesize",
		JobID: &jobID,
	}
	return q.Enqueue(ctx, QueueSynthesize, job)
}

// EnqueueCloneVoice enqueues a voice clone build job
func (q *Queue) EnqueueCloneVoice(ctx context.Context, cloneID uuid.UUID) error {
	job := &Job{
		ID:      uuid.New(),
		Type:    "clone_voice",
		CloneID: &cloneID,
	}
	return q.Enqueue(ctx, QueueCloneVoice, job)
}
