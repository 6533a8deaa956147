package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/tphuong3108/timnhatro-BE/internal/config"
	"github.com/tphuong3108/timnhatro-BE/internal/logger"
	"github.com/tphuong3108/timnhatro-BE/internal/services"
)

// TaskType defines the type of a background task.
const (
	TypeEnforcementSweep = "moderation:sweep"
)

// sweepResultKey is where a finished sweep's summary is parked so the
// admin can poll for it after triggering an async run.
func sweepResultKey(taskID string) string {
	return "sweep:result:" + taskID
}

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// SweepTaskPayload carries nothing today; the sweep reads its thresholds
// from config. Kept as a struct so future options don't change the wire.
type SweepTaskPayload struct{}

// EnqueueSweep queues an enforcement sweep and returns the task id the
// admin can use to fetch the stored summary once the worker is done.
func EnqueueSweep(ctx context.Context, client *asynq.Client) (string, error) {
	payload, err := json.Marshal(SweepTaskPayload{})
	if err != nil {
		return "", fmt.Errorf("failed to marshal sweep payload: %w", err)
	}

	taskID := uuid.New().String()
	task := asynq.NewTask(TypeEnforcementSweep, payload)
	if _, err = client.EnqueueContext(ctx, task, asynq.TaskID(taskID), asynq.Queue("default")); err != nil {
		return "", fmt.Errorf("failed to enqueue sweep task: %w", err)
	}
	return taskID, nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg               *config.Config
	rdb               *redis.Client
	moderationService services.IModerationService
}

func NewTaskProcessor(
	cfg *config.Config,
	rdb *redis.Client,
	moderationService services.IModerationService,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:               cfg,
		rdb:               rdb,
		moderationService: moderationService,
	}
}

// SetupServer configures an Asynq server with the task handlers wired
// in. The caller runs it with srv.Run(mux) and stops it with
// srv.Shutdown().
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Log.WithField("taskType", task.Type()).WithError(err).Error("background task failed")
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEnforcementSweep, processor.HandleEnforcementSweepTask)
	logger.Log.Info("registered background task handlers")

	return srv, mux
}

// --- Task Handlers ---

// HandleEnforcementSweepTask runs the sweep and parks the summary in
// Redis under the task id so the triggering admin can retrieve it.
func (p *TaskProcessor) HandleEnforcementSweepTask(ctx context.Context, t *asynq.Task) error {
	var payload SweepTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal sweep task payload: %v: %w", err, asynq.SkipRetry)
	}

	summary, err := p.moderationService.RunEnforcementSweep(ctx)
	if err != nil {
		logger.Log.WithError(err).Error("enforcement sweep task failed")
		return err
	}

	taskID, _ := asynq.GetTaskID(ctx)
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal sweep summary: %v: %w", err, asynq.SkipRetry)
	}
	if err := p.rdb.Set(ctx, sweepResultKey(taskID), data, p.cfg.SweepResultTTL).Err(); err != nil {
		// The sweep itself succeeded; losing the stored summary is not
		// worth re-running the enforcement actions.
		logger.Log.WithField("taskId", taskID).WithError(err).Warn("failed to store sweep summary")
	}
	return nil
}

// GetSweepResult fetches a stored sweep summary by task id. The second
// return is false when the summary is not (or no longer) available.
func GetSweepResult(ctx context.Context, rdb *redis.Client, taskID string) (*services.SweepSummary, bool, error) {
	data, err := rdb.Get(ctx, sweepResultKey(taskID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load sweep result %s: %w", taskID, err)
	}

	var summary services.SweepSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, false, fmt.Errorf("failed to decode sweep result %s: %w", taskID, err)
	}
	return &summary, true, nil
}
