package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	db "github.com/AniketAslaliya/swe-fog-latency-optimization/config/storage/postgresql"
	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/domain"
	"github.com/AniketAslaliya/swe-fog-latency-optimization/internal/core/port"
)

type runRepository struct {
	db  *db.DB
	log *zap.Logger
}

// NewRunRepository creates a new postgres repository for run results
func NewRunRepository(database *db.DB, log *zap.Logger) port.ResultRepository {
	return &runRepository{
		db:  database,
		log: log,
	}
}

// SaveRun persists the run header and its tasks, events, samples and failures
// in one transaction.
func (r *runRepository) SaveRun(ctx context.Context, run *domain.RunResult) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	qb := r.db.QueryBuilder

	query, args, err := qb.Insert("simulation_runs").
		Columns("started_at", "duration", "policy", "total_tasks", "completed", "failed",
			"timed_out", "mean_response_time", "mean_processing_time", "mean_decision_time",
			"offloading_rate").
		Values(run.StartedAt, run.Duration, run.PolicyName, run.Summary.TotalTasks,
			run.Summary.Completed, run.Summary.Failed, run.Summary.TimedOut,
			run.Summary.MeanResponseTime, run.Summary.MeanProcessingTime,
			run.Summary.MeanDecisionTime, run.Summary.OffloadingRate).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return err
	}

	var runID int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&runID); err != nil {
		r.log.Error("Failed to insert run", zap.Error(err))
		return err
	}

	if len(run.Tasks) > 0 {
		ins := qb.Insert("run_tasks").
			Columns("run_id", "task_id", "source_device", "priority", "complexity", "data_size",
				"status", "decision", "decision_reason", "processed_by", "network_latency",
				"created_at_sim", "deadline", "arrived_at", "started_at", "finished_at")
		for _, t := range run.Tasks {
			ins = ins.Values(runID, t.ID, t.SourceDevice, t.Priority, t.Complexity, t.DataSize,
				t.Status, t.Decision, t.DecisionReason, t.ProcessedBy, t.NetworkLatency,
				t.CreatedAt, t.Deadline, t.ArrivedAt, t.StartedAt, t.FinishedAt)
		}
		if err := execInsert(ctx, tx, ins); err != nil {
			r.log.Error("Failed to insert run tasks", zap.Error(err))
			return err
		}
	}

	if len(run.Events) > 0 {
		ins := qb.Insert("run_events").
			Columns("run_id", "event_type", "task_id", "node_id", "ts", "decision", "reason")
		for _, e := range run.Events {
			ins = ins.Values(runID, e.Type, e.TaskID, e.NodeID, e.Timestamp, e.Decision, e.Reason)
		}
		if err := execInsert(ctx, tx, ins); err != nil {
			r.log.Error("Failed to insert run events", zap.Error(err))
			return err
		}
	}

	if len(run.Samples) > 0 {
		ins := qb.Insert("run_samples").
			Columns("run_id", "node_id", "node_type", "ts", "utilization", "queue_length", "capacity")
		for _, s := range run.Samples {
			ins = ins.Values(runID, s.NodeID, s.NodeType, s.Timestamp, s.Utilization, s.QueueLength, s.Capacity)
		}
		if err := execInsert(ctx, tx, ins); err != nil {
			r.log.Error("Failed to insert run samples", zap.Error(err))
			return err
		}
	}

	if len(run.Failures) > 0 {
		ins := qb.Insert("run_failures").
			Columns("run_id", "node_id", "failure_time", "recovery_time", "duration")
		for _, f := range run.Failures {
			ins = ins.Values(runID, f.NodeID, f.FailureTime, f.RecoveryTime, f.Duration)
		}
		if err := execInsert(ctx, tx, ins); err != nil {
			r.log.Error("Failed to insert run failures", zap.Error(err))
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	r.log.Info("Saved simulation run",
		zap.Int64("run_id", runID),
		zap.Int("tasks", len(run.Tasks)),
		zap.Int("events", len(run.Events)))
	return nil
}

func execInsert(ctx context.Context, tx pgx.Tx, ins squirrel.InsertBuilder) error {
	query, args, err := ins.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, query, args...)
	return err
}
