package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
)

// UserDeadlineSweeper warns one user about goals close to their deadline.
type UserDeadlineSweeper interface {
	CheckAndNotifyNearOverdueGoalsForUser(ctx context.Context, userID int64) (int, error)
}

// GoalOwnerLister lists the users that currently have active goals.
type GoalOwnerLister interface {
	ActiveGoalOwners(ctx context.Context) ([]int64, error)
}

// DeadlineJob runs the near-deadline sweep for a single user
type DeadlineJob struct {
	userID  int64
	sweeper UserDeadlineSweeper
}

func NewDeadlineJob(userID int64, sweeper UserDeadlineSweeper) *DeadlineJob {
	return &DeadlineJob{userID: userID, sweeper: sweeper}
}

func (j *DeadlineJob) Execute(ctx context.Context) error {
	notified, err := j.sweeper.CheckAndNotifyNearOverdueGoalsForUser(ctx, j.userID)
	if err != nil {
		return fmt.Errorf("deadline sweep failed: %w", err)
	}
	if notified > 0 {
		log.Printf("Deadline sweep for user %d: %d goal(s) notified", j.userID, notified)
	}
	return nil
}

func (j *DeadlineJob) UserID() string {
	return strconv.FormatInt(j.userID, 10)
}

func (j *DeadlineJob) Description() string {
	return fmt.Sprintf("Deadline sweep for user %d", j.userID)
}

// DeadlineJobProvider builds one DeadlineJob per user with active goals.
// The goal service satisfies both interfaces.
func DeadlineJobProvider(owners GoalOwnerLister, sweeper UserDeadlineSweeper) func(context.Context) ([]Job, error) {
	return func(ctx context.Context) ([]Job, error) {
		userIDs, err := owners.ActiveGoalOwners(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list goal owners: %w", err)
		}
		jobs := make([]Job, 0, len(userIDs))
		for _, id := range userIDs {
			jobs = append(jobs, NewDeadlineJob(id, sweeper))
		}
		return jobs, nil
	}
}
