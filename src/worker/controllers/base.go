package controllers

import (
	"context"
	"sort"
	"sync"

	"housetrades/src/models"
	"housetrades/src/scheduler"
	"housetrades/src/schemas"
	"housetrades/src/services"
	"housetrades/src/utils"

	"github.com/sirupsen/logrus"
)

type Controller struct {
	Ingestion      services.IngestionServiceI
	Validation     services.ValidationServiceI
	Logger         *logrus.Logger
	SchedulerMutex sync.Mutex
	Schedulers     map[string]*scheduler.ScheduledTask
}

func NewController(ingestion services.IngestionServiceI, validation services.ValidationServiceI, logger *logrus.Logger) *Controller {
	return &Controller{
		Ingestion:      ingestion,
		Validation:     validation,
		Logger:         logger,
		SchedulerMutex: sync.Mutex{},
		Schedulers:     map[string]*scheduler.ScheduledTask{},
	}
}

func (c *Controller) RunIngestion(ctx context.Context, kind string) ([]models.IngestionRun, error) {
	return c.Ingestion.Run(utils.WithLogger(ctx, c.Logger), kind)
}

func (c *Controller) RecentRuns(ctx context.Context, limit int) ([]models.IngestionRun, error) {
	return c.Ingestion.RecentRuns(ctx, limit)
}

func (c *Controller) ValidateStored(ctx context.Context) (*schemas.ValidationReport, error) {
	return c.Validation.ValidateStored(ctx)
}

// ScheduleIngestion runs kind on cronSpec, replacing any schedule already
// registered for that kind.
func (c *Controller) ScheduleIngestion(kind, cronSpec string) error {
	c.SchedulerMutex.Lock()
	defer c.SchedulerMutex.Unlock()

	if existingTask, exists := c.Schedulers[kind]; exists {
		existingTask.Cancel()
		delete(c.Schedulers, kind)
	}

	newTask, err := scheduler.NewScheduledTask(cronSpec, func(ctx context.Context) {
		logger := c.Logger.WithFields(logrus.Fields{"kind": kind, "cron": cronSpec})
		logger.Info("Scheduled ingestion started")
		runs, err := c.RunIngestion(ctx, kind)
		if err != nil {
			logger.WithError(err).Error("Scheduled ingestion failed")
			return
		}
		logger.WithField("runs", len(runs)).Info("Scheduled ingestion finished")
	})
	if err != nil {
		return err
	}
	c.Schedulers[kind] = newTask
	return nil
}

// GetSchedules lists the registered schedules ordered by kind.
func (c *Controller) GetSchedules() []schemas.ScheduleResponse {
	c.SchedulerMutex.Lock()
	defer c.SchedulerMutex.Unlock()

	schedules := make([]schemas.ScheduleResponse, 0, len(c.Schedulers))
	for kind, task := range c.Schedulers {
		schedules = append(schedules, schemas.ScheduleResponse{Kind: kind, Cron: task.Spec, Next: task.Next()})
	}
	sort.Slice(schedules, func(i, j int) bool { return schedules[i].Kind < schedules[j].Kind })
	return schedules
}

// CancelSchedules stops every registered schedule.
func (c *Controller) CancelSchedules() {
	c.SchedulerMutex.Lock()
	defer c.SchedulerMutex.Unlock()

	for kind, task := range c.Schedulers {
		task.Cancel()
		delete(c.Schedulers, kind)
	}
}
