package tasks

// TaskSchedulerInterface defines the interface for background task
// scheduling. The composition root starts it once and stops it on
// shutdown:
//
//	scheduler := NewScheduler(ingestService)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
