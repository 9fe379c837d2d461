package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/visual-pipeline-go/pkg/models"
)

// PipelineEvent represents a pipeline lifecycle event
type PipelineEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	SubmissionID   string                 `json:"submission_id"`
	State          models.SubmissionState `json:"state,omitempty"`
	Progress       int                    `json:"progress"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of pipeline event
type EventType string

const (
	// SubmissionStarted when a submission enters the pipeline
	SubmissionStarted EventType = "submission_started"
	// StepCompleted when a pipeline step finishes
	StepCompleted EventType = "step_completed"
	// SubmissionCompleted when the full pipeline finishes successfully
	SubmissionCompleted EventType = "submission_completed"
	// SubmissionFailed when the pipeline fails or is cancelled
	SubmissionFailed EventType = "submission_failed"
	// SourceFetched when the source image is successfully fetched
	SourceFetched EventType = "source_fetched"
	// SourceFetchFailed when the source image fetch fails
	SourceFetchFailed EventType = "source_fetch_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event PipelineEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event PipelineEvent)
}

// LoggingObserver logs pipeline events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles pipeline events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event PipelineEvent) {
	fields := logrus.Fields{
		"event_type":    event.EventType,
		"submission_id": event.SubmissionID,
		"progress":      event.Progress,
	}

	if event.State != "" {
		fields["state"] = event.State
	}
	if event.ProcessingTime > 0 {
		fields["processing_time"] = event.ProcessingTime
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	switch event.EventType {
	case SubmissionStarted:
		o.logger.WithFields(fields).Info("Submission started")
	case StepCompleted:
		o.logger.WithFields(fields).Debug("Pipeline step completed")
	case SubmissionCompleted:
		o.logger.WithFields(fields).Info("Submission completed")
	case SubmissionFailed:
		o.logger.WithFields(fields).Error("Submission failed")
	case SourceFetched:
		o.logger.WithFields(fields).Debug("Source image fetched")
	case SourceFetchFailed:
		o.logger.WithFields(fields).Error("Source image fetch failed")
	default:
		o.logger.WithFields(fields).Info("Pipeline event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects metrics from pipeline events
type MetricsObserver struct {
	mu                    sync.RWMutex
	totalSubmissions      int64
	successfulSubmissions int64
	failedSubmissions     int64
	totalProcessingTime   time.Duration
	stepCounts            map[models.SubmissionState]int64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		stepCounts: make(map[models.SubmissionState]int64),
	}
}

// OnEvent handles pipeline events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event PipelineEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case SubmissionStarted:
		o.totalSubmissions++
	case StepCompleted:
		o.stepCounts[event.State]++
	case SubmissionCompleted:
		o.successfulSubmissions++
		o.totalProcessingTime += event.ProcessingTime
	case SubmissionFailed:
		o.failedSubmissions++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.successfulSubmissions > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.successfulSubmissions)
	}

	steps := make(map[string]int64, len(o.stepCounts))
	for state, count := range o.stepCounts {
		steps[string(state)] = count
	}

	return map[string]interface{}{
		"total_submissions":      o.totalSubmissions,
		"successful_submissions": o.successfulSubmissions,
		"failed_submissions":     o.failedSubmissions,
		"total_processing_time":  o.totalProcessingTime,
		"avg_processing_time":    avgProcessingTime,
		"step_counts":            steps,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event PipelineEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	// Notify observers concurrently
	for _, observer := range observers {
		go func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					// Log panic but don't crash the application
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}
