package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TraceEvent represents a fringe trace lifecycle event
type TraceEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	ImageURL       string                 `json:"image_url"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Seeds          int                    `json:"seeds,omitempty"`
	AbortedSeeds   int                    `json:"aborted_seeds,omitempty"`
	ProfileFailed  bool                   `json:"profile_failed,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of trace event
type EventType string

const (
	// TraceStarted when a trace request is accepted
	TraceStarted EventType = "trace_started"
	// TraceCompleted when tracing finishes, with or without a profile
	TraceCompleted EventType = "trace_completed"
	// TraceFailed when no result could be produced
	TraceFailed EventType = "trace_failed"
	// ImageFetched when the interferogram was fetched and decoded
	ImageFetched EventType = "image_fetched"
	// ImageFetchFailed when the interferogram could not be fetched
	ImageFetchFailed EventType = "image_fetch_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event TraceEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event TraceEvent)
}

// LoggingObserver logs trace events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles trace events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event TraceEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"image_url":       event.ImageURL,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}

	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	if event.Seeds > 0 {
		fields["seeds"] = event.Seeds
		fields["aborted_seeds"] = event.AbortedSeeds
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case TraceStarted:
		entry.Info("Fringe trace started")
	case TraceCompleted:
		if event.ProfileFailed {
			entry.Warn("Fringe trace completed without profile")
		} else {
			entry.Info("Fringe trace completed")
		}
	case TraceFailed:
		entry.Error("Fringe trace failed")
	case ImageFetched:
		entry.Debug("Image fetched successfully")
	case ImageFetchFailed:
		entry.Error("Image fetch failed")
	default:
		entry.Info("Trace event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsSnapshot is a copy of the collected counters
type MetricsSnapshot struct {
	TotalTraces         int64
	SuccessfulTraces    int64
	FailedTraces        int64
	AbortedSeeds        int64
	ProfileFailures     int64
	TotalProcessingTime time.Duration
	AvgProcessingTime   time.Duration
}

// MetricsObserver collects metrics from trace events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalTraces         int64
	successfulTraces    int64
	failedTraces        int64
	abortedSeeds        int64
	profileFailures     int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles trace events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event TraceEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case TraceStarted:
		o.totalTraces++
	case TraceCompleted:
		o.successfulTraces++
		o.abortedSeeds += int64(event.AbortedSeeds)
		if event.ProfileFailed {
			o.profileFailures++
		}
		o.totalProcessingTime += event.ProcessingTime
	case TraceFailed:
		o.failedTraces++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() MetricsSnapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avg := time.Duration(0)
	if o.successfulTraces > 0 {
		avg = o.totalProcessingTime / time.Duration(o.successfulTraces)
	}

	return MetricsSnapshot{
		TotalTraces:         o.totalTraces,
		SuccessfulTraces:    o.successfulTraces,
		FailedTraces:        o.failedTraces,
		AbortedSeeds:        o.abortedSeeds,
		ProfileFailures:     o.profileFailures,
		TotalProcessingTime: o.totalProcessingTime,
		AvgProcessingTime:   avg,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	async     bool
}

// NewEventPublisher creates a publisher that notifies observers concurrently
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
		async:     true,
	}
}

// NewSyncEventPublisher creates a publisher that notifies observers in
// subscription order before returning
func NewSyncEventPublisher() *EventPublisher {
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
func (p *EventPublisher) NotifyObservers(ctx context.Context, event TraceEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		if p.async {
			go notify(ctx, observer, event)
		} else {
			notify(ctx, observer, event)
		}
	}
}

func notify(ctx context.Context, obs Observer, event TraceEvent) {
	defer func() {
		if r := recover(); r != nil {
			// Log panic but don't crash the application
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
