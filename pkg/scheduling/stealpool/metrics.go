package stealpool

import "time"

const (
	routeLocal  = "local"
	routeShared = "shared"
)

// The observe helpers are no-ops unless Config.Metrics is set.

func (p *Pool) observeSize() {
	if m := p.config.Metrics; m != nil {
		m.PoolSize.WithLabelValues(p.config.Name).Set(float64(len(p.workers)))
	}
}

func (p *Pool) observeSubmit(route string) {
	m := p.config.Metrics
	if m == nil {
		return
	}
	m.TasksSubmitted.WithLabelValues(p.config.Name, route).Inc()
	if route == routeShared {
		p.observeQueue()
	}
}

func (p *Pool) observeQueue() {
	if m := p.config.Metrics; m != nil {
		m.SharedQueueDepth.WithLabelValues(p.config.Name).Set(float64(p.shared.Len()))
	}
}

func (p *Pool) observeActive() {
	if m := p.config.Metrics; m != nil {
		m.PoolActive.WithLabelValues(p.config.Name).Set(float64(p.active.Load()))
	}
}

func (p *Pool) observeExecution(duration time.Duration, err error, stolen bool) {
	m := p.config.Metrics
	if m == nil {
		return
	}
	name := p.config.Name

	m.TaskDuration.WithLabelValues(name).Observe(duration.Seconds())
	m.TasksExecuted.WithLabelValues(name).Inc()
	if err != nil {
		m.TasksFailed.WithLabelValues(name).Inc()
	} else {
		m.TasksCompleted.WithLabelValues(name).Inc()
	}
	if stolen {
		m.TasksStolen.WithLabelValues(name).Inc()
	}
	p.observeQueue()
}

func (p *Pool) observeAbandoned(n int) {
	if m := p.config.Metrics; m != nil && n > 0 {
		m.TasksAbandoned.WithLabelValues(p.config.Name).Add(float64(n))
	}
}
