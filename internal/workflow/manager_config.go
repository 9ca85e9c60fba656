package workflow

import "airwaves/internal/queue"

// ConfigureHandlers registers the job handlers the workflow will run. A nil
// handler leaves its queue without workers.
func (m *Manager) ConfigureHandlers(set HandlerSet) {
	lanes := make(map[string]*laneState)
	order := make([]string, 0, 2)

	if set.Scrape != nil {
		lanes[queue.QueueScrape] = laneFor(queue.QueueScrape, set.Scrape, m.cfg.Queue.ScrapeConcurrency)
		order = append(order, queue.QueueScrape)
	}
	if set.Process != nil {
		lanes[queue.QueueProcess] = laneFor(queue.QueueProcess, set.Process, m.cfg.Queue.ProcessConcurrency)
		order = append(order, queue.QueueProcess)
	}

	m.mu.Lock()
	m.lanes = lanes
	m.laneOrder = order
	m.mu.Unlock()
}
