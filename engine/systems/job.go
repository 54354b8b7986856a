package systems

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/spaghettifunk/anima-gfx/engine/core"
)

/**
 * @brief A unit of work for the job system. Run executes on a worker;
 * OnComplete and OnFailure execute on the engine thread inside Update.
 */
type JobTask struct {
	Name       string
	Run        func() (interface{}, error)
	OnComplete func(result interface{})
	OnFailure  func(err error)
}

type jobResult struct {
	task   JobTask
	result interface{}
	err    error
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	wg         sync.WaitGroup

	mu        sync.Mutex
	completed []jobResult
	pending   atomic.Int32
	closeOnce sync.Once
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, channelSize),
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				result, err := job.Run()
				if err != nil {
					core.LogError("job %s failed: %s", job.Name, err)
				}
				js.mu.Lock()
				js.completed = append(js.completed, jobResult{task: job, result: result, err: err})
				js.mu.Unlock()
			}
		}()
	}
}

/**
 * @brief Shuts the job system down. Queued jobs still run and their
 * callbacks are delivered before it returns.
 */
func (js *JobSystem) Shutdown() error {
	js.closeOnce.Do(func() {
		close(js.jobQueue)
	})
	js.wg.Wait()
	js.Update()
	return nil
}

/**
 * @brief Delivers finished jobs to their callbacks. Should happen once an
 * update cycle, on the engine thread.
 * @return The number of jobs delivered.
 */
func (js *JobSystem) Update() int {
	js.mu.Lock()
	done := js.completed
	js.completed = nil
	js.mu.Unlock()

	for _, r := range done {
		if r.err != nil {
			if r.task.OnFailure != nil {
				r.task.OnFailure(r.err)
			}
		} else if r.task.OnComplete != nil {
			r.task.OnComplete(r.result)
		}
		js.pending.Add(-1)
	}
	return len(done)
}

// Pending returns the number of submitted jobs whose callbacks have not run yet.
func (js *JobSystem) Pending() int {
	return int(js.pending.Load())
}

/**
 * @brief Submits the provided job to be queued for execution. Blocks while
 * the queue is full.
 */
func (js *JobSystem) Submit(jt JobTask) {
	js.pending.Add(1)
	js.jobQueue <- jt
}
