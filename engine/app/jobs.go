package app

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/finestra/engine/core"
)

// Job is a unit of background work, typically async plugin setup whose
// completion a plugin's Ready hook polls.
type Job struct {
	Run        func() error
	OnComplete func()
	OnFailure  func(error)
}

type Jobs struct {
	numWorkers int
	jobQueue   chan Job
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")

func NewJobs(numWorkers int, channelSize int) (*Jobs, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &Jobs{
		numWorkers: numWorkers,
		jobQueue:   make(chan Job, channelSize),
	}

	js.start()

	return js, nil
}

func (js *Jobs) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				if job.Run == nil {
					continue
				}
				if err := job.Run(); err != nil {
					core.LogError("job failed: %s", err.Error())
					if job.OnFailure != nil {
						job.OnFailure(err)
					}
				} else if job.OnComplete != nil {
					job.OnComplete()
				}
			}
		}()
	}
}

// Shutdown stops accepting work and blocks until queued jobs finish.
func (js *Jobs) Shutdown() error {
	js.closeOnce.Do(func() {
		close(js.jobQueue)
	})
	js.wg.Wait()
	return nil
}

// Submit queues the job, blocking while the queue is full.
func (js *Jobs) Submit(j Job) {
	js.jobQueue <- j
}

// SubmitNonBlocking queues the job from a fresh goroutine and returns
// immediately.
func (js *Jobs) SubmitNonBlocking(j Job) {
	go js.Submit(j)
}
