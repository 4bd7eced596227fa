// Copyright (C) The Txsets Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package txsets

import (
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

type throttle struct {
	Max       int
	wg        sync.WaitGroup
	ch        chan bool
	err       atomic.Value
	setupOnce sync.Once
	errorOnce sync.Once
}

func (t *throttle) Acquire() {
	t.setupOnce.Do(func() { t.ch = make(chan bool, t.Max) })
	t.wg.Add(1)
	t.ch <- true
}

func (t *throttle) Release() {
	t.wg.Done()
	<-t.ch
}

func (t *throttle) Report(err error) {
	if err != nil {
		t.errorOnce.Do(func() { t.err.Store(err) })
	}
}

func (t *throttle) Err() error {
	err, _ := t.err.Load().(error)
	return err
}

func (t *throttle) Wait() error {
	t.wg.Wait()
	return t.Err()
}

// Go runs f in a goroutine, bounded by Max concurrent calls.
func (t *throttle) Go(f func() error) {
	t.Acquire()
	go func() {
		defer t.Release()
		t.Report(f())
	}()
}

// Instance is one named summary configuration: a partition and
// aggregation setup applied to the same loaded tables as its siblings.
// A study typically defines several instances (different dimension
// pairs, z-scored and raw scales) over one dataset.
type Instance struct {
	Name           string
	Params         InteractionParams
	OutputFilename string
}

// RunInstances runs one summary per instance, at most maxConcurrent at
// a time, and returns the first error. Remaining instances still run
// to completion so partial output sets are complete per instance.
func RunInstances(instances []Instance, maxConcurrent int, run func(Instance) error) error {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	t := throttle{Max: maxConcurrent}
	for _, inst := range instances {
		inst := inst
		t.Go(func() error {
			log.Infof("instance %s: running", inst.Name)
			err := run(inst)
			if err != nil {
				log.Errorf("instance %s: %s", inst.Name, err)
			} else {
				log.Infof("instance %s: done", inst.Name)
			}
			return err
		})
	}
	return t.Wait()
}
