// Copyright (C) The Txsets Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package txsets

import (
	"errors"
	"sync"
	"sync/atomic"

	"gopkg.in/check.v1"
)

type instanceSuite struct{}

var _ = check.Suite(&instanceSuite{})

func (s *instanceSuite) TestRunInstances(c *check.C) {
	instances := []Instance{
		{Name: "one"}, {Name: "two"}, {Name: "three"}, {Name: "four"},
	}
	var mtx sync.Mutex
	ran := map[string]bool{}
	err := RunInstances(instances, 2, func(inst Instance) error {
		mtx.Lock()
		defer mtx.Unlock()
		ran[inst.Name] = true
		return nil
	})
	c.Assert(err, check.IsNil)
	c.Check(ran, check.HasLen, 4)
}

func (s *instanceSuite) TestFirstErrorReturned(c *check.C) {
	instances := []Instance{
		{Name: "ok"}, {Name: "bad"}, {Name: "also-ok"},
	}
	var ran int64
	err := RunInstances(instances, 1, func(inst Instance) error {
		atomic.AddInt64(&ran, 1)
		if inst.Name == "bad" {
			return errors.New("boom")
		}
		return nil
	})
	c.Check(err, check.ErrorMatches, "boom")
	// remaining instances still run
	c.Check(atomic.LoadInt64(&ran), check.Equals, int64(3))
}

func (s *instanceSuite) TestConcurrencyBound(c *check.C) {
	var cur, max int64
	instances := make([]Instance, 16)
	err := RunInstances(instances, 3, func(Instance) error {
		n := atomic.AddInt64(&cur, 1)
		for {
			m := atomic.LoadInt64(&max)
			if n <= m || atomic.CompareAndSwapInt64(&max, m, n) {
				break
			}
		}
		atomic.AddInt64(&cur, -1)
		return nil
	})
	c.Assert(err, check.IsNil)
	c.Check(atomic.LoadInt64(&max) <= 3, check.Equals, true)
}
