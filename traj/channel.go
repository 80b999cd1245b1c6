/*
Copyright © 2021 the MolTraj authors.
This file is part of MolTraj.

MolTraj is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

MolTraj is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with MolTraj.  If not, see <http://www.gnu.org/licenses/>.
*/

package traj

import "sync"

// Channel is a bounded blocking queue carrying frames from the reader to
// a worker, with a one-way stop bit. Send blocks on backpressure; Recv
// drains buffered frames even after a stop. Both are safe for concurrent
// use.
type Channel struct {
	mu    sync.Mutex
	cond  *sync.Cond
	queue []*DataContainer
	cap   int
	stop  bool
}

// NewChannel creates a channel with the given capacity (minimum 1).
func NewChannel(capacity int) *Channel {
	if capacity < 1 {
		capacity = 1
	}
	c := &Channel{cap: capacity}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Send enqueues a frame, blocking while the buffer is full. It returns
// false, dropping the frame, if a stop was requested before space became
// available.
func (c *Channel) Send(d *DataContainer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.queue) >= c.cap && !c.stop {
		c.cond.Wait()
	}
	if c.stop {
		return false
	}
	c.queue = append(c.queue, d)
	c.cond.Broadcast()
	return true
}

// Recv dequeues the next frame, blocking while the buffer is empty. It
// returns false once a stop was requested and the buffer has drained.
func (c *Channel) Recv() (*DataContainer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.queue) == 0 && !c.stop {
		c.cond.Wait()
	}
	if c.stop && len(c.queue) == 0 {
		return nil, false
	}
	d := c.queue[0]
	c.queue = c.queue[1:]
	c.cond.Broadcast()
	return d, true
}

// SendStop requests a stop: pending and future Sends return false,
// pending Recvs drain the buffer and then return false. Idempotent and
// irreversible.
func (c *Channel) SendStop() {
	c.mu.Lock()
	c.stop = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

// Empty reports whether the buffer is currently empty.
func (c *Channel) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue) == 0
}
