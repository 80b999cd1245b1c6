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

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func frame(i int) *DataContainer {
	return &DataContainer{Info: FrameInfo{AbsFrame: i}}
}

func TestChannelFIFO(t *testing.T) {
	c := NewChannel(4)
	for i := 0; i < 4; i++ {
		require.True(t, c.Send(frame(i)))
	}
	for i := 0; i < 4; i++ {
		d, ok := c.Recv()
		require.True(t, ok)
		require.Equal(t, i, d.Info.AbsFrame)
	}
	require.True(t, c.Empty())
}

func TestChannelBackpressure(t *testing.T) {
	c := NewChannel(1)
	require.True(t, c.Send(frame(0)))

	done := make(chan bool, 1)
	go func() {
		done <- c.Send(frame(1)) // blocks until a slot frees up
	}()

	select {
	case <-done:
		t.Fatal("send did not block on a full channel")
	case <-time.After(20 * time.Millisecond):
	}

	_, ok := c.Recv()
	require.True(t, ok)
	require.True(t, <-done)
}

func TestChannelStopUnblocksSend(t *testing.T) {
	c := NewChannel(1)
	require.True(t, c.Send(frame(0)))

	done := make(chan bool, 1)
	go func() {
		done <- c.Send(frame(1))
	}()
	time.Sleep(10 * time.Millisecond)
	c.SendStop()

	// The blocked send returns false and the frame is dropped.
	require.False(t, <-done)
	// A send after the stop also fails.
	require.False(t, c.Send(frame(2)))
}

func TestChannelStopDrains(t *testing.T) {
	c := NewChannel(4)
	require.True(t, c.Send(frame(0)))
	require.True(t, c.Send(frame(1)))
	c.SendStop()

	// Buffered frames are still delivered after the stop.
	d, ok := c.Recv()
	require.True(t, ok)
	require.Equal(t, 0, d.Info.AbsFrame)
	d, ok = c.Recv()
	require.True(t, ok)
	require.Equal(t, 1, d.Info.AbsFrame)

	// Then the channel reports closed.
	_, ok = c.Recv()
	require.False(t, ok)
}

func TestChannelStopIdempotent(t *testing.T) {
	c := NewChannel(1)
	c.SendStop()
	c.SendStop()
	_, ok := c.Recv()
	require.False(t, ok)
}
