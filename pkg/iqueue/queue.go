package iqueue

import (
	"container/list"
)

// Queue is an unbounded FIFO bridging a producer channel and a consumer
// channel through an in-memory list. Loop must be running for Send and
// Receive to make progress.
func New() *Queue {
	return &Queue{
		queue: list.New(),
		send:  make(chan interface{}, 1),
		recv:  make(chan interface{}, 1),
	}
}

type Queue struct {
	queue *list.List
	send  chan interface{}
	recv  chan interface{}
}

func (iq *Queue) Send(v interface{}) {
	iq.send <- v
}

func (iq *Queue) Receive() <-chan interface{} {
	return iq.recv
}

func (iq *Queue) Len() int {
	return iq.queue.Len()
}

// Queue exposes the backing list for draining on shutdown.
func (iq *Queue) Queue() *list.List {
	return iq.queue
}

// Close stops the queue; Loop drains buffered items to recv and then closes
// it.
func (iq *Queue) Close() {
	close(iq.send)
}

func (iq *Queue) Loop() {
	for {
		front := iq.queue.Front()
		if front != nil {
			select {
			case iq.recv <- front.Value:
				iq.queue.Remove(front)
			case value, ok := <-iq.send:
				if ok {
					iq.queue.PushBack(value)
				} else {
					iq.send = nil
				}
			}
			continue
		}

		if iq.send == nil {
			close(iq.recv)
			return
		}
		value, ok := <-iq.send
		if !ok {
			close(iq.recv)
			return
		}
		iq.queue.PushBack(value)
	}
}
