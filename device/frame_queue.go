package device

// frameQueue is the dequeue side of a driver buffer ring.
type frameQueue interface {
	WaitForFrame(timeout uint32) error
	ReadFrame() ([]byte, error)
}

// maxDrain bounds how many queued buffers one read may skip.
const maxDrain = 64

// readLatest waits up to timeout seconds for a filled buffer, then keeps
// dequeuing while more are already waiting, so only the newest frame is
// returned. Errors from the first wait or read are returned as is.
func readLatest(q frameQueue, timeout uint32) ([]byte, error) {
	if err := q.WaitForFrame(timeout); err != nil {
		return nil, err
	}
	buf, err := q.ReadFrame()
	if err != nil {
		return nil, err
	}
	for i := 0; i < maxDrain && q.WaitForFrame(0) == nil; i++ {
		next, err := q.ReadFrame()
		if err != nil || len(next) == 0 {
			break
		}
		buf = next
	}
	return buf, nil
}
