package shop

type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// nextStatus is the admin cycle. Cancelled wraps back to pending so a
// cancelled order can be reopened.
var nextStatus = map[Status]Status{
	StatusPending:   StatusPreparing,
	StatusPreparing: StatusCompleted,
	StatusCompleted: StatusCancelled,
	StatusCancelled: StatusPending,
}

func (s Status) Valid() bool {
	_, ok := nextStatus[s]
	return ok
}

// NextStatus returns the status that follows s in the admin cycle.
// Unrecognised statuses restart the cycle at pending.
func NextStatus(s Status) Status {
	if n, ok := nextStatus[s]; ok {
		return n
	}
	return StatusPending
}
