package audit

import "log"

// Event is the ambient audit trail record. ConflictAuditEntry rows are NOT
// dispatched through here: those are written synchronously inside the
// booking transaction because the override invariant is transactional.
type Event struct {
	MerchantID uint
	StaffID    *uint
	Action     string
	Entity     string
	EntityID   *uint
	Metadata   any
}

type Dispatcher struct {
	logger *Logger
	queue  chan Event
}

func NewDispatcher(logger *Logger) *Dispatcher {
	d := &Dispatcher{
		logger: logger,
		queue:  make(chan Event, 100),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	for ev := range d.queue {
		if err := d.logger.Log(
			ev.MerchantID,
			ev.StaffID,
			ev.Action,
			ev.Entity,
			ev.EntityID,
			ev.Metadata,
		); err != nil {
			log.Println("audit error:", err)
		}
	}
}

func (d *Dispatcher) Dispatch(ev Event) {
	select {
	case d.queue <- ev:
	default:
		// full queue drops trail events rather than blocking a request
		log.Println("audit queue full, dropping event")
	}
}
