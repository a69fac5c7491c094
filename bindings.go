package zproc

import (
	"github.com/pkg/errors"

	"github.com/gregfurman/zproc/process"
)

// realizedBindings is the result of turning a runConfig's binding set into
// actual open descriptors: pipes, socketpairs, or adopted fds, one per
// bound handle.
type realizedBindings struct {
	entries   []*pumpEntry             // parent-side ends, handed to the pump
	childFDs  map[process.Handle]int   // handle -> child-side raw fd, or process.NoHandle to close only
	childEnds []process.FileDescriptor // parent's copies of the child-side ends; closed once the child has them
	keepFDs   map[int]struct{}         // handle numbers the post-fork leak sweep must not close; built here so the child never allocates a map after fork
}

func (r *realizedBindings) closeChildSide() {
	for i := range r.childEnds {
		r.childEnds[i].Close()
	}
}

func (r *realizedBindings) closeParentSide() {
	for _, e := range r.entries {
		e.fd.Close()
	}
}

func realizeBindings(rc *runConfig) (*realizedBindings, error) {
	r := &realizedBindings{childFDs: make(map[process.Handle]int)}

	for _, handle := range rc.order {
		b := rc.bindings[handle]

		switch {
		case handle == process.NoHandle:
			// A bare NoHandle binding is informational only: there is no
			// handle number to dup2 onto, so nothing to wire.
			continue

		case b.producer != nil && b.consumer != nil:
			parentEnd, childEnd, err := process.OpenBidirectional()
			if err != nil {
				r.closeParentSide()
				r.closeChildSide()
				return nil, errors.Wrapf(err, "bind handle %d", handle)
			}
			r.entries = append(r.entries, &pumpEntry{fd: parentEnd, producer: b.producer, consumer: b.consumer})
			r.childFDs[handle] = childEnd.Handle()
			r.childEnds = append(r.childEnds, childEnd)

		case b.producer != nil:
			if owner, ok := b.producer.(process.FDOwner); ok {
				if fd, ok := owner.OwnedFD(); ok {
					r.childFDs[handle] = fd.Handle()
					r.childEnds = append(r.childEnds, fd)
					continue
				}
			}

			readEnd, writeEnd, err := process.OpenUnidirectional()
			if err != nil {
				r.closeParentSide()
				r.closeChildSide()
				return nil, errors.Wrapf(err, "bind handle %d", handle)
			}
			r.entries = append(r.entries, &pumpEntry{fd: writeEnd, producer: b.producer})
			r.childFDs[handle] = readEnd.Handle()
			r.childEnds = append(r.childEnds, readEnd)

		case b.consumer != nil:
			if owner, ok := b.consumer.(process.FDOwner); ok {
				if fd, ok := owner.OwnedFD(); ok {
					r.childFDs[handle] = fd.Handle()
					r.childEnds = append(r.childEnds, fd)
					continue
				}
			}

			readEnd, writeEnd, err := process.OpenUnidirectional()
			if err != nil {
				r.closeParentSide()
				r.closeChildSide()
				return nil, errors.Wrapf(err, "bind handle %d", handle)
			}
			r.entries = append(r.entries, &pumpEntry{fd: readEnd, consumer: b.consumer})
			r.childFDs[handle] = writeEnd.Handle()
			r.childEnds = append(r.childEnds, writeEnd)

		default:
			// Neither bound: reserve the slot with NoHandle so the child
			// closes this handle before the leak sweep runs.
			r.childFDs[handle] = process.NoHandle
		}
	}

	r.keepFDs = make(map[int]struct{}, len(r.childFDs))
	for handle := range r.childFDs {
		r.keepFDs[handle] = struct{}{}
	}

	return r, nil
}
