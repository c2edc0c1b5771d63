package vault

// effects is the undo log of one ledger operation. Undo steps apply inverse
// deltas rather than restoring old values, so rolling one operation back
// leaves intact whatever reentrant operations committed in the meantime:
// their transfers already happened and their entries must stand.
type effects struct {
	undo []func()
}

func (e *effects) record(undo func()) {
	e.undo = append(e.undo, undo)
}

// rollback undoes the recorded steps, newest first.
func (e *effects) rollback() {
	for i := len(e.undo) - 1; i >= 0; i-- {
		e.undo[i]()
	}
	e.undo = nil
}
