package bead

// Resolution is the derived "active bead" view of a store.
type Resolution struct {
	// Rotating drives echo question rotation. Nil outside the echo tab when
	// nothing is selected.
	Rotating *Bead `json:"rotating"`
	// ActiveModal is the target of edit and reflect actions. Nil only when
	// the selected id no longer exists in the collection.
	ActiveModal *Bead `json:"activeModal"`
	// QueueEmpty tells the client to render the caught-up state on the echo
	// tab; the fallback is still returned as Rotating.
	QueueEmpty bool `json:"queueEmpty"`
}

// RotatingBead resolves the bead whose questions rotate.
func RotatingBead(tab Tab, selectedId *string, s State) *Bead {
	if tab == TabEcho {
		if head := s.QueueHead(); head != nil {
			return head
		}
		fb := s.Fallback.Clone()
		return &fb
	}
	return collectionSelection(selectedId, s)
}

// ActiveModalBead resolves the bead edit and reflect operate on.
func ActiveModalBead(selectedId *string, s State) *Bead {
	if selectedId != nil {
		return collectionSelection(selectedId, s)
	}
	if head := s.QueueHead(); head != nil {
		return head
	}
	fb := s.Fallback.Clone()
	return &fb
}

func Resolve(v View, s State) Resolution {
	return Resolution{
		Rotating:    RotatingBead(v.Tab, v.SelectedId, s),
		ActiveModal: ActiveModalBead(v.SelectedId, s),
		QueueEmpty:  len(s.Queue) == 0,
	}
}

func collectionSelection(selectedId *string, s State) *Bead {
	if selectedId == nil {
		return nil
	}
	i := indexOf(s.Collection, *selectedId)
	if i < 0 {
		return nil
	}
	c := s.Collection[i].Clone()
	return &c
}
