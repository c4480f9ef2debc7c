package layer

import "github.com/Faultbox/dtx/internal/engine/datatex"

// flagWriter routes colors-and-flags writes either straight to the GPU as
// 1×1 updates or, inside a deferred transaction, to the shadow copy only.
type flagWriter struct {
	cf       *datatex.ColorsAndFlags
	deferred bool
	dirty    bool
}

func (w *flagWriter) write(col, row int, v [4]byte, deferred bool) error {
	w.cf.Set(col, row, v)
	if w.deferred || deferred {
		w.dirty = true
		return nil
	}
	return w.cf.Flush(col, row)
}

// flush uploads the shadow copy once if anything changed since the last
// upload.
func (w *flagWriter) flush() error {
	if !w.dirty {
		return nil
	}
	w.dirty = false
	return w.cf.UploadAll()
}

func (w *flagWriter) begin() {
	w.deferred = true
}

func (w *flagWriter) commit() error {
	w.deferred = false
	return w.flush()
}
