package diag

import "github.com/Wesleyxl/pitcrew-ai/pkg/protocol"

type multi []protocol.Diagnostics

// Multi forwards every outcome to each non-nil sink in order.
func Multi(sinks ...protocol.Diagnostics) protocol.Diagnostics {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multi) Decoded(id protocol.PacketID) {
	for _, s := range m {
		s.Decoded(id)
	}
}

func (m multi) Dropped(id protocol.PacketID, err error) {
	for _, s := range m {
		s.Dropped(id, err)
	}
}
