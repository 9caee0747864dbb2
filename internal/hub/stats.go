package hub

import (
	"math"
	"time"
)

// mpsFromNs returns the frequency of an event occurring every ns
// nanoseconds.
func mpsFromNs(ns float64) float64 {
	return 1 / (ns * 1e-9)
}

func (f *Frames) report(now time.Time) ReportStats {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.size.Count() == 0 {
		return ReportStats{Last: "Never"}
	}

	return ReportStats{
		Last: now.Sub(f.last).String(),
		Size: math.Round(f.size.Mean()),
		Mps:  mpsFromNs(f.ns.Mean()),
	}
}

// Reports describes every live session for the /stats endpoint: who it
// is (once joined), where it connected from, and welford running stats
// over frame sizes and inter-frame intervals in each direction.
func (h *Hub) Reports() []ClientReport {

	now := h.Now()

	h.mu.Lock()

	clients := make([]*Client, 0, len(h.sessions))
	for c := range h.sessions {
		clients = append(clients, c)
	}

	reports := make([]ClientReport, 0, len(clients))

	for _, c := range clients {
		report := ClientReport{
			Name:       c.name,
			Connected:  c.stats.connectedAt.String(),
			RemoteAddr: c.remoteAddr,
			UserAgent:  c.userAgent,
		}
		if m, ok := h.members[c.userID]; c.userID != "" && ok {
			report.Username = m.user.Username
			report.RoomID = m.user.RoomID
			report.Role = string(m.user.Role)
		}
		reports = append(reports, report)
	}

	h.mu.Unlock()

	// frame stats have their own lock; fill them in outside the hub mutex
	for i, c := range clients {
		reports[i].Stats = RxTx{
			Tx: c.stats.tx.report(now),
			Rx: c.stats.rx.report(now),
		}
	}

	return reports
}
