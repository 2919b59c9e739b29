// Package dashboard aggregates complaint counts for the dashboard view.
package dashboard

import (
	"math"
	"time"

	"github.com/hostelcare/hostelcare/internal/domain/complaint"
)

// Summary is the slice of a complaint the aggregation needs.
type Summary struct {
	Status     complaint.Status
	Priority   complaint.Priority
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

type StatusCount struct {
	Status complaint.Status `json:"status"`
	Count  int              `json:"count"`
}

type PriorityCount struct {
	Priority complaint.Priority `json:"priority"`
	Count    int                `json:"count"`
}

type Stats struct {
	TotalComplaints      int             `json:"totalComplaints"`
	OpenComplaints       int             `json:"openComplaints"`
	ClosedComplaints     int             `json:"closedComplaints"`
	AvgResolutionTime    float64         `json:"avgResolutionTime"`
	ComplaintsByStatus   []StatusCount   `json:"complaintsByStatus"`
	ComplaintsByPriority []PriorityCount `json:"complaintsByPriority"`
}

var priorityOrder = []complaint.Priority{
	complaint.PriorityLow, complaint.PriorityMedium, complaint.PriorityHigh, complaint.PriorityCritical,
}

// ComputeStats reduces summaries to dashboard figures. AvgResolutionTime is
// the mean of resolvedAt-createdAt in hours over resolved complaints,
// rounded to one decimal, and 0 when none are resolved. Groups with no
// complaints are omitted.
func ComputeStats(summaries []Summary) Stats {
	stats := Stats{
		TotalComplaints:      len(summaries),
		ComplaintsByStatus:   []StatusCount{},
		ComplaintsByPriority: []PriorityCount{},
	}
	byStatus := make(map[complaint.Status]int)
	byPriority := make(map[complaint.Priority]int)
	var (
		resolved int
		hours    float64
	)
	for _, s := range summaries {
		byStatus[s.Status]++
		byPriority[s.Priority]++
		if s.Status == complaint.StatusClosed {
			stats.ClosedComplaints++
		} else {
			stats.OpenComplaints++
		}
		if s.ResolvedAt != nil {
			resolved++
			hours += s.ResolvedAt.Sub(s.CreatedAt).Hours()
		}
	}
	if resolved > 0 {
		stats.AvgResolutionTime = math.Round(hours/float64(resolved)*10) / 10
	}
	for _, st := range complaint.Statuses {
		if n := byStatus[st]; n > 0 {
			stats.ComplaintsByStatus = append(stats.ComplaintsByStatus, StatusCount{Status: st, Count: n})
		}
	}
	for _, p := range priorityOrder {
		if n := byPriority[p]; n > 0 {
			stats.ComplaintsByPriority = append(stats.ComplaintsByPriority, PriorityCount{Priority: p, Count: n})
		}
	}
	return stats
}
