package http

import (
	"github.com/gin-gonic/gin"

	"github.com/fieldserve/dispatch/internal/model"
)

// Response shapes. The services return domain structs; these keep the
// wire contract stable and snake_cased independently of them.

func bookingView(b *model.Booking) gin.H {
	view := gin.H{
		"id":             b.ID,
		"customer_id":    b.CustomerID,
		"site_id":        b.SiteID,
		"service_id":     b.ServiceID,
		"status":         b.Status,
		"scheduled_date": b.ScheduledDate.Format("2006-01-02"),
		"slot":           b.Slot,
		"quantity":       b.Quantity,
		"quoted_price":   b.QuotedPrice,
	}
	if b.EngineerID != nil {
		view["engineer_id"] = *b.EngineerID
	}
	if b.StartedAt != nil {
		view["started_at"] = *b.StartedAt
	}
	if b.CompletedAt != nil {
		view["completed_at"] = *b.CompletedAt
	}
	return view
}

func decisionView(d *model.AllocationDecision) gin.H {
	view := gin.H{
		"score":      d.Score,
		"reasons":    d.Reasons,
		"candidates": candidateViews(d.Candidates),
	}
	if d.SelectedEngineerID != nil {
		view["engineer_id"] = *d.SelectedEngineerID
	}
	return view
}

func candidateViews(candidates []model.CandidateEvaluation) []gin.H {
	views := make([]gin.H, 0, len(candidates))
	for _, c := range candidates {
		view := gin.H{
			"engineer_id":   c.EngineerID,
			"engineer_name": c.EngineerName,
			"score":         c.Score,
		}
		if c.Rejected {
			view["rejected"] = true
			view["rejection_reason"] = c.RejectionReason
		} else {
			view["reasons"] = c.Reasons
		}
		views = append(views, view)
	}
	return views
}

func logEntryView(entry model.AllocationLogEntry) gin.H {
	view := gin.H{
		"id":          entry.ID,
		"booking_id":  entry.BookingID,
		"action":      entry.Action,
		"engineer_id": entry.ToEngineerID,
		"reasons":     entry.Reasons,
		"created_at":  entry.CreatedAt,
	}
	if entry.FromEngineerID != nil {
		view["previous_engineer_id"] = *entry.FromEngineerID
	}
	if entry.Score != nil {
		view["score"] = *entry.Score
	}
	return view
}

func routeViews(stops []model.RouteStop) []gin.H {
	views := make([]gin.H, 0, len(stops))
	for _, stop := range stops {
		views = append(views, gin.H{
			"booking_id": stop.BookingID,
			"site_id":    stop.SiteID,
			"postcode":   stop.Postcode,
			"area":       stop.Area,
			"slot":       stop.Slot,
		})
	}
	return views
}
