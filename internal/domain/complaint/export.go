package complaint

import (
	"context"

	"github.com/hostelcare/hostelcare/internal/platform/reporting"
)

var exportColumns = []reporting.Column{
	{Header: "ID", Width: 38},
	{Header: "Title", Width: 40},
	{Header: "Facility", Width: 24},
	{Header: "Priority", Width: 10},
	{Header: "Status", Width: 12},
	{Header: "Created By", Width: 24},
	{Header: "Assigned To", Width: 24},
	{Header: "Created At", Width: 20},
	{Header: "Resolved At", Width: 20},
	{Header: "Closed At", Width: 20},
}

// Export renders the complaints visible to requester as an XLSX workbook.
func (s *Service) Export(ctx context.Context, requester Requester, f Filter) ([]byte, error) {
	items, err := s.List(ctx, requester, f)
	if err != nil {
		return nil, err
	}
	return reporting.Build(exportSheet(items))
}

func exportSheet(items []*Complaint) reporting.Sheet {
	rows := make([][]any, 0, len(items))
	for _, c := range items {
		var facilityName, creator, assignee string
		if c.Facility != nil {
			facilityName = c.Facility.Name
		}
		if c.CreatedBy != nil {
			creator = c.CreatedBy.Name
		}
		if a := c.ActiveAssignment(); a != nil && a.AssignedTo != nil {
			assignee = a.AssignedTo.Name
		}
		rows = append(rows, []any{
			c.ID.String(), c.Title, facilityName, string(c.Priority), string(c.Status),
			creator, assignee, c.CreatedAt, c.ResolvedAt, c.ClosedAt,
		})
	}
	return reporting.Sheet{Name: "Complaints", Columns: exportColumns, Rows: rows}
}
