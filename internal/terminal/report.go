package terminal

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"storypanel/internal/models"
)

// PrintReport writes a group engagement report as a table.
func PrintReport(w io.Writer, r *models.GroupReport) {
	status := color.New(color.FgGreen).Sprint("active")
	if !r.Active {
		status = color.New(color.FgRed).Sprint("inactive")
	}
	titleColor.Fprintf(w, "%s", r.Title)
	fmt.Fprintf(w, "  #%d  %s  %s\n", r.GroupID, r.CitySlug, status)
	fmt.Fprintf(w, "views %d  opens %d  engagement %.1f%%\n", r.ViewCount, r.TotalOpens, r.EngagementRate)

	if len(r.Slides) == 0 {
		mutedColor.Fprintln(w, "no slides")
		return
	}
	fmt.Fprintf(w, "%-8s %-6s %-8s %s\n", "slide", "order", "opens", "caption")
	for _, s := range r.Slides {
		fmt.Fprintf(w, "%-8d %-6d %-8d %s\n", s.SlideID, s.SortOrder, s.OpenCount, s.Caption)
	}
}
