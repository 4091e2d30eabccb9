package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pfrederiksen/campus-events/internal/calendar"
	"github.com/pfrederiksen/campus-events/internal/extract"
	"github.com/pfrederiksen/campus-events/internal/patterns"
)

const samplePage = `<html><body>
<div class="event-item">
  <b>Jane Doe</b>, Wednesday, March 5, 2025 2:00pm–3:00pm, MIT Building 10
  <p>Protein design with machine learning. Join us on Zoom.</p>
</div>
<div class="event-item">
  <h3><a href="/events/cellular-aging">Cellular Aging and Repair</a></h3>
  <p>Tuesday, April 1, 2025</p>
  <p class="event-location">Location: Biological Laboratories, Room 1080</p>
</div>
</body></html>`

func main() {
	// Extract sample records the same way a scrape would
	engine := extract.New(patterns.Default())
	records, err := engine.ExtractHTML(strings.NewReader(samplePage), "https://www.mit.edu/events")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error extracting sample page: %v\n", err)
		os.Exit(1)
	}

	// Generate .ics file
	icsContent := calendar.GenerateBulkICS(records, "Campus Events - Test")

	// Write to file (owner read/write only for security)
	filename := "test-campus-events.ics"
	if err := os.WriteFile(filename, []byte(icsContent), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Generated calendar file with %d events: %s\n\n", len(records), filename)
	fmt.Println("Test it by:")
	fmt.Println("1. Open the .ics file with your calendar app (double-click)")
	fmt.Println("2. Or import it into Google Calendar, Apple Calendar, or Outlook")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(icsContent)
}
