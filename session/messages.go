package session

import (
	"fmt"

	wastebot "github.com/greenloop/wastebot"
)

// User-facing copy. Every handled event produces exactly one of these or
// a silent no-op.
const (
	msgAskLocation     = "Photo accepted! Now share the location of the waste so we can file the report."
	msgSendPhotoFirst  = "Please send a photo of the waste first, then share the location."
	msgNoWaste         = "We couldn't identify reportable waste in this photo. Try a closer, well-lit shot."
	msgDuplicate       = "This photo has already been reported. Thank you for staying alert!"
	msgTooSmall        = "That image is too small to analyze. Please send a full-size photo."
	msgTooLarge        = "That image is too large. Please send a photo under 10 MB."
	msgTechnical       = "Something went wrong on our side. Please try again in a moment."
	msgCancelled       = "Submission cancelled. Send a new photo whenever you're ready."
	msgNothingToCancel = "There is nothing to cancel right now."

	msgHelp = "Send a photo of waste in a public space, then share its location. " +
		"You earn points for every filed report.\n" +
		"Commands: /points shows your balance, /cancel discards the current photo, /help repeats this message."

	msgStart = "Welcome to the waste reporting bot! Snap a photo of litter or dumping, " +
		"send it here, then share the location. Every report earns you points."
)

func msgReportCreated(report *wastebot.Report, points int) string {
	return fmt.Sprintf("Report filed! Category: %s. You earned %d points. Thank you for keeping the city clean.",
		report.Category, points)
}

func msgPoints(balance int) string {
	return fmt.Sprintf("You have %d points.", balance)
}

func mapButton(lat, lng float64) wastebot.Button {
	return wastebot.Button{
		Label: "View on map",
		URL:   fmt.Sprintf("https://www.openstreetmap.org/?mlat=%f&mlon=%f#map=18/%f/%f", lat, lng, lat, lng),
	}
}
