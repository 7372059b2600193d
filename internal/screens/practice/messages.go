package practice

import (
	"time"

	"github.com/abhisek/tensetrainer/internal/training"
)

// detailLoadedMsg is sent when a resumed session has been fetched.
type detailLoadedMsg struct {
	Detail *training.SessionDetailDTO
	Err    error
}

// actionDoneMsg is sent when a round or session request finishes. The
// transcript store already holds the outcome.
type actionDoneMsg struct {
	Err error
}

// reportDoneMsg is sent when a question report was filed.
type reportDoneMsg struct {
	Err error
}

// spinnerTickMsg animates the loading placeholder.
type spinnerTickMsg time.Time
