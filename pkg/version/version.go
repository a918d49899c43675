package version

import "fmt"

const AppName = "PDFAnnotate"

var (
	// Set with -ldflags "-X github.com/kpauljoseph/pdfannotate/pkg/version.Version=..."
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

// GetVersionInfo returns the one-line form used in log output.
func GetVersionInfo() string {
	return fmt.Sprintf("%s %s (%s)", AppName, Version, shortCommit())
}

func GetDetailedVersionInfo() string {
	return AppName + "\n" +
		"Version:  " + Version + "\n" +
		"Commit:   " + CommitSHA + "\n" +
		"Built:    " + BuildDate + "\n"
}

func shortCommit() string {
	if len(CommitSHA) > 7 {
		return CommitSHA[:7]
	}
	return CommitSHA
}
