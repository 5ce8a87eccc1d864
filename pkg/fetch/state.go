package fetch

import "fmt"

// Kind is the coarse download state shown to the user.
type Kind int

const (
	// KindDownload means no local copy exists and nothing is running.
	KindDownload Kind = iota
	KindDownloading
	KindDownloaded
	// KindFailed means the last transfer ended with an error. Err holds it.
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindDownload:
		return "download"
	case KindDownloading:
		return "downloading"
	case KindDownloaded:
		return "downloaded"
	case KindFailed:
		return "failed"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// State is a snapshot of the controller.
type State struct {
	Kind Kind
	// Progress is in [0, 1] and only meaningful for KindDownloading.
	Progress float64
	Err      error
}

func (s State) String() string {
	switch s.Kind {
	case KindDownloading:
		return fmt.Sprintf("downloading(%.2f)", s.Progress)
	case KindFailed:
		return fmt.Sprintf("failed(%v)", s.Err)
	}
	return s.Kind.String()
}
