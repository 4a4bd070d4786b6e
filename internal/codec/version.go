package codec

import (
	"github.com/coreos/go-semver/semver"
)

// FormatVersion is the wire format version this build writes. It is the
// single authoritative version constant; the gate compares every read
// document against it.
const FormatVersion = "1.0.0"

// Verdict is the version gate's decision for a document.
type Verdict int

const (
	// Proceed means the document matches the runtime format
	// (patch differences ignored).
	Proceed Verdict = iota

	// ProceedWithWarning means the document was written by an older
	// minor of the same major. Reading continues; callers log it.
	ProceedWithWarning

	// Reject means the document cannot be read: different major,
	// newer minor, or an unreadable version field.
	Reject
)

// String implements fmt.Stringer.
func (v Verdict) String() string {
	switch v {
	case Proceed:
		return "proceed"
	case ProceedWithWarning:
		return "proceed-with-warning"
	case Reject:
		return "reject"
	}
	return "unknown"
}

// Gate decides whether a document version is readable by this build.
//
// Rules, checked before any payload interpretation:
//   - same major, same minor: Proceed (patch never matters)
//   - same major, older document minor: ProceedWithWarning
//   - different major, newer document minor, or unparsable version:
//     Reject with INCOMPATIBLE_VERSION
func Gate(documentVersion string) (Verdict, error) {
	return gateAgainst(documentVersion, FormatVersion)
}

func gateAgainst(documentVersion, runtimeVersion string) (Verdict, error) {
	runtime, err := semver.NewVersion(runtimeVersion)
	if err != nil {
		return Reject, NewIncompatibleVersionError(documentVersion, runtimeVersion,
			"runtime format version is not valid semver")
	}

	doc, err := semver.NewVersion(documentVersion)
	if err != nil {
		return Reject, NewIncompatibleVersionError(documentVersion, runtimeVersion,
			"document version is not valid semver")
	}

	if doc.Major != runtime.Major {
		return Reject, NewIncompatibleVersionError(documentVersion, runtimeVersion,
			"document format major differs from runtime")
	}
	if doc.Minor > runtime.Minor {
		return Reject, NewIncompatibleVersionError(documentVersion, runtimeVersion,
			"document format minor is newer than runtime")
	}
	if doc.Minor < runtime.Minor {
		return ProceedWithWarning, nil
	}
	return Proceed, nil
}
