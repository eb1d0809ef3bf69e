package internal

import "strings"

// ReplyKind decides how a reply is rendered, independent of its text.
type ReplyKind int

const (
	// ReplyUnclassified asks the pipeline to classify the text itself.
	ReplyUnclassified ReplyKind = iota
	ReplyNone
	ReplyInformational
	ReplyActionable
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyNone:
		return "none"
	case ReplyInformational:
		return "informational"
	case ReplyActionable:
		return "actionable"
	default:
		return "unclassified"
	}
}

type ReplyResult struct {
	Text string
	Kind ReplyKind
}

// Interactive reports whether a confirmation button goes with the text.
func (r ReplyResult) Interactive() bool {
	return r.Kind == ReplyActionable
}

// RankOutcome is what a rank resolver hands back to the pipeline.
type RankOutcome struct {
	Text string
	Kind ReplyKind
}

// ClassifyReply resolves an outcome to a renderable reply. Outcomes that carry
// an explicit kind keep it; unclassified text is compared against the
// informational strings of the active locale.
func ClassifyReply(out RankOutcome, loc Localizer) ReplyResult {
	if out.Text == "" {
		return ReplyResult{Kind: ReplyNone}
	}
	if out.Kind != ReplyUnclassified {
		return ReplyResult{Text: out.Text, Kind: out.Kind}
	}

	if out.Text == loc.Lookup(KeyNoRankedData) ||
		containsSentinel(out.Text, loc.Lookup(KeyAlreadyAssigned)) ||
		containsSentinel(out.Text, loc.Lookup(KeyUnranked)) {
		return ReplyResult{Text: out.Text, Kind: ReplyInformational}
	}
	return ReplyResult{Text: out.Text, Kind: ReplyActionable}
}

func containsSentinel(text, sentinel string) bool {
	return sentinel != "" && strings.Contains(text, sentinel)
}
