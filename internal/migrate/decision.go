package migrate

import (
	"context"
	"errors"
	"regexp"

	"github.com/ameztoy/crosstune/internal/match"
	"github.com/ameztoy/crosstune/internal/shared"
	"github.com/charmbracelet/log"
)

// Action is what a decider asks the policy to do with a low-confidence item.
type Action int

const (
	// ActionAccept queues the suggested candidate. Valid only when the
	// item carries a resolution.
	ActionAccept Action = iota
	// ActionManual supplies a raw destination ID or track URL in Payload.
	ActionManual
	// ActionList asks for a ranked list of alternatives to pick from.
	ActionList
	// ActionSkip drops the item and records it in the skip log.
	ActionSkip
)

func (a Action) String() string {
	switch a {
	case ActionAccept:
		return "accept"
	case ActionManual:
		return "manual"
	case ActionList:
		return "list"
	case ActionSkip:
		return "skip"
	default:
		return ""
	}
}

// Decision is a decider's response for one item.
type Decision struct {
	Action  Action
	Payload string
}

// Decider is the sole boundary between the policy and a human (or scripted
// harness). The policy never performs terminal I/O itself.
type Decider interface {
	// Decide is called once per low-confidence item with its suggestion
	// baked into the item's Resolution (zero when unresolved).
	Decide(item PlannedItem) Decision

	// Pick presents ranked alternatives and returns the chosen index.
	// ok=false means no valid selection was made; the item is skipped.
	Pick(item PlannedItem, alternatives []match.Scored) (int, bool)
}

// Outcome tags the terminal state of one item within a run.
type Outcome int

const (
	OutcomeAutoAdded Outcome = iota
	OutcomeManualAdded
	OutcomeListedAdded
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAutoAdded:
		return "auto_added"
	case OutcomeManualAdded:
		return "manual_added"
	case OutcomeListedAdded:
		return "listed_added"
	case OutcomeSkipped:
		return "skipped"
	default:
		return ""
	}
}

// Known track URL shapes plus bare numeric IDs.
var trackURLRe = regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.)?(?:listen\.|open\.)?tidal\.com/(?:browse/)?track/(\d+)`)
var bareIDRe = regexp.MustCompile(`^\d+$`)

// ParseTrackID extracts a destination track ID from a raw ID or a track
// URL. Returns ok=false for anything unparseable; invalid manual input is
// never an error.
func ParseTrackID(input string) (string, bool) {
	if m := trackURLRe.FindStringSubmatch(input); m != nil {
		return m[1], true
	}
	if bareIDRe.MatchString(input) {
		return input, true
	}
	return "", false
}

// Policy classifies planned items and drives the interactive resolution
// protocol for the low-confidence ones.
type Policy struct {
	threshold  int
	limit      int
	resolver   *match.Resolver
	decider    Decider
	bulkAction string
	logger     *log.Logger
}

// NewPolicy creates a decision policy. bulkAction of "accept" or "skip"
// forces that action for every low-confidence item, bypassing the decider;
// empty means interactive.
func NewPolicy(threshold, limit int, resolver *match.Resolver, decider Decider, bulkAction string, logger *log.Logger) *Policy {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Policy{
		threshold:  threshold,
		limit:      limit,
		resolver:   resolver,
		decider:    decider,
		bulkAction: bulkAction,
		logger:     logger,
	}
}

// AutoAccept reports whether an item clears the confidence threshold
// without interaction. An unresolved item never auto-accepts.
func (p *Policy) AutoAccept(item PlannedItem) bool {
	return item.Resolution.Resolved() && item.Resolution.Score >= p.threshold
}

// Decide runs the resolution protocol for one low-confidence item and
// returns the destination ID to queue (empty for a skip) and the outcome
// tag. Every path terminates in exactly one outcome; no item is revisited.
// A non-nil error is always auth-class and must terminate the run.
func (p *Policy) Decide(ctx context.Context, item PlannedItem) (string, Outcome, error) {
	switch p.bulkAction {
	case "accept":
		if item.Resolution.Resolved() {
			return item.Resolution.ID, OutcomeManualAdded, nil
		}
		return "", OutcomeSkipped, nil
	case "skip":
		return "", OutcomeSkipped, nil
	}

	if p.decider == nil {
		return "", OutcomeSkipped, nil
	}

	decision := p.decider.Decide(item)

	switch decision.Action {
	case ActionAccept:
		if !item.Resolution.Resolved() {
			p.logger.Warn("no suggestion to accept, skipping",
				"track", item.SourceTrack, "artist", item.SourceArtist)
			return "", OutcomeSkipped, nil
		}
		return item.Resolution.ID, OutcomeManualAdded, nil

	case ActionManual:
		id, ok := ParseTrackID(decision.Payload)
		if !ok {
			p.logger.Warn("unparseable track ID, skipping",
				"input", decision.Payload, "track", item.SourceTrack)
			return "", OutcomeSkipped, nil
		}
		return id, OutcomeManualAdded, nil

	case ActionList:
		return p.pickFromAlternatives(ctx, item)

	default:
		return "", OutcomeSkipped, nil
	}
}

// pickFromAlternatives re-issues a scored search and lets the decider
// choose by index. Failures degrade to a skip, except an expired session,
// which is surfaced to end the run.
func (p *Policy) pickFromAlternatives(ctx context.Context, item PlannedItem) (string, Outcome, error) {
	ranked, err := p.resolver.Rank(ctx, item.SourceTrack, item.SourceArtist, p.limit)
	if err != nil {
		if errors.Is(err, shared.ErrAuthExpired) {
			return "", OutcomeSkipped, err
		}
		p.logger.Warn("alternative search failed, skipping",
			"track", item.SourceTrack, "error", err)
		return "", OutcomeSkipped, nil
	}
	if len(ranked) == 0 {
		p.logger.Warn("no alternatives found, skipping", "track", item.SourceTrack)
		return "", OutcomeSkipped, nil
	}

	idx, ok := p.decider.Pick(item, ranked)
	if !ok || idx < 0 || idx >= len(ranked) {
		return "", OutcomeSkipped, nil
	}

	return ranked[idx].Candidate.ID, OutcomeListedAdded, nil
}
