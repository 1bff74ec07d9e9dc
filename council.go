package symposium

import (
	"context"
	"fmt"
	"strings"

	"github.com/agora-dev/symposium/api"
	"github.com/fogfish/opts"
	"github.com/go-openapi/swag"
	"golang.org/x/sync/errgroup"
)

// Ballot is one member's answer to the council's question.
type Ballot struct {
	Member string `json:"member"`
	Answer string `json:"answer"`
	Err    error  `json:"-"`
}

// Verdict is the outcome of a council deliberation. Only successful ballots
// count toward the tally; failed members are still reported in Ballots.
type Verdict struct {
	// Winner is the canonical form of the most voted answer. Empty when the
	// verdict is inconclusive.
	Winner string `json:"winner"`

	// Counts tallies votes per canonical answer.
	Counts map[string]int `json:"counts"`

	// Majority is true when the winner holds a strict majority of the
	// successful ballots, as opposed to a mere plurality.
	Majority bool `json:"majority"`

	// Inconclusive is true when fewer members answered than the quorum
	// requires.
	Inconclusive bool `json:"inconclusive"`

	Ballots []Ballot `json:"ballots"`
}

// Council asks one question to a fixed set of member agents and synthesizes
// their answers into a verdict. Each member runs the tool-call loop
// independently.
type Council struct {
	members  []api.Agent
	quorum   int
	maxTurns int
	manager  *Manager
}

// Members adds agents to the council.
func Members(member api.Agent, extraMembers ...api.Agent) opts.Option[Council] {
	return opts.Type[Council](func(c *Council) error {
		c.members = append(c.members, member)
		c.members = append(c.members, extraMembers...)
		return nil
	})
}

// Quorum sets the minimum number of successful ballots for a conclusive
// verdict. Defaults to 1.
var Quorum = opts.ForName[Council, int]("quorum")

// CouncilMaxTurns caps each member's completion turns.
var CouncilMaxTurns = opts.ForName[Council, int]("maxTurns")

// WithManager runs the members through an existing Manager so their runs
// show up in its listing.
var WithManager = opts.ForName[Council, *Manager]("manager")

// NewCouncil creates a council from the given options. At least one member
// is required at deliberation time.
func NewCouncil(options ...opts.Option[Council]) *Council {
	c := &Council{quorum: 1}
	if err := opts.Apply(c, options); err != nil {
		panic(err)
	}
	if c.manager == nil {
		c.manager = NewManager()
	}
	return c
}

// Deliberate puts the question to every member concurrently and tallies
// their answers. Ties break in favor of the answer that reached the winning
// count first, in member order.
func (c *Council) Deliberate(ctx context.Context, question string) (Verdict, error) {
	if len(c.members) == 0 {
		return Verdict{}, fmt.Errorf("council has no members")
	}
	if question == "" {
		return Verdict{}, fmt.Errorf("question is required")
	}

	ballots := make([]Ballot, len(c.members))

	g, gctx := errgroup.WithContext(ctx)
	for i, member := range c.members {
		g.Go(func() error {
			ballots[i] = c.consult(gctx, member, question)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Verdict{}, err
	}

	return c.synthesize(ballots), nil
}

// consult runs one member against the question and records the outcome as a
// ballot. Member failures land in the ballot, they never abort the
// deliberation.
func (c *Council) consult(ctx context.Context, member api.Agent, question string) Ballot {
	ballot := Ballot{Member: member.Name()}

	spawnOpts := []SpawnOption{SpawnLabel("council")}
	if c.maxTurns > 0 {
		spawnOpts = append(spawnOpts, SpawnMaxTurns(c.maxTurns))
	}

	run, err := c.manager.Spawn(ctx, member, question, spawnOpts...)
	if err != nil {
		ballot.Err = err
		return ballot
	}

	answer, err := c.manager.Wait(ctx, run.ID())
	if err != nil {
		ballot.Err = err
		return ballot
	}

	ballot.Answer = answer
	return ballot
}

// synthesize tallies the ballots into a verdict.
func (c *Council) synthesize(ballots []Ballot) Verdict {
	verdict := Verdict{
		Counts:  make(map[string]int),
		Ballots: ballots,
	}

	// Canonical answer forms, in order of first appearance. Case-insensitive
	// matching folds "Yes", "yes", and "YES." into one bucket.
	var canonical []string
	successful := 0
	winnerCount := 0

	for _, ballot := range ballots {
		if ballot.Err != nil {
			continue
		}
		successful++

		answer := normalizeAnswer(ballot.Answer)
		if !swag.ContainsStringsCI(canonical, answer) {
			canonical = append(canonical, answer)
		}
		key := answer
		for _, existing := range canonical {
			if strings.EqualFold(existing, answer) {
				key = existing
				break
			}
		}

		verdict.Counts[key]++
		// First answer to reach the top count wins ties.
		if verdict.Counts[key] > winnerCount {
			winnerCount = verdict.Counts[key]
			verdict.Winner = key
		}
	}

	if successful < c.quorum || successful == 0 {
		return Verdict{
			Counts:       verdict.Counts,
			Inconclusive: true,
			Ballots:      ballots,
		}
	}

	verdict.Majority = winnerCount*2 > successful
	return verdict
}

// normalizeAnswer strips the noise models wrap short answers in.
func normalizeAnswer(answer string) string {
	return strings.TrimRight(strings.TrimSpace(answer), ".!?")
}
