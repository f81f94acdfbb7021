package translations

import "github.com/platinummonkey/folio/pkg/auth"

type actor int

const (
	actorTranslator actor = iota
	actorAuthor
)

// transitions maps each allowed (from, to) pair to the party that may perform it
var transitions = map[Status]map[Status]actor{
	StatusPending:    {StatusInProgress: actorTranslator},
	StatusInProgress: {StatusCompleted: actorTranslator},
	StatusCompleted:  {StatusApproved: actorAuthor, StatusRejected: actorAuthor},
}

// Policy decides who may move a translation between statuses
type Policy struct{}

// CanTransition checks that identity may move t to status to.
// Non-participants get ErrNotParticipant before the transition itself is
// examined, so they learn nothing about the translation's state.
func (Policy) CanTransition(identity *auth.Identity, t *Translation, to Status) error {
	if identity == nil {
		return auth.ErrMissingToken
	}

	isTranslator := t.TranslatorID != nil && *t.TranslatorID == identity.UserID
	isAuthor := t.WorkAuthorID != "" && t.WorkAuthorID == identity.UserID
	if !isTranslator && !isAuthor {
		return ErrNotParticipant
	}

	who, ok := transitions[t.Status][to]
	if !ok {
		return ErrInvalidTransition.WithMessage(
			"A translation cannot move from " + string(t.Status) + " to " + string(to))
	}

	switch who {
	case actorTranslator:
		if !isTranslator {
			return ErrNotParticipant.WithMessage("Only the assigned translator may make this change")
		}
	case actorAuthor:
		if !isAuthor {
			return ErrNotParticipant.WithMessage("Only the work's author may review this translation")
		}
	}
	return nil
}
